package quote

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/papertrader/ledger"
)

var ctx = context.Background()

func TestStatic(t *testing.T) {
	s := NewStaticFromFloats(map[string]float64{"aapl": 150.25})

	p, err := s.Price(ctx, "AAPL")
	require.NoError(t, err)
	assert.True(t, p.Equal(decimal.RequireFromString("150.25")))

	p, err = s.Price(ctx, " aapl ")
	require.NoError(t, err)
	assert.True(t, p.Equal(decimal.RequireFromString("150.25")))

	_, err = s.Price(ctx, "MSFT")
	assert.ErrorIs(t, err, ledger.ErrQuoteUnavailable)

	s.Set("AAPL", decimal.Zero)
	_, err = s.Price(ctx, "AAPL")
	assert.ErrorIs(t, err, ledger.ErrQuoteUnavailable)
}

func TestStaticConcurrent(t *testing.T) {
	s := NewStatic()
	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			s.Set("AAPL", decimal.NewFromInt(int64(i)))
		}(i)
		go func() {
			defer wg.Done()
			_, _ = s.Price(ctx, "AAPL")
		}()
	}
	wg.Wait()

	p, err := s.Price(ctx, "AAPL")
	require.NoError(t, err)
	assert.True(t, p.IsPositive())
}

func TestFunc(t *testing.T) {
	var f PriceLookup = Func(func(ctx context.Context, symbol string) (decimal.Decimal, error) {
		return decimal.NewFromInt(int64(len(symbol))), nil
	})
	p, err := f.Price(ctx, "ABCD")
	require.NoError(t, err)
	assert.True(t, p.Equal(decimal.NewFromInt(4)))
}

type mockAggs struct {
	mock.Mock
}

func (m *mockAggs) GetPreviousCloseAgg(ctx context.Context, params *models.GetPreviousCloseAggParams,
	opts ...models.RequestOption) (*models.GetPreviousCloseAggResponse, error) {
	args := m.Called(ctx, params.Ticker)
	res, _ := args.Get(0).(*models.GetPreviousCloseAggResponse)
	return res, args.Error(1)
}

func TestPolygon(t *testing.T) {
	m := &mockAggs{}
	m.On("GetPreviousCloseAgg", mock.Anything, "AAPL").Return(&models.GetPreviousCloseAggResponse{
		Results: []models.Agg{{Close: 187.44}},
	}, nil)
	m.On("GetPreviousCloseAgg", mock.Anything, "EMPTY").Return(&models.GetPreviousCloseAggResponse{}, nil)
	m.On("GetPreviousCloseAgg", mock.Anything, "ZERO").Return(&models.GetPreviousCloseAggResponse{
		Results: []models.Agg{{Close: 0}},
	}, nil)
	m.On("GetPreviousCloseAgg", mock.Anything, "DOWN").Return(nil, errors.New("503"))

	p := NewPolygonWithClient(m)

	price, err := p.Price(ctx, "aapl")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("187.44")))

	for _, sym := range []string{"EMPTY", "ZERO", "DOWN"} {
		_, err := p.Price(ctx, sym)
		assert.ErrorIs(t, err, ledger.ErrQuoteUnavailable, sym)
	}
	m.AssertExpectations(t)
}

func TestUnavailable(t *testing.T) {
	cause := errors.New("timeout")
	err := Unavailable("AAPL", cause)
	assert.ErrorIs(t, err, ledger.ErrQuoteUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "AAPL")
}
