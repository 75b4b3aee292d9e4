package quote

import (
	"context"
	"errors"
	"fmt"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/shopspring/decimal"
)

// AggsClient is the slice of the Polygon REST client used here.
type AggsClient interface {
	GetPreviousCloseAgg(ctx context.Context, params *models.GetPreviousCloseAggParams,
		opts ...models.RequestOption) (*models.GetPreviousCloseAggResponse, error)
}

// Polygon prices symbols at their previous session close from Polygon.io.
type Polygon struct {
	client AggsClient
}

// NewPolygon builds a lookup backed by the Polygon REST API.
func NewPolygon(apiKey string) *Polygon {
	return &Polygon{client: polygon.New(apiKey)}
}

// NewPolygonWithClient is used to inject a fake client.
func NewPolygonWithClient(c AggsClient) *Polygon {
	return &Polygon{client: c}
}

var errNoBars = errors.New("no previous close")

func (p *Polygon) Price(ctx context.Context, symbol string) (decimal.Decimal, error) {
	symbol = Normalize(symbol)
	adjusted := true

	res, err := p.client.GetPreviousCloseAgg(ctx, &models.GetPreviousCloseAggParams{
		Ticker:   symbol,
		Adjusted: &adjusted,
	})
	if err != nil {
		return decimal.Zero, Unavailable(symbol, err)
	}
	if res == nil || len(res.Results) == 0 {
		return decimal.Zero, Unavailable(symbol, errNoBars)
	}

	last := res.Results[len(res.Results)-1]
	if last.Close <= 0 {
		return decimal.Zero, Unavailable(symbol, fmt.Errorf("bad close %v", last.Close))
	}
	return decimal.NewFromFloat(last.Close), nil
}
