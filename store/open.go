package store

import (
	"fmt"

	"github.com/rustyeddy/papertrader/config"
	"github.com/rustyeddy/papertrader/ledger"
)

// Open builds the store described by cfg.
func Open(cfg config.StoreConfig, opts ...Option) (Store, error) {
	var (
		b   Backend
		err error
	)
	switch cfg.Type {
	case "memory":
		b = NewMemory()
	case "file":
		b, err = NewFile(cfg.Path)
	case "sqlite":
		b, err = NewSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open %s store: %w", ledger.ErrStoreIO, cfg.Type, err)
	}

	if cfg.MaxRetries > 0 {
		opts = append([]Option{WithMaxRetries(cfg.MaxRetries)}, opts...)
	}
	return New(b, opts...), nil
}
