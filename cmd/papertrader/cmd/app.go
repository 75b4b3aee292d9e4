package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/papertrader/config"
	"github.com/rustyeddy/papertrader/journal"
	"github.com/rustyeddy/papertrader/logger"
	"github.com/rustyeddy/papertrader/quote"
	"github.com/rustyeddy/papertrader/store"
	"github.com/rustyeddy/papertrader/trading"
)

// DefaultConfigFile is read when --config is not given and it exists.
const DefaultConfigFile = "papertrader.yaml"

// app is everything one command needs, built from the config and torn
// down when the command returns.
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	store   store.Store
	journal journal.Journal
	quotes  quote.PriceLookup
	engine  *trading.Engine
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	path := o.configPath
	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}

	var cfg *config.Config
	if path == "" {
		cfg = config.Default()
		cfg.ApplyEnv()
	} else {
		var err error
		if cfg, err = config.LoadFromFile(path); err != nil {
			return nil, err
		}
	}

	if o.ledgerPath != "" {
		cfg.Store.Path = o.ledgerPath
		if cfg.Store.Type == "memory" {
			cfg.Store.Type = "file"
		}
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newApp(o *rootOptions) (*app, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	s, err := store.Open(cfg.Store, store.WithLogger(log))
	if err != nil {
		return nil, err
	}

	j, err := journal.Open(cfg.Journal)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("open journal: %w", err)
	}

	a := &app{
		cfg:     cfg,
		log:     log,
		store:   s,
		journal: j,
		quotes:  newQuotes(cfg.Quotes),
	}
	a.engine = trading.New(s, trading.WithJournal(j), trading.WithLogger(log))
	return a, nil
}

func newQuotes(cfg config.QuotesConfig) quote.PriceLookup {
	if cfg.Provider == "polygon" {
		return quote.NewPolygon(cfg.APIKey)
	}
	return quote.NewStaticFromFloats(cfg.Prices)
}

func (a *app) Close() error {
	err := errors.Join(a.journal.Close(), a.store.Close())
	_ = a.log.Sync()
	return err
}

// withApp adapts a command body that needs an app to cobra's RunE.
func withApp(o *rootOptions, run func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(o)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := a.Close(); err == nil {
				err = cerr
			}
		}()
		return run(cmd, args, a)
	}
}
