package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the complete papertrader configuration
type Config struct {
	Store   StoreConfig   `json:"store" yaml:"store"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
	Quotes  QuotesConfig  `json:"quotes" yaml:"quotes"`
	Log     LogConfig     `json:"log" yaml:"log"`
}

// StoreConfig selects where the ledger is persisted
type StoreConfig struct {
	Type       string `json:"type" yaml:"type" validate:"required,oneof=memory file sqlite"`
	Path       string `json:"path,omitempty" yaml:"path,omitempty"`
	MaxRetries int    `json:"max_retries" yaml:"max_retries" validate:"gte=0,lte=100"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type        string `json:"type" yaml:"type" validate:"required,oneof=none csv sqlite"`
	DBPath      string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	TradesFile  string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	BalanceFile string `json:"balance_file,omitempty" yaml:"balance_file,omitempty"`
}

// QuotesConfig selects the market price source used for valuation and
// for trades entered without an explicit price.
type QuotesConfig struct {
	Provider string             `json:"provider" yaml:"provider" validate:"required,oneof=static polygon"`
	APIKey   string             `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Prices   map[string]float64 `json:"prices,omitempty" yaml:"prices,omitempty" validate:"dive,gt=0"`
}

// LogConfig controls the zap logger
type LogConfig struct {
	Level string `json:"level" yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
}

// PolygonKeyEnv is consulted when quotes.api_key is empty.
const PolygonKeyEnv = "POLYGON_API_KEY"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// LoadFromFile loads configuration from a file (JSON or YAML based on extension)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ApplyEnv fills unset secrets from the environment.
func (c *Config) ApplyEnv() {
	if c.Quotes.APIKey == "" {
		c.Quotes.APIKey = os.Getenv(PolygonKeyEnv)
	}
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fieldError(verrs[0])
		}
		return err
	}

	if (c.Store.Type == "file" || c.Store.Type == "sqlite") && c.Store.Path == "" {
		return fmt.Errorf("store.path required for %s store", c.Store.Type)
	}
	if c.Journal.Type == "sqlite" && c.Journal.DBPath == "" {
		return fmt.Errorf("journal db_path required for SQLite type")
	}
	if c.Journal.Type == "csv" && (c.Journal.TradesFile == "" || c.Journal.BalanceFile == "") {
		return fmt.Errorf("journal trades_file and balance_file required for CSV type")
	}
	if c.Quotes.Provider == "polygon" && c.Quotes.APIKey == "" {
		return fmt.Errorf("quotes.api_key (or %s) required for polygon provider", PolygonKeyEnv)
	}
	return nil
}

func fieldError(fe validator.FieldError) error {
	// Namespace is "Config.store.type"; drop the root struct name.
	name := fe.Namespace()
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", name)
	case "oneof":
		return fmt.Errorf("%s must be one of: %s", name, fe.Param())
	case "gt":
		return fmt.Errorf("%s must be greater than %s", name, fe.Param())
	case "gte":
		return fmt.Errorf("%s must be at least %s", name, fe.Param())
	case "lte":
		return fmt.Errorf("%s must be at most %s", name, fe.Param())
	}
	return fmt.Errorf("%s failed %s validation", name, fe.Tag())
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Type:       "file",
			Path:       "./ledger.json",
			MaxRetries: 5,
		},
		Journal: JournalConfig{
			Type: "none",
		},
		Quotes: QuotesConfig{
			Provider: "static",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
