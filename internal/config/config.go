package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment variable read by the tool
	EnvPrefix = "KAZUDASHI"

	// Default values
	DefaultTemplate          = "template.xlsm"
	DefaultDeliveryTemplate  = "nouhinsyo.xlsx"
	DefaultCatalogDir        = "."
	DefaultProductPrefix     = "商品マスタ一覧"
	DefaultCustomerPrefix    = "得意先マスタ一覧"
	DefaultLogLevel          = "info"
	DefaultWorkers           = 2
	DefaultStartRow          = 1
	DefaultBoundaryTolerance = 2.0
	DefaultRowTolerance      = 1.5
	DefaultWordTolerance     = 3.0
)

// Config holds the settings shared by every subcommand
type Config struct {
	Template         string `validate:"required"`
	DeliveryTemplate string
	CatalogDir       string `validate:"required"`
	ProductPrefix    string `validate:"required"`
	CustomerPrefix   string `validate:"required"`
	OutputDir        string
	LogLevel         string `validate:"oneof=debug info warn error"`
	Workers          int    `validate:"min=1,max=32"`
	StartRow         int    `validate:"min=1"`

	BoundaryTolerance float64 `validate:"gt=0"`
	RowTolerance      float64 `validate:"gt=0"`
	WordXTolerance    float64 `validate:"gt=0"`
	WordYTolerance    float64 `validate:"gt=0"`
}

// DefaultConfig returns a configuration with the default values
func DefaultConfig() *Config {
	return &Config{
		Template:          DefaultTemplate,
		DeliveryTemplate:  DefaultDeliveryTemplate,
		CatalogDir:        DefaultCatalogDir,
		ProductPrefix:     DefaultProductPrefix,
		CustomerPrefix:    DefaultCustomerPrefix,
		LogLevel:          DefaultLogLevel,
		Workers:           DefaultWorkers,
		StartRow:          DefaultStartRow,
		BoundaryTolerance: DefaultBoundaryTolerance,
		RowTolerance:      DefaultRowTolerance,
		WordXTolerance:    DefaultWordTolerance,
		WordYTolerance:    DefaultWordTolerance,
	}
}

// Loader reads configuration from flags, KAZUDASHI_* environment variables
// and an optional .env file, in that order of precedence
type Loader struct {
	flags *pflag.FlagSet
	v     *viper.Viper
}

// NewLoader registers the shared flags on flags
func NewLoader(flags *pflag.FlagSet) *Loader {
	cfg := DefaultConfig()

	flags.String("template", cfg.Template, "Macro workbook template (.xlsm)")
	flags.String("delivery-template", cfg.DeliveryTemplate, "Delivery note workbook template (.xlsx); empty to skip")
	flags.String("catalog-dir", cfg.CatalogDir, "Directory holding the master CSV files")
	flags.String("product-prefix", cfg.ProductPrefix, "File name prefix of the product master")
	flags.String("customer-prefix", cfg.CustomerPrefix, "File name prefix of the customer master")
	flags.String("output-dir", cfg.OutputDir, "Directory for generated workbooks (default: next to each PDF)")
	flags.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flags.Int("workers", cfg.Workers, "Number of PDFs converted concurrently")
	flags.Int("start-row", cfg.StartRow, "First row written in the extraction sheets")
	flags.Float64("boundary-tolerance", cfg.BoundaryTolerance, "Vertical line tolerance for column boundaries")
	flags.Float64("row-tolerance", cfg.RowTolerance, "Vertical tolerance for grouping words into rows")
	flags.Float64("word-x-tolerance", cfg.WordXTolerance, "Horizontal gap that splits words")
	flags.Float64("word-y-tolerance", cfg.WordYTolerance, "Vertical tolerance for characters on one line")

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return &Loader{flags: flags, v: v}
}

// Load reads envFile when it exists, binds the parsed flags and returns the
// validated configuration. The flag set must already be parsed.
func (l *Loader) Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	if err := l.v.BindPFlags(l.flags); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	cfg := &Config{
		Template:          l.v.GetString("template"),
		DeliveryTemplate:  l.v.GetString("delivery-template"),
		CatalogDir:        l.v.GetString("catalog-dir"),
		ProductPrefix:     l.v.GetString("product-prefix"),
		CustomerPrefix:    l.v.GetString("customer-prefix"),
		OutputDir:         l.v.GetString("output-dir"),
		LogLevel:          strings.ToLower(l.v.GetString("loglevel")),
		Workers:           l.v.GetInt("workers"),
		StartRow:          l.v.GetInt("start-row"),
		BoundaryTolerance: l.v.GetFloat64("boundary-tolerance"),
		RowTolerance:      l.v.GetFloat64("row-tolerance"),
		WordXTolerance:    l.v.GetFloat64("word-x-tolerance"),
		WordYTolerance:    l.v.GetFloat64("word-y-tolerance"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration values
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// SlogLevel maps LogLevel to a slog level
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the text logger used by the tool, writing to stderr
func (c *Config) NewLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: c.SlogLevel()}))
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Template: %s, DeliveryTemplate: %s, CatalogDir: %s, OutputDir: %s, LogLevel: %s, Workers: %d}",
		c.Template, c.DeliveryTemplate, c.CatalogDir, c.OutputDir, c.LogLevel, c.Workers)
}
