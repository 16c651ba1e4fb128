// Package config loads simulator settings from YAML.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/FlavioCFOliveira/convaddr/internal/addr"
	"github.com/FlavioCFOliveira/convaddr/internal/layer"
)

// ErrInvalidConfig is returned (wrapped) when a loaded file fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// Config represents the simulator configuration.
type Config struct {
	Layer   LayerConfig   `yaml:"layer"`
	Schemes []string      `yaml:"schemes"`
	Trace   TraceConfig   `yaml:"trace"`
	Memory  MemoryConfig  `yaml:"memory"`
	Logging LoggingConfig `yaml:"logging"`
}

type LayerConfig struct {
	InChannels int `yaml:"in_channels"`
	InRows     int `yaml:"in_rows"`
	InCols     int `yaml:"in_cols"`
	Filters    int `yaml:"filters"`
	KernelRows int `yaml:"kernel_rows"`
	KernelCols int `yaml:"kernel_cols"`
	Stride     int `yaml:"stride"`     // both axes
	RowStride  int `yaml:"row_stride"` // overrides stride
	ColStride  int `yaml:"col_stride"` // overrides stride
}

type TraceConfig struct {
	Format  string `yaml:"format"` // "text", "csv" or "none"
	CSVPath string `yaml:"csv_path"`
}

type MemoryConfig struct {
	ActivationBase int `yaml:"activation_base"`
	OutputBase     int `yaml:"output_base"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the reference configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from a YAML file. Missing fields take the
// reference values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes, defaults and validates YAML configuration data.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	ref := layer.Default()
	l := &c.Layer
	if l.InChannels == 0 {
		l.InChannels = ref.InChannels
	}
	if l.InRows == 0 {
		l.InRows = ref.InRows
	}
	if l.InCols == 0 {
		l.InCols = ref.InCols
	}
	if l.Filters == 0 {
		l.Filters = ref.Filters
	}
	if l.KernelRows == 0 {
		l.KernelRows = ref.KernelRows
	}
	if l.KernelCols == 0 {
		l.KernelCols = ref.KernelCols
	}
	if l.Stride == 0 {
		l.Stride = ref.RowStride
	}
	if l.RowStride == 0 {
		l.RowStride = l.Stride
	}
	if l.ColStride == 0 {
		l.ColStride = l.Stride
	}

	if len(c.Schemes) == 0 {
		c.Schemes = []string{"legacy", "strided"}
	}
	c.Trace.Format = strings.ToLower(strings.TrimSpace(c.Trace.Format))
	if c.Trace.Format == "" {
		c.Trace.Format = "text"
	}
	if c.Trace.Format == "csv" && c.Trace.CSVPath == "" {
		c.Trace.CSVPath = "trace.csv"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Conv2D returns the configured layer shape.
func (c *Config) Conv2D() layer.Conv2D {
	return layer.Conv2D{
		InChannels: c.Layer.InChannels,
		InRows:     c.Layer.InRows,
		InCols:     c.Layer.InCols,
		Filters:    c.Layer.Filters,
		KernelRows: c.Layer.KernelRows,
		KernelCols: c.Layer.KernelCols,
		RowStride:  c.Layer.RowStride,
		ColStride:  c.Layer.ColStride,
	}
}

// AddressSchemes resolves the configured scheme names, in order.
func (c *Config) AddressSchemes() ([]addr.Scheme, error) {
	shape := c.Conv2D()
	schemes := make([]addr.Scheme, 0, len(c.Schemes))
	for _, name := range c.Schemes {
		s, err := addr.ParseScheme(name, shape)
		if err != nil {
			return nil, err
		}
		schemes = append(schemes, s)
	}
	return schemes, nil
}

// LogLevel maps the configured level name to a slog level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return 0, fmt.Errorf("%w: logging level %q", ErrInvalidConfig, c.Logging.Level)
	}
	return level, nil
}

// Validate checks the layer shape, scheme names, trace format and log level.
func (c *Config) Validate() error {
	if err := c.Conv2D().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := c.AddressSchemes(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	switch c.Trace.Format {
	case "text", "csv", "none":
	default:
		return fmt.Errorf("%w: trace format %q", ErrInvalidConfig, c.Trace.Format)
	}
	if c.Memory.ActivationBase < 0 || c.Memory.OutputBase < 0 {
		return fmt.Errorf("%w: base addresses must be non-negative", ErrInvalidConfig)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}
