package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/sdejongh/doccompare/pkg/models"
	"github.com/sdejongh/doccompare/pkg/overlay"
	"github.com/sdejongh/doccompare/pkg/pixeldiff"
	"github.com/sdejongh/doccompare/pkg/preview"
	"github.com/sdejongh/doccompare/pkg/selection"
	"github.com/sdejongh/doccompare/pkg/service"
)

// DefaultTokenEnv is the environment variable holding the bearer token
const DefaultTokenEnv = "DOCCOMPARE_TOKEN"

// Config represents the application configuration
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Preview   PreviewConfig   `yaml:"preview"`
	Diff      DiffConfig      `yaml:"diff"`
	Selection SelectionConfig `yaml:"selection"`
	Output    OutputConfig    `yaml:"output"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServiceConfig locates the comparison service
type ServiceConfig struct {
	BaseURL  string        `yaml:"base_url"`
	Token    string        `yaml:"token,omitempty"`
	TokenEnv string        `yaml:"token_env"`
	Timeout  time.Duration `yaml:"timeout"`
}

// PreviewConfig holds preview download settings
type PreviewConfig struct {
	BandwidthLimit int64  `yaml:"bandwidth_limit"` // bytes per second, 0 = unlimited
	MaxBytes       int64  `yaml:"max_bytes"`
	SpoolDir       string `yaml:"spool_dir"` // empty = keep previews in memory
}

// DiffConfig holds visual comparison settings
type DiffConfig struct {
	Threshold      float64 `yaml:"threshold"`
	OverlayOpacity float64 `yaml:"overlay_opacity"`
}

// SelectionConfig holds selection settings
type SelectionConfig struct {
	WarningTTL time.Duration `yaml:"warning_ttl"`
}

// OutputConfig holds output-related settings
type OutputConfig struct {
	Format string `yaml:"format"` // "human", "json" or "html"
	Color  bool   `yaml:"color"`
	Quiet  bool   `yaml:"quiet"` // Suppress non-error output
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Format  string `yaml:"format"` // "json" or "text"
	Level   string `yaml:"level"`  // "debug", "info", "warn", "error"
	File    string `yaml:"file"`   // Log file path (empty = no log file)
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			BaseURL:  "http://localhost:8080",
			TokenEnv: DefaultTokenEnv,
			Timeout:  service.DefaultTimeout,
		},
		Preview: PreviewConfig{
			BandwidthLimit: 0,
			MaxBytes:       preview.DefaultMaxBytes,
		},
		Diff: DiffConfig{
			Threshold:      pixeldiff.DefaultThreshold,
			OverlayOpacity: overlay.DefaultOpacity,
		},
		Selection: SelectionConfig{
			WarningTTL: selection.DefaultWarningTTL,
		},
		Output: OutputConfig{
			Format: "human",
			Color:  true,
		},
		Logging: LoggingConfig{
			Enabled: false,
			Format:  "json",
			Level:   "info",
		},
	}
}

// ResolveToken returns the bearer token: the configured token, else the
// environment variable named by token_env
func (c *Config) ResolveToken() string {
	if c.Service.Token != "" {
		return c.Service.Token
	}
	env := c.Service.TokenEnv
	if env == "" {
		env = DefaultTokenEnv
	}
	return strings.TrimSpace(os.Getenv(env))
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Service.BaseURL, "http://") && !strings.HasPrefix(c.Service.BaseURL, "https://") {
		return &models.ValidationError{
			Field:   "service.base_url",
			Message: "must be an http or https URL",
		}
	}

	if c.Service.Timeout < 0 {
		return &models.ValidationError{
			Field:   "service.timeout",
			Message: "must not be negative",
		}
	}

	if c.Preview.BandwidthLimit < 0 {
		return &models.ValidationError{
			Field:   "preview.bandwidth_limit",
			Message: "must not be negative",
		}
	}

	if c.Preview.MaxBytes < 0 {
		return &models.ValidationError{
			Field:   "preview.max_bytes",
			Message: "must not be negative",
		}
	}

	t := c.Diff.Threshold
	if t < pixeldiff.MinThreshold || t > pixeldiff.MaxThreshold || math.Mod(t, pixeldiff.ThresholdStep) != 0 {
		return &models.ValidationError{
			Field: "diff.threshold",
			Message: fmt.Sprintf("must be between %d and %d in steps of %d",
				pixeldiff.MinThreshold, pixeldiff.MaxThreshold, pixeldiff.ThresholdStep),
		}
	}

	if c.Diff.OverlayOpacity < 0 || c.Diff.OverlayOpacity > 1 {
		return &models.ValidationError{
			Field:   "diff.overlay_opacity",
			Message: "must be between 0 and 1",
		}
	}

	if c.Selection.WarningTTL <= 0 {
		return &models.ValidationError{
			Field:   "selection.warning_ttl",
			Message: "must be positive",
		}
	}

	validFormats := map[string]bool{"human": true, "json": true, "html": true}
	if !validFormats[c.Output.Format] {
		return &models.ValidationError{
			Field:   "output.format",
			Message: "must be 'human', 'json' or 'html'",
		}
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return &models.ValidationError{
			Field:   "logging.format",
			Message: "must be 'json' or 'text'",
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return &models.ValidationError{
			Field:   "logging.level",
			Message: "must be 'debug', 'info', 'warn', or 'error'",
		}
	}

	return nil
}
