package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/sdejongh/doccompare/pkg/config"
	"github.com/sdejongh/doccompare/pkg/logging"
	"github.com/sdejongh/doccompare/pkg/models"
	"github.com/sdejongh/doccompare/pkg/output"
	"github.com/sdejongh/doccompare/pkg/preview"
	"github.com/sdejongh/doccompare/pkg/ratelimit"
	"github.com/sdejongh/doccompare/pkg/service"
	"github.com/sdejongh/doccompare/pkg/storage"
)

// app is the wired runtime shared by the service-backed commands
type app struct {
	cfg       *config.Config
	logger    logging.Logger
	svc       service.Service
	store     storage.BlobStore
	fetcher   *preview.Fetcher
	formatter output.Formatter
	out       io.Writer
}

// newLocalApp loads configuration and wires logging, the blob store and the
// formatter, for commands that never reach the service
func newLocalApp(out io.Writer) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := applyFlagsToConfig(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := createLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	store, err := createStore(cfg.Preview)
	if err != nil {
		logger.Close()
		return nil, err
	}

	if cfg.Output.Quiet {
		out = io.Discard
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		formatter: output.New(cfg.Output.Format, out, cfg.Output.Color),
		out:       out,
	}, nil
}

// newApp additionally wires the authenticated service client and the preview fetcher
func newApp(out io.Writer) (*app, error) {
	a, err := newLocalApp(out)
	if err != nil {
		return nil, err
	}

	token := a.cfg.ResolveToken()
	if token == "" {
		a.Close()
		return nil, fmt.Errorf("no token configured (set --token or $%s): %w", a.cfg.Service.TokenEnv, models.ErrUnauthenticated)
	}

	session := models.NewSession(a.cfg.Service.BaseURL, token)
	a.svc = service.NewHTTPClient(session, service.Config{Timeout: a.cfg.Service.Timeout})
	a.fetcher = preview.NewFetcher(a.svc, a.store, preview.Options{
		MaxBytes: a.cfg.Preview.MaxBytes,
		Limiter:  ratelimit.NewLimiter(a.cfg.Preview.BandwidthLimit),
		Logger:   a.logger,
	})

	return a, nil
}

// Close releases every blob and flushes the log
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to release previews: %v\n", err)
	}
	a.logger.Close()
}

// loadConfig loads configuration from file or defaults
func loadConfig() (*config.Config, error) {
	return config.Load(globalFlags.ConfigFile)
}

// applyFlagsToConfig overrides config values with command-line flags
func applyFlagsToConfig(cfg *config.Config) error {
	if globalFlags.BaseURL != "" {
		cfg.Service.BaseURL = globalFlags.BaseURL
	}

	if globalFlags.Token != "" {
		cfg.Service.Token = globalFlags.Token
	}

	// Bandwidth limit, e.g. "10M" or "1.5MiB"
	if globalFlags.Bandwidth != "" {
		limit, err := humanize.ParseBytes(globalFlags.Bandwidth)
		if err != nil {
			return fmt.Errorf("invalid bandwidth limit %q: %w", globalFlags.Bandwidth, err)
		}
		cfg.Preview.BandwidthLimit = int64(limit)
	}

	if globalFlags.Output != "" {
		cfg.Output.Format = globalFlags.Output
	}

	if globalFlags.NoColor {
		cfg.Output.Color = false
	}

	if globalFlags.Quiet {
		cfg.Output.Quiet = true
	}

	// Logging
	if globalFlags.LogFile != "" {
		cfg.Logging.Enabled = true
		cfg.Logging.File = globalFlags.LogFile
	}
	if globalFlags.LogFormat != "" {
		cfg.Logging.Format = globalFlags.LogFormat
	}
	if globalFlags.LogLevel != "" {
		cfg.Logging.Level = globalFlags.LogLevel
	}
	if globalFlags.Verbose {
		cfg.Logging.Level = "debug"
	}

	return nil
}

// createLogger creates a logger based on configuration
func createLogger(cfg config.LoggingConfig) (logging.Logger, error) {
	// If logging is off or no log file specified, return null logger
	if !cfg.Enabled || cfg.File == "" {
		return logging.NewNullLogger(), nil
	}

	var format logging.Format
	switch cfg.Format {
	case "text":
		format = logging.FormatText
	default:
		format = logging.FormatJSON
	}

	return logging.NewFileLogger(logging.FileLoggerConfig{
		Path:       cfg.File,
		Format:     format,
		Level:      logging.ParseLevel(cfg.Level),
		MaxSize:    10 * 1024 * 1024, // 10 MB
		MaxBackups: 5,
	})
}

// createStore keeps previews in memory, or spools them under spool_dir
func createStore(cfg config.PreviewConfig) (storage.BlobStore, error) {
	if cfg.SpoolDir == "" {
		return storage.NewMemory(), nil
	}
	if err := os.MkdirAll(cfg.SpoolDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create spool directory: %w", err)
	}
	store, err := storage.NewTempLocal(cfg.SpoolDir)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// fail shows err through the formatter and marks it reported
func (a *app) fail(err error) error {
	if a.cfg.Output.Quiet {
		return err
	}
	if ferr := a.formatter.Error(err); ferr != nil {
		return err
	}
	return &reportedError{err: err}
}
