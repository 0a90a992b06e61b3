// Package di provides dependency injection container
package di

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ssargent/bcsv/pkg/bcsv"
	"github.com/ssargent/bcsv/pkg/config"
	"github.com/ssargent/bcsv/pkg/hash"
	"github.com/ssargent/bcsv/pkg/metrics"
)

// Container holds all the dependencies for the application
type Container struct {
	config  *config.Config
	logger  *zap.Logger
	names   *hash.Table
	metrics *metrics.Metrics
	codec   *bcsv.Codec
}

// NewContainer creates a container wired from the default configuration
// with logging discarded.
func NewContainer() *Container {
	c := &Container{
		config:  config.DefaultConfig(),
		logger:  zap.NewNop(),
		names:   hash.New(),
		metrics: metrics.NewMetrics(),
	}
	c.codec = c.newCodec()
	return c
}

// Configure rebuilds every dependency from cfg.
func (c *Container) Configure(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := NewLogger(cfg.Logging.Level)
	if err != nil {
		return err
	}

	fn := hash.Calc
	if cfg.LegacyHash {
		fn = hash.CalcOld
	}
	names := hash.NewWithFunc(fn)
	if cfg.HashFile != "" {
		names, err = hash.LoadFile(cfg.HashFile, fn)
		if err != nil {
			return fmt.Errorf("failed to load hashes: %w", err)
		}
		logger.Debug("loaded hash list",
			zap.String("path", cfg.HashFile),
			zap.Int("names", names.Len()),
		)
	}

	c.config = cfg
	c.logger = logger
	c.names = names
	c.codec = c.newCodec()
	return nil
}

// newCodec builds a codec from the current config, which must be valid.
func (c *Container) newCodec() *bcsv.Codec {
	endian, _ := bcsv.ParseEndian(c.config.Endian)
	rank, _ := bcsv.ParseRankTable(c.config.Rank)
	enc, _ := bcsv.ParseEncoding(c.config.Encoding)

	return bcsv.NewCodec(
		bcsv.WithEndian(endian),
		bcsv.WithRank(rank),
		bcsv.WithEncoding(enc),
		bcsv.WithLogger(c.logger),
		bcsv.WithObserver(c.metrics),
	)
}

// NewLogger builds a console logger at level writing to stderr.
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid logging level: %w", err)
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// Config returns the active configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the application logger
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Names returns the hash table used to label fields
func (c *Container) Names() *hash.Table {
	return c.names
}

// Metrics returns the metrics collected by the codec
func (c *Container) Metrics() *metrics.Metrics {
	return c.metrics
}

// Codec returns the configured codec
func (c *Container) Codec() *bcsv.Codec {
	return c.codec
}

// SetLogger allows overriding the logger (for testing)
func (c *Container) SetLogger(logger *zap.Logger) {
	c.logger = logger
	c.codec = c.newCodec()
}

// Close flushes the logger and writes the metrics file when one is
// configured.
func (c *Container) Close() error {
	_ = c.logger.Sync()
	if c.config.MetricsFile == "" {
		return nil
	}
	return c.metrics.WriteTextfile(c.config.MetricsFile)
}
