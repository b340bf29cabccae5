package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/pageflow"
	"github.com/aretw0/pageflow/internal/adapters/file"
	"github.com/aretw0/pageflow/internal/adapters/redis"
	"github.com/aretw0/pageflow/internal/logging"
	"github.com/aretw0/pageflow/pkg/adapters/memory"
	"github.com/aretw0/pageflow/pkg/observability"
	"github.com/aretw0/pageflow/pkg/ports"
)

// Options are the global flags shared by every command.
type Options struct {
	ConfigPath string
	Debug      bool
}

// LoadConfig reads the config file, or returns the defaults when path is empty.
// The debug flag overrides the file.
func LoadConfig(opts Options) (pageflow.Config, error) {
	cfg := pageflow.DefaultConfig()
	if opts.ConfigPath != "" {
		var err error
		if cfg, err = pageflow.LoadConfig(opts.ConfigPath); err != nil {
			return cfg, err
		}
	}
	if opts.Debug {
		cfg.DebugMode = true
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// CreateLogger configures the application logger from the config level.
// It always writes to Stderr, so Stdout stays clean for sequences and JSON-RPC.
func CreateLogger(cfg pageflow.Config) *slog.Logger {
	return logging.New(logging.ParseLevel(cfg.LogLevel))
}

// NewCache builds the sequence cache selected by the config. The returned
// closer releases its connections; both are nil for the "none" driver.
func NewCache(cfg pageflow.CacheConfig) (ports.SequenceCache, func() error, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "none":
		return nil, nil, nil
	case "memory":
		return memory.NewCache(), nil, nil
	case "file":
		return file.NewCache(cfg.Path), nil, nil
	case "redis":
		c := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
			redis.WithPrefix(cfg.Prefix),
			redis.WithTTL(cfg.TTL),
		)
		return c, c.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

// Engine bundles an engine with the resources the CLI must release.
type Engine struct {
	*pageflow.Engine
	closers []func() error
}

// Close releases the cache connection, if any.
func (e *Engine) Close() error {
	var errs []error
	for _, c := range e.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// CreateEngine opens the template at path with the CLI conventions: config
// settings, logging hooks in debug mode, the configured cache and, when reg
// is not nil, Prometheus collectors.
func CreateEngine(path string, cfg pageflow.Config, logger *slog.Logger, reg prometheus.Registerer) (*Engine, error) {
	engineOpts := []pageflow.Option{
		pageflow.WithConfig(cfg),
		pageflow.WithLogger(logger),
	}

	if cfg.DebugMode {
		engineOpts = append(engineOpts, pageflow.WithLifecycleHooks(observability.LoggingHooks(logger)))
	}

	if reg != nil {
		metrics, err := observability.NewMetrics(reg)
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		engineOpts = append(engineOpts, pageflow.WithLifecycleHooks(metrics.Hooks()))
	}

	eng := &Engine{}
	cache, closer, err := NewCache(cfg.Cache)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		engineOpts = append(engineOpts, pageflow.WithCache(cache))
	}
	if closer != nil {
		eng.closers = append(eng.closers, closer)
	}

	inner, err := pageflow.Open(path, engineOpts...)
	if err != nil {
		_ = eng.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	eng.Engine = inner
	return eng, nil
}
