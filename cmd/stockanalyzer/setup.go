package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/newthinker/stockanalyzer/internal/collector"
	"github.com/newthinker/stockanalyzer/internal/collector/yahoo"
	"github.com/newthinker/stockanalyzer/internal/company"
	"github.com/newthinker/stockanalyzer/internal/config"
	"github.com/newthinker/stockanalyzer/internal/logger"
	"github.com/newthinker/stockanalyzer/internal/metrics"
	"go.uber.org/zap"
)

// bootstrap loads .env, the config file and builds the logger.
func bootstrap() (*config.Config, *zap.Logger, error) {
	envErr := godotenv.Load()
	if envErr != nil && errors.Is(envErr, fs.ErrNotExist) {
		envErr = nil
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config validation failed: %w", err)
	}

	log, err := logger.New(logger.Options{
		Development: debug || cfg.Log.Development,
		Level:       cfg.Log.Level,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating logger: %w", err)
	}

	if envErr != nil {
		log.Warn("failed to load .env file", zap.Error(envErr))
	}
	if cfgFile == "" {
		log.Warn("no config file specified, using defaults and environment")
	}

	return cfg, log, nil
}

// newProviders registers every provider the binary knows about.
func newProviders(cfg config.UpstreamConfig, log *zap.Logger) (*collector.Registry, error) {
	reg := collector.NewRegistry()

	y, err := yahoo.New(collector.Config{
		BaseURL:   cfg.BaseURL,
		CookieURL: cfg.CookieURL,
		Proxy:     cfg.Proxy,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout,
	}, log.Named("yahoo"))
	if err != nil {
		return nil, fmt.Errorf("creating yahoo provider: %w", err)
	}
	reg.Register(y)

	return reg, nil
}

// newAssembler wires the configured provider into a company assembler.
// reg may be nil.
func newAssembler(cfg *config.Config, log *zap.Logger, reg *metrics.Registry) (*company.Assembler, error) {
	providers, err := newProviders(cfg.Upstream, log)
	if err != nil {
		return nil, err
	}

	provider, ok := providers.Get(cfg.Upstream.Provider)
	if !ok {
		return nil, fmt.Errorf("unknown upstream provider %q (available: %v)", cfg.Upstream.Provider, providers.Names())
	}

	asm := company.New(provider, company.Config{
		Timeout:         cfg.Upstream.Timeout,
		HistoryRange:    cfg.Upstream.HistoryRange,
		HistoryInterval: cfg.Upstream.HistoryInterval,
	}, log.Named("company"))
	if reg != nil {
		asm.SetMetrics(reg)
	}

	return asm, nil
}
