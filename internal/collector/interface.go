package collector

import (
	"context"
	"time"

	"github.com/newthinker/stockanalyzer/internal/core"
)

// Config holds provider configuration
type Config struct {
	BaseURL   string
	CookieURL string
	Proxy     string
	UserAgent string
	Timeout   time.Duration
}

// Provider defines the interface for upstream financial-data sources
type Provider interface {
	// Metadata
	Name() string

	// Data fetching. FetchInfo returns core.ErrTickerNotFound when the
	// provider cannot resolve the symbol.
	FetchInfo(ctx context.Context, symbol string) (Fields, error)
	FetchHistory(ctx context.Context, symbol, rng, interval string) ([]core.OHLCV, error)
}
