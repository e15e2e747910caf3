// Package company assembles the simplified company profile served by the
// API from an upstream provider's loosely-typed metadata and price history.
package company

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/newthinker/stockanalyzer/internal/collector"
	"github.com/newthinker/stockanalyzer/internal/core"
	"github.com/newthinker/stockanalyzer/internal/format"
	"github.com/newthinker/stockanalyzer/internal/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Config holds assembler configuration
type Config struct {
	Timeout         time.Duration `mapstructure:"timeout"`
	HistoryRange    string        `mapstructure:"history_range"`
	HistoryInterval string        `mapstructure:"history_interval"`
	DataSource      string        `mapstructure:"data_source"`
}

// DefaultConfig returns default assembler configuration
func DefaultConfig() Config {
	return Config{
		Timeout:         10 * time.Second,
		HistoryRange:    "1y",
		HistoryInterval: "1d",
		DataSource:      "Yahoo Finance",
	}
}

// Assembler builds CompanyInfo values. It keeps no per-ticker state, so
// every call goes to the provider.
type Assembler struct {
	provider collector.Provider
	cfg      Config
	logger   *zap.Logger
	metrics  *metrics.Registry
	now      func() time.Time
}

// New creates a new assembler
func New(provider collector.Provider, cfg Config, logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultConfig()
	if cfg.HistoryRange == "" {
		cfg.HistoryRange = defaults.HistoryRange
	}
	if cfg.HistoryInterval == "" {
		cfg.HistoryInterval = defaults.HistoryInterval
	}
	if cfg.DataSource == "" {
		cfg.DataSource = defaults.DataSource
	}
	return &Assembler{
		provider: provider,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// SetMetrics sets the registry used to record lookups and upstream latency
func (a *Assembler) SetMetrics(reg *metrics.Registry) {
	a.metrics = reg
}

// CompanyInfo fetches and assembles the profile for ticker.
//
// Errors are *core.Error values: ErrTickerNotFound or ErrNoHistory when the
// ticker cannot be resolved, ErrUpstreamTimeout when the provider does not
// answer within the configured timeout, and ErrInternal for anything else.
func (a *Assembler) CompanyInfo(ctx context.Context, ticker string) (*core.CompanyInfo, error) {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))

	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	info, err := a.assemble(ctx, symbol)
	if err != nil {
		err = classify(err)
		outcome := outcomeFor(err)
		a.recordLookup(outcome)
		if outcome == metrics.OutcomeNotFound {
			a.logger.Info("company not found", zap.String("ticker", symbol), zap.Error(err))
		} else {
			a.logger.Error("failed to assemble company info", zap.String("ticker", symbol), zap.Error(err))
		}
		return nil, err
	}

	a.recordLookup(metrics.OutcomeSuccess)
	a.logger.Info("company info assembled",
		zap.String("ticker", symbol),
		zap.Int("chart_points", len(info.ChartData)),
	)
	return info, nil
}

func (a *Assembler) assemble(ctx context.Context, symbol string) (*core.CompanyInfo, error) {
	start := time.Now()
	fields, err := a.provider.FetchInfo(ctx, symbol)
	a.recordUpstream("info", start)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 || !fields.Has("symbol") {
		return nil, core.NewError(core.ErrTickerNotFound, "ticker '%s' not found", symbol)
	}

	start = time.Now()
	bars, err := a.provider.FetchHistory(ctx, symbol, a.cfg.HistoryRange, a.cfg.HistoryInterval)
	a.recordUpstream("history", start)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, core.NewError(core.ErrNoHistory, "no historical data for '%s'", symbol)
	}

	return a.build(symbol, fields, ChartSeries(bars)), nil
}

// build maps provider fields onto CompanyInfo, falling back from primary
// to secondary keys where the provider has two names for a value.
func (a *Assembler) build(symbol string, fields collector.Fields, chart []core.ChartPoint) *core.CompanyInfo {
	price := fields.FirstFloat(0, "currentPrice", "regularMarketPrice")
	pe := fields.OptionalFloat("trailingPE")
	yield := fields.OptionalFloat("dividendYield")

	info := &core.CompanyInfo{
		Ticker:        symbol,
		CompanyName:   fields.FirstString(format.NotAvailable, "longName", "shortName"),
		Sector:        fields.String("sector", format.NotAvailable),
		Industry:      fields.String("industry", format.NotAvailable),
		CurrentPrice:  price,
		MarketCap:     fields.Float("marketCap", 0),
		TotalRevenue:  fields.Float("totalRevenue", 0),
		NetIncome:     fields.Float("netIncomeToCommon", 0),
		PERatio:       pe,
		DividendYield: yield,
		Website:       fields.String("website", ""),
		Summary:       fields.String("longBusinessSummary", ""),
		Employees:     fields.Int("fullTimeEmployees", 0),
		Country:       fields.String("country", format.NotAvailable),
		Currency:      fields.String("currency", "USD"),
		ChartData:     chart,
		LastUpdated:   a.now().Format(time.RFC3339),
		DataSource:    a.cfg.DataSource,
	}

	info.Metrics = core.Metrics{
		MarketCap:     format.Number(info.MarketCap, format.Currency),
		Revenue:       format.Number(info.TotalRevenue, format.Currency),
		NetIncome:     format.Number(info.NetIncome, format.Currency),
		PERatio:       format.Ratio(pe),
		DividendYield: formatYield(yield),
		Employees:     format.Number(float64(info.Employees), format.Plain),
		CurrentPrice:  format.Price(price),
	}

	return info
}

// formatYield renders a fractional dividend yield (0.02 for 2%) as a percentage.
func formatYield(yield *float64) string {
	if yield == nil || *yield == 0 {
		return format.NotAvailable
	}
	return format.Number(*yield*100, format.Percentage)
}

// ChartSeries maps provider bars to chart points and keeps the most recent
// core.MaxChartPoints of them in their original order.
func ChartSeries(bars []core.OHLCV) []core.ChartPoint {
	if len(bars) > core.MaxChartPoints {
		bars = bars[len(bars)-core.MaxChartPoints:]
	}

	points := make([]core.ChartPoint, 0, len(bars))
	for _, bar := range bars {
		points = append(points, ChartPoint(bar))
	}
	return points
}

// ChartPoint converts one bar. The close is rounded to cents half away from
// zero on its shortest decimal form, so 2.675 becomes 2.68. A missing or
// negative volume becomes 0.
func ChartPoint(bar core.OHLCV) core.ChartPoint {
	var volume int64
	if bar.Volume != nil && *bar.Volume > 0 {
		volume = *bar.Volume
	}
	return core.ChartPoint{
		Date:   bar.Time.Format("2006-01-02"),
		Price:  decimal.NewFromFloat(bar.Close).Round(2).InexactFloat64(),
		Volume: volume,
	}
}

// classify maps provider and transport failures onto the error taxonomy.
func classify(err error) error {
	switch {
	case errors.Is(err, core.ErrTickerNotFound), errors.Is(err, core.ErrNoHistory):
		return err
	case isTimeout(err):
		return core.WrapError(core.ErrUpstreamTimeout, err)
	default:
		return core.WrapError(core.ErrInternal, err)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, core.ErrTickerNotFound), errors.Is(err, core.ErrNoHistory):
		return metrics.OutcomeNotFound
	case errors.Is(err, core.ErrUpstreamTimeout):
		return metrics.OutcomeTimeout
	default:
		return metrics.OutcomeError
	}
}

func (a *Assembler) recordLookup(outcome string) {
	if a.metrics != nil {
		a.metrics.RecordLookup(outcome)
	}
}

func (a *Assembler) recordUpstream(endpoint string, start time.Time) {
	if a.metrics != nil {
		a.metrics.RecordUpstream(a.provider.Name(), endpoint, time.Since(start).Seconds())
	}
}
