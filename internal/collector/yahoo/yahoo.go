package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/newthinker/stockanalyzer/internal/collector"
	"github.com/newthinker/stockanalyzer/internal/core"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL   = "https://query2.finance.yahoo.com"
	DefaultCookieURL = "https://fc.yahoo.com"
	DefaultTimeout   = 10 * time.Second

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// quoteModules are merged into one Fields map in this order; the first
// module to define a key wins.
var quoteModules = []string{
	"price",
	"summaryDetail",
	"assetProfile",
	"financialData",
	"defaultKeyStatistics",
	"quoteType",
}

// validSymbol matches symbols like AAPL, BRK-B, 0700.HK, ^GSPC, EURUSD=X
var validSymbol = regexp.MustCompile(`^[A-Za-z0-9.\-^=]{1,20}$`)

// validateSymbol checks if a symbol has valid format
func validateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if !validSymbol.MatchString(symbol) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}

// APIError is returned when Yahoo answers with an unexpected status.
type APIError struct {
	StatusCode int
	Endpoint   string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("yahoo API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// Yahoo implements collector.Provider on top of the Yahoo Finance query API
type Yahoo struct {
	client *http.Client
	config collector.Config
	logger *zap.Logger

	mu    sync.Mutex
	crumb string
}

// New creates a new Yahoo provider. Empty config fields fall back to the
// public Yahoo endpoints. The cookie URL only defaults when BaseURL points
// at a yahoo.com host.
func New(cfg collector.Config, logger *zap.Logger) (*Yahoo, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.CookieURL == "" {
		if base, err := url.Parse(cfg.BaseURL); err == nil && strings.HasSuffix(base.Hostname(), "yahoo.com") {
			cfg.CookieURL = DefaultCookieURL
		}
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.Proxy != "" {
		u, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("parsing proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(u)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	return &Yahoo{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
			Jar:       jar,
		},
		config: cfg,
		logger: logger,
	}, nil
}

func (y *Yahoo) Name() string {
	return "yahoo"
}

// toYahooSymbol converts internal symbol format to Yahoo format
func (y *Yahoo) toYahooSymbol(symbol string) string {
	// Shanghai stocks: 600519.SH -> 600519.SS
	if strings.HasSuffix(symbol, ".SH") {
		return strings.TrimSuffix(symbol, ".SH") + ".SS"
	}
	return symbol
}

// FetchInfo fetches company metadata from the quoteSummary endpoint and
// flattens every module into a single Fields map.
func (y *Yahoo) FetchInfo(ctx context.Context, symbol string) (collector.Fields, error) {
	if err := validateSymbol(symbol); err != nil {
		return nil, core.WrapError(core.NewError(core.ErrTickerNotFound, "ticker '%s' not found", symbol), err)
	}

	crumb, err := y.ensureCrumb(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching crumb: %w", err)
	}

	params := url.Values{}
	params.Set("modules", strings.Join(quoteModules, ","))
	if crumb != "" {
		params.Set("crumb", crumb)
	}
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?%s",
		y.config.BaseURL, url.PathEscape(y.toYahooSymbol(symbol)), params.Encode())

	status, body, err := y.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetching quote summary: %w", err)
	}

	switch status {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, core.NewError(core.ErrTickerNotFound, "ticker '%s' not found", symbol)
	case http.StatusUnauthorized, http.StatusForbidden:
		y.invalidateCrumb()
		return nil, &APIError{StatusCode: status, Endpoint: "quoteSummary", Message: "crumb rejected"}
	default:
		return nil, &APIError{StatusCode: status, Endpoint: "quoteSummary", Message: truncate(string(body), 200)}
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("decoding quote summary: invalid JSON")
	}

	if e := gjson.GetBytes(body, "quoteSummary.error"); e.IsObject() {
		if e.Get("code").String() == "Not Found" {
			return nil, core.NewError(core.ErrTickerNotFound, "ticker '%s' not found", symbol)
		}
		return nil, fmt.Errorf("yahoo error: %s", e.Get("description").String())
	}

	result := gjson.GetBytes(body, "quoteSummary.result.0")
	if !result.IsObject() {
		return collector.Fields{}, nil
	}

	return flatten(result), nil
}

// flatten merges the quoteSummary modules into one map, unwrapping
// {"raw": x, "fmt": "..."} pairs to x and dropping empty objects.
func flatten(result gjson.Result) collector.Fields {
	fields := make(collector.Fields)
	for _, name := range quoteModules {
		module := result.Get(name)
		if !module.IsObject() {
			continue
		}
		module.ForEach(func(key, value gjson.Result) bool {
			k := key.String()
			if _, seen := fields[k]; seen {
				return true
			}
			if v, ok := unwrap(value); ok {
				fields[k] = v
			}
			return true
		})
	}
	return fields
}

func unwrap(v gjson.Result) (any, bool) {
	switch {
	case v.Type == gjson.Null:
		return nil, false
	case v.IsObject():
		if raw := v.Get("raw"); raw.Exists() {
			return raw.Value(), raw.Type != gjson.Null
		}
		if len(v.Map()) == 0 {
			return nil, false
		}
		return v.Value(), true
	default:
		return v.Value(), true
	}
}

// FetchHistory fetches daily OHLCV bars for a Yahoo range such as "1y".
// A symbol without chart data yields an empty slice, not an error.
func (y *Yahoo) FetchHistory(ctx context.Context, symbol, rng, interval string) ([]core.OHLCV, error) {
	if err := validateSymbol(symbol); err != nil {
		return nil, core.WrapError(core.NewError(core.ErrTickerNotFound, "ticker '%s' not found", symbol), err)
	}

	params := url.Values{}
	params.Set("range", rng)
	params.Set("interval", y.toYahooInterval(interval))
	params.Set("includePrePost", "false")
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s",
		y.config.BaseURL, url.PathEscape(y.toYahooSymbol(symbol)), params.Encode())

	status, body, err := y.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetching history: %w", err)
	}

	switch status {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, &APIError{StatusCode: status, Endpoint: "chart", Message: truncate(string(body), 200)}
	}

	var result chartResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decoding history: %w", err)
	}

	if result.Chart.Error != nil {
		if result.Chart.Error.Code == "Not Found" {
			return nil, nil
		}
		return nil, fmt.Errorf("yahoo error: %s", result.Chart.Error.Description)
	}

	if len(result.Chart.Result) == 0 || len(result.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}

	r := result.Chart.Result[0]
	quotes := r.Indicators.Quote[0]
	loc := r.Meta.location()

	data := make([]core.OHLCV, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		closePrice := at(quotes.Close, i)
		if closePrice == nil {
			continue // Skip missing data
		}
		bar := core.OHLCV{
			Symbol: symbol,
			Close:  *closePrice,
			Time:   time.Unix(ts, 0).In(loc),
		}
		if v := at(quotes.Open, i); v != nil {
			bar.Open = *v
		}
		if v := at(quotes.High, i); v != nil {
			bar.High = *v
		}
		if v := at(quotes.Low, i); v != nil {
			bar.Low = *v
		}
		bar.Volume = at(quotes.Volume, i)
		data = append(data, bar)
	}

	return data, nil
}

func (y *Yahoo) toYahooInterval(interval string) string {
	switch interval {
	case "1d", "5d", "1wk", "1mo":
		return interval
	default:
		return "1d"
	}
}

// ensureCrumb returns the session crumb, fetching the consent cookie and a
// fresh crumb when none is held.
func (y *Yahoo) ensureCrumb(ctx context.Context) (string, error) {
	y.mu.Lock()
	defer y.mu.Unlock()

	if y.crumb != "" {
		return y.crumb, nil
	}

	if y.config.CookieURL != "" {
		// fc.yahoo.com answers 404 but still sets the session cookie
		if _, _, err := y.get(ctx, y.config.CookieURL); err != nil {
			return "", fmt.Errorf("fetching cookie: %w", err)
		}
	}

	status, body, err := y.get(ctx, y.config.BaseURL+"/v1/test/getcrumb")
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", &APIError{StatusCode: status, Endpoint: "getcrumb", Message: truncate(string(body), 200)}
	}

	crumb := strings.TrimSpace(string(body))
	if crumb == "" || strings.Contains(crumb, "<") {
		return "", fmt.Errorf("unexpected crumb response")
	}

	y.logger.Debug("obtained yahoo crumb")
	y.crumb = crumb
	return crumb, nil
}

func (y *Yahoo) invalidateCrumb() {
	y.mu.Lock()
	y.crumb = ""
	y.mu.Unlock()
}

// get performs a GET request and returns the status code and body
func (y *Yahoo) get(ctx context.Context, u string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", y.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := y.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("reading body: %w", err)
	}
	return resp.StatusCode, body, nil
}

func at[T any](values []*T, i int) *T {
	if i < len(values) {
		return values[i]
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Yahoo API response types
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta       chartMeta  `json:"meta"`
	Timestamp  []int64    `json:"timestamp"`
	Indicators indicators `json:"indicators"`
}

type chartMeta struct {
	ExchangeTimezoneName string `json:"exchangeTimezoneName"`
	GMTOffset            int    `json:"gmtoffset"`
}

// location returns the exchange timezone so bar dates match the trading day.
func (m chartMeta) location() *time.Location {
	if m.ExchangeTimezoneName != "" {
		if loc, err := time.LoadLocation(m.ExchangeTimezoneName); err == nil {
			return loc
		}
	}
	return time.FixedZone("exchange", m.GMTOffset)
}

type indicators struct {
	Quote []quoteIndicator `json:"quote"`
}

type quoteIndicator struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}
