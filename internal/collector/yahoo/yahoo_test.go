package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/newthinker/stockanalyzer/internal/collector"
	"github.com/newthinker/stockanalyzer/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quoteSummaryAAPL = `{
  "quoteSummary": {
    "result": [{
      "price": {
        "symbol": "AAPL",
        "longName": "Apple Inc.",
        "shortName": "Apple Inc.",
        "currency": "USD",
        "regularMarketPrice": {"raw": 189.84, "fmt": "189.84"},
        "marketCap": {"raw": 2950000000000, "fmt": "2.95T", "longFmt": "2,950,000,000,000"}
      },
      "summaryDetail": {
        "trailingPE": {"raw": 29.5, "fmt": "29.50"},
        "dividendYield": {"raw": 0.0051, "fmt": "0.51%"},
        "forwardPE": {},
        "marketCap": {"raw": 1, "fmt": "1"}
      },
      "assetProfile": {
        "sector": "Technology",
        "industry": "Consumer Electronics",
        "country": "United States",
        "website": "https://www.apple.com",
        "fullTimeEmployees": 164000,
        "longBusinessSummary": "Apple Inc. designs smartphones.",
        "companyOfficers": []
      },
      "financialData": {
        "currentPrice": {"raw": 189.84, "fmt": "189.84"},
        "totalRevenue": {"raw": 383285000000, "fmt": "383.29B"}
      },
      "defaultKeyStatistics": {
        "netIncomeToCommon": {"raw": 96995000000, "fmt": "97B"}
      }
    }],
    "error": null
  }
}`

const chartAAPL = `{
  "chart": {
    "result": [{
      "meta": {"symbol": "AAPL", "currency": "USD", "exchangeTimezoneName": "America/New_York", "gmtoffset": -18000},
      "timestamp": [1704205800, 1704292200, 1704378600],
      "indicators": {"quote": [{
        "open":   [187.15, null, 182.15],
        "high":   [188.44, null, 183.09],
        "low":    [183.89, null, 180.88],
        "close":  [185.6403, null, 181.91],
        "volume": [82488700, null, null]
      }]}
    }],
    "error": null
  }
}`

// newTestServer serves the Yahoo endpoints used by the provider
func newTestServer(t *testing.T, summary http.HandlerFunc, chart http.HandlerFunc) (*httptest.Server, *int32) {
	t.Helper()
	var crumbCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/consent", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "A3", Value: "session", Path: "/"})
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/v1/test/getcrumb", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&crumbCalls, 1)
		if _, err := r.Cookie("A3"); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte("crumb-123"))
	})
	if summary != nil {
		mux.HandleFunc("/v10/finance/quoteSummary/", summary)
	}
	if chart != nil {
		mux.HandleFunc("/v8/finance/chart/", chart)
	}

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &crumbCalls
}

func newTestYahoo(t *testing.T, srv *httptest.Server) *Yahoo {
	t.Helper()
	y, err := New(collector.Config{
		BaseURL:   srv.URL,
		CookieURL: srv.URL + "/consent",
		Timeout:   2 * time.Second,
	}, nil)
	require.NoError(t, err)
	return y
}

func TestYahoo_ImplementsProvider(t *testing.T) {
	var _ collector.Provider = (*Yahoo)(nil)
}

func TestYahoo_Name(t *testing.T) {
	y, err := New(collector.Config{}, nil)
	require.NoError(t, err)
	if y.Name() != "yahoo" {
		t.Errorf("expected 'yahoo', got '%s'", y.Name())
	}
}

func TestNew_Defaults(t *testing.T) {
	y, err := New(collector.Config{BaseURL: "https://example.com/"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "https://example.com", y.config.BaseURL)
	assert.Equal(t, DefaultTimeout, y.client.Timeout)
	assert.NotEmpty(t, y.config.UserAgent)
	assert.Empty(t, y.config.CookieURL)

	y, err = New(collector.Config{}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, y.config.BaseURL)
	assert.Equal(t, DefaultCookieURL, y.config.CookieURL)
}

func TestNew_InvalidProxy(t *testing.T) {
	_, err := New(collector.Config{Proxy: "://bad"}, nil)
	assert.Error(t, err)
}

func TestYahoo_ToYahooSymbol(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"AAPL", "AAPL"},
		{"0700.HK", "0700.HK"},
		{"600519.SH", "600519.SS"}, // Shanghai -> SS for Yahoo
		{"000001.SZ", "000001.SZ"},
	}

	y, _ := New(collector.Config{}, nil)
	for _, tc := range tests {
		got := y.toYahooSymbol(tc.input)
		if got != tc.expected {
			t.Errorf("toYahooSymbol(%s) = %s, want %s", tc.input, got, tc.expected)
		}
	}
}

func TestValidateSymbol(t *testing.T) {
	valid := []string{"AAPL", "BRK-B", "0700.HK", "^GSPC", "EURUSD=X", "DOESNOTEXIST123"}
	for _, s := range valid {
		assert.NoError(t, validateSymbol(s), s)
	}

	invalid := []string{"", "AA PL", "../etc", "AAPL;DROP", "ABCDEFGHIJKLMNOPQRSTU"}
	for _, s := range invalid {
		assert.Error(t, validateSymbol(s), s)
	}
}

func TestFetchInfo_FlattensModules(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v10/finance/quoteSummary/AAPL", r.URL.Path)
		assert.Equal(t, "crumb-123", r.URL.Query().Get("crumb"))
		assert.Contains(t, r.URL.Query().Get("modules"), "assetProfile")
		w.Write([]byte(quoteSummaryAAPL))
	}, nil)
	y := newTestYahoo(t, srv)

	fields, err := y.FetchInfo(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", fields.String("symbol", ""))
	assert.Equal(t, "Apple Inc.", fields.String("longName", ""))
	assert.Equal(t, "Technology", fields.String("sector", ""))
	assert.Equal(t, 189.84, fields.Float("currentPrice", 0))
	assert.Equal(t, 383285000000.0, fields.Float("totalRevenue", 0))
	assert.Equal(t, 96995000000.0, fields.Float("netIncomeToCommon", 0))
	assert.Equal(t, int64(164000), fields.Int("fullTimeEmployees", 0))
	assert.Equal(t, 0.0051, fields.Float("dividendYield", 0))

	// price module is read first and wins over summaryDetail
	assert.Equal(t, 2950000000000.0, fields.Float("marketCap", 0))

	// empty objects are treated as absent
	assert.False(t, fields.Has("forwardPE"))
}

func TestFetchInfo_ReusesCrumb(t *testing.T) {
	srv, crumbCalls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(quoteSummaryAAPL))
	}, nil)
	y := newTestYahoo(t, srv)

	for i := 0; i < 3; i++ {
		_, err := y.FetchInfo(context.Background(), "AAPL")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(crumbCalls))
}

func TestFetchInfo_UnauthorizedInvalidatesCrumb(t *testing.T) {
	var calls int32
	srv, crumbCalls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"finance":{"error":{"code":"Unauthorized","description":"Invalid Crumb"}}}`))
			return
		}
		w.Write([]byte(quoteSummaryAAPL))
	}, nil)
	y := newTestYahoo(t, srv)

	_, err := y.FetchInfo(context.Background(), "AAPL")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	_, err = y.FetchInfo(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(crumbCalls))
}

func TestFetchInfo_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"quoteSummary":{"result":null,"error":{"code":"Not Found","description":"Quote not found for symbol: DOESNOTEXIST123"}}}`))
	}, nil)
	y := newTestYahoo(t, srv)

	_, err := y.FetchInfo(context.Background(), "DOESNOTEXIST123")
	assert.True(t, errors.Is(err, core.ErrTickerNotFound))
}

func TestFetchInfo_ErrorInBody(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quoteSummary":{"result":null,"error":{"code":"Not Found","description":"Quote not found"}}}`))
	}, nil)
	y := newTestYahoo(t, srv)

	_, err := y.FetchInfo(context.Background(), "ZZZZ")
	assert.True(t, errors.Is(err, core.ErrTickerNotFound))
}

func TestFetchInfo_EmptyResult(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quoteSummary":{"result":[],"error":null}}`))
	}, nil)
	y := newTestYahoo(t, srv)

	fields, err := y.FetchInfo(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestFetchInfo_ServerError(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}, nil)
	y := newTestYahoo(t, srv)

	_, err := y.FetchInfo(context.Background(), "AAPL")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "quoteSummary", apiErr.Endpoint)
	assert.False(t, errors.Is(err, core.ErrTickerNotFound))
}

func TestFetchInfo_MalformedJSON(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quoteSummary":`))
	}, nil)
	y := newTestYahoo(t, srv)

	_, err := y.FetchInfo(context.Background(), "AAPL")
	assert.Error(t, err)
}

func TestFetchInfo_InvalidSymbolSkipsNetwork(t *testing.T) {
	y, err := New(collector.Config{BaseURL: "http://127.0.0.1:1"}, nil)
	require.NoError(t, err)

	_, err = y.FetchInfo(context.Background(), "NOT A TICKER")
	assert.True(t, errors.Is(err, core.ErrTickerNotFound))
}

func TestFetchInfo_ContextDeadline(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}, nil)
	y := newTestYahoo(t, srv)

	// prime the crumb so only the summary call is slow
	_, err := y.ensureCrumb(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = y.FetchInfo(ctx, "AAPL")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFetchHistory(t *testing.T) {
	srv, _ := newTestServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
		assert.Equal(t, "1y", r.URL.Query().Get("range"))
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		w.Write([]byte(chartAAPL))
	})
	y := newTestYahoo(t, srv)

	bars, err := y.FetchHistory(context.Background(), "AAPL", "1y", "1d")
	require.NoError(t, err)
	require.Len(t, bars, 2, "bar with null close is skipped")

	assert.Equal(t, "2024-01-02", bars[0].Time.Format("2006-01-02"))
	assert.Equal(t, "America/New_York", bars[0].Time.Location().String())
	assert.Equal(t, 185.6403, bars[0].Close)
	require.NotNil(t, bars[0].Volume)
	assert.Equal(t, int64(82488700), *bars[0].Volume)

	assert.Equal(t, "2024-01-04", bars[1].Time.Format("2006-01-02"))
	assert.Nil(t, bars[1].Volume, "null volume is preserved as nil")
}

func TestFetchHistory_NotFoundIsEmpty(t *testing.T) {
	srv, _ := newTestServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	})
	y := newTestYahoo(t, srv)

	bars, err := y.FetchHistory(context.Background(), "ZZZZ", "1y", "1d")
	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestFetchHistory_ErrorInBody(t *testing.T) {
	srv, _ := newTestServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Bad Request","description":"Invalid input - interval=1x is not supported"}}}`))
	})
	y := newTestYahoo(t, srv)

	_, err := y.FetchHistory(context.Background(), "AAPL", "1y", "1d")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid input")
}

func TestChartMeta_LocationFallback(t *testing.T) {
	loc := chartMeta{GMTOffset: 3600}.location()
	_, offset := time.Unix(0, 0).In(loc).Zone()
	assert.Equal(t, 3600, offset)
}

func TestToYahooInterval(t *testing.T) {
	y, _ := New(collector.Config{}, nil)
	assert.Equal(t, "1wk", y.toYahooInterval("1wk"))
	assert.Equal(t, "1d", y.toYahooInterval("3h"))
}
