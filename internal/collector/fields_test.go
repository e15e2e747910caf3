package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFields_Get(t *testing.T) {
	f := Fields{"symbol": "AAPL", "nothing": nil}

	assert.Equal(t, "AAPL", f.Get("symbol", "x"))
	assert.Equal(t, "x", f.Get("missing", "x"))
	assert.Nil(t, f.Get("missing", nil))
	assert.Nil(t, f.Get("nothing", "x"), "present nil is returned as-is")
}

func TestFields_GetOnNilMap(t *testing.T) {
	var f Fields
	assert.Equal(t, 7, f.Get("anything", 7))
	assert.False(t, f.Has("anything"))
	assert.Equal(t, "N/A", f.String("sector", "N/A"))
}

func TestFields_Has(t *testing.T) {
	f := Fields{"symbol": "AAPL", "empty": nil}
	assert.True(t, f.Has("symbol"))
	assert.False(t, f.Has("empty"))
	assert.False(t, f.Has("missing"))
}

func TestFields_String(t *testing.T) {
	f := Fields{"sector": "Technology", "employees": 164000.0, "officers": []any{"a"}}

	assert.Equal(t, "Technology", f.String("sector", "N/A"))
	assert.Equal(t, "N/A", f.String("industry", "N/A"))
	assert.Equal(t, "164000", f.String("employees", ""))
	assert.Equal(t, "N/A", f.String("officers", "N/A"), "non-scalar falls back to default")
}

func TestFields_Numbers(t *testing.T) {
	f := Fields{
		"marketCap":         2.9e12,
		"fullTimeEmployees": 164000.0,
		"trailingPE":        "28.5",
		"website":           "https://apple.com",
	}

	assert.Equal(t, 2.9e12, f.Float("marketCap", 0))
	assert.Equal(t, 0.0, f.Float("totalRevenue", 0))
	assert.Equal(t, int64(164000), f.Int("fullTimeEmployees", 0))
	assert.Equal(t, int64(0), f.Int("website", 0))

	pe := f.OptionalFloat("trailingPE")
	require.NotNil(t, pe)
	assert.Equal(t, 28.5, *pe)

	assert.Nil(t, f.OptionalFloat("dividendYield"))
	assert.Nil(t, f.OptionalFloat("website"))
}

func TestFields_FirstString(t *testing.T) {
	assert.Equal(t, "Apple Inc.", Fields{"longName": "Apple Inc.", "shortName": "Apple"}.FirstString("N/A", "longName", "shortName"))
	assert.Equal(t, "Apple", Fields{"longName": "", "shortName": "Apple"}.FirstString("N/A", "longName", "shortName"))
	assert.Equal(t, "N/A", Fields{}.FirstString("N/A", "longName", "shortName"))
}

func TestFields_FirstFloat(t *testing.T) {
	assert.Equal(t, 189.5, Fields{"currentPrice": 189.5, "regularMarketPrice": 190.0}.FirstFloat(0, "currentPrice", "regularMarketPrice"))
	assert.Equal(t, 190.0, Fields{"currentPrice": 0.0, "regularMarketPrice": 190.0}.FirstFloat(0, "currentPrice", "regularMarketPrice"))
	assert.Equal(t, 0.0, Fields{}.FirstFloat(0, "currentPrice", "regularMarketPrice"))
}
