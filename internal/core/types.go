package core

import "time"

// MaxChartPoints is the number of daily observations in one trading year.
const MaxChartPoints = 252

// OHLCV represents a daily bar as returned by an upstream provider.
// Volume is nil when the provider reported no value for the day.
type OHLCV struct {
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume *int64
	Time   time.Time
}

// ChartPoint is one entry of the price chart served to the frontend
type ChartPoint struct {
	Date   string  `json:"date"` // YYYY-MM-DD in the exchange's timezone
	Price  float64 `json:"price"`
	Volume int64   `json:"volume"`
}

// Metrics holds display-ready strings. None of them is ever empty.
type Metrics struct {
	MarketCap     string `json:"marketCapFormatted"`
	Revenue       string `json:"revenueFormatted"`
	NetIncome     string `json:"netIncomeFormatted"`
	PERatio       string `json:"peRatioFormatted"`
	DividendYield string `json:"dividendYieldFormatted"`
	Employees     string `json:"employeesFormatted"`
	CurrentPrice  string `json:"currentPriceFormatted"`
}

// CompanyInfo is the simplified company profile returned by /company-info.
// It is built fresh for every request.
type CompanyInfo struct {
	Ticker        string       `json:"ticker"`
	CompanyName   string       `json:"companyName"`
	Sector        string       `json:"sector"`
	Industry      string       `json:"industry"`
	CurrentPrice  float64      `json:"currentPrice"`
	MarketCap     float64      `json:"marketCap"`
	TotalRevenue  float64      `json:"totalRevenue"`
	NetIncome     float64      `json:"netIncome"`
	PERatio       *float64     `json:"peRatio"`
	DividendYield *float64     `json:"dividendYield"`
	Website       string       `json:"website"`
	Summary       string       `json:"summary"`
	Employees     int64        `json:"employees"`
	Country       string       `json:"country"`
	Currency      string       `json:"currency"`
	Metrics       Metrics      `json:"metrics"`
	ChartData     []ChartPoint `json:"chartData"`
	LastUpdated   string       `json:"lastUpdated"`
	DataSource    string       `json:"dataSource"`
}

// Suggestion is a ticker/name pair offered while the user types
type Suggestion struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
}
