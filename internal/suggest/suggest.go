// Package suggest offers ticker suggestions from a fixed list of popular stocks.
package suggest

import (
	"strings"

	"github.com/newthinker/stockanalyzer/internal/core"
)

// MaxResults caps the number of suggestions returned by Search.
const MaxResults = 5

var popular = [...]core.Suggestion{
	{Ticker: "AAPL", Name: "Apple Inc."},
	{Ticker: "MSFT", Name: "Microsoft Corporation"},
	{Ticker: "GOOGL", Name: "Alphabet Inc."},
	{Ticker: "AMZN", Name: "Amazon.com Inc."},
	{Ticker: "TSLA", Name: "Tesla Inc."},
	{Ticker: "META", Name: "Meta Platforms Inc."},
	{Ticker: "NVDA", Name: "NVIDIA Corporation"},
	{Ticker: "NFLX", Name: "Netflix Inc."},
	{Ticker: "BABA", Name: "Alibaba Group"},
	{Ticker: "V", Name: "Visa Inc."},
}

// Popular returns a copy of the full suggestion list in display order.
func Popular() []core.Suggestion {
	out := make([]core.Suggestion, len(popular))
	copy(out, popular[:])
	return out
}

// Search returns up to MaxResults entries whose ticker or name contains
// query, ignoring case. An empty query matches every entry.
// The result is never nil.
func Search(query string) []core.Suggestion {
	q := strings.ToUpper(query)

	out := make([]core.Suggestion, 0, MaxResults)
	for _, s := range popular {
		if len(out) == MaxResults {
			break
		}
		if strings.Contains(s.Ticker, q) || strings.Contains(strings.ToUpper(s.Name), q) {
			out = append(out, s)
		}
	}
	return out
}
