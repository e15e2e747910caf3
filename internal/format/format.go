// Package format renders raw financial values as display strings.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// NotAvailable is returned for absent or zero values.
const NotAvailable = "N/A"

// Mode selects how Number renders a value
type Mode int

const (
	// Plain renders counts (employees, shares) with B/M suffixes or as a grouped integer.
	Plain Mode = iota
	// Currency renders dollar amounts with T/B/M suffixes or as grouped cents.
	Currency
	// Percentage renders the value as-is with two decimals and a percent sign.
	Percentage
)

const (
	trillion = 1e12
	billion  = 1e9
	million  = 1e6
)

// Number formats value according to mode. Zero is treated the same as an
// absent value and yields NotAvailable in every mode.
func Number(value float64, mode Mode) string {
	if value == 0 {
		return NotAvailable
	}

	switch mode {
	case Percentage:
		return fmt.Sprintf("%.2f%%", value)
	case Currency:
		switch {
		case value >= trillion:
			return fmt.Sprintf("$%.2fT", value/trillion)
		case value >= billion:
			return fmt.Sprintf("$%.2fB", value/billion)
		case value >= million:
			return fmt.Sprintf("$%.2fM", value/million)
		default:
			return "$" + grouped(value, 2)
		}
	default:
		switch {
		case value >= billion:
			return fmt.Sprintf("%.2fB", value/billion)
		case value >= million:
			return fmt.Sprintf("%.2fM", value/million)
		default:
			return grouped(value, 0)
		}
	}
}

// Price renders a share price with a dollar sign and no magnitude scaling.
func Price(value float64) string {
	if value == 0 {
		return NotAvailable
	}
	return fmt.Sprintf("$%.2f", value)
}

// Ratio renders a plain two-decimal ratio such as P/E.
func Ratio(value *float64) string {
	if value == nil || *value == 0 {
		return NotAvailable
	}
	return fmt.Sprintf("%.2f", *value)
}

// grouped renders value with prec decimals and comma-grouped integer
// digits. Rounding is applied to the exact binary value, ties to even.
func grouped(value float64, prec int) string {
	s := strconv.FormatFloat(math.Abs(value), 'f', prec, 64)
	whole, frac, _ := strings.Cut(s, ".")

	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return strconv.FormatFloat(value, 'f', prec, 64)
	}

	out := humanize.Comma(n)
	if frac != "" {
		out += "." + frac
	}
	if value < 0 {
		out = "-" + out
	}
	return out
}
