package report

import (
	"fmt"
	"strconv"
)

// Thousands that would round to "1000.0k" move up to the millions.
const (
	kiloCutoff = 999.95
	megaCutoff = 999950
)

// FormatAmount renders an amount compactly.
//
// Below 1000 the literal integer is shown. Up to a million the value is
// shown in thousands with one decimal ("5.3k"), above that in millions
// with two decimals ("1.25M").
func FormatAmount(n int64) string {
	switch {
	case n < 1000:
		return strconv.FormatInt(n, 10)
	case n < megaCutoff:
		return formatFloat(float64(n)/1000, 1) + "k"
	default:
		return formatFloat(float64(n)/1000000, 2) + "M"
	}
}

// FormatAverage renders a derived ratio. Values below 1000 keep one decimal;
// larger values use the same suffixes as FormatAmount.
func FormatAverage(f float64) string {
	switch {
	case f < kiloCutoff:
		return formatFloat(f, 1)
	case f < megaCutoff:
		return formatFloat(f/1000, 1) + "k"
	default:
		return formatFloat(f/1000000, 2) + "M"
	}
}

// formatFloat formats a float with specified precision.
func formatFloat(f float64, precision int) string {
	format := fmt.Sprintf("%%.%df", precision)
	return fmt.Sprintf(format, f)
}

// horizonLabel names a horizon of days.
func horizonLabel(days, allTimeDays int) string {
	switch {
	case days >= allTimeDays:
		return "all time"
	case days == 1:
		return "24h"
	default:
		return strconv.Itoa(days) + "d"
	}
}
