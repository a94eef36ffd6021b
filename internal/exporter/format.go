package exporter

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// formatShare formats a percentage with exactly 2 decimal places, rounding half away from zero.
// This ensures values like 13.4 appear as 13.40 in CSV
func formatShare(f float64) string {
	return decimal.NewFromFloat(f).StringFixed(2)
}

// formatFloat uses the shortest representation that parses back to the same float.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatInt formats an int64 value for CSV output
func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// formatVotes writes a missing vote count as an empty cell, never as zero.
func formatVotes(v *int64) string {
	if v == nil {
		return ""
	}
	return formatInt(*v)
}

// formatBool formats a boolean value for CSV output
func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
