package dataprocessing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// countReplacer strips thousands separators and the spaces spreadsheets put in numbers.
var countReplacer = strings.NewReplacer(",", "", " ", "", "\u00a0", "", "\u202f", "", "_", "")

// parseCount parses a non-negative whole number such as "45,123", "45123" or "45123.0".
func parseCount(raw string) (int64, error) {
	s := countReplacer.Replace(strings.TrimSpace(raw))
	if s == "" {
		return 0, fmt.Errorf("value is empty")
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("%q is not a number", raw)
		}
		if f != math.Trunc(f) {
			return 0, fmt.Errorf("%q is not a whole number", raw)
		}
		if f >= math.MaxInt64 || f < math.MinInt64 {
			return 0, fmt.Errorf("%q is out of range", raw)
		}
		n = int64(f)
	}
	if n < 0 {
		return 0, fmt.Errorf("%q is negative", raw)
	}
	return n, nil
}

// parseTurnout parses turnout as a fraction. A trailing "%" or percent=true means
// the value is on a 0–100 scale.
func parseTurnout(raw string, percent bool) (float64, error) {
	s := strings.TrimSpace(raw)
	if strings.HasSuffix(s, "%") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
		percent = true
	}
	s = countReplacer.Replace(s)
	if s == "" {
		return 0, fmt.Errorf("value is empty")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	if percent {
		f /= 100
	}
	return f, nil
}
