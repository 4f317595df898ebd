package scraper

import (
	"strconv"
	"strings"
)

// ParseMetric converts abbreviated counter strings like "1.2K", "5.7M",
// "1,234" or "423" to integers. Unparseable input yields 0.
func ParseMetric(s string) int {
	if s == "" {
		return 0
	}

	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")

	multiplier := 1.0
	switch {
	case strings.HasSuffix(strings.ToUpper(s), "K"):
		multiplier = 1000
		s = s[:len(s)-1]
	case strings.HasSuffix(strings.ToUpper(s), "M"):
		multiplier = 1000000
		s = s[:len(s)-1]
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}

	return int(value * multiplier)
}
