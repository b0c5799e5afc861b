// Package normalize converts locale-ambiguous raw OCR text (currency
// amounts, dates) into canonical typed values. All functions degrade to
// "no value" on malformed input; OCR text is noisy and a parse failure
// must never surface as an error.
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	reCurrency = regexp.MustCompile(`[€$£]|EUR|USD|GBP`)
	reNumToken = regexp.MustCompile(`[-+]?\d+(?:\.\d+)?`)
)

// ParseMoney extracts the first numeric amount from a raw currency string.
// Separator rules: with both comma and period present, the one appearing
// last is the decimal separator and the other marks thousands; a lone
// comma is the decimal separator. Returns nil when no number is found.
func ParseMoney(raw string) *float64 {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	s := reCurrency.ReplaceAllString(raw, "")
	s = strings.Join(strings.Fields(s), "")

	lastComma := strings.LastIndexByte(s, ',')
	lastPeriod := strings.LastIndexByte(s, '.')
	switch {
	case lastComma >= 0 && lastPeriod >= 0:
		if lastComma > lastPeriod {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		s = strings.ReplaceAll(s, ",", ".")
	}

	tok := reNumToken.FindString(s)
	if tok == "" {
		return nil
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return nil
	}
	return &v
}

// FormatAmount renders a parsed amount as the canonical decimal string
// stored in the record store: no symbols, period decimal separator,
// shortest representation.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
