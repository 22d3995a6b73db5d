package utils

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var rxPlainNumber = regexp.MustCompile(`^-?(?:\d+(?:\.\d*)?|\.\d+)$`)

// currency marks allowed around a number; longest first
var currencyMarks = []string{"euro", "eur", "hrk", "kn", "€"}

// normalizeNumber turns "1.234,50", "1 234,50", "1,234.50", "12,5 kn" into "1234.50"-style text.
// When both separators occur, the last one is the decimal separator. Anything else than
// digits, separators, a sign and one currency mark makes the text invalid.
func normalizeNumber(s string) (string, bool) {
	repl := strings.NewReplacer("\u00A0", "", "\u202F", "", " ", "", "\t", "")
	s = strings.ToLower(repl.Replace(strings.TrimSpace(s)))
	for _, c := range currencyMarks {
		if t, ok := strings.CutSuffix(s, c); ok {
			s = t
			break
		}
		if t, ok := strings.CutPrefix(s, c); ok {
			s = t
			break
		}
	}
	dot, comma := strings.LastIndex(s, "."), strings.LastIndex(s, ",")
	switch {
	case dot >= 0 && comma >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case dot >= 0 && comma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		s = strings.ReplaceAll(s, ",", ".")
	}
	if strings.Count(s, ".") > 1 {
		// "1.234.567" is grouping only
		s = strings.ReplaceAll(s, ".", "")
	}
	if !rxPlainNumber.MatchString(s) {
		return "", false
	}
	return s, true
}

// ParseFloatHR parses numbers written the Croatian way ("1.234,50", "0,5") or the plain way.
func ParseFloatHR(s string) (float64, bool) {
	n, ok := normalizeNumber(s)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(n, 64)
	return f, err == nil
}

// ParseDecimalHR is ParseFloatHR for money.
func ParseDecimalHR(s string) (decimal.Decimal, bool) {
	n, ok := normalizeNumber(s)
	if !ok {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(n)
	return d, err == nil
}
