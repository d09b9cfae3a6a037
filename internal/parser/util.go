package parser

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// amountPattern finds two-decimal amounts with grouping commas.
	amountPattern = regexp.MustCompile(`[\d,]+\.\d{2}`)
	spaceRun      = regexp.MustCompile(`\s+`)
)

var currencyReplacer = strings.NewReplacer(
	"₹", "",
	"Rs.", "",
	"INR", "",
	",", "",
	" ", "",
	"\u00a0", "",
	"\n", "",
)

// ParseAmount converts a string like "1,234.56" or "₹ 1,234.56" to a decimal.
// An empty cell or a lone dash is zero.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = currencyReplacer.Replace(strings.TrimSpace(s))
	if s == "" || s == "-" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// amountOrZero is ParseAmount for table cells, where unparsable text is zero.
func amountOrZero(s string) decimal.Decimal {
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseBalance converts "1,234.56 Cr" or "1,234.56 Dr" to a signed decimal.
// Dr balances are overdrawn and come back negative.
func ParseBalance(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	negative := false
	switch {
	case strings.HasSuffix(s, "Dr"):
		negative = true
		s = strings.TrimSuffix(s, "Dr")
	case strings.HasSuffix(s, "Cr"):
		s = strings.TrimSuffix(s, "Cr")
	}
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, errors.New("balance has no amount")
	}
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero, err
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// collapseSpace joins wrapped cell text onto one line.
func collapseSpace(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

// cellAt returns row[i], or "" when the row is short or i is unset.
func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
