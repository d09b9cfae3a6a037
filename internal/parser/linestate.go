package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-ledger/internal/models"
)

// balanceTolerance absorbs rounding in printed balances.
var balanceTolerance = decimal.RequireFromString("0.01")

var (
	// A transaction starts with a date and ends with its running balance.
	txnStart = regexp.MustCompile(`^(\d{2}-\d{2}-\d{4}).*?([\d,.]+\s(?:Cr|Dr))$`)
	// trailingFigures is the amount and balance columns at the end of a line.
	trailingFigures = regexp.MustCompile(`(\s*[\d,]+\.\d{2}\s*)+(Cr|Dr)$`)
	pageFooter      = regexp.MustCompile(`^Page\s+\d+(\s+of\s+\d+)?$`)
)

// boilerplate anchors mark header and footer lines that never belong to a
// transaction.
var boilerplate = []string{
	"Opening Balance",
	"Closing Balance",
	"DATE NARRATION",
	"computer generated",
	"Statement Summary",
}

// LineState is threaded through Step, one physical line at a time.
type LineState struct {
	// Current is the transaction still collecting narration lines.
	Current *models.RawTransactionRow
	// Balance is the running balance after the last started transaction.
	Balance decimal.Decimal
	Rows    []models.RawTransactionRow
}

// Step consumes one line and returns the next state.
func Step(s LineState, line string) LineState {
	line = strings.TrimSpace(line)
	if isBoilerplate(line) {
		return s
	}

	m := txnStart.FindStringSubmatch(line)
	if m == nil {
		if s.Current != nil {
			cur := *s.Current
			cur.Details = strings.TrimSpace(cur.Details + " " + line)
			s.Current = &cur
		}
		return s
	}

	s = Finish(s)

	date := m[1]
	balance, err := ParseBalance(m[2])
	if err != nil {
		// The start pattern only guarantees digits and separators.
		balance = s.Balance
	}

	row := models.RawTransactionRow{
		DateText: date,
		Details:  strings.TrimSpace(trailingFigures.ReplaceAllString(strings.Replace(line, date, "", 1), "")),
		Balance:  balance,
	}

	// The last figure is the balance, so the amount is the one before it.
	if figures := amountPattern.FindAllString(line, -1); len(figures) > 1 {
		amount := amountOrZero(figures[len(figures)-2])
		if amount.IsPositive() {
			if balance.Sub(s.Balance.Sub(amount)).Abs().LessThan(balanceTolerance) {
				row.Debit = amount
			} else {
				row.Credit = amount
			}
		}
	}

	s.Balance = balance
	s.Current = &row
	return s
}

// Finish emits the open transaction, if any.
func Finish(s LineState) LineState {
	if s.Current != nil {
		s.Rows = append(s.Rows, *s.Current)
		s.Current = nil
	}
	return s
}

func isBoilerplate(line string) bool {
	if line == "" || pageFooter.MatchString(line) {
		return true
	}
	for _, anchor := range boilerplate {
		if strings.Contains(line, anchor) {
			return true
		}
	}
	return false
}
