package writer

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-ledger/internal/models"
)

// DefaultCurrency is used when a statement does not say otherwise.
const DefaultCurrency = money.INR

// Display formats amount in the currency's own style, e.g. "₹1,234.56".
func Display(amount decimal.Decimal, currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" || money.GetCurrency(currency) == nil {
		currency = DefaultCurrency
	}
	cents := amount.Shift(2).Round(0).IntPart()
	return money.New(cents, currency).Display()
}

// Totals summarises a statement's money movement.
type Totals struct {
	Credits      decimal.Decimal `json:"credits"`
	Debits       decimal.Decimal `json:"debits"`
	Net          decimal.Decimal `json:"net"`
	Transactions int             `json:"transactions"`
}

// Sum adds up credits and debits.
func Sum(txns []models.Transaction) Totals {
	var t Totals
	for _, txn := range txns {
		switch txn.Type {
		case models.Credit:
			t.Credits = t.Credits.Add(txn.Amount)
		case models.Debit:
			t.Debits = t.Debits.Add(txn.Amount)
		}
	}
	t.Net = t.Credits.Sub(t.Debits)
	t.Transactions = len(txns)
	return t
}

// Display renders the totals for a summary line.
func (t Totals) Display(currency string) map[string]string {
	return map[string]string{
		"credits": Display(t.Credits, currency),
		"debits":  Display(t.Debits, currency),
		"net":     Display(t.Net, currency),
	}
}
