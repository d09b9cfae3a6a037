package parser

import (
	"strings"
	"time"

	"github.com/insightdelivered/statement-ledger/internal/models"
)

// Normalize converts raw rows to canonical transactions. Rows without a
// parseable date or without a positive amount are dropped.
func Normalize(rows []models.RawTransactionRow, dateLayout string) []models.Transaction {
	txns := make([]models.Transaction, 0, len(rows))
	for _, r := range rows {
		date, err := time.Parse(dateLayout, collapseSpace(r.DateText))
		if err != nil {
			continue
		}
		txn := models.Transaction{
			Date:    date,
			Details: r.Details,
			Amount:  r.Debit,
			Type:    models.Debit,
		}
		if r.Credit.IsPositive() {
			txn.Amount = r.Credit
			txn.Type = models.Credit
		}
		txns = append(txns, txn)
	}
	return Canonicalize(txns)
}

// Canonicalize puts transactions in canonical form: date at UTC midnight,
// single-spaced details, amount at two places. Transactions with no date, a
// non-positive amount or an unknown type are dropped. Applying it twice
// changes nothing.
func Canonicalize(txns []models.Transaction) []models.Transaction {
	out := make([]models.Transaction, 0, len(txns))
	for _, t := range txns {
		if t.Date.IsZero() || !t.Type.Valid() {
			continue
		}
		amount := t.Amount.Round(2)
		if !amount.IsPositive() {
			continue
		}
		y, m, d := t.Date.Date()
		out = append(out, models.Transaction{
			Date:    time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
			Details: strings.Join(strings.Fields(t.Details), " "),
			Amount:  amount,
			Type:    t.Type,
		})
	}
	return out
}
