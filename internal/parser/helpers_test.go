package parser

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/insightdelivered/statement-ledger/internal/models"
)

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, decimal.RequireFromString(want).Equal(got), "amount: want %s, got %s", want, got)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// assertLedger checks the invariants every parser output must hold.
func assertLedger(t *testing.T, txns []models.Transaction) {
	t.Helper()
	for i, txn := range txns {
		assert.Falsef(t, txn.Date.IsZero(), "txn %d has no date", i)
		assert.Truef(t, txn.Amount.IsPositive(), "txn %d amount %s", i, txn.Amount)
		assert.Truef(t, txn.Type.Valid(), "txn %d type %q", i, txn.Type)
	}
}
