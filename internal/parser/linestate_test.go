package parser

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/statement-ledger/internal/extractor"
	"github.com/insightdelivered/statement-ledger/internal/models"
)

func fold(opening string, lines ...string) LineState {
	s := LineState{Balance: decimal.RequireFromString(opening)}
	for _, l := range lines {
		s = Step(s, l)
	}
	return Finish(s)
}

func TestStep_DebitByRunningBalance(t *testing.T) {
	s := fold("1000.00", "01-01-2024 Rent paid 500.00 500.00 Cr")

	require.Len(t, s.Rows, 1)
	row := s.Rows[0]
	assert.Equal(t, "01-01-2024", row.DateText)
	assert.Equal(t, "Rent paid", row.Details)
	assertAmount(t, "500.00", row.Debit)
	assert.True(t, row.Credit.IsZero())
	assertAmount(t, "500.00", row.Balance)
	assertAmount(t, "500.00", s.Balance)
}

func TestStep(t *testing.T) {
	tests := []struct {
		name        string
		opening     string
		lines       []string
		wantDetails []string
		wantDebit   []string
		wantCredit  []string
		wantBalance string
	}{
		{
			name:        "credit when balance rises",
			opening:     "1000",
			lines:       []string{"02-01-2024 NEFT SALARY 2,000.00 3,000.00 Cr"},
			wantDetails: []string{"NEFT SALARY"},
			wantDebit:   []string{"0"},
			wantCredit:  []string{"2000"},
			wantBalance: "3000",
		},
		{
			name:    "continuation lines append narration",
			opening: "1000",
			lines: []string{
				"01-01-2024 UPI/400212345678/PAYTM 250.00 750.00 Cr",
				"/Recharge",
				"   mobile   ",
				"05-01-2024 ATM WDL 100.00 650.00 Cr",
			},
			wantDetails: []string{"UPI/400212345678/PAYTM /Recharge mobile", "ATM WDL"},
			wantDebit:   []string{"250", "100"},
			wantCredit:  []string{"0", "0"},
			wantBalance: "650",
		},
		{
			name:        "overdrawn balances are negative",
			opening:     "-100",
			lines:       []string{"03-01-2024 ATM 50.00 150.00 Dr"},
			wantDetails: []string{"ATM"},
			wantDebit:   []string{"50"},
			wantCredit:  []string{"0"},
			wantBalance: "-150",
		},
		{
			name:        "within rounding tolerance is a debit",
			opening:     "1000.005",
			lines:       []string{"01-01-2024 Card 100.00 900.00 Cr"},
			wantDetails: []string{"Card"},
			wantDebit:   []string{"100"},
			wantCredit:  []string{"0"},
			wantBalance: "900",
		},
		{
			name:    "boilerplate is never narration",
			opening: "1000",
			lines: []string{
				"01-01-2024 Rent 500.00 500.00 Cr",
				"",
				"Page 1 of 2",
				"DATE NARRATION CHQ.NO. WITHDRAWAL(DR) DEPOSIT(CR) BALANCE(INR)",
				"Closing Balance 500.00 Cr",
			},
			wantDetails: []string{"Rent"},
			wantDebit:   []string{"500"},
			wantCredit:  []string{"0"},
			wantBalance: "500",
		},
		{
			name:    "lines before the first transaction are ignored",
			opening: "10",
			lines: []string{
				"Savings Account - 12345678901234",
				"02-01-2024 Interest 5.00 15.00 Cr",
			},
			wantDetails: []string{"Interest"},
			wantDebit:   []string{"0"},
			wantCredit:  []string{"5"},
			wantBalance: "15",
		},
		{
			name:        "single figure has no amount",
			opening:     "10",
			lines:       []string{"02-01-2024 Balance carried 10.00 Cr"},
			wantDetails: []string{"Balance carried"},
			wantDebit:   []string{"0"},
			wantCredit:  []string{"0"},
			wantBalance: "10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := fold(tt.opening, tt.lines...)
			require.Len(t, s.Rows, len(tt.wantDetails))
			for i, row := range s.Rows {
				assert.Equal(t, tt.wantDetails[i], row.Details)
				assertAmount(t, tt.wantDebit[i], row.Debit)
				assertAmount(t, tt.wantCredit[i], row.Credit)
			}
			assertAmount(t, tt.wantBalance, s.Balance)
		})
	}
}

func TestStep_DoesNotMutatePreviousState(t *testing.T) {
	s1 := Step(LineState{Balance: decimal.NewFromInt(100)}, "01-01-2024 Fee 10.00 90.00 Cr")
	s2 := Step(s1, "more narration")

	assert.Equal(t, "Fee", s1.Current.Details)
	assert.Equal(t, "Fee more narration", s2.Current.Details)
}

func barodaStatement(body ...string) *extractor.MemoryDocument {
	page1 := strings.Join(append([]string{
		"Bank of Baroda",
		"Savings Account - 12345678901234",
		"Opening Balance 1,000.00 Cr",
		"DATE NARRATION CHQ.NO. WITHDRAWAL(DR) DEPOSIT(CR) BALANCE(INR)",
	}, body...), "\n")
	return extractor.NewTextDocument([]string{page1})
}

func TestBarodaParser(t *testing.T) {
	doc := barodaStatement(
		"01-01-2024 Rent paid 500.00 500.00 Cr",
		"to landlord",
		"02-01-2024 Salary 2,000.00 2,500.00 Cr",
		"Page 1 of 2",
	)
	doc.Pages = append(doc.Pages, extractor.MemoryPage{
		Text: "03-01-2024 NEFT/ACME 2,500.00 0.00 Cr\nClosing Balance 0.00 Cr",
	})

	stmt, err := NewBaroda().Parse(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, "12345678901234", stmt.Account.AccountNumber)
	assert.Equal(t, "Bank of Baroda", stmt.Account.BankName)
	assertLedger(t, stmt.Transactions)

	require.Len(t, stmt.Transactions, 3)
	rent := stmt.Transactions[0]
	assert.Equal(t, day(2024, time.January, 1), rent.Date)
	assert.Equal(t, "Rent paid to landlord", rent.Details)
	assert.Equal(t, models.Debit, rent.Type)
	assertAmount(t, "500", rent.Amount)

	assert.Equal(t, models.Credit, stmt.Transactions[1].Type)
	assert.Equal(t, models.Debit, stmt.Transactions[2].Type)
	assertAmount(t, "2500", stmt.Transactions[2].Amount)
}

func TestBarodaParser_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  extractor.Document
		want error
	}{
		{
			name: "no account",
			doc:  extractor.NewTextDocument([]string{"Bank of Baroda\nOpening Balance 1,000.00 Cr"}),
			want: models.ErrNoAccountNumber,
		},
		{
			name: "no opening balance",
			doc:  extractor.NewTextDocument([]string{"Savings Account - 12345678901234\n01-01-2024 Rent 500.00 500.00 Cr"}),
			want: models.ErrNoOpeningBalance,
		},
		{
			name: "no transaction lines",
			doc:  barodaStatement("Closing Balance 1,000.00 Cr"),
			want: models.ErrNoTransactionRows,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBaroda().Parse(context.Background(), tt.doc)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
