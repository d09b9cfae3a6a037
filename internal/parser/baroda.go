package parser

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/insightdelivered/statement-ledger/internal/extractor"
	"github.com/insightdelivered/statement-ledger/internal/models"
)

// BarodaParser handles Bank of Baroda statements. Their tables do not
// survive extraction, so the parser reads layout text line by line:
//
//	DATE NARRATION CHQ.NO. WITHDRAWAL(DR) DEPOSIT(CR) BALANCE(INR)
//	02-01-2024 UPI/400212345678/PAYTM 250.00 12,750.00 Cr
//	           /Recharge
//
// Withdrawal and deposit share a position, so direction comes from the
// running balance.
type BarodaParser struct{}

var (
	barodaAccount = regexp.MustCompile(`Savings Account\s*-?\s*(\d{14,})`)
	barodaOpening = regexp.MustCompile(`Opening Balance\s+([\d,.]+\s(?:Cr|Dr))`)
)

const barodaDateLayout = "02-01-2006"

func NewBaroda() *BarodaParser {
	return &BarodaParser{}
}

func (p *BarodaParser) BankName() string {
	return "Bank of Baroda"
}

func (p *BarodaParser) Parse(ctx context.Context, doc extractor.Document) (*models.Statement, error) {
	first := strings.Join(extractor.PagesText(doc, 0, 1), "\n")

	m := barodaAccount.FindStringSubmatch(first)
	if m == nil {
		return nil, fmt.Errorf("%s: %w", p.BankName(), models.ErrNoAccountNumber)
	}
	account := m[1]

	o := barodaOpening.FindStringSubmatch(first)
	if o == nil {
		return nil, fmt.Errorf("%s: %w", p.BankName(), models.ErrNoOpeningBalance)
	}
	opening, err := ParseBalance(o[1])
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", p.BankName(), models.ErrNoOpeningBalance, err)
	}

	state := LineState{Balance: opening}
	for i, line := range extractor.Lines(doc) {
		if i%500 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		state = Step(state, line)
	}
	state = Finish(state)

	if len(state.Rows) == 0 {
		return nil, fmt.Errorf("%s: %w", p.BankName(), models.ErrNoTransactionRows)
	}
	txns := Normalize(state.Rows, barodaDateLayout)
	if len(txns) == 0 {
		return nil, fmt.Errorf("%s: %w", p.BankName(), models.ErrNoTransactionRows)
	}

	return &models.Statement{
		Account:      models.Account{AccountNumber: account, BankName: p.BankName()},
		Transactions: txns,
	}, nil
}
