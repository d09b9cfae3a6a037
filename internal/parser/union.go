package parser

import (
	"context"
	"regexp"

	"github.com/insightdelivered/statement-ledger/internal/extractor"
	"github.com/insightdelivered/statement-ledger/internal/models"
)

// UnionLayout is the Union Bank of India statement table:
//
//	SI | Date | Particulars | Chq Num | Withdrawal | Deposit | Balance
//
// Date format: DD-MM-YYYY
var UnionLayout = TableLayout{
	Header:      []string{"Date", "Particulars", "Balance"},
	Columns:     Columns{Date: 1, Details: 2, Debit: 4, Credit: 5, Balance: 6},
	DatePattern: regexp.MustCompile(`\b\d{2}-\d{2}-\d{4}\b`),
	DateLayout:  "02-01-2006",
	Account: AccountRule{
		Pattern: regexp.MustCompile(`Account Number\s*:\s*(\S+)`),
		ToPage:  1,
	},
}

// UnionParser handles Union Bank of India statement PDFs.
type UnionParser struct {
	table TableExtractor
}

func NewUnion() *UnionParser {
	return &UnionParser{table: TableExtractor{Layout: UnionLayout}}
}

func (p *UnionParser) BankName() string {
	return "Union Bank of India"
}

func (p *UnionParser) Parse(ctx context.Context, doc extractor.Document) (*models.Statement, error) {
	return parseTable(ctx, doc, p.BankName(), p.table)
}
