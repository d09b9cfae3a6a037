package parser

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/insightdelivered/statement-ledger/internal/extractor"
	"github.com/insightdelivered/statement-ledger/internal/models"
)

// Columns gives the cell index of each field. -1 means the layout has no
// such column.
type Columns struct {
	Date    int
	Details int
	Debit   int
	Credit  int
	Balance int
}

// AccountRule finds the account number. Group 1 of Pattern is the number;
// Prefix is prepended, e.g. to keep a masked number recognisable.
type AccountRule struct {
	Pattern  *regexp.Regexp
	FromPage int
	ToPage   int // exclusive
	Prefix   string
}

// TableLayout describes one bank's transaction table.
type TableLayout struct {
	Format string
	// Header keywords that must all appear in the header row. When empty,
	// every row from StartPage on is a candidate.
	Header    []string
	StartPage int
	Columns   Columns
	// DatePattern picks the date out of the date cell; DateLayout parses it.
	DatePattern *regexp.Regexp
	DateLayout  string
	// Anchor, when set, drops candidates up to and including the first row
	// whose first cell contains it.
	Anchor string
	// DropLast discards the final dated row, a summary line in some exports.
	DropLast bool
	Account  AccountRule
}

// TableExtractor pulls transaction rows out of page tables.
type TableExtractor struct {
	Layout TableLayout
}

// AccountNumber applies the layout's account rule to its pages in order.
func (e TableExtractor) AccountNumber(doc extractor.Document) (string, error) {
	return findAccount(doc, e.Layout.Account)
}

func findAccount(doc extractor.Document, rule AccountRule) (string, error) {
	for _, text := range extractor.PagesText(doc, rule.FromPage, rule.ToPage) {
		if m := rule.Pattern.FindStringSubmatch(text); m != nil {
			return rule.Prefix + m[1], nil
		}
	}
	return "", models.ErrNoAccountNumber
}

// Rows returns the candidate transaction rows in page and row order. Rows
// whose date cell has no date are dropped, except that a narration-only row
// directly after a kept row is treated as its wrapped narration.
func (e TableExtractor) Rows(ctx context.Context, doc extractor.Document) ([]models.RawTransactionRow, error) {
	l := e.Layout

	candidates, err := e.candidates(ctx, doc)
	if err != nil {
		return nil, err
	}

	if l.Anchor != "" {
		for i, r := range candidates {
			if strings.Contains(cellAt(r, 0), l.Anchor) {
				candidates = candidates[i+1:]
				break
			}
		}
	}

	var rows []models.RawTransactionRow
	prevKept := false
	for _, r := range candidates {
		date := l.DatePattern.FindString(collapseSpace(cellAt(r, l.Columns.Date)))
		if date == "" {
			if prevKept && e.narrationOnly(r) {
				last := &rows[len(rows)-1]
				last.Details += " " + collapseSpace(cellAt(r, l.Columns.Details))
				continue
			}
			prevKept = false
			continue
		}

		rows = append(rows, models.RawTransactionRow{
			DateText: date,
			Details:  collapseSpace(cellAt(r, l.Columns.Details)),
			Debit:    amountOrZero(cellAt(r, l.Columns.Debit)).Abs(),
			Credit:   amountOrZero(cellAt(r, l.Columns.Credit)).Abs(),
			Balance:  amountOrZero(cellAt(r, l.Columns.Balance)),
		})
		prevKept = true
	}

	if l.DropLast && len(rows) > 0 {
		rows = rows[:len(rows)-1]
	}
	if len(rows) == 0 {
		return nil, models.ErrNoTransactionRows
	}
	return rows, nil
}

// candidates collects rows after the header. Once a header has been seen,
// later pages without one are treated as continuations of the table.
func (e TableExtractor) candidates(ctx context.Context, doc extractor.Document) ([][]string, error) {
	l := e.Layout
	inTable := len(l.Header) == 0

	var out [][]string
	for page := l.StartPage; page < doc.NumPages(); page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		table, err := doc.PageTable(page, l.Header)
		if err != nil {
			if errors.Is(err, models.ErrCorruptDocument) {
				return nil, err
			}
			continue
		}

		start := 0
		if len(l.Header) > 0 {
			if h := headerIndex(table, l.Header); h >= 0 {
				start, inTable = h+1, true
			}
		}
		if inTable && start < len(table) {
			out = append(out, table[start:]...)
		}
	}
	return out, nil
}

// narrationOnly reports whether row carries nothing but narration. Such a
// row is joined to the transaction above it, which assumes narration wraps
// downward from its dated row as in the Union and SBI exports. A layout that
// centres the dated row within its narration would put the first narration
// line above the date, and this rule would attach it to the wrong
// transaction.
func (e TableExtractor) narrationOnly(row []string) bool {
	c := e.Layout.Columns
	if collapseSpace(cellAt(row, c.Details)) == "" {
		return false
	}
	for i, cell := range row {
		if i != c.Details && strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func headerIndex(table [][]string, keywords []string) int {
rows:
	for i, row := range table {
		joined := strings.Join(row, " ")
		for _, k := range keywords {
			if !strings.Contains(joined, k) {
				continue rows
			}
		}
		return i
	}
	return -1
}

// parseTable is the shared flow of the table-based parsers.
func parseTable(ctx context.Context, doc extractor.Document, bank string, ext TableExtractor) (*models.Statement, error) {
	account, err := ext.AccountNumber(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", bank, err)
	}
	rows, err := ext.Rows(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", bank, err)
	}
	txns := Normalize(rows, ext.Layout.DateLayout)
	if len(txns) == 0 {
		return nil, fmt.Errorf("%s: %w", bank, models.ErrNoTransactionRows)
	}
	return &models.Statement{
		Account:      models.Account{AccountNumber: account, BankName: bank},
		Format:       ext.Layout.Format,
		Transactions: txns,
	}, nil
}
