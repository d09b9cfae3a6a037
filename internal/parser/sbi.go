package parser

import (
	"context"
	"regexp"
	"strings"

	"github.com/insightdelivered/statement-ledger/internal/extractor"
	"github.com/insightdelivered/statement-ledger/internal/logger"
	"github.com/insightdelivered/statement-ledger/internal/models"
)

// SBI statement sub-formats.
const (
	FormatStandard = "standard"
	FormatYono     = "yono"
)

// SBIStandardLayout is the branch-issued statement:
//
//	Date | Details | Ref No./Cheque No | Debit | Credit | Balance
//
// Date format: D Mon YYYY, sometimes wrapped over two lines in the cell.
var SBIStandardLayout = TableLayout{
	Format:      FormatStandard,
	Header:      []string{"Date", "Details", "Balance"},
	Columns:     Columns{Date: 0, Details: 1, Debit: 3, Credit: 4, Balance: 5},
	DatePattern: regexp.MustCompile(`\b\d{1,2} [A-Z][a-z]{2} \d{4}\b`),
	DateLayout:  "2 Jan 2006",
	Account: AccountRule{
		Pattern: regexp.MustCompile(`Account Number\s*.*?(\d{11})`),
		ToPage:  1,
	},
}

// SBIYonoLayout is the YONO app export. It has no header row; the ledger
// starts on the third page after an "Opening Balance" row and ends with a
// summary row. Note Credit comes before Debit.
//
//	Date | Transaction Reference | - | Ref.No./Chq.No. | Credit | Debit | Balance
//
// Date format: DD-MM-YY
var SBIYonoLayout = TableLayout{
	Format:      FormatYono,
	StartPage:   2,
	Columns:     Columns{Date: 0, Details: 1, Credit: 4, Debit: 5, Balance: 6},
	DatePattern: regexp.MustCompile(`\b\d{2}-\d{2}-\d{2}\b`),
	DateLayout:  "02-01-06",
	Anchor:      "Opening Balance",
	DropLast:    true,
	Account: AccountRule{
		Pattern:  regexp.MustCompile(`XXXXXXX(\d{4})`),
		FromPage: 1,
		ToPage:   3,
		Prefix:   "XXXXXXX",
	},
}

// sbiFormatFraction is the share of page 1 read when only OCR can tell the
// sub-formats apart.
const sbiFormatFraction = 0.40

// SBIParser handles State Bank of India statements in either sub-format.
type SBIParser struct {
	ocr        extractor.OCR
	resolution int
}

func NewSBI(opts Options) *SBIParser {
	return &SBIParser{ocr: opts.OCR, resolution: opts.Resolution}
}

func (p *SBIParser) BankName() string {
	return "State Bank of India"
}

// Format decides between the standard and YONO layouts from page 1.
func (p *SBIParser) Format(ctx context.Context, doc extractor.Document) string {
	first := strings.Join(extractor.PagesText(doc, 0, 1), "\n")
	switch {
	case strings.Contains(first, "sbi.co.in"):
		return FormatYono
	case strings.Contains(first, "Ref No./Cheque No"):
		return FormatStandard
	}
	if strings.Contains(extractor.ReadLetterhead(ctx, doc, p.ocr, p.resolution, sbiFormatFraction), "Relationship Summary") {
		return FormatYono
	}
	return FormatStandard
}

func (p *SBIParser) Parse(ctx context.Context, doc extractor.Document) (*models.Statement, error) {
	layout := SBIStandardLayout
	if p.Format(ctx, doc) == FormatYono {
		layout = SBIYonoLayout
	}
	log := logger.FromContext(ctx)
	log.Debug().Str("format", layout.Format).Msg("SBI sub-format selected")

	return parseTable(ctx, doc, p.BankName(), TableExtractor{Layout: layout})
}
