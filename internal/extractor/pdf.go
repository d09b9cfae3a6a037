package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/insightdelivered/statement-ledger/internal/models"
)

// PDFDocument is a decrypted PDF. The raw bytes and password stay in memory
// so that pages can be handed to the external renderer.
type PDFDocument struct {
	reader   *pdf.Reader
	data     []byte
	password models.Secret
	poppler  *Poppler
}

// Open decrypts raw and returns a page-addressable document. RC4 and AES-128
// files are read directly; other encryptions, such as AES-256, are first
// decrypted to plaintext in memory. A rejected password yields
// models.ErrIncorrectPassword; every other failure yields
// models.ErrCorruptDocument.
func Open(raw models.RawDocument, poppler *Poppler) (doc *PDFDocument, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("%w: PDF library crashed while opening", models.ErrCorruptDocument)
		}
	}()

	if len(raw.Data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", models.ErrCorruptDocument)
	}

	offered := false
	password := func() string {
		if offered {
			return ""
		}
		offered = true
		return raw.Password.Reveal()
	}

	data, secret := raw.Data, raw.Password
	r, openErr := pdf.NewReaderEncrypted(bytes.NewReader(data), int64(len(data)), password)
	if openErr != nil {
		if errors.Is(openErr, pdf.ErrInvalidPassword) {
			return nil, models.ErrIncorrectPassword
		}
		if !isEncrypted(data) {
			// The library's own message never contains the password.
			return nil, fmt.Errorf("%w: %v", models.ErrCorruptDocument, openErr)
		}

		// Encryption the reader does not support, e.g. AES-256.
		plain, err := decrypt(data, raw.Password)
		if err != nil {
			return nil, err
		}
		r, openErr = pdf.NewReader(bytes.NewReader(plain), int64(len(plain)))
		if openErr != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrCorruptDocument, openErr)
		}
		data, secret = plain, ""
	}
	if r.NumPage() == 0 {
		return nil, fmt.Errorf("%w: PDF has no pages", models.ErrCorruptDocument)
	}

	return &PDFDocument{
		reader:   r,
		data:     data,
		password: secret,
		poppler:  poppler,
	}, nil
}

func (d *PDFDocument) NumPages() int { return d.reader.NumPage() }

func (d *PDFDocument) page(i int) (pdf.Page, error) {
	if i < 0 || i >= d.reader.NumPage() {
		return pdf.Page{}, fmt.Errorf("page %d out of range (document has %d)", i+1, d.reader.NumPage())
	}
	p := d.reader.Page(i + 1)
	if p.V.IsNull() {
		return pdf.Page{}, fmt.Errorf("page %d is empty", i+1)
	}
	return p, nil
}

// PageText tries row extraction first, then coordinate-based reconstruction,
// then the external pdftotext in layout mode.
func (d *PDFDocument) PageText(i int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: text extraction crashed on page %d", models.ErrCorruptDocument, i+1)
		}
	}()

	p, err := d.page(i)
	if err != nil {
		return "", err
	}

	if text := textByRow(p); isReadableText(text) {
		return text, nil
	}
	if text := textByContent(p); isReadableText(text) {
		return text, nil
	}
	if d.poppler != nil {
		if text, err := d.poppler.Text(context.Background(), d.data, d.password, i); err == nil && isReadableText(text) {
			return text, nil
		}
	}
	return textByRow(p), nil
}

// PageTable rebuilds the page's table from positioned text fragments.
func (d *PDFDocument) PageTable(i int, header []string) (table [][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			table, err = nil, fmt.Errorf("%w: table extraction crashed on page %d", models.ErrCorruptDocument, i+1)
		}
	}()

	p, err := d.page(i)
	if err != nil {
		return nil, err
	}
	return buildTable(p.Content().Text, header), nil
}

func (d *PDFDocument) RenderPage(ctx context.Context, i, dpi int) (image.Image, error) {
	if d.poppler == nil {
		return nil, errors.New("no page renderer configured")
	}
	if i < 0 || i >= d.NumPages() {
		return nil, fmt.Errorf("page %d out of range (document has %d)", i+1, d.NumPages())
	}
	return d.poppler.Render(ctx, d.data, d.password, i, dpi)
}

// textByRow uses the library's row grouping, best for well-structured PDFs.
func textByRow(p pdf.Page) string {
	rows, err := p.GetTextByRow()
	if err != nil {
		return ""
	}
	var lines []string
	for _, row := range rows {
		var parts []string
		for _, word := range row.Content {
			parts = append(parts, word.S)
		}
		line := strings.TrimSpace(strings.Join(parts, " "))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// textByContent groups text pieces by Y coordinate to reconstruct rows,
// then sorts each row by X.
func textByContent(p pdf.Page) string {
	var lines []string
	for _, row := range groupRows(p.Content().Text) {
		var b strings.Builder
		var prevX float64
		for j, item := range row {
			if j > 0 && item.X-prevX > 15 {
				b.WriteString("  ")
			}
			b.WriteString(item.S)
			prevX = item.X
		}
		if line := strings.TrimSpace(b.String()); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// groupRows buckets fragments by rounded Y, top of page first, each row
// sorted left to right.
func groupRows(texts []pdf.Text) [][]pdf.Text {
	rowMap := make(map[int][]pdf.Text)
	for _, t := range texts {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		yKey := int(math.Round(t.Y))
		rowMap[yKey] = append(rowMap[yKey], t)
	}

	yKeys := make([]int, 0, len(rowMap))
	for y := range rowMap {
		yKeys = append(yKeys, y)
	}
	// PDF Y grows bottom to top.
	sort.Sort(sort.Reverse(sort.IntSlice(yKeys)))

	rows := make([][]pdf.Text, 0, len(yKeys))
	for _, y := range yKeys {
		items := rowMap[y]
		sort.SliceStable(items, func(a, b int) bool { return items[a].X < items[b].X })
		rows = append(rows, items)
	}
	return rows
}

// textQuality returns the ratio of plain readable characters to all
// characters. Identity-encoded fonts decode to accented garbage, so letters
// are checked strictly.
func textQuality(text string) float64 {
	total, readable := 0, 0
	for _, r := range text {
		total++
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || unicode.IsSpace(r) ||
			strings.ContainsRune(".,-/:;()'\"₹$%&@#!?+=*", r) {
			readable++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

// commonWords appear on virtually every statement page.
var commonWords = []string{
	"bank", "account", "balance", "date", "statement", "total", "amount",
	"credit", "debit", "transaction", "narration", "particulars",
	"withdrawal", "deposit", "branch", "ifsc", "page", "details",
}

func containsCommonWords(text string) bool {
	lower := strings.ToLower(text)
	for _, word := range commonWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// isReadableText requires some text, mostly readable characters, and at
// least one statement word.
func isReadableText(text string) bool {
	if len(strings.TrimSpace(text)) <= 20 {
		return false
	}
	if textQuality(text) <= 0.6 {
		return false
	}
	return containsCommonWords(text)
}
