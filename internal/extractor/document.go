package extractor

import (
	"context"
	"fmt"
	"image"
	"strings"
)

// Document is a decrypted, page-addressable statement. Pages are 0-indexed.
type Document interface {
	NumPages() int
	// PageText returns the page's text with one physical line per row.
	PageText(page int) (string, error)
	// PageTable returns the page's table as rows of cells. Cells may be empty.
	// header names keywords of the table's header row, whose cells then
	// decide the columns. It may be nil.
	PageTable(page int, header []string) ([][]string, error)
	// RenderPage rasterises the page at the given resolution in dpi.
	RenderPage(ctx context.Context, page, dpi int) (image.Image, error)
}

// MemoryPage is one page of a MemoryDocument.
type MemoryPage struct {
	Text  string
	Table [][]string
	Image image.Image
}

// MemoryDocument serves pages that were extracted elsewhere, e.g. by the
// browser before upload.
type MemoryDocument struct {
	Pages []MemoryPage
}

// NewTextDocument builds a MemoryDocument holding only page text.
func NewTextDocument(pages []string) *MemoryDocument {
	d := &MemoryDocument{}
	for _, p := range pages {
		d.Pages = append(d.Pages, MemoryPage{Text: p})
	}
	return d
}

// SplitPageBreaks splits client-extracted text on its page separator.
func SplitPageBreaks(text string) []string {
	var pages []string
	for _, page := range strings.Split(text, PageBreak) {
		page = strings.TrimSpace(page)
		if page != "" {
			pages = append(pages, page)
		}
	}
	return pages
}

// PageBreak separates pages in client-extracted text.
const PageBreak = "\n---PAGE_BREAK---\n"

func (d *MemoryDocument) NumPages() int { return len(d.Pages) }

func (d *MemoryDocument) page(i int) (MemoryPage, error) {
	if i < 0 || i >= len(d.Pages) {
		return MemoryPage{}, fmt.Errorf("page %d out of range (document has %d)", i+1, len(d.Pages))
	}
	return d.Pages[i], nil
}

func (d *MemoryDocument) PageText(i int) (string, error) {
	p, err := d.page(i)
	return p.Text, err
}

func (d *MemoryDocument) PageTable(i int, _ []string) ([][]string, error) {
	p, err := d.page(i)
	return p.Table, err
}

func (d *MemoryDocument) RenderPage(_ context.Context, i, _ int) (image.Image, error) {
	p, err := d.page(i)
	if err != nil {
		return nil, err
	}
	if p.Image == nil {
		return nil, fmt.Errorf("page %d has no image", i+1)
	}
	return p.Image, nil
}

// PagesText returns the text of pages [from, to), skipping pages that fail.
func PagesText(doc Document, from, to int) []string {
	if to > doc.NumPages() {
		to = doc.NumPages()
	}
	var out []string
	for i := from; i < to; i++ {
		text, err := doc.PageText(i)
		if err != nil {
			continue
		}
		out = append(out, text)
	}
	return out
}

// Lines returns every physical text line of the document in page order.
func Lines(doc Document) []string {
	var lines []string
	for _, page := range PagesText(doc, 0, doc.NumPages()) {
		lines = append(lines, strings.Split(page, "\n")...)
	}
	return lines
}
