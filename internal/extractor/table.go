package extractor

import (
	"strings"

	"github.com/ledongthuc/pdf"
)

// Gaps between fragments, in PDF units.
const (
	cellGap = 8.0 // wider than this starts a new cell
	wordGap = 1.0 // wider than this inserts a space

	glyphWidth  = 5.0  // assumed width of fragments reported without one
	glyphHeight = 10.0 // assumed font size of fragments reported without one

	// A line no further than wrapSpacing font sizes below the previous one
	// may continue that row's cells.
	wrapSpacing = 1.6
)

type cell struct {
	x0, x1 float64
	text   string
}

// tableLine is one physical line of the page, split into cells.
type tableLine struct {
	y        float64
	fontSize float64
	cells    []cell
}

// buildTable turns positioned fragments into rows of cells.
//
// Column anchors come from the header row, the first line containing every
// header keyword. Without keywords, or when no line has them all, the line
// with the most cells is used. Every other line's cells are placed under the
// anchor they overlap most, so empty columns stay empty instead of shifting
// left.
//
// A line that fills only columns the row above already fills, never the
// rightmost (balance) column, and sits within wrapSpacing of it is the
// wrapped second line of those cells and is joined into the row above.
func buildTable(texts []pdf.Text, header []string) [][]string {
	lines := tableLines(texts)
	if len(lines) == 0 {
		return nil
	}

	anchorAt := anchorLine(lines, header)
	anchors := lines[anchorAt].cells

	table := make([][]string, 0, len(lines))
	var prev *tableLine
	for i := range lines {
		l := &lines[i]
		out := placeCells(anchors, l.cells)

		if prev != nil && continues(table[len(table)-1], out, prev, l) {
			last := table[len(table)-1]
			for col, text := range out {
				if text != "" {
					last[col] += " " + text
				}
			}
			prev = l
			continue
		}

		table = append(table, out)
		prev = l
		if i == anchorAt {
			// Nothing is ever joined into the header.
			prev = nil
		}
	}
	return table
}

func tableLines(texts []pdf.Text) []tableLine {
	var lines []tableLine
	for _, row := range groupRows(texts) {
		cells := splitCells(row)
		if len(cells) == 0 {
			continue
		}
		size := 0.0
		for _, t := range row {
			size = max(size, t.FontSize)
		}
		if size <= 0 {
			size = glyphHeight
		}
		lines = append(lines, tableLine{y: row[0].Y, fontSize: size, cells: cells})
	}
	return lines
}

// anchorLine returns the index of the header line, or of the widest line.
func anchorLine(lines []tableLine, header []string) int {
	if len(header) > 0 {
	search:
		for i, l := range lines {
			joined := make([]string, len(l.cells))
			for j, c := range l.cells {
				joined[j] = c.text
			}
			text := strings.Join(joined, " ")
			for _, k := range header {
				if !strings.Contains(text, k) {
					continue search
				}
			}
			return i
		}
	}

	widest := 0
	for i, l := range lines {
		if len(l.cells) > len(lines[widest].cells) {
			widest = i
		}
	}
	return widest
}

func placeCells(anchors []cell, cells []cell) []string {
	out := make([]string, len(anchors))
	for _, c := range cells {
		col := nearestColumn(anchors, c)
		if out[col] != "" {
			out[col] += " "
		}
		out[col] += c.text
	}
	return out
}

// continues reports whether next is a wrapped continuation of row.
func continues(row, next []string, rowLine, nextLine *tableLine) bool {
	if gap := rowLine.y - nextLine.y; gap <= 0 || gap > wrapSpacing*rowLine.fontSize {
		return false
	}
	if next[len(next)-1] != "" {
		return false
	}
	filled := false
	for col, text := range next {
		if text == "" {
			continue
		}
		if row[col] == "" {
			return false
		}
		filled = true
	}
	return filled
}

func splitCells(row []pdf.Text) []cell {
	var cells []cell
	var cur *cell
	var b strings.Builder
	flush := func() {
		if cur != nil {
			cur.text = strings.TrimSpace(b.String())
			if cur.text != "" {
				cells = append(cells, *cur)
			}
		}
		b.Reset()
	}

	for _, t := range row {
		end := t.X + t.W
		if t.W <= 0 {
			end = t.X + glyphWidth
		}
		if cur != nil {
			switch gap := t.X - cur.x1; {
			case gap > cellGap:
				flush()
				cur = nil
			case gap > wordGap:
				b.WriteByte(' ')
			}
		}
		if cur == nil {
			cur = &cell{x0: t.X, x1: end}
		}
		b.WriteString(t.S)
		if end > cur.x1 {
			cur.x1 = end
		}
	}
	flush()
	return cells
}

func nearestColumn(anchors []cell, c cell) int {
	best, bestOverlap := -1, 0.0
	for i, a := range anchors {
		overlap := min(a.x1, c.x1) - max(a.x0, c.x0)
		if overlap > bestOverlap {
			best, bestOverlap = i, overlap
		}
	}
	if best >= 0 {
		return best
	}

	center := (c.x0 + c.x1) / 2
	best, bestDist := 0, -1.0
	for i, a := range anchors {
		d := center - (a.x0+a.x1)/2
		if d < 0 {
			d = -d
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
