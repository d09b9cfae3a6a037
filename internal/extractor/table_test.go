package extractor

import (
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
)

// word is a fragment at (x, y), 5 units per character at font size 10.
func word(x, y float64, s string) pdf.Text {
	return pdf.Text{FontSize: 10, X: x, Y: y, W: 5 * float64(len(s)), S: s}
}

// Columns: Date 40, Details 120, Debit 300, Credit 380, Balance 460.
func ledgerHeader(y float64) []pdf.Text {
	return []pdf.Text{
		word(40, y, "Date"), word(120, y, "Details"), word(300, y, "Debit"),
		word(380, y, "Credit"), word(460, y, "Balance"),
	}
}

func TestBuildTable(t *testing.T) {
	header := []string{"Date", "Details", "Balance"}
	headerRow := []string{"Date", "Details", "Debit", "Credit", "Balance"}

	tests := []struct {
		name   string
		texts  []pdf.Text
		header []string
		want   [][]string
	}{
		{
			name:  "no fragments",
			texts: nil,
			want:  nil,
		},
		{
			name: "empty columns stay in place",
			texts: append(ledgerHeader(700),
				word(40, 680, "01-01-2024"), word(120, 680, "NEFT"), word(380, 680, "500.00"), word(460, 680, "1,500.00"),
				word(40, 660, "02-01-2024"), word(120, 660, "ATM"), word(300, 660, "100.00"), word(460, 660, "1,400.00"),
			),
			header: header,
			want: [][]string{
				headerRow,
				{"01-01-2024", "NEFT", "", "500.00", "1,500.00"},
				{"02-01-2024", "ATM", "100.00", "", "1,400.00"},
			},
		},
		{
			name: "wrapped date and narration join the row above",
			texts: append(ledgerHeader(700),
				word(40, 680, "1 Jan"), word(120, 680, "NEFT SALARY"), word(380, 680, "5,000.00"), word(460, 680, "15,000.00"),
				word(40, 670, "2024"), word(120, 670, "ACME"),
				word(40, 650, "2 Jan"), word(120, 650, "ATM"), word(300, 650, "100.00"), word(460, 650, "14,900.00"),
				word(40, 640, "2024"),
			),
			header: header,
			want: [][]string{
				headerRow,
				{"1 Jan 2024", "NEFT SALARY ACME", "", "5,000.00", "15,000.00"},
				{"2 Jan 2024", "ATM", "100.00", "", "14,900.00"},
			},
		},
		{
			name: "close rows with a balance are never joined",
			texts: append(ledgerHeader(700),
				word(40, 690, "01-01-2024"), word(120, 690, "NEFT"), word(300, 690, "9.00"), word(380, 690, "500.00"), word(460, 690, "1,500.00"),
				word(40, 680, "02-01-2024"), word(120, 680, "ATM"), word(300, 680, "100.00"), word(460, 680, "1,400.00"),
			),
			header: header,
			want: [][]string{
				headerRow,
				{"01-01-2024", "NEFT", "9.00", "500.00", "1,500.00"},
				{"02-01-2024", "ATM", "100.00", "", "1,400.00"},
			},
		},
		{
			name: "distant narration line stays a row of its own",
			texts: append(ledgerHeader(700),
				word(40, 680, "01-01-2024"), word(120, 680, "NEFT"), word(380, 680, "500.00"), word(460, 680, "1,500.00"),
				word(120, 640, "Page 1"),
			),
			header: header,
			want: [][]string{
				headerRow,
				{"01-01-2024", "NEFT", "", "500.00", "1,500.00"},
				{"", "Page 1", "", "", ""},
			},
		},
		{
			name: "header anchors columns even below a wider line",
			texts: append([]pdf.Text{
				word(10, 740, "Customer"), word(70, 740, "ID"), word(100, 740, "42"), word(150, 740, "Branch"),
				word(220, 740, "Main"), word(280, 740, "IFSC"), word(340, 740, "UBIN0530000"), word(450, 740, "MICR"),
			}, append(ledgerHeader(700),
				word(40, 680, "01-01-2024"), word(120, 680, "NEFT SALARY"), word(380, 680, "500.00"), word(460, 680, "9,500.00"),
			)...),
			header: header,
			want: [][]string{
				{"Customer ID", "42 Branch", "Main IFSC", "UBIN0530000", "MICR"},
				headerRow,
				{"01-01-2024", "NEFT SALARY", "", "500.00", "9,500.00"},
			},
		},
		{
			name: "without header keywords the widest line anchors",
			texts: append(ledgerHeader(700),
				word(40, 680, "01-01-2024"), word(380, 680, "500.00"),
			),
			want: [][]string{
				headerRow,
				{"01-01-2024", "", "", "500.00", ""},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildTable(tt.texts, tt.header))
		})
	}
}

func TestSplitCells(t *testing.T) {
	row := []pdf.Text{
		{X: 10, W: 5, S: "N"}, {X: 15, W: 5, S: "E"}, // touching glyphs
		{X: 25, W: 10, S: "FT"}, // word gap
		{X: 60, W: 0, S: "9"},   // cell gap, no width
	}
	cells := splitCells(row)

	assert.Len(t, cells, 2)
	assert.Equal(t, "NE FT", cells[0].text)
	assert.Equal(t, cell{x0: 60, x1: 65, text: "9"}, cells[1])
}

func TestNearestColumn(t *testing.T) {
	anchors := []cell{{x0: 0, x1: 50}, {x0: 100, x1: 150}, {x0: 200, x1: 250}}

	assert.Equal(t, 1, nearestColumn(anchors, cell{x0: 140, x1: 180}), "overlap wins")
	assert.Equal(t, 2, nearestColumn(anchors, cell{x0: 260, x1: 270}), "nearest centre without overlap")
	assert.Equal(t, 0, nearestColumn(anchors, cell{x0: 55, x1: 60}))
}
