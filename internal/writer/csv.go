package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/insightdelivered/statement-ledger/internal/models"
)

// CSVWriter writes transactions to CSV format.
type CSVWriter struct {
	IncludeHeader bool
}

type csvRow struct {
	Date    string `csv:"Date"`
	Details string `csv:"Details"`
	Type    string `csv:"Type"`
	Amount  string `csv:"Amount"`
}

// WriteToFile writes transactions to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, stmt *models.Statement) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	if err := w.Write(f, stmt); err != nil {
		return err
	}
	return f.Close()
}

// Write writes transactions in CSV format to the given writer.
func (w *CSVWriter) Write(out io.Writer, stmt *models.Statement) error {
	writer := csv.NewWriter(out)

	// Metadata rows go above the column header.
	if w.IncludeHeader {
		meta := [][]string{
			{"# Bank", stmt.Account.BankName},
			{"# Account Number", stmt.Account.AccountNumber},
			{"# Format", stmt.Format},
		}
		for _, m := range meta {
			if m[1] == "" {
				continue
			}
			if err := writer.Write(m); err != nil {
				return fmt.Errorf("failed to write CSV metadata: %w", err)
			}
		}
	}

	rows := make([]csvRow, 0, len(stmt.Transactions))
	for _, txn := range stmt.Transactions {
		rows = append(rows, csvRow{
			Date:    txn.Date.Format("2006-01-02"),
			Details: txn.Details,
			Type:    string(txn.Type),
			Amount:  txn.Amount.StringFixed(2),
		})
	}

	if err := gocsv.MarshalCSV(&rows, gocsv.NewSafeCSVWriter(writer)); err != nil {
		return fmt.Errorf("failed to write CSV rows: %w", err)
	}
	writer.Flush()
	return writer.Error()
}
