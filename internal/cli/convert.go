package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/insightdelivered/statement-ledger/internal/models"
	"github.com/insightdelivered/statement-ledger/internal/pipeline"
	"github.com/insightdelivered/statement-ledger/internal/writer"
)

var (
	convertPassword string
	convertBank     string
	convertOutput   string
	convertHeader   bool
)

var convertCmd = &cobra.Command{
	Use:   "convert <input.pdf> [input2.pdf ...]",
	Short: "Convert statement PDFs to CSV",
	Long: `Decrypts each statement, identifies the bank, extracts its transactions
and writes them as CSV next to the input (or to --output for a single file).

Supported banks: State Bank of India (standard and YONO exports),
Union Bank of India, Bank of Baroda.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	addStatementFlags(convertCmd)
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "output CSV path (single input only)")
	convertCmd.Flags().BoolVar(&convertHeader, "header", true, "include account metadata rows in the CSV")
	rootCmd.AddCommand(convertCmd)
}

func addStatementFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&convertPassword, "password", "p", "", "statement password")
	cmd.Flags().StringVar(&convertBank, "bank", "", "declared bank, reported if identification fails")
}

func runConvert(cmd *cobra.Command, args []string) error {
	if convertOutput != "" && len(args) > 1 {
		return fmt.Errorf("--output can only be used with a single input file")
	}

	p, err := newPipeline()
	if err != nil {
		return err
	}

	w := &writer.CSVWriter{IncludeHeader: convertHeader}
	for _, inputPath := range args {
		cmd.Printf("Processing: %s\n", inputPath)

		res, err := convertFile(cmd.Context(), p, inputPath)
		if err != nil {
			return err
		}

		outPath := convertOutput
		if outPath == "" {
			outPath = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".csv"
		}
		if err := w.WriteToFile(outPath, res.Statement); err != nil {
			return fmt.Errorf("CSV write failed: %w", err)
		}

		printSummary(cmd, res)
		cmd.Printf("  Output: %s\n", outPath)
	}
	return nil
}

// convertFile reads one PDF and runs it through the pipeline.
func convertFile(ctx context.Context, p *pipeline.Pipeline, inputPath string) (*pipeline.Result, error) {
	if ext := strings.ToLower(filepath.Ext(inputPath)); ext != ".pdf" {
		return nil, fmt.Errorf("%s: expected .pdf file, got %q", inputPath, ext)
	}
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", inputPath, err)
	}

	res, err := p.Run(ctx, models.RawDocument{
		Data:     data,
		Password: models.Secret(convertPassword),
		BankHint: convertBank,
	})
	if err != nil {
		return nil, describeFailure(inputPath, err)
	}
	return res, nil
}

// describeFailure prefixes a taxonomy failure with its user-facing message
// and kind. The underlying error, including any declared bank, is kept.
func describeFailure(inputPath string, err error) error {
	if models.IsKnown(err) {
		return fmt.Errorf("%s: %s [%s]: %w", inputPath, models.UserMessage(err), models.KindOf(err), err)
	}
	return fmt.Errorf("%s: %w", inputPath, err)
}

func printSummary(cmd *cobra.Command, res *pipeline.Result) {
	stmt := res.Statement
	cmd.Printf("  Bank: %s (identified by %s)\n", stmt.Account.BankName, res.Method)
	if stmt.Format != "" {
		cmd.Printf("  Format: %s\n", stmt.Format)
	}
	cmd.Printf("  Account number: %s\n", stmt.Account.AccountNumber)

	totals := writer.Sum(stmt.Transactions)
	display := totals.Display(writer.DefaultCurrency)
	cmd.Printf("  Transactions: %d (credits %s, debits %s, net %s)\n",
		totals.Transactions, display["credits"], display["debits"], display["net"])
}
