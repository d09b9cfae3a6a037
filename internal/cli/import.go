package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/insightdelivered/statement-ledger/internal/store"
)

var importUser string

var importCmd = &cobra.Command{
	Use:   "import <input.pdf> [input2.pdf ...]",
	Short: "Convert statements and save them to the local ledger",
	Long: `Converts each statement and stores its transactions in the ledger
database. Re-importing an overlapping statement skips rows already stored.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	addStatementFlags(importCmd)
	importCmd.Flags().StringVar(&importUser, "user", "local", "ledger owner")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	p, err := newPipeline()
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Ledger.DBPath)
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	defer st.Close()

	for _, inputPath := range args {
		cmd.Printf("Processing: %s\n", inputPath)

		res, err := convertFile(cmd.Context(), p, inputPath)
		if err != nil {
			return err
		}
		printSummary(cmd, res)

		added, err := st.SaveStatement(cmd.Context(), importUser, res.Statement)
		if err != nil {
			return fmt.Errorf("saving %s: %w", inputPath, err)
		}
		cmd.Printf("  Stored: %d new, %d already present\n", added, len(res.Statement.Transactions)-added)
	}
	log.Info().Str("db", st.Path()).Int("files", len(args)).Msg("import finished")
	return nil
}
