package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/insightdelivered/statement-ledger/internal/models"
	"github.com/insightdelivered/statement-ledger/internal/passthrough"
	"github.com/insightdelivered/statement-ledger/internal/store"
	"github.com/insightdelivered/statement-ledger/internal/writer"
)

var (
	passthroughUser  string
	passthroughApply bool
	passthroughJSON  bool
)

var passthroughCmd = &cobra.Command{
	Use:   "passthrough",
	Short: "Suggest credit/debit pairs that are money passing through",
	Long: `Pairs each stored credit with the first later debit of a similar amount
inside the time window. Pairs are only suggestions until --apply flags them.`,
	Args: cobra.NoArgs,
	RunE: runPassthrough,
}

func init() {
	passthroughCmd.Flags().StringVar(&passthroughUser, "user", "local", "ledger owner")
	passthroughCmd.Flags().BoolVar(&passthroughApply, "apply", false, "flag the suggested pairs in the ledger")
	passthroughCmd.Flags().BoolVar(&passthroughJSON, "json", false, "output pairs as JSON")
	rootCmd.AddCommand(passthroughCmd)
}

func runPassthrough(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(cfg.Ledger.DBPath)
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	defer st.Close()

	txns, err := st.Transactions(cmd.Context(), passthroughUser)
	if err != nil {
		return err
	}
	pairs := passthrough.FirstFitByTime(txns, cfg.Passthrough.Matcher())

	if passthroughJSON {
		if pairs == nil {
			pairs = []models.PassthroughPair{}
		}
		data, err := json.MarshalIndent(pairs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal pairs: %w", err)
		}
		cmd.Println(string(data))
	} else {
		printPairs(cmd, pairs)
	}

	if !passthroughApply {
		return nil
	}
	for _, pair := range pairs {
		if err := st.MarkPassThrough(cmd.Context(), pair); err != nil {
			return fmt.Errorf("flagging pair %s/%s: %w", pair.Credit.ID, pair.Debit.ID, err)
		}
	}
	cmd.Printf("Flagged %d pair(s).\n", len(pairs))
	return nil
}

func printPairs(cmd *cobra.Command, pairs []models.PassthroughPair) {
	if len(pairs) == 0 {
		cmd.Println("No pass-through pairs found.")
		return
	}
	for i, p := range pairs {
		cmd.Printf("[%d] %s  +%s  %s\n", i+1, p.Credit.Date.Format("2006-01-02"),
			writer.Display(p.Credit.Amount, writer.DefaultCurrency), p.Credit.Details)
		cmd.Printf("    %s  -%s  %s\n", p.Debit.Date.Format("2006-01-02"),
			writer.Display(p.Debit.Amount, writer.DefaultCurrency), p.Debit.Details)
	}
}
