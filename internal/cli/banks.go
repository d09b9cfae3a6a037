package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/insightdelivered/statement-ledger/internal/parser"
)

var banksCmd = &cobra.Command{
	Use:   "banks",
	Short: "List the banks that can be identified and converted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		banks, err := loadFingerprints()
		if err != nil {
			return err
		}
		for _, b := range banks {
			status := "unsupported"
			if b.Supported() {
				status = "parser: " + b.Extractor
			}
			cmd.Printf("%-24s %s\n", b.Name, status)
		}
		cmd.Printf("\nParsers: %s\n", strings.Join(parser.Names(), ", "))
		cmd.Printf("OCR fallback: %s\n", ocrStatus())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(banksCmd)
}
