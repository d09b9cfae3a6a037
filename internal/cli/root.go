// Package cli wires configuration, logging and the conversion pipeline into
// the statement-ledger command line.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/insightdelivered/statement-ledger/internal/config"
	"github.com/insightdelivered/statement-ledger/internal/extractor"
	"github.com/insightdelivered/statement-ledger/internal/identify"
	"github.com/insightdelivered/statement-ledger/internal/logger"
	"github.com/insightdelivered/statement-ledger/internal/pipeline"
)

var version = "dev"

// Populated by PersistentPreRunE.
var (
	cfg *config.Config
	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "statement-ledger",
	Short: "Convert bank statement PDFs into a canonical ledger",
	Long: `Converts password-protected bank statement PDFs from State Bank of India,
Union Bank of India and Bank of Baroda into a canonical ledger of
(date, details, amount, type) transactions, stores them locally and
suggests pass-through pairs.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		c, err := config.Load()
		if err != nil {
			return err
		}
		cfg = c
		log = logger.New(cfg.Log.Level, cfg.Log.Pretty)
		cmd.SetContext(logger.WithContext(commandContext(cmd), log))
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// loadFingerprints returns the configured bank list or the built-in one.
func loadFingerprints() ([]identify.Fingerprint, error) {
	if cfg.Identify.FingerprintsFile == "" {
		return identify.DefaultFingerprints(), nil
	}
	banks, err := identify.LoadFingerprints(cfg.Identify.FingerprintsFile)
	if err != nil {
		return nil, fmt.Errorf("loading fingerprints: %w", err)
	}
	return banks, nil
}

// ocrTools returns the configured page renderer and OCR engine.
func ocrTools() (*extractor.Poppler, *extractor.Tesseract) {
	return extractor.NewPoppler(cfg.OCR.PdftoppmBin), extractor.NewTesseract(cfg.OCR.TesseractBin, cfg.OCR.Language)
}

// ocrStatus describes whether the OCR fallback can run.
func ocrStatus() string {
	poppler, tesseract := ocrTools()
	if extractor.OCRAvailable(poppler, tesseract) {
		return "on"
	}
	return fmt.Sprintf("off (needs %s and %s; set OCR_PDFTOPPM_BIN / OCR_TESSERACT_BIN)", poppler.PdftoppmBin, tesseract.Bin)
}

func newPipeline() (*pipeline.Pipeline, error) {
	banks, err := loadFingerprints()
	if err != nil {
		return nil, err
	}
	poppler, tesseract := ocrTools()
	id := identify.New(banks, tesseract, identify.Options{
		Resolution:     cfg.OCR.Resolution,
		HeaderFraction: cfg.OCR.HeaderFraction,
		Threshold:      cfg.Identify.FuzzyThreshold,
	})
	return pipeline.New(id, poppler, tesseract, cfg.OCR.Resolution), nil
}
