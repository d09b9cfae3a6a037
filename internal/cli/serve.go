package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/insightdelivered/statement-ledger/internal/api"
	"github.com/insightdelivered/statement-ledger/internal/writer"
)

var serveStatic string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveStatic, "static", "", "directory of web client files to serve")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	p, err := newPipeline()
	if err != nil {
		return err
	}

	api.Version = version
	app := api.NewApp(&api.Handler{
		Pipeline:    p,
		Logger:      log,
		Passthrough: cfg.Passthrough.Matcher(),
		Currency:    writer.DefaultCurrency,
		StaticDir:   serveStatic,
	}, cfg.Server.BodyLimitMB)

	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		_ = app.Shutdown()
	}()

	if status := ocrStatus(); status != "on" {
		log.Warn().Str("ocr", status).Msg("scanned letterheads cannot be identified")
	}

	addr := cfg.Server.Addr()
	log.Info().Str("addr", addr).Msg("listening")
	if err := app.Listen(addr); err != nil && context.Cause(ctx) == nil {
		return err
	}
	return nil
}
