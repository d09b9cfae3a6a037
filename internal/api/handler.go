package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-ledger/internal/extractor"
	"github.com/insightdelivered/statement-ledger/internal/logger"
	"github.com/insightdelivered/statement-ledger/internal/models"
	"github.com/insightdelivered/statement-ledger/internal/passthrough"
	"github.com/insightdelivered/statement-ledger/internal/pipeline"
	"github.com/insightdelivered/statement-ledger/internal/writer"
)

// Version is reported by the health endpoint.
var Version = "dev"

// ConvertResponse is the JSON response from the /api/convert endpoint.
type ConvertResponse struct {
	Success      bool                 `json:"success"`
	Error        string               `json:"error,omitempty"`
	Kind         models.ErrorKind     `json:"kind,omitempty"`
	Bank         string               `json:"bank,omitempty"`
	Method       string               `json:"method,omitempty"`
	Format       string               `json:"format,omitempty"`
	Account      *models.Account      `json:"account,omitempty"`
	Transactions []models.Transaction `json:"transactions"`
	CSV          string               `json:"csv,omitempty"`
	Totals       *writer.Totals       `json:"totals,omitempty"`
	Display      map[string]string    `json:"display,omitempty"`
	Count        int                  `json:"count"`
}

// PassthroughRequest is the body of /api/passthrough. Unset limits take the
// matcher defaults.
type PassthroughRequest struct {
	Transactions []models.StoredTransaction `json:"transactions"`
	WindowHours  *float64                   `json:"windowHours,omitempty"`
	Tolerance    *float64                   `json:"tolerance,omitempty"`
	MinAmount    *float64                   `json:"minAmount,omitempty"`
}

// PassthroughResponse lists suggested pairs. Nothing is flagged.
type PassthroughResponse struct {
	Success bool                     `json:"success"`
	Error   string                   `json:"error,omitempty"`
	Pairs   []models.PassthroughPair `json:"pairs"`
	Count   int                      `json:"count"`
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	Pipeline    *pipeline.Pipeline
	Logger      zerolog.Logger
	Passthrough passthrough.Config
	Currency    string
	StaticDir   string
}

// NewApp builds the fiber app with all routes registered.
func NewApp(h *Handler, bodyLimitMB int) *fiber.App {
	if bodyLimitMB <= 0 {
		bodyLimitMB = 20
	}
	app := fiber.New(fiber.Config{
		AppName:               "statement-ledger",
		BodyLimit:             bodyLimitMB << 20,
		DisableStartupMessage: true,
		ReadTimeout:           2 * time.Minute,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type",
	}))
	h.RegisterRoutes(app)
	return app
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Get("/api/health", h.HandleHealth)
	app.Post("/api/convert", h.HandleConvert)
	app.Post("/api/passthrough", h.HandlePassthrough)

	// Serve the web client, falling back to index.html for client routes.
	if h.StaticDir != "" {
		app.Static("/", h.StaticDir)
		app.Get("/*", func(c *fiber.Ctx) error {
			if strings.HasPrefix(c.Path(), "/api/") {
				return fiber.ErrNotFound
			}
			return c.SendFile(h.StaticDir + "/index.html")
		})
	}
}

func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"engine":  "fiber",
		"version": Version,
	})
}

func (h *Handler) HandleConvert(c *fiber.Ctx) error {
	ctx := h.context(c)
	log := logger.FromContext(ctx)

	file, err := c.FormFile("file")
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "No file uploaded. Use form field 'file'.", "")
	}
	if !strings.HasSuffix(strings.ToLower(file.Filename), ".pdf") {
		return writeError(c, fiber.StatusBadRequest, "Only PDF files are supported.", "")
	}

	bankHint := c.FormValue("bank")
	includeHeader := c.FormValue("header") != "false"

	var res *pipeline.Result
	// Text already extracted by the browser skips decryption entirely.
	if pages := extractor.SplitPageBreaks(c.FormValue("extractedText")); len(pages) > 0 {
		log.Info().Int("pages", len(pages)).Str("bank_hint", bankHint).Msg("converting client-extracted text")
		res, err = h.Pipeline.RunDocument(ctx, extractor.NewTextDocument(pages))
	} else {
		data, readErr := readUpload(file)
		if readErr != nil {
			return writeError(c, fiber.StatusBadRequest, "Failed to read uploaded file.", "")
		}
		res, err = h.Pipeline.Run(ctx, models.RawDocument{
			Data:     data,
			Password: models.Secret(c.FormValue("password")),
			BankHint: bankHint,
		})
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return writeError(c, fiber.StatusRequestTimeout, "Conversion was cancelled.", "")
		}
		kind := models.KindOf(err)
		return writeError(c, statusFor(kind), models.UserMessage(err), kind)
	}

	stmt := res.Statement
	var csvBuf bytes.Buffer
	csvWriter := &writer.CSVWriter{IncludeHeader: includeHeader}
	if err := csvWriter.Write(&csvBuf, stmt); err != nil {
		return writeError(c, fiber.StatusInternalServerError, fmt.Sprintf("CSV generation failed: %v", err), "")
	}

	// Ensure transactions is never nil (nil marshals to JSON null, not [])
	txns := stmt.Transactions
	if txns == nil {
		txns = []models.Transaction{}
	}
	totals := writer.Sum(txns)

	return c.JSON(ConvertResponse{
		Success:      true,
		Bank:         stmt.Account.BankName,
		Method:       string(res.Method),
		Format:       stmt.Format,
		Account:      &stmt.Account,
		Transactions: txns,
		CSV:          csvBuf.String(),
		Totals:       &totals,
		Display:      totals.Display(h.Currency),
		Count:        len(txns),
	})
}

func (h *Handler) HandlePassthrough(c *fiber.Ctx) error {
	var req PassthroughRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(PassthroughResponse{Error: "Invalid JSON body.", Pairs: []models.PassthroughPair{}})
	}

	cfg := h.Passthrough
	if req.WindowHours != nil {
		cfg.TimeWindow = time.Duration(*req.WindowHours * float64(time.Hour))
	}
	if req.Tolerance != nil {
		cfg.AmountTolerance = decimal.NewFromFloat(*req.Tolerance)
	}
	if req.MinAmount != nil {
		cfg.MinimumAmount = decimal.NewFromFloat(*req.MinAmount)
	}
	if err := cfg.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(PassthroughResponse{Error: err.Error(), Pairs: []models.PassthroughPair{}})
	}

	pairs := passthrough.FirstFitByTime(req.Transactions, cfg)
	if pairs == nil {
		pairs = []models.PassthroughPair{}
	}
	return c.JSON(PassthroughResponse{Success: true, Pairs: pairs, Count: len(pairs)})
}

// context carries the request's cancellation and the handler's logger.
func (h *Handler) context(c *fiber.Ctx) context.Context {
	return logger.WithContext(c.UserContext(), h.Logger.With().Str("request_ip", c.IP()).Logger())
}

// statusFor maps a failure kind to an HTTP status.
func statusFor(kind models.ErrorKind) int {
	switch kind {
	case models.KindIncorrectPassword:
		return fiber.StatusUnauthorized
	case models.KindCorruptDocument:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusUnprocessableEntity
	}
}

func writeError(c *fiber.Ctx, status int, msg string, kind models.ErrorKind) error {
	return c.Status(status).JSON(ConvertResponse{
		Success:      false,
		Error:        msg,
		Kind:         kind,
		Transactions: []models.Transaction{},
	})
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
