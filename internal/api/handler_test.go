package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/statement-ledger/internal/identify"
	"github.com/insightdelivered/statement-ledger/internal/models"
	"github.com/insightdelivered/statement-ledger/internal/passthrough"
	"github.com/insightdelivered/statement-ledger/internal/pipeline"
)

func setupTestApp() *fiber.App {
	h := &Handler{
		Pipeline:    pipeline.New(identify.New(identify.DefaultFingerprints(), nil, identify.Options{}), nil, nil, 0),
		Logger:      zerolog.Nop(),
		Passthrough: passthrough.DefaultConfig(),
	}
	return NewApp(h, 0)
}

// multipartRequest builds a convert request. An empty filename omits the file part.
func multipartRequest(t *testing.T, filename string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte("%PDF-1.4 placeholder"))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/convert", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out
}

func TestHealthEndpoint(t *testing.T) {
	app := setupTestApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	result := decode[map[string]string](t, resp)
	assert.Equal(t, "ok", result["status"])
	assert.Equal(t, "fiber", result["engine"])
}

func TestConvertEndpointRequiresFile(t *testing.T) {
	app := setupTestApp()

	resp, err := app.Test(multipartRequest(t, "", map[string]string{"password": "x"}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	result := decode[ConvertResponse](t, resp)
	assert.False(t, result.Success)
	assert.NotNil(t, result.Transactions)
}

func TestConvertEndpointRejectsNonPDF(t *testing.T) {
	app := setupTestApp()

	resp, err := app.Test(multipartRequest(t, "statement.xlsx", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestConvertEndpointExtractedText(t *testing.T) {
	page1 := strings.Join([]string{
		"Bank of Baroda",
		"Savings Account - 12345678901234",
		"Opening Balance 1,000.00 Cr",
		"DATE NARRATION CHQ.NO. WITHDRAWAL(DR) DEPOSIT(CR) BALANCE(INR)",
		"01-01-2024 Rent paid 500.00 500.00 Cr",
	}, "\n")
	page2 := "02-01-2024 Salary 2,000.00 2,500.00 Cr"

	app := setupTestApp()
	req := multipartRequest(t, "baroda.pdf", map[string]string{
		"extractedText": page1 + "\n---PAGE_BREAK---\n" + page2,
		"header":        "false",
	})
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	result := decode[ConvertResponse](t, resp)
	assert.True(t, result.Success)
	assert.Equal(t, "Bank of Baroda", result.Bank)
	assert.Equal(t, string(identify.MethodText), result.Method)
	require.NotNil(t, result.Account)
	assert.Equal(t, "12345678901234", result.Account.AccountNumber)

	require.Equal(t, 2, result.Count)
	assert.Equal(t, models.Debit, result.Transactions[0].Type)
	assert.Equal(t, models.Credit, result.Transactions[1].Type)
	assert.NotContains(t, result.CSV, "# Bank")
	assert.Contains(t, result.CSV, "Rent paid")
	require.NotNil(t, result.Totals)
	assert.Equal(t, "1500.00", result.Totals.Net.StringFixed(2))
}

func TestConvertEndpointErrorKinds(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantStatus int
		wantKind   models.ErrorKind
	}{
		{"unsupported bank", "HDFC BANK LTD\nStatement of account", fiber.StatusUnprocessableEntity, models.KindUnsupportedBank},
		{"unidentified bank", "Quarterly newsletter", fiber.StatusUnprocessableEntity, models.KindUnidentifiedBank},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setupTestApp()
			resp, err := app.Test(multipartRequest(t, "s.pdf", map[string]string{"extractedText": tt.text}))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			result := decode[ConvertResponse](t, resp)
			assert.Equal(t, tt.wantKind, result.Kind)
			assert.NotEmpty(t, result.Error)
		})
	}
}

func TestConvertEndpointCorruptUpload(t *testing.T) {
	app := setupTestApp()

	resp, err := app.Test(multipartRequest(t, "broken.pdf", map[string]string{"password": "hunter2"}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	result := decode[ConvertResponse](t, resp)
	assert.Equal(t, models.KindCorruptDocument, result.Kind)
	assert.NotContains(t, result.Error, "hunter2")
}

func TestPassthroughEndpoint(t *testing.T) {
	body := `{"transactions":[
		{"id":"00000000-0000-0000-0000-000000000001","date":"2024-01-01T00:00:00Z","details":"in","amount":"5000","type":"Credit","passThrough":false},
		{"id":"00000000-0000-0000-0000-000000000002","date":"2024-01-01T12:00:00Z","details":"out","amount":"5100","type":"Debit","passThrough":false},
		{"id":"00000000-0000-0000-0000-000000000003","date":"2024-01-01T13:00:00Z","details":"small","amount":"100","type":"Debit","passThrough":false}
	]}`

	app := setupTestApp()
	req := httptest.NewRequest(http.MethodPost, "/api/passthrough", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	result := decode[PassthroughResponse](t, resp)
	require.Equal(t, 1, result.Count)
	assert.Equal(t, "in", result.Pairs[0].Credit.Details)
	assert.Equal(t, "out", result.Pairs[0].Debit.Details)
}

func TestPassthroughEndpointInvalidConfig(t *testing.T) {
	app := setupTestApp()
	req := httptest.NewRequest(http.MethodPost, "/api/passthrough", strings.NewReader(`{"transactions":[],"tolerance":-1}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, fiber.StatusUnauthorized, statusFor(models.KindIncorrectPassword))
	assert.Equal(t, fiber.StatusBadRequest, statusFor(models.KindCorruptDocument))
	assert.Equal(t, fiber.StatusUnprocessableEntity, statusFor(models.KindNoOpeningBalance))
}
