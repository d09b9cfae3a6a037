package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// TxnType is the direction of a transaction relative to the account holder.
type TxnType string

const (
	Credit TxnType = "Credit"
	Debit  TxnType = "Debit"
)

// Valid reports whether t is one of the two known directions.
func (t TxnType) Valid() bool {
	return t == Credit || t == Debit
}

// Transaction is the canonical ledger row produced by every bank parser.
// Amount is always positive; the direction lives in Type.
type Transaction struct {
	Date    time.Time       `json:"date"`
	Details string          `json:"details"`
	Amount  decimal.Decimal `json:"amount"`
	Type    TxnType         `json:"type"`
}

// RawTransactionRow holds bank-specific fields before normalization.
type RawTransactionRow struct {
	DateText string
	Details  string
	Debit    decimal.Decimal
	Credit   decimal.Decimal
	Balance  decimal.Decimal
}

// Account identifies the statement's account. AccountNumber may be masked.
type Account struct {
	AccountNumber string `json:"accountNumber"`
	BankName      string `json:"bankName"`
}

// Statement is the result of parsing one document.
type Statement struct {
	Account      Account       `json:"account"`
	Format       string        `json:"format,omitempty"` // sub-format, e.g. "yono"
	Transactions []Transaction `json:"transactions"`
}

// StoredTransaction is a persisted transaction with a stable identifier.
type StoredTransaction struct {
	ID          uuid.UUID `json:"id"`
	AccountID   int64     `json:"accountId,omitempty"`
	Transaction
	Category    string `json:"category,omitempty"`
	PassThrough bool   `json:"passThrough"`
}

// PassthroughPair links a credit with the debit that forwarded it.
type PassthroughPair struct {
	Credit StoredTransaction `json:"credit"`
	Debit  StoredTransaction `json:"debit"`
}

// Secret is a string that never renders its value.
type Secret string

const redacted = "[redacted]"

func (s Secret) String() string   { return redacted }
func (s Secret) GoString() string { return redacted }

// Reveal returns the plaintext. Only the decryptor should call it.
func (s Secret) Reveal() string { return string(s) }

func (s Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(redacted)
}

// RawDocument is an uploaded statement before decryption.
type RawDocument struct {
	Data     []byte
	Password Secret
	BankHint string
}

// MarshalZerologObject keeps document bytes and the password out of logs.
func (d RawDocument) MarshalZerologObject(e *zerolog.Event) {
	e.Int("bytes", len(d.Data)).
		Bool("password", d.Password != "").
		Str("bank_hint", d.BankHint)
}
