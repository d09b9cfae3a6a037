package models

import "errors"

// Terminal failure kinds for a single statement. None of them are retried.
var (
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrCorruptDocument   = errors.New("corrupt document")
	ErrUnidentifiedBank  = errors.New("could not identify the bank")
	ErrUnsupportedBank   = errors.New("bank is not supported yet")
	ErrNoAccountNumber   = errors.New("no account number found")
	ErrNoOpeningBalance  = errors.New("no opening balance found")
	ErrNoTransactionRows = errors.New("no transaction rows found")
)

// ErrorKind is a stable, machine-readable name for a failure.
type ErrorKind string

const (
	KindIncorrectPassword ErrorKind = "IncorrectPassword"
	KindCorruptDocument   ErrorKind = "CorruptDocument"
	KindUnidentifiedBank  ErrorKind = "UnidentifiedBank"
	KindUnsupportedBank   ErrorKind = "UnsupportedBank"
	KindNoAccountNumber   ErrorKind = "NoAccountNumber"
	KindNoOpeningBalance  ErrorKind = "NoOpeningBalance"
	KindNoTransactionRows ErrorKind = "NoTransactionRows"
)

var kinds = []struct {
	err     error
	kind    ErrorKind
	message string
}{
	{ErrIncorrectPassword, KindIncorrectPassword, "The password for this PDF is incorrect."},
	{ErrUnidentifiedBank, KindUnidentifiedBank, "We could not tell which bank issued this statement."},
	{ErrUnsupportedBank, KindUnsupportedBank, "Statements from this bank are not supported yet."},
	{ErrNoAccountNumber, KindNoAccountNumber, "The account number could not be found in this statement."},
	{ErrNoOpeningBalance, KindNoOpeningBalance, "The statement has no opening balance to reconcile against."},
	{ErrNoTransactionRows, KindNoTransactionRows, "No transactions were found in this statement."},
	{ErrCorruptDocument, KindCorruptDocument, "The file could not be read as a PDF statement."},
}

// KindOf classifies err. Anything outside the taxonomy is a corrupt document.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindCorruptDocument
}

// UserMessage returns a message suitable for showing to the uploader.
func UserMessage(err error) string {
	kind := KindOf(err)
	for _, k := range kinds {
		if k.kind == kind {
			return k.message
		}
	}
	return ""
}

// IsKnown reports whether err belongs to the failure taxonomy.
func IsKnown(err error) bool {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return true
		}
	}
	return false
}
