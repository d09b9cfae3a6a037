package parser

import (
	"context"
	"fmt"
	"sort"

	"github.com/insightdelivered/statement-ledger/internal/extractor"
	"github.com/insightdelivered/statement-ledger/internal/identify"
	"github.com/insightdelivered/statement-ledger/internal/models"
)

// Parser defines the interface for bank statement parsers.
type Parser interface {
	// Parse reads the account number and the normalized transactions.
	Parse(ctx context.Context, doc extractor.Document) (*models.Statement, error)
	// BankName returns the human-readable bank name.
	BankName() string
}

// Options carries the collaborators some parsers need.
type Options struct {
	// OCR is used by the SBI sub-format selector. Nil skips that step.
	OCR extractor.OCR
	// Resolution for rendering pages before OCR, in dpi.
	Resolution int
}

type constructor func(Options) Parser

// registry maps a fingerprint's extractor name to its parser. Adding a bank
// means adding an entry here and a fingerprint.
var registry = map[string]constructor{
	"union":  func(Options) Parser { return NewUnion() },
	"sbi":    func(o Options) Parser { return NewSBI(o) },
	"baroda": func(Options) Parser { return NewBaroda() },
}

// New returns the parser for an identified bank. A bank that is recognised
// but has no registered parser yields models.ErrUnsupportedBank.
func New(fp identify.Fingerprint, opts Options) (Parser, error) {
	p, err := Lookup(fp.Extractor, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrUnsupportedBank, fp.Name)
	}
	return p, nil
}

// Lookup returns the parser registered under name.
func Lookup(name string, opts Options) (Parser, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: no parser named %q", models.ErrUnsupportedBank, name)
	}
	if opts.Resolution <= 0 {
		opts.Resolution = identify.DefaultResolution
	}
	return ctor(opts), nil
}

// Names lists the registered parser names.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
