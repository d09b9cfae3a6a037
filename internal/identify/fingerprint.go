package identify

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed fingerprints.toml
var defaultFingerprints []byte

// Fingerprint describes how to recognise one bank's statements.
type Fingerprint struct {
	Name string `toml:"name"`
	// Extractor is the registered parser name. Empty means recognised but
	// not supported.
	Extractor  string     `toml:"extractor"`
	TextRules  [][]string `toml:"text_rules"`
	TableRules [][]string `toml:"table_rules"`
	OCRRules   [][]string `toml:"ocr_rules"`
}

type fingerprintFile struct {
	Banks []Fingerprint `toml:"bank"`
}

// DefaultFingerprints returns the built-in bank list.
func DefaultFingerprints() []Fingerprint {
	banks, err := ParseFingerprints(defaultFingerprints)
	if err != nil {
		panic(fmt.Sprintf("embedded fingerprints are invalid: %v", err))
	}
	return banks
}

// LoadFingerprints reads a fingerprint file. An empty path returns the
// built-in list.
func LoadFingerprints(path string) ([]Fingerprint, error) {
	if path == "" {
		return DefaultFingerprints(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fingerprints: %w", err)
	}
	return ParseFingerprints(data)
}

// ParseFingerprints decodes and validates TOML fingerprints.
func ParseFingerprints(data []byte) ([]Fingerprint, error) {
	var f fingerprintFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fingerprints: %w", err)
	}
	if len(f.Banks) == 0 {
		return nil, errors.New("no banks configured")
	}

	seen := make(map[string]bool)
	for _, b := range f.Banks {
		if strings.TrimSpace(b.Name) == "" {
			return nil, errors.New("bank without a name")
		}
		if seen[b.Name] {
			return nil, fmt.Errorf("bank %q configured twice", b.Name)
		}
		seen[b.Name] = true

		for _, rules := range [][][]string{b.TextRules, b.TableRules, b.OCRRules} {
			for _, rule := range rules {
				if len(rule) == 0 {
					return nil, fmt.Errorf("bank %q has an empty rule", b.Name)
				}
				for _, s := range rule {
					if s == "" {
						return nil, fmt.Errorf("bank %q has an empty substring", b.Name)
					}
				}
			}
		}
	}
	return f.Banks, nil
}

// Supported reports whether a parser is named for the bank.
func (f Fingerprint) Supported() bool { return f.Extractor != "" }
