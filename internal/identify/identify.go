// Package identify decides which bank issued a statement.
package identify

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudflare/ahocorasick"

	"github.com/insightdelivered/statement-ledger/internal/extractor"
	"github.com/insightdelivered/statement-ledger/internal/logger"
	"github.com/insightdelivered/statement-ledger/internal/models"
)

// Method records which strategy recognised the bank.
type Method string

const (
	MethodText  Method = "text"
	MethodTable Method = "table"
	MethodOCR   Method = "ocr"
	MethodFuzzy Method = "fuzzy"
)

// Defaults for the OCR and fuzzy fallbacks.
const (
	DefaultResolution     = 200
	DefaultHeaderFraction = 0.30
	DefaultThreshold      = 80
)

// fingerprintPages is how many leading pages carry the textual fingerprint.
const fingerprintPages = 2

// Options tunes the fallbacks. Zero values take the defaults.
type Options struct {
	Resolution     int
	HeaderFraction float64
	Threshold      int
	Fuzzy          FuzzyMatcher
}

// Identifier runs the strategies in order: text fingerprint, OCR substrings,
// fuzzy bank name. It holds only read-only state and is safe to share.
type Identifier struct {
	banks    []Fingerprint
	ocr      extractor.OCR
	fuzzy    FuzzyMatcher
	matcher  *ahocorasick.Matcher
	patterns map[string]int

	resolution int
	fraction   float64
	threshold  int
}

// New builds an Identifier. ocr may be nil, which disables both fallbacks.
func New(banks []Fingerprint, ocr extractor.OCR, opts Options) *Identifier {
	id := &Identifier{
		banks:      banks,
		ocr:        ocr,
		fuzzy:      opts.Fuzzy,
		patterns:   make(map[string]int),
		resolution: opts.Resolution,
		fraction:   opts.HeaderFraction,
		threshold:  opts.Threshold,
	}
	if id.fuzzy == nil {
		id.fuzzy = PartialRatio{}
	}
	if id.resolution <= 0 {
		id.resolution = DefaultResolution
	}
	if id.fraction <= 0 || id.fraction >= 1 {
		id.fraction = DefaultHeaderFraction
	}
	if id.threshold <= 0 {
		id.threshold = DefaultThreshold
	}

	var dict []string
	for _, b := range banks {
		for _, rules := range [][][]string{b.TextRules, b.TableRules, b.OCRRules} {
			for _, rule := range rules {
				for _, s := range rule {
					if _, ok := id.patterns[s]; !ok {
						id.patterns[s] = len(dict)
						dict = append(dict, s)
					}
				}
			}
		}
	}
	id.matcher = ahocorasick.NewStringMatcher(dict)
	return id
}

// Banks returns the configured fingerprints in match order.
func (id *Identifier) Banks() []Fingerprint { return id.banks }

// ByName finds a configured bank by name, ignoring case.
func (id *Identifier) ByName(name string) (Fingerprint, bool) {
	for _, b := range id.banks {
		if strings.EqualFold(b.Name, strings.TrimSpace(name)) {
			return b, true
		}
	}
	return Fingerprint{}, false
}

// Identify returns the issuing bank. Recognising a bank does not mean it is
// supported; see Fingerprint.Supported. models.ErrUnidentifiedBank is
// returned when every strategy fails.
func (id *Identifier) Identify(ctx context.Context, doc extractor.Document) (Fingerprint, Method, error) {
	log := logger.FromContext(ctx)

	text := strings.Join(extractor.PagesText(doc, 0, fingerprintPages), "\n")
	if b, ok := id.firstMatch(text, func(f Fingerprint) [][]string { return f.TextRules }); ok {
		return b, MethodText, nil
	}
	if b, ok := id.firstMatch(tablesText(doc), func(f Fingerprint) [][]string { return f.TableRules }); ok {
		return b, MethodTable, nil
	}

	if err := ctx.Err(); err != nil {
		return Fingerprint{}, "", err
	}

	// Rendering and OCR are the expensive part, so the text is read once
	// and shared by both fallbacks.
	ocrText := extractor.ReadLetterhead(ctx, doc, id.ocr, id.resolution, id.fraction)
	log.Debug().Int("chars", len(ocrText)).Msg("letterhead OCR finished")

	if b, ok := id.firstMatch(ocrText, func(f Fingerprint) [][]string { return f.OCRRules }); ok {
		return b, MethodOCR, nil
	}

	if strings.TrimSpace(ocrText) != "" {
		names := make([]string, len(id.banks))
		for i, b := range id.banks {
			names[i] = b.Name
		}
		label, score := id.fuzzy.Best(ocrText, names)
		log.Debug().Str("candidate", label).Int("score", score).Msg("fuzzy bank match")
		if score > id.threshold {
			if b, ok := id.ByName(label); ok {
				return b, MethodFuzzy, nil
			}
		}
	}

	return Fingerprint{}, "", fmt.Errorf("%w: no fingerprint, OCR or fuzzy match", models.ErrUnidentifiedBank)
}

// firstMatch walks banks in order and returns the first with a rule whose
// substrings all occur in text.
func (id *Identifier) firstMatch(text string, rulesOf func(Fingerprint) [][]string) (Fingerprint, bool) {
	if text == "" {
		return Fingerprint{}, false
	}
	hits := make(map[int]bool)
	for _, i := range id.matcher.MatchThreadSafe([]byte(text)) {
		hits[i] = true
	}
	if len(hits) == 0 {
		return Fingerprint{}, false
	}

	for _, b := range id.banks {
	rules:
		for _, rule := range rulesOf(b) {
			for _, s := range rule {
				if !hits[id.patterns[s]] {
					continue rules
				}
			}
			return b, true
		}
	}
	return Fingerprint{}, false
}

func tablesText(doc extractor.Document) string {
	var lines []string
	for i := 0; i < min(fingerprintPages, doc.NumPages()); i++ {
		table, err := doc.PageTable(i, nil)
		if err != nil {
			continue
		}
		for _, row := range table {
			lines = append(lines, strings.Join(row, " "))
		}
	}
	return strings.Join(lines, "\n")
}
