// Package passthrough finds money that arrived and left again shortly after,
// so the pair can be excluded from spend analytics.
package passthrough

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-ledger/internal/models"
)

// Config bounds what counts as a pass-through.
type Config struct {
	// TimeWindow is how long after the credit the debit may occur.
	TimeWindow time.Duration
	// AmountTolerance is the allowed fractional difference, e.g. 0.2 for ±20%.
	AmountTolerance decimal.Decimal
	// MinimumAmount ignores small movements on both sides.
	MinimumAmount decimal.Decimal
}

// DefaultConfig returns a 24 hour window, ±20% and a minimum of 1000.
func DefaultConfig() Config {
	return Config{
		TimeWindow:      24 * time.Hour,
		AmountTolerance: decimal.RequireFromString("0.2"),
		MinimumAmount:   decimal.NewFromInt(1000),
	}
}

func (c Config) Validate() error {
	if c.TimeWindow <= 0 {
		return errors.New("time window must be positive")
	}
	if c.AmountTolerance.IsNegative() || c.AmountTolerance.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return errors.New("amount tolerance must be in [0, 1)")
	}
	if c.MinimumAmount.IsNegative() {
		return errors.New("minimum amount must not be negative")
	}
	return nil
}

// FirstFitByTime pairs each credit, in date order, with the earliest unused
// debit that follows it within the window and lies within the tolerance.
//
// This is greedy first-fit and not a minimum-cost bipartite matching: an
// early credit can take a debit that a later credit needed, leaving that
// credit unpaired even though a full pairing existed. Transactions with equal
// dates keep their input order, which decides ties.
//
// The result is advisory. Nothing is flagged until the caller confirms.
func FirstFitByTime(txns []models.StoredTransaction, cfg Config) []models.PassthroughPair {
	sorted := make([]models.StoredTransaction, len(txns))
	copy(sorted, txns)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	var credits, debits []models.StoredTransaction
	for _, t := range sorted {
		if t.PassThrough || t.Amount.LessThan(cfg.MinimumAmount) {
			continue
		}
		switch t.Type {
		case models.Credit:
			credits = append(credits, t)
		case models.Debit:
			debits = append(debits, t)
		}
	}

	one := decimal.NewFromInt(1)
	used := make([]bool, len(debits))
	var pairs []models.PassthroughPair

	for _, c := range credits {
		lo := c.Amount.Mul(one.Sub(cfg.AmountTolerance))
		hi := c.Amount.Mul(one.Add(cfg.AmountTolerance))
		end := c.Date.Add(cfg.TimeWindow)

		for j, d := range debits {
			if used[j] || !d.Date.After(c.Date) {
				continue
			}
			if d.Date.After(end) {
				break
			}
			if d.Amount.LessThan(lo) || d.Amount.GreaterThan(hi) {
				continue
			}
			used[j] = true
			pairs = append(pairs, models.PassthroughPair{Credit: c, Debit: d})
			break
		}
	}
	return pairs
}
