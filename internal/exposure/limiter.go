// Package exposure caps how much open risk may sit at each sportsbook.
//
// A book's open risk is the sum of risk over its OPEN bets. A new bet is
// accepted only while the book stays within its capital allocation times
// Fraction and the whole portfolio stays within total capital times the same
// Fraction.
package exposure

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/ddtips/dashboard/internal/analytics"
)

var (
	// ErrBookLimitExceeded is returned when a bet would push one
	// sportsbook's open risk beyond its share of the capital table.
	ErrBookLimitExceeded = errors.New("exposure: sportsbook open risk limit exceeded")

	// ErrTotalLimitExceeded is returned when a bet would push the open risk
	// across all sportsbooks beyond the share of total capital.
	ErrTotalLimitExceeded = errors.New("exposure: total open risk limit exceeded")
)

// Limiter enforces open-risk limits against a capital table.
type Limiter struct {
	// Capital is the starting allocation per sportsbook.
	Capital analytics.Capital

	// Fraction of capital that may be at risk at once. Zero disables the
	// limiter.
	Fraction decimal.Decimal
}

// NewLimiter creates a limiter over capital. Negative fractions are treated
// as zero.
func NewLimiter(capital analytics.Capital, fraction decimal.Decimal) *Limiter {
	if fraction.IsNegative() {
		fraction = decimal.Zero
	}
	return &Limiter{Capital: capital, Fraction: fraction}
}

// Enabled reports whether Check can ever reject a bet.
func (l *Limiter) Enabled() bool {
	return l != nil && l.Fraction.IsPositive()
}

// Check validates whether adding risk at book respects the limits.
//
// openRisk maps normalized sportsbook names (analytics.NormalizeBook) to
// their current open risk, as returned by analytics.OpenRiskByBook. Books
// missing from the capital table are only checked against the total.
func (l *Limiter) Check(book string, risk decimal.Decimal, openRisk map[string]decimal.Decimal) error {
	if !l.Enabled() {
		return nil
	}

	// 1. Per-book limit.
	key := analytics.NormalizeBook(book)
	newBookRisk := openRisk[key].Add(risk)
	if start, ok := l.Capital.For(book); ok {
		if newBookRisk.GreaterThan(start.Mul(l.Fraction)) {
			return ErrBookLimitExceeded
		}
	}

	// 2. Portfolio limit.
	total := newBookRisk
	for k, r := range openRisk {
		if k == key {
			continue // already counted in newBookRisk
		}
		total = total.Add(r)
	}
	if total.GreaterThan(l.Capital.Total().Mul(l.Fraction)) {
		return ErrTotalLimitExceeded
	}

	return nil
}
