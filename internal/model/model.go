// Package model defines the core domain types shared across the dashboard.
// All monetary values use shopspring/decimal, never float64 for money.
package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date format used for Bet.Date.
const DateLayout = "2006-01-02"

// Outcome is the settlement code of a bet.
type Outcome string

const (
	OutcomeOpen    Outcome = "OPEN"
	OutcomeWin     Outcome = "WIN"
	OutcomeLoss    Outcome = "LOSS"
	OutcomeVoid    Outcome = "VOID"
	OutcomeBackWin Outcome = "BACK WIN"
	OutcomeLayWin  Outcome = "LAY WIN"
)

// ParseOutcome normalizes user input into an Outcome. Case is ignored and
// "BACK_WIN" / "LAY_WIN" are accepted as aliases. The second return value is
// false for codes outside the known vocabulary.
func ParseOutcome(s string) (Outcome, bool) {
	o := Outcome(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "_", " ")))
	switch o {
	case OutcomeOpen, OutcomeWin, OutcomeLoss, OutcomeVoid, OutcomeBackWin, OutcomeLayWin:
		return o, true
	}
	return o, false
}

// Settled reports whether the outcome contributes to profit and counts.
// OPEN, VOID and the empty code do not.
func (o Outcome) Settled() bool {
	return o != "" && o != OutcomeOpen && o != OutcomeVoid
}

// IsWin reports whether the outcome counts as a win.
func (o Outcome) IsWin() bool {
	return o == OutcomeWin || o == OutcomeBackWin || o == OutcomeLayWin
}

// IsLoss reports whether the outcome counts as a loss.
func (o Outcome) IsLoss() bool {
	return o == OutcomeLoss
}

// SessionTiming tells whether a bet was placed before or during the event.
type SessionTiming string

const (
	TimingPrematch SessionTiming = "PREMATCH"
	TimingLive     SessionTiming = "LIVE"
)

// PositionMode separates plain bets from back/lay trading positions.
type PositionMode string

const (
	ModeBet     PositionMode = "BET"
	ModeTrading PositionMode = "TRADING"
)

// Bet is one logged wager or trading position. Derived quantities (profit,
// risk, effective odds) are never stored on it; see package settlement.
type Bet struct {
	ID            string          `json:"id" db:"id"`
	Date          string          `json:"date" db:"date"` // YYYY-MM-DD, optionally followed by a time
	Outcome       Outcome         `json:"outcome" db:"outcome"`
	BackOdds      decimal.Decimal `json:"back_odds" db:"back_odds"`
	BackStake     decimal.Decimal `json:"back_stake" db:"back_stake"`
	LayOdds       decimal.Decimal `json:"lay_odds" db:"lay_odds"`
	LayLiability  decimal.Decimal `json:"lay_liability" db:"lay_liability"`
	Commission    decimal.Decimal `json:"commission" db:"commission"`
	Event         string          `json:"event" db:"event"`
	Selection     string          `json:"selection" db:"selection"`
	Sport         string          `json:"sport" db:"sport"`
	Tipster       string          `json:"tipster" db:"tipster"`
	Sportsbook    string          `json:"sportsbook" db:"sportsbook"`
	SessionTiming SessionTiming   `json:"session_timing" db:"session_timing"`
	PositionMode  PositionMode    `json:"position_mode,omitempty" db:"position_mode"` // explicit override only
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

var one = decimal.NewFromInt(1)

// HasBack reports whether the back leg is present: odds > 1 and stake > 0.
func (b Bet) HasBack() bool {
	return b.BackOdds.GreaterThan(one) && b.BackStake.IsPositive()
}

// HasLay reports whether the lay leg is present: odds > 1 and liability > 0.
func (b Bet) HasLay() bool {
	return b.LayOdds.GreaterThan(one) && b.LayLiability.IsPositive()
}

// Mode returns the stored position mode, or derives it from leg presence
// when none was stored.
func (b Bet) Mode() PositionMode {
	if b.PositionMode != "" {
		return b.PositionMode
	}
	if b.HasBack() && b.HasLay() {
		return ModeTrading
	}
	return ModeBet
}

// Day returns the calendar-date part of Date.
func (b Bet) Day() string {
	if len(b.Date) > len(DateLayout) {
		return b.Date[:len(DateLayout)]
	}
	return b.Date
}

// Profile is a registered dashboard user awaiting or holding access.
type Profile struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Approved  bool      `json:"approved" db:"approved"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
