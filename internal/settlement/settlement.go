// Package settlement computes the monetary result of a single bet: realized
// profit, capital at risk and the equivalent decimal odds of the position.
//
// Three position shapes are handled (back-only, lay-only and a back+lay
// hedge) across the outcome codes WIN, LOSS, BACK WIN, LAY WIN, OPEN and
// VOID. Every function here is pure and never fails: missing legs degrade to
// the "leg absent" branch and unknown outcome codes settle to zero.
//
// All monetary values use shopspring/decimal, never float64 for money.
package settlement

import (
	"github.com/shopspring/decimal"

	"github.com/ddtips/dashboard/internal/model"
)

// Shape is the leg composition of a bet.
type Shape int

const (
	ShapeNone Shape = iota
	ShapeBack
	ShapeLay
	ShapeHedge
)

func (s Shape) String() string {
	switch s {
	case ShapeBack:
		return "back"
	case ShapeLay:
		return "lay"
	case ShapeHedge:
		return "hedge"
	default:
		return "none"
	}
}

var one = decimal.NewFromInt(1)

// ShapeOf classifies a bet by which legs are present.
func ShapeOf(b model.Bet) Shape {
	back, lay := b.HasBack(), b.HasLay()
	switch {
	case back && lay:
		return ShapeHedge
	case back:
		return ShapeBack
	case lay:
		return ShapeLay
	default:
		return ShapeNone
	}
}

// LayStake derives the backer's stake matched by a lay:
// liability / (layOdds - 1), or zero when layOdds <= 1.
func LayStake(b model.Bet) decimal.Decimal {
	if !b.LayOdds.GreaterThan(one) {
		return decimal.Zero
	}
	return b.LayLiability.Div(b.LayOdds.Sub(one))
}

// GrossProfit returns the pre-commission profit of a bet.
func GrossProfit(b model.Bet) decimal.Decimal {
	if !b.Outcome.Settled() {
		return decimal.Zero
	}

	backWin := b.BackStake.Mul(b.BackOdds.Sub(one))

	switch ShapeOf(b) {
	case ShapeHedge:
		ifBackWins := backWin.Sub(b.LayLiability)
		ifLayWins := LayStake(b).Sub(b.BackStake)
		switch b.Outcome {
		case model.OutcomeBackWin:
			return ifBackWins
		case model.OutcomeLayWin:
			return ifLayWins
		case model.OutcomeWin:
			return decimal.Max(ifBackWins, ifLayWins)
		case model.OutcomeLoss:
			return decimal.Min(ifBackWins, ifLayWins)
		}

	case ShapeLay:
		switch b.Outcome {
		case model.OutcomeWin, model.OutcomeLayWin:
			return LayStake(b)
		case model.OutcomeLoss, model.OutcomeBackWin:
			return b.LayLiability.Neg()
		}

	case ShapeBack:
		switch b.Outcome {
		case model.OutcomeWin, model.OutcomeBackWin:
			return backWin
		case model.OutcomeLoss, model.OutcomeLayWin:
			return b.BackStake.Neg()
		}
	}

	return decimal.Zero
}

// Profit returns the realized profit of a bet. Commission is subtracted only
// when the gross result is positive, and it is not capped: a commission
// larger than the gross profit turns the result negative.
func Profit(b model.Bet) decimal.Decimal {
	gross := GrossProfit(b)
	if gross.IsPositive() {
		return gross.Sub(b.Commission)
	}
	return gross
}

// Risk returns the capital committed by a bet, the ROI denominator. For a
// hedge it is the larger of the two commitments.
func Risk(b model.Bet) decimal.Decimal {
	switch ShapeOf(b) {
	case ShapeBack:
		return b.BackStake
	case ShapeLay:
		return b.LayLiability
	case ShapeHedge:
		return decimal.Max(b.BackStake, b.LayLiability)
	default:
		return decimal.Zero
	}
}

// Stake is the raw stake figure used in report totals: the larger of the
// back stake and the lay liability, whether or not the legs are present.
func Stake(b model.Bet) decimal.Decimal {
	return decimal.Max(b.BackStake, b.LayLiability)
}

// EffectiveOdds expresses the position as a single decimal price. Back-only
// bets return their back odds; other shapes return 1 + profitOnWin/risk,
// where profitOnWin is the bet's profit had it settled as WIN. The second
// return value is false when the bet carries no risk.
func EffectiveOdds(b model.Bet) (decimal.Decimal, bool) {
	risk := Risk(b)
	if !risk.IsPositive() {
		return decimal.Zero, false
	}
	if ShapeOf(b) == ShapeBack {
		return b.BackOdds, true
	}

	won := b
	won.Outcome = model.OutcomeWin
	return one.Add(Profit(won).Div(risk)), true
}

// Result bundles the derived figures of one bet for API responses.
type Result struct {
	Shape         string           `json:"shape"`
	Mode          string           `json:"position_mode"`
	LayStake      decimal.Decimal  `json:"lay_stake"`
	Profit        decimal.Decimal  `json:"profit"`
	Risk          decimal.Decimal  `json:"risk"`
	EffectiveOdds *decimal.Decimal `json:"effective_odds"`
}

// Evaluate computes every derived figure of a bet.
func Evaluate(b model.Bet) Result {
	r := Result{
		Shape:    ShapeOf(b).String(),
		Mode:     string(b.Mode()),
		LayStake: LayStake(b),
		Profit:   Profit(b),
		Risk:     Risk(b),
	}
	if odds, ok := EffectiveOdds(b); ok {
		r.EffectiveOdds = &odds
	}
	return r
}
