// Package analytics reduces a snapshot of bets into portfolio statistics:
// headline summaries, grouped breakdowns, leaderboards, cumulative profit
// series and per-sportsbook balances.
//
// Every function is a pure reduction over an in-memory slice. Inputs are
// never mutated, so calls are idempotent and safe to run concurrently.
package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/ddtips/dashboard/internal/model"
	"github.com/ddtips/dashboard/internal/settlement"
)

var hundred = decimal.NewFromInt(100)

// Summary is the headline statistics block of a bet collection.
type Summary struct {
	TotalBets            int             `json:"total_bets"`
	SettledCount         int             `json:"settled_count"`
	Wins                 int             `json:"wins"`
	Losses               int             `json:"losses"`
	OpenCount            int             `json:"open_count"`
	VoidCount            int             `json:"void_count"`
	TotalProfit          decimal.Decimal `json:"total_profit"`
	TotalRisk            decimal.Decimal `json:"total_risk"`
	TotalStake           decimal.Decimal `json:"total_stake"`
	ROIPercent           decimal.Decimal `json:"roi_percent"`
	WinRate              decimal.Decimal `json:"win_rate"`
	AverageEffectiveOdds decimal.Decimal `json:"average_effective_odds"`
	StartingCapital      decimal.Decimal `json:"starting_capital"`
	Bankroll             decimal.Decimal `json:"bankroll"`
	CapitalGrowthPercent decimal.Decimal `json:"capital_growth_percent"`
}

// Summarize computes the headline statistics of bets. OPEN and VOID bets
// are counted separately and never contribute to profit, risk or win rate.
// The average effective odds mixes back-only prices with the implied prices
// of lay and hedge positions.
func Summarize(bets []model.Bet, startingCapital decimal.Decimal) Summary {
	s := Summary{
		TotalBets:       len(bets),
		StartingCapital: startingCapital,
	}

	oddsSum := decimal.Zero
	oddsCount := 0

	for _, b := range bets {
		switch {
		case b.Outcome == model.OutcomeVoid:
			s.VoidCount++
			continue
		case !b.Outcome.Settled():
			s.OpenCount++
			continue
		}

		s.SettledCount++
		if b.Outcome.IsWin() {
			s.Wins++
		}
		if b.Outcome.IsLoss() {
			s.Losses++
		}

		s.TotalProfit = s.TotalProfit.Add(settlement.Profit(b))
		s.TotalRisk = s.TotalRisk.Add(settlement.Risk(b))
		s.TotalStake = s.TotalStake.Add(settlement.Stake(b))

		if odds, ok := settlement.EffectiveOdds(b); ok {
			oddsSum = oddsSum.Add(odds)
			oddsCount++
		}
	}

	s.ROIPercent = percent(s.TotalProfit, s.TotalRisk)
	s.WinRate = percent(decimal.NewFromInt(int64(s.Wins)), decimal.NewFromInt(int64(s.SettledCount)))
	if oddsCount > 0 {
		s.AverageEffectiveOdds = oddsSum.Div(decimal.NewFromInt(int64(oddsCount)))
	}
	s.Bankroll = startingCapital.Add(s.TotalProfit)
	s.CapitalGrowthPercent = percent(s.TotalProfit, startingCapital)

	return s
}

// percent returns 100*num/den, or zero when den is not positive.
func percent(num, den decimal.Decimal) decimal.Decimal {
	if !den.IsPositive() {
		return decimal.Zero
	}
	return num.Mul(hundred).Div(den)
}
