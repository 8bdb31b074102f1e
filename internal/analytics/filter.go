package analytics

import (
	"strings"

	"github.com/ddtips/dashboard/internal/model"
)

// Filter selects bets by date range and categorical dimensions. Zero-valued
// fields do not constrain. From and To are inclusive YYYY-MM-DD bounds.
type Filter struct {
	From          string              `json:"from,omitempty"`
	To            string              `json:"to,omitempty"`
	Sport         string              `json:"sport,omitempty"`
	Tipster       string              `json:"tipster,omitempty"`
	Sportsbook    string              `json:"sportsbook,omitempty"`
	SessionTiming model.SessionTiming `json:"session_timing,omitempty"`
	PositionMode  model.PositionMode  `json:"position_mode,omitempty"`
	Outcome       model.Outcome       `json:"outcome,omitempty"`
}

// Match reports whether a bet passes the filter. Sportsbooks are compared
// after NormalizeBook; other text dimensions ignore case.
func (f Filter) Match(b model.Bet) bool {
	day := b.Day()
	if f.From != "" && day < f.From {
		return false
	}
	if f.To != "" && day > f.To {
		return false
	}
	if f.Sport != "" && !strings.EqualFold(f.Sport, b.Sport) {
		return false
	}
	if f.Tipster != "" && !strings.EqualFold(f.Tipster, b.Tipster) {
		return false
	}
	if f.Sportsbook != "" && NormalizeBook(f.Sportsbook) != NormalizeBook(b.Sportsbook) {
		return false
	}
	if f.SessionTiming != "" && !strings.EqualFold(string(f.SessionTiming), string(b.SessionTiming)) {
		return false
	}
	if f.PositionMode != "" && !strings.EqualFold(string(f.PositionMode), string(b.Mode())) {
		return false
	}
	if f.Outcome != "" && f.Outcome != b.Outcome {
		return false
	}
	return true
}

// Apply returns the bets matching the filter in their original order.
func (f Filter) Apply(bets []model.Bet) []model.Bet {
	out := make([]model.Bet, 0, len(bets))
	for _, b := range bets {
		if f.Match(b) {
			out = append(out, b)
		}
	}
	return out
}
