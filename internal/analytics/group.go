package analytics

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ddtips/dashboard/internal/model"
	"github.com/ddtips/dashboard/internal/settlement"
)

// Key is a grouping dimension.
type Key string

const (
	BySport         Key = "sport"
	ByTipster       Key = "tipster"
	BySportsbook    Key = "sportsbook"
	BySessionTiming Key = "sessionTiming"
	ByDay           Key = "day"
	ByPositionMode  Key = "positionMode"
)

// Unassigned labels bets whose grouping field is empty.
const Unassigned = "UNKNOWN"

// ErrUnknownKey is returned by ParseKey for an unsupported dimension.
var ErrUnknownKey = errors.New("analytics: unknown grouping key")

// ParseKey validates a grouping dimension name. Matching ignores case, and
// "timing" and "mode" are accepted as short forms.
func ParseKey(s string) (Key, error) {
	switch strings.ToLower(s) {
	case "sport":
		return BySport, nil
	case "tipster":
		return ByTipster, nil
	case "sportsbook", "book":
		return BySportsbook, nil
	case "sessiontiming", "timing":
		return BySessionTiming, nil
	case "day", "date":
		return ByDay, nil
	case "positionmode", "mode":
		return ByPositionMode, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKey, s)
}

// value extracts the grouping label of a bet.
func (k Key) value(b model.Bet) string {
	var v string
	switch k {
	case BySport:
		v = b.Sport
	case ByTipster:
		v = b.Tipster
	case BySportsbook:
		v = b.Sportsbook
	case BySessionTiming:
		v = string(b.SessionTiming)
	case ByDay:
		v = b.Day()
	case ByPositionMode:
		v = string(b.Mode())
	}
	if v == "" {
		return Unassigned
	}
	return v
}

// Group is the aggregate of one partition of settled bets.
type Group struct {
	Key        string          `json:"key"`
	Profit     decimal.Decimal `json:"profit"`
	Risk       decimal.Decimal `json:"risk"`
	Count      int             `json:"count"`
	Wins       int             `json:"wins"`
	Losses     int             `json:"losses"`
	WinRate    decimal.Decimal `json:"win_rate"`
	ROIPercent decimal.Decimal `json:"roi_percent"`
}

// GroupBy partitions settled bets by key and returns the groups sorted by
// descending profit. Groups with equal profit keep the order in which their
// key first appeared.
func GroupBy(bets []model.Bet, key Key) []Group {
	index := make(map[string]int)
	var groups []Group

	for _, b := range bets {
		if !b.Outcome.Settled() {
			continue
		}
		label := key.value(b)
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, Group{Key: label})
		}

		g := &groups[i]
		g.Count++
		g.Profit = g.Profit.Add(settlement.Profit(b))
		g.Risk = g.Risk.Add(settlement.Risk(b))
		if b.Outcome.IsWin() {
			g.Wins++
		}
		if b.Outcome.IsLoss() {
			g.Losses++
		}
	}

	for i := range groups {
		g := &groups[i]
		g.WinRate = percent(decimal.NewFromInt(int64(g.Wins)), decimal.NewFromInt(int64(g.Count)))
		g.ROIPercent = percent(g.Profit, g.Risk)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Profit.GreaterThan(groups[j].Profit)
	})

	if groups == nil {
		groups = []Group{}
	}
	return groups
}

// Top returns the first n groups of a sorted breakdown. In highlight mode
// groups with non-positive profit are dropped before counting.
func Top(groups []Group, n int, highlight bool) []Group {
	if n < 0 {
		n = 0
	}
	out := make([]Group, 0, n)
	for _, g := range groups {
		if len(out) >= n {
			break
		}
		if highlight && !g.Profit.IsPositive() {
			continue
		}
		out = append(out, g)
	}
	return out
}

// Best returns the most profitable group with a label, if any has positive
// profit. Bets without a value for key are never named best.
func Best(bets []model.Bet, key Key) (Group, bool) {
	for _, g := range GroupBy(bets, key) {
		if g.Key == Unassigned {
			continue
		}
		if g.Profit.IsPositive() {
			return g, true
		}
		break
	}
	return Group{}, false
}
