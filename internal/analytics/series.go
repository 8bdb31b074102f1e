package analytics

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ddtips/dashboard/internal/model"
	"github.com/ddtips/dashboard/internal/settlement"
)

// Granularity selects the bucket label of a cumulative series.
type Granularity string

const (
	Daily       Granularity = "day"         // YYYY-MM-DD
	DayOfMonth  Granularity = "dayOfMonth"  // DD
	Monthly     Granularity = "month"       // YYYY-MM
	MonthOfYear Granularity = "monthOfYear" // MM
)

// ErrUnknownGranularity is returned by ParseGranularity.
var ErrUnknownGranularity = errors.New("analytics: unknown granularity")

// ParseGranularity validates a granularity name; empty means Daily.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case "":
		return Daily, nil
	case Daily, DayOfMonth, Monthly, MonthOfYear:
		return Granularity(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownGranularity, s)
}

func (g Granularity) label(day string) string {
	switch g {
	case DayOfMonth:
		if len(day) >= 10 {
			return day[8:10]
		}
	case Monthly:
		if len(day) >= 7 {
			return day[:7]
		}
	case MonthOfYear:
		if len(day) >= 7 {
			return day[5:7]
		}
	}
	return day
}

// Point is one bucket of a cumulative profit series.
type Point struct {
	Bucket     string          `json:"bucket"`
	Profit     decimal.Decimal `json:"profit"`
	Cumulative decimal.Decimal `json:"cumulative"`
}

// Cumulative orders settled bets by date and returns one point per bucket
// label, in order of first appearance, with the running profit total after
// each bucket. Bets that share a label are folded into one point even when
// they are not adjacent, so dayOfMonth and monthOfYear series spanning
// several months or years still key each label once.
func Cumulative(bets []model.Bet, g Granularity) []Point {
	settled := make([]model.Bet, 0, len(bets))
	for _, b := range bets {
		if b.Outcome.Settled() {
			settled = append(settled, b)
		}
	}
	sort.SliceStable(settled, func(i, j int) bool {
		return settled[i].Day() < settled[j].Day()
	})

	points := []Point{}
	index := make(map[string]int)
	for _, b := range settled {
		label := g.label(b.Day())
		i, ok := index[label]
		if !ok {
			i = len(points)
			index[label] = i
			points = append(points, Point{Bucket: label, Profit: decimal.Zero})
		}
		points[i].Profit = points[i].Profit.Add(settlement.Profit(b))
	}

	running := decimal.Zero
	for i := range points {
		running = running.Add(points[i].Profit)
		points[i].Cumulative = running
	}
	return points
}
