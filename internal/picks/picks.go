// Package picks derives over/under 2.5 value picks from stored match
// predictions. Probabilities and odds here are model outputs, not money, so
// they stay float64.
package picks

import (
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ddtips/dashboard/internal/model"
)

// Side is the over/under 2.5 goals market side.
type Side string

const (
	Over  Side = "OVER"
	Under Side = "UNDER"
)

const statusFinished = "FINISHED"

// Params are the query parameters of the picks endpoints after clamping.
type Params struct {
	Days         int     `json:"days"`
	MinEdgePct   float64 `json:"minEdgePct"`
	Limit        int     `json:"limit"`
	HistoryLimit int     `json:"historyLimit"`
}

// DefaultParams matches an empty query string.
func DefaultParams() Params {
	return Params{Days: 3, MinEdgePct: 10, Limit: 12, HistoryLimit: 25}
}

// ParseParams reads days, minEdgePct, limit and historyLimit, falling back
// to the default for unparsable values and clamping into range otherwise.
func ParseParams(q url.Values) Params {
	def := DefaultParams()
	return Params{
		Days:         clampInt(q.Get("days"), def.Days, 0, 30),
		MinEdgePct:   clampFloat(q.Get("minEdgePct"), def.MinEdgePct, 10, 100),
		Limit:        clampInt(q.Get("limit"), def.Limit, 1, 100),
		HistoryLimit: clampInt(q.Get("historyLimit"), def.HistoryLimit, 5, 100),
	}
}

func clampFloat(raw string, fallback, lo, hi float64) float64 {
	n := fallback
	if raw != "" {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return fallback
		}
		n = v
	}
	return math.Min(hi, math.Max(lo, n))
}

func clampInt(raw string, fallback, lo, hi int) int {
	return int(math.Floor(clampFloat(raw, float64(fallback), float64(lo), float64(hi))))
}

// Pick is one prediction turned into a recommended side.
type Pick struct {
	MatchID            *int64   `json:"match_id"`
	MatchDate          string   `json:"match_date"`
	HomeTeam           string   `json:"home_team"`
	AwayTeam           string   `json:"away_team"`
	League             *string  `json:"league"`
	Side               Side     `json:"side"`
	EdgePct            float64  `json:"edge_pct"`
	ModelProbability   float64  `json:"model_probability"`
	ImpliedProbability *float64 `json:"implied_probability"`
	BookOdds           float64  `json:"book_odds"`
	AIOdds             *float64 `json:"ai_odds"`
	LambdaTotal        float64  `json:"lambda_total"`

	status    string
	homeGoals *int
	awayGoals *int
}

// SettledPick is a pick on a finished match.
type SettledPick struct {
	Pick
	TotalGoals  int     `json:"total_goals"`
	ActualSide  Side    `json:"actual_side"`
	IsHit       bool    `json:"is_hit"`
	ProfitUnits float64 `json:"profit_units"`
}

func impliedProbability(odds *float64) *float64 {
	if odds == nil || *odds <= 1 {
		return nil
	}
	p := 1 / *odds
	return &p
}

func valuePct(p, odds *float64) *float64 {
	implied := impliedProbability(odds)
	if p == nil || *p <= 0 || implied == nil {
		return nil
	}
	v := (*p / *implied - 1) * 100
	return &v
}

func edgePct(raw, p, odds *float64) *float64 {
	if raw != nil {
		v := *raw * 100
		return &v
	}
	return valuePct(p, odds)
}

// Build picks the side with the larger edge (OVER on ties) and rejects rows
// without a date or teams, without a usable edge, or below minEdgePct.
func Build(p model.Prediction, minEdgePct float64) (Pick, bool) {
	m := p.Match
	date := m.MatchDate
	if len(date) > 10 {
		date = date[:10]
	}
	if date == "" || m.HomeTeam == "" || m.AwayTeam == "" {
		return Pick{}, false
	}

	over := edgePct(p.EdgeOver, p.POver25, p.OverOdds)
	under := edgePct(p.EdgeUnder, p.PUnder25, p.UnderOdds)

	side, edge, prob, odds := Over, over, p.POver25, p.OverOdds
	if orInf(under) > orInf(over) {
		side, edge, prob, odds = Under, under, p.PUnder25, p.UnderOdds
	}
	if edge == nil || prob == nil || odds == nil || *edge < minEdgePct {
		return Pick{}, false
	}

	status := strings.ToUpper(m.Status)
	if status == "" {
		status = "SCHEDULED"
	}

	pick := Pick{
		MatchID:            p.MatchID,
		MatchDate:          date,
		HomeTeam:           m.HomeTeam,
		AwayTeam:           m.AwayTeam,
		Side:               side,
		EdgePct:            *edge,
		ModelProbability:   *prob,
		ImpliedProbability: impliedProbability(odds),
		BookOdds:           *odds,
		LambdaTotal:        deref(p.LambdaHome) + deref(p.LambdaAway),
		status:             status,
		homeGoals:          m.HomeGoals,
		awayGoals:          m.AwayGoals,
	}
	if m.League != "" {
		league := m.League
		pick.League = &league
	}
	if *prob > 0 {
		ai := 1 / *prob
		pick.AIOdds = &ai
	}
	return pick, true
}

func orInf(v *float64) float64 {
	if v == nil {
		return math.Inf(-1)
	}
	return *v
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// Settle grades a pick on a finished match. OVER hits with three or more
// goals. It reports false for unfinished matches, unknown scores and odds
// that cannot pay out.
func Settle(p Pick) (SettledPick, bool) {
	if p.status != statusFinished || p.homeGoals == nil || p.awayGoals == nil || p.BookOdds <= 1 {
		return SettledPick{}, false
	}
	total := *p.homeGoals + *p.awayGoals
	actual := Under
	if total >= 3 {
		actual = Over
	}
	hit := p.Side == actual
	units := -1.0
	if hit {
		units = p.BookOdds - 1
	}
	return SettledPick{Pick: p, TotalGoals: total, ActualSide: actual, IsHit: hit, ProfitUnits: units}, true
}

// Meta describes the window and limits a Result was built with.
type Meta struct {
	From         string  `json:"from"`
	To           string  `json:"to"`
	Days         int     `json:"days"`
	MinEdgePct   float64 `json:"minEdgePct"`
	Limit        int     `json:"limit"`
	HistoryLimit int     `json:"historyLimit"`
	Count        int     `json:"count"`
	Scanned      int     `json:"scanned"`
}

// Stats is the track record over every settled pick, not only the rows
// returned.
type Stats struct {
	ThresholdPct float64 `json:"thresholdPct"`
	SettledTotal int     `json:"settledTotal"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	HitRatePct   float64 `json:"hitRatePct"`
	AvgEdgePct   float64 `json:"avgEdgePct"`
	AvgOdds      float64 `json:"avgOdds"`
	ProfitUnits  float64 `json:"profitUnits"`
	ROIPct       float64 `json:"roiPct"`
}

// Result is the payload of the picks endpoints.
type Result struct {
	Meta        Meta          `json:"meta"`
	Stats       Stats         `json:"stats"`
	Rows        []Pick        `json:"rows"`
	SettledRows []SettledPick `json:"settledRows"`
}

// Derive builds the upcoming and settled pick lists. today is truncated to
// its calendar date in its own location.
func Derive(preds []model.Prediction, params Params, today time.Time) Result {
	from := today.Format(model.DateLayout)
	to := today.AddDate(0, 0, params.Days).Format(model.DateLayout)

	var all []Pick
	for _, p := range preds {
		if pick, ok := Build(p, params.MinEdgePct); ok {
			all = append(all, pick)
		}
	}

	rows := []Pick{}
	settled := []SettledPick{}
	for _, p := range all {
		if s, ok := Settle(p); ok {
			settled = append(settled, s)
			continue
		}
		if p.status != statusFinished && p.MatchDate >= from && p.MatchDate <= to {
			rows = append(rows, p)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].EdgePct != rows[j].EdgePct {
			return rows[i].EdgePct > rows[j].EdgePct
		}
		return rows[i].MatchDate < rows[j].MatchDate
	})
	if len(rows) > params.Limit {
		rows = rows[:params.Limit]
	}

	sort.SliceStable(settled, func(i, j int) bool {
		return settled[i].MatchDate > settled[j].MatchDate
	})
	stats := summarize(settled)
	stats.ThresholdPct = params.MinEdgePct
	if len(settled) > params.HistoryLimit {
		settled = settled[:params.HistoryLimit]
	}

	return Result{
		Meta: Meta{
			From:         from,
			To:           to,
			Days:         params.Days,
			MinEdgePct:   params.MinEdgePct,
			Limit:        params.Limit,
			HistoryLimit: params.HistoryLimit,
			Count:        len(rows),
			Scanned:      len(all),
		},
		Stats:       stats,
		Rows:        rows,
		SettledRows: settled,
	}
}

func summarize(settled []SettledPick) Stats {
	var s Stats
	var edgeSum, oddsSum float64
	for _, p := range settled {
		s.SettledTotal++
		if p.IsHit {
			s.Wins++
		}
		edgeSum += p.EdgePct
		oddsSum += p.BookOdds
		s.ProfitUnits += p.ProfitUnits
	}
	s.Losses = s.SettledTotal - s.Wins
	if s.SettledTotal > 0 {
		n := float64(s.SettledTotal)
		s.HitRatePct = float64(s.Wins) / n * 100
		s.AvgEdgePct = edgeSum / n
		s.AvgOdds = oddsSum / n
		s.ROIPct = s.ProfitUnits / n * 100
	}
	return s
}
