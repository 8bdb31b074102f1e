package picks

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ddtips/dashboard/internal/model"
	"github.com/ddtips/dashboard/internal/report"
)

// BotParams configure the value bot message.
type BotParams struct {
	Days       int
	MinEdgePct float64
	Limit      int
}

// DefaultBotParams: three days ahead, 10% edge, eight picks.
func DefaultBotParams() BotParams {
	return BotParams{Days: 3, MinEdgePct: 10, Limit: 8}
}

// BotResult is one value bot run. Text is the Telegram message.
type BotResult struct {
	From       string  `json:"from"`
	To         string  `json:"to"`
	MinEdgePct float64 `json:"min_edge_pct"`
	Limit      int     `json:"limit"`
	Count      int     `json:"count"`
	Picks      []Pick  `json:"picks"`
	Text       string  `json:"-"`
}

// Bot selects picks for the days from today through today+params.Days and
// renders the message.
func Bot(preds []model.Prediction, params BotParams, today time.Time) BotResult {
	from := today.Format(model.DateLayout)
	to := today.AddDate(0, 0, max(0, params.Days)).Format(model.DateLayout)
	picks := Upcoming(preds, from, to, params.MinEdgePct, params.Limit)
	return BotResult{
		From:       from,
		To:         to,
		MinEdgePct: params.MinEdgePct,
		Limit:      params.Limit,
		Count:      len(picks),
		Picks:      picks,
		Text:       BotMessage(picks, from, to, params.MinEdgePct, params.Limit),
	}
}

// Upcoming returns the strongest picks on unfinished matches dated within
// [from, to]. Picks are ordered by edge descending, then date, home team and
// away team, and cut to limit.
func Upcoming(preds []model.Prediction, from, to string, minEdgePct float64, limit int) []Pick {
	out := []Pick{}
	for _, p := range preds {
		pick, ok := Build(p, minEdgePct)
		if !ok || pick.status == statusFinished {
			continue
		}
		if pick.MatchDate < from || pick.MatchDate > to {
			continue
		}
		out = append(out, pick)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.EdgePct != b.EdgePct:
			return a.EdgePct > b.EdgePct
		case a.MatchDate != b.MatchDate:
			return a.MatchDate < b.MatchDate
		case a.HomeTeam != b.HomeTeam:
			return a.HomeTeam < b.HomeTeam
		}
		return a.AwayTeam < b.AwayTeam
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// BotMessage renders picks as a Telegram HTML message.
func BotMessage(picks []Pick, from, to string, minEdgePct float64, limit int) string {
	var b strings.Builder
	b.WriteString("<b>DD Value Bot</b>\n")
	fmt.Fprintf(&b, "Period: %s -&gt; %s\n", from, to)
	fmt.Fprintf(&b, "Min value edge: %.1f%%\n\n", minEdgePct)

	if len(picks) == 0 {
		b.WriteString("No value matches for the selected threshold.")
		return b.String()
	}

	for i, p := range picks {
		fmt.Fprintf(&b, "%d. %s vs %s (%s)", i+1, report.EscapeHTML(p.HomeTeam), report.EscapeHTML(p.AwayTeam), shortDay(p.MatchDate))
		if p.League != nil && *p.League != "" {
			fmt.Fprintf(&b, " [%s]", report.EscapeHTML(*p.League))
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "   %s 2.5 @ %.2f | AI kvota %.2f\n", p.Side, p.BookOdds, deref(p.AIOdds))
		fmt.Fprintf(&b, "   Edge %+.1f%% | P=%.1f%% | xG=%.2f\n\n", p.EdgePct, p.ModelProbability*100, p.LambdaTotal)
	}

	fmt.Fprintf(&b, "Total picks: %d/%d\n", len(picks), limit)
	b.WriteString("Betting is risky. Bet responsibly.")
	return b.String()
}

// shortDay turns YYYY-MM-DD into DD.MM, leaving anything else as is.
func shortDay(day string) string {
	t, err := time.Parse(model.DateLayout, day)
	if err != nil {
		return day
	}
	return t.Format("02.01")
}
