// Package report renders bet summaries as Telegram HTML messages for the
// daily, weekly and monthly notifications.
//
// Amounts are formatted from decimals with a leading "+" for non-negative
// values; negative values keep their "-" inside the number.
package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ddtips/dashboard/internal/analytics"
	"github.com/ddtips/dashboard/internal/model"
)

// Kind names a report cadence.
type Kind string

const (
	KindDaily   Kind = "daily"
	KindWeekly  Kind = "weekly"
	KindMonthly Kind = "monthly"
)

// ErrUnknownKind is returned by ParseKind.
var ErrUnknownKind = errors.New("report: unknown report kind")

// ParseKind validates a report kind name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(s)); k {
	case KindDaily, KindWeekly, KindMonthly:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// PeriodFor returns the period a report of this kind covers when run at now.
func (k Kind) PeriodFor(now time.Time) analytics.Period {
	switch k {
	case KindWeekly:
		return analytics.LastWeek(now)
	case KindMonthly:
		return analytics.LastMonth(now)
	default:
		return analytics.Yesterday(now)
	}
}

// Report is a rendered message plus the statistics it was built from.
type Report struct {
	Kind    Kind              `json:"kind"`
	From    string            `json:"from"`
	To      string            `json:"to"`
	Text    string            `json:"text"`
	Empty   bool              `json:"empty"`
	Summary analytics.Summary `json:"summary"`
}

// Build renders the report of the given kind over bets that already fall
// inside period. Daily reports on an empty day are marked Empty and have no
// text; weekly and monthly reports always produce a message.
func Build(kind Kind, period analytics.Period, bets []model.Bet) Report {
	r := Report{
		Kind:    kind,
		From:    period.From(),
		To:      period.To(),
		Empty:   len(bets) == 0,
		Summary: analytics.Summarize(bets, decimal.Zero),
	}
	switch kind {
	case KindWeekly:
		r.Text = Weekly(period, bets)
	case KindMonthly:
		r.Text = Monthly(period, bets)
	default:
		r.Text, _ = Daily(period, bets)
	}
	return r
}

const divider = "━━━━━━━━━━━━━━"

// Daily renders the one-day recap. It returns false when there were no bets.
func Daily(period analytics.Period, bets []model.Bet) (string, bool) {
	if len(bets) == 0 {
		return "", false
	}
	s := analytics.Summarize(bets, decimal.Zero)

	emoji := "✅"
	if s.TotalProfit.IsNegative() {
		emoji = "🔻"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>📊 ANALIZA VČERAJ (%s)</b>\n", shortDate(period.Start))
	fmt.Fprintf(&b, "💰 <b>Profit: %s€</b>\n", Signed(s.TotalProfit, 2))
	fmt.Fprintf(&b, "%s W: %d / L: %d (%d stav)", emoji, s.Wins, s.Losses, s.TotalBets)
	return b.String(), true
}

// Weekly renders the Monday-to-Sunday recap.
func Weekly(period analytics.Period, bets []model.Bet) string {
	label := fmt.Sprintf("%s. - %s.%d", shortDate(period.Start), shortDate(period.End), period.End.Year())

	var b strings.Builder
	b.WriteString("📅 <b>TEDENSKO POROČILO</b>\n")
	fmt.Fprintf(&b, "🗓️ <code>%s</code>\n\n", label)

	if len(bets) == 0 {
		b.WriteString("Brez stav v preteklem tednu.")
		return b.String()
	}

	s := analytics.Summarize(bets, decimal.Zero)
	roi := stakeROI(s)

	b.WriteString("📊 <b>STATISTIKA</b>\n")
	b.WriteString(divider + "\n")
	fmt.Fprintf(&b, "• Št. stav: <b>%d</b>\n", s.TotalBets)
	fmt.Fprintf(&b, "• Uspešnost: <b>%s%%</b>\n", Fixed(s.WinRate, 1))
	fmt.Fprintf(&b, "• Izid (W-L): <b>%d - %d</b>\n\n", s.Wins, s.Losses)

	b.WriteString("🌟 <b>NAJBOLJŠE</b>\n")
	b.WriteString(divider + "\n")
	if day, ok := analytics.Best(bets, analytics.ByDay); ok {
		fmt.Fprintf(&b, "• Dan: <b>%s.</b> (<code>%s€</code>)\n", dayLabel(day.Key), Signed(day.Profit, 1))
	}
	if tipster, ok := analytics.Best(bets, analytics.ByTipster); ok {
		fmt.Fprintf(&b, "• Tipster: <b>%s</b>\n", EscapeHTML(tipster.Key))
	}
	if sport, ok := analytics.Best(bets, analytics.BySport); ok {
		fmt.Fprintf(&b, "• Šport: <b>%s</b>\n", EscapeHTML(sport.Key))
	}
	b.WriteString("\n")

	b.WriteString("💰 <b>FINANCE</b>\n")
	b.WriteString(divider + "\n")
	fmt.Fprintf(&b, "• Skupni vložek: <code>%s €</code>\n", Fixed(s.TotalStake, 2))
	fmt.Fprintf(&b, "• Donos (ROI): <b>%s%%</b>\n\n", Signed(roi, 2))

	emoji := "✅"
	if s.TotalProfit.IsNegative() {
		emoji = "❌"
	}
	fmt.Fprintf(&b, "%s <b>PROFIT:</b> <code>%s €</code> %s\n", emoji, Signed(s.TotalProfit, 2), emoji)
	b.WriteString(divider)
	return b.String()
}

// Monthly renders the calendar-month recap.
func Monthly(period analytics.Period, bets []model.Bet) string {
	label := strings.ToUpper(fmt.Sprintf("%s %d", MonthName(period.Start.Month()), period.Start.Year()))

	if len(bets) == 0 {
		return fmt.Sprintf("📊 <b>MESEČNO POROČILO</b>\n🗓️ %s\n\n😴 V preteklem mesecu ni bilo nobenih stav.", label)
	}

	s := analytics.Summarize(bets, decimal.Zero)
	roi := stakeROI(s)

	var b strings.Builder
	b.WriteString("📊 <b>MESEČNO POROČILO</b>\n")
	fmt.Fprintf(&b, "🗓️ <b>%s</b>\n\n", label)

	b.WriteString("💰 <b>Finance:</b>\n")
	fmt.Fprintf(&b, "- Profit: %s <b>%s €</b>\n", trafficLight(s.TotalProfit), Signed(s.TotalProfit, 2))
	fmt.Fprintf(&b, "- Vložek: %s €\n", Fixed(s.TotalStake, 2))
	fmt.Fprintf(&b, "- ROI: %s <b>%s%%</b>\n\n", trafficLight(roi), Signed(roi, 1))

	b.WriteString("📈 <b>Statistika:</b>\n")
	fmt.Fprintf(&b, "- Skupaj stav: %d\n", s.TotalBets)
	fmt.Fprintf(&b, "- Dobljene: %d ✅\n", s.Wins)
	fmt.Fprintf(&b, "- Izgubljene: %d ❌\n", s.Losses)
	if s.VoidCount > 0 {
		fmt.Fprintf(&b, "- Void: %d ⚪\n", s.VoidCount)
	}
	if s.OpenCount > 0 {
		fmt.Fprintf(&b, "- V teku: %d ⏳\n", s.OpenCount)
	}
	fmt.Fprintf(&b, "- Win rate: %s%%", Fixed(s.WinRate, 1))

	if tipster, ok := analytics.Best(bets, analytics.ByTipster); ok {
		fmt.Fprintf(&b, "\n\n🏅 <b>Najboljši tipster:</b>\n• %s: %s €", EscapeHTML(tipster.Key), Signed(tipster.Profit, 2))
	}
	if sport, ok := analytics.Best(bets, analytics.BySport); ok {
		fmt.Fprintf(&b, "\n\n⚽ <b>Najboljši šport:</b>\n• %s: %s €", EscapeHTML(sport.Key), Signed(sport.Profit, 2))
	}

	b.WriteString("\n\n" + closingLine(s.TotalProfit))
	return b.String()
}

// stakeROI is profit over raw stake, the ROI the recap messages report.
func stakeROI(s analytics.Summary) decimal.Decimal {
	if !s.TotalStake.IsPositive() {
		return decimal.Zero
	}
	return s.TotalProfit.Div(s.TotalStake).Mul(decimal.NewFromInt(100))
}

func trafficLight(v decimal.Decimal) string {
	if v.IsNegative() {
		return "🔴"
	}
	return "🟢"
}

func closingLine(profit decimal.Decimal) string {
	switch {
	case profit.GreaterThanOrEqual(decimal.NewFromInt(500)):
		return "🔥🏆💰 IZJEMEN MESEC! 💰🏆🔥"
	case profit.GreaterThanOrEqual(decimal.NewFromInt(200)):
		return "🎉🥇 Odličen mesec! 🥇🎉"
	case !profit.IsNegative():
		return "✅ Pozitiven mesec! 👏"
	case profit.GreaterThanOrEqual(decimal.NewFromInt(-100)):
		return "💪 Naslednji mesec bo boljši!"
	default:
		return "😤 Težek mesec, gremo naprej! 💪"
	}
}

// dayLabel turns YYYY-MM-DD into D.M for the best-day line.
func dayLabel(day string) string {
	t, err := time.Parse(model.DateLayout, day)
	if err != nil {
		return day
	}
	return shortDate(t)
}
