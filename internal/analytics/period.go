package analytics

import (
	"time"

	"github.com/ddtips/dashboard/internal/model"
)

// Period is an inclusive range of calendar days.
type Period struct {
	Start time.Time
	End   time.Time
}

// From is the first day as YYYY-MM-DD.
func (p Period) From() string { return p.Start.Format(model.DateLayout) }

// To is the last day as YYYY-MM-DD.
func (p Period) To() string { return p.End.Format(model.DateLayout) }

// Filter returns a date-range filter covering the period.
func (p Period) Filter() Filter { return Filter{From: p.From(), To: p.To()} }

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Yesterday is the day before now, in now's location.
func Yesterday(now time.Time) Period {
	day := midnight(now).AddDate(0, 0, -1)
	return Period{Start: day, End: day}
}

// LastWeek is Monday through Sunday of the week before now's week.
func LastWeek(now time.Time) Period {
	today := midnight(now)
	sinceMonday := (int(today.Weekday()) + 6) % 7
	monday := today.AddDate(0, 0, -sinceMonday-7)
	return Period{Start: monday, End: monday.AddDate(0, 0, 6)}
}

// LastMonth is the full calendar month before now's month.
func LastMonth(now time.Time) Period {
	y, m, _ := now.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, now.Location()).AddDate(0, -1, 0)
	return Period{Start: first, End: first.AddDate(0, 1, -1)}
}
