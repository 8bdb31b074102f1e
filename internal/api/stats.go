package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/ddtips/dashboard/internal/analytics"
	"github.com/ddtips/dashboard/internal/model"
	"github.com/ddtips/dashboard/internal/store"
)

// filteredBets loads every bet matching the request's filter parameters.
// It writes the error response itself and reports false on failure.
func (s *Service) filteredBets(w http.ResponseWriter, r *http.Request) (analytics.Filter, []model.Bet, bool) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return f, nil, false
	}
	bets, err := s.store.ListBets(r.Context(), store.BetQuery{Filter: f})
	if err != nil {
		slog.Error("load bets failed", "error", err)
		writeError(w, "failed to load bets", http.StatusInternalServerError)
		return f, nil, false
	}
	return f, bets, true
}

// Summary handles GET /api/v1/stats/summary
// The starting capital is the whole table, or one book's allocation when
// the request filters by sportsbook.
func (s *Service) Summary(w http.ResponseWriter, r *http.Request) {
	f, bets, ok := s.filteredBets(w, r)
	if !ok {
		return
	}

	start := s.capital.Total()
	if f.Sportsbook != "" {
		start, _ = s.capital.For(f.Sportsbook)
	}

	writeJSON(w, analytics.Summarize(bets, start), http.StatusOK)
}

// Breakdown handles GET /api/v1/stats/breakdown?by=
func (s *Service) Breakdown(w http.ResponseWriter, r *http.Request) {
	key, err := analytics.ParseKey(r.URL.Query().Get("by"))
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	_, bets, ok := s.filteredBets(w, r)
	if !ok {
		return
	}

	writeJSON(w, analytics.GroupBy(bets, key), http.StatusOK)
}

// Leaderboard handles GET /api/v1/stats/leaderboard?by=&n=&highlight=
// With highlight=true only profitable groups are ranked.
func (s *Service) Leaderboard(w http.ResponseWriter, r *http.Request) {
	key, err := analytics.ParseKey(r.URL.Query().Get("by"))
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	highlight, _ := strconv.ParseBool(r.URL.Query().Get("highlight"))
	n := queryInt(r, "n", 5, 100)

	_, bets, ok := s.filteredBets(w, r)
	if !ok {
		return
	}

	writeJSON(w, analytics.Top(analytics.GroupBy(bets, key), n, highlight), http.StatusOK)
}

// Timeseries handles GET /api/v1/stats/timeseries?granularity=
// Without from/to, dayOfMonth covers the current month and monthOfYear the
// current year.
func (s *Service) Timeseries(w http.ResponseWriter, r *http.Request) {
	g, err := analytics.ParseGranularity(r.URL.Query().Get("granularity"))
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	f, bets, ok := s.filteredBets(w, r)
	if !ok {
		return
	}
	if f.From == "" && f.To == "" {
		bets = s.chartWindow(g).Apply(bets)
	}

	points := analytics.Cumulative(bets, g)
	if points == nil {
		points = []analytics.Point{}
	}
	writeJSON(w, points, http.StatusOK)
}

// chartWindow limits day-of-month charts to the current month and
// month-of-year charts to the current year. Other granularities are
// unbounded.
func (s *Service) chartWindow(g analytics.Granularity) analytics.Filter {
	today := s.today()
	switch g {
	case analytics.DayOfMonth:
		start := today.AddDate(0, 0, 1-today.Day())
		end := start.AddDate(0, 1, -1)
		return analytics.Filter{From: start.Format(model.DateLayout), To: end.Format(model.DateLayout)}
	case analytics.MonthOfYear:
		return analytics.Filter{From: today.Format("2006") + "-01-01", To: today.Format("2006") + "-12-31"}
	}
	return analytics.Filter{}
}

// BalancesResponse is the body of GET /stats/balances.
type BalancesResponse struct {
	Books        []analytics.Balance `json:"books"`
	TotalStart   decimal.Decimal     `json:"total_start"`
	TotalBalance decimal.Decimal     `json:"total_balance"`
}

// Balances handles GET /api/v1/stats/balances
func (s *Service) Balances(w http.ResponseWriter, r *http.Request) {
	bets, err := s.store.ListBets(r.Context(), store.BetQuery{})
	if err != nil {
		slog.Error("load bets failed", "error", err)
		writeError(w, "failed to load bets", http.StatusInternalServerError)
		return
	}

	books := analytics.BookBalances(bets, s.capital)
	total := decimal.Zero
	for _, b := range books {
		total = total.Add(b.Balance)
	}

	writeJSON(w, BalancesResponse{
		Books:        books,
		TotalStart:   s.capital.Total(),
		TotalBalance: total,
	}, http.StatusOK)
}
