package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/ddtips/dashboard/internal/analytics"
	"github.com/ddtips/dashboard/internal/api"
	"github.com/ddtips/dashboard/internal/exposure"
	"github.com/ddtips/dashboard/internal/model"
	"github.com/ddtips/dashboard/internal/picks"
	"github.com/ddtips/dashboard/internal/quote"
	"github.com/ddtips/dashboard/internal/report"
	"github.com/ddtips/dashboard/internal/store"
)

const adminEmail = "admin@ddtips.si"

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeNotifier) Send(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeNotifier) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

type fakeReporter struct {
	at   time.Time
	sent bool
	err  error
}

func (f *fakeReporter) Generate(_ context.Context, kind report.Kind, now time.Time) (report.Report, error) {
	f.at = now
	return report.Report{Kind: kind, From: "2026-05-09", To: "2026-05-09", Text: "report"}, f.err
}

func (f *fakeReporter) RunOnce(ctx context.Context, kind report.Kind, now time.Time) (report.Report, bool, error) {
	rep, err := f.Generate(ctx, kind, now)
	return rep, f.sent && err == nil, err
}

type fixedQuote struct{}

func (fixedQuote) Random(context.Context) quote.Quote {
	return quote.Quote{Q: "Patience.", A: "Anon"}
}

type testEnv struct {
	router   chi.Router
	store    *store.MemoryStore
	notifier *fakeNotifier
	reporter *fakeReporter
	hub      *api.WSHub
}

// newTestEnv wires a Service over an in-memory store with a 10% exposure
// limit on the default capital table.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store:    store.NewMemoryStore(),
		notifier: &fakeNotifier{},
		reporter: &fakeReporter{sent: true},
		hub:      api.NewWSHub([]string{"*"}),
	}
	now := time.Date(2026, 5, 10, 9, 30, 0, 0, time.UTC)
	svc := api.NewService(env.store, api.Options{
		Limiter:  exposure.NewLimiter(analytics.DefaultCapital(), d(0.1)),
		Hub:      env.hub,
		Reports:  env.reporter,
		Notifier: env.notifier,
		Quotes:   fixedQuote{},
		Now:      func() time.Time { return now },
	})

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		svc.Routes(r, api.AdminOnly(api.EmailAllowList([]string{adminEmail})))
	})
	env.router = r
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, email string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if email != "" {
		req.Header.Set(api.UserEmailHeader, email)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, w.Body.String())
	}
}

func backBet(date, book string, odds, stake float64, outcome string) map[string]interface{} {
	return map[string]interface{}{
		"date":           date,
		"outcome":        outcome,
		"back_odds":      odds,
		"back_stake":     stake,
		"sport":          "Football",
		"tipster":        "Ana",
		"sportsbook":     book,
		"session_timing": "prematch",
	}
}

func createBet(t *testing.T, env *testEnv, body interface{}) api.BetView {
	t.Helper()
	w := env.do(t, http.MethodPost, "/api/v1/bets", body, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var v api.BetView
	decode(t, w, &v)
	return v
}

func TestCreateBet_Valid(t *testing.T) {
	env := newTestEnv(t)

	v := createBet(t, env, backBet("2026-05-09", "Pinnacle", 2.0, 100, "win"))
	if v.ID == "" {
		t.Fatal("expected generated id")
	}
	if v.Outcome != model.OutcomeWin || v.SessionTiming != model.TimingPrematch {
		t.Errorf("unexpected normalization: outcome=%s timing=%s", v.Outcome, v.SessionTiming)
	}
	if !v.Computed.Profit.Equal(d(100)) || !v.Computed.Risk.Equal(d(100)) {
		t.Errorf("expected profit 100 and risk 100, got %s and %s", v.Computed.Profit, v.Computed.Risk)
	}

	stored, err := env.store.GetBet(context.Background(), v.ID)
	if err != nil {
		t.Fatalf("bet not stored: %v", err)
	}
	if stored.Sportsbook != "Pinnacle" {
		t.Errorf("unexpected sportsbook %q", stored.Sportsbook)
	}
}

func TestCreateBet_Invalid(t *testing.T) {
	env := newTestEnv(t)

	noLegs := backBet("2026-05-09", "Pinnacle", 1.0, 100, "")
	badDate := backBet("09.05.2026", "Pinnacle", 2.0, 100, "")
	badTiming := backBet("2026-05-09", "Pinnacle", 2.0, 100, "")
	badTiming["session_timing"] = "HALFTIME"
	badOutcome := backBet("2026-05-09", "Pinnacle", 2.0, 100, "PUSH")
	negative := backBet("2026-05-09", "Pinnacle", 2.0, -5, "")
	noBook := backBet("2026-05-09", "", 2.0, 100, "")

	tests := []struct {
		name string
		body interface{}
	}{
		{"malformed json", `{"date":`},
		{"no legs", noLegs},
		{"bad date", badDate},
		{"bad timing", badTiming},
		{"unknown outcome", badOutcome},
		{"negative stake", negative},
		{"missing sportsbook", noBook},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/v1/bets", tt.body, "")
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestCreateBet_ExposureLimit(t *testing.T) {
	env := newTestEnv(t)

	// SHARP holds 1500, so 10% allows 150 of open risk.
	createBet(t, env, backBet("2026-05-09", "Sharp", 2.0, 100, ""))

	w := env.do(t, http.MethodPost, "/api/v1/bets", backBet("2026-05-09", "sharp", 2.0, 60, ""), "")
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}

	// Settled bets carry no open risk and are always accepted.
	createBet(t, env, backBet("2026-05-09", "Sharp", 2.0, 500, "LOSS"))

	// The whole portfolio allows 850.
	createBet(t, env, backBet("2026-05-09", "Pinnacle", 2.0, 200, ""))
	createBet(t, env, backBet("2026-05-09", "Bet365", 2.0, 200, ""))
	createBet(t, env, backBet("2026-05-09", "Winamax", 2.0, 100, ""))
	createBet(t, env, backBet("2026-05-09", "Bet at Home", 2.0, 100, ""))
	w = env.do(t, http.MethodPost, "/api/v1/bets", backBet("2026-05-09", "Unlisted", 2.0, 200, ""), "")
	if w.Code != http.StatusConflict || !strings.Contains(w.Body.String(), "total") {
		t.Errorf("expected total limit rejection, got %d: %s", w.Code, w.Body.String())
	}
}

func TestUpdateOutcome(t *testing.T) {
	env := newTestEnv(t)
	v := createBet(t, env, backBet("2026-05-09", "Pinnacle", 2.5, 40, ""))

	w := env.do(t, http.MethodPatch, "/api/v1/bets/"+v.ID+"/outcome", map[string]string{"outcome": "loss"}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var updated api.BetView
	decode(t, w, &updated)
	if updated.Outcome != model.OutcomeLoss || !updated.Computed.Profit.Equal(d(-40)) {
		t.Errorf("expected LOSS at -40, got %s at %s", updated.Outcome, updated.Computed.Profit)
	}

	w = env.do(t, http.MethodPatch, "/api/v1/bets/"+v.ID+"/outcome", map[string]string{"outcome": "half"}, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown outcome, got %d", w.Code)
	}

	w = env.do(t, http.MethodPatch, "/api/v1/bets/missing/outcome", map[string]string{"outcome": "WIN"}, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestGetAndDeleteBet(t *testing.T) {
	env := newTestEnv(t)
	v := createBet(t, env, backBet("2026-05-09", "Pinnacle", 2.0, 10, ""))

	if w := env.do(t, http.MethodGet, "/api/v1/bets/"+v.ID, nil, ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w := env.do(t, http.MethodDelete, "/api/v1/bets/"+v.ID, nil, ""); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/api/v1/bets/"+v.ID, nil, ""); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", w.Code)
	}
	if w := env.do(t, http.MethodDelete, "/api/v1/bets/"+v.ID, nil, ""); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", w.Code)
	}
}

func TestListBets_Filters(t *testing.T) {
	env := newTestEnv(t)
	createBet(t, env, backBet("2026-05-01", "Pinnacle", 2.0, 10, "WIN"))
	createBet(t, env, backBet("2026-05-05", "Bet365", 2.0, 10, "LOSS"))
	createBet(t, env, backBet("2026-05-09", "Bet365", 2.0, 10, ""))

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"all", "", 3},
		{"date range", "?from=2026-05-02&to=2026-05-09", 2},
		{"sportsbook", "?sportsbook=BET365", 2},
		{"outcome", "?outcome=open", 1},
		{"limit", "?limit=1", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/api/v1/bets"+tt.query, nil, "")
			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}
			var views []api.BetView
			decode(t, w, &views)
			if len(views) != tt.want {
				t.Errorf("expected %d bets, got %d", tt.want, len(views))
			}
		})
	}

	if w := env.do(t, http.MethodGet, "/api/v1/bets?from=May", nil, ""); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad date, got %d", w.Code)
	}

	w := env.do(t, http.MethodGet, "/api/v1/bets/open", nil, "")
	var open []api.BetView
	decode(t, w, &open)
	if len(open) != 1 || open[0].Date != "2026-05-09" {
		t.Errorf("unexpected open bets %+v", open)
	}
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	createBet(t, env, backBet("2026-05-01", "Pinnacle", 2.0, 100, "WIN"))
	createBet(t, env, backBet("2026-05-02", "Bet365", 3.0, 50, "LOSS"))
	createBet(t, env, backBet("2026-06-01", "Bet365", 2.0, 20, ""))

	w := env.do(t, http.MethodGet, "/api/v1/stats/summary", nil, "")
	var sum analytics.Summary
	decode(t, w, &sum)
	if sum.TotalBets != 3 || sum.SettledCount != 2 || sum.OpenCount != 1 {
		t.Errorf("unexpected counts %+v", sum)
	}
	if !sum.TotalProfit.Equal(d(50)) || !sum.Bankroll.Equal(d(8550)) {
		t.Errorf("expected profit 50 and bankroll 8550, got %s and %s", sum.TotalProfit, sum.Bankroll)
	}

	w = env.do(t, http.MethodGet, "/api/v1/stats/summary?sportsbook=bet365", nil, "")
	decode(t, w, &sum)
	if !sum.StartingCapital.Equal(d(2000)) || !sum.Bankroll.Equal(d(1950)) {
		t.Errorf("expected per-book capital, got start %s bankroll %s", sum.StartingCapital, sum.Bankroll)
	}

	w = env.do(t, http.MethodGet, "/api/v1/stats/breakdown?by=sportsbook", nil, "")
	var groups []analytics.Group
	decode(t, w, &groups)
	if len(groups) != 2 || groups[0].Key != "Pinnacle" {
		t.Errorf("unexpected breakdown %+v", groups)
	}

	w = env.do(t, http.MethodGet, "/api/v1/stats/leaderboard?by=sportsbook&n=5&highlight=true", nil, "")
	decode(t, w, &groups)
	if len(groups) != 1 || groups[0].Key != "Pinnacle" {
		t.Errorf("expected only profitable books, got %+v", groups)
	}

	if w := env.do(t, http.MethodGet, "/api/v1/stats/breakdown?by=colour", nil, ""); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown key, got %d", w.Code)
	}

	w = env.do(t, http.MethodGet, "/api/v1/stats/timeseries?granularity=month", nil, "")
	var points []analytics.Point
	decode(t, w, &points)
	if len(points) == 0 || !points[len(points)-1].Cumulative.Equal(d(50)) {
		t.Errorf("expected cumulative 50 at the end, got %+v", points)
	}

	w = env.do(t, http.MethodGet, "/api/v1/stats/timeseries?from=2030-01-01", nil, "")
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("expected empty array, got %s", w.Body.String())
	}

	w = env.do(t, http.MethodGet, "/api/v1/stats/balances", nil, "")
	var bal api.BalancesResponse
	decode(t, w, &bal)
	if !bal.TotalStart.Equal(d(8500)) || !bal.TotalBalance.Equal(d(8550)) {
		t.Errorf("unexpected balances %+v", bal)
	}
}

func TestAdminOnly(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		email string
		want  int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"not an admin", "user@ddtips.si", http.StatusForbidden},
		{"admin", adminEmail, http.StatusOK},
		{"admin any case", "ADMIN@DDTips.si", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/api/v1/admin/profiles", nil, tt.email)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestReports(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/reports/weekly?at=2026-05-04", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if env.reporter.at.Format(model.DateLayout) != "2026-05-04" {
		t.Errorf("expected reference day to be passed through, got %s", env.reporter.at)
	}

	if w := env.do(t, http.MethodGet, "/api/v1/reports/yearly", nil, ""); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown kind, got %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/api/v1/reports/daily?at=yesterday", nil, ""); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad at, got %d", w.Code)
	}

	if w := env.do(t, http.MethodPost, "/api/v1/reports/daily/send", nil, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without identity, got %d", w.Code)
	}
	w = env.do(t, http.MethodPost, "/api/v1/reports/daily/send", nil, adminEmail)
	var resp api.SendReportResponse
	decode(t, w, &resp)
	if !resp.Sent || resp.Report.Kind != report.KindDaily {
		t.Errorf("unexpected send response %+v", resp)
	}
}

func TestNotify(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/notify", map[string]string{"message": "  <b>hi</b> "}, adminEmail)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if msgs := env.notifier.messages(); len(msgs) != 1 || msgs[0] != "<b>hi</b>" {
		t.Errorf("unexpected messages %q", msgs)
	}

	if w := env.do(t, http.MethodPost, "/api/v1/notify", map[string]string{"message": " "}, adminEmail); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for blank message, got %d", w.Code)
	}

	env.notifier.err = context.DeadlineExceeded
	if w := env.do(t, http.MethodPost, "/api/v1/notify", map[string]string{"message": "x"}, adminEmail); w.Code != http.StatusBadGateway {
		t.Errorf("expected 502 when delivery fails, got %d", w.Code)
	}
}

func TestPredictions(t *testing.T) {
	env := newTestEnv(t)

	body := `[
		{"id": 1, "match_id": 11, "p_over_25": 0.6, "over_odds": 2.0, "p_under_25": 0.4, "under_odds": 2.0,
		 "match": {"match_date": "2026-05-11T18:00:00", "home_team": "Olimpija", "away_team": "Maribor", "status": "SCHEDULED"}},
		{"id": 2, "match_id": 12, "p_over_25": 0.7, "over_odds": 2.0, "p_under_25": 0.3, "under_odds": 2.0,
		 "match": {"match_date": "2026-05-08", "home_team": "Celje", "away_team": "Koper", "status": "FINISHED", "home_goals": 2, "away_goals": 2}}
	]`
	if w := env.do(t, http.MethodPost, "/api/v1/admin/predictions", body, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	w := env.do(t, http.MethodPost, "/api/v1/admin/predictions", body, adminEmail)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if w := env.do(t, http.MethodPost, "/api/v1/admin/predictions", `[{"id": 3}]`, adminEmail); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without match_id, got %d", w.Code)
	}

	for _, path := range []string{"/api/v1/predictions", "/api/v1/ddbot1?days=5"} {
		w := env.do(t, http.MethodGet, path, nil, "")
		var res picks.Result
		decode(t, w, &res)
		if res.Meta.From != "2026-05-10" {
			t.Errorf("%s: expected window from today, got %s", path, res.Meta.From)
		}
		if len(res.Rows) != 1 || res.Rows[0].Side != picks.Over {
			t.Errorf("%s: unexpected rows %+v", path, res.Rows)
		}
		if len(res.SettledRows) != 1 || !res.SettledRows[0].IsHit {
			t.Errorf("%s: unexpected settled rows %+v", path, res.SettledRows)
		}
	}
}

func TestQuote(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/quote", nil, "")
	var q quote.Quote
	decode(t, w, &q)
	if q.Q != "Patience." || q.A != "Anon" {
		t.Errorf("unexpected quote %+v", q)
	}
}

func TestProfiles(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/profiles", map[string]string{"email": " Nina@Example.com "}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var p model.Profile
	decode(t, w, &p)
	if p.Email != "nina@example.com" || p.Approved {
		t.Errorf("unexpected profile %+v", p)
	}
	if msgs := env.notifier.messages(); len(msgs) != 1 || !strings.Contains(msgs[0], "nina@example.com") {
		t.Errorf("expected admin notification, got %q", msgs)
	}

	w = env.do(t, http.MethodPost, "/api/v1/profiles", map[string]string{"email": "nina@example.com"}, "")
	var again model.Profile
	decode(t, w, &again)
	if w.Code != http.StatusOK || again.ID != p.ID {
		t.Errorf("expected existing profile, got %d %+v", w.Code, again)
	}

	if w := env.do(t, http.MethodPost, "/api/v1/profiles", map[string]string{"email": "not-an-email"}, ""); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}

	w = env.do(t, http.MethodPatch, "/api/v1/admin/profiles/"+p.ID, map[string]bool{"approved": true}, adminEmail)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	w = env.do(t, http.MethodGet, "/api/v1/admin/profiles", nil, adminEmail)
	var list []model.Profile
	decode(t, w, &list)
	if len(list) != 1 || !list[0].Approved {
		t.Errorf("expected approved profile, got %+v", list)
	}

	if w := env.do(t, http.MethodDelete, "/api/v1/admin/profiles/"+p.ID, nil, adminEmail); w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
	if w := env.do(t, http.MethodPatch, "/api/v1/admin/profiles/"+p.ID, map[string]bool{"approved": true}, adminEmail); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestWebSocketBroadcast(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go env.hub.Run(ctx)

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for env.hub.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	v := createBet(t, env, backBet("2026-05-09", "Pinnacle", 2.0, 10, ""))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg api.WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "bet_created" || msg.BetID != v.ID || msg.Bet == nil {
		t.Errorf("unexpected message %+v", msg)
	}
}

func TestTimeseries_ChartWindow(t *testing.T) {
	env := newTestEnv(t)
	createBet(t, env, backBet("2025-05-05", "Pinnacle", 2.0, 40, "WIN"))
	createBet(t, env, backBet("2026-04-05", "Pinnacle", 2.0, 20, "WIN"))
	createBet(t, env, backBet("2026-05-05", "Pinnacle", 2.0, 10, "WIN"))

	tests := []struct {
		name  string
		query string
		want  []analytics.Point
	}{
		{"day of month defaults to this month", "?granularity=dayOfMonth", []analytics.Point{
			{Bucket: "05", Profit: d(10), Cumulative: d(10)},
		}},
		{"explicit range folds repeated days", "?granularity=dayOfMonth&from=2026-01-01", []analytics.Point{
			{Bucket: "05", Profit: d(30), Cumulative: d(30)},
		}},
		{"month of year defaults to this year", "?granularity=monthOfYear", []analytics.Point{
			{Bucket: "04", Profit: d(20), Cumulative: d(20)},
			{Bucket: "05", Profit: d(10), Cumulative: d(30)},
		}},
		{"daily is unbounded", "?granularity=day", []analytics.Point{
			{Bucket: "2025-05-05", Profit: d(40), Cumulative: d(40)},
			{Bucket: "2026-04-05", Profit: d(20), Cumulative: d(60)},
			{Bucket: "2026-05-05", Profit: d(10), Cumulative: d(70)},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/api/v1/stats/timeseries"+tt.query, nil, "")
			var got []analytics.Point
			decode(t, w, &got)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d points, got %+v", len(tt.want), got)
			}
			for i, want := range tt.want {
				if got[i].Bucket != want.Bucket || !got[i].Profit.Equal(want.Profit) || !got[i].Cumulative.Equal(want.Cumulative) {
					t.Errorf("point %d: expected %+v, got %+v", i, want, got[i])
				}
			}
		})
	}
}

func TestProfiles_ConcurrentRegistration(t *testing.T) {
	env := newTestEnv(t)

	const n = 20
	var wg sync.WaitGroup
	codes := make(chan int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := env.do(t, http.MethodPost, "/api/v1/profiles", map[string]string{"email": "race@example.com"}, "")
			codes <- w.Code
		}()
	}
	wg.Wait()
	close(codes)

	created := 0
	for code := range codes {
		if code == http.StatusCreated {
			created++
		}
	}
	if created != 1 {
		t.Errorf("expected exactly one 201, got %d", created)
	}

	profiles, err := env.store.ListProfiles(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(profiles) != 1 {
		t.Errorf("expected one stored profile, got %d", len(profiles))
	}
	if msgs := env.notifier.messages(); len(msgs) != 1 {
		t.Errorf("expected one admin notification, got %d", len(msgs))
	}
}
