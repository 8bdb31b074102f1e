package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ddtips/dashboard/internal/model"
	"github.com/ddtips/dashboard/internal/picks"
	"github.com/ddtips/dashboard/internal/report"
	"github.com/ddtips/dashboard/internal/store"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (n *fakeNotifier) Send(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, text)
	return nil
}

func seed(t *testing.T, ms *store.MemoryStore, id, date string, outcome model.Outcome) {
	t.Helper()
	err := ms.CreateBet(context.Background(), &model.Bet{
		ID: id, Date: date, Outcome: outcome,
		BackOdds: d(2), BackStake: d(50),
		Sport: "NOGOMET", Tipster: "DAVID", Sportsbook: "PINNACLE",
		SessionTiming: model.TimingPrematch, CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

// Wednesday 2026-03-11 08:00 in Ljubljana.
func testNow(t *testing.T) (time.Time, *time.Location) {
	loc, err := time.LoadLocation("Europe/Ljubljana")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	return time.Date(2026, 3, 11, 8, 0, 0, 0, loc), loc
}

func TestRunOnce_Daily(t *testing.T) {
	now, loc := testNow(t)
	ms := store.NewMemoryStore()
	seed(t, ms, "y1", "2026-03-10", model.OutcomeWin)
	seed(t, ms, "y2", "2026-03-10", model.OutcomeLoss)
	seed(t, ms, "old", "2026-03-01", model.OutcomeWin)

	n := &fakeNotifier{}
	s := New(ms, n, loc)

	rep, sent, err := s.RunOnce(context.Background(), report.KindDaily, now)
	if err != nil || !sent {
		t.Fatalf("expected report to be sent, got sent=%v err=%v", sent, err)
	}
	if rep.From != "2026-03-10" || rep.Summary.TotalBets != 2 {
		t.Errorf("unexpected report %+v", rep)
	}
	if len(n.sent) != 1 || !strings.Contains(n.sent[0], "ANALIZA VČERAJ (10.3)") {
		t.Errorf("unexpected messages %q", n.sent)
	}
	// +50 on the win, -50 on the loss
	if !strings.Contains(n.sent[0], "+0.00€") {
		t.Errorf("expected break-even profit line, got %q", n.sent[0])
	}
}

func TestRunOnce_EmptyDailyIsSkipped(t *testing.T) {
	now, loc := testNow(t)
	n := &fakeNotifier{}
	s := New(store.NewMemoryStore(), n, loc)

	rep, sent, err := s.RunOnce(context.Background(), report.KindDaily, now)
	if err != nil || sent {
		t.Fatalf("expected skip, got sent=%v err=%v", sent, err)
	}
	if !rep.Empty || len(n.sent) != 0 {
		t.Errorf("expected no message, got %q", n.sent)
	}
}

func TestRunOnce_WeeklyAndMonthlyAlwaysSend(t *testing.T) {
	now, loc := testNow(t)
	ms := store.NewMemoryStore()
	seed(t, ms, "w1", "2026-03-04", model.OutcomeWin) // last week (Mon 2 - Sun 8 March)
	seed(t, ms, "m1", "2026-02-14", model.OutcomeWin) // last month

	n := &fakeNotifier{}
	s := New(ms, n, loc)

	rep, sent, err := s.RunOnce(context.Background(), report.KindWeekly, now)
	if err != nil || !sent {
		t.Fatalf("weekly: sent=%v err=%v", sent, err)
	}
	if rep.From != "2026-03-02" || rep.To != "2026-03-08" || rep.Summary.TotalBets != 1 {
		t.Errorf("unexpected weekly report %+v", rep)
	}

	rep, sent, err = s.RunOnce(context.Background(), report.KindMonthly, now)
	if err != nil || !sent {
		t.Fatalf("monthly: sent=%v err=%v", sent, err)
	}
	if rep.From != "2026-02-01" || rep.To != "2026-02-28" || rep.Summary.TotalBets != 1 {
		t.Errorf("unexpected monthly report %+v", rep)
	}
	if len(n.sent) != 2 {
		t.Errorf("expected two messages, got %d", len(n.sent))
	}
}

func TestRunOnce_NotifierFailure(t *testing.T) {
	now, loc := testNow(t)
	ms := store.NewMemoryStore()
	seed(t, ms, "y1", "2026-03-10", model.OutcomeWin)

	boom := errors.New("telegram down")
	s := New(ms, &fakeNotifier{err: boom}, loc)

	_, sent, err := s.RunOnce(context.Background(), report.KindDaily, now)
	if sent || !errors.Is(err, boom) {
		t.Errorf("expected wrapped notifier error, got sent=%v err=%v", sent, err)
	}
}

func TestSchedule_InvalidSpec(t *testing.T) {
	s := New(store.NewMemoryStore(), &fakeNotifier{}, time.UTC)
	if err := s.Schedule(report.KindDaily, "not a cron spec"); err == nil {
		t.Error("expected invalid spec to be rejected")
	}
	if err := s.Schedule(report.KindDaily, "0 8 * * *"); err != nil {
		t.Errorf("expected valid spec, got %v", err)
	}
	s.Start()
	<-s.Stop().Done()
}

func TestRunValueBot(t *testing.T) {
	now, loc := testNow(t)
	ms := store.NewMemoryStore()
	over, odds, under := 0.6, 2.0, 0.4
	for i, date := range []string{"2026-03-12T20:45:00", "2026-03-20T20:45:00"} {
		id := int64(i + 1)
		err := ms.UpsertPrediction(context.Background(), &model.Prediction{
			ID: id, MatchID: &id,
			POver25: &over, OverOdds: &odds, PUnder25: &under, UnderOdds: &odds,
			Match: model.Match{MatchDate: date, HomeTeam: "Maribor", AwayTeam: "Koper", Status: "SCHEDULED"},
		})
		if err != nil {
			t.Fatalf("seed prediction: %v", err)
		}
	}

	n := &fakeNotifier{}
	s := New(ms, n, loc)
	res, err := s.RunValueBot(context.Background(), picks.DefaultBotParams(), now)
	if err != nil {
		t.Fatalf("RunValueBot: %v", err)
	}
	if res.From != "2026-03-11" || res.To != "2026-03-14" || res.Count != 1 {
		t.Errorf("unexpected result %+v", res)
	}
	if len(n.sent) != 1 || !strings.Contains(n.sent[0], "1. Maribor vs Koper (12.03)") {
		t.Errorf("unexpected messages %q", n.sent)
	}

	// No qualifying match still produces a message.
	n.sent = nil
	res, err = s.RunValueBot(context.Background(), picks.BotParams{Days: 3, MinEdgePct: 50, Limit: 8}, now)
	if err != nil || res.Count != 0 {
		t.Fatalf("expected empty run, got %+v err=%v", res, err)
	}
	if len(n.sent) != 1 || !strings.Contains(n.sent[0], "No value matches") {
		t.Errorf("unexpected messages %q", n.sent)
	}

	n.err = errors.New("telegram down")
	if _, err := s.RunValueBot(context.Background(), picks.DefaultBotParams(), now); err == nil {
		t.Error("expected notifier failure to surface")
	}
}

func TestScheduleValueBot_InvalidSpec(t *testing.T) {
	s := New(store.NewMemoryStore(), &fakeNotifier{}, time.UTC)
	if err := s.ScheduleValueBot("whenever", picks.DefaultBotParams()); err == nil {
		t.Error("expected invalid spec to be rejected")
	}
	if err := s.ScheduleValueBot("0 7 * * *", picks.DefaultBotParams()); err != nil {
		t.Errorf("expected valid spec, got %v", err)
	}
}
