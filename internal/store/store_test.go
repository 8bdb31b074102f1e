package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ddtips/dashboard/internal/analytics"
	"github.com/ddtips/dashboard/internal/model"
	"github.com/ddtips/dashboard/internal/store"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func seedBet(t *testing.T, st store.Store, id, date, book string, outcome model.Outcome, created time.Time) {
	t.Helper()
	b := &model.Bet{
		ID: id, Date: date, Outcome: outcome,
		BackOdds: d(2.15), BackStake: d(40), Commission: d(0.5),
		Sport: "NOGOMET", Tipster: "DAVID", Sportsbook: book,
		SessionTiming: model.TimingPrematch, CreatedAt: created,
	}
	if err := st.CreateBet(context.Background(), b); err != nil {
		t.Fatalf("failed to seed bet %s: %v", id, err)
	}
}

// exerciseStore runs the behaviour every Store implementation must share.
func exerciseStore(t *testing.T, st store.Store) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	seedBet(t, st, "b1", "2026-03-01", "PINNACLE", model.OutcomeWin, base)
	seedBet(t, st, "b2", "2026-03-02", "Bet at Home", model.OutcomeOpen, base.Add(time.Hour))
	seedBet(t, st, "b3", "2026-03-02", "BET365", model.OutcomeLoss, base.Add(2*time.Hour))
	seedBet(t, st, "b4", "2026-03-05", "PINNACLE", model.OutcomeVoid, base.Add(3*time.Hour))

	t.Run("get round trip", func(t *testing.T) {
		b, err := st.GetBet(ctx, "b1")
		if err != nil {
			t.Fatalf("GetBet: %v", err)
		}
		if !b.BackOdds.Equal(d(2.15)) || !b.BackStake.Equal(d(40)) || !b.Commission.Equal(d(0.5)) {
			t.Errorf("decimal fields not preserved: %+v", b)
		}
		if b.Outcome != model.OutcomeWin || b.Sportsbook != "PINNACLE" || b.SessionTiming != model.TimingPrematch {
			t.Errorf("text fields not preserved: %+v", b)
		}
	})

	t.Run("get missing", func(t *testing.T) {
		if _, err := st.GetBet(ctx, "nope"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("list ordering", func(t *testing.T) {
		bets, err := st.ListBets(ctx, store.BetQuery{})
		if err != nil {
			t.Fatalf("ListBets: %v", err)
		}
		want := []string{"b4", "b3", "b2", "b1"}
		if len(bets) != len(want) {
			t.Fatalf("expected %d bets, got %d", len(want), len(bets))
		}
		for i, id := range want {
			if bets[i].ID != id {
				t.Errorf("position %d: expected %s, got %s", i, id, bets[i].ID)
			}
		}
	})

	t.Run("list filters", func(t *testing.T) {
		bets, _ := st.ListBets(ctx, store.BetQuery{Filter: analytics.Filter{From: "2026-03-02", To: "2026-03-02"}})
		if len(bets) != 2 {
			t.Errorf("date range: expected 2, got %d", len(bets))
		}
		bets, _ = st.ListBets(ctx, store.BetQuery{Filter: analytics.Filter{Sportsbook: "bet-at-home"}})
		if len(bets) != 1 || bets[0].ID != "b2" {
			t.Errorf("sportsbook: unexpected %+v", bets)
		}
		bets, _ = st.ListBets(ctx, store.BetQuery{Filter: analytics.Filter{Outcome: model.OutcomeOpen}})
		if len(bets) != 1 {
			t.Errorf("outcome: expected 1, got %d", len(bets))
		}
		bets, _ = st.ListBets(ctx, store.BetQuery{Limit: 2})
		if len(bets) != 2 {
			t.Errorf("limit: expected 2, got %d", len(bets))
		}
	})

	t.Run("update outcome", func(t *testing.T) {
		if err := st.UpdateOutcome(ctx, "b2", model.OutcomeLayWin); err != nil {
			t.Fatalf("UpdateOutcome: %v", err)
		}
		b, _ := st.GetBet(ctx, "b2")
		if b.Outcome != model.OutcomeLayWin {
			t.Errorf("expected LAY WIN, got %s", b.Outcome)
		}
		if err := st.UpdateOutcome(ctx, "nope", model.OutcomeWin); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := st.DeleteBet(ctx, "b4"); err != nil {
			t.Fatalf("DeleteBet: %v", err)
		}
		if _, err := st.GetBet(ctx, "b4"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected deleted bet to be gone, got %v", err)
		}
		if err := st.DeleteBet(ctx, "b4"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound on second delete, got %v", err)
		}
	})

	t.Run("predictions", func(t *testing.T) {
		f := func(v float64) *float64 { return &v }
		for i := int64(1); i <= 3; i++ {
			matchID := 100 + i
			goals := int(i)
			p := &model.Prediction{
				ID: i, MatchID: &matchID,
				POver25: f(0.6), OverOdds: f(2.1),
				Match: model.Match{
					MatchDate: "2026-03-10", HomeTeam: "Olimpija", AwayTeam: "Maribor",
					Status: "FINISHED", HomeGoals: &goals, AwayGoals: &goals,
				},
			}
			if err := st.UpsertPrediction(ctx, p); err != nil {
				t.Fatalf("UpsertPrediction: %v", err)
			}
		}
		preds, err := st.ListPredictions(ctx, 2)
		if err != nil {
			t.Fatalf("ListPredictions: %v", err)
		}
		if len(preds) != 2 || preds[0].ID != 3 {
			t.Fatalf("expected newest two predictions, got %+v", preds)
		}
		if preds[0].PUnder25 != nil || preds[0].POver25 == nil || *preds[0].POver25 != 0.6 {
			t.Errorf("nullable floats not preserved: %+v", preds[0])
		}
		if preds[0].Match.HomeGoals == nil || *preds[0].Match.HomeGoals != 3 {
			t.Errorf("match goals not preserved: %+v", preds[0].Match)
		}
	})

	t.Run("profiles", func(t *testing.T) {
		for i, email := range []string{"a@example.com", "b@example.com"} {
			p := &model.Profile{
				ID: email, Email: email, Approved: i == 0,
				CreatedAt: base.Add(time.Duration(i) * time.Minute),
			}
			if err := st.UpsertProfile(ctx, p); err != nil {
				t.Fatalf("UpsertProfile: %v", err)
			}
		}
		ps, _ := st.ListProfiles(ctx)
		if len(ps) != 2 || ps[0].Approved {
			t.Errorf("expected pending profile first, got %+v", ps)
		}
		if err := st.SetApproval(ctx, "b@example.com", true); err != nil {
			t.Fatalf("SetApproval: %v", err)
		}
		if err := st.DeleteProfile(ctx, "a@example.com"); err != nil {
			t.Fatalf("DeleteProfile: %v", err)
		}
		ps, _ = st.ListProfiles(ctx)
		if len(ps) != 1 || !ps[0].Approved {
			t.Errorf("unexpected profiles after update: %+v", ps)
		}
		if err := st.SetApproval(ctx, "nope", true); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, store.NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	st, err := store.OpenSQLite(filepath.Join(t.TempDir(), "ddtips.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer st.Close()

	exerciseStore(t, st)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ms := store.NewMemoryStore()
	seedBet(t, ms, "b1", "2026-03-01", "SHARP", model.OutcomeOpen, time.Now())

	b, _ := ms.GetBet(context.Background(), "b1")
	b.Outcome = model.OutcomeWin

	again, _ := ms.GetBet(context.Background(), "b1")
	if again.Outcome != model.OutcomeOpen {
		t.Error("mutating a returned bet must not change the store")
	}

	if err := ms.CreateBet(context.Background(), &model.Bet{ID: "b1"}); err == nil {
		t.Error("expected duplicate id to be rejected")
	}
}
