package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ddtips/dashboard/internal/analytics"
	"github.com/ddtips/dashboard/internal/exposure"
	"github.com/ddtips/dashboard/internal/metrics"
	"github.com/ddtips/dashboard/internal/model"
	"github.com/ddtips/dashboard/internal/settlement"
	"github.com/ddtips/dashboard/internal/store"
)

// --- Request/Response types ---

// CreateBetRequest is the JSON body for POST /bets.
type CreateBetRequest struct {
	Date          string          `json:"date" validate:"required,betdate"`
	Outcome       string          `json:"outcome"` // empty → OPEN
	BackOdds      decimal.Decimal `json:"back_odds" validate:"gte=0"`
	BackStake     decimal.Decimal `json:"back_stake" validate:"gte=0"`
	LayOdds       decimal.Decimal `json:"lay_odds" validate:"gte=0"`
	LayLiability  decimal.Decimal `json:"lay_liability" validate:"gte=0"`
	Commission    decimal.Decimal `json:"commission" validate:"gte=0"`
	Event         string          `json:"event" validate:"max=200"`
	Selection     string          `json:"selection" validate:"max=200"`
	Sport         string          `json:"sport" validate:"required,max=64"`
	Tipster       string          `json:"tipster" validate:"required,max=64"`
	Sportsbook    string          `json:"sportsbook" validate:"required,max=64"`
	SessionTiming string          `json:"session_timing" validate:"required,oneof=PREMATCH LIVE"`
	PositionMode  string          `json:"position_mode" validate:"omitempty,oneof=BET TRADING"`
}

// UpdateOutcomeRequest is the JSON body for PATCH /bets/{betID}/outcome.
type UpdateOutcomeRequest struct {
	Outcome string `json:"outcome"`
}

// BetView is a stored bet with its derived figures.
type BetView struct {
	model.Bet
	Computed settlement.Result `json:"computed"`
}

func viewOf(b model.Bet) BetView {
	return BetView{Bet: b, Computed: settlement.Evaluate(b)}
}

func viewsOf(bets []model.Bet) []BetView {
	out := make([]BetView, 0, len(bets))
	for _, b := range bets {
		out = append(out, viewOf(b))
	}
	return out
}

// --- HTTP Handlers ---

// ListBets handles GET /api/v1/bets
func (s *Service) ListBets(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	bets, err := s.store.ListBets(r.Context(), store.BetQuery{
		Filter: f,
		Limit:  queryInt(r, "limit", maxListLimit, maxListLimit),
	})
	if err != nil {
		slog.Error("list bets failed", "error", err)
		writeError(w, "failed to list bets", http.StatusInternalServerError)
		return
	}

	writeJSON(w, viewsOf(bets), http.StatusOK)
}

// OpenBets handles GET /api/v1/bets/open
func (s *Service) OpenBets(w http.ResponseWriter, r *http.Request) {
	bets, err := s.store.ListBets(r.Context(), store.BetQuery{
		Filter: analytics.Filter{Outcome: model.OutcomeOpen},
	})
	if err != nil {
		slog.Error("list open bets failed", "error", err)
		writeError(w, "failed to list open bets", http.StatusInternalServerError)
		return
	}

	writeJSON(w, viewsOf(bets), http.StatusOK)
}

// CreateBet handles POST /api/v1/bets
// Validates the body, checks open risk limits for OPEN bets and stores it.
func (s *Service) CreateBet(w http.ResponseWriter, r *http.Request) {
	var req CreateBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.SessionTiming = strings.ToUpper(req.SessionTiming)
	req.PositionMode = strings.ToUpper(req.PositionMode)

	if err := s.validate.Struct(req); err != nil {
		writeError(w, "validation error: "+err.Error(), http.StatusBadRequest)
		return
	}

	outcome := model.OutcomeOpen
	if req.Outcome != "" {
		o, ok := model.ParseOutcome(req.Outcome)
		if !ok {
			writeError(w, "unknown outcome: "+req.Outcome, http.StatusBadRequest)
			return
		}
		outcome = o
	}

	bet := model.Bet{
		ID:            uuid.New().String(),
		Date:          req.Date,
		Outcome:       outcome,
		BackOdds:      req.BackOdds,
		BackStake:     req.BackStake,
		LayOdds:       req.LayOdds,
		LayLiability:  req.LayLiability,
		Commission:    req.Commission,
		Event:         req.Event,
		Selection:     req.Selection,
		Sport:         req.Sport,
		Tipster:       req.Tipster,
		Sportsbook:    req.Sportsbook,
		SessionTiming: model.SessionTiming(req.SessionTiming),
		PositionMode:  model.PositionMode(req.PositionMode),
		CreatedAt:     s.now().UTC(),
	}
	if !bet.HasBack() && !bet.HasLay() {
		writeError(w, "a bet needs a back leg (odds > 1, stake > 0) or a lay leg (odds > 1, liability > 0)", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	// Serialize creation so concurrent bets cannot both pass the limit check.
	s.mu.Lock()
	defer s.mu.Unlock()

	// --- Exposure check ---
	if bet.Outcome == model.OutcomeOpen && s.limiter.Enabled() {
		open, err := s.store.ListBets(ctx, store.BetQuery{Filter: analytics.Filter{Outcome: model.OutcomeOpen}})
		if err != nil {
			writeError(w, "failed to check exposure limits", http.StatusInternalServerError)
			return
		}

		if err := s.limiter.Check(bet.Sportsbook, settlement.Risk(bet), analytics.OpenRiskByBook(open)); err != nil {
			limit := "total"
			if errors.Is(err, exposure.ErrBookLimitExceeded) {
				limit = "sportsbook"
			}
			metrics.ExposureRejections.WithLabelValues(limit).Inc()
			slog.Warn("bet rejected by exposure limit",
				"sportsbook", bet.Sportsbook,
				"risk", settlement.Risk(bet).String(),
				"limit", limit,
			)
			writeError(w, err.Error(), http.StatusConflict)
			return
		}
	}

	if err := s.store.CreateBet(ctx, &bet); err != nil {
		slog.Error("create bet failed", "error", err)
		writeError(w, "failed to record bet", http.StatusInternalServerError)
		return
	}

	metrics.BetsCreated.WithLabelValues(analytics.NormalizeBook(bet.Sportsbook)).Inc()
	slog.Info("bet created",
		"bet_id", bet.ID,
		"date", bet.Date,
		"sportsbook", bet.Sportsbook,
		"tipster", bet.Tipster,
		"outcome", string(bet.Outcome),
		"risk", settlement.Risk(bet).String(),
	)

	s.broadcast("bet_created", bet.ID, &bet)
	writeJSON(w, viewOf(bet), http.StatusCreated)
}

// GetBet handles GET /api/v1/bets/{betID}
func (s *Service) GetBet(w http.ResponseWriter, r *http.Request) {
	betID := chi.URLParam(r, "betID")

	bet, err := s.store.GetBet(r.Context(), betID)
	if err != nil {
		writeStoreError(w, "bet", err)
		return
	}

	writeJSON(w, viewOf(*bet), http.StatusOK)
}

// UpdateOutcome handles PATCH /api/v1/bets/{betID}/outcome
func (s *Service) UpdateOutcome(w http.ResponseWriter, r *http.Request) {
	betID := chi.URLParam(r, "betID")

	var req UpdateOutcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	outcome, ok := model.ParseOutcome(req.Outcome)
	if !ok {
		writeError(w, "unknown outcome: "+req.Outcome, http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if err := s.store.UpdateOutcome(ctx, betID, outcome); err != nil {
		writeStoreError(w, "bet", err)
		return
	}
	bet, err := s.store.GetBet(ctx, betID)
	if err != nil {
		writeStoreError(w, "bet", err)
		return
	}

	metrics.Settlements.WithLabelValues(string(outcome)).Inc()
	slog.Info("bet outcome updated",
		"bet_id", betID,
		"outcome", string(outcome),
		"profit", settlement.Profit(*bet).String(),
	)

	s.broadcast("bet_updated", betID, bet)
	writeJSON(w, viewOf(*bet), http.StatusOK)
}

// DeleteBet handles DELETE /api/v1/bets/{betID}
func (s *Service) DeleteBet(w http.ResponseWriter, r *http.Request) {
	betID := chi.URLParam(r, "betID")

	if err := s.store.DeleteBet(r.Context(), betID); err != nil {
		writeStoreError(w, "bet", err)
		return
	}

	slog.Info("bet deleted", "bet_id", betID)
	s.broadcast("bet_deleted", betID, nil)
	w.WriteHeader(http.StatusNoContent)
}

// writeStoreError maps store.ErrNotFound to 404 and anything else to 500.
func writeStoreError(w http.ResponseWriter, kind string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, kind+" not found", http.StatusNotFound)
		return
	}
	slog.Error(kind+" store operation failed", "error", err)
	writeError(w, "internal error", http.StatusInternalServerError)
}
