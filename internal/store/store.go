// Package store defines the persistence interface for the dashboard.
// Implementations include PostgreSQL (source of truth), SQLite (single-node
// deployments), Redis (read-through cache) and in-memory (for testing).
package store

import (
	"context"
	"errors"
	"sort"

	"github.com/ddtips/dashboard/internal/analytics"
	"github.com/ddtips/dashboard/internal/model"
)

// ErrNotFound is returned when a record with the requested ID does not exist.
var ErrNotFound = errors.New("store: not found")

// BetQuery selects bets. The filter's date range is pushed down to the
// backend where possible; the remaining dimensions are matched in Go so that
// every backend normalizes sportsbook names the same way. Limit <= 0 means
// no limit.
type BetQuery struct {
	Filter analytics.Filter
	Limit  int
}

// Store is the persistence interface. PostgreSQL is the source of truth;
// Redis provides a read-through cache layer.
type Store interface {
	// --- Bets ---

	// CreateBet persists a new bet. ID and CreatedAt must already be set.
	CreateBet(ctx context.Context, bet *model.Bet) error

	// GetBet retrieves a bet by its ID.
	GetBet(ctx context.Context, id string) (*model.Bet, error)

	// ListBets returns matching bets, newest date first.
	ListBets(ctx context.Context, q BetQuery) ([]model.Bet, error)

	// UpdateOutcome changes the settlement code of a bet.
	UpdateOutcome(ctx context.Context, id string, outcome model.Outcome) error

	// DeleteBet removes a bet.
	DeleteBet(ctx context.Context, id string) error

	// --- Predictions ---

	// UpsertPrediction inserts or replaces a prediction by ID.
	UpsertPrediction(ctx context.Context, p *model.Prediction) error

	// ListPredictions returns the most recent predictions, newest ID first.
	ListPredictions(ctx context.Context, limit int) ([]model.Prediction, error)

	// --- Profiles ---

	// UpsertProfile inserts or replaces a profile by ID.
	UpsertProfile(ctx context.Context, p *model.Profile) error

	// ListProfiles returns profiles awaiting approval first.
	ListProfiles(ctx context.Context) ([]model.Profile, error)

	// SetApproval grants or revokes dashboard access.
	SetApproval(ctx context.Context, id string, approved bool) error

	// DeleteProfile removes a profile.
	DeleteProfile(ctx context.Context, id string) error
}

// sortBets orders bets by date then creation time, newest first.
func sortBets(bets []model.Bet) {
	sort.SliceStable(bets, func(i, j int) bool {
		if bets[i].Date != bets[j].Date {
			return bets[i].Date > bets[j].Date
		}
		return bets[i].CreatedAt.After(bets[j].CreatedAt)
	})
}

// finish applies the in-Go part of a query to rows already narrowed by the
// backend.
func finish(bets []model.Bet, q BetQuery) []model.Bet {
	out := q.Filter.Apply(bets)
	sortBets(out)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}
