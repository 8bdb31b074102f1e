package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ddtips/dashboard/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache. Writes go to the primary store and invalidate the cache; reads
// check Redis first then fall back to the primary.
//
// Bet lists are cached under a generation number that every bet write
// bumps, so one INCR invalidates all cached list variants at once.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Write-through (write to primary, invalidate cache) ---

func (s *CachedStore) CreateBet(ctx context.Context, b *model.Bet) error {
	if err := s.primary.CreateBet(ctx, b); err != nil {
		return err
	}
	s.cacheBet(ctx, b)
	s.bumpGeneration(ctx)
	return nil
}

func (s *CachedStore) UpdateOutcome(ctx context.Context, id string, outcome model.Outcome) error {
	if err := s.primary.UpdateOutcome(ctx, id, outcome); err != nil {
		return err
	}
	// Invalidate cache; next read will re-populate.
	s.rdb.Del(ctx, betKey(id))
	s.bumpGeneration(ctx)
	return nil
}

func (s *CachedStore) DeleteBet(ctx context.Context, id string) error {
	if err := s.primary.DeleteBet(ctx, id); err != nil {
		return err
	}
	s.rdb.Del(ctx, betKey(id))
	s.bumpGeneration(ctx)
	return nil
}

func (s *CachedStore) UpsertPrediction(ctx context.Context, p *model.Prediction) error {
	if err := s.primary.UpsertPrediction(ctx, p); err != nil {
		return err
	}
	s.rdb.Del(ctx, predictionsKey)
	return nil
}

// --- Read-through (check cache first) ---

func (s *CachedStore) GetBet(ctx context.Context, id string) (*model.Bet, error) {
	data, err := s.rdb.Get(ctx, betKey(id)).Bytes()
	if err == nil {
		var b model.Bet
		if json.Unmarshal(data, &b) == nil {
			return &b, nil
		}
	}

	// Cache miss: read from primary.
	b, err := s.primary.GetBet(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cacheBet(ctx, b)
	return b, nil
}

func (s *CachedStore) ListBets(ctx context.Context, q BetQuery) ([]model.Bet, error) {
	key := s.listKey(ctx, q)

	data, err := s.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var bets []model.Bet
		if json.Unmarshal(data, &bets) == nil {
			return bets, nil
		}
	}

	bets, err := s.primary.ListBets(ctx, q)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(bets); err == nil {
		s.rdb.Set(ctx, key, data, s.ttl)
	}
	return bets, nil
}

func (s *CachedStore) ListPredictions(ctx context.Context, limit int) ([]model.Prediction, error) {
	field := fmt.Sprintf("%d", limit)

	data, err := s.rdb.HGet(ctx, predictionsKey, field).Bytes()
	if err == nil {
		var preds []model.Prediction
		if json.Unmarshal(data, &preds) == nil {
			return preds, nil
		}
	}

	preds, err := s.primary.ListPredictions(ctx, limit)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(preds); err == nil {
		pipe := s.rdb.TxPipeline()
		pipe.HSet(ctx, predictionsKey, field, data)
		pipe.Expire(ctx, predictionsKey, s.ttl)
		pipe.Exec(ctx)
	}
	return preds, nil
}

// --- Passthrough (not cached) ---

func (s *CachedStore) UpsertProfile(ctx context.Context, p *model.Profile) error {
	return s.primary.UpsertProfile(ctx, p)
}

func (s *CachedStore) ListProfiles(ctx context.Context) ([]model.Profile, error) {
	return s.primary.ListProfiles(ctx)
}

func (s *CachedStore) SetApproval(ctx context.Context, id string, approved bool) error {
	return s.primary.SetApproval(ctx, id, approved)
}

func (s *CachedStore) DeleteProfile(ctx context.Context, id string) error {
	return s.primary.DeleteProfile(ctx, id)
}

// --- Cache helpers ---

func (s *CachedStore) cacheBet(ctx context.Context, b *model.Bet) {
	if data, err := json.Marshal(b); err == nil {
		s.rdb.Set(ctx, betKey(b.ID), data, s.ttl)
	}
}

func (s *CachedStore) bumpGeneration(ctx context.Context) {
	s.rdb.Incr(ctx, betsGenerationKey)
}

func (s *CachedStore) listKey(ctx context.Context, q BetQuery) string {
	gen, _ := s.rdb.Get(ctx, betsGenerationKey).Int64()
	spec, _ := json.Marshal(q)
	return fmt.Sprintf("bets:list:%d:%s", gen, spec)
}

const (
	betsGenerationKey = "bets:generation"
	predictionsKey    = "predictions"
)

func betKey(id string) string { return fmt.Sprintf("bet:%s", id) }
