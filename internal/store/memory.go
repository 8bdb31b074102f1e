package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ddtips/dashboard/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu          sync.RWMutex
	bets        map[string]*model.Bet
	predictions map[int64]*model.Prediction
	profiles    map[string]*model.Profile
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bets:        make(map[string]*model.Bet),
		predictions: make(map[int64]*model.Prediction),
		profiles:    make(map[string]*model.Profile),
	}
}

func (s *MemoryStore) CreateBet(_ context.Context, b *model.Bet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bets[b.ID]; exists {
		return fmt.Errorf("bet %s already exists", b.ID)
	}

	// Store a copy to avoid external mutation.
	copy := *b
	s.bets[b.ID] = &copy
	return nil
}

func (s *MemoryStore) GetBet(_ context.Context, id string) (*model.Bet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bets[id]
	if !ok {
		return nil, fmt.Errorf("bet %s: %w", id, ErrNotFound)
	}
	copy := *b
	return &copy, nil
}

func (s *MemoryStore) ListBets(_ context.Context, q BetQuery) ([]model.Bet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bets := make([]model.Bet, 0, len(s.bets))
	for _, b := range s.bets {
		bets = append(bets, *b)
	}
	return finish(bets, q), nil
}

func (s *MemoryStore) UpdateOutcome(_ context.Context, id string, outcome model.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bets[id]
	if !ok {
		return fmt.Errorf("bet %s: %w", id, ErrNotFound)
	}
	b.Outcome = outcome
	return nil
}

func (s *MemoryStore) DeleteBet(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bets[id]; !ok {
		return fmt.Errorf("bet %s: %w", id, ErrNotFound)
	}
	delete(s.bets, id)
	return nil
}

func (s *MemoryStore) UpsertPrediction(_ context.Context, p *model.Prediction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *p
	s.predictions[p.ID] = &copy
	return nil
}

func (s *MemoryStore) ListPredictions(_ context.Context, limit int) ([]model.Prediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Prediction, 0, len(s.predictions))
	for _, p := range s.predictions {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) UpsertProfile(_ context.Context, p *model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *p
	s.profiles[p.ID] = &copy
	return nil
}

func (s *MemoryStore) ListProfiles(_ context.Context) ([]model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, *p)
	}
	sortProfiles(out)
	return out, nil
}

func (s *MemoryStore) SetApproval(_ context.Context, id string, approved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	p.Approved = approved
	return nil
}

func (s *MemoryStore) DeleteProfile(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[id]; !ok {
		return fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	delete(s.profiles, id)
	return nil
}

// sortProfiles puts unapproved profiles first, then oldest first.
func sortProfiles(ps []model.Profile) {
	sort.SliceStable(ps, func(i, j int) bool {
		if ps[i].Approved != ps[j].Approved {
			return !ps[i].Approved
		}
		return ps[i].CreatedAt.Before(ps[j].CreatedAt)
	})
}
