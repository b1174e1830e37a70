package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"clanhub/internal/clan/models"
	id "clanhub/pkg/domain"
	"clanhub/pkg/platform/sentinel"
)

// InMemory keeps clans in a map guarded by a RWMutex. It mirrors the
// Postgres store's semantics (store-assigned created_at, insertion-order
// tie breaks) so service and handler tests run without a database.
type InMemory struct {
	mu          sync.RWMutex
	clans       map[id.ClanID]*memoryRecord
	seq         int64
	lastCreated time.Time
	clock       func() time.Time
}

type memoryRecord struct {
	clan models.Clan
	seq  int64
}

// InMemoryOption configures an InMemory store.
type InMemoryOption func(*InMemory)

// WithClock overrides the timestamp source for created_at.
func WithClock(clock func() time.Time) InMemoryOption {
	return func(s *InMemory) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func NewInMemory(opts ...InMemoryOption) *InMemory {
	s := &InMemory{
		clans: make(map[id.ClanID]*memoryRecord),
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create inserts clan and sets its CreatedAt. created_at never moves
// backwards, even if the clock does.
func (s *InMemory) Create(_ context.Context, clan *models.Clan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.clans[clan.ID]; exists {
		return sentinel.ErrConflict
	}
	now := s.clock().UTC()
	if now.Before(s.lastCreated) {
		now = s.lastCreated
	}
	s.lastCreated = now
	s.seq++

	clan.CreatedAt = now
	s.clans[clan.ID] = &memoryRecord{clan: copyClan(*clan), seq: s.seq}
	return nil
}

func (s *InMemory) List(_ context.Context, q models.ListQuery) ([]*models.Clan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*memoryRecord, 0, len(s.clans))
	for _, rec := range s.clans {
		if q.Matches(&rec.clan) {
			matched = append(matched, rec)
		}
	}

	// Map iteration is random; seq restores natural (insertion) order.
	if q.SortBy.IsKnown() {
		sort.Slice(matched, func(i, j int) bool {
			a, b := matched[i], matched[j]
			if !a.clan.CreatedAt.Equal(b.clan.CreatedAt) {
				return a.clan.CreatedAt.Before(b.clan.CreatedAt)
			}
			return a.seq < b.seq
		})
	} else {
		sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })
	}

	out := make([]*models.Clan, 0, len(matched))
	for _, rec := range matched {
		c := copyClan(rec.clan)
		out = append(out, &c)
	}
	return out, nil
}

func (s *InMemory) FindByID(_ context.Context, clanID id.ClanID) (*models.Clan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.clans[clanID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := copyClan(rec.clan)
	return &c, nil
}

func (s *InMemory) Delete(_ context.Context, clanID id.ClanID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clans[clanID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.clans, clanID)
	return nil
}

// Ping always succeeds; it lets the memory store stand in for health checks.
func (s *InMemory) Ping(context.Context) error {
	return nil
}

func copyClan(c models.Clan) models.Clan {
	if c.Region != nil {
		region := *c.Region
		c.Region = &region
	}
	return c
}
