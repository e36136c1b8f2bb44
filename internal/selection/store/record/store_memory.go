package record

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"reviewdraw/internal/selection/models"
	"reviewdraw/pkg/domain"
	"reviewdraw/pkg/platform/sentinel"
)

type slot struct {
	mu  sync.Mutex
	rec *models.Record
}

// InMemory keeps records in process. Updates lock only the target record.
type InMemory struct {
	mu      sync.RWMutex
	records map[domain.RecordID]*slot
}

var _ Store = (*InMemory)(nil)

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[domain.RecordID]*slot)}
}

func (s *InMemory) Create(_ context.Context, rec *models.Record) error {
	if err := checkCreate(rec); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[rec.ID]; exists {
		return fmt.Errorf("record %s: %w", rec.ID, sentinel.ErrAlreadyExists)
	}
	s.records[rec.ID] = &slot{rec: rec.Clone()}
	return nil
}

func (s *InMemory) lookup(id domain.RecordID) (*slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("record %s: %w", id, sentinel.ErrNotFound)
	}
	return sl, nil
}

func (s *InMemory) Get(ctx context.Context, id domain.RecordID) (*models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sl, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.rec.Clone(), nil
}

func (s *InMemory) Update(ctx context.Context, id domain.RecordID, mutate Mutator) (*models.Record, error) {
	sl, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	next, err := applyMutation(ctx, sl.rec, mutate)
	if err != nil {
		return nil, err
	}
	sl.rec = next
	return next.Clone(), nil
}

func (s *InMemory) List(ctx context.Context, filter models.Filter) ([]*models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	slots := make([]*slot, 0, len(s.records))
	for _, sl := range s.records {
		slots = append(slots, sl)
	}
	s.mu.RUnlock()

	out := make([]*models.Record, 0, len(slots))
	for _, sl := range slots {
		sl.mu.Lock()
		rec := sl.rec.Clone()
		sl.mu.Unlock()
		if filter.Matches(rec) {
			out = append(out, rec)
		}
	}
	sortNewestFirst(out)
	return limit(out, filter.Limit), nil
}

func sortNewestFirst(recs []*models.Record) {
	slices.SortFunc(recs, func(a, b *models.Record) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		switch {
		case a.ID.String() < b.ID.String():
			return -1
		case a.ID.String() > b.ID.String():
			return 1
		}
		return 0
	})
}

func limit(recs []*models.Record, n int) []*models.Record {
	if n > 0 && len(recs) > n {
		return recs[:n]
	}
	return recs
}
