package memory

import (
	"context"
	"slices"
	"sync"

	"reviewdraw/internal/directory/models"
	"reviewdraw/pkg/domain"
)

// InMemory is a directory held in process memory.
type InMemory struct {
	mu         sync.RWMutex
	categories map[domain.CategoryID]models.Category
	experts    map[domain.ExpertKey]models.Expert
}

func NewInMemory() *InMemory {
	return &InMemory{
		categories: make(map[domain.CategoryID]models.Category),
		experts:    make(map[domain.ExpertKey]models.Expert),
	}
}

func (s *InMemory) PutCategory(_ context.Context, c models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
	return nil
}

func (s *InMemory) PutExpert(_ context.Context, e models.Expert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.experts[e.ID] = e
	return nil
}

// SetInService flips an expert's active-service flag. Returns false for unknown experts.
func (s *InMemory) SetInService(id domain.ExpertKey, inService bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.experts[id]
	if !ok {
		return false
	}
	e.InService = inService
	s.experts[id] = e
	return true
}

// ListEligible returns every expert currently in the category, in id order.
// Out-of-service experts are included; eligibility filtering belongs to the draw.
func (s *InMemory) ListEligible(ctx context.Context, categoryID domain.CategoryID) ([]models.Expert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.ListExperts(ctx, models.ExpertFilter{CategoryID: categoryID})
}

func (s *InMemory) ListExperts(_ context.Context, filter models.ExpertFilter) ([]models.Expert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Expert, 0, len(s.experts))
	for _, e := range s.experts {
		if filter.Matches(e) {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b models.Expert) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out, nil
}

// Resolve returns the category display name.
func (s *InMemory) Resolve(_ context.Context, id domain.CategoryID) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	return c.Name, ok, nil
}

func (s *InMemory) ListCategories(_ context.Context) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b models.Category) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out, nil
}
