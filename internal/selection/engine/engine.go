// Package engine holds the pure draw and replacement algorithms.
//
// The engine never performs I/O: callers hand it the already-loaded category
// names and expert pools, and persist what it returns. Each call owns its own
// random generator, so concurrent calls share no state.
package engine

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	dirmodels "reviewdraw/internal/directory/models"
	"reviewdraw/internal/selection/models"
	"reviewdraw/pkg/domain"
)

// CategoryNames maps category ids to display names. Missing ids resolve to models.UnknownCategoryName.
type CategoryNames map[domain.CategoryID]string

// Pool holds the directory experts listed for each requested category.
// Lists may include out-of-service experts; the engine filters them.
type Pool map[domain.CategoryID][]dirmodels.Expert

// Allocation is the result of a successful draw, in requirement order.
type Allocation struct {
	Entries []models.AllocationEntry
	Log     []models.AuditEntry
}

// Replacement describes one committed seat change.
type Replacement struct {
	Old   models.AllocationEntry
	New   models.AllocationEntry
	Entry models.AuditEntry
}

type Engine struct {
	source SourceFunc
}

type Option func(*Engine)

// WithRandSource overrides the per-invocation random source. Tests use it for reproducible draws.
func WithRandSource(fn SourceFunc) Option {
	return func(e *Engine) {
		if fn != nil {
			e.source = fn
		}
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{source: cryptoSource}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) rng() (*rand.Rand, error) {
	src, err := e.source()
	if err != nil {
		return nil, err
	}
	return rand.New(src), nil
}

// Allocate draws every requirement in caller order. It is all-or-nothing: any
// failing requirement fails the batch and nothing is returned.
func (e *Engine) Allocate(reqs []models.Requirement, names CategoryNames, pool Pool, now time.Time) (*Allocation, error) {
	if err := Validate(reqs); err != nil {
		return nil, err
	}
	r, err := e.rng()
	if err != nil {
		return nil, fmt.Errorf("allocate: %w", err)
	}

	out := &Allocation{}
	drawn := make(map[domain.ExpertKey]struct{})
	for _, req := range reqs {
		categoryName := resolveName(names, req.CategoryID)
		avoid := make(map[domain.ExpertKey]struct{}, len(req.Avoid))
		for _, id := range req.Avoid {
			avoid[id] = struct{}{}
		}

		eligible := eligibleExperts(pool[req.CategoryID], req.CategoryID, func(id domain.ExpertKey) bool {
			_, avoided := avoid[id]
			_, taken := drawn[id]
			return avoided || taken
		})
		if len(eligible) < req.Count {
			return nil, models.InsufficientPool(req.CategoryID, len(eligible), req.Count)
		}

		for _, expert := range sample(r, eligible, req.Count) {
			drawn[expert.ID] = struct{}{}
			out.Entries = append(out.Entries, models.AllocationEntry{
				ExpertID:     expert.ID,
				ExpertName:   expert.Name,
				CategoryID:   req.CategoryID,
				CategoryName: categoryName,
			})
			out.Log = append(out.Log, models.AuditEntry{
				Kind:         models.KindInitial,
				Timestamp:    now,
				CategoryName: categoryName,
				ExpertName:   expert.Name,
			})
		}
	}
	return out, nil
}

// Replace swaps expertID on rec for a uniformly drawn expert of the same
// category who is in service and not already on the record. candidates is the
// directory listing for that category. On success rec is modified in place:
// the entry is rewritten, the status becomes amended and one replacement entry
// is appended to the log. On error rec is untouched.
func (e *Engine) Replace(rec *models.Record, expertID domain.ExpertKey, reason string, candidates []dirmodels.Expert, now time.Time) (*Replacement, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, models.InvalidReason()
	}
	idx := rec.EntryIndex(expertID)
	if idx < 0 {
		return nil, models.EntryNotFound()
	}
	old := rec.Entries[idx]

	seated := rec.ExpertIDs()
	eligible := eligibleExperts(candidates, old.CategoryID, func(id domain.ExpertKey) bool {
		_, ok := seated[id]
		return ok
	})
	if len(eligible) == 0 {
		return nil, models.NoReplacementAvailable(old.CategoryID)
	}

	r, err := e.rng()
	if err != nil {
		return nil, fmt.Errorf("replace: %w", err)
	}
	pick := sample(r, eligible, 1)[0]

	next := models.AllocationEntry{
		ExpertID:     pick.ID,
		ExpertName:   pick.Name,
		CategoryID:   old.CategoryID,
		CategoryName: old.CategoryName,
	}
	entry := models.AuditEntry{
		Kind:         models.KindReplacement,
		Timestamp:    now,
		ReplacedName: old.ExpertName,
		NewName:      pick.Name,
		Reason:       reason,
	}
	rec.Entries[idx] = next
	rec.Log = append(rec.Log, entry)
	rec.Status = models.StatusAmended
	return &Replacement{Old: old, New: next, Entry: entry}, nil
}

func resolveName(names CategoryNames, id domain.CategoryID) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return models.UnknownCategoryName
}

// eligibleExperts keeps in-service experts of category that exclude does not reject,
// preserving listing order and dropping duplicate ids.
func eligibleExperts(listed []dirmodels.Expert, category domain.CategoryID, exclude func(domain.ExpertKey) bool) []dirmodels.Expert {
	out := make([]dirmodels.Expert, 0, len(listed))
	seen := make(map[domain.ExpertKey]struct{}, len(listed))
	for _, expert := range listed {
		if expert.CategoryID != category || !expert.InService || exclude(expert.ID) {
			continue
		}
		if _, dup := seen[expert.ID]; dup {
			continue
		}
		seen[expert.ID] = struct{}{}
		out = append(out, expert)
	}
	return out
}

// Validate checks batch shape: non-empty, one requirement per category, counts of at least one.
func Validate(reqs []models.Requirement) error {
	if len(reqs) == 0 {
		return models.InvalidRequirement("", "at least one requirement is needed")
	}
	seen := make(map[domain.CategoryID]struct{}, len(reqs))
	for _, req := range reqs {
		if strings.TrimSpace(string(req.CategoryID)) == "" {
			return models.InvalidRequirement("", "category id is required")
		}
		if req.Count < 1 {
			return models.InvalidRequirement(req.CategoryID, "count must be at least 1")
		}
		if _, dup := seen[req.CategoryID]; dup {
			return models.InvalidRequirement(req.CategoryID, "category requested more than once")
		}
		seen[req.CategoryID] = struct{}{}
	}
	return nil
}
