// Package record persists selection records.
//
// Every backend serializes Update per record and enforces the record
// invariants on each write: the log only grows in creation order, existing log
// entries are never rewritten, status never moves back, the project snapshot
// never changes and no expert is seated twice.
package record

import (
	"context"
	"fmt"

	"reviewdraw/internal/selection/models"
	"reviewdraw/pkg/domain"
	"reviewdraw/pkg/platform/sentinel"
)

// Mutator edits a private copy of the record. Returning an error abandons the update.
type Mutator = func(rec *models.Record) error

// Store is implemented by the memory, postgres and redis backends.
type Store interface {
	Create(ctx context.Context, rec *models.Record) error
	Get(ctx context.Context, id domain.RecordID) (*models.Record, error)
	Update(ctx context.Context, id domain.RecordID, mutate Mutator) (*models.Record, error)
	List(ctx context.Context, filter models.Filter) ([]*models.Record, error)
}

func checkCreate(rec *models.Record) error {
	if rec == nil || rec.ID.IsNil() {
		return fmt.Errorf("record id is required: %w", sentinel.ErrInvalidState)
	}
	if !rec.Status.IsValid() {
		return fmt.Errorf("unknown status %q: %w", rec.Status, sentinel.ErrInvalidState)
	}
	return checkSeats(rec)
}

// checkMutation compares the stored record with the proposed replacement.
func checkMutation(before, after *models.Record) error {
	if after.ID != before.ID {
		return fmt.Errorf("record id changed: %w", sentinel.ErrInvalidState)
	}
	if after.Project != before.Project {
		return fmt.Errorf("project snapshot is immutable: %w", sentinel.ErrInvalidState)
	}
	if !after.CreatedAt.Equal(before.CreatedAt) {
		return fmt.Errorf("creation time is immutable: %w", sentinel.ErrInvalidState)
	}
	if len(after.Log) < len(before.Log) {
		return fmt.Errorf("log entries removed: %w", sentinel.ErrInvalidState)
	}
	for i := range before.Log {
		if !sameEntry(before.Log[i], after.Log[i]) {
			return fmt.Errorf("log entry %d rewritten: %w", i, sentinel.ErrInvalidState)
		}
	}
	for i := max(len(before.Log), 1); i < len(after.Log); i++ {
		if after.Log[i].Timestamp.Before(after.Log[i-1].Timestamp) {
			return fmt.Errorf("log entry %d predates entry %d: %w", i, i-1, sentinel.ErrInvalidState)
		}
	}
	if !before.Status.CanBecome(after.Status) {
		return fmt.Errorf("status %s cannot become %s: %w", before.Status, after.Status, sentinel.ErrInvalidState)
	}
	return checkSeats(after)
}

func checkSeats(rec *models.Record) error {
	seen := make(map[domain.ExpertKey]struct{}, len(rec.Entries))
	for _, e := range rec.Entries {
		if _, dup := seen[e.ExpertID]; dup {
			return fmt.Errorf("expert %s seated twice: %w", e.ExpertID, sentinel.ErrInvalidState)
		}
		seen[e.ExpertID] = struct{}{}
	}
	return nil
}

func sameEntry(a, b models.AuditEntry) bool {
	return a.Kind == b.Kind &&
		a.Timestamp.Equal(b.Timestamp) &&
		a.CategoryName == b.CategoryName &&
		a.ExpertName == b.ExpertName &&
		a.ReplacedName == b.ReplacedName &&
		a.NewName == b.NewName &&
		a.Reason == b.Reason
}

// applyMutation runs mutate on a copy of current and returns the validated result
// with version advanced. The update time never moves back.
func applyMutation(ctx context.Context, current *models.Record, mutate Mutator) (*models.Record, error) {
	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	if err := checkMutation(current, next); err != nil {
		return nil, err
	}
	next.Version = current.Version + 1
	next.UpdatedAt = next.StampAfter(now(ctx))
	return next, nil
}
