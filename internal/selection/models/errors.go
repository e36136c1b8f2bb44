package models

import (
	"errors"
	"fmt"

	"reviewdraw/pkg/domain"
)

// ErrorKind is the closed set of selection failures.
type ErrorKind string

const (
	KindInsufficientPool           ErrorKind = "insufficient_pool"
	KindEntryNotFound              ErrorKind = "entry_not_found"
	KindNoReplacementAvailable     ErrorKind = "no_replacement_available"
	KindInvalidReason              ErrorKind = "invalid_reason"
	KindConcurrentMutationConflict ErrorKind = "concurrent_mutation_conflict"
	KindRecordNotFound             ErrorKind = "record_not_found"
	KindInvalidRequirement         ErrorKind = "invalid_requirement"
)

// Error is a typed selection failure. Category, Available and Required are set
// when they apply to the kind.
type Error struct {
	Kind      ErrorKind
	Category  domain.CategoryID
	Available int
	Required  int
	Detail    string
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindInsufficientPool:
		return fmt.Sprintf("category %s has %d eligible experts, %d required", e.Category, e.Available, e.Required)
	case KindNoReplacementAvailable:
		return fmt.Sprintf("no replacement available in category %s", e.Category)
	case KindEntryNotFound:
		return "expert is not on this record"
	case KindInvalidReason:
		return "replacement reason is required"
	case KindConcurrentMutationConflict:
		return "record was modified concurrently"
	case KindRecordNotFound:
		return "selection record not found"
	case KindInvalidRequirement:
		if e.Detail != "" {
			return "invalid requirement: " + e.Detail
		}
		return "invalid requirement"
	default:
		return string(e.Kind)
	}
}

// Is matches another *Error of the same kind, so errors.Is(err, &Error{Kind: k}) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf extracts the selection error kind from anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

func InsufficientPool(category domain.CategoryID, available, required int) *Error {
	return &Error{Kind: KindInsufficientPool, Category: category, Available: available, Required: required}
}

func NoReplacementAvailable(category domain.CategoryID) *Error {
	return &Error{Kind: KindNoReplacementAvailable, Category: category}
}

func EntryNotFound() *Error { return &Error{Kind: KindEntryNotFound} }

func InvalidReason() *Error { return &Error{Kind: KindInvalidReason} }

func ConcurrentMutationConflict() *Error { return &Error{Kind: KindConcurrentMutationConflict} }

func RecordNotFound() *Error { return &Error{Kind: KindRecordNotFound} }

func InvalidRequirement(category domain.CategoryID, detail string) *Error {
	return &Error{Kind: KindInvalidRequirement, Category: category, Detail: detail}
}
