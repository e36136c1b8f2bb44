package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "reviewdraw/pkg/domain-errors"
)

// RecordID identifies a selection record.
type RecordID uuid.UUID

// CategoryID identifies an expert category. Category ids are opaque, operator-provided strings.
type CategoryID string

// ExpertKey is the globally unique identity key of an expert (the national id in the seeded directory).
type ExpertKey string

// NewRecordID returns a fresh random RecordID.
func NewRecordID() RecordID {
	return RecordID(uuid.New())
}

// ParseRecordID parses s as a non-nil UUID.
func ParseRecordID(s string) (RecordID, error) {
	if s == "" {
		return RecordID{}, dErrors.New(dErrors.CodeInvalidInput, "record id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return RecordID{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid record id")
	}
	if u == uuid.Nil {
		return RecordID{}, dErrors.New(dErrors.CodeInvalidInput, "record id must not be nil")
	}
	return RecordID(u), nil
}

func (id RecordID) String() string {
	return uuid.UUID(id).String()
}

func (id RecordID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

func (id RecordID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *RecordID) UnmarshalText(b []byte) error {
	parsed, err := ParseRecordID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseCategoryID trims s and rejects empty values.
func ParseCategoryID(s string) (CategoryID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "category id is required")
	}
	return CategoryID(s), nil
}

func (c CategoryID) String() string { return string(c) }

// ParseExpertKey trims s and rejects empty values.
func ParseExpertKey(s string) (ExpertKey, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "expert id is required")
	}
	return ExpertKey(s), nil
}

func (k ExpertKey) String() string { return string(k) }
