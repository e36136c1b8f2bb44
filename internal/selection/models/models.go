package models

import (
	"slices"
	"strings"
	"time"

	"reviewdraw/pkg/domain"
	pstrings "reviewdraw/pkg/platform/strings"
)

// UnknownCategoryName is recorded when the directory has no name for a category.
const UnknownCategoryName = "unknown"

// Status is the lifecycle state of a Record. It only moves forward.
type Status string

const (
	StatusClean   Status = "clean"
	StatusAmended Status = "amended"
)

func (s Status) IsValid() bool {
	return s == StatusClean || s == StatusAmended
}

// Label is the operator-facing status label.
func (s Status) Label() string {
	switch s {
	case StatusClean:
		return "正常抽取"
	case StatusAmended:
		return "有补抽"
	default:
		return string(s)
	}
}

func (s Status) rank() int {
	if s == StatusAmended {
		return 1
	}
	return 0
}

// CanBecome reports whether a record in s may be stored as next.
func (s Status) CanBecome(next Status) bool {
	return next.IsValid() && next.rank() >= s.rank()
}

// EntryKind distinguishes the two audit entry variants.
type EntryKind string

const (
	KindInitial     EntryKind = "initial"
	KindReplacement EntryKind = "replacement"
)

// Requirement asks for Count experts of one category, skipping Avoid.
type Requirement struct {
	CategoryID domain.CategoryID  `json:"category_id"`
	Count      int                `json:"count"`
	Avoid      []domain.ExpertKey `json:"avoid_expert_ids,omitempty"`
}

// AllocationEntry is one seat on a project. Names are snapshots taken at draw time.
type AllocationEntry struct {
	ExpertID     domain.ExpertKey  `json:"expert_id"`
	ExpertName   string            `json:"expert_name"`
	CategoryID   domain.CategoryID `json:"category_id"`
	CategoryName string            `json:"category_name"`
}

// AuditEntry is one line of a record's history.
// Initial entries carry CategoryName and ExpertName; replacement entries carry
// ReplacedName, NewName and Reason.
type AuditEntry struct {
	Kind         EntryKind `json:"kind"`
	Timestamp    time.Time `json:"timestamp"`
	CategoryName string    `json:"category_name,omitempty"`
	ExpertName   string    `json:"expert_name,omitempty"`
	ReplacedName string    `json:"replaced_name,omitempty"`
	NewName      string    `json:"new_name,omitempty"`
	Reason       string    `json:"reason,omitempty"`
}

// Message renders the entry the way the record history view shows it.
func (e AuditEntry) Message() string {
	switch e.Kind {
	case KindInitial:
		return "抽取 " + e.CategoryName + " 专家: " + e.ExpertName
	case KindReplacement:
		return "补抽: " + e.NewName + " 替换 " + e.ReplacedName + ", 原因: " + e.Reason
	default:
		return ""
	}
}

// ProjectSnapshot is the project context captured when the record is created.
type ProjectSnapshot struct {
	Number           string `json:"number"`
	Name             string `json:"name"`
	OrganizationUnit string `json:"organization_unit,omitempty"`
	ExtractDate      string `json:"extract_date"`
	Supervisor       string `json:"supervisor,omitempty"`
	OperatorID       string `json:"operator_id,omitempty"`
}

// Record is the durable result of one allocation and all later replacements.
type Record struct {
	ID        domain.RecordID   `json:"id"`
	Project   ProjectSnapshot   `json:"project"`
	Entries   []AllocationEntry `json:"entries"`
	Log       []AuditEntry      `json:"log"`
	Status    Status            `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Version   int64             `json:"version"`
}

// Clone returns a deep copy so mutators never touch stored state.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.Entries = slices.Clone(r.Entries)
	c.Log = slices.Clone(r.Log)
	return &c
}

// EntryIndex returns the position of the entry holding expertID, or -1.
func (r *Record) EntryIndex(expertID domain.ExpertKey) int {
	return slices.IndexFunc(r.Entries, func(e AllocationEntry) bool { return e.ExpertID == expertID })
}

// ExpertIDs is the set of experts currently seated on the record.
func (r *Record) ExpertIDs() map[domain.ExpertKey]struct{} {
	out := make(map[domain.ExpertKey]struct{}, len(r.Entries))
	for _, e := range r.Entries {
		out[e.ExpertID] = struct{}{}
	}
	return out
}

// StampAfter returns t, moved forward to the newest log entry or update when
// either is later. Entries appended with it keep the log in creation order.
func (r *Record) StampAfter(t time.Time) time.Time {
	latest := r.UpdatedAt
	if n := len(r.Log); n > 0 && r.Log[n-1].Timestamp.After(latest) {
		latest = r.Log[n-1].Timestamp
	}
	if latest.After(t) {
		return latest
	}
	return t
}

// Filter narrows record listings. Zero fields match everything.
type Filter struct {
	Status Status
	// ProjectQuery matches project name or number, case-insensitively.
	ProjectQuery string
	Since        time.Time
	Until        time.Time
	Limit        int
}

func (f Filter) Matches(r *Record) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if q := strings.TrimSpace(f.ProjectQuery); q != "" {
		if !pstrings.ContainsFold(r.Project.Name, q) && !pstrings.ContainsFold(r.Project.Number, q) {
			return false
		}
	}
	if !f.Since.IsZero() && r.CreatedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && !r.CreatedAt.Before(f.Until) {
		return false
	}
	return true
}
