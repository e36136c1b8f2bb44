package models

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCanBecome(t *testing.T) {
	assert.True(t, StatusClean.CanBecome(StatusClean))
	assert.True(t, StatusClean.CanBecome(StatusAmended))
	assert.True(t, StatusAmended.CanBecome(StatusAmended))
	assert.False(t, StatusAmended.CanBecome(StatusClean))
	assert.False(t, StatusClean.CanBecome("archived"))
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "正常抽取", StatusClean.Label())
	assert.Equal(t, "有补抽", StatusAmended.Label())
}

func TestCloneIsDeep(t *testing.T) {
	rec := &Record{
		Entries: []AllocationEntry{{ExpertID: "a", ExpertName: "A"}},
		Log:     []AuditEntry{{Kind: KindInitial, ExpertName: "A"}},
	}
	c := rec.Clone()
	c.Entries[0].ExpertID = "b"
	c.Log = append(c.Log, AuditEntry{Kind: KindReplacement})

	assert.Equal(t, "a", string(rec.Entries[0].ExpertID))
	assert.Len(t, rec.Log, 1)
	assert.Nil(t, (*Record)(nil).Clone())
}

func TestEntryIndexAndExpertIDs(t *testing.T) {
	rec := &Record{Entries: []AllocationEntry{{ExpertID: "a"}, {ExpertID: "b"}}}
	assert.Equal(t, 1, rec.EntryIndex("b"))
	assert.Equal(t, -1, rec.EntryIndex("z"))
	assert.Len(t, rec.ExpertIDs(), 2)
}

func TestStampAfter(t *testing.T) {
	base := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	rec := &Record{UpdatedAt: base}
	assert.Equal(t, base.Add(time.Second), rec.StampAfter(base.Add(time.Second)))
	assert.Equal(t, base, rec.StampAfter(base.Add(-time.Second)), "never before the last update")

	rec.Log = []AuditEntry{{Kind: KindReplacement, Timestamp: base.Add(time.Minute)}}
	assert.Equal(t, base.Add(time.Minute), rec.StampAfter(base.Add(time.Second)), "never before the newest entry")
}

func TestFilterMatches(t *testing.T) {
	created := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	rec := &Record{
		Status:    StatusAmended,
		CreatedAt: created,
		Project:   ProjectSnapshot{Name: "Library Renovation", Number: "PDSU-20260310-4821"},
	}

	cases := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty", Filter{}, true},
		{"status match", Filter{Status: StatusAmended}, true},
		{"status mismatch", Filter{Status: StatusClean}, false},
		{"name query folds case", Filter{ProjectQuery: "library"}, true},
		{"number query", Filter{ProjectQuery: "20260310"}, true},
		{"query miss", Filter{ProjectQuery: "stadium"}, false},
		{"since inclusive", Filter{Since: created}, true},
		{"since after", Filter{Since: created.Add(time.Second)}, false},
		{"until exclusive", Filter{Until: created}, false},
		{"until after", Filter{Until: created.Add(time.Hour)}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.filter.Matches(rec))
		})
	}
}

func TestAuditEntryMessage(t *testing.T) {
	initial := AuditEntry{Kind: KindInitial, CategoryName: "技术类", ExpertName: "张三"}
	assert.Contains(t, initial.Message(), "张三")

	repl := AuditEntry{Kind: KindReplacement, ReplacedName: "张三", NewName: "吴九", Reason: "conflict of interest"}
	assert.Contains(t, repl.Message(), "吴九 替换 张三")
	assert.Contains(t, repl.Message(), "conflict of interest")
}

func TestErrorKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("allocate: %w", InsufficientPool("cat001", 3, 4))

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindInsufficientPool, kind)
	assert.ErrorIs(t, err, &Error{Kind: KindInsufficientPool})
	assert.NotErrorIs(t, err, &Error{Kind: KindEntryNotFound})

	var typed *Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, 3, typed.Available)
	assert.Equal(t, 4, typed.Required)
	assert.Contains(t, typed.Error(), "cat001")

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
}
