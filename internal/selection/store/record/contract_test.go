package record

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"

	"reviewdraw/internal/selection/models"
	"reviewdraw/pkg/domain"
	"reviewdraw/pkg/platform/sentinel"
	"reviewdraw/pkg/requestcontext"
)

// contractSuite holds the behaviour every Store backend must share.
type contractSuite struct {
	suite.Suite
	newStore func() Store
	// optimistic backends may reject contended updates with ErrConflict.
	optimistic bool

	store Store
	ctx   context.Context
	base  time.Time
}

func (s *contractSuite) SetupTest() {
	s.store = s.newStore()
	s.base = time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.base.Add(time.Hour))
}

func (s *contractSuite) newRecord(name string, createdAt time.Time) *models.Record {
	return &models.Record{
		ID: domain.NewRecordID(),
		Project: models.ProjectSnapshot{
			Number:      "PDSU-" + createdAt.Format("20060102") + "-1234",
			Name:        name,
			ExtractDate: createdAt.Format(time.DateOnly),
			OperatorID:  "op-1",
		},
		Entries: []models.AllocationEntry{
			{ExpertID: "e1", ExpertName: "One", CategoryID: "cat001", CategoryName: "技术类"},
			{ExpertID: "e2", ExpertName: "Two", CategoryID: "cat002", CategoryName: "经济类"},
		},
		Log: []models.AuditEntry{
			{Kind: models.KindInitial, Timestamp: createdAt, CategoryName: "技术类", ExpertName: "One"},
			{Kind: models.KindInitial, Timestamp: createdAt, CategoryName: "经济类", ExpertName: "Two"},
		},
		Status:    models.StatusClean,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
		Version:   1,
	}
}

func (s *contractSuite) mustCreate(rec *models.Record) {
	s.Require().NoError(s.store.Create(s.ctx, rec))
}

func appendNote(reason string) Mutator {
	return func(rec *models.Record) error {
		rec.Log = append(rec.Log, models.AuditEntry{
			Kind:         models.KindReplacement,
			Timestamp:    time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
			ReplacedName: "One",
			NewName:      "One",
			Reason:       reason,
		})
		rec.Status = models.StatusAmended
		return nil
	}
}

func (s *contractSuite) TestCreateAndGet() {
	rec := s.newRecord("Bridge", s.base)
	s.mustCreate(rec)

	got, err := s.store.Get(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal(rec.ID, got.ID)
	s.Equal(rec.Project, got.Project)
	s.Equal(rec.Entries, got.Entries)
	s.Require().Len(got.Log, 2)
	s.True(got.Log[0].Timestamp.Equal(rec.Log[0].Timestamp))
	s.Equal(models.StatusClean, got.Status)
	s.Equal(int64(1), got.Version)
	s.True(got.CreatedAt.Equal(rec.CreatedAt))
}

func (s *contractSuite) TestCreateRejectsDuplicatesAndBadRecords() {
	rec := s.newRecord("Bridge", s.base)
	s.mustCreate(rec)
	s.ErrorIs(s.store.Create(s.ctx, rec), sentinel.ErrAlreadyExists)

	dup := s.newRecord("Dup", s.base)
	dup.Entries[1].ExpertID = dup.Entries[0].ExpertID
	s.ErrorIs(s.store.Create(s.ctx, dup), sentinel.ErrInvalidState)
}

func (s *contractSuite) TestMissingRecord() {
	id := domain.NewRecordID()
	_, err := s.store.Get(s.ctx, id)
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.Update(s.ctx, id, appendNote("x"))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *contractSuite) TestUpdateAppliesMutation() {
	rec := s.newRecord("Bridge", s.base)
	s.mustCreate(rec)

	updated, err := s.store.Update(s.ctx, rec.ID, appendNote("leave"))
	s.Require().NoError(err)
	s.Equal(models.StatusAmended, updated.Status)
	s.Equal(int64(2), updated.Version)
	s.True(updated.UpdatedAt.Equal(s.base.Add(time.Hour)))
	s.Len(updated.Log, 3)

	got, err := s.store.Get(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal(int64(2), got.Version)
	s.Require().Len(got.Log, 3)
	s.Equal("leave", got.Log[2].Reason)
	s.Equal(models.StatusAmended, got.Status)
}

func (s *contractSuite) TestUpdateReplacesEntryInPlace() {
	rec := s.newRecord("Bridge", s.base)
	s.mustCreate(rec)

	_, err := s.store.Update(s.ctx, rec.ID, func(r *models.Record) error {
		r.Entries[0] = models.AllocationEntry{ExpertID: "e3", ExpertName: "Three", CategoryID: "cat001", CategoryName: "技术类"}
		return appendNote("swap")(r)
	})
	s.Require().NoError(err)

	got, err := s.store.Get(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal(domain.ExpertKey("e3"), got.Entries[0].ExpertID)
	s.Equal(domain.ExpertKey("e2"), got.Entries[1].ExpertID)
}

func (s *contractSuite) TestMutatorErrorLeavesRecordUnchanged() {
	rec := s.newRecord("Bridge", s.base)
	s.mustCreate(rec)

	boom := errors.New("no candidates")
	_, err := s.store.Update(s.ctx, rec.ID, func(r *models.Record) error {
		r.Entries[0].ExpertID = "changed"
		return boom
	})
	s.ErrorIs(err, boom)

	got, err := s.store.Get(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal(rec.Entries, got.Entries)
	s.Equal(int64(1), got.Version)
}

func (s *contractSuite) TestUpdateEnforcesInvariants() {
	cases := map[string]Mutator{
		"log entry rewritten": func(r *models.Record) error {
			r.Log[0].ExpertName = "Someone else"
			return nil
		},
		"log entry dropped": func(r *models.Record) error {
			r.Log = r.Log[:1]
			return nil
		},
		"status regresses": func(r *models.Record) error {
			r.Status = models.StatusClean
			return nil
		},
		"expert seated twice": func(r *models.Record) error {
			r.Entries[1].ExpertID = r.Entries[0].ExpertID
			return nil
		},
		"appended entry predates the log": func(r *models.Record) error {
			r.Log = append(r.Log, models.AuditEntry{
				Kind:         models.KindReplacement,
				Timestamp:    r.Log[len(r.Log)-1].Timestamp.Add(-time.Minute),
				ReplacedName: "One",
				NewName:      "Three",
				Reason:       "late",
			})
			r.Status = models.StatusAmended
			return nil
		},
		"project rewritten": func(r *models.Record) error {
			r.Project.Name = "renamed"
			return nil
		},
	}

	for name, mutate := range cases {
		s.Run(name, func() {
			rec := s.newRecord("Invariants", s.base)
			s.mustCreate(rec)
			if name == "status regresses" {
				_, err := s.store.Update(s.ctx, rec.ID, appendNote("first"))
				s.Require().NoError(err)
			}
			before, err := s.store.Get(s.ctx, rec.ID)
			s.Require().NoError(err)

			_, err = s.store.Update(s.ctx, rec.ID, mutate)
			s.ErrorIs(err, sentinel.ErrInvalidState)

			after, err := s.store.Get(s.ctx, rec.ID)
			s.Require().NoError(err)
			s.Equal(before.Version, after.Version)
			s.Equal(before.Entries, after.Entries)
			s.Len(after.Log, len(before.Log))
		})
	}
}

func (s *contractSuite) TestUpdateTimeNeverMovesBack() {
	rec := s.newRecord("Clock", s.base)
	s.mustCreate(rec)

	later := requestcontext.WithTime(context.Background(), s.base.Add(2*time.Hour))
	first, err := s.store.Update(later, rec.ID, appendNote("first"))
	s.Require().NoError(err)
	s.True(first.UpdatedAt.Equal(s.base.Add(2 * time.Hour)))

	second, err := s.store.Update(s.ctx, rec.ID, appendNote("second"))
	s.Require().NoError(err)
	s.True(second.UpdatedAt.Equal(first.UpdatedAt), "update time went from %s to %s", first.UpdatedAt, second.UpdatedAt)
}

func (s *contractSuite) TestConcurrentUpdatesOnOneRecordLoseNothing() {
	rec := s.newRecord("Contended", s.base)
	s.mustCreate(rec)

	const writers = 12
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.store.Update(s.ctx, rec.ID, appendNote(fmt.Sprintf("w%d", i)))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			if !s.optimistic || !errors.Is(err, sentinel.ErrConflict) {
				s.Failf("unexpected update error", "%v", err)
			}
		}(i)
	}
	wg.Wait()

	got, err := s.store.Get(s.ctx, rec.ID)
	s.Require().NoError(err)
	if !s.optimistic {
		s.Equal(writers, succeeded)
	}
	s.Positive(succeeded)
	s.Len(got.Log, 2+succeeded)
	s.Equal(int64(1+succeeded), got.Version)
}

func (s *contractSuite) TestUpdatesOnDifferentRecordsDoNotBlock() {
	a := s.newRecord("A", s.base)
	b := s.newRecord("B", s.base)
	s.mustCreate(a)
	s.mustCreate(b)

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	done := make(chan error, 1)
	go func() {
		_, err := s.store.Update(s.ctx, a.ID, func(r *models.Record) error {
			once.Do(func() { close(entered) })
			<-release
			return appendNote("slow")(r)
		})
		done <- err
	}()

	<-entered
	finished := make(chan error, 1)
	go func() {
		_, err := s.store.Update(s.ctx, b.ID, appendNote("fast"))
		finished <- err
	}()
	select {
	case err := <-finished:
		s.NoError(err)
	case <-time.After(5 * time.Second):
		s.Fail("update of an unrelated record was blocked")
	}
	close(release)
	s.NoError(<-done)
}

func (s *contractSuite) TestListFiltersAndOrders() {
	old := s.newRecord("Old Library", s.base.Add(-48*time.Hour))
	mid := s.newRecord("Stadium", s.base.Add(-24*time.Hour))
	recent := s.newRecord("New Library", s.base)
	for _, r := range []*models.Record{mid, old, recent} {
		s.mustCreate(r)
	}
	_, err := s.store.Update(s.ctx, mid.ID, appendNote("leave"))
	s.Require().NoError(err)

	ids := func(recs []*models.Record) []domain.RecordID {
		out := make([]domain.RecordID, len(recs))
		for i, r := range recs {
			out[i] = r.ID
		}
		return out
	}

	s.Run("newest first", func() {
		got, err := s.store.List(s.ctx, models.Filter{})
		s.Require().NoError(err)
		s.Equal([]domain.RecordID{recent.ID, mid.ID, old.ID}, ids(got))
	})
	s.Run("status", func() {
		got, err := s.store.List(s.ctx, models.Filter{Status: models.StatusAmended})
		s.Require().NoError(err)
		s.Equal([]domain.RecordID{mid.ID}, ids(got))
		s.Require().Len(got[0].Log, 3)
	})
	s.Run("project query", func() {
		got, err := s.store.List(s.ctx, models.Filter{ProjectQuery: "library"})
		s.Require().NoError(err)
		s.Equal([]domain.RecordID{recent.ID, old.ID}, ids(got))
	})
	s.Run("date range", func() {
		got, err := s.store.List(s.ctx, models.Filter{Since: s.base.Add(-30 * time.Hour), Until: s.base})
		s.Require().NoError(err)
		s.Equal([]domain.RecordID{mid.ID}, ids(got))
	})
	s.Run("limit", func() {
		got, err := s.store.List(s.ctx, models.Filter{Limit: 2})
		s.Require().NoError(err)
		s.Equal([]domain.RecordID{recent.ID, mid.ID}, ids(got))
		s.Len(got[0].Entries, 2)
	})
}
