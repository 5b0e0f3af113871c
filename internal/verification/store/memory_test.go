package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"lectern/internal/verification/models"
	id "lectern/pkg/domain"
	"lectern/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
	now   time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
}

func (s *InMemoryStoreSuite) create() *models.Record {
	rec := models.NewRecord(id.NewRecordID(), id.UserID(uuid.New()), s.now)
	s.Require().NoError(s.store.Create(s.ctx, rec))
	return rec
}

func (s *InMemoryStoreSuite) TestCreate() {
	s.Run("second record for the same instructor is refused", func() {
		rec := s.create()
		dup := models.NewRecord(id.NewRecordID(), rec.InstructorID, s.now)
		s.ErrorIs(s.store.Create(s.ctx, dup), sentinel.ErrAlreadyExists)
	})

	s.Run("lookups return clones", func() {
		rec := s.create()
		found, err := s.store.FindByInstructor(s.ctx, rec.InstructorID)
		s.Require().NoError(err)
		found.CompletedSteps[models.StepEmail] = true

		again, err := s.store.FindByID(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.False(again.CompletedSteps[models.StepEmail])
	})

	s.Run("unknown record", func() {
		_, err := s.store.FindByID(s.ctx, id.NewRecordID())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestExecute() {
	s.Run("mutate error leaves the record unchanged", func() {
		rec := s.create()
		boom := errors.New("boom")
		_, err := s.store.Execute(s.ctx, rec.ID, func(r *models.Record) error {
			r.Status = models.StatusApproved
			return boom
		})
		s.ErrorIs(err, boom)

		found, err := s.store.FindByID(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusPending, found.Status)
		s.Equal(int64(1), found.Version)
	})

	s.Run("concurrent mutations are serialized", func() {
		rec := s.create()
		const workers = 50
		var wg sync.WaitGroup
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.store.Execute(s.ctx, rec.ID, func(r *models.Record) error {
					r.Phone.Attempts++
					return nil
				})
				s.NoError(err)
			}()
		}
		wg.Wait()

		found, err := s.store.FindByID(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.Equal(workers, found.Phone.Attempts)
		s.Equal(int64(workers+1), found.Version)
	})
}

func (s *InMemoryStoreSuite) TestAppendHistory() {
	rec := s.create()
	entry := models.NewHistoryEntry("", models.ActionApproved, models.StatusApproved, id.UserID(uuid.New()), nil, s.now)
	s.Require().NoError(s.store.AppendHistory(s.ctx, rec.ID, entry))

	found, err := s.store.FindByID(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.Len(found.History, 2)
	s.Equal(models.ActionApproved, found.History[1].Action)

	s.ErrorIs(s.store.AppendHistory(s.ctx, id.NewRecordID(), entry), sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestListAndCounts() {
	a := s.create()
	b := s.create()
	s.create()

	_, err := s.store.Execute(s.ctx, a.ID, func(r *models.Record) error {
		r.Status = models.StatusUnderReview
		r.UpdatedAt = s.now.Add(time.Minute)
		return nil
	})
	s.Require().NoError(err)
	decided := s.now.Add(2 * time.Hour)
	_, err = s.store.Execute(s.ctx, b.ID, func(r *models.Record) error {
		r.Status = models.StatusApproved
		r.ApprovedAt = &decided
		r.UpdatedAt = decided
		return nil
	})
	s.Require().NoError(err)

	s.Run("status filter", func() {
		out, total, err := s.store.List(s.ctx, ListFilter{Statuses: []models.Status{models.StatusUnderReview}})
		s.Require().NoError(err)
		s.Equal(1, total)
		s.Equal(a.ID, out[0].ID)
	})

	s.Run("pagination keeps the total", func() {
		out, total, err := s.store.List(s.ctx, ListFilter{Limit: 2})
		s.Require().NoError(err)
		s.Equal(3, total)
		s.Len(out, 2)
		s.Equal(b.ID, out[0].ID, "most recently updated first")

		out, _, err = s.store.List(s.ctx, ListFilter{Offset: 2, Limit: 2})
		s.Require().NoError(err)
		s.Len(out, 1)
	})

	s.Run("search by instructor prefix", func() {
		out, total, err := s.store.List(s.ctx, ListFilter{Search: a.InstructorID.String()[:8]})
		s.Require().NoError(err)
		s.Equal(1, total)
		s.Equal(a.ID, out[0].ID)
	})

	s.Run("counts", func() {
		counts, err := s.store.CountByStatus(s.ctx)
		s.Require().NoError(err)
		s.Equal(1, counts[models.StatusPending])
		s.Equal(1, counts[models.StatusUnderReview])
		s.Equal(1, counts[models.StatusApproved])
	})

	s.Run("decided since", func() {
		out, err := s.store.ListDecidedSince(s.ctx, s.now)
		s.Require().NoError(err)
		s.Len(out, 1)
		out, err = s.store.ListDecidedSince(s.ctx, decided.Add(time.Second))
		s.Require().NoError(err)
		s.Empty(out)
	})
}
