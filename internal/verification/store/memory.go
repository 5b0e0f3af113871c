package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"lectern/internal/verification/models"
	id "lectern/pkg/domain"
	"lectern/pkg/platform/sentinel"
)

// InMemoryStore keeps records in a map guarded by one lock. Callers always
// receive clones.
type InMemoryStore struct {
	mu           sync.RWMutex
	records      map[id.RecordID]*models.Record
	byInstructor map[id.UserID]id.RecordID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		records:      make(map[id.RecordID]*models.Record),
		byInstructor: make(map[id.UserID]id.RecordID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, rec *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byInstructor[rec.InstructorID]; ok {
		return sentinel.ErrAlreadyExists
	}
	stored := rec.Clone()
	stored.Version = 1
	rec.Version = 1
	s.records[rec.ID] = stored
	s.byInstructor[rec.InstructorID] = rec.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, recordID id.RecordID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[recordID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *InMemoryStore) FindByInstructor(_ context.Context, instructorID id.UserID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recordID, ok := s.byInstructor[instructorID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.records[recordID].Clone(), nil
}

// Execute mutates a clone under the write lock and swaps it in on success.
func (s *InMemoryStore) Execute(ctx context.Context, recordID id.RecordID, mutate func(*models.Record) error) (*models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.records[recordID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := current.Clone()
	if err := mutate(working); err != nil {
		return nil, err
	}
	working.Version = current.Version + 1
	s.records[recordID] = working
	return working.Clone(), nil
}

func (s *InMemoryStore) AppendHistory(_ context.Context, recordID id.RecordID, entry models.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[recordID]
	if !ok {
		return sentinel.ErrNotFound
	}
	rec.History = append(rec.History, entry)
	rec.Version++
	return nil
}

// List returns records ordered by most recent update, plus the total count
// matching the filter before pagination.
func (s *InMemoryStore) List(_ context.Context, f ListFilter) ([]*models.Record, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(f.Search))
	matched := make([]*models.Record, 0, len(s.records))
	for _, rec := range s.records {
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, rec.Status) {
			continue
		}
		if search != "" &&
			!strings.HasPrefix(rec.InstructorID.String(), search) &&
			!strings.HasPrefix(rec.ID.String(), search) {
			continue
		}
		matched = append(matched, rec)
	}
	slices.SortFunc(matched, func(a, b *models.Record) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})

	total := len(matched)
	start := min(f.Offset, total)
	end := total
	if f.Limit > 0 {
		end = min(start+f.Limit, total)
	}
	out := make([]*models.Record, 0, end-start)
	for _, rec := range matched[start:end] {
		out = append(out, rec.Clone())
	}
	return out, total, nil
}

func (s *InMemoryStore) CountByStatus(_ context.Context) (map[models.Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[models.Status]int, len(models.AllStatuses))
	for _, rec := range s.records {
		counts[rec.Status]++
	}
	return counts, nil
}

// ListDecidedSince returns approved or rejected records decided at or after
// since.
func (s *InMemoryStore) ListDecidedSince(_ context.Context, since time.Time) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Record
	for _, rec := range s.records {
		if at := decidedAt(rec); at != nil && !at.Before(since) {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}
