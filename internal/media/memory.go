package media

import (
	"context"
	"sync"
	"time"

	"lectern/pkg/platform/sentinel"
)

// MemoryStore keeps blobs in process. Used in development and tests.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string]Upload
	baseURL string
	now     func() time.Time
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]Upload),
		baseURL: baseURL,
		now:     time.Now,
	}
}

func (s *MemoryStore) Upload(ctx context.Context, u Upload) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	key := u.Key(s.now())
	data := make([]byte, len(u.Data))
	copy(data, u.Data)
	u.Data = data

	s.mu.Lock()
	s.objects[key] = u
	s.mu.Unlock()

	return Object{
		URL:      s.baseURL + "/" + key,
		PublicID: key,
		MimeType: u.ContentType,
		Bytes:    int64(len(data)),
	}, nil
}

func (s *MemoryStore) Destroy(_ context.Context, publicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[publicID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.objects, publicID)
	return nil
}

// Len reports how many blobs are stored.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// Get returns a stored blob.
func (s *MemoryStore) Get(publicID string) (Upload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.objects[publicID]
	return u, ok
}
