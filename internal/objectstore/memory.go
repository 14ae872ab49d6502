package objectstore

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mlehmann/docshelf/internal/signing"
)

type memObject struct {
	data        []byte
	contentType string
	createdAt   time.Time
}

// MemoryStore is an in-memory Store used by tests and local-only
// sessions. Access handles are memory:// URLs carrying an HMAC token
// so the handle shape matches what real backends hand out.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memObject
	signer  *signing.Signer
	now     func() time.Time
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore(secret []byte) *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]memObject),
		signer:  signing.NewSigner(secret),
		now:     time.Now,
	}
}

// SetClock overrides the time source; tests use it to control the
// creation timestamps behind sort order.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.now = now
}

// List returns the objects under prefix sorted by creation time.
func (m *MemoryStore) List(_ context.Context, prefix string, limit int) ([]ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	full := strings.TrimSuffix(prefix, "/") + "/"
	var out []ObjectInfo
	for path, obj := range m.objects {
		if !strings.HasPrefix(path, full) {
			continue
		}
		out = append(out, ObjectInfo{
			Name:      strings.TrimPrefix(path, full),
			Size:      int64(len(obj.data)),
			CreatedAt: obj.createdAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Upload stores the object bytes.
func (m *MemoryStore) Upload(_ context.Context, path string, r io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[path] = memObject{
		data:        data,
		contentType: contentType,
		createdAt:   m.now(),
	}
	return nil
}

// Download returns a copy of the object bytes.
func (m *MemoryStore) Download(_ context.Context, path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[path]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(obj.data))
	copy(out, obj.data)
	return out, nil
}

// SignedURL issues a pseudo-signed handle for the object.
func (m *MemoryStore) SignedURL(_ context.Context, path string, ttl time.Duration) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.objects[path]; !ok {
		return "", ErrNotFound
	}
	expires := m.now().Add(ttl).Unix()
	sig := m.signer.Sign(path, expires)
	return fmt.Sprintf("memory://%s?expires=%d&sig=%s", path, expires, sig), nil
}
