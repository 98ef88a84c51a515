package objstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"lakecat/internal/domain"
)

var _ domain.ObjectStore = (*MemoryStore)(nil)

// MemoryStore is an in-memory ObjectStore used by tests and local runs.
// All operations are safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memObject

	// PresignErr, when set, makes PresignGet fail for keys matching the
	// predicate. Tests use it to exercise the fallback chain.
	PresignErr func(key string) error
}

type memObject struct {
	data         []byte
	metadata     map[string]string
	lastModified time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memObject)}
}

func (m *MemoryStore) List(_ context.Context, prefix string, recursive bool) ([]domain.ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.ObjectInfo
	for key, obj := range m.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if !recursive && strings.Contains(key[len(prefix):], "/") {
			continue
		}
		out = append(out, domain.ObjectInfo{
			Key:          key,
			Size:         int64(len(obj.data)),
			LastModified: obj.lastModified,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *MemoryStore) Read(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	if !ok {
		return nil, domain.ErrObjectNotFound(key)
	}
	data := make([]byte, len(obj.data))
	copy(data, obj.data)
	return data, nil
}

func (m *MemoryStore) Write(_ context.Context, key string, data []byte, metadata map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	m.objects[key] = memObject{
		data:         stored,
		metadata:     metadata,
		lastModified: time.Now().UTC(),
	}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.objects, key)
	return nil
}

func (m *MemoryStore) Exists(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.objects[key]
	return ok, nil
}

func (m *MemoryStore) LastModified(_ context.Context, key string) (*time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	if !ok {
		return nil, nil
	}
	ts := obj.lastModified
	return &ts, nil
}

func (m *MemoryStore) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	if m.PresignErr != nil {
		if err := m.PresignErr(key); err != nil {
			return "", domain.ErrStoreUnavailable("presign", key, err)
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.objects[key]; !ok {
		return "", domain.ErrObjectNotFound(key)
	}
	expires := time.Now().UTC().Add(ttl).Unix()
	return fmt.Sprintf("https://memstore.local/%s?X-Amz-Expires=%d", key, expires), nil
}

// Metadata returns the metadata stored with key, for test assertions.
func (m *MemoryStore) Metadata(key string) map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.objects[key].metadata
}
