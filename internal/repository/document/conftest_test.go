package document

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/kailas-cloud/bucketdb/internal/db"
)

const testPrefix = "bucketdb:"

// memStore is an in-memory store implementing the consumer interface.
type memStore struct {
	mu     sync.Mutex
	kv     map[string][]byte
	hashes map[string]map[string]string
}

func newMemStore() *memStore {
	return &memStore{kv: map[string][]byte{}, hashes: map[string]map[string]string{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.kv[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memStore) MGet(_ context.Context, keys []string) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(keys))
	for i, key := range keys {
		out[i] = m.kv[key]
	}
	return out, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kv[key] = value
	return nil
}

func (m *memStore) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.kv, key)
	delete(m.hashes, key)
	return nil
}

func (m *memStore) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, inKV := m.kv[key]
	_, inHash := m.hashes[key]
	return inKV || inHash, nil
}

func (m *memStore) Scan(_ context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for k := range m.kv {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	for k := range m.hashes {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (m *memStore) HSet(_ context.Context, key string, fields map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hashes[key]
	if !ok {
		h = map[string]string{}
		m.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

func (m *memStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]string{}
	for k, v := range m.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (m *memStore) HDel(_ context.Context, key string, fields ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range fields {
		delete(m.hashes[key], f)
	}
	return nil
}

func newTestRepo(t *testing.T, maxRecords int) (*Repo, *memStore) {
	t.Helper()
	ms := newMemStore()
	return New(ms, testPrefix, maxRecords), ms
}
