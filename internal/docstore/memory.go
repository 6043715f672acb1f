package docstore

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store. Documents are deep-copied on the way
// in and out so callers never share state with the store.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]Fields
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]Fields)}
}

func (m *MemoryStore) Get(ctx context.Context, path string) (Fields, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if err := ValidatePath(path); err != nil {
		return nil, false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[path]
	if !ok {
		return nil, false, nil
	}
	return Clone(doc), true, nil
}

func (m *MemoryStore) Set(ctx context.Context, path string, fields Fields, opts SetOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidatePath(path); err != nil {
		return err
	}
	in, err := Normalize(fields)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.docs[path]; ok && opts.Merge {
		m.docs[path] = Merge(existing, in)
		return nil
	}
	if in == nil {
		in = Fields{}
	}
	m.docs[path] = in
	return nil
}

// Len reports the number of stored documents.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}
