package state

import (
	"context"
	"sync"

	"github.com/goliatone/go-attrs/record"
)

// MemoryStore is a minimal in-memory Store implementation intended for tests
// and examples. It uses Ref.Identifier() as its deterministic key and makes
// no persistence assumptions beyond that.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryEntry
}

type memoryEntry struct {
	rec  *record.Record
	meta Meta
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]memoryEntry{}}
}

func (s *MemoryStore) Load(_ context.Context, ref Ref) (*record.Record, Meta, bool, error) {
	key, err := ref.Identifier()
	if err != nil {
		return nil, Meta{}, false, err
	}

	s.mu.RLock()
	entry, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return nil, Meta{}, false, nil
	}
	return record.New(entry.rec.Values()), cloneMeta(entry.meta), true, nil
}

func (s *MemoryStore) Save(_ context.Context, ref Ref, rec *record.Record, meta Meta) (Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}

	s.mu.Lock()
	s.records[key] = memoryEntry{rec: record.New(rec.Values()), meta: cloneMeta(meta)}
	s.mu.Unlock()
	return cloneMeta(meta), nil
}

func cloneMeta(meta Meta) Meta {
	out := meta
	if meta.Extra == nil {
		return out
	}
	out.Extra = make(map[string]string, len(meta.Extra))
	for k, v := range meta.Extra {
		out.Extra[k] = v
	}
	return out
}
