package tablestore

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/lexgen/lexgen/automaton"
)

// MemoryStore keeps the most recently used documents in memory.
type MemoryStore struct {
	cache *lru.Cache[string, *automaton.Document]
}

// NewMemoryStore creates a memory store holding at most size documents.
func NewMemoryStore(size int) (*MemoryStore, error) {
	cache, err := lru.New[string, *automaton.Document](size)
	if err != nil {
		return nil, fmt.Errorf("creating memory table store: %w", err)
	}
	return &MemoryStore{cache: cache}, nil
}

// Get returns a cached document.
func (m *MemoryStore) Get(ctx context.Context, digest string) (*automaton.Document, bool, error) {
	if err := checkDigest(digest); err != nil {
		return nil, false, err
	}
	doc, ok := m.cache.Get(digest)
	return doc, ok, nil
}

// Put caches a document, evicting the least recently used one when full.
func (m *MemoryStore) Put(ctx context.Context, digest string, doc *automaton.Document) error {
	if err := checkDigest(digest); err != nil {
		return err
	}
	m.cache.Add(digest, doc)
	return nil
}

// Len is the number of cached documents.
func (m *MemoryStore) Len() int {
	return m.cache.Len()
}

// Close drops every cached document.
func (m *MemoryStore) Close() error {
	m.cache.Purge()
	return nil
}
