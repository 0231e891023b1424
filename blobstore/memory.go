package blobstore

import (
	"bytes"
	"context"
	"io"
	"slices"
	"strings"
	"sync"
)

// MemoryStore keeps artifacts in a map. Used by tests and dry runs.
type MemoryStore struct {
	mu        sync.RWMutex
	artifacts map[string][]byte
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{artifacts: make(map[string][]byte)}
}

func (m *MemoryStore) Open(_ context.Context, name string) (Artifact, error) {
	m.mu.RLock()
	data, ok := m.artifacts[name]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	// Committed slices are never mutated, so readers can share them.
	return nopCloser{bytes.NewReader(data)}, nil
}

func (m *MemoryStore) Create(_ context.Context, name string) (Writer, error) {
	return &pendingBuffer{store: m, name: name}, nil
}

func (m *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	for name := range m.artifacts {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// Len returns the number of committed artifacts.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.artifacts)
}

type nopCloser struct{ *bytes.Reader }

func (nopCloser) Close() error { return nil }

type pendingBuffer struct {
	bytes.Buffer
	store *MemoryStore
	name  string
	done  bool
}

func (p *pendingBuffer) Commit() error {
	if p.done {
		return io.ErrClosedPipe
	}
	p.done = true

	p.store.mu.Lock()
	p.store.artifacts[p.name] = bytes.Clone(p.Bytes())
	p.store.mu.Unlock()
	return nil
}

func (p *pendingBuffer) Discard() error {
	p.done = true
	p.Reset()
	return nil
}
