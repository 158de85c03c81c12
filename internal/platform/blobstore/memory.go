package blobstore

import (
	"context"
	"io"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type storedBlob struct {
	metadata Metadata
	content  []byte
}

// MemoryStore keeps files in process memory. Safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[uuid.UUID]*storedBlob
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[uuid.UUID]*storedBlob)}
}

func (s *MemoryStore) Put(_ context.Context, meta Metadata, content io.Reader) (*Metadata, error) {
	meta, data, err := prepare(meta, content)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.blobs[meta.ID] = &storedBlob{metadata: meta, content: data}
	s.mu.Unlock()

	out := meta
	return &out, nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (io.ReadCloser, *Metadata, error) {
	s.mu.RLock()
	blob, ok := s.blobs[id]
	s.mu.RUnlock()

	if !ok {
		return nil, nil, ErrBlobNotFound
	}
	meta := blob.metadata
	return readCloser(blob.content), &meta, nil
}

func (s *MemoryStore) Stat(_ context.Context, ownerID, id uuid.UUID) (*Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blob, ok := s.blobs[id]
	if !ok || blob.metadata.OwnerID != ownerID {
		return nil, ErrBlobNotFound
	}
	meta := blob.metadata
	return &meta, nil
}

func (s *MemoryStore) Delete(_ context.Context, ownerID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, ok := s.blobs[id]
	if !ok || blob.metadata.OwnerID != ownerID {
		return ErrBlobNotFound
	}
	delete(s.blobs, id)
	return nil
}

// List returns the owner's files newest first.
func (s *MemoryStore) List(_ context.Context, ownerID uuid.UUID, category string) ([]*Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*Metadata{}
	for _, b := range s.blobs {
		if b.metadata.OwnerID != ownerID {
			continue
		}
		if category != "" && b.metadata.Category != category {
			continue
		}
		m := b.metadata
		out = append(out, &m)
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(items []*Metadata) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}
