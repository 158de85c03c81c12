package blobstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/boltdb/bolt"
	"github.com/google/uuid"
)

var (
	metaBucket    = []byte("meta")
	contentBucket = []byte("content")
)

// BoltStore keeps metadata and content in two buckets of one bolt file,
// keyed by the blob id.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens (creating if needed) the bolt file at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	bdb, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open bolt file %s: %w", path, err)
	}
	err = bdb.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{metaBucket, contentBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		bdb.Close()
		return nil, fmt.Errorf("create bolt buckets: %w", err)
	}
	return &BoltStore{db: bdb}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) Put(_ context.Context, meta Metadata, content io.Reader) (*Metadata, error) {
	meta, data, err := prepare(meta, content)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode blob metadata: %w", err)
	}

	key := []byte(meta.ID.String())
	err = s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(metaBucket).Put(key, encoded); err != nil {
			return err
		}
		return tx.Bucket(contentBucket).Put(key, data)
	})
	if err != nil {
		return nil, fmt.Errorf("store blob: %w", err)
	}
	return &meta, nil
}

func (s *BoltStore) Get(_ context.Context, id uuid.UUID) (io.ReadCloser, *Metadata, error) {
	var (
		meta *Metadata
		data []byte
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		key := []byte(id.String())
		m, err := decodeMeta(tx.Bucket(metaBucket).Get(key))
		if err != nil {
			return err
		}
		meta = m
		// bolt memory is only valid inside the transaction.
		data = append([]byte(nil), tx.Bucket(contentBucket).Get(key)...)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return readCloser(data), meta, nil
}

func (s *BoltStore) Stat(_ context.Context, ownerID, id uuid.UUID) (*Metadata, error) {
	var meta *Metadata
	err := s.db.View(func(tx *bolt.Tx) error {
		m, err := decodeMeta(tx.Bucket(metaBucket).Get([]byte(id.String())))
		if err != nil {
			return err
		}
		if m.OwnerID != ownerID {
			return ErrBlobNotFound
		}
		meta = m
		return nil
	})
	return meta, err
}

func (s *BoltStore) Delete(_ context.Context, ownerID, id uuid.UUID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		key := []byte(id.String())
		m, err := decodeMeta(tx.Bucket(metaBucket).Get(key))
		if err != nil {
			return err
		}
		if m.OwnerID != ownerID {
			return ErrBlobNotFound
		}
		if err := tx.Bucket(metaBucket).Delete(key); err != nil {
			return err
		}
		return tx.Bucket(contentBucket).Delete(key)
	})
}

func (s *BoltStore) List(_ context.Context, ownerID uuid.UUID, category string) ([]*Metadata, error) {
	out := []*Metadata{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(metaBucket).ForEach(func(_, v []byte) error {
			m, err := decodeMeta(v)
			if err != nil {
				return err
			}
			if m.OwnerID != ownerID || (category != "" && m.Category != category) {
				return nil
			}
			out = append(out, m)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortNewestFirst(out)
	return out, nil
}

func decodeMeta(raw []byte) (*Metadata, error) {
	if raw == nil {
		return nil, ErrBlobNotFound
	}
	var m Metadata
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode blob metadata: %w", err)
	}
	return &m, nil
}
