// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/jeranaias/chatwith/internal/model"
)

// =============================================================================
// BOLT STORE
// =============================================================================

// BoltStore persists turns in a bbolt bucket. Keys are big-endian sequence
// numbers from the bucket, so ids are never reused.
//
// bbolt holds an exclusive file lock, so only one process can open the
// database at a time.
type BoltStore struct {
	db   *bolt.DB
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// boltRecord is the stored JSON value.
type boltRecord struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	CreatedAt int64  `json:"created_at"` // unix nanoseconds
}

// OpenBolt opens (creating if needed) the bbolt database at path.
func OpenBolt(path string) (*BoltStore, error) {
	if err := ensureParentDir(path); err != nil {
		return nil, unavailable("create database directory", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, unavailable("open database", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, unavailable("initialize bucket", err)
	}

	return &BoltStore{
		db:   db,
		path: path,
		now:  time.Now,
	}, nil
}

// Path returns the database file path.
func (s *BoltStore) Path() string {
	return s.path
}

// ListAll returns every turn, newest first. Malformed records are skipped.
func (s *BoltStore) ListAll(ctx context.Context) ([]model.Turn, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("list", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := []model.Turn{}
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(boltBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			turn, err := decodeBoltTurn(k, v)
			if err != nil {
				return nil
			}
			turns = append(turns, *turn)
			return nil
		})
	})
	if err != nil {
		return nil, unavailable("list", err)
	}

	model.SortNewestFirst(turns)
	return turns, nil
}

// Get returns a single turn by id.
func (s *BoltStore) Get(ctx context.Context, id int64) (*model.Turn, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("get", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var turn *model.Turn
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(boltBucket)
		if b == nil {
			return nil
		}
		key := boltKey(id)
		v := b.Get(key)
		if v == nil {
			return nil
		}
		t, err := decodeBoltTurn(key, v)
		if err != nil {
			return err
		}
		turn = t
		return nil
	})
	if err != nil {
		return nil, unavailable("get", err)
	}
	if turn == nil {
		return nil, notFound(id)
	}
	return turn, nil
}

// Create stores a new turn under the bucket's next sequence number.
func (s *BoltStore) Create(ctx context.Context, question, answer string) (*model.Turn, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("create", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := s.now().UnixNano()
	var id int64
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(boltBucket)
		if b == nil {
			return errors.New("turns bucket missing")
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		id = int64(seq)

		data, err := json.Marshal(boltRecord{Question: question, Answer: answer, CreatedAt: createdAt})
		if err != nil {
			return err
		}
		return b.Put(boltKey(id), data)
	})
	if err != nil {
		return nil, unavailable("create", err)
	}

	return &model.Turn{
		ID:        id,
		Question:  question,
		Answer:    answer,
		CreatedAt: time.Unix(0, createdAt),
	}, nil
}

// Delete removes a turn. Absent ids are ignored.
func (s *BoltStore) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return unavailable("delete", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(boltBucket)
		if b == nil {
			return nil
		}
		return b.Delete(boltKey(id))
	})
	if err != nil {
		return unavailable("delete", err)
	}
	return nil
}

// Count returns the number of stored turns.
func (s *BoltStore) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, unavailable("count", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		if b := tx.Bucket(boltBucket); b != nil {
			n = b.Stats().KeyN
		}
		return nil
	})
	if err != nil {
		return 0, unavailable("count", err)
	}
	return n, nil
}

// Close closes the database and releases the file lock.
func (s *BoltStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func boltKey(id int64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(id))
	return key
}

func decodeBoltTurn(k, v []byte) (*model.Turn, error) {
	if len(k) != 8 {
		return nil, errors.New("malformed key")
	}
	var rec boltRecord
	if err := json.Unmarshal(v, &rec); err != nil {
		return nil, err
	}
	return &model.Turn{
		ID:        int64(binary.BigEndian.Uint64(k)),
		Question:  rec.Question,
		Answer:    rec.Answer,
		CreatedAt: time.Unix(0, rec.CreatedAt),
	}, nil
}
