package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"tinyrag/internal/domain"
)

var (
	bucketRecords = []byte("documents")
	bucketMeta    = []byte("meta")
)

// DefaultLockTimeout bounds how long Open waits for another process holding
// the database file.
const DefaultLockTimeout = 5 * time.Second

// BoltStore is an embedded vector store backed by a single bbolt file.
// Search is brute force over every record.
type BoltStore struct {
	db        *bbolt.DB
	dimension int
}

func NewBoltStore(path string, dimension int) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: DefaultLockTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db %s: %w", path, err)
	}
	return &BoltStore{db: db, dimension: dimension}, nil
}

func (s *BoltStore) EnsureSchema(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return s.ensureTx(tx)
	})
}

func (s *BoltStore) ensureTx(tx *bbolt.Tx) error {
	for _, name := range [][]byte{bucketRecords, bucketMeta} {
		if _, err := tx.CreateBucketIfNotExists(name); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", name, err)
		}
	}
	return migrate(tx, s.dimension)
}

func (s *BoltStore) Insert(ctx context.Context, chunks []string, vectors [][]float32, ticker, source string) error {
	if err := validateInsert(chunks, vectors, s.dimension); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// A single transaction: any failure rolls back every row.
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := s.ensureTx(tx); err != nil {
			return err
		}
		b := tx.Bucket(bucketRecords)

		for i := range chunks {
			id, err := b.NextSequence()
			if err != nil {
				return fmt.Errorf("failed to allocate record id: %w", err)
			}
			data, err := json.Marshal(record{
				Content:   chunks[i],
				Embedding: vectors[i],
				Ticker:    ticker,
				Source:    source,
			})
			if err != nil {
				return err
			}
			if err := b.Put(recordKey(id), data); err != nil {
				return fmt.Errorf("failed to store record: %w", err)
			}
		}
		return nil
	})
}

func (s *BoltStore) Query(ctx context.Context, vector []float32, k int, ticker string) ([]domain.ContextResult, error) {
	if err := validateQuery(vector, k, s.dimension); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []record
	err := s.db.View(func(tx *bbolt.Tx) error {
		info, err := readSchemaInfo(tx)
		if err != nil {
			return err
		}
		if info.Version != 0 && info.Dimension != s.dimension {
			return fmt.Errorf("%w: store holds %d-dimensional vectors, configured %d",
				domain.ErrDimensionMismatch, info.Dimension, s.dimension)
		}
		b := tx.Bucket(bucketRecords)
		if b == nil {
			return nil
		}
		// Keys are big-endian sequence numbers, so cursor order is insertion order.
		return b.ForEach(func(k, v []byte) error {
			var r record
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("corrupt record %d: %w", binary.BigEndian.Uint64(k), err)
			}
			if ticker != "" && r.Ticker != ticker {
				return nil
			}
			r.ID = binary.BigEndian.Uint64(k)
			records = append(records, r)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return rank(vector, records, k, ticker)
}

// Count returns the number of stored records.
func (s *BoltStore) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(bucketRecords); b != nil {
			n = b.Stats().KeyN
		}
		return nil
	})
	return n, err
}

func (s *BoltStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bbolt.Tx) error { return nil })
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func recordKey(id uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, id)
	return key
}
