package store

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"tinyrag/internal/domain"
)

// CurrentSchemaVersion is the bolt storage format version.
// Increment this when making breaking changes to the record encoding.
const CurrentSchemaVersion = 1

var keySchemaInfo = []byte("schema_info")

// SchemaInfo is persisted in the meta bucket. The dimension is fixed by the
// first EnsureSchema call.
type SchemaInfo struct {
	Version   int `json:"version"`
	Dimension int `json:"dimension"`
}

// SchemaInfo returns the stored schema info, zero-valued if the schema has
// not been created yet.
func (s *BoltStore) SchemaInfo() (*SchemaInfo, error) {
	var info SchemaInfo
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		info, err = readSchemaInfo(tx)
		return err
	})
	return &info, err
}

func readSchemaInfo(tx *bbolt.Tx) (SchemaInfo, error) {
	var info SchemaInfo
	b := tx.Bucket(bucketMeta)
	if b == nil {
		return info, nil
	}
	data := b.Get(keySchemaInfo)
	if data == nil {
		return info, nil
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return info, fmt.Errorf("failed to decode schema info: %w", err)
	}
	return info, nil
}

// migrate brings the schema to CurrentSchemaVersion and verifies the stored
// dimension. It runs inside the caller's write transaction, so concurrent
// callers are serialised by bbolt.
func migrate(tx *bbolt.Tx, dimension int) error {
	info, err := readSchemaInfo(tx)
	if err != nil {
		return err
	}

	switch {
	case info.Version > CurrentSchemaVersion:
		return fmt.Errorf("database created by newer version (v%d > v%d)", info.Version, CurrentSchemaVersion)
	case info.Version != 0 && info.Dimension != dimension:
		return fmt.Errorf("%w: store holds %d-dimensional vectors, configured %d",
			domain.ErrDimensionMismatch, info.Dimension, dimension)
	case info.Version == CurrentSchemaVersion:
		return nil
	}

	data, err := json.Marshal(SchemaInfo{Version: CurrentSchemaVersion, Dimension: dimension})
	if err != nil {
		return err
	}
	return tx.Bucket(bucketMeta).Put(keySchemaInfo, data)
}
