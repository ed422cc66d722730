package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/secondbrain/core"
	"github.com/poiesic/secondbrain/storage"
)

// VectorStore implements storage.VectorStore for BadgerDB.
// Records of one namespace share a fixed-width key prefix derived from a
// BLAKE2b digest of the namespace.
type VectorStore struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.VectorStore = (*VectorStore)(nil)

// NewVectorStore creates a new VectorStore.
func NewVectorStore(backend *Backend) *VectorStore {
	return &VectorStore{
		backend: backend,
		logger:  slog.Default().With("component", "badger-vectors"),
	}
}

// Close is a no-op; the backend is closed by its owner.
func (s *VectorStore) Close() error {
	return nil
}

// Upsert inserts or replaces records by ID within namespace.
func (s *VectorStore) Upsert(ctx context.Context, namespace string, records ...*core.VectorRecord) error {
	if namespace == "" {
		return storage.ErrInvalidNamespace
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	values := make([][]byte, len(records))
	for i, record := range records {
		if err := core.ValidateVectorRecord(record); err != nil {
			return err
		}
		record.Namespace = namespace
		value, err := storage.MarshalVectorRecord(record)
		if err != nil {
			return err
		}
		values[i] = value
	}

	return s.backend.update(func(tx *badger.Txn) error {
		for i, record := range records {
			if err := tx.Set(makeVectorKey(namespace, record.ID), values[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// Fetch retrieves one record from a namespace.
func (s *VectorStore) Fetch(ctx context.Context, namespace, id string) (*core.VectorRecord, error) {
	if namespace == "" {
		return nil, storage.ErrInvalidNamespace
	}

	var record *core.VectorRecord
	err := s.backend.view(func(tx *badger.Txn) error {
		item, err := tx.Get(makeVectorKey(namespace, id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: vector %s/%s", storage.ErrNotFound, namespace, id)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			record, err = storage.UnmarshalVectorRecord(val)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	// Digest collision: the key belongs to another namespace.
	if record.Namespace != namespace {
		return nil, fmt.Errorf("%w: vector %s/%s", storage.ErrNotFound, namespace, id)
	}
	return record, nil
}

// Query scans the selected namespaces and ranks records by dot product.
func (s *VectorStore) Query(ctx context.Context, q storage.VectorQuery) ([]*core.SearchResult, error) {
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", storage.ErrInvalidQuery)
	}

	prefix := []byte(vectorRecordPrefix)
	if q.Namespace != "" {
		prefix = makeVectorNamespacePrefix(q.Namespace)
	}

	var results []*core.SearchResult
	err := s.backend.view(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var record *core.VectorRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalVectorRecord(val)
				return err
			})
			if err != nil {
				return err
			}

			if !matches(record, q) {
				continue
			}

			if len(record.Vector) != len(q.Vector) {
				return fmt.Errorf("%w: record %s/%s has %d dimensions, query has %d",
					storage.ErrDimensionMismatch, record.Namespace, record.ID, len(record.Vector), len(q.Vector))
			}

			similarity := dotProduct(q.Vector, record.Vector)
			if similarity >= q.MinSimilarity {
				results = append(results, &core.SearchResult{
					Record: record,
					Score:  similarity,
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortFunc(results, func(a, b *core.SearchResult) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}

	s.logger.Debug("vector query", "namespace", q.Namespace, "prefix", q.NamespacePrefix, "hits", len(results))
	return results, nil
}

// DeleteNamespace removes every record stored under namespace. Keys that
// share the digest prefix but belong to another namespace are kept.
func (s *VectorStore) DeleteNamespace(ctx context.Context, namespace string) error {
	if namespace == "" {
		return storage.ErrInvalidNamespace
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.backend.update(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeVectorNamespacePrefix(namespace)
		iter := tx.NewIterator(opts)

		var keys [][]byte
		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record *core.VectorRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalVectorRecord(val)
				return err
			})
			if err != nil {
				iter.Close()
				return err
			}
			if record.Namespace == namespace {
				keys = append(keys, iter.Item().KeyCopy(nil))
			}
		}
		iter.Close()

		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		s.logger.Debug("deleted namespace", "namespace", namespace, "records", len(keys))
		return nil
	})
}

// matches applies the namespace and metadata filters of q to record.
func matches(record *core.VectorRecord, q storage.VectorQuery) bool {
	switch {
	case q.Namespace != "":
		if record.Namespace != q.Namespace {
			return false
		}
	case q.NamespacePrefix != "":
		if !strings.HasPrefix(record.Namespace, q.NamespacePrefix) {
			return false
		}
	}
	for k, v := range q.Filter {
		if record.Metadata[k] != v {
			return false
		}
	}
	return true
}
