// Package store persists chunking results in a BadgerDB keyspace. Batches
// live under results_<id>_<index> keys for the workflow to page through, and
// the flattened chunk document lives under a namespace/document key for
// direct retrieval.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"ingestd/internal/chunker"
)

// ErrNotFound reports a missing document or batch.
var ErrNotFound = errors.New("not found")

// BatchIndexToken is the placeholder the workflow substitutes with a batch
// index when reading batches back.
const BatchIndexToken = "[BATCH_INDEX]"

// Store wraps a BadgerDB instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// badgerLoggerAdapter adapts slog.Logger to the badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// Open opens a BadgerDB database at the given path, creating the directory if
// needed. An empty path with inMemory set opens an ephemeral database.
func Open(filePath string, inMemory bool) (*Store, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(filePath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
			if err := os.MkdirAll(filePath, 0755); err != nil {
				return nil, err
			}
			info, err = os.Stat(filePath)
			if err != nil {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		opts = badger.DefaultOptions(filePath)
	}

	opts.Logger = &badgerLoggerAdapter{logger: slog.Default()}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Store{db: db, logger: slog.Default()}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// BatchKey returns the storage key for one batch of a results set.
func BatchKey(resultsID string, index int) []byte {
	return []byte(fmt.Sprintf("results_%s_%d", resultsID, index))
}

// BatchKeyTemplate returns the key pattern handed to the calling workflow,
// with BatchIndexToken standing in for the batch index.
func BatchKeyTemplate(resultsID string) string {
	return fmt.Sprintf("results_%s_%s", resultsID, BatchIndexToken)
}

// documentKey addresses the flattened chunk payload for one document.
func documentKey(namespaceID, documentID string) []byte {
	return []byte(fmt.Sprintf("namespaces/%s/documents/%s/chunks", namespaceID, documentID))
}

// PutBatches writes every batch of a results set in one transaction per batch.
func (s *Store) PutBatches(resultsID string, batches [][]chunker.Chunk) error {
	for i, batch := range batches {
		value, err := json.Marshal(batch)
		if err != nil {
			return fmt.Errorf("marshal batch %d: %w", i, err)
		}
		err = s.db.Update(func(tx *badger.Txn) error {
			return tx.Set(BatchKey(resultsID, i), value)
		})
		if err != nil {
			return fmt.Errorf("store batch %d: %w", i, err)
		}
	}
	return nil
}

// GetBatch reads one batch of a results set.
func (s *Store) GetBatch(resultsID string, index int) ([]chunker.Chunk, error) {
	var batch []chunker.Chunk
	err := s.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get(BatchKey(resultsID, index))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("batch %s/%d: %w", resultsID, index, ErrNotFound)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &batch)
		})
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// ChunkDocument is the flattened per-document payload handed to downstream
// consumers.
type ChunkDocument struct {
	Metadata        map[string]any  `json:"metadata"`
	TotalChunks     int             `json:"total_chunks"`
	TotalCharacters int             `json:"total_characters"`
	Chunks          []chunker.Chunk `json:"chunks"`
}

// PutChunkDocument stores the flattened chunk payload for a document.
func (s *Store) PutChunkDocument(namespaceID, documentID string, doc ChunkDocument) error {
	if doc.Metadata == nil {
		doc.Metadata = map[string]any{}
	}
	value, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal chunk document: %w", err)
	}
	return s.db.Update(func(tx *badger.Txn) error {
		return tx.Set(documentKey(namespaceID, documentID), value)
	})
}

// GetChunkDocument reads the flattened chunk payload for a document.
func (s *Store) GetChunkDocument(namespaceID, documentID string) (*ChunkDocument, error) {
	var doc ChunkDocument
	err := s.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get(documentKey(namespaceID, documentID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("document %s/%s: %w", namespaceID, documentID, ErrNotFound)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &doc)
		})
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// DeleteDocument removes the flattened chunk payload for a document.
func (s *Store) DeleteDocument(namespaceID, documentID string) error {
	return s.db.Update(func(tx *badger.Txn) error {
		return tx.Delete(documentKey(namespaceID, documentID))
	})
}

// ListDocuments returns the document ids stored under a namespace.
func (s *Store) ListDocuments(namespaceID string) ([]string, error) {
	prefix := []byte(fmt.Sprintf("namespaces/%s/documents/", namespaceID))
	var ids []string
	err := s.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := string(iter.Item().Key())
			rest := strings.TrimPrefix(key, string(prefix))
			id, _, ok := strings.Cut(rest, "/")
			if ok && id != "" {
				ids = append(ids, id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
