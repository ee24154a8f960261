package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cuemby/fabricapi/pkg/apierror"
	"github.com/cuemby/fabricapi/pkg/log"
	"github.com/cuemby/fabricapi/pkg/metrics"
	"github.com/cuemby/fabricapi/pkg/model"
	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// Archive operation label values
const (
	opPut    = "put"
	opGet    = "get"
	opList   = "list"
	opDelete = "delete"
)

// BoltStore implements Store using BoltDB, with one bucket per record type
type BoltStore struct {
	db       *bolt.DB
	registry *model.Registry
}

// NewBoltStore opens (creating if needed) the archive in dataDir. Every
// type in registry gets a bucket.
func NewBoltStore(dataDir string, registry *model.Registry) (*BoltStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "fabricapi.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range registry.Names() {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db, registry: registry}, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) Put(typeName, key string, payload []byte) (entry Entry, err error) {
	defer func() { record(opPut, err) }()

	t, err := s.registry.Lookup(typeName)
	if err != nil {
		return Entry{}, err
	}
	value, err := t.Decode(payload)
	if err != nil {
		return Entry{}, err
	}
	canonical, err := t.Encode(value)
	if err != nil {
		return Entry{}, err
	}
	if key == "" {
		key = uuid.NewString()
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(typeName)).Put([]byte(key), canonical)
	})
	if err != nil {
		return Entry{}, fmt.Errorf("failed to store %s/%s: %w", typeName, key, err)
	}

	logger := log.WithComponent("archive")
	logger.Debug().
		Str("type", typeName).
		Str("key", key).
		Int("bytes", len(canonical)).
		Msg("record archived")

	return Entry{Type: typeName, Key: key, Payload: canonical, Value: value}, nil
}

func (s *BoltStore) Get(typeName, key string) (entry Entry, err error) {
	defer func() { record(opGet, err) }()

	t, err := s.registry.Lookup(typeName)
	if err != nil {
		return Entry{}, err
	}

	var payload []byte
	err = s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(typeName)).Get([]byte(key))
		if data == nil {
			return apierror.NewCode(fmt.Sprintf("%s not found: %s", typeName, key), apierror.CodeNotFound, false)
		}
		// data is only valid inside the transaction
		payload = append([]byte(nil), data...)
		return nil
	})
	if err != nil {
		return Entry{}, err
	}

	value, err := t.Decode(payload)
	if err != nil {
		return Entry{}, fmt.Errorf("archived %s/%s is unreadable: %w", typeName, key, err)
	}
	return Entry{Type: typeName, Key: key, Payload: payload, Value: value}, nil
}

// List returns every record of a type in key order
func (s *BoltStore) List(typeName string) (entries []Entry, err error) {
	defer func() { record(opList, err) }()

	t, err := s.registry.Lookup(typeName)
	if err != nil {
		return nil, err
	}

	err = s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(typeName)).ForEach(func(k, v []byte) error {
			payload := append([]byte(nil), v...)
			value, err := t.Decode(payload)
			if err != nil {
				return fmt.Errorf("archived %s/%s is unreadable: %w", typeName, k, err)
			}
			entries = append(entries, Entry{Type: typeName, Key: string(k), Payload: payload, Value: value})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *BoltStore) Delete(typeName, key string) (err error) {
	defer func() { record(opDelete, err) }()

	if _, err := s.registry.Lookup(typeName); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(typeName)).Delete([]byte(key))
	})
}

func record(operation string, err error) {
	metrics.ArchiveRecordsTotal.WithLabelValues(operation, metrics.Result(err)).Inc()
}
