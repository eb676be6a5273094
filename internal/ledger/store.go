package ledger

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/zombor/receipt-ledger/internal/extraction"
)

const (
	ledgerBucketName   = "ledger"
	settingsBucketName = "settings"

	recordsKey  = "records"
	settingsKey = "settings"
	modelsKey   = "models"
)

// Store defines the interface for ledger and settings persistence.
type Store interface {
	// Append assigns an id and timestamps to the record, inserts it at the
	// front of the ledger, and persists the snapshot.
	Append(rec Record) (*Record, error)

	// Replace substitutes the record with the given id in place, preserving
	// its position in the ordering.
	Replace(id string, rec Record) (*Record, error)

	// Remove deletes the record with the given id.
	Remove(id string) error

	// Clear empties the ledger entirely and irreversibly.
	Clear() error

	// Records returns the full ledger, newest first.
	Records() ([]Record, error)

	// Total returns the sum of amounts across all records.
	Total() (int64, error)

	// Settings returns the persisted settings; absent keys yield defaults.
	Settings() (*Settings, error)

	// SaveSettings persists the settings.
	SaveSettings(s *Settings) error

	// CachedModels returns the last fetched model catalog, nil if never
	// fetched.
	CachedModels() ([]extraction.ModelDescriptor, error)

	// SaveCachedModels persists the model catalog.
	SaveCachedModels(models []extraction.ModelDescriptor) error

	// Close closes the underlying database.
	Close() error
}

// BoltStore implements Store using bbolt. The whole ledger lives under one
// key as a single JSON snapshot; every mutation rewrites it in full inside
// one transaction before returning.
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore opens (or creates) the database file.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(ledgerBucketName)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(settingsBucketName)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Append inserts at the front: the most-recent-first ordering is the
// durable invariant, callers never resort.
func (b *BoltStore) Append(rec Record) (*Record, error) {
	now := time.Now()
	rec.ID = uuid.NewString()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	err := b.mutate(func(records []Record) ([]Record, error) {
		return append([]Record{rec}, records...), nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Replace substitutes the record with the given id, preserving its position.
func (b *BoltStore) Replace(id string, rec Record) (*Record, error) {
	var replaced Record
	err := b.mutate(func(records []Record) ([]Record, error) {
		for i := range records {
			if records[i].ID == id {
				rec.ID = id
				rec.CreatedAt = records[i].CreatedAt
				rec.UpdatedAt = time.Now()
				records[i] = rec
				replaced = rec
				return records, nil
			}
		}
		return nil, ErrRecordNotFound
	})
	if err != nil {
		return nil, err
	}
	return &replaced, nil
}

// Remove deletes the record with the given id, leaving the relative order
// of the remaining records unchanged.
func (b *BoltStore) Remove(id string) error {
	return b.mutate(func(records []Record) ([]Record, error) {
		for i := range records {
			if records[i].ID == id {
				return append(records[:i], records[i+1:]...), nil
			}
		}
		return nil, ErrRecordNotFound
	})
}

// Clear empties the ledger.
func (b *BoltStore) Clear() error {
	return b.mutate(func([]Record) ([]Record, error) {
		return []Record{}, nil
	})
}

// Records returns the current snapshot.
func (b *BoltStore) Records() ([]Record, error) {
	var records []Record
	err := b.db.View(func(tx *bbolt.Tx) error {
		var err error
		records, err = readRecords(tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Total sums the amounts across all records.
func (b *BoltStore) Total() (int64, error) {
	records, err := b.Records()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, r := range records {
		total += r.Amount
	}
	return total, nil
}

// mutate applies fn to the current snapshot and rewrites it in full within
// one transaction. A marshal or write failure surfaces as PersistenceError.
func (b *BoltStore) mutate(fn func([]Record) ([]Record, error)) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		records, err := readRecords(tx)
		if err != nil {
			return err
		}

		updated, err := fn(records)
		if err != nil {
			return err
		}

		data, err := json.Marshal(updated)
		if err != nil {
			return &PersistenceError{Op: "ledger", Err: err}
		}
		if err := tx.Bucket([]byte(ledgerBucketName)).Put([]byte(recordsKey), data); err != nil {
			return &PersistenceError{Op: "ledger", Err: err}
		}
		return nil
	})
}

func readRecords(tx *bbolt.Tx) ([]Record, error) {
	data := tx.Bucket([]byte(ledgerBucketName)).Get([]byte(recordsKey))
	if data == nil {
		return []Record{}, nil
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("unmarshaling ledger: %w", err)
	}
	return records, nil
}

// Close closes the database.
func (b *BoltStore) Close() error {
	return b.db.Close()
}
