package resource

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	scratchFilePattern = "croquis-locators-*.db"
	LocatorsBucket     = "Locators" // Bucket name for locator to record mapping.
)

// Record is what a Store keeps for a live locator.
type Record struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	MintedAt time.Time `json:"minted_at"`
}

// Store keeps the ledger of live locators.
type Store interface {
	Put(loc Locator, rec Record) error
	Delete(loc Locator) error
	Get(loc Locator) (Record, bool, error)
	Count() (int, error)
	Close() error
}

// MemoryStore is a Store held in a map.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[Locator]Record
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[Locator]Record)}
}

func (s *MemoryStore) Put(loc Locator, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[loc] = rec
	return nil
}

func (s *MemoryStore) Delete(loc Locator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, loc)
	return nil
}

func (s *MemoryStore) Get(loc Locator) (Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[loc]
	return rec, ok, nil
}

func (s *MemoryStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[Locator]Record)
	return nil
}

// BoltStore keeps the locator ledger in a scratch bbolt file that only lives as long as
// the process. Close removes the file.
type BoltStore struct {
	db     *bolt.DB
	path   string
	logger LoggerFunc
}

// NewBoltStore creates a scratch ledger inside dir (the OS temp dir when empty).
func NewBoltStore(dir string, logger LoggerFunc) (*BoltStore, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, scratchFilePattern)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve scratch ledger in %s: %w", dir, err)
	}
	dbPath := f.Name()
	f.Close()

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		os.Remove(dbPath)
		return nil, fmt.Errorf("failed to open locator ledger %s: %w", dbPath, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(LocatorsBucket)); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", LocatorsBucket, err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		os.Remove(dbPath)
		return nil, err
	}

	s := &BoltStore{db: db, path: dbPath, logger: logger}
	s.logMessage("Using locator ledger at: %s", filepath.Clean(dbPath))
	return s, nil
}

func (s *BoltStore) logMessage(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger(fmt.Sprintf(format, args...))
	} else {
		log.Printf(format, args...)
	}
}

// Path returns the scratch file location.
func (s *BoltStore) Path() string {
	return s.path
}

func (s *BoltStore) Put(loc Locator, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record for %s: %w", loc, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(LocatorsBucket))
		if err := bucket.Put([]byte(loc), data); err != nil {
			return fmt.Errorf("failed to put locator %s: %w", loc, err)
		}
		return nil
	})
}

func (s *BoltStore) Delete(loc Locator) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		// Deleting a missing key is a no-op.
		if err := tx.Bucket([]byte(LocatorsBucket)).Delete([]byte(loc)); err != nil {
			return fmt.Errorf("failed to delete locator %s: %w", loc, err)
		}
		return nil
	})
}

// Get returns the stored record for loc.
func (s *BoltStore) Get(loc Locator) (Record, bool, error) {
	var rec Record
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(LocatorsBucket)).Get([]byte(loc))
		if data == nil {
			return nil
		}
		found = true
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("failed to decode record for %s: %w", loc, err)
		}
		return nil
	})
	return rec, found, err
}

func (s *BoltStore) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket([]byte(LocatorsBucket)).Stats().KeyN
		return nil
	})
	return n, err
}

// Close closes the ledger and removes its scratch file.
func (s *BoltStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if rmErr := os.Remove(s.path); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
		err = fmt.Errorf("failed to remove locator ledger %s: %w", s.path, rmErr)
	}
	return err
}
