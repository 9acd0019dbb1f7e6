// Package store provides persistent cross-session telemetry for the engine
// process: total positions searched, total searches run, and the last NNUE
// network path used, loaded at startup and flushed on quit.
package store

import (
	"encoding/json"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const keyTelemetry = "telemetry"

// Telemetry accumulates engine-lifetime statistics across process restarts.
type Telemetry struct {
	TotalSearches        int64     `json:"total_searches"`
	TotalPositionsSearch int64     `json:"total_positions_searched"`
	LastNetworkPath      string    `json:"last_network_path"`
	LastStartedAt        time.Time `json:"last_started_at"`
}

// NewTelemetry returns zero-valued telemetry stamped with the current time.
func NewTelemetry() *Telemetry {
	return &Telemetry{LastStartedAt: time.Now()}
}

// Store wraps BadgerDB for engine-lifetime persistence.
type Store struct {
	db *badger.DB
}

// Open opens (creating if necessary) the engine's telemetry database at the
// platform-specific data directory.
func Open() (*Store, error) {
	dbDir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	return OpenAt(dbDir)
}

// OpenAt opens the telemetry database at an explicit directory, mainly for
// tests that want an isolated temp directory.
func OpenAt(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// LoadTelemetry loads accumulated telemetry, returning a fresh record if
// none has been saved yet.
func (s *Store) LoadTelemetry() (*Telemetry, error) {
	t := NewTelemetry()

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyTelemetry))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, t)
		})
	})

	return t, err
}

// SaveTelemetry persists telemetry.
func (s *Store) SaveTelemetry(t *Telemetry) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyTelemetry), data)
	})
}

// RecordStartup stamps telemetry with this process's start time and, if
// given, the network file it loaded, without touching the search/position
// counters — those only advance through RecordSearch.
func (s *Store) RecordStartup(networkPath string) error {
	t, err := s.LoadTelemetry()
	if err != nil {
		return err
	}

	t.LastStartedAt = time.Now()
	if networkPath != "" {
		t.LastNetworkPath = networkPath
	}

	return s.SaveTelemetry(t)
}

// RecordSearch updates telemetry after a completed search and persists it.
func (s *Store) RecordSearch(positionsSearched uint64, networkPath string) error {
	t, err := s.LoadTelemetry()
	if err != nil {
		return err
	}

	t.TotalSearches++
	t.TotalPositionsSearch += int64(positionsSearched)
	if networkPath != "" {
		t.LastNetworkPath = networkPath
	}

	return s.SaveTelemetry(t)
}
