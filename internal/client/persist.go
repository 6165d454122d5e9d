package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"codenotes/internal/platform/logger"

	"github.com/dgraph-io/badger/v4"
)

// StorageKey is the single record the client state lives under.
const StorageKey = "coding-notes-storage"

// Persister stores the client state between runs.
type Persister interface {
	// Load returns the saved state, or nil when nothing has been saved.
	Load() (*State, error)
	Save(State) error
	Clear() error
}

// BadgerPersister keeps the state as one JSON value in a badger database.
type BadgerPersister struct {
	db *badger.DB
}

// OpenBadgerPersister opens (creating if needed) a database under dir.
// An empty dir opens an in-memory database.
func OpenBadgerPersister(dir string, log *logger.Logger) (*BadgerPersister, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create state directory %s: %w", dir, err)
		}
		opts = badger.DefaultOptions(dir).WithSyncWrites(true)
	}
	opts = opts.WithNumVersionsToKeep(1)
	if log != nil {
		opts = opts.WithLogger(badgerLogger{log: log.With("component", "badger")})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &BadgerPersister{db: db}, nil
}

func (p *BadgerPersister) Load() (*State, error) {
	var state *State
	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(StorageKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var s State
			if err := json.Unmarshal(val, &s); err != nil {
				return fmt.Errorf("decode stored state: %w", err)
			}
			state = &s
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("badgerPersister.Load: %w", err)
	}
	return state, nil
}

func (p *BadgerPersister) Save(s State) error {
	buf, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("badgerPersister.Save: encode: %w", err)
	}
	if err := p.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(StorageKey), buf)
	}); err != nil {
		return fmt.Errorf("badgerPersister.Save: %w", err)
	}
	return nil
}

func (p *BadgerPersister) Clear() error {
	if err := p.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(StorageKey))
	}); err != nil {
		return fmt.Errorf("badgerPersister.Clear: %w", err)
	}
	return nil
}

func (p *BadgerPersister) Close() error {
	return p.db.Close()
}

// badgerLogger routes badger's internal logging into ours. Badger is chatty
// at info level, so that goes to debug.
type badgerLogger struct {
	log *logger.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, args...))
}
