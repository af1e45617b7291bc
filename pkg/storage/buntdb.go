package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/raykavin/smarttrades/pkg/core"
	"github.com/tidwall/buntdb"
)

const sessionPrefix = "session:"

// BuntSessionStore implements core.SessionStore using BuntDB
type BuntSessionStore struct {
	db *buntdb.DB
}

// FromMemory creates an in-memory session store
func FromMemory() (*BuntSessionStore, error) {
	return NewBuntSessionStore(":memory:")
}

// FromFile creates a file-based session store
func FromFile(file string) (*BuntSessionStore, error) {
	return NewBuntSessionStore(file)
}

// NewBuntSessionStore opens a BuntDB database and syncs every write to disk
func NewBuntSessionStore(sourceFile string) (*BuntSessionStore, error) {
	db, err := buntdb.Open(sourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open buntdb: %w", err)
	}

	var config buntdb.Config
	if err := db.ReadConfig(&config); err != nil {
		return nil, fmt.Errorf("failed to read buntdb config: %w", err)
	}

	config.SyncPolicy = buntdb.Always
	if err := db.SetConfig(config); err != nil {
		return nil, fmt.Errorf("failed to configure buntdb: %w", err)
	}

	err = db.CreateIndex("update_index", sessionPrefix+"*", buntdb.IndexJSON("updated_at"))
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &BuntSessionStore{db: db}, nil
}

func sessionKey(instrument string) string {
	return sessionPrefix + instrument
}

// Load returns the checkpoint of an instrument
func (b *BuntSessionStore) Load(instrument string) (core.Session, error) {
	var session core.Session

	err := b.db.View(func(tx *buntdb.Tx) error {
		value, err := tx.Get(sessionKey(instrument))
		if errors.Is(err, buntdb.ErrNotFound) {
			return core.ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to read session: %w", err)
		}

		if err := json.Unmarshal([]byte(value), &session); err != nil {
			return fmt.Errorf("failed to unmarshal session: %w", err)
		}

		return nil
	})

	return session, err
}

// Save replaces the checkpoint of the session instrument
func (b *BuntSessionStore) Save(session core.Session) error {
	if err := session.Validate(); err != nil {
		return err
	}

	content, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	return b.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(sessionKey(session.Instrument), string(content), nil)
		if err != nil {
			return fmt.Errorf("failed to store session: %w", err)
		}
		return nil
	})
}

// Delete removes the checkpoint of an instrument, a missing checkpoint is not an error
func (b *BuntSessionStore) Delete(instrument string) error {
	return b.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(sessionKey(instrument))
		if err != nil && !errors.Is(err, buntdb.ErrNotFound) {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		return nil
	})
}

// Sessions lists every checkpoint ordered by last update
func (b *BuntSessionStore) Sessions() ([]core.Session, error) {
	sessions := make([]core.Session, 0)

	err := b.db.View(func(tx *buntdb.Tx) error {
		var decodeErr error
		err := tx.Ascend("update_index", func(key, value string) bool {
			var session core.Session
			if err := json.Unmarshal([]byte(value), &session); err != nil {
				decodeErr = fmt.Errorf("failed to unmarshal %s: %w", key, err)
				return false
			}
			sessions = append(sessions, session)
			return true
		})
		if err != nil {
			return fmt.Errorf("failed to iterate over sessions: %w", err)
		}
		return decodeErr
	})

	if err != nil {
		return nil, err
	}

	return sessions, nil
}

// Close closes the database
func (b *BuntSessionStore) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}
