package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/baiirun/worktrack/internal/model"
)

// Logical keys.
const (
	KeySession   = "currentSession"
	KeyWorkItems = "workItems"
)

// Get returns the value stored under key. ok is false when the key is absent.
func (db *DB) Get(key string) (value string, ok bool, err error) {
	err = db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}

// Put stores value under key, replacing any previous value.
func (db *DB) Put(key, value string) error {
	_, err := db.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now())
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (db *DB) Delete(key string) error {
	if _, err := db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// LoadItems returns the persisted collection, or nil when none was saved.
func (db *DB) LoadItems() ([]model.WorkItem, error) {
	raw, ok, err := db.Get(KeyWorkItems)
	if err != nil || !ok {
		return nil, err
	}
	var items []model.WorkItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", KeyWorkItems, err)
	}
	return items, nil
}

// SaveItems writes the whole collection.
func (db *DB) SaveItems(items []model.WorkItem) error {
	if items == nil {
		items = []model.WorkItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", KeyWorkItems, err)
	}
	return db.Put(KeyWorkItems, string(b))
}

// LoadSession returns the persisted session. ok is false when nobody is
// logged in.
func (db *DB) LoadSession() (sess model.Session, ok bool, err error) {
	raw, ok, err := db.Get(KeySession)
	if err != nil || !ok {
		return model.Session{}, false, err
	}
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return model.Session{}, false, fmt.Errorf("failed to decode %s: %w", KeySession, err)
	}
	return sess, true, nil
}

// SaveSession writes the current session.
func (db *DB) SaveSession(sess model.Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", KeySession, err)
	}
	return db.Put(KeySession, string(b))
}

// ClearSession removes the current session.
func (db *DB) ClearSession() error {
	return db.Delete(KeySession)
}
