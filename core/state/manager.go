package state

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"contentledger/storage"
)

// Manager provides typed, RLP-encoded access to the ledger's persistent
// tables over a raw key-value database. One manager is constructed per
// transaction; the host serializes transactions, so the manager itself
// carries no locking.
type Manager struct {
	db storage.Database
}

// NewManager wraps the supplied database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func (m *Manager) withDB() (storage.Database, error) {
	if m == nil || m.db == nil {
		return nil, fmt.Errorf("state: database not configured")
	}
	return m.db, nil
}

// KVPut RLP-encodes the value and stores it under the key.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	db, err := m.withDB()
	if err != nil {
		return err
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", key, err)
	}
	return db.Put(key, encoded)
}

// KVGet loads and decodes the value stored under the key. The boolean
// reports whether the key existed.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	db, err := m.withDB()
	if err != nil {
		return false, err
	}
	data, err := db.Get(key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, fmt.Errorf("state: decode %q: %w", key, err)
	}
	return true, nil
}

// KVDelete removes the key if present.
func (m *Manager) KVDelete(key []byte) error {
	db, err := m.withDB()
	if err != nil {
		return err
	}
	return db.Delete(key)
}
