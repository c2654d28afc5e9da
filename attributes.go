package nmi_direct_post

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tidwall/buntdb"
)

// CustomerVaultIDKey is the customer attribute holding the gateway vault id.
const CustomerVaultIDKey = "Nmi.Customer.Vault.Id"

// AttributeStore persists arbitrary per-customer string attributes.
// A missing attribute is reported as "" with a nil error.
type AttributeStore interface {
	GetAttribute(ctx context.Context, customerID, key string) (string, error)
	SaveAttribute(ctx context.Context, customerID, key, value string) error
}

// MemoryAttributeStore is an AttributeStore kept in process memory.
type MemoryAttributeStore struct {
	mu    sync.RWMutex
	attrs map[string]string
}

// NewMemoryAttributeStore returns an empty in-memory store.
func NewMemoryAttributeStore() *MemoryAttributeStore {
	return &MemoryAttributeStore{attrs: make(map[string]string)}
}

// GetAttribute returns the attribute value, or "" when it was never saved.
func (s *MemoryAttributeStore) GetAttribute(_ context.Context, customerID, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attrs[attributeKey(customerID, key)], nil
}

// SaveAttribute sets the attribute, replacing any previous value.
func (s *MemoryAttributeStore) SaveAttribute(_ context.Context, customerID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs[attributeKey(customerID, key)] = value
	return nil
}

// BuntAttributeStore keeps customer attributes in a buntdb file, or in memory
// when opened with ":memory:".
type BuntAttributeStore struct {
	db *buntdb.DB
}

// OpenBuntAttributeStore opens (or creates) the attribute database at path.
func OpenBuntAttributeStore(path string) (*BuntAttributeStore, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("nmi_direct_post: open attribute store %s: %w", path, err)
	}
	return &BuntAttributeStore{db: db}, nil
}

// GetAttribute returns the attribute value, or "" when the key is not in the
// database.
func (s *BuntAttributeStore) GetAttribute(_ context.Context, customerID, key string) (string, error) {
	var value string
	err := s.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(attributeKey(customerID, key))
		if err != nil {
			return err
		}
		value = v
		return nil
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("nmi_direct_post: read attribute %s: %w", key, err)
	}
	return value, nil
}

// SaveAttribute writes the attribute in its own transaction.
func (s *BuntAttributeStore) SaveAttribute(_ context.Context, customerID, key, value string) error {
	err := s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(attributeKey(customerID, key), value, nil)
		return err
	})
	if err != nil {
		return fmt.Errorf("nmi_direct_post: save attribute %s: %w", key, err)
	}
	return nil
}

// Close flushes and closes the underlying database.
func (s *BuntAttributeStore) Close() error {
	return s.db.Close()
}

func attributeKey(customerID, key string) string {
	return "customer:" + customerID + ":" + key
}
