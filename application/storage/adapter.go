package storage

import (
	"context"
	"encoding/json"

	"notevault/infrastructure/persistence/abstractions"
	pkgerrors "notevault/pkg/errors"

	"go.uber.org/zap"
)

// Adapter wraps the raw key-value primitive with JSON serialization and
// error classification. It touches exactly the key it is asked about and
// nothing else; everything above it deals in typed values or verbatim raw
// text, never both at once.
type Adapter struct {
	store  abstractions.KeyValueStore
	logger *zap.Logger
}

// NewAdapter creates a validated key-value adapter
func NewAdapter(store abstractions.KeyValueStore, logger *zap.Logger) *Adapter {
	return &Adapter{
		store:  store,
		logger: logger,
	}
}

// Set serializes a value to JSON and stores it under the key
func (a *Adapter) Set(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return pkgerrors.NewStorageError("serialize "+key, err)
	}
	return a.SetRaw(ctx, key, string(raw))
}

// Get retrieves and deserializes the value for a key into dest.
// Returns false when the key is absent.
func (a *Adapter) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, found, err := a.GetRaw(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return true, pkgerrors.NewStorageError("deserialize "+key, err)
	}
	return true, nil
}

// SetRaw stores pre-serialized text under a key
func (a *Adapter) SetRaw(ctx context.Context, key, raw string) error {
	if err := a.store.SetItem(ctx, key, raw); err != nil {
		return pkgerrors.NewStorageError("set "+key, err)
	}
	return nil
}

// GetRaw retrieves the verbatim stored text for a key
func (a *Adapter) GetRaw(ctx context.Context, key string) (string, bool, error) {
	raw, found, err := a.store.GetItem(ctx, key)
	if err != nil {
		return "", false, pkgerrors.NewStorageError("get "+key, err)
	}
	return raw, found, nil
}

// Remove deletes a key
func (a *Adapter) Remove(ctx context.Context, key string) error {
	if err := a.store.RemoveItem(ctx, key); err != nil {
		return pkgerrors.NewStorageError("remove "+key, err)
	}
	return nil
}

// MultiRemove deletes several keys in one call
func (a *Adapter) MultiRemove(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := a.store.MultiRemove(ctx, keys); err != nil {
		return pkgerrors.NewStorageError("multi-remove", err)
	}
	return nil
}

// Keys lists every key in the underlying store
func (a *Adapter) Keys(ctx context.Context) ([]string, error) {
	keys, err := a.store.GetAllKeys(ctx)
	if err != nil {
		return nil, pkgerrors.NewStorageError("list keys", err)
	}
	return keys, nil
}
