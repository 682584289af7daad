package abstractions

import "context"

// KeyValueStore is the raw persistence primitive behind the storage layer.
// All values are UTF-8 JSON text. Implementations must confine side effects
// to the keys they are asked to touch.
type KeyValueStore interface {
	// SetItem stores a value under a key, overwriting any previous value
	SetItem(ctx context.Context, key, value string) error

	// GetItem retrieves the value for a key. A missing key yields ("", false, nil)
	GetItem(ctx context.Context, key string) (string, bool, error)

	// RemoveItem deletes a key. Removing a missing key is not an error
	RemoveItem(ctx context.Context, key string) error

	// MultiRemove deletes several keys in one call
	MultiRemove(ctx context.Context, keys []string) error

	// GetAllKeys lists every key currently stored
	GetAllKeys(ctx context.Context) ([]string, error)
}
