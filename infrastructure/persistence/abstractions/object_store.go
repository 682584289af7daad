package abstractions

import (
	"context"

	pkgerrors "notevault/pkg/errors"
)

// ObjectStore is the external collaborator that holds backup artifacts.
// Implementations are interchangeable (cloud table, file system, in-memory)
// and offer no transactional guarantees across keys; they may be slow and
// they may fail. Callers must tolerate both.
type ObjectStore interface {
	// SetItem stores a blob under a key
	SetItem(ctx context.Context, key, value string) error

	// GetItem retrieves the blob for a key. A missing key yields ("", false, nil)
	GetItem(ctx context.Context, key string) (string, bool, error)

	// RemoveItem deletes a key
	RemoveItem(ctx context.Context, key string) error

	// GetAllKeys lists every key currently stored
	GetAllKeys(ctx context.Context) ([]string, error)

	// Available reports whether the backing platform exists at all.
	// When false, every other method fails fast.
	Available() bool
}

// UnavailableObjectStore stands in for the object store on platforms where
// no backup transport exists. Every operation fails fast rather than
// attempting a call that cannot succeed.
type UnavailableObjectStore struct {
	serviceName string
}

// NewUnavailableObjectStore creates an object store stub for absent platforms
func NewUnavailableObjectStore(serviceName string) *UnavailableObjectStore {
	if serviceName == "" {
		serviceName = "backup store"
	}
	return &UnavailableObjectStore{serviceName: serviceName}
}

// Available always reports false
func (s *UnavailableObjectStore) Available() bool {
	return false
}

// SetItem fails fast with a platform unavailability error
func (s *UnavailableObjectStore) SetItem(ctx context.Context, key, value string) error {
	return pkgerrors.NewPlatformUnavailableError(s.serviceName)
}

// GetItem fails fast with a platform unavailability error
func (s *UnavailableObjectStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	return "", false, pkgerrors.NewPlatformUnavailableError(s.serviceName)
}

// RemoveItem fails fast with a platform unavailability error
func (s *UnavailableObjectStore) RemoveItem(ctx context.Context, key string) error {
	return pkgerrors.NewPlatformUnavailableError(s.serviceName)
}

// GetAllKeys fails fast with a platform unavailability error
func (s *UnavailableObjectStore) GetAllKeys(ctx context.Context) ([]string, error) {
	return nil, pkgerrors.NewPlatformUnavailableError(s.serviceName)
}
