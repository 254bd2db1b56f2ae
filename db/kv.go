package db

import "context"

// KV is the string key-value store the rest of the application persists into.
// Values are opaque to the store; callers serialize them (JSON) themselves.
type KV interface {
	// Get returns the value for key. ok is false when the key does not exist.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the underlying connection
	Close() error
}

// KeyLister is implemented by backends that can enumerate their keys
type KeyLister interface {
	Keys(ctx context.Context, prefix string) ([]string, error)
}
