package metadata

import (
	"context"
)

// Repository is a small durable key/value store. The client keeps its
// credential and role hint here.
type Repository interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes keys; absent keys are ignored.
	Delete(ctx context.Context, keys ...string) error
	Clear(ctx context.Context) error
}
