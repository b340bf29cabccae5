package ports

import (
	"context"

	"github.com/aretw0/pageflow/pkg/domain"
)

// SequenceCache memoizes generation results.
// Keys are content hashes computed by the caller; implementations treat them as opaque.
type SequenceCache interface {
	// Get returns the stored result.
	// Returns domain.ErrCacheMiss if nothing is stored under key.
	Get(ctx context.Context, key string) (domain.Result, error)

	// Put stores the result under key, replacing any previous value.
	Put(ctx context.Context, key string, res domain.Result) error

	// Delete removes the entry. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// CacheAdmin is implemented by caches that can enumerate and clear their entries.
type CacheAdmin interface {
	// Keys lists the stored keys.
	Keys(ctx context.Context) ([]string, error)

	// Purge removes every entry.
	Purge(ctx context.Context) error
}

// Pinger is implemented by caches backed by a remote service.
type Pinger interface {
	Ping(ctx context.Context) error
}
