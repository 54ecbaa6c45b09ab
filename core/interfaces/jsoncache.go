package interfaces

import (
	"context"
	"time"
)

// JSONCache is an optional extension of Cache for backends that store
// structured values natively (e.g. RedisJSON). Callers type-assert and
// fall back to byte caching when unavailable.
type JSONCache interface {
	// GetJSON retrieves a structured value into dest.
	GetJSON(ctx context.Context, key string, dest interface{}) error

	// SetJSON stores a structured value with the given TTL.
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}
