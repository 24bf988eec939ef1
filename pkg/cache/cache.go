// Package cache defines the caching contract shared by the request client
// and the SQLite store.
package cache

import "context"

// Cacher defines the caching interface.
type Cacher interface {
	GetCache(ctx context.Context, key string) ([]byte, bool)
	SetCache(ctx context.Context, key string, val []byte) error
}
