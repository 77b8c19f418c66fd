// Package store provides database access to all raw objects, shielded by an
// in-process query cache. Every read path goes through the cache; every
// write path invalidates the categories the mutated row can appear in.
package store

import (
	"context"
	"time"

	"github.com/vendora/vendora/internal/profile"
	"github.com/vendora/vendora/store/cache"
)

// Cache TTLs per category. Zero would mean "never expires", so everything
// here carries an explicit bound; invalidation on write is what keeps reads
// fresh inside the window.
const (
	userCacheTTL    = 10 * time.Minute
	productCacheTTL = 5 * time.Minute
	listingCacheTTL = time.Minute
	batchCacheTTL   = time.Minute
)

// Cache key categories. Keys are "<category><discriminator>"; write paths
// invalidate by category prefix.
const (
	userDetailsPrefix    = "user:details:"
	userNamePrefix       = "user:name:"
	userBatchPrefix      = "users:batch"
	productDetailsPrefix = "product:details:"
	productUIDPrefix     = "product:uid:"
	productListingPrefix = "products:listing:"
	productBatchPrefix   = "products:batch"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	// One shared cache instance, created here and torn down in Close.
	cache *cache.Cache
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
		cache: cache.New(cache.Config{
			Capacity:        profile.CacheCapacity,
			CleanupInterval: profile.CacheCleanupInterval,
		}),
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

// Cache exposes the query cache for operational endpoints (stats, reset).
func (s *Store) Cache() *cache.Cache {
	return s.cache
}

func (s *Store) Ping(ctx context.Context) error {
	return s.driver.Ping(ctx)
}

func (s *Store) Close() error {
	// Stop the cache cleanup goroutine before closing the database.
	s.cache.Close()
	return s.driver.Close()
}
