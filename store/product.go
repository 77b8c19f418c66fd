package store

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/lithammer/shortuuid/v4"

	"github.com/vendora/vendora/store/cache"
)

// Product is the object representing a marketplace listing.
type Product struct {
	ID        int32
	UID       string
	RowStatus RowStatus
	CreatedTs int64
	UpdatedTs int64

	VendorID    int32
	Category    string
	Title       string
	Description string
	PriceCents  int64
	Currency    string
	Stock       int32
}

// FindProduct is the find condition for product.
type FindProduct struct {
	ID       *int32
	IDs      []int32
	UID      *string
	VendorID *int32
	Category *string

	RowStatus *RowStatus

	Limit  *int
	Offset *int
}

// UpdateProduct is the update request for product.
type UpdateProduct struct {
	ID          int32
	UpdatedTs   *int64
	RowStatus   *RowStatus
	Category    *string
	Title       *string
	Description *string
	PriceCents  *int64
	Currency    *string
	Stock       *int32
}

// DeleteProduct is the delete request for product.
type DeleteProduct struct {
	ID int32
}

// CreateProduct creates a new product. Listing and batch entries built
// before this row existed are invalidated.
func (s *Store) CreateProduct(ctx context.Context, create *Product) (*Product, error) {
	if create.UID == "" {
		create.UID = shortuuid.New()
	}
	if create.Currency == "" {
		create.Currency = "USD"
	}
	product, err := s.driver.CreateProduct(ctx, create)
	if err != nil {
		return nil, err
	}

	s.cache.InvalidatePrefix(ctx, productListingPrefix)
	s.cache.InvalidatePrefix(ctx, productBatchPrefix)
	_ = s.cache.Set(ctx, productDetailsKey(product.ID), product, productCacheTTL)

	return product, nil
}

// GetProduct returns the first product matching find, going through the
// cache for point lookups by id or uid.
func (s *Store) GetProduct(ctx context.Context, find *FindProduct) (*Product, error) {
	key, cacheable := productFindKey(find)
	if !cacheable {
		return s.getProductRaw(ctx, find)
	}
	return cache.Fetch(ctx, s.cache, key, productCacheTTL, func(ctx context.Context) (*Product, error) {
		return s.getProductRaw(ctx, find)
	})
}

// GetProductsByIDs returns the products for the given id set as one
// batched, cached lookup backed by a single bulk query. This is the
// replacement for the per-id N+1 pattern on listing pages.
func (s *Store) GetProductsByIDs(ctx context.Context, ids []int32) (map[int32]*Product, error) {
	return cache.FetchMany(ctx, s.cache, productBatchPrefix, ids, batchCacheTTL,
		func(ctx context.Context, ids []int32) (map[int32]*Product, error) {
			list, err := s.driver.ListProducts(ctx, &FindProduct{IDs: ids})
			if err != nil {
				return nil, err
			}
			result := make(map[int32]*Product, len(list))
			for _, product := range list {
				result[product.ID] = product
			}
			return result, nil
		})
}

// ListProducts lists products with filter. Each distinct filter is cached
// as its own listing entry with a short TTL.
func (s *Store) ListProducts(ctx context.Context, find *FindProduct) ([]*Product, error) {
	if find.IDs != nil || find.ID != nil || find.UID != nil {
		return s.driver.ListProducts(ctx, find)
	}
	list, err := cache.Fetch(ctx, s.cache, productListingKey(find), listingCacheTTL,
		func(ctx context.Context) ([]*Product, error) {
			return s.driver.ListProducts(ctx, find)
		})
	if err != nil {
		return nil, err
	}
	// Callers get their own slice; the cached one stays untouched.
	return slices.Clone(list), nil
}

// UpdateProduct updates a product and drops every cache category it can
// appear in: its details entry, all listings, and all composite batches.
func (s *Store) UpdateProduct(ctx context.Context, update *UpdateProduct) (*Product, error) {
	product, err := s.driver.UpdateProduct(ctx, update)
	if err != nil {
		return nil, err
	}
	s.invalidateProductCaches(ctx, update.ID)
	return product, nil
}

// DeleteProduct deletes a product and drops every cache category it can
// appear in.
func (s *Store) DeleteProduct(ctx context.Context, delete *DeleteProduct) error {
	if err := s.driver.DeleteProduct(ctx, delete); err != nil {
		return err
	}
	s.invalidateProductCaches(ctx, delete.ID)
	return nil
}

func (s *Store) getProductRaw(ctx context.Context, find *FindProduct) (*Product, error) {
	list, err := s.driver.ListProducts(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) invalidateProductCaches(ctx context.Context, id int32) {
	s.cache.Invalidate(ctx, productDetailsKey(id))
	s.cache.InvalidatePrefix(ctx, productUIDPrefix)
	s.cache.InvalidatePrefix(ctx, productListingPrefix)
	s.cache.InvalidatePrefix(ctx, productBatchPrefix)
}

func productDetailsKey(id int32) string {
	return fmt.Sprintf("%s%d", productDetailsPrefix, id)
}

// productFindKey maps a point lookup to its cache key.
func productFindKey(find *FindProduct) (string, bool) {
	if find.IDs != nil || find.VendorID != nil || find.Category != nil ||
		find.RowStatus != nil || find.Limit != nil || find.Offset != nil {
		return "", false
	}
	switch {
	case find.ID != nil && find.UID == nil:
		return productDetailsKey(*find.ID), true
	case find.UID != nil && find.ID == nil:
		return productUIDPrefix + *find.UID, true
	}
	return "", false
}

// productListingKey derives a stable cache key from the listing filter.
func productListingKey(find *FindProduct) string {
	var b strings.Builder
	b.WriteString(productListingPrefix)
	writeField := func(name string, value any) {
		fmt.Fprintf(&b, "%s=%v:", name, value)
	}
	if find.VendorID != nil {
		writeField("vendor", *find.VendorID)
	}
	if find.Category != nil {
		writeField("category", *find.Category)
	}
	if find.RowStatus != nil {
		writeField("status", *find.RowStatus)
	}
	if find.Limit != nil {
		writeField("limit", *find.Limit)
	}
	if find.Offset != nil {
		writeField("offset", *find.Offset)
	}
	return b.String()
}
