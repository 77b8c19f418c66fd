package store

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendora/vendora/internal/profile"
)

// fakeDriver is an in-memory Driver that counts queries so tests can assert
// how often the cache let a read through.
type fakeDriver struct {
	users    map[int32]*User
	products map[int32]*Product
	nextID   int32

	userQueries    atomic.Int64
	productQueries atomic.Int64
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		users:    make(map[int32]*User),
		products: make(map[int32]*Product),
	}
}

func (d *fakeDriver) Ping(context.Context) error { return nil }
func (d *fakeDriver) Close() error               { return nil }

func (d *fakeDriver) CreateUser(_ context.Context, create *User) (*User, error) {
	d.nextID++
	create.ID = d.nextID
	d.users[create.ID] = create
	return create, nil
}

func (d *fakeDriver) ListUsers(_ context.Context, find *FindUser) ([]*User, error) {
	d.userQueries.Add(1)
	var list []*User
	for _, user := range d.users {
		if find.ID != nil && user.ID != *find.ID {
			continue
		}
		if find.Username != nil && user.Username != *find.Username {
			continue
		}
		if len(find.IDs) > 0 && !containsID(find.IDs, user.ID) {
			continue
		}
		list = append(list, user)
	}
	return list, nil
}

func (d *fakeDriver) UpdateUser(_ context.Context, update *UpdateUser) (*User, error) {
	user := d.users[update.ID]
	if update.Nickname != nil {
		user.Nickname = *update.Nickname
	}
	if update.Username != nil {
		user.Username = *update.Username
	}
	return user, nil
}

func (d *fakeDriver) DeleteUser(_ context.Context, del *DeleteUser) error {
	delete(d.users, del.ID)
	return nil
}

func (d *fakeDriver) CreateProduct(_ context.Context, create *Product) (*Product, error) {
	d.nextID++
	create.ID = d.nextID
	d.products[create.ID] = create
	return create, nil
}

func (d *fakeDriver) ListProducts(_ context.Context, find *FindProduct) ([]*Product, error) {
	d.productQueries.Add(1)
	var list []*Product
	for _, product := range d.products {
		if find.ID != nil && product.ID != *find.ID {
			continue
		}
		if find.Category != nil && product.Category != *find.Category {
			continue
		}
		if len(find.IDs) > 0 && !containsID(find.IDs, product.ID) {
			continue
		}
		list = append(list, product)
	}
	return list, nil
}

func (d *fakeDriver) UpdateProduct(_ context.Context, update *UpdateProduct) (*Product, error) {
	product := d.products[update.ID]
	if update.PriceCents != nil {
		product.PriceCents = *update.PriceCents
	}
	if update.Title != nil {
		product.Title = *update.Title
	}
	return product, nil
}

func (d *fakeDriver) DeleteProduct(_ context.Context, del *DeleteProduct) error {
	delete(d.products, del.ID)
	return nil
}

func containsID(ids []int32, id int32) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func newTestStore(t *testing.T, driver Driver) *Store {
	t.Helper()
	s := New(driver, &profile.Profile{
		Mode:                 "dev",
		CacheCapacity:        100,
		CacheCleanupInterval: time.Hour, // keep the sweep out of timing-sensitive tests
	})
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestStore_GetProductReadThrough(t *testing.T) {
	driver := newFakeDriver()
	s := newTestStore(t, driver)
	ctx := context.Background()

	created, err := s.CreateProduct(ctx, &Product{VendorID: 1, Title: "keyboard", PriceCents: 4900})
	require.NoError(t, err)
	require.NotEmpty(t, created.UID)

	// CreateProduct primed the details entry, so neither read hits the DB.
	for i := 0; i < 2; i++ {
		product, err := s.GetProduct(ctx, &FindProduct{ID: &created.ID})
		require.NoError(t, err)
		assert.Equal(t, "keyboard", product.Title)
	}
	assert.Equal(t, int64(0), driver.productQueries.Load())
}

func TestStore_UpdateProductInvalidates(t *testing.T) {
	driver := newFakeDriver()
	s := newTestStore(t, driver)
	ctx := context.Background()

	created, err := s.CreateProduct(ctx, &Product{VendorID: 1, Title: "keyboard", PriceCents: 4900})
	require.NoError(t, err)

	_, err = s.GetProduct(ctx, &FindProduct{ID: &created.ID})
	require.NoError(t, err)

	newPrice := int64(3900)
	_, err = s.UpdateProduct(ctx, &UpdateProduct{ID: created.ID, PriceCents: &newPrice})
	require.NoError(t, err)

	// The stale details entry is gone; the next read goes to the DB and
	// sees the new price.
	queriesBefore := driver.productQueries.Load()
	product, err := s.GetProduct(ctx, &FindProduct{ID: &created.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(3900), product.PriceCents)
	assert.Equal(t, queriesBefore+1, driver.productQueries.Load())
}

func TestStore_GetProductsByIDsBatches(t *testing.T) {
	driver := newFakeDriver()
	s := newTestStore(t, driver)
	ctx := context.Background()

	var ids []int32
	for _, title := range []string{"a", "b", "c"} {
		product, err := s.CreateProduct(ctx, &Product{VendorID: 1, Title: title})
		require.NoError(t, err)
		ids = append(ids, product.ID)
	}

	result, err := s.GetProductsByIDs(ctx, []int32{ids[2], ids[0], ids[1]})
	require.NoError(t, err)
	assert.Len(t, result, 3)

	// Same logical set in another order reuses the composite entry.
	again, err := s.GetProductsByIDs(ctx, ids)
	require.NoError(t, err)
	assert.Len(t, again, 3)
	assert.Equal(t, int64(1), driver.productQueries.Load())

	// A write drops the composite batch entries too.
	newTitle := "renamed"
	_, err = s.UpdateProduct(ctx, &UpdateProduct{ID: ids[0], Title: &newTitle})
	require.NoError(t, err)

	refreshed, err := s.GetProductsByIDs(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, "renamed", refreshed[ids[0]].Title)
	assert.Equal(t, int64(2), driver.productQueries.Load())
}

func TestStore_ListProductsCachedPerFilter(t *testing.T) {
	driver := newFakeDriver()
	s := newTestStore(t, driver)
	ctx := context.Background()

	_, err := s.CreateProduct(ctx, &Product{VendorID: 1, Title: "a", Category: "audio"})
	require.NoError(t, err)
	_, err = s.CreateProduct(ctx, &Product{VendorID: 1, Title: "b", Category: "video"})
	require.NoError(t, err)

	audio := "audio"
	for i := 0; i < 3; i++ {
		list, err := s.ListProducts(ctx, &FindProduct{Category: &audio})
		require.NoError(t, err)
		assert.Len(t, list, 1)
	}
	assert.Equal(t, int64(1), driver.productQueries.Load())

	// A different filter is a different listing entry.
	video := "video"
	_, err = s.ListProducts(ctx, &FindProduct{Category: &video})
	require.NoError(t, err)
	assert.Equal(t, int64(2), driver.productQueries.Load())
}

func TestStore_GetUserByUsernameCached(t *testing.T) {
	driver := newFakeDriver()
	s := newTestStore(t, driver)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, &User{Username: "ada", Email: "ada@example.com"})
	require.NoError(t, err)

	name := "ada"
	for i := 0; i < 2; i++ {
		user, err := s.GetUser(ctx, &FindUser{Username: &name})
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, created.ID, user.ID)
	}
	assert.Equal(t, int64(1), driver.userQueries.Load())

	// Renaming drops the whole name category.
	newName := "lovelace"
	_, err = s.UpdateUser(ctx, &UpdateUser{ID: created.ID, Username: &newName})
	require.NoError(t, err)

	user, err := s.GetUser(ctx, &FindUser{Username: &name})
	require.NoError(t, err)
	assert.Nil(t, user)
}
