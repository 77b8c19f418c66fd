package store

import (
	"context"
	"fmt"

	"github.com/lithammer/shortuuid/v4"

	"github.com/vendora/vendora/store/cache"
)

// User is the object representing a marketplace account.
type User struct {
	ID        int32
	UID       string
	RowStatus RowStatus
	CreatedTs int64
	UpdatedTs int64
	Username  string
	Email     string
	Nickname  string
	AvatarURL string
}

// FindUser is the find condition for user.
type FindUser struct {
	ID       *int32
	IDs      []int32
	UID      *string
	Username *string

	RowStatus *RowStatus

	Limit  *int
	Offset *int
}

// UpdateUser is the update request for user.
type UpdateUser struct {
	ID        int32
	UpdatedTs *int64
	RowStatus *RowStatus
	Username  *string
	Email     *string
	Nickname  *string
	AvatarURL *string
}

// DeleteUser is the delete request for user.
type DeleteUser struct {
	ID int32
}

// CreateUser creates a new user and primes the cache for it.
func (s *Store) CreateUser(ctx context.Context, create *User) (*User, error) {
	if create.UID == "" {
		create.UID = shortuuid.New()
	}
	user, err := s.driver.CreateUser(ctx, create)
	if err != nil {
		return nil, err
	}

	// Composite batches and name lookups built before this row existed are
	// stale now.
	s.cache.InvalidatePrefix(ctx, userBatchPrefix)
	s.cache.InvalidatePrefix(ctx, userNamePrefix)
	_ = s.cache.Set(ctx, userDetailsKey(user.ID), user, userCacheTTL)

	return user, nil
}

// GetUser returns the first user matching find, going through the cache for
// point lookups by id or username.
func (s *Store) GetUser(ctx context.Context, find *FindUser) (*User, error) {
	key, cacheable := userFindKey(find)
	if !cacheable {
		return s.getUserRaw(ctx, find)
	}
	return cache.Fetch(ctx, s.cache, key, userCacheTTL, func(ctx context.Context) (*User, error) {
		return s.getUserRaw(ctx, find)
	})
}

// GetUsersByIDs returns the users for the given id set as one batched,
// cached lookup backed by a single bulk query.
func (s *Store) GetUsersByIDs(ctx context.Context, ids []int32) (map[int32]*User, error) {
	return cache.FetchMany(ctx, s.cache, userBatchPrefix, ids, batchCacheTTL,
		func(ctx context.Context, ids []int32) (map[int32]*User, error) {
			list, err := s.driver.ListUsers(ctx, &FindUser{IDs: ids})
			if err != nil {
				return nil, err
			}
			result := make(map[int32]*User, len(list))
			for _, user := range list {
				result[user.ID] = user
			}
			return result, nil
		})
}

// ListUsers lists users with filter. Listings are not cached; user listings
// are admin-only and rare.
func (s *Store) ListUsers(ctx context.Context, find *FindUser) ([]*User, error) {
	return s.driver.ListUsers(ctx, find)
}

// UpdateUser updates a user and drops every cache category it can appear in.
func (s *Store) UpdateUser(ctx context.Context, update *UpdateUser) (*User, error) {
	user, err := s.driver.UpdateUser(ctx, update)
	if err != nil {
		return nil, err
	}
	s.invalidateUserCaches(ctx, update.ID)
	return user, nil
}

// DeleteUser deletes a user and drops every cache category it can appear in.
func (s *Store) DeleteUser(ctx context.Context, delete *DeleteUser) error {
	if err := s.driver.DeleteUser(ctx, delete); err != nil {
		return err
	}
	s.invalidateUserCaches(ctx, delete.ID)
	return nil
}

func (s *Store) getUserRaw(ctx context.Context, find *FindUser) (*User, error) {
	list, err := s.driver.ListUsers(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) invalidateUserCaches(ctx context.Context, id int32) {
	s.cache.Invalidate(ctx, userDetailsKey(id))
	// The previous username is unknown here, so the whole name category goes.
	s.cache.InvalidatePrefix(ctx, userNamePrefix)
	s.cache.InvalidatePrefix(ctx, userBatchPrefix)
}

func userDetailsKey(id int32) string {
	return fmt.Sprintf("%s%d", userDetailsPrefix, id)
}

// userFindKey maps a point lookup to its cache key. Filtered or paginated
// finds are not cacheable as single entries.
func userFindKey(find *FindUser) (string, bool) {
	if find.IDs != nil || find.RowStatus != nil || find.Limit != nil || find.Offset != nil {
		return "", false
	}
	switch {
	case find.ID != nil && find.UID == nil && find.Username == nil:
		return userDetailsKey(*find.ID), true
	case find.Username != nil && find.ID == nil && find.UID == nil:
		return userNamePrefix + *find.Username, true
	}
	return "", false
}
