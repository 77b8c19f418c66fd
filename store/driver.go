package store

import "context"

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	Ping(ctx context.Context) error
	Close() error

	// User model related methods.
	CreateUser(ctx context.Context, create *User) (*User, error)
	ListUsers(ctx context.Context, find *FindUser) ([]*User, error)
	UpdateUser(ctx context.Context, update *UpdateUser) (*User, error)
	DeleteUser(ctx context.Context, delete *DeleteUser) error

	// Product model related methods.
	CreateProduct(ctx context.Context, create *Product) (*Product, error)
	ListProducts(ctx context.Context, find *FindProduct) ([]*Product, error)
	UpdateProduct(ctx context.Context, update *UpdateProduct) (*Product, error)
	DeleteProduct(ctx context.Context, delete *DeleteProduct) error
}
