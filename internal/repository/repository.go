package repository

import (
	"context"

	"github.com/RavenLB/E-commerce/internal/entity"
)

// TxManager opens units of work. Every storage access happens inside one and
// is committed once, when fn returns nil. Any error rolls everything back.
type TxManager interface {
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error
	// View runs fn in a read-only unit of work.
	View(ctx context.Context, fn func(uow UnitOfWork) error) error
	Ping(ctx context.Context) error
}

// UnitOfWork exposes the repositories bound to one transaction.
type UnitOfWork interface {
	Users() UserRepository
	Products() ProductRepository
	Cart() CartRepository
	Orders() OrderRepository
}

// UserRepository handles persistence for Users.
type UserRepository interface {
	// Create stores u and fills its ID and CreatedAt. Duplicate emails yield
	// entity.ErrConflict.
	Create(ctx context.Context, u *entity.User) error
	FindByID(ctx context.Context, id int64) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
}

// ProductRepository handles persistence for Products.
type ProductRepository interface {
	List(ctx context.Context, f entity.ProductFilter) ([]entity.Product, error)
	Count(ctx context.Context) (int, error)
	FindByID(ctx context.Context, id int64) (*entity.Product, error)
	// FindByIDForUpdate also locks the row until the unit of work ends.
	FindByIDForUpdate(ctx context.Context, id int64) (*entity.Product, error)
	FindByName(ctx context.Context, name string) (*entity.Product, error)
	Create(ctx context.Context, p *entity.Product) error
	Update(ctx context.Context, p *entity.Product) error
	// AdjustStock adds delta to the stock. A result below zero is refused
	// with entity.ErrInsufficientStock.
	AdjustStock(ctx context.Context, id int64, delta int) error
	// IsReferenced reports whether any cart or order item points at id.
	IsReferenced(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) error
}

// CartRepository handles persistence for cart items. Every lookup is scoped
// by user.
type CartRepository interface {
	// ListByUser returns the user's items, oldest first, with Product loaded.
	ListByUser(ctx context.Context, userID int64) ([]entity.CartItem, error)
	// ListByUserForUpdate is ListByUser that also locks the returned rows
	// until the unit of work ends.
	ListByUserForUpdate(ctx context.Context, userID int64) ([]entity.CartItem, error)
	FindByID(ctx context.Context, userID, itemID int64) (*entity.CartItem, error)
	FindByProduct(ctx context.Context, userID, productID int64) (*entity.CartItem, error)
	Create(ctx context.Context, item *entity.CartItem) error
	UpdateQuantity(ctx context.Context, userID, itemID int64, quantity int) error
	Delete(ctx context.Context, userID, itemID int64) error
	// Clear removes every item of the user and returns how many were removed.
	Clear(ctx context.Context, userID int64) (int64, error)
}

// OrderRepository handles persistence for Orders and their items.
type OrderRepository interface {
	// Create stores o with its items and fills the generated IDs.
	Create(ctx context.Context, o *entity.Order) error
	FindByID(ctx context.Context, id int64) (*entity.Order, error)
	FindByIDForUser(ctx context.Context, id, userID int64) (*entity.Order, error)
	// List returns matching orders newest first.
	List(ctx context.Context, f entity.OrderFilter) ([]entity.Order, error)
	// UpdateStatus moves an order from one status to another. It fails with
	// entity.ErrConflict when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id int64, from, to entity.OrderStatus) error
	// MarkPaid moves a pending order to paid and records the payment intent.
	MarkPaid(ctx context.Context, id int64, paymentIntentID string) error
}
