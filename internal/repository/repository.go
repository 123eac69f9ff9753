package repository

import (
	"context"

	"smartshop/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductRepository defines the catalogue data access operations. The
// tx-scoped methods participate in the caller's transaction so that the
// stock check-then-decrement sequence holds its row locks until commit.
type ProductRepository interface {
	// GetAll retrieves all products with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by its ID, or nil when absent.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs.
	GetByIDs(ctx context.Context, ids []string) ([]model.Product, error)

	// GetForUpdate retrieves a product within the transaction, locking
	// its row until the transaction ends. Returns nil when absent.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (*model.Product, error)

	// DecrementStock subtracts quantity from the product's stock within
	// the transaction. It refuses to go below zero: the returned bool is
	// false when the remaining stock was insufficient.
	DecrementStock(ctx context.Context, tx pgx.Tx, id string, quantity int) (bool, error)

	// IncrementStock credits quantity back to the product's stock within
	// the transaction.
	IncrementStock(ctx context.Context, tx pgx.Tx, id string, quantity int) error
}

// UserRepository defines the account data access operations consumed by
// order placement.
type UserRepository interface {
	// GetByID retrieves a user by ID, or nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// OrderRepository defines the order ledger data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderLines inserts the order's lines within the provided
	// transaction.
	CreateOrderLines(ctx context.Context, tx pgx.Tx, lines []model.OrderLine) error

	// GetByID retrieves an order with its lines and the owning user's
	// name and email. Returns nil when the order does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.OrderDetail, error)

	// GetForUpdate retrieves an order with its lines within the
	// transaction, locking the order row until the transaction ends.
	// Returns nil when the order does not exist.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, []model.OrderLine, error)

	// GetByUserID retrieves all orders for a user, newest first.
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]model.OrderSummary, error)

	// GetAll retrieves all orders, newest first.
	GetAll(ctx context.Context) ([]model.OrderSummary, error)

	// GetByStatus retrieves all orders in the given status, newest first.
	GetByStatus(ctx context.Context, status model.OrderStatus) ([]model.OrderSummary, error)

	// GetRecent retrieves the n most recent orders.
	GetRecent(ctx context.Context, n int) ([]model.OrderSummary, error)

	// UpdateStatus overwrites the order's status within the provided
	// transaction.
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus) error
}
