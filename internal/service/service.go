package service

import (
	"context"

	"smartshop/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductService defines operations for browsing the catalogue.
type ProductService interface {
	// GetAll retrieves all products with pagination.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id string) (*model.Product, error)
}

// OrderService defines the order placement and fulfillment workflow.
type OrderService interface {
	// Create validates the request, snapshots prices, reserves stock and
	// persists the order with its lines as one atomic unit.
	Create(ctx context.Context, req *model.CreateOrderRequest) (*model.OrderDetail, error)

	// GetByID retrieves an order with its lines and user details.
	GetByID(ctx context.Context, id uuid.UUID) (*model.OrderDetail, error)

	// GetByUserID retrieves all orders for a user, newest first. Returns
	// an empty slice (not an error) when the user has no orders.
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]model.OrderSummary, error)

	// GetAll retrieves all orders, newest first.
	GetAll(ctx context.Context) ([]model.OrderSummary, error)

	// GetByStatus retrieves all orders in the given status, newest first.
	GetByStatus(ctx context.Context, status string) ([]model.OrderSummary, error)

	// GetRecent retrieves the n most recent orders.
	GetRecent(ctx context.Context, n int) ([]model.OrderSummary, error)

	// UpdateStatus overwrites the order's status. Cancelled orders are
	// immutable to status updates.
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error

	// Cancel cancels the order and credits its reserved stock back to
	// the catalogue. Non-admin callers must own the order.
	Cancel(ctx context.Context, id uuid.UUID, caller model.Caller) error

	// CalculateTotal prices the given lines against the current
	// catalogue without reserving stock or persisting anything.
	CalculateTotal(ctx context.Context, lines []model.OrderLineRequest) (decimal.Decimal, error)
}
