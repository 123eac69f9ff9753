package repository

import (
	"context"
	"fmt"
	"time"

	"smartshop/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

const orderSummaryQuery = `
	SELECT o.id, o.user_id, o.order_date, o.final_amount, o.status,
	       (SELECT COUNT(*) FROM order_lines ol WHERE ol.order_id = o.id) AS line_count
	FROM orders o
`

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (id, user_id, order_date, total_amount, discount_amount, final_amount,
		                    status, shipping_address, payment_method, payment_status, notes, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := tx.Exec(ctx, query,
		order.ID, order.UserID, order.OrderDate,
		order.TotalAmount, order.DiscountAmount, order.FinalAmount,
		order.Status, order.ShippingAddress, order.PaymentMethod,
		order.PaymentStatus, order.Notes, order.UpdatedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Msg("order created")

	return nil
}

// CreateOrderLines inserts the order's lines within the provided transaction.
func (r *orderRepository) CreateOrderLines(ctx context.Context, tx pgx.Tx, lines []model.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_lines (id, order_id, product_id, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	batch := &pgx.Batch{}
	for _, line := range lines {
		batch.Queue(query, line.ID, line.OrderID, line.ProductID, line.Quantity, line.UnitPrice, line.Subtotal)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(lines); i++ {
		_, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", lines[i].OrderID.String()).
				Str("product_id", lines[i].ProductID).
				Msg("failed to create order line")
			return fmt.Errorf("failed to create order line: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(lines)).
		Msg("order lines created")

	return nil
}

// GetByID retrieves an order with its lines and the owning user's name
// and email.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.OrderDetail, error) {
	orderQuery := `
		SELECT o.id, o.user_id, o.order_date, o.total_amount, o.discount_amount, o.final_amount,
		       o.status, o.shipping_address, o.payment_method, o.payment_status, o.notes, o.updated_at,
		       u.first_name || ' ' || u.last_name AS user_name, u.email
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE o.id = $1
	`

	var detail model.OrderDetail
	err := r.pool.QueryRow(ctx, orderQuery, id).Scan(
		&detail.ID,
		&detail.UserID,
		&detail.OrderDate,
		&detail.TotalAmount,
		&detail.DiscountAmount,
		&detail.FinalAmount,
		&detail.Status,
		&detail.ShippingAddress,
		&detail.PaymentMethod,
		&detail.PaymentStatus,
		&detail.Notes,
		&detail.UpdatedAt,
		&detail.UserName,
		&detail.UserEmail,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	lines, err := r.queryLines(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.Lines = lines

	return &detail, nil
}

// queryLines retrieves an order's lines with product names joined in.
func (r *orderRepository) queryLines(ctx context.Context, orderID uuid.UUID) ([]model.OrderLine, error) {
	query := `
		SELECT ol.id, ol.order_id, ol.product_id, p.name, ol.quantity, ol.unit_price, ol.subtotal
		FROM order_lines ol
		JOIN products p ON p.id = ol.product_id
		WHERE ol.order_id = $1
		ORDER BY ol.id
	`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", orderID.String()).
			Msg("failed to query order lines")
		return nil, fmt.Errorf("failed to query order lines: %w", err)
	}
	defer rows.Close()

	var lines []model.OrderLine
	for rows.Next() {
		var line model.OrderLine
		err := rows.Scan(&line.ID, &line.OrderID, &line.ProductID, &line.ProductName,
			&line.Quantity, &line.UnitPrice, &line.Subtotal)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order line row")
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order line rows")
		return nil, fmt.Errorf("error iterating order lines: %w", err)
	}

	return lines, nil
}

// GetForUpdate retrieves an order with its lines within the transaction,
// locking the order row until the transaction ends.
func (r *orderRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, []model.OrderLine, error) {
	orderQuery := `
		SELECT id, user_id, order_date, total_amount, discount_amount, final_amount,
		       status, shipping_address, payment_method, payment_status, notes, updated_at
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`

	var order model.Order
	err := tx.QueryRow(ctx, orderQuery, id).Scan(
		&order.ID,
		&order.UserID,
		&order.OrderDate,
		&order.TotalAmount,
		&order.DiscountAmount,
		&order.FinalAmount,
		&order.Status,
		&order.ShippingAddress,
		&order.PaymentMethod,
		&order.PaymentStatus,
		&order.Notes,
		&order.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to lock order")
		return nil, nil, fmt.Errorf("failed to lock order: %w", err)
	}

	linesQuery := `
		SELECT id, order_id, product_id, quantity, unit_price, subtotal
		FROM order_lines
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := tx.Query(ctx, linesQuery, id)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order lines")
		return nil, nil, fmt.Errorf("failed to query order lines: %w", err)
	}
	defer rows.Close()

	var lines []model.OrderLine
	for rows.Next() {
		var line model.OrderLine
		err := rows.Scan(&line.ID, &line.OrderID, &line.ProductID,
			&line.Quantity, &line.UnitPrice, &line.Subtotal)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order line row")
			return nil, nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order line rows")
		return nil, nil, fmt.Errorf("error iterating order lines: %w", err)
	}

	return &order, lines, nil
}

// GetByUserID retrieves all orders for a user, newest first.
func (r *orderRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]model.OrderSummary, error) {
	query := orderSummaryQuery + `
		WHERE o.user_id = $1
		ORDER BY o.order_date DESC
	`
	return r.querySummaries(ctx, query, userID)
}

// GetAll retrieves all orders, newest first.
func (r *orderRepository) GetAll(ctx context.Context) ([]model.OrderSummary, error) {
	query := orderSummaryQuery + `
		ORDER BY o.order_date DESC
	`
	return r.querySummaries(ctx, query)
}

// GetByStatus retrieves all orders in the given status, newest first.
func (r *orderRepository) GetByStatus(ctx context.Context, status model.OrderStatus) ([]model.OrderSummary, error) {
	query := orderSummaryQuery + `
		WHERE o.status = $1
		ORDER BY o.order_date DESC
	`
	return r.querySummaries(ctx, query, status)
}

// GetRecent retrieves the n most recent orders.
func (r *orderRepository) GetRecent(ctx context.Context, n int) ([]model.OrderSummary, error) {
	query := orderSummaryQuery + `
		ORDER BY o.order_date DESC
		LIMIT $1
	`
	return r.querySummaries(ctx, query, n)
}

// querySummaries runs an order summary query and scans the rows.
func (r *orderRepository) querySummaries(ctx context.Context, query string, args ...any) ([]model.OrderSummary, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	summaries := []model.OrderSummary{}
	for rows.Next() {
		var s model.OrderSummary
		err := rows.Scan(&s.ID, &s.UserID, &s.OrderDate, &s.FinalAmount, &s.Status, &s.LineCount)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order summary row")
			return nil, fmt.Errorf("failed to scan order summary: %w", err)
		}
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order summary rows")
		return nil, fmt.Errorf("error iterating order summaries: %w", err)
	}

	return summaries, nil
}

// UpdateStatus overwrites the order's status within the provided transaction.
func (r *orderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus) error {
	query := `
		UPDATE orders
		SET status = $2, updated_at = $3
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", id.String()).
			Str("status", string(status)).
			Msg("failed to update order status")
		return fmt.Errorf("failed to update order status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %s not found for status update", id)
	}

	r.logger.Debug().
		Str("order_id", id.String()).
		Str("status", string(status)).
		Msg("order status updated")

	return nil
}
