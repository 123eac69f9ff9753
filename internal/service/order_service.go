package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"smartshop/internal/model"
	"smartshop/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// Create validates the request, snapshots prices, reserves stock and
// persists the order with its lines as one atomic unit. Product rows are
// locked for the duration of the transaction, so two concurrent
// creations against the same product cannot both pass the stock check.
func (s *orderService) Create(ctx context.Context, req *model.CreateOrderRequest) (*model.OrderDetail, error) {
	paymentMethod, derr := s.validateCreateRequest(req)
	if derr != nil {
		s.logger.Warn().Str("error", derr.Message).Msg("order request validation failed")
		return nil, derr
	}

	// Account check before touching the catalogue
	user, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify user: %w", err)
	}
	if user == nil {
		return nil, model.NewNotFound("user %s not found", req.UserID)
	}
	if !user.IsActive {
		return nil, model.NewInvalidState("user account is not active")
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	// Lock product rows in a stable order so two concurrent multi-line
	// orders naming the same products cannot deadlock each other
	lineReqs := make([]model.OrderLineRequest, len(req.Lines))
	copy(lineReqs, req.Lines)
	sort.Slice(lineReqs, func(i, j int) bool {
		return lineReqs[i].ProductID < lineReqs[j].ProductID
	})

	now := time.Now().UTC()
	orderID := uuid.New()
	totalAmount := decimal.Zero
	lines := make([]model.OrderLine, 0, len(lineReqs))

	for _, lineReq := range lineReqs {
		var product *model.Product
		product, err = s.productRepo.GetForUpdate(ctx, tx, lineReq.ProductID)
		if err != nil {
			return nil, fmt.Errorf("failed to create order: %w", err)
		}
		if product == nil {
			err = model.NewNotFound("product %s not found", lineReq.ProductID)
			return nil, err
		}
		if !product.IsActive {
			err = model.NewNotFound("product %s is no longer available", product.Name)
			return nil, err
		}
		if product.Stock < lineReq.Quantity {
			err = model.NewInsufficientStock(product.Name, product.Stock)
			return nil, err
		}

		// Snapshot the price now; the line never re-reads the catalogue
		subtotal := product.Price.Mul(decimal.NewFromInt(int64(lineReq.Quantity)))
		totalAmount = totalAmount.Add(subtotal)

		lines = append(lines, model.OrderLine{
			ID:          uuid.New(),
			OrderID:     orderID,
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    lineReq.Quantity,
			UnitPrice:   product.Price,
			Subtotal:    subtotal,
		})
	}

	order := &model.Order{
		ID:              orderID,
		UserID:          req.UserID,
		OrderDate:       now,
		TotalAmount:     totalAmount,
		DiscountAmount:  decimal.Zero,
		FinalAmount:     totalAmount,
		Status:          model.StatusPending,
		ShippingAddress: strings.TrimSpace(req.ShippingAddress),
		PaymentMethod:   paymentMethod,
		PaymentStatus:   model.PaymentStatusPending,
		Notes:           req.Notes,
		UpdatedAt:       now,
	}

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to create order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err = s.orderRepo.CreateOrderLines(ctx, tx, lines); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", orderID.String()).
			Int("line_count", len(lines)).
			Msg("failed to create order lines")
		return nil, fmt.Errorf("failed to create order lines: %w", err)
	}

	for _, line := range lines {
		var ok bool
		ok, err = s.productRepo.DecrementStock(ctx, tx, line.ProductID, line.Quantity)
		if err != nil {
			return nil, fmt.Errorf("failed to reserve stock: %w", err)
		}
		if !ok {
			// Unreachable while the row lock is held, kept as a guard
			err = model.NewInsufficientStock(line.ProductName, 0)
			return nil, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info().
		Str("order_id", orderID.String()).
		Str("user_id", req.UserID.String()).
		Str("total_amount", totalAmount.StringFixed(2)).
		Int("line_count", len(lines)).
		Msg("order created")

	return s.GetByID(ctx, orderID)
}

// GetByID retrieves an order with its lines and user details.
func (s *orderService) GetByID(ctx context.Context, id uuid.UUID) (*model.OrderDetail, error) {
	detail, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if detail == nil {
		return nil, model.NewNotFound("order %s not found", id)
	}
	return detail, nil
}

// GetByUserID retrieves all orders for a user, newest first.
func (s *orderService) GetByUserID(ctx context.Context, userID uuid.UUID) ([]model.OrderSummary, error) {
	summaries, err := s.orderRepo.GetByUserID(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to get user orders")
		return nil, fmt.Errorf("failed to get user orders: %w", err)
	}
	return summaries, nil
}

// GetAll retrieves all orders, newest first.
func (s *orderService) GetAll(ctx context.Context) ([]model.OrderSummary, error) {
	summaries, err := s.orderRepo.GetAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to get orders")
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}
	return summaries, nil
}

// GetByStatus retrieves all orders in the given status, newest first.
func (s *orderService) GetByStatus(ctx context.Context, status string) ([]model.OrderSummary, error) {
	parsed, err := model.ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}

	summaries, err := s.orderRepo.GetByStatus(ctx, parsed)
	if err != nil {
		s.logger.Error().Err(err).Str("status", string(parsed)).Msg("failed to get orders by status")
		return nil, fmt.Errorf("failed to get orders by status: %w", err)
	}
	return summaries, nil
}

// GetRecent retrieves the n most recent orders.
func (s *orderService) GetRecent(ctx context.Context, n int) ([]model.OrderSummary, error) {
	if n < 1 {
		return nil, model.NewValidationError("recent order count must be at least 1")
	}

	summaries, err := s.orderRepo.GetRecent(ctx, n)
	if err != nil {
		s.logger.Error().Err(err).Int("count", n).Msg("failed to get recent orders")
		return nil, fmt.Errorf("failed to get recent orders: %w", err)
	}
	return summaries, nil
}

// UpdateStatus overwrites the order's status. Only the cancelled-terminal
// rule is enforced; backward transitions between the live states are
// deliberately allowed.
func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	parsed, err := model.ParseOrderStatus(status)
	if err != nil {
		return err
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	var order *model.Order
	order, _, err = s.orderRepo.GetForUpdate(ctx, tx, id)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if order == nil {
		err = model.NewNotFound("order %s not found", id)
		return err
	}
	if order.Status == model.StatusCancelled {
		err = model.NewInvalidState("cancelled order cannot be updated")
		return err
	}

	if err = s.orderRepo.UpdateStatus(ctx, tx, id, parsed); err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to commit transaction")
		return fmt.Errorf("failed to update order status: %w", err)
	}

	s.logger.Info().
		Str("order_id", id.String()).
		Str("from", string(order.Status)).
		Str("to", string(parsed)).
		Msg("order status updated")

	return nil
}

// Cancel cancels the order and credits its reserved stock back to the
// catalogue. The status change and every stock credit commit together or
// not at all.
func (s *orderService) Cancel(ctx context.Context, id uuid.UUID, caller model.Caller) error {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	var order *model.Order
	var lines []model.OrderLine
	order, lines, err = s.orderRepo.GetForUpdate(ctx, tx, id)
	if err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}
	if order == nil {
		err = model.NewNotFound("order %s not found", id)
		return err
	}
	if !caller.Admin && !order.OwnedBy(caller.UserID) {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("caller_id", caller.UserID.String()).
			Msg("cancel refused, caller does not own order")
		err = model.NewForbidden("you are not allowed to cancel this order")
		return err
	}
	if order.Status == model.StatusCancelled {
		err = model.NewInvalidState("order is already cancelled")
		return err
	}
	if !order.Status.Cancellable() {
		err = model.NewInvalidState("order in status %s can no longer be cancelled", order.Status)
		return err
	}

	if err = s.orderRepo.UpdateStatus(ctx, tx, id, model.StatusCancelled); err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}

	// Restore the reserved inventory
	for _, line := range lines {
		if err = s.productRepo.IncrementStock(ctx, tx, line.ProductID, line.Quantity); err != nil {
			return fmt.Errorf("failed to restore stock: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to commit transaction")
		return fmt.Errorf("failed to cancel order: %w", err)
	}

	s.logger.Info().
		Str("order_id", id.String()).
		Int("line_count", len(lines)).
		Bool("admin", caller.Admin).
		Msg("order cancelled, stock restored")

	return nil
}

// CalculateTotal prices the given lines against the current catalogue
// without reserving stock or persisting anything.
func (s *orderService) CalculateTotal(ctx context.Context, lines []model.OrderLineRequest) (decimal.Decimal, error) {
	if len(lines) == 0 {
		return decimal.Zero, model.NewValidationError("order must contain at least one line")
	}

	total := decimal.Zero
	for _, line := range lines {
		if line.Quantity < model.MinLineQuantity {
			return decimal.Zero, model.NewValidationError(
				"quantity must be at least %d (product %s)", model.MinLineQuantity, line.ProductID)
		}

		product, err := s.productRepo.GetByID(ctx, line.ProductID)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to calculate order total: %w", err)
		}
		if product == nil {
			return decimal.Zero, model.NewNotFound("product %s not found", line.ProductID)
		}

		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	return total, nil
}

// validateCreateRequest checks the request shape before any persistence
// and returns the normalised payment method.
func (s *orderService) validateCreateRequest(req *model.CreateOrderRequest) (model.PaymentMethod, *model.DomainError) {
	if req == nil {
		return "", model.NewValidationError("order request is required")
	}

	if req.UserID == uuid.Nil {
		return "", model.NewValidationError("a valid user ID is required")
	}

	// Bounds are in characters, not bytes; addresses are routinely
	// non-ASCII
	address := strings.TrimSpace(req.ShippingAddress)
	addressLen := utf8.RuneCountInString(address)
	if addressLen < model.MinShippingAddressLen {
		return "", model.NewValidationError(
			"shipping address must be at least %d characters", model.MinShippingAddressLen)
	}
	if addressLen > model.MaxShippingAddressLen {
		return "", model.NewValidationError(
			"shipping address must be at most %d characters", model.MaxShippingAddressLen)
	}

	paymentMethod, err := model.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		derr, _ := model.AsDomainError(err)
		return "", derr
	}

	if len(req.Lines) == 0 {
		return "", model.NewValidationError("order must contain at least one line")
	}

	seen := make(map[string]bool, len(req.Lines))
	for _, line := range req.Lines {
		if line.ProductID == "" {
			return "", model.NewValidationError("product ID is required on every line")
		}
		if line.Quantity < model.MinLineQuantity {
			return "", model.NewValidationError(
				"quantity must be at least %d (product %s)", model.MinLineQuantity, line.ProductID)
		}
		if line.Quantity > model.MaxLineQuantity {
			return "", model.NewValidationError(
				"quantity must be at most %d (product %s)", model.MaxLineQuantity, line.ProductID)
		}
		if seen[line.ProductID] {
			return "", model.NewValidationError(
				"duplicate product in order: %s", line.ProductID)
		}
		seen[line.ProductID] = true
	}

	return paymentMethod, nil
}
