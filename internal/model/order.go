package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "Pending"
	StatusProcessing OrderStatus = "Processing"
	StatusShipped    OrderStatus = "Shipped"
	StatusDelivered  OrderStatus = "Delivered"
	StatusCancelled  OrderStatus = "Cancelled"
)

// statusAliases maps the legacy Turkish status strings still emitted by
// older storefront clients onto the canonical English enum. Aliases are
// accepted on input only and never stored.
var statusAliases = map[string]OrderStatus{
	"Beklemede":     StatusPending,
	"Hazırlanıyor":  StatusProcessing,
	"Kargoda":       StatusShipped,
	"Teslim Edildi": StatusDelivered,
	"İptal Edildi":  StatusCancelled,
}

// ParseOrderStatus normalises s into a canonical status. It accepts the
// five English values and their legacy aliases.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return OrderStatus(s), nil
	}
	if status, ok := statusAliases[s]; ok {
		return status, nil
	}
	return "", NewValidationError("invalid order status: %q (valid: Pending, Processing, Shipped, Delivered, Cancelled)", s)
}

// Cancellable reports whether an order in this status may still be
// cancelled. Shipped and Delivered orders are past the point of no
// return; Cancelled is terminal.
func (s OrderStatus) Cancellable() bool {
	return s == StatusPending || s == StatusProcessing
}

// PaymentMethod is the payment instrument chosen at checkout.
type PaymentMethod string

const (
	PaymentCreditCard   PaymentMethod = "CreditCard"
	PaymentDebitCard    PaymentMethod = "DebitCard"
	PaymentBankTransfer PaymentMethod = "BankTransfer"
	PaymentCash         PaymentMethod = "Cash"
)

// paymentAliases maps legacy Turkish payment method names onto the
// canonical enum, kept for backward compatibility with older clients.
var paymentAliases = map[string]PaymentMethod{
	"Kredi Kartı":  PaymentCreditCard,
	"Banka Kartı":  PaymentDebitCard,
	"Havale":       PaymentBankTransfer,
	"Kapıda Ödeme": PaymentCash,
}

// ParsePaymentMethod normalises s into a canonical payment method.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case PaymentCreditCard, PaymentDebitCard, PaymentBankTransfer, PaymentCash:
		return PaymentMethod(s), nil
	}
	if method, ok := paymentAliases[s]; ok {
		return method, nil
	}
	return "", NewValidationError("invalid payment method: %q (valid: CreditCard, DebitCard, BankTransfer, Cash)", s)
}

// PaymentStatusPending is the initial payment lifecycle state. Payment
// settlement runs on its own lifecycle and is not gated by order status.
const PaymentStatusPending = "Pending"

// Validation bounds for order creation.
const (
	MinShippingAddressLen = 10
	MaxShippingAddressLen = 500
	MinLineQuantity       = 1
	MaxLineQuantity       = 100
)

// Order represents a customer order. Line items are immutable once the
// order is persisted; only status and payment status change afterwards.
type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	UserID          uuid.UUID       `json:"userId" db:"user_id"`
	OrderDate       time.Time       `json:"orderDate" db:"order_date"`
	TotalAmount     decimal.Decimal `json:"totalAmount" db:"total_amount"`
	DiscountAmount  decimal.Decimal `json:"discountAmount" db:"discount_amount"`
	FinalAmount     decimal.Decimal `json:"finalAmount" db:"final_amount"`
	Status          OrderStatus     `json:"status" db:"status"`
	ShippingAddress string          `json:"shippingAddress" db:"shipping_address"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod" db:"payment_method"`
	PaymentStatus   string          `json:"paymentStatus" db:"payment_status"`
	Notes           *string         `json:"notes,omitempty" db:"notes"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at"`
}

// OrderLine represents a line item in an order. UnitPrice is a snapshot
// of the product price at order time and is never re-read from the
// catalogue.
type OrderLine struct {
	ID          uuid.UUID       `json:"-" db:"id"`
	OrderID     uuid.UUID       `json:"-" db:"order_id"`
	ProductID   string          `json:"productId" db:"product_id"`
	ProductName string          `json:"productName" db:"product_name"`
	Quantity    int             `json:"quantity" db:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice" db:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal" db:"subtotal"`
}

// CreateOrderRequest represents the request payload for creating an order.
type CreateOrderRequest struct {
	UserID          uuid.UUID          `json:"userId"`
	ShippingAddress string             `json:"shippingAddress"`
	PaymentMethod   string             `json:"paymentMethod"`
	Notes           *string            `json:"notes,omitempty"`
	Lines           []OrderLineRequest `json:"lines"`
}

// OrderLineRequest represents a single line in an order request.
type OrderLineRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// OrderDetail is the fully hydrated representation of an order.
type OrderDetail struct {
	Order
	UserName  string      `json:"userName"`
	UserEmail string      `json:"userEmail"`
	Lines     []OrderLine `json:"lines"`
}

// OrderSummary is the listing representation of an order.
type OrderSummary struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	UserID      uuid.UUID       `json:"userId" db:"user_id"`
	OrderDate   time.Time       `json:"orderDate" db:"order_date"`
	FinalAmount decimal.Decimal `json:"finalAmount" db:"final_amount"`
	Status      OrderStatus     `json:"status" db:"status"`
	LineCount   int             `json:"lineCount" db:"line_count"`
}

// Caller identifies who is invoking an operation. Admin callers bypass
// the ownership check on cancellation.
type Caller struct {
	UserID uuid.UUID
	Admin  bool
}

// OwnedBy reports whether the order belongs to the given user, for use
// by authorising layers.
func (o *Order) OwnedBy(userID uuid.UUID) bool {
	return o.UserID == userID
}
