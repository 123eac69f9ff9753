package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"smartshop/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	args := m.Called(ctx, tx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) CreateOrderLines(ctx context.Context, tx pgx.Tx, lines []model.OrderLine) error {
	args := m.Called(ctx, tx, lines)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.OrderDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderDetail), args.Error(1)
}

func (m *MockOrderRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, []model.OrderLine, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.Order), args.Get(1).([]model.OrderLine), args.Error(2)
}

func (m *MockOrderRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]model.OrderSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.OrderSummary), args.Error(1)
}

func (m *MockOrderRepository) GetAll(ctx context.Context) ([]model.OrderSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.OrderSummary), args.Error(1)
}

func (m *MockOrderRepository) GetByStatus(ctx context.Context, status model.OrderStatus) ([]model.OrderSummary, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.OrderSummary), args.Error(1)
}

func (m *MockOrderRepository) GetRecent(ctx context.Context, n int) ([]model.OrderSummary, error) {
	args := m.Called(ctx, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.OrderSummary), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus) error {
	args := m.Called(ctx, tx, id, status)
	return args.Error(0)
}

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

// MockTx is a minimal mock implementation of pgx.Tx for testing.
type MockTx struct {
	mock.Mock
	committed  bool
	rolledBack bool
}

func (m *MockTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	m.committed = true
	return args.Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	m.rolledBack = true
	return args.Error(0)
}

// Stub methods to satisfy pgx.Tx interface - these are not used in our tests
func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *MockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error) {
	return
}
func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *MockTx) Conn() *pgx.Conn                                               { return nil }

func activeUser(id uuid.UUID) *model.User {
	return &model.User{
		ID:        id,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		IsActive:  true,
		CreatedAt: time.Now(),
	}
}

func catalogProduct(id, name string, price float64, stock int) *model.Product {
	return &model.Product{
		ID:       id,
		Name:     name,
		Price:    decimal.NewFromFloat(price),
		Category: "Electronics",
		Stock:    stock,
		IsActive: true,
	}
}

func validCreateRequest(userID uuid.UUID) *model.CreateOrderRequest {
	return &model.CreateOrderRequest{
		UserID:          userID,
		ShippingAddress: "123 Main St, Springfield, 62704",
		PaymentMethod:   "CreditCard",
		Lines: []model.OrderLineRequest{
			{ProductID: "P001", Quantity: 2},
			{ProductID: "P002", Quantity: 2},
		},
	}
}

func TestOrderService_Create_Success(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	userID := uuid.New()
	req := validCreateRequest(userID)

	mockOrderRepo := new(MockOrderRepository)
	mockProductRepo := new(MockProductRepository)
	mockUserRepo := new(MockUserRepository)
	mockTx := new(MockTx)

	svc := NewOrderService(mockOrderRepo, mockProductRepo, mockUserRepo, logger)

	mockUserRepo.On("GetByID", ctx, userID).Return(activeUser(userID), nil)
	mockOrderRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockProductRepo.On("GetForUpdate", ctx, mockTx, "P001").Return(catalogProduct("P001", "Laptop", 100.00, 10), nil)
	mockProductRepo.On("GetForUpdate", ctx, mockTx, "P002").Return(catalogProduct("P002", "Mouse", 50.00, 2), nil)

	var created *model.Order
	mockOrderRepo.On("CreateOrder", ctx, mockTx, mock.AnythingOfType("*model.Order")).
		Run(func(args mock.Arguments) {
			created = args.Get(2).(*model.Order)
		}).
		Return(nil)
	mockOrderRepo.On("CreateOrderLines", ctx, mockTx, mock.AnythingOfType("[]model.OrderLine")).Return(nil)
	mockProductRepo.On("DecrementStock", ctx, mockTx, "P001", 2).Return(true, nil)
	mockProductRepo.On("DecrementStock", ctx, mockTx, "P002", 2).Return(true, nil)
	mockTx.On("Commit", ctx).Return(nil)

	mockOrderRepo.On("GetByID", ctx, mock.AnythingOfType("uuid.UUID")).
		Return(&model.OrderDetail{}, nil)

	resp, err := svc.Create(ctx, req)

	require.NoError(t, err)
	require.NotNil(t, resp)
	require.NotNil(t, created)

	// 2*100.00 + 2*50.00
	assert.True(t, created.TotalAmount.Equal(decimal.NewFromFloat(300.00)),
		"total was %s", created.TotalAmount)
	assert.True(t, created.DiscountAmount.IsZero())
	assert.True(t, created.FinalAmount.Equal(created.TotalAmount.Sub(created.DiscountAmount)))
	assert.Equal(t, model.StatusPending, created.Status)
	assert.Equal(t, model.PaymentStatusPending, created.PaymentStatus)
	assert.Equal(t, model.PaymentCreditCard, created.PaymentMethod)
	assert.Equal(t, userID, created.UserID)

	mockUserRepo.AssertExpectations(t)
	mockProductRepo.AssertExpectations(t)
	mockOrderRepo.AssertExpectations(t)
	mockTx.AssertExpectations(t)
	assert.True(t, mockTx.committed)
	assert.False(t, mockTx.rolledBack)
}

func TestOrderService_Create_NormalisesLegacyPaymentMethod(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	userID := uuid.New()
	req := validCreateRequest(userID)
	req.PaymentMethod = "Kredi Kartı"
	req.Lines = req.Lines[:1]

	mockOrderRepo := new(MockOrderRepository)
	mockProductRepo := new(MockProductRepository)
	mockUserRepo := new(MockUserRepository)
	mockTx := new(MockTx)

	svc := NewOrderService(mockOrderRepo, mockProductRepo, mockUserRepo, logger)

	mockUserRepo.On("GetByID", ctx, userID).Return(activeUser(userID), nil)
	mockOrderRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockProductRepo.On("GetForUpdate", ctx, mockTx, "P001").Return(catalogProduct("P001", "Laptop", 100.00, 10), nil)

	var created *model.Order
	mockOrderRepo.On("CreateOrder", ctx, mockTx, mock.AnythingOfType("*model.Order")).
		Run(func(args mock.Arguments) {
			created = args.Get(2).(*model.Order)
		}).
		Return(nil)
	mockOrderRepo.On("CreateOrderLines", ctx, mockTx, mock.AnythingOfType("[]model.OrderLine")).Return(nil)
	mockProductRepo.On("DecrementStock", ctx, mockTx, "P001", 2).Return(true, nil)
	mockTx.On("Commit", ctx).Return(nil)
	mockOrderRepo.On("GetByID", ctx, mock.AnythingOfType("uuid.UUID")).
		Return(&model.OrderDetail{}, nil)

	_, err := svc.Create(ctx, req)

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, model.PaymentCreditCard, created.PaymentMethod)
}

func TestOrderService_Create_ValidationFailures(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	userID := uuid.New()

	tests := []struct {
		name    string
		mutate  func(req *model.CreateOrderRequest)
		message string
	}{
		{
			name:    "Missing user ID",
			mutate:  func(req *model.CreateOrderRequest) { req.UserID = uuid.Nil },
			message: "user ID",
		},
		{
			name:    "Address too short",
			mutate:  func(req *model.CreateOrderRequest) { req.ShippingAddress = "short" },
			message: "shipping address",
		},
		{
			name: "Address too long",
			mutate: func(req *model.CreateOrderRequest) {
				req.ShippingAddress = strings.Repeat("x", model.MaxShippingAddressLen+1)
			},
			message: "shipping address",
		},
		{
			name: "Multi-byte address below minimum",
			// 5 characters, 10 bytes: the bound counts characters
			mutate: func(req *model.CreateOrderRequest) {
				req.ShippingAddress = strings.Repeat("Ğ", 5)
			},
			message: "shipping address",
		},
		{
			name: "Multi-byte address above maximum",
			mutate: func(req *model.CreateOrderRequest) {
				req.ShippingAddress = strings.Repeat("Ğ", model.MaxShippingAddressLen+1)
			},
			message: "shipping address",
		},
		{
			name:    "Invalid payment method",
			mutate:  func(req *model.CreateOrderRequest) { req.PaymentMethod = "Barter" },
			message: "payment method",
		},
		{
			name:    "No lines",
			mutate:  func(req *model.CreateOrderRequest) { req.Lines = nil },
			message: "at least one line",
		},
		{
			name: "Zero quantity",
			mutate: func(req *model.CreateOrderRequest) {
				req.Lines = []model.OrderLineRequest{{ProductID: "P001", Quantity: 0}}
			},
			message: "quantity",
		},
		{
			name: "Quantity above cap",
			mutate: func(req *model.CreateOrderRequest) {
				req.Lines = []model.OrderLineRequest{{ProductID: "P001", Quantity: 101}}
			},
			message: "quantity",
		},
		{
			name: "Missing product ID",
			mutate: func(req *model.CreateOrderRequest) {
				req.Lines = []model.OrderLineRequest{{ProductID: "", Quantity: 1}}
			},
			message: "product ID",
		},
		{
			name: "Duplicate product",
			mutate: func(req *model.CreateOrderRequest) {
				req.Lines = []model.OrderLineRequest{
					{ProductID: "P007", Quantity: 1},
					{ProductID: "P007", Quantity: 3},
				}
			},
			message: "duplicate product",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockOrderRepo := new(MockOrderRepository)
			mockProductRepo := new(MockProductRepository)
			mockUserRepo := new(MockUserRepository)

			svc := NewOrderService(mockOrderRepo, mockProductRepo, mockUserRepo, logger)

			req := validCreateRequest(userID)
			tt.mutate(req)

			resp, err := svc.Create(ctx, req)

			require.Error(t, err)
			assert.Nil(t, resp)

			derr, ok := model.AsDomainError(err)
			require.True(t, ok)
			assert.Equal(t, model.ErrCodeValidation, derr.Code)
			assert.Contains(t, derr.Message, tt.message)

			// Nothing may be touched before validation passes
			mockUserRepo.AssertNotCalled(t, "GetByID")
			mockOrderRepo.AssertNotCalled(t, "BeginTx")
		})
	}
}

func TestOrderService_Create_AddressLengthCountsCharacters(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	userID := uuid.New()

	mockOrderRepo := new(MockOrderRepository)
	mockProductRepo := new(MockProductRepository)
	mockUserRepo := new(MockUserRepository)

	svc := NewOrderService(mockOrderRepo, mockProductRepo, mockUserRepo, logger)

	// 250 characters but 500 bytes: must clear both bounds
	req := validCreateRequest(userID)
	req.ShippingAddress = strings.Repeat("Ğ", 250)

	mockUserRepo.On("GetByID", ctx, userID).Return(nil, nil)

	_, err := svc.Create(ctx, req)

	// Failing on the user lookup proves the address passed validation
	require.Error(t, err)
	derr, ok := model.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, model.ErrCodeNotFound, derr.Code)
	mockUserRepo.AssertExpectations(t)
}

func TestOrderService_Create_LocksProductsInStableOrder(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	userID := uuid.New()

	mockOrderRepo := new(MockOrderRepository)
	mockProductRepo := new(MockProductRepository)
	mockUserRepo := new(MockUserRepository)
	mockTx := new(MockTx)

	svc := NewOrderService(mockOrderRepo, mockProductRepo, mockUserRepo, logger)

	// Lines arrive in reverse product order
	req := validCreateRequest(userID)
	req.Lines = []model.OrderLineRequest{
		{ProductID: "P002", Quantity: 2},
		{ProductID: "P001", Quantity: 2},
	}

	var lockOrder []string
	mockUserRepo.On("GetByID", ctx, userID).Return(activeUser(userID), nil)
	mockOrderRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockProductRepo.On("GetForUpdate", ctx, mockTx, "P001").
		Run(func(mock.Arguments) { lockOrder = append(lockOrder, "P001") }).
		Return(catalogProduct("P001", "Laptop", 100.00, 10), nil)
	mockProductRepo.On("GetForUpdate", ctx, mockTx, "P002").
		Run(func(mock.Arguments) { lockOrder = append(lockOrder, "P002") }).
		Return(catalogProduct("P002", "Mouse", 50.00, 2), nil)
	mockOrderRepo.On("CreateOrder", ctx, mockTx, mock.AnythingOfType("*model.Order")).Return(nil)
	mockOrderRepo.On("CreateOrderLines", ctx, mockTx, mock.AnythingOfType("[]model.OrderLine")).Return(nil)
	mockProductRepo.On("DecrementStock", ctx, mockTx, "P001", 2).Return(true, nil)
	mockProductRepo.On("DecrementStock", ctx, mockTx, "P002", 2).Return(true, nil)
	mockTx.On("Commit", ctx).Return(nil)
	mockOrderRepo.On("GetByID", ctx, mock.AnythingOfType("uuid.UUID")).
		Return(&model.OrderDetail{}, nil)

	_, err := svc.Create(ctx, req)

	require.NoError(t, err)
	// Rows are always locked in product-ID order so two concurrent
	// orders can never wait on each other crosswise
	assert.Equal(t, []string{"P001", "P002"}, lockOrder)
}

func TestOrderService_Create_UserNotFound(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	userID := uuid.New()

	mockOrderRepo := new(MockOrderRepository)
	mockProductRepo := new(MockProductRepository)
	mockUserRepo := new(MockUserRepository)

	svc := NewOrderService(mockOrderRepo, mockProductRepo, mockUserRepo, logger)

	mockUserRepo.On("GetByID", ctx, userID).Return(nil, nil)

	resp, err := svc.Create(ctx, validCreateRequest(userID))

	require.Error(t, err)
	assert.Nil(t, resp)

	derr, ok := model.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, model.ErrCodeNotFound, derr.Code)
	mockOrderRepo.AssertNotCalled(t, "BeginTx")
}

func TestOrderService_Create_InactiveUser(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	userID := uuid.New()

	mockOrderRepo := new(MockOrderRepository)
	mockProductRepo := new(MockProductRepository)
	mockUserRepo := new(MockUserRepository)

	svc := NewOrderService(mockOrderRepo, mockProductRepo, mockUserRepo, logger)

	user := activeUser(userID)
	user.IsActive = false
	mockUserRepo.On("GetByID", ctx, userID).Return(user, nil)

	resp, err := svc.Create(ctx, validCreateRequest(userID))

	require.Error(t, err)
	assert.Nil(t, resp)

	derr, ok := model.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, model.ErrCodeInvalidState, derr.Code)
	mockOrderRepo.AssertNotCalled(t, "BeginTx")
}

func TestOrderService_Create_ProductNotFound_RollsBack(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	userID := uuid.New()

	mockOrderRepo := new(MockOrderRepository)
	mockProductRepo := new(MockProductRepository)
	mockUserRepo := new(MockUserRepository)
	mockTx := new(MockTx)

	svc := NewOrderService(mockOrderRepo, mockProductRepo, mockUserRepo, logger)

	mockUserRepo.On("GetByID", ctx, userID).Return(activeUser(userID), nil)
	mockOrderRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockProductRepo.On("GetForUpdate", ctx, mockTx, "P001").Return(catalogProduct("P001", "Laptop", 100.00, 10), nil)
	mockProductRepo.On("GetForUpdate", ctx, mockTx, "P002").Return(nil, nil)
	mockTx.On("Rollback", ctx).Return(nil)

	resp, err := svc.Create(ctx, validCreateRequest(userID))

	require.Error(t, err)
	assert.Nil(t, resp)

	derr, ok := model.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, model.ErrCodeNotFound, derr.Code)
	assert.Contains(t, derr.Message, "P002")

	mockOrderRepo.AssertNotCalled(t, "CreateOrder")
	mockProductRepo.AssertNotCalled(t, "DecrementStock")
	assert.True(t, mockTx.rolledBack)
	assert.False(t, mockTx.committed)
}

func TestOrderService_Create_InactiveProduct(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	userID := uuid.New()

	mockOrderRepo := new(MockOrderRepository)
	mockProductRepo := new(MockProductRepository)
	mockUserRepo := new(MockUserRepository)
	mockTx := new(MockTx)

	svc := NewOrderService(mockOrderRepo, mockProductRepo, mockUserRepo, logger)

	discontinued := catalogProduct("P001", "Laptop", 100.00, 10)
	discontinued.IsActive = false

	mockUserRepo.On("GetByID", ctx, userID).Return(activeUser(userID), nil)
	mockOrderRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockProductRepo.On("GetForUpdate", ctx, mockTx, "P001").Return(discontinued, nil)
	mockTx.On("Rollback", ctx).Return(nil)

	resp, err := svc.Create(ctx, validCreateRequest(userID))

	require.Error(t, err)
	assert.Nil(t, resp)

	derr, ok := model.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, model.ErrCodeNotFound, derr.Code)
	assert.Contains(t, derr.Message, "no longer available")
	assert.True(t, mockTx.rolledBack)
}

func TestOrderService_Create_InsufficientStock_RollsBack(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	userID := uuid.New()

	mockOrderRepo := new(MockOrderRepository)
	mockProductRepo := new(MockProductRepository)
	mockUserRepo := new(MockUserRepository)
	mockTx := new(MockTx)

	svc := NewOrderService(mockOrderRepo, mockProductRepo, mockUserRepo, logger)

	mockUserRepo.On("GetByID", ctx, userID).Return(activeUser(userID), nil)
	mockOrderRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockProductRepo.On("GetForUpdate", ctx, mockTx, "P001").Return(catalogProduct("P001", "Laptop", 100.00, 1), nil)
	mockTx.On("Rollback", ctx).Return(nil)

	resp, err := svc.Create(ctx, validCreateRequest(userID))

	require.Error(t, err)
	assert.Nil(t, resp)

	derr, ok := model.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, model.ErrCodeInsufficientStock, derr.Code)
	assert.Contains(t, derr.Message, "Laptop")
	assert.Contains(t, derr.Message, "available: 1")

	mockOrderRepo.AssertNotCalled(t, "CreateOrder")
	assert.True(t, mockTx.rolledBack)
	assert.False(t, mockTx.committed)
}

func TestOrderService_Cancel_Success(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	orderID := uuid.New()
	ownerID := uuid.New()

	order := &model.Order{ID: orderID, UserID: ownerID, Status: model.StatusPending}
	lines := []model.OrderLine{
		{OrderID: orderID, ProductID: "P001", Quantity: 3},
		{OrderID: orderID, ProductID: "P002", Quantity: 1},
	}

	mockOrderRepo := new(MockOrderRepository)
	mockProductRepo := new(MockProductRepository)
	mockUserRepo := new(MockUserRepository)
	mockTx := new(MockTx)

	svc := NewOrderService(mockOrderRepo, mockProductRepo, mockUserRepo, logger)

	mockOrderRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockOrderRepo.On("GetForUpdate", ctx, mockTx, orderID).Return(order, lines, nil)
	mockOrderRepo.On("UpdateStatus", ctx, mockTx, orderID, model.StatusCancelled).Return(nil)
	mockProductRepo.On("IncrementStock", ctx, mockTx, "P001", 3).Return(nil)
	mockProductRepo.On("IncrementStock", ctx, mockTx, "P002", 1).Return(nil)
	mockTx.On("Commit", ctx).Return(nil)

	err := svc.Cancel(ctx, orderID, model.Caller{UserID: ownerID})

	require.NoError(t, err)
	mockOrderRepo.AssertExpectations(t)
	mockProductRepo.AssertExpectations(t)
	assert.True(t, mockTx.committed)
}

func TestOrderService_Cancel_Forbidden(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	orderID := uuid.New()
	order := &model.Order{ID: orderID, UserID: uuid.New(), Status: model.StatusPending}

	mockOrderRepo := new(MockOrderRepository)
	mockProductRepo := new(MockProductRepository)
	mockUserRepo := new(MockUserRepository)
	mockTx := new(MockTx)

	svc := NewOrderService(mockOrderRepo, mockProductRepo, mockUserRepo, logger)

	mockOrderRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockOrderRepo.On("GetForUpdate", ctx, mockTx, orderID).Return(order, []model.OrderLine{}, nil)
	mockTx.On("Rollback", ctx).Return(nil)

	err := svc.Cancel(ctx, orderID, model.Caller{UserID: uuid.New()})

	require.Error(t, err)
	derr, ok := model.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, model.ErrCodeForbidden, derr.Code)
	mockProductRepo.AssertNotCalled(t, "IncrementStock")
	assert.True(t, mockTx.rolledBack)
}

func TestOrderService_Cancel_AdminBypassesOwnership(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	orderID := uuid.New()
	order := &model.Order{ID: orderID, UserID: uuid.New(), Status: model.StatusProcessing}
	lines := []model.OrderLine{{OrderID: orderID, ProductID: "P001", Quantity: 2}}

	mockOrderRepo := new(MockOrderRepository)
	mockProductRepo := new(MockProductRepository)
	mockUserRepo := new(MockUserRepository)
	mockTx := new(MockTx)

	svc := NewOrderService(mockOrderRepo, mockProductRepo, mockUserRepo, logger)

	mockOrderRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockOrderRepo.On("GetForUpdate", ctx, mockTx, orderID).Return(order, lines, nil)
	mockOrderRepo.On("UpdateStatus", ctx, mockTx, orderID, model.StatusCancelled).Return(nil)
	mockProductRepo.On("IncrementStock", ctx, mockTx, "P001", 2).Return(nil)
	mockTx.On("Commit", ctx).Return(nil)

	err := svc.Cancel(ctx, orderID, model.Caller{Admin: true})

	require.NoError(t, err)
	mockProductRepo.AssertExpectations(t)
}

func TestOrderService_Cancel_TerminalStates(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	ownerID := uuid.New()

	tests := []struct {
		name    string
		status  model.OrderStatus
		message string
	}{
		{name: "Already cancelled", status: model.StatusCancelled, message: "already cancelled"},
		{name: "Shipped", status: model.StatusShipped, message: "no longer be cancelled"},
		{name: "Delivered", status: model.StatusDelivered, message: "no longer be cancelled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orderID := uuid.New()
			order := &model.Order{ID: orderID, UserID: ownerID, Status: tt.status}
			lines := []model.OrderLine{{OrderID: orderID, ProductID: "P001", Quantity: 2}}

			mockOrderRepo := new(MockOrderRepository)
			mockProductRepo := new(MockProductRepository)
			mockUserRepo := new(MockUserRepository)
			mockTx := new(MockTx)

			svc := NewOrderService(mockOrderRepo, mockProductRepo, mockUserRepo, logger)

			mockOrderRepo.On("BeginTx", ctx).Return(mockTx, nil)
			mockOrderRepo.On("GetForUpdate", ctx, mockTx, orderID).Return(order, lines, nil)
			mockTx.On("Rollback", ctx).Return(nil)

			err := svc.Cancel(ctx, orderID, model.Caller{UserID: ownerID})

			require.Error(t, err)
			derr, ok := model.AsDomainError(err)
			require.True(t, ok)
			assert.Equal(t, model.ErrCodeInvalidState, derr.Code)
			assert.Contains(t, derr.Message, tt.message)

			// No stock may move on a refused cancellation
			mockProductRepo.AssertNotCalled(t, "IncrementStock")
			mockOrderRepo.AssertNotCalled(t, "UpdateStatus")
		})
	}
}

func TestOrderService_Cancel_NotFound(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	orderID := uuid.New()

	mockOrderRepo := new(MockOrderRepository)
	mockProductRepo := new(MockProductRepository)
	mockUserRepo := new(MockUserRepository)
	mockTx := new(MockTx)

	svc := NewOrderService(mockOrderRepo, mockProductRepo, mockUserRepo, logger)

	mockOrderRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockOrderRepo.On("GetForUpdate", ctx, mockTx, orderID).Return(nil, nil, nil)
	mockTx.On("Rollback", ctx).Return(nil)

	err := svc.Cancel(ctx, orderID, model.Caller{UserID: uuid.New()})

	require.Error(t, err)
	derr, ok := model.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, model.ErrCodeNotFound, derr.Code)
}

func TestOrderService_UpdateStatus_InvalidStatus(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	mockOrderRepo := new(MockOrderRepository)
	mockProductRepo := new(MockProductRepository)
	mockUserRepo := new(MockUserRepository)

	svc := NewOrderService(mockOrderRepo, mockProductRepo, mockUserRepo, logger)

	err := svc.UpdateStatus(ctx, uuid.New(), "Lost")

	require.Error(t, err)
	derr, ok := model.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, model.ErrCodeValidation, derr.Code)
	mockOrderRepo.AssertNotCalled(t, "BeginTx")
}

func TestOrderService_UpdateStatus_CancelledIsImmutable(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	orderID := uuid.New()

	order := &model.Order{ID: orderID, Status: model.StatusCancelled}

	mockOrderRepo := new(MockOrderRepository)
	mockProductRepo := new(MockProductRepository)
	mockUserRepo := new(MockUserRepository)
	mockTx := new(MockTx)

	svc := NewOrderService(mockOrderRepo, mockProductRepo, mockUserRepo, logger)

	mockOrderRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockOrderRepo.On("GetForUpdate", ctx, mockTx, orderID).Return(order, []model.OrderLine{}, nil)
	mockTx.On("Rollback", ctx).Return(nil)

	err := svc.UpdateStatus(ctx, orderID, "Shipped")

	require.Error(t, err)
	derr, ok := model.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, model.ErrCodeInvalidState, derr.Code)
	mockOrderRepo.AssertNotCalled(t, "UpdateStatus")
}

func TestOrderService_UpdateStatus_AllowsBackwardTransition(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	orderID := uuid.New()

	// Shipped back to Processing is permitted: only the cancelled rule applies
	order := &model.Order{ID: orderID, Status: model.StatusShipped}

	mockOrderRepo := new(MockOrderRepository)
	mockProductRepo := new(MockProductRepository)
	mockUserRepo := new(MockUserRepository)
	mockTx := new(MockTx)

	svc := NewOrderService(mockOrderRepo, mockProductRepo, mockUserRepo, logger)

	mockOrderRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockOrderRepo.On("GetForUpdate", ctx, mockTx, orderID).Return(order, []model.OrderLine{}, nil)
	mockOrderRepo.On("UpdateStatus", ctx, mockTx, orderID, model.StatusProcessing).Return(nil)
	mockTx.On("Commit", ctx).Return(nil)

	err := svc.UpdateStatus(ctx, orderID, "Processing")

	require.NoError(t, err)
	mockOrderRepo.AssertExpectations(t)
}

func TestOrderService_UpdateStatus_AcceptsLegacyAlias(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	orderID := uuid.New()

	order := &model.Order{ID: orderID, Status: model.StatusProcessing}

	mockOrderRepo := new(MockOrderRepository)
	mockProductRepo := new(MockProductRepository)
	mockUserRepo := new(MockUserRepository)
	mockTx := new(MockTx)

	svc := NewOrderService(mockOrderRepo, mockProductRepo, mockUserRepo, logger)

	mockOrderRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockOrderRepo.On("GetForUpdate", ctx, mockTx, orderID).Return(order, []model.OrderLine{}, nil)
	mockOrderRepo.On("UpdateStatus", ctx, mockTx, orderID, model.StatusShipped).Return(nil)
	mockTx.On("Commit", ctx).Return(nil)

	err := svc.UpdateStatus(ctx, orderID, "Kargoda")

	require.NoError(t, err)
	mockOrderRepo.AssertExpectations(t)
}

func TestOrderService_CalculateTotal(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	mockOrderRepo := new(MockOrderRepository)
	mockProductRepo := new(MockProductRepository)
	mockUserRepo := new(MockUserRepository)

	svc := NewOrderService(mockOrderRepo, mockProductRepo, mockUserRepo, logger)

	mockProductRepo.On("GetByID", ctx, "P001").Return(catalogProduct("P001", "Laptop", 100.00, 10), nil)
	mockProductRepo.On("GetByID", ctx, "P002").Return(catalogProduct("P002", "Mouse", 50.00, 2), nil)

	total, err := svc.CalculateTotal(ctx, []model.OrderLineRequest{
		{ProductID: "P001", Quantity: 2},
		{ProductID: "P002", Quantity: 2},
	})

	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromFloat(300.00)), "total was %s", total)

	// No stock is touched by a quote
	mockProductRepo.AssertNotCalled(t, "GetForUpdate")
	mockProductRepo.AssertNotCalled(t, "DecrementStock")
	mockOrderRepo.AssertNotCalled(t, "BeginTx")
}

func TestOrderService_CalculateTotal_ProductNotFound(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	mockOrderRepo := new(MockOrderRepository)
	mockProductRepo := new(MockProductRepository)
	mockUserRepo := new(MockUserRepository)

	svc := NewOrderService(mockOrderRepo, mockProductRepo, mockUserRepo, logger)

	mockProductRepo.On("GetByID", ctx, "MISSING").Return(nil, nil)

	_, err := svc.CalculateTotal(ctx, []model.OrderLineRequest{
		{ProductID: "MISSING", Quantity: 1},
	})

	require.Error(t, err)
	derr, ok := model.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, model.ErrCodeNotFound, derr.Code)
}

func TestOrderService_CalculateTotal_EmptyLines(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	svc := NewOrderService(new(MockOrderRepository), new(MockProductRepository), new(MockUserRepository), logger)

	_, err := svc.CalculateTotal(ctx, nil)

	require.Error(t, err)
	derr, ok := model.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, model.ErrCodeValidation, derr.Code)
}

func TestOrderService_GetByUserID_EmptyIsNotAnError(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	userID := uuid.New()

	mockOrderRepo := new(MockOrderRepository)

	svc := NewOrderService(mockOrderRepo, new(MockProductRepository), new(MockUserRepository), logger)

	mockOrderRepo.On("GetByUserID", ctx, userID).Return([]model.OrderSummary{}, nil)

	summaries, err := svc.GetByUserID(ctx, userID)

	require.NoError(t, err)
	require.NotNil(t, summaries)
	assert.Empty(t, summaries)
}

func TestOrderService_GetByStatus_InvalidStatus(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	mockOrderRepo := new(MockOrderRepository)

	svc := NewOrderService(mockOrderRepo, new(MockProductRepository), new(MockUserRepository), logger)

	_, err := svc.GetByStatus(ctx, "Misplaced")

	require.Error(t, err)
	derr, ok := model.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, model.ErrCodeValidation, derr.Code)
	mockOrderRepo.AssertNotCalled(t, "GetByStatus")
}

func TestOrderService_GetRecent_InvalidCount(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	mockOrderRepo := new(MockOrderRepository)

	svc := NewOrderService(mockOrderRepo, new(MockProductRepository), new(MockUserRepository), logger)

	_, err := svc.GetRecent(ctx, 0)

	require.Error(t, err)
	derr, ok := model.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, model.ErrCodeValidation, derr.Code)
	mockOrderRepo.AssertNotCalled(t, "GetRecent")
}

func TestOrderService_GetByID_NotFound(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	orderID := uuid.New()

	mockOrderRepo := new(MockOrderRepository)

	svc := NewOrderService(mockOrderRepo, new(MockProductRepository), new(MockUserRepository), logger)

	mockOrderRepo.On("GetByID", ctx, orderID).Return(nil, nil)

	detail, err := svc.GetByID(ctx, orderID)

	require.Error(t, err)
	assert.Nil(t, detail)

	derr, ok := model.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, model.ErrCodeNotFound, derr.Code)
}
