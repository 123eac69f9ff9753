package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"smartshop/internal/model"
	"smartshop/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// orderIDParam extracts and parses the {id} URL parameter.
func (h *OrderHandler) orderIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation,
			"invalid order ID format", h.logger)
		return uuid.Nil, false
	}
	return orderID, true
}

// Create handles POST /api/orders requests.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation,
			"invalid request body", h.logger)
		return
	}

	order, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

// GetByID handles GET /api/orders/{id} requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderIDParam(w, r)
	if !ok {
		return
	}

	order, err := h.service.GetByID(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// GetByUser handles GET /api/users/{id}/orders requests.
func (h *OrderHandler) GetByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation,
			"invalid user ID format", h.logger)
		return
	}

	orders, svcErr := h.service.GetByUserID(r.Context(), userID)
	if svcErr != nil {
		writeServiceError(w, svcErr, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// cancelRequest is the body of a customer cancellation request.
type cancelRequest struct {
	UserID uuid.UUID `json:"userId"`
}

// Cancel handles POST /api/orders/{id}/cancel requests on behalf of the
// owning customer.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderIDParam(w, r)
	if !ok {
		return
	}

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation,
			"invalid request body", h.logger)
		return
	}

	caller := model.Caller{UserID: req.UserID}
	if err := h.service.Cancel(r.Context(), orderID, caller); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "order cancelled"})
}

// AdminCancel handles POST /api/admin/orders/{id}/cancel requests. The
// admin capability bypasses the ownership check.
func (h *OrderHandler) AdminCancel(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderIDParam(w, r)
	if !ok {
		return
	}

	caller := model.Caller{Admin: true}
	if err := h.service.Cancel(r.Context(), orderID, caller); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "order cancelled"})
}

// updateStatusRequest is the body of a status update request.
type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PUT /api/admin/orders/{id}/status requests.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderIDParam(w, r)
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation,
			"invalid request body", h.logger)
		return
	}

	if err := h.service.UpdateStatus(r.Context(), orderID, req.Status); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "order status updated"})
}

// List handles GET /api/admin/orders requests, optionally filtered by
// the status query parameter.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")

	var orders []model.OrderSummary
	var err error
	if status != "" {
		orders, err = h.service.GetByStatus(r.Context(), status)
	} else {
		orders, err = h.service.GetAll(r.Context())
	}
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// Recent handles GET /api/admin/orders/recent requests.
func (h *OrderHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := 10 // default
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, model.ErrCodeValidation,
				"invalid limit parameter", h.logger)
			return
		}
	}

	orders, err := h.service.GetRecent(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// quoteRequest is the body of a price quote request.
type quoteRequest struct {
	Lines []model.OrderLineRequest `json:"lines"`
}

// quoteResponse carries the computed total for a quote.
type quoteResponse struct {
	Total string `json:"total"`
}

// Quote handles POST /api/orders/quote requests: a pricing preview with
// no stock reservation.
func (h *OrderHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation,
			"invalid request body", h.logger)
		return
	}

	total, err := h.service.CalculateTotal(r.Context(), req.Lines)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, quoteResponse{Total: total.StringFixed(2)})
}
