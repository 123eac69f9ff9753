package router

import (
	"net/http"

	"smartshop/internal/handler"
	"smartshop/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
// The admin route group carries the API-key guard; everything else is
// open to the storefront, which performs its own session handling.
func New(
	productHandler *handler.ProductHandler,
	orderHandler *handler.OrderHandler,
	adminAPIKey string,
	logger zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", productHandler.GetAll)
		r.Get("/products/{id}", productHandler.GetByID)

		r.Post("/orders", orderHandler.Create)
		r.Post("/orders/quote", orderHandler.Quote)
		r.Get("/orders/{id}", orderHandler.GetByID)
		r.Post("/orders/{id}/cancel", orderHandler.Cancel)

		r.Get("/users/{id}/orders", orderHandler.GetByUser)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(adminAPIKey, logger))

			r.Get("/orders", orderHandler.List)
			r.Get("/orders/recent", orderHandler.Recent)
			r.Put("/orders/{id}/status", orderHandler.UpdateStatus)
			r.Post("/orders/{id}/cancel", orderHandler.AdminCancel)
		})
	})

	return r
}
