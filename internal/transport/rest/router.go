package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/schoolpay/payments/internal/auth"
	"github.com/schoolpay/payments/internal/order"
	"github.com/schoolpay/payments/internal/reconcile"
	"github.com/schoolpay/payments/internal/school"
	"github.com/schoolpay/payments/internal/transaction"
	"github.com/schoolpay/payments/internal/transport/middleware"
	"github.com/schoolpay/payments/internal/transport/swagger"
	"github.com/schoolpay/payments/internal/user"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth        *auth.Handler
	User        *user.Handler
	Order       *order.Handler
	Status      *reconcile.Handler
	Webhook     *reconcile.WebhookHandler
	Transaction *transaction.Handler
	School      *school.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, allowedOrigins string, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS(allowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// The gateway posts here; no auth, and almost every outcome acks
		// with 200 so it stops retrying.
		r.Post("/webhooks/payment", h.Webhook.HandlePaymentWebhook)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
			sr.Post("/logout", h.Auth.Logout)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.Get("/users/me", h.User.GetCurrentUser)

			pr.Route("/payments", func(or chi.Router) {
				or.Post("/create-order", h.Order.CreateOrder)
				or.Post("/create-payment", h.Order.CreatePayment)
				or.Get("/school/{schoolId}/orders", h.Order.GetSchoolOrders)

				or.Group(func(ar chi.Router) {
					ar.Use(h.Auth.RequireAdmin)
					ar.Post("/update-order-status", h.Status.UpdateOrderStatus)
				})
			})

			pr.Route("/transactions", func(tr chi.Router) {
				tr.Get("/", h.Transaction.ListTransactions)
				tr.Get("/stats", h.Transaction.TransactionStats)
				tr.Get("/school/{schoolId}", h.Transaction.ListSchoolTransactions)
			})
			pr.Get("/transaction-status/{customOrderId}", h.Transaction.TransactionStatus)

			pr.Route("/schools", func(sr chi.Router) {
				sr.Get("/", h.School.ListSchools)
				sr.Get("/{id}", h.School.GetSchool)

				sr.Group(func(ar chi.Router) {
					ar.Use(h.Auth.RequireAdmin)
					ar.Post("/", h.School.CreateSchool)
				})
			})
		})
	})
}
