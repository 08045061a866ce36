package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/divvyapp/divvy/internal/transport/httpapi/handler"
	"github.com/divvyapp/divvy/internal/transport/httpapi/middleware"
	"github.com/divvyapp/divvy/pkg/logger"
)

// Config holds router configuration
type Config struct {
	Logger         *logger.Logger
	AllowedOrigins []string
	AuthHandler    *handler.AuthHandler
	GroupHandler   *handler.GroupHandler
	EventHandler   *handler.EventHandler
	ExpenseHandler *handler.ExpenseHandler
	PaymentHandler *handler.PaymentHandler
	BalanceHandler *handler.BalanceHandler
	HealthHandler  *handler.HealthHandler
	JWTMiddleware  func(http.Handler) http.Handler
}

// NewRouter creates a new HTTP router
func NewRouter(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(chimiddleware.Compress(5))
	r.Use(middleware.RateLimit()) // Rate limiting: 100 req/s with burst of 20

	// Health check endpoints (no authentication required)
	r.Get("/health", handler.GetHealth)
	r.Get("/health/live", handler.GetLiveness)
	if cfg.HealthHandler != nil {
		r.Get("/health/ready", cfg.HealthHandler.GetReadiness)
		r.Get("/health/detailed", cfg.HealthHandler.GetHealthDetailed)
	}

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Auth routes (public - no authentication required)
		if cfg.AuthHandler != nil {
			r.Post("/auth/register", cfg.AuthHandler.Register)
			r.Post("/auth/login", cfg.AuthHandler.Login)
		}

		// Protected routes (require JWT authentication)
		if cfg.JWTMiddleware != nil {
			r.Group(func(r chi.Router) {
				r.Use(cfg.JWTMiddleware)

				if cfg.GroupHandler != nil {
					r.Post("/groups", cfg.GroupHandler.CreateGroup)
					r.Get("/groups", cfg.GroupHandler.ListGroups)

					r.Route("/groups/{id}", func(r chi.Router) {
						r.Get("/", cfg.GroupHandler.GetGroup)
						r.Put("/", cfg.GroupHandler.UpdateGroup)
						r.Delete("/", cfg.GroupHandler.DeleteGroup)
						r.Post("/members", cfg.GroupHandler.AddMember)
						r.Delete("/members/{memberID}", cfg.GroupHandler.RemoveGuest)
						r.Post("/leave", cfg.GroupHandler.Leave)

						if cfg.BalanceHandler != nil {
							r.Get("/balances", cfg.BalanceHandler.GetGroupBalances)
							r.Get("/settlements", cfg.BalanceHandler.GetGroupSettlements)
							r.Get("/net-positions", cfg.BalanceHandler.GetNetPositions)
						}

						if cfg.EventHandler != nil {
							r.Post("/events", cfg.EventHandler.CreateEvent)
							r.Get("/events", cfg.EventHandler.ListEvents)

							r.Route("/events/{eventID}", func(r chi.Router) {
								r.Put("/", cfg.EventHandler.RenameEvent)
								r.Delete("/", cfg.EventHandler.DeleteEvent)
								r.Get("/balances", cfg.EventHandler.GetEventBalances)

								if cfg.ExpenseHandler != nil {
									r.Post("/expenses", cfg.ExpenseHandler.CreateExpense)
									r.Get("/expenses", cfg.ExpenseHandler.ListExpenses)
									r.Put("/expenses/{expenseID}", cfg.ExpenseHandler.UpdateExpense)
									r.Delete("/expenses/{expenseID}", cfg.ExpenseHandler.DeleteExpense)
								}

								if cfg.PaymentHandler != nil {
									r.Post("/payments", cfg.PaymentHandler.RecordPayment)
									r.Get("/payments", cfg.PaymentHandler.ListPayments)
									r.Delete("/payments/{paymentID}", cfg.PaymentHandler.DeletePayment)
								}
							})
						}
					})
				}
			})
		}
	})

	return r
}
