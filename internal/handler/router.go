package handler

import (
	"net/http"

	"github.com/facundomartinezvidal/biblioteca-uade/internal/middleware"
	"github.com/facundomartinezvidal/biblioteca-uade/pkg/response"

	"github.com/gorilla/mux"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Health        *HealthHandler
	Catalog       *CatalogHandler
	Loans         *LoanHandler
	Penalties     *PenaltyHandler
	Notifications *NotificationHandler
	Webhooks      *WebhookHandler
	Jobs          *JobHandler
}

type RouterOptions struct {
	Auth        *middleware.Authenticator
	JobToken    string
	CORSOrigins string
}

func NewRouter(h Handlers, opts RouterOptions) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware)
	router.Use(response.CORSMiddleware(opts.CORSOrigins))

	// Health check
	router.HandleFunc("/health", h.Health.Health).Methods("GET")
	router.HandleFunc("/health/ready", h.Health.Ready).Methods("GET")

	// Service-to-service
	router.HandleFunc("/api/webhooks/rabbitmq", h.Webhooks.Receive).Methods("POST")
	router.Handle("/api/jobs/deadline-sweep",
		middleware.RequireJobToken(opts.JobToken)(http.HandlerFunc(h.Jobs.DeadlineSweep))).Methods("POST")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(opts.Auth.RequireAuth)

	api.HandleFunc("/books", h.Catalog.ListBooks).Methods("GET")
	api.HandleFunc("/books/{bookId}", h.Catalog.GetBook).Methods("GET")
	api.HandleFunc("/me/favorites", h.Catalog.ListFavorites).Methods("GET")
	api.HandleFunc("/me/favorites/{bookId}", h.Catalog.AddFavorite).Methods("PUT")
	api.HandleFunc("/me/favorites/{bookId}", h.Catalog.RemoveFavorite).Methods("DELETE")

	api.HandleFunc("/reservations", h.Loans.CreateReservation).Methods("POST")
	api.HandleFunc("/reservations/{loanId}/cancel", h.Loans.CancelReservation).Methods("POST")
	api.HandleFunc("/me/loans", h.Loans.ListMyLoans).Methods("GET")

	api.HandleFunc("/me/penalties", h.Penalties.ListMyPenalties).Methods("GET")
	api.HandleFunc("/sanctions", h.Penalties.ListSanctions).Methods("GET")

	api.HandleFunc("/me/notifications", h.Notifications.List).Methods("GET")
	api.HandleFunc("/me/notifications/unread-count", h.Notifications.UnreadCount).Methods("GET")
	api.HandleFunc("/me/notifications/read-all", h.Notifications.MarkAllAsRead).Methods("POST")
	api.HandleFunc("/me/notifications/{id}/read", h.Notifications.MarkAsRead).Methods("PATCH")

	// Staff routes
	staff := api.NewRoute().Subrouter()
	staff.Use(middleware.RequireStaff)

	staff.HandleFunc("/books", h.Catalog.CreateBook).Methods("POST")
	staff.HandleFunc("/loans", h.Loans.ListLoans).Methods("GET")
	staff.HandleFunc("/loans", h.Loans.CreateStudentLoan).Methods("POST")
	staff.HandleFunc("/loans/{loanId}/activate", h.Loans.ActivateLoan).Methods("POST")
	staff.HandleFunc("/loans/{loanId}/finish", h.Loans.FinishLoan).Methods("POST")
	staff.HandleFunc("/penalties", h.Penalties.CreatePenalty).Methods("POST")
	staff.HandleFunc("/penalties/{penaltyId}/pay", h.Penalties.MarkPaid).Methods("POST")
	staff.HandleFunc("/admin/notifications/expired", h.Notifications.Cleanup).Methods("DELETE")

	return router
}
