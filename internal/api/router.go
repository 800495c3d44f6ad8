// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ledger-core/internal/api/handler"
)

// NewRouter sets up and returns a new HTTP router.
func NewRouter(ledgerHandler *handler.LedgerHandler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(handler.DefaultTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Post("/users", ledgerHandler.RegisterUser)

	// Ledger routes act on the caller identified by X-User-ID.
	r.Group(func(r chi.Router) {
		r.Use(ledgerHandler.RequireOwner)
		r.Get("/balance", ledgerHandler.GetBalance)
		r.Post("/deposit", ledgerHandler.Deposit)
		r.Post("/transfer", ledgerHandler.Transfer)
		r.Get("/transactions", ledgerHandler.GetTransactions)
	})

	return r
}
