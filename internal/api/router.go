package api

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spendtrack/spendtrack-be/internal/api/handlers"
	"github.com/spendtrack/spendtrack-be/internal/auth"
	"github.com/spendtrack/spendtrack-be/internal/services"
	"github.com/spendtrack/spendtrack-be/internal/websocket"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(
	db *sql.DB,
	tokens *auth.TokenService,
	hub *websocket.Hub,
	userService services.UserServiceProvider,
	expenseService services.ExpenseServiceProvider,
	eventService services.EventServiceProvider,
	allowedOrigins []string,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Every unmatched route, wrong method included, answers with the same
	// JSON envelope the API uses everywhere else.
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db)
	authHandler := handlers.NewAuthHandler(userService)
	expenseHandler := handlers.NewExpenseHandler(expenseService)
	eventHandler := handlers.NewEventHandler(eventService)
	wsHandler := handlers.NewWebSocketHandler(hub, tokens)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.Check)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		// Websocket endpoint authenticates via token query parameter.
		r.Get("/ws", wsHandler.Serve)

		// Everything below requires a bearer token.
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(tokens))

			r.Route("/expenses", func(r chi.Router) {
				r.Get("/", expenseHandler.List)
				r.Post("/", expenseHandler.Create)
				r.Get("/summary", expenseHandler.Summary)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", expenseHandler.Get)
					r.Put("/", expenseHandler.Update)
					r.Delete("/", expenseHandler.Delete)
				})
			})

			r.Get("/events", eventHandler.GetRecent)
		})
	})

	return r
}

func notFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": "Route " + r.URL.Path + " not found",
	})
}
