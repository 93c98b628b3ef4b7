package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Routes bundles everything the router mounts.
type Routes struct {
	Auth      *AuthHandler
	Users     *UserHandler
	Events    *EventHandler
	Guard     func(http.Handler) http.Handler
	Realtime  http.Handler
	Origins   []string
	AccessLog *slog.Logger
}

// NewRouter builds the HTTP surface with its global middleware stack.
func NewRouter(rt Routes) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger(rt.AccessLog))    // structured access log
	r.Use(CORS(rt.Origins))        // credentialed CORS for the web client

	r.Get("/", Root)

	r.Post("/jwt", rt.Auth.IssueToken)
	r.Post("/logout", rt.Auth.Logout)

	r.Route("/users", func(r chi.Router) {
		r.Post("/", rt.Users.CreateUser)
		r.With(rt.Guard).Get("/role/{email}", rt.Users.GetRole)
	})

	r.Route("/events", func(r chi.Router) {
		r.Get("/", rt.Events.ListEvents)
		r.Get("/{id}", rt.Events.GetEvent)
		r.With(rt.Guard).Post("/", rt.Events.CreateEvent)
	})

	if rt.Realtime != nil {
		r.Handle("/ws", rt.Realtime)
	}

	return r
}
