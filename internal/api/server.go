package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mohammad-sahal/chat-app/internal/call"
	"github.com/mohammad-sahal/chat-app/internal/events"
	"github.com/mohammad-sahal/chat-app/internal/hub"
	"github.com/mohammad-sahal/chat-app/internal/repositories"
	"github.com/mohammad-sahal/chat-app/internal/services"
)

// Server bundles the REST handlers and the websocket gateway over the
// shared core components.
type Server struct {
	auth     *services.AuthService
	users    repositories.UserRepository
	groups   repositories.GroupRepository
	messages repositories.MessageRepository
	status   repositories.StatusRepository
	registry *hub.Registry
	calls    *call.Coordinator
	events   *events.Router
}

func NewServer(
	auth *services.AuthService,
	users repositories.UserRepository,
	groups repositories.GroupRepository,
	messages repositories.MessageRepository,
	status repositories.StatusRepository,
	registry *hub.Registry,
	calls *call.Coordinator,
	eventRouter *events.Router,
) *Server {
	return &Server{
		auth:     auth,
		users:    users,
		groups:   groups,
		messages: messages,
		status:   status,
		registry: registry,
		calls:    calls,
		events:   eventRouter,
	}
}

func (s *Server) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/api/health", s.handleHealth)
	router.Get("/ws", s.handleWebSocket)

	router.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
	})

	router.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Route("/api/users", func(r chi.Router) {
			r.Get("/", s.handleListUsers)
			r.Get("/search", s.handleSearchUsers)
			r.Get("/profile", s.handleGetProfile)
			r.Put("/profile", s.handleUpdateProfile)
		})

		r.Route("/api/groups", func(r chi.Router) {
			r.Get("/", s.handleListGroups)
			r.Post("/", s.handleCreateGroup)
			r.Get("/{groupID}", s.handleGetGroup)
			r.Put("/{groupID}", s.handleUpdateGroup)
			r.Post("/{groupID}/members", s.handleAddMember)
			r.Delete("/{groupID}/members/{memberID}", s.handleRemoveMember)
		})

		r.Route("/api/messages", func(r chi.Router) {
			r.Get("/private/{userID}", s.handleGetPrivateMessages)
			r.Get("/group/{groupID}", s.handleGetGroupMessages)
			r.Get("/stats", s.handleMessageStats)
			r.Post("/mark-read", s.handleMarkRead)
			r.Delete("/{messageID}", s.handleDeleteMessage)
		})
	})

	return router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "OK",
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
		"connectedClients": s.registry.Count(),
		"activeCalls":      s.calls.ActiveCount(),
	})
}
