package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/campushub/campus-forum/internal/auth"
	"github.com/campushub/campus-forum/internal/channel"
	"github.com/campushub/campus-forum/internal/comment"
	"github.com/campushub/campus-forum/internal/event"
	"github.com/campushub/campus-forum/internal/group"
	"github.com/campushub/campus-forum/internal/post"
	"github.com/campushub/campus-forum/internal/tag"
	"github.com/campushub/campus-forum/internal/transport/middleware"
	"github.com/campushub/campus-forum/internal/transport/swagger"
	"github.com/campushub/campus-forum/internal/user"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth    *auth.Handler
	User    *user.Handler
	Channel *channel.Handler
	Group   *group.Handler
	Post    *post.Handler
	Comment *comment.Handler
	Tag     *tag.Handler
	Event   *event.Handler
}

// RegisterAllRoutes wires middleware and mounts the API under /api/v1.
//
// The session loader runs globally and never rejects: anonymous requests flow
// through with no session, and each service decides what anonymity may do.
func RegisterAllRoutes(router *chi.Mux, db *sql.DB, handlers Handlers, allowedOrigins string, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS(allowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(handlers.Auth.SessionLoader)

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		handlers.Auth.RegisterRoutes(r)
		handlers.User.RegisterRoutes(r)
		handlers.Channel.RegisterRoutes(r)
		handlers.Group.RegisterRoutes(r)
		handlers.Post.RegisterRoutes(r)
		handlers.Comment.RegisterRoutes(r)
		handlers.Tag.RegisterRoutes(r)
		handlers.Event.RegisterRoutes(r)
	})
}
