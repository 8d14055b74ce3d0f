package comment

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/campushub/campus-forum/internal"
	"github.com/campushub/campus-forum/internal/transport"
)

type Handler struct {
	transport.BaseHandler
	service *Service
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{BaseHandler: transport.NewBaseHandler(logger), service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/posts/{postID}/comments", func(r chi.Router) {
		r.Get("/", h.ListByPost)
		r.Post("/", h.Add)
	})
	r.Route("/comments", func(r chi.Router) {
		r.Delete("/{id}", h.Delete)
		r.Post("/{id}/vote", h.Vote)
	})
}

func (h *Handler) ListByPost(w http.ResponseWriter, r *http.Request) {
	comments, err := h.service.ListByPost(r.Context(), internal.SessionFromContext(r.Context()), chi.URLParam(r, "postID"))
	if err != nil {
		h.WriteError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, comments)
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddCommentRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.WriteError(w, err)
		return
	}
	c, err := h.service.Add(r.Context(), internal.SessionFromContext(r.Context()), chi.URLParam(r, "postID"), req)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), internal.SessionFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.WriteError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	var req VoteRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.WriteError(w, err)
		return
	}
	c, err := h.service.Vote(r.Context(), internal.SessionFromContext(r.Context()), chi.URLParam(r, "id"), req.Direction)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, c)
}
