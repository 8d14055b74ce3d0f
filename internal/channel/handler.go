package channel

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
	r.Route("/channels", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{slug}", h.Get)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Post("/{id}/join", h.Join)
		r.Post("/{id}/leave", h.Leave)
		r.Post("/{id}/moderators/apply", h.ApplyModerator)
		r.Post("/{id}/moderators/approve", h.ApproveModerator)
		r.Post("/{id}/moderators/reject", h.RejectModerator)
	})
}

// List godoc
// @Summary List channels
// @Tags channels
// @Produce json
// @Success 200 {array} ChannelView
// @Router /channels [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.List(r.Context(), internal.SessionFromContext(r.Context()))
	if err != nil {
		h.WriteError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, views)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ch, err := h.service.Get(r.Context(), internal.SessionFromContext(r.Context()), chi.URLParam(r, "slug"))
	if err != nil {
		h.WriteError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ch)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateChannelRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.WriteError(w, err)
		return
	}
	ch, err := h.service.Create(r.Context(), internal.SessionFromContext(r.Context()), req)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, ch)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateChannelRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.WriteError(w, err)
		return
	}
	ch, err := h.service.Update(r.Context(), internal.SessionFromContext(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ch)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), internal.SessionFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.WriteError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	var req JoinChannelRequest
	if r.ContentLength > 0 {
		if err := h.DecodeJSON(r, &req); err != nil {
			h.WriteError(w, err)
			return
		}
	}
	if err := h.service.Join(r.Context(), internal.SessionFromContext(r.Context()), chi.URLParam(r, "id"), req.Passkey); err != nil {
		h.WriteError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]bool{"joined": true})
}

func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Leave(r.Context(), internal.SessionFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.WriteError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]bool{"left": true})
}

func (h *Handler) ApplyModerator(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ApplyModerator(r.Context(), internal.SessionFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.WriteError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]bool{"applied": true})
}

func (h *Handler) ApproveModerator(w http.ResponseWriter, r *http.Request) {
	var req ModeratorDecisionRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.WriteError(w, err)
		return
	}
	if err := h.service.ApproveModerator(r.Context(), internal.SessionFromContext(r.Context()), chi.URLParam(r, "id"), req.ApplicantID); err != nil {
		h.WriteError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]bool{"approved": true})
}

func (h *Handler) RejectModerator(w http.ResponseWriter, r *http.Request) {
	var req ModeratorDecisionRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.WriteError(w, err)
		return
	}
	if err := h.service.RejectModerator(r.Context(), internal.SessionFromContext(r.Context()), chi.URLParam(r, "id"), req.ApplicantID); err != nil {
		h.WriteError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]bool{"rejected": true})
}
