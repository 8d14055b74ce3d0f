package post

import (
	"log/slog"
	"net/http"
	"strconv"

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
	r.Route("/posts", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Submit)
		r.Get("/{id}", h.Get)
		r.Post("/{id}/vote", h.Vote)
		r.Post("/{id}/archive", h.Archive)
	})
}

// Submit godoc
// @Summary Submit a post
// @Tags posts
// @Accept json
// @Produce json
// @Success 201 {object} PostView
// @Router /posts [post]
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitPostRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.WriteError(w, err)
		return
	}
	p, err := h.service.Submit(r.Context(), internal.SessionFromContext(r.Context()), req)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))
	req := ListPostsRequest{
		ChannelSlug:     q.Get("channel"),
		Search:          q.Get("search"),
		Sort:            q.Get("sort"),
		Page:            page,
		PageSize:        pageSize,
		IncludeArchived: q.Get("archived") == "true",
	}
	pageResult, err := h.service.List(r.Context(), internal.SessionFromContext(r.Context()), req)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, pageResult)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Get(r.Context(), internal.SessionFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.WriteError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	var req VoteRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.WriteError(w, err)
		return
	}
	view, err := h.service.Vote(r.Context(), internal.SessionFromContext(r.Context()), chi.URLParam(r, "id"), req.Direction)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	var req ArchiveRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.WriteError(w, err)
		return
	}
	if err := h.service.Archive(r.Context(), internal.SessionFromContext(r.Context()), chi.URLParam(r, "id"), req.Archived); err != nil {
		h.WriteError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]bool{"archived": req.Archived})
}
