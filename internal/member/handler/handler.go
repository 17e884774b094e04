package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"frontdesk/internal/member/service"
	"frontdesk/pkg/platform/httputil"
	"frontdesk/pkg/requestcontext"
)

// Service defines the member search operation.
type Service interface {
	Search(ctx context.Context, q string) (*service.SearchResult, error)
}

// Handler serves member search.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts member endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/members/search", h.HandleSearch)
}

// HandleSearch handles GET /members/search?q=.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	res, err := h.service.Search(ctx, r.URL.Query().Get("q"))
	if err != nil {
		h.logger.InfoContext(ctx, "member search failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}
