package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"frontdesk/internal/attendance/models"
	opMiddleware "frontdesk/internal/operator/middleware"
	id "frontdesk/pkg/domain"
	dErrors "frontdesk/pkg/domain-errors"
	"frontdesk/pkg/platform/httputil"
	"frontdesk/pkg/requestcontext"
)

// Service reports check-in status.
type Service interface {
	Status(ctx context.Context, memberID id.MemberID) (*models.Status, error)
}

// Handler serves check-in status lookups.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts attendance endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/check-ins/{member_id}", h.HandleStatus)
}

// HandleStatus handles GET /check-ins/{member_id}.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := opMiddleware.FromContext(ctx); !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	memberID, err := id.ParseMemberID(chi.URLParam(r, "member_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	status, err := h.service.Status(ctx, memberID)
	if err != nil {
		h.logger.WarnContext(ctx, "check-in status failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}
