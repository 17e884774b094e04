package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	opMiddleware "frontdesk/internal/operator/middleware"
	"frontdesk/internal/reporting/models"
	id "frontdesk/pkg/domain"
	dErrors "frontdesk/pkg/domain-errors"
	"frontdesk/pkg/platform/httputil"
	"frontdesk/pkg/requestcontext"
)

// Service defines the derived reads exposed over HTTP.
type Service interface {
	ListAggregate(ctx context.Context, listID id.ListID) (*models.ListAggregate, error)
	OperatorRanking(ctx context.Context) (*models.Ranking, error)
	AttendanceSummary(ctx context.Context) (*models.AttendanceSummary, error)
}

// Handler serves report endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts report endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/lists/{id}/aggregate", h.HandleListAggregate)
	r.Get("/reports/ranking", h.HandleRanking)
	r.Get("/reports/attendance", h.HandleAttendance)
}

// HandleListAggregate handles GET /lists/{id}/aggregate.
func (h *Handler) HandleListAggregate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.authenticated(w, r) {
		return
	}
	listID, err := id.ParseListID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	agg, err := h.service.ListAggregate(ctx, listID)
	if err != nil {
		h.fail(ctx, w, "list aggregate failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, agg)
}

// HandleRanking handles GET /reports/ranking.
func (h *Handler) HandleRanking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.authenticated(w, r) {
		return
	}
	ranking, err := h.service.OperatorRanking(ctx)
	if err != nil {
		h.fail(ctx, w, "ranking failed", err)
		return
	}
	if ranking.Lists == nil {
		ranking.Lists = []*models.ListAggregate{}
	}
	httputil.WriteJSON(w, http.StatusOK, ranking)
}

// HandleAttendance handles GET /reports/attendance.
func (h *Handler) HandleAttendance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.authenticated(w, r) {
		return
	}
	summary, err := h.service.AttendanceSummary(ctx)
	if err != nil {
		h.fail(ctx, w, "attendance summary failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) authenticated(w http.ResponseWriter, r *http.Request) bool {
	if _, ok := opMiddleware.FromContext(r.Context()); !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return false
	}
	return true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
