package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	claimModels "frontdesk/internal/claim/models"
	opMiddleware "frontdesk/internal/operator/middleware"
	opModels "frontdesk/internal/operator/models"
	"frontdesk/internal/override/models"
	dErrors "frontdesk/pkg/domain-errors"
	audit "frontdesk/pkg/platform/audit"
	"frontdesk/pkg/platform/httputil"
	"frontdesk/pkg/requestcontext"
)

// Service defines the override operations exposed over HTTP.
type Service interface {
	RevokeClaim(ctx context.Context, req models.RevokeClaimRequest) (*claimModels.Claim, error)
	RevokeAll(ctx context.Context, req models.BulkRevokeRequest) (int, error)
	ListAudit(ctx context.Context, actor *opModels.Operator, limit int) ([]audit.OverrideRecord, error)
}

// Handler serves revocation and audit endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts override endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Delete("/claims", h.HandleRevokeClaim)
	r.Post("/claims/bulk-revoke", h.HandleBulkRevoke)
	r.Get("/admin/audit", h.HandleListAudit)
}

type claimResponse struct {
	Claim *claimModels.Claim `json:"claim"`
}

type bulkRevokeResponse struct {
	RevokedCount int `json:"revoked_count"`
}

type auditResponse struct {
	Records []audit.OverrideRecord `json:"records"`
}

// HandleRevokeClaim handles DELETE /claims.
func (h *Handler) HandleRevokeClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	op, ok := h.requireOperator(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[revokeClaimRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	revoked, err := h.service.RevokeClaim(ctx, models.RevokeClaimRequest{
		MemberID:    req.MemberID,
		Purpose:     req.Purpose,
		ContainerID: req.ContainerID,
		Actor:       op,
		Reason:      req.Reason,
	})
	if err != nil {
		h.fail(ctx, w, "failed to revoke claim", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, claimResponse{Claim: revoked})
}

// HandleBulkRevoke handles POST /claims/bulk-revoke.
func (h *Handler) HandleBulkRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	op, ok := h.requireOperator(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[bulkRevokeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	n, err := h.service.RevokeAll(ctx, models.BulkRevokeRequest{
		Purpose:          req.Purpose,
		ConfirmationCode: req.ConfirmationCode,
		Actor:            op,
		Reason:           req.Reason,
	})
	if err != nil {
		h.fail(ctx, w, "failed to bulk revoke", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, bulkRevokeResponse{RevokedCount: n})
}

// HandleListAudit handles GET /admin/audit?limit=.
func (h *Handler) HandleListAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	op, ok := h.requireOperator(w, r)
	if !ok {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	records, err := h.service.ListAudit(ctx, op, limit)
	if err != nil {
		h.fail(ctx, w, "failed to list override audit", err)
		return
	}
	if records == nil {
		records = []audit.OverrideRecord{}
	}
	httputil.WriteJSON(w, http.StatusOK, auditResponse{Records: records})
}

func (h *Handler) requireOperator(w http.ResponseWriter, r *http.Request) (*opModels.Operator, bool) {
	op, ok := opMiddleware.FromContext(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return nil, false
	}
	return op, true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
