package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"frontdesk/internal/assignment/models"
	opMiddleware "frontdesk/internal/operator/middleware"
	opModels "frontdesk/internal/operator/models"
	id "frontdesk/pkg/domain"
	dErrors "frontdesk/pkg/domain-errors"
	"frontdesk/pkg/platform/httputil"
	"frontdesk/pkg/requestcontext"
)

// Service defines the list operations exposed over HTTP.
type Service interface {
	CreateList(ctx context.Context, op *opModels.Operator, req models.CreateListRequest) (*models.List, error)
	MyLists(ctx context.Context, op *opModels.Operator) ([]*models.List, error)
	ListMembers(ctx context.Context, listID id.ListID) ([]*models.ListMember, error)
}

// Handler serves list endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts list endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/lists", h.HandleMyLists)
	r.Post("/lists", h.HandleCreateList)
	r.Get("/lists/{id}/members", h.HandleListMembers)
}

type listsResponse struct {
	Lists []*models.List `json:"lists"`
}

type membersResponse struct {
	ListID  id.ListID            `json:"list_id"`
	Members []*models.ListMember `json:"members"`
}

// HandleMyLists handles GET /lists.
func (h *Handler) HandleMyLists(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	op, ok := h.requireOperator(w, r)
	if !ok {
		return
	}
	lists, err := h.service.MyLists(ctx, op)
	if err != nil {
		h.fail(ctx, w, "failed to list lists", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listsResponse{Lists: lists})
}

// HandleCreateList handles POST /lists.
func (h *Handler) HandleCreateList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	op, ok := h.requireOperator(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.CreateListRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	l, err := h.service.CreateList(ctx, op, *req)
	if err != nil {
		h.fail(ctx, w, "failed to create list", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, l)
}

// HandleListMembers handles GET /lists/{id}/members.
func (h *Handler) HandleListMembers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := h.requireOperator(w, r); !ok {
		return
	}
	listID, err := id.ParseListID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	members, err := h.service.ListMembers(ctx, listID)
	if err != nil {
		h.fail(ctx, w, "failed to list members", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, membersResponse{ListID: listID, Members: members})
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
