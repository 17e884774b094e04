// Package handler exposes the claim attempt over HTTP. The purpose decides
// which feature takes the claim: list assignment or check-in.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	assignmentModels "frontdesk/internal/assignment/models"
	attendanceModels "frontdesk/internal/attendance/models"
	"frontdesk/internal/claim/models"
	opMiddleware "frontdesk/internal/operator/middleware"
	opModels "frontdesk/internal/operator/models"
	id "frontdesk/pkg/domain"
	dErrors "frontdesk/pkg/domain-errors"
	"frontdesk/pkg/platform/httputil"
	"frontdesk/pkg/requestcontext"
)

// Assignment claims members into lists.
type Assignment interface {
	Assign(ctx context.Context, req assignmentModels.AssignRequest) (*assignmentModels.AssignResult, error)
}

// Attendance checks members in to the current session.
type Attendance interface {
	CheckIn(ctx context.Context, memberID id.MemberID, op *opModels.Operator) (*attendanceModels.CheckInResult, error)
	SessionID() uuid.UUID
}

// HistoryReader lists every claim ever made for a key.
type HistoryReader interface {
	History(ctx context.Context, key models.Key) ([]*models.Claim, error)
}

// Handler serves claim attempts.
type Handler struct {
	assignment Assignment
	attendance Attendance
	history    HistoryReader
	logger     *slog.Logger
}

func New(assignment Assignment, attendance Attendance, history HistoryReader, logger *slog.Logger) *Handler {
	return &Handler{
		assignment: assignment,
		attendance: attendance,
		history:    history,
		logger:     logger,
	}
}

// Register mounts claim endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/claims", h.HandleClaim)
	r.Get("/claims/history", h.HandleHistory)
}

type claimResponse struct {
	Outcome     models.OutcomeKind `json:"outcome"`
	Claim       *models.Claim      `json:"claim"`
	Eligibility id.Eligibility     `json:"eligibility,omitempty"`
	ListName    string             `json:"list_name,omitempty"`
}

type conflictResponse struct {
	Error            string        `json:"error"`
	ErrorDescription string        `json:"error_description"`
	ExistingClaim    *models.Claim `json:"existing_claim"`
	ContainerName    string        `json:"container_name,omitempty"`
	HolderName       string        `json:"holder_name"`
	ClaimedAt        time.Time     `json:"claimed_at"`
}

type historyResponse struct {
	Claims []*models.Claim `json:"claims"`
}

// attempt is the purpose-independent view of an assign or check-in result.
type attempt struct {
	outcome       *models.Outcome
	eligibility   id.Eligibility
	listName      string
	containerName string
	holderName    string
}

// HandleClaim handles POST /claims.
func (h *Handler) HandleClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	op, ok := h.requireOperator(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[claimRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	var (
		res *attempt
		err error
	)
	switch req.Purpose {
	case id.ClaimPurposeListAssignment:
		res, err = h.assign(ctx, req, op)
	case id.ClaimPurposeCheckIn:
		res, err = h.checkIn(ctx, req, op)
	}
	if err != nil {
		h.fail(ctx, w, "claim attempt failed", err)
		return
	}

	if res.outcome.IsConflict() {
		existing := res.outcome.Claim
		holder := res.holderName
		if holder == "" {
			holder = existing.Holder.DisplayName
		}
		httputil.WriteJSON(w, http.StatusConflict, conflictResponse{
			Error:            string(dErrors.CodeConflict),
			ErrorDescription: "member is already claimed by " + holder,
			ExistingClaim:    existing,
			ContainerName:    res.containerName,
			HolderName:       holder,
			ClaimedAt:        existing.ClaimedAt,
		})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, claimResponse{
		Outcome:     res.outcome.Kind,
		Claim:       res.outcome.Claim,
		Eligibility: res.eligibility,
		ListName:    res.listName,
	})
}

func (h *Handler) assign(ctx context.Context, req *claimRequest, op *opModels.Operator) (*attempt, error) {
	var listID id.ListID
	if req.ContainerID != nil {
		listID = id.ListID(*req.ContainerID)
	}
	res, err := h.assignment.Assign(ctx, assignmentModels.AssignRequest{
		MemberID: req.MemberID,
		ListID:   listID,
		Operator: op,
	})
	if err != nil {
		return nil, err
	}
	a := &attempt{
		outcome:       res.Outcome,
		eligibility:   res.Eligibility,
		containerName: res.ContainerName,
		holderName:    res.HolderName,
	}
	if res.List != nil {
		a.listName = res.List.Name
	}
	return a, nil
}

func (h *Handler) checkIn(ctx context.Context, req *claimRequest, op *opModels.Operator) (*attempt, error) {
	if req.ContainerID != nil && *req.ContainerID != h.attendance.SessionID() {
		return nil, dErrors.New(dErrors.CodeValidation, "container_id is not the current assembly session")
	}
	res, err := h.attendance.CheckIn(ctx, req.MemberID, op)
	if err != nil {
		return nil, err
	}
	return &attempt{
		outcome:       res.Outcome,
		eligibility:   res.Eligibility,
		containerName: res.ContainerName,
		holderName:    res.HolderName,
	}, nil
}

// HandleHistory handles GET /claims/history?member_id=&purpose=.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := h.requireOperator(w, r); !ok {
		return
	}
	memberID, err := id.ParseMemberID(r.URL.Query().Get("member_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	purpose, err := id.ParseClaimPurpose(r.URL.Query().Get("purpose"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	claims, err := h.history.History(ctx, models.Key{MemberID: memberID, Purpose: purpose})
	if err != nil {
		h.fail(ctx, w, "failed to read claim history", err)
		return
	}
	if claims == nil {
		claims = []*models.Claim{}
	}
	httputil.WriteJSON(w, http.StatusOK, historyResponse{Claims: claims})
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
