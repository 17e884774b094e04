package handler

import (
	"strings"

	"github.com/google/uuid"

	id "frontdesk/pkg/domain"
	dErrors "frontdesk/pkg/domain-errors"
)

type revokeClaimRequest struct {
	MemberID    id.MemberID     `json:"member_id"`
	Purpose     id.ClaimPurpose `json:"purpose"`
	ContainerID *uuid.UUID      `json:"container_id,omitempty"`
	Reason      string          `json:"reason"`
}

func (r *revokeClaimRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	if r.MemberID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "member_id is required")
	}
	if !r.Purpose.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "invalid purpose: "+string(r.Purpose))
	}
	if r.ContainerID != nil && *r.ContainerID == uuid.Nil {
		r.ContainerID = nil
	}
	return nil
}

type bulkRevokeRequest struct {
	Purpose          id.ClaimPurpose `json:"purpose"`
	ConfirmationCode string          `json:"confirmation_code"`
	Reason           string          `json:"reason"`
}

func (r *bulkRevokeRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	if !r.Purpose.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "invalid purpose: "+string(r.Purpose))
	}
	if strings.TrimSpace(r.ConfirmationCode) == "" {
		return dErrors.New(dErrors.CodeValidation, "confirmation_code is required")
	}
	return nil
}
