package handler

import (
	"github.com/google/uuid"

	id "frontdesk/pkg/domain"
	dErrors "frontdesk/pkg/domain-errors"
)

type claimRequest struct {
	MemberID    id.MemberID     `json:"member_id"`
	Purpose     id.ClaimPurpose `json:"purpose"`
	ContainerID *uuid.UUID      `json:"container_id,omitempty"`
}

func (r *claimRequest) Validate() error {
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
