package models

import (
	"github.com/google/uuid"

	claimModels "frontdesk/internal/claim/models"
	opModels "frontdesk/internal/operator/models"
	id "frontdesk/pkg/domain"
)

// AssemblyName is how the check-in container is shown in conflicts.
const AssemblyName = "Assembly"

// CheckInResult is the outcome of a check-in. Eligibility is evaluated from
// the member's flags at check-in time and drives credential printing.
type CheckInResult struct {
	Outcome       *claimModels.Outcome `json:"outcome"`
	Eligibility   id.Eligibility       `json:"eligibility,omitempty"`
	ContainerName string               `json:"container_name,omitempty"`
	HolderName    string               `json:"holder_name,omitempty"`
}

// Status reports whether a member is checked in right now.
type Status struct {
	MemberID    id.MemberID        `json:"member_id"`
	CheckedIn   bool               `json:"checked_in"`
	Claim       *claimModels.Claim `json:"claim,omitempty"`
	Eligibility id.Eligibility     `json:"eligibility"`
}

// RevokeCheckInRequest undoes one check-in. ContainerID, when set, must be
// the current assembly session.
type RevokeCheckInRequest struct {
	MemberID    id.MemberID
	ContainerID *uuid.UUID
	Actor       *opModels.Operator
	Reason      string
	OnRevoked   claimModels.RevokeHook
}

// RevokeAllCheckInsRequest undoes every check-in of the session, guarded by
// the configured confirmation code.
type RevokeAllCheckInsRequest struct {
	ConfirmationCode string
	Actor            *opModels.Operator
	Reason           string
	OnRevoked        claimModels.RevokeHook
}
