package models

import (
	"github.com/google/uuid"

	opModels "frontdesk/internal/operator/models"
	id "frontdesk/pkg/domain"
)

const (
	DefaultAuditLimit = 100
	MaxAuditLimit     = 500
)

// RevokeClaimRequest releases one ACTIVE claim. For list assignments
// ContainerID is the list; when nil the list of the active claim is used.
type RevokeClaimRequest struct {
	MemberID    id.MemberID
	Purpose     id.ClaimPurpose
	ContainerID *uuid.UUID
	Actor       *opModels.Operator
	Reason      string
}

// BulkRevokeRequest releases every ACTIVE claim of Purpose. Only check-ins
// can be revoked in bulk.
type BulkRevokeRequest struct {
	Purpose          id.ClaimPurpose
	ConfirmationCode string
	Actor            *opModels.Operator
	Reason           string
}
