// Package audit records privileged overrides of claims. Records are
// immutable and independent of the claim's own revocation trail.
package audit

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	id "frontdesk/pkg/domain"
)

// Action names the override that produced a record.
type Action string

const (
	ActionRemoveFromList    Action = "remove_from_list"
	ActionRevokeCheckIn     Action = "revoke_check_in"
	ActionRevokeAllCheckIns Action = "revoke_all_check_ins"
)

func (a Action) IsValid() bool {
	switch a {
	case ActionRemoveFromList, ActionRevokeCheckIn, ActionRevokeAllCheckIns:
		return true
	default:
		return false
	}
}

// OverrideRecord is one revoked claim: who revoked it, which claim, when
// and why. A bulk revoke writes one record per claim.
type OverrideRecord struct {
	ID          id.AuditID      `json:"id"`
	Action      Action          `json:"action"`
	ClaimID     id.ClaimID      `json:"claim_id"`
	MemberID    id.MemberID     `json:"member_id"`
	Purpose     id.ClaimPurpose `json:"purpose"`
	ContainerID uuid.UUID       `json:"container_id"`
	ActorID     id.OperatorID   `json:"actor_id"`
	ActorName   string          `json:"actor_name"`
	Reason      string          `json:"reason"`
	RequestID   string          `json:"request_id,omitempty"`
	At          time.Time       `json:"at"`
}

// Validate requires the fields that make a record meaningful.
func (r *OverrideRecord) Validate() error {
	switch {
	case !r.Action.IsValid():
		return errors.New("override record requires a valid action")
	case r.ClaimID.IsNil():
		return errors.New("override record requires ClaimID")
	case r.ActorID.IsNil():
		return errors.New("override record requires ActorID")
	case strings.TrimSpace(r.Reason) == "":
		return errors.New("override record requires Reason")
	}
	return nil
}

// Store persists override records. Append joins the transaction in ctx when
// there is one.
type Store interface {
	Append(ctx context.Context, records ...OverrideRecord) error
	ListRecent(ctx context.Context, limit int) ([]OverrideRecord, error)
}
