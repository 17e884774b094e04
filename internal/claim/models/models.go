package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	id "frontdesk/pkg/domain"
	dErrors "frontdesk/pkg/domain-errors"
)

// Status of a claim. A claim is created ACTIVE and may move to REVOKED once;
// nothing else about it changes afterwards.
type Status string

const (
	StatusActive  Status = "active"
	StatusRevoked Status = "revoked"
)

// Key identifies the exactly-once slot: one ACTIVE claim per member and purpose.
type Key struct {
	MemberID id.MemberID     `json:"member_id"`
	Purpose  id.ClaimPurpose `json:"purpose"`
}

func (k Key) String() string {
	return k.MemberID.String() + "/" + string(k.Purpose)
}

// Validate checks the key at a trust boundary.
func (k Key) Validate() error {
	if k.MemberID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "member_id is required")
	}
	if !k.Purpose.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "invalid purpose: "+string(k.Purpose))
	}
	return nil
}

// Holder is the operator identity attached to a claim.
type Holder struct {
	OperatorID  id.OperatorID `json:"operator_id"`
	DisplayName string        `json:"display_name"`
}

// Validate requires a resolved operator.
func (h Holder) Validate() error {
	if h.OperatorID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "holder operator is required")
	}
	if strings.TrimSpace(h.DisplayName) == "" {
		return dErrors.New(dErrors.CodeValidation, "holder display name is required")
	}
	return nil
}

// Claim links a member to a holder for one purpose. ContainerID is the list
// for LIST_ASSIGNMENT and the assembly session for CHECK_IN.
type Claim struct {
	ID           id.ClaimID      `json:"id"`
	MemberID     id.MemberID     `json:"member_id"`
	Purpose      id.ClaimPurpose `json:"purpose"`
	Holder       Holder          `json:"holder"`
	ContainerID  uuid.UUID       `json:"container_id"`
	ClaimedAt    time.Time       `json:"claimed_at"`
	Status       Status          `json:"status"`
	RevokedAt    *time.Time      `json:"revoked_at,omitempty"`
	RevokedBy    *id.OperatorID  `json:"revoked_by,omitempty"`
	RevokeReason string          `json:"revoke_reason,omitempty"`
}

func (c *Claim) Key() Key {
	return Key{MemberID: c.MemberID, Purpose: c.Purpose}
}

func (c *Claim) IsActive() bool {
	return c.Status == StatusActive
}

// HeldBy reports whether operatorID holds this claim.
func (c *Claim) HeldBy(operatorID id.OperatorID) bool {
	return c.Holder.OperatorID == operatorID
}

// Revocation is the trail written when a claim is revoked.
type Revocation struct {
	At     time.Time
	By     id.OperatorID
	Reason string
}

// Revoked returns a copy of c carrying the revocation trail.
func (c *Claim) Revoked(rev Revocation) *Claim {
	cp := *c
	at := rev.At
	by := rev.By
	cp.Status = StatusRevoked
	cp.RevokedAt = &at
	cp.RevokedBy = &by
	cp.RevokeReason = rev.Reason
	return &cp
}
