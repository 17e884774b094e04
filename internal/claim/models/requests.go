package models

import (
	"context"
	"strings"

	"github.com/google/uuid"

	id "frontdesk/pkg/domain"
	dErrors "frontdesk/pkg/domain-errors"
)

// maxReasonLength bounds free-text revocation reasons.
const maxReasonLength = 500

// RevokeHook runs inside the revoking transaction with the claims as they
// will be persisted. Returning an error aborts the revocation.
type RevokeHook func(ctx context.Context, revoked []*Claim) error

// ClaimRequest is a single claim attempt.
type ClaimRequest struct {
	MemberID    id.MemberID
	Purpose     id.ClaimPurpose
	Holder      Holder
	ContainerID uuid.UUID
}

func (r ClaimRequest) Key() Key {
	return Key{MemberID: r.MemberID, Purpose: r.Purpose}
}

func (r ClaimRequest) Validate() error {
	if err := r.Key().Validate(); err != nil {
		return err
	}
	if err := r.Holder.Validate(); err != nil {
		return err
	}
	if r.ContainerID == uuid.Nil {
		return dErrors.New(dErrors.CodeValidation, "container_id is required")
	}
	return nil
}

// RevokeRequest revokes the ACTIVE claim for Key. When ContainerID is set the
// claim must live in that container.
type RevokeRequest struct {
	Key         Key
	ContainerID *uuid.UUID
	Actor       Holder
	Reason      string
	OnRevoked   RevokeHook
}

func (r RevokeRequest) Validate() error {
	if err := r.Key.Validate(); err != nil {
		return err
	}
	if err := r.Actor.Validate(); err != nil {
		return err
	}
	return ValidateReason(r.Reason)
}

// BulkRevokeRequest revokes every ACTIVE claim of Purpose in one transaction.
type BulkRevokeRequest struct {
	Purpose   id.ClaimPurpose
	Actor     Holder
	Reason    string
	OnRevoked RevokeHook
}

func (r BulkRevokeRequest) Validate() error {
	if !r.Purpose.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "invalid purpose: "+string(r.Purpose))
	}
	if err := r.Actor.Validate(); err != nil {
		return err
	}
	return ValidateReason(r.Reason)
}

// ValidateReason requires a non-blank, bounded reason.
func ValidateReason(reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	if len(reason) > maxReasonLength {
		return dErrors.New(dErrors.CodeValidation, "reason is too long")
	}
	return nil
}
