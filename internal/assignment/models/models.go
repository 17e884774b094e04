package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	claimModels "frontdesk/internal/claim/models"
	memberModels "frontdesk/internal/member/models"
	opModels "frontdesk/internal/operator/models"
	id "frontdesk/pkg/domain"
	dErrors "frontdesk/pkg/domain-errors"
)

// DefaultListName names the list provisioned for an operator's first claim.
const DefaultListName = "My list"

const (
	maxNameLength        = 120
	maxDescriptionLength = 1000
)

// List is an operator's canvassing list. Member counts are never stored on
// it; they are derived from the ACTIVE claims whose container is the list.
type List struct {
	ID               id.ListID     `json:"id"`
	OwnerOperatorID  id.OperatorID `json:"owner_operator_id"`
	OwnerDisplayName string        `json:"owner_display_name"`
	Name             string        `json:"name"`
	Description      string        `json:"description,omitempty"`
	IsDefault        bool          `json:"is_default"`
	CreatedAt        time.Time     `json:"created_at"`
}

// ContainerID is the claim container this list stands for.
func (l *List) ContainerID() uuid.UUID {
	return uuid.UUID(l.ID)
}

func (l *List) OwnedBy(operatorID id.OperatorID) bool {
	return l.OwnerOperatorID == operatorID
}

// CreateListRequest is the input to CreateList.
type CreateListRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Validate trims and bounds the request in place.
func (r *CreateListRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if utf8.RuneCountInString(r.Name) > maxNameLength {
		return dErrors.New(dErrors.CodeValidation, "name is too long")
	}
	if utf8.RuneCountInString(r.Description) > maxDescriptionLength {
		return dErrors.New(dErrors.CodeValidation, "description is too long")
	}
	return nil
}

// AssignResult is the outcome of Assign. List is the list the claim sits in;
// for a replay that named another list it is the original one. For a
// conflict, ContainerName and HolderName describe the winning list and owner.
type AssignResult struct {
	Outcome       *claimModels.Outcome `json:"outcome"`
	List          *List                `json:"list"`
	ContainerName string               `json:"container_name,omitempty"`
	HolderName    string               `json:"holder_name,omitempty"`
	Eligibility   id.Eligibility       `json:"eligibility,omitempty"`
}

// ListMember is a member on a list, tagged with its current eligibility.
type ListMember struct {
	Member *memberModels.MemberView `json:"member"`
	Claim  *claimModels.Claim       `json:"claim"`
}

// AssignRequest claims MemberID for Operator into ListID, or into the
// operator's default list when ListID is nil.
type AssignRequest struct {
	MemberID id.MemberID
	ListID   id.ListID
	Operator *opModels.Operator
}

// UnassignRequest removes MemberID from ListID. OnRevoked must record the
// revocation; it runs inside the revoking transaction.
type UnassignRequest struct {
	ListID    id.ListID
	MemberID  id.MemberID
	Actor     *opModels.Operator
	Reason    string
	OnRevoked claimModels.RevokeHook
}
