package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "frontdesk/pkg/domain-errors"
)

// Typed identifiers. Each wraps a UUID so a member id can never be passed
// where a list id is expected.
type (
	MemberID   uuid.UUID
	OperatorID uuid.UUID
	ListID     uuid.UUID
	ClaimID    uuid.UUID
	SessionID  uuid.UUID
	AuditID    uuid.UUID
)

// maxIDLength bounds input before it reaches the UUID parser.
const maxIDLength = 64

func parseUUID(s, label string) (uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	if len(s) > maxIDLength || !utf8.ValidString(s) {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" must not be nil")
	}
	return u, nil
}

// ParseMemberID parses a member id at a trust boundary.
func ParseMemberID(s string) (MemberID, error) {
	u, err := parseUUID(s, "member ID")
	return MemberID(u), err
}

// ParseOperatorID parses an operator id at a trust boundary.
func ParseOperatorID(s string) (OperatorID, error) {
	u, err := parseUUID(s, "operator ID")
	return OperatorID(u), err
}

// ParseListID parses a list id at a trust boundary.
func ParseListID(s string) (ListID, error) {
	u, err := parseUUID(s, "list ID")
	return ListID(u), err
}

// ParseClaimID parses a claim id at a trust boundary.
func ParseClaimID(s string) (ClaimID, error) {
	u, err := parseUUID(s, "claim ID")
	return ClaimID(u), err
}

// ParseSessionID parses an assembly session id at a trust boundary.
func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID(s, "session ID")
	return SessionID(u), err
}

// ParseAuditID parses an audit record id.
func ParseAuditID(s string) (AuditID, error) {
	u, err := parseUUID(s, "audit ID")
	return AuditID(u), err
}

func (id MemberID) String() string   { return uuid.UUID(id).String() }
func (id OperatorID) String() string { return uuid.UUID(id).String() }
func (id ListID) String() string     { return uuid.UUID(id).String() }
func (id ClaimID) String() string    { return uuid.UUID(id).String() }
func (id SessionID) String() string  { return uuid.UUID(id).String() }
func (id AuditID) String() string    { return uuid.UUID(id).String() }

func (id MemberID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id OperatorID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ListID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id ClaimID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id AuditID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// Text marshaling keeps ids as canonical UUID strings in JSON.
func (id MemberID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }
func (id OperatorID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id ListID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id ClaimID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id SessionID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id AuditID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }

func (id *MemberID) UnmarshalText(b []byte) error   { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *OperatorID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ListID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ClaimID) UnmarshalText(b []byte) error    { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *SessionID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *AuditID) UnmarshalText(b []byte) error    { return (*uuid.UUID)(id).UnmarshalText(b) }
