package models

import (
	"slices"
	"strings"
	"time"

	id "frontdesk/pkg/domain"
	dErrors "frontdesk/pkg/domain-errors"
	textutil "frontdesk/pkg/platform/strings"
)

// Role is an operator's coarse role.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleOperator   Role = "operator"
)

// Permission is a special right granted on top of the role.
type Permission string

const (
	PermOverrideAssignments Permission = "override_assignments"
	PermRevokeCheckIns      Permission = "revoke_check_ins"
	PermBulkRevokeCheckIns  Permission = "bulk_revoke_check_ins"
	PermViewAudit           Permission = "view_audit"
)

var validRoles = map[Role]bool{
	RoleAdmin:      true,
	RoleSupervisor: true,
	RoleOperator:   true,
}

var validPermissions = map[Permission]bool{
	PermOverrideAssignments: true,
	PermRevokeCheckIns:      true,
	PermBulkRevokeCheckIns:  true,
	PermViewAudit:           true,
}

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !validRoles[r] {
		return "", dErrors.New(dErrors.CodeValidation, "invalid role: "+s)
	}
	return r, nil
}

// ParsePermissions parses a stored permission set, ignoring blanks and
// repeats.
func ParsePermissions(raw []string) ([]Permission, error) {
	values := textutil.DedupeAndTrim(raw)
	if len(values) == 0 {
		return nil, nil
	}
	perms := make([]Permission, len(values))
	for i, v := range values {
		p, err := ParsePermission(v)
		if err != nil {
			return nil, err
		}
		perms[i] = p
	}
	return perms, nil
}

func ParsePermission(s string) (Permission, error) {
	p := Permission(strings.TrimSpace(s))
	if !validPermissions[p] {
		return "", dErrors.New(dErrors.CodeValidation, "invalid permission: "+s)
	}
	return p, nil
}

// Operator is an authenticated staff user. It is only ever the holder or
// actor attached to claims; this service never edits it.
type Operator struct {
	ID          id.OperatorID `json:"id"`
	Username    string        `json:"username"`
	DisplayName string        `json:"display_name"`
	Role        Role          `json:"role"`
	Permissions []Permission  `json:"permissions"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Can reports whether the operator holds p. Admins hold every permission.
func (o *Operator) Can(p Permission) bool {
	if o == nil {
		return false
	}
	if o.Role == RoleAdmin {
		return true
	}
	return slices.Contains(o.Permissions, p)
}

// Name is the display name, falling back to the username.
func (o *Operator) Name() string {
	if strings.TrimSpace(o.DisplayName) != "" {
		return o.DisplayName
	}
	return o.Username
}

// Validate checks an operator before it is stored.
func (o *Operator) Validate() error {
	if o.ID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "operator id is required")
	}
	if strings.TrimSpace(o.Username) == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "operator username is required")
	}
	if !validRoles[o.Role] {
		return dErrors.New(dErrors.CodeInvariantViolation, "invalid operator role")
	}
	for _, p := range o.Permissions {
		if !validPermissions[p] {
			return dErrors.New(dErrors.CodeInvariantViolation, "invalid operator permission: "+string(p))
		}
	}
	return nil
}
