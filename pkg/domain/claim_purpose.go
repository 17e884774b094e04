package domain

import dErrors "frontdesk/pkg/domain-errors"

// ClaimPurpose names the namespace a claim lives in. A claim under one
// purpose has no effect on the other.
//
// Usage: construct via ParseClaimPurpose at trust boundaries; direct casting
// bypasses validation.
type ClaimPurpose string

const (
	ClaimPurposeListAssignment ClaimPurpose = "list_assignment"
	ClaimPurposeCheckIn        ClaimPurpose = "check_in"
)

var validClaimPurposes = map[ClaimPurpose]bool{
	ClaimPurposeListAssignment: true,
	ClaimPurposeCheckIn:        true,
}

// ParseClaimPurpose constructs a ClaimPurpose from external input.
//
// Errors: returns CodeValidation when the value is empty or unsupported.
func ParseClaimPurpose(s string) (ClaimPurpose, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "purpose cannot be empty")
	}
	p := ClaimPurpose(s)
	if !p.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "invalid purpose: "+s)
	}
	return p, nil
}

// IsValid checks the purpose against the supported set.
func (p ClaimPurpose) IsValid() bool {
	return validClaimPurposes[p]
}

func (p ClaimPurpose) String() string {
	return string(p)
}

// ClaimPurposes returns the supported purposes in a stable order.
func ClaimPurposes() []ClaimPurpose {
	return []ClaimPurpose{ClaimPurposeListAssignment, ClaimPurposeCheckIn}
}
