package models

import (
	"time"

	id "frontdesk/pkg/domain"
)

// Flags are the five compliance flags maintained by the member registry.
// Each is updated independently (e.g. by a re-import).
type Flags struct {
	ContributionCurrent bool `json:"contribution_current"`
	SolidarityCurrent   bool `json:"solidarity_current"`
	FundCurrent         bool `json:"fund_current"`
	FederationCurrent   bool `json:"federation_current"`
	LoanCurrent         bool `json:"loan_current"`
}

// Member is a cooperative member. Identity fields never change; Flags are
// whatever the directory reported at read time.
type Member struct {
	ID           id.MemberID `json:"id"`
	MemberNumber string      `json:"member_number"`
	NationalID   string      `json:"national_id"`
	FullName     string      `json:"full_name"`
	Flags        Flags       `json:"flags"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// EligibilityOf classifies a flag set. Full rights require every flag.
func EligibilityOf(f Flags) id.Eligibility {
	if f.ContributionCurrent && f.SolidarityCurrent && f.FundCurrent && f.FederationCurrent && f.LoanCurrent {
		return id.EligibilityFullRights
	}
	return id.EligibilityVoiceOnly
}

// Eligible reports whether the member currently has full rights.
func Eligible(m *Member) bool {
	return m != nil && EligibilityOf(m.Flags).IsFullRights()
}

// Missing lists the flags that keep a member at voice-only, in display order.
func (f Flags) Missing() []string {
	var missing []string
	if !f.ContributionCurrent {
		missing = append(missing, "contribution")
	}
	if !f.SolidarityCurrent {
		missing = append(missing, "solidarity")
	}
	if !f.FundCurrent {
		missing = append(missing, "fund")
	}
	if !f.FederationCurrent {
		missing = append(missing, "federation")
	}
	if !f.LoanCurrent {
		missing = append(missing, "loan")
	}
	return missing
}

// MemberView is a member tagged with the eligibility derived from the flags
// it was read with.
type MemberView struct {
	Member
	Eligibility  id.Eligibility `json:"eligibility"`
	MissingFlags []string       `json:"missing_flags,omitempty"`
}

// NewView computes eligibility for m. Callers must pass a freshly read member.
func NewView(m *Member) *MemberView {
	return &MemberView{
		Member:       *m,
		Eligibility:  EligibilityOf(m.Flags),
		MissingFlags: m.Flags.Missing(),
	}
}
