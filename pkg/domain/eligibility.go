package domain

// Eligibility is the voting-rights class of a member. It is always derived
// from the member's current flags and never persisted.
type Eligibility string

const (
	EligibilityFullRights Eligibility = "full_rights"
	EligibilityVoiceOnly  Eligibility = "voice_only"
)

// IsFullRights reports whether the member may speak and vote.
func (e Eligibility) IsFullRights() bool {
	return e == EligibilityFullRights
}

func (e Eligibility) String() string {
	return string(e)
}
