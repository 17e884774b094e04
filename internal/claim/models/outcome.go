package models

// OutcomeKind tags the result of a claim attempt. Failures are returned as
// errors, never as an outcome.
type OutcomeKind string

const (
	// OutcomeClaimed: this attempt created the claim.
	OutcomeClaimed OutcomeKind = "claimed"
	// OutcomeAlreadyHeld: the same holder already owns the claim; replay of a
	// won attempt.
	OutcomeAlreadyHeld OutcomeKind = "already_held"
	// OutcomeConflict: another holder owns the claim.
	OutcomeConflict OutcomeKind = "conflict"
)

// Outcome of TryClaim. Claim is the newly created claim for OutcomeClaimed
// and the existing ACTIVE claim, as read in the deciding transaction,
// otherwise.
type Outcome struct {
	Kind  OutcomeKind `json:"outcome"`
	Claim *Claim      `json:"claim"`
}

// Won reports whether the caller holds the claim after this attempt.
func (o *Outcome) Won() bool {
	return o.Kind == OutcomeClaimed || o.Kind == OutcomeAlreadyHeld
}

func (o *Outcome) IsConflict() bool {
	return o.Kind == OutcomeConflict
}
