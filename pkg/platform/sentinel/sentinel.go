package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) and services translate them into domain errors:
//   - ErrNotFound: row or record does not exist
//   - ErrConflict: a uniqueness guard rejected the write (another active claim, a default list)
//   - ErrInvalidState: record exists but is not in the state the write requires
//   - ErrUnavailable: backing store temporarily unreachable
//
// For validation failures use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
