package models

import (
	"time"

	"github.com/google/uuid"

	id "frontdesk/pkg/domain"
)

// Counts splits a set of ACTIVE claims by the members' current eligibility.
type Counts struct {
	Total      int `json:"total"`
	FullRights int `json:"full_rights"`
	VoiceOnly  int `json:"voice_only"`
}

// Add counts one member.
func (c *Counts) Add(e id.Eligibility) {
	c.Total++
	if e.IsFullRights() {
		c.FullRights++
		return
	}
	c.VoiceOnly++
}

// ListAggregate is the derived size of one list.
type ListAggregate struct {
	ListID           id.ListID     `json:"list_id"`
	ListName         string        `json:"list_name"`
	OwnerOperatorID  id.OperatorID `json:"owner_operator_id"`
	OwnerDisplayName string        `json:"owner_display_name"`
	Counts
}

// Ranking orders lists by size, largest first.
type Ranking struct {
	Lists       []*ListAggregate `json:"lists"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// AttendanceSummary is the quorum view of the current assembly session.
type AttendanceSummary struct {
	SessionID   uuid.UUID `json:"session_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Counts
}
