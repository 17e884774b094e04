package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "frontdesk/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseMemberID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseMemberID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseMemberID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseMemberID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, MemberID(validUUID), id)
	})
}

func TestParseID_TrustBoundary(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE claims;--", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Unicode zero-width space", "550e8400\u200B-e29b-41d4-a716-446655440000", true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseListID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestAllIDTypes_ConsistentBehavior(t *testing.T) {
	validUUID := uuid.New().String()
	parsers := map[string]func(string) error{
		"member":   func(s string) error { _, err := ParseMemberID(s); return err },
		"operator": func(s string) error { _, err := ParseOperatorID(s); return err },
		"list":     func(s string) error { _, err := ParseListID(s); return err },
		"claim":    func(s string) error { _, err := ParseClaimID(s); return err },
		"session":  func(s string) error { _, err := ParseSessionID(s); return err },
		"audit":    func(s string) error { _, err := ParseAuditID(s); return err },
	}

	for name, parse := range parsers {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, parse(validUUID))
			for _, input := range []string{"", "invalid", uuid.Nil.String()} {
				require.Error(t, parse(input), "input %q", input)
			}
		})
	}
}

func TestParseClaimPurpose(t *testing.T) {
	t.Run("accepts supported purposes", func(t *testing.T) {
		for _, p := range ClaimPurposes() {
			parsed, err := ParseClaimPurpose(p.String())
			require.NoError(t, err)
			assert.Equal(t, p, parsed)
		}
	})

	t.Run("rejects empty and unknown purposes as validation errors", func(t *testing.T) {
		for _, input := range []string{"", "LIST_ASSIGNMENT", "voting"} {
			_, err := ParseClaimPurpose(input)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "input %q", input)
		}
	})
}

func TestIDsMarshalAsUUIDStrings(t *testing.T) {
	raw := "0b5d8f9e-8a47-4c3e-9f5a-2d7b1c3e4f50"
	memberID, err := ParseMemberID(raw)
	require.NoError(t, err)

	body, err := json.Marshal(map[string]MemberID{"member_id": memberID})
	require.NoError(t, err)
	assert.JSONEq(t, `{"member_id":"`+raw+`"}`, string(body))
}

func TestIDsDecodeFromJSON(t *testing.T) {
	raw := uuid.New().String()
	var body struct {
		ListID ListID `json:"list_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"list_id":"`+raw+`"}`), &body))
	assert.Equal(t, raw, body.ListID.String())

	assert.Error(t, json.Unmarshal([]byte(`{"list_id":"not-a-uuid"}`), &body))
}
