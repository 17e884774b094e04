package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"nil", nil, nil},
		{"blanks only", []string{"", "  "}, []string{}},
		{"keeps first occurrence order", []string{"revoke_check_ins", " view_audit ", "revoke_check_ins"}, []string{"revoke_check_ins", "view_audit"}},
		{"case is significant", []string{"view_audit", "VIEW_AUDIT"}, []string{"view_audit", "VIEW_AUDIT"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DedupeAndTrim(tc.input))
		})
	}
}
