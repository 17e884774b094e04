package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frontdesk/internal/operator/models"
	id "frontdesk/pkg/domain"
	dErrors "frontdesk/pkg/domain-errors"
)

var tokens = NewService("test-signing-key", "test-issuer", "test-audience")

func testOperator() *models.Operator {
	return &models.Operator{ID: id.OperatorID(uuid.New()), Username: "desk1", Role: models.RoleOperator}
}

func TestIssueAndValidate(t *testing.T) {
	op := testOperator()
	signed, err := tokens.Issue(op, time.Hour)
	require.NoError(t, err)

	claims, err := tokens.Validate(signed)
	require.NoError(t, err)
	assert.Equal(t, "desk1", claims.Username)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)

	operatorID, err := claims.ParsedOperatorID()
	require.NoError(t, err)
	assert.Equal(t, op.ID, operatorID)
}

func TestValidateRejects(t *testing.T) {
	t.Run("garbage", func(t *testing.T) {
		_, err := tokens.Validate("invalid-token-string")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("expired", func(t *testing.T) {
		signed, err := tokens.Issue(testOperator(), -time.Hour)
		require.NoError(t, err)
		_, err = tokens.Validate(signed)
		require.Error(t, err)
		assert.Equal(t, "token has expired", err.Error())
	})

	t.Run("other key", func(t *testing.T) {
		signed, err := NewService("other-key", "test-issuer", "test-audience").Issue(testOperator(), time.Hour)
		require.NoError(t, err)
		_, err = tokens.Validate(signed)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("other audience", func(t *testing.T) {
		signed, err := NewService("test-signing-key", "test-issuer", "someone-else").Issue(testOperator(), time.Hour)
		require.NoError(t, err)
		_, err = tokens.Validate(signed)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
