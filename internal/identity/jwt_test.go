package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseflow/internal/workflow"
	id "caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
)

func TestValidateToken(t *testing.T) {
	svc := NewJWTService("test-signing-key", "caseflow-test", "caseflow-api")
	userID := id.NewUserID()

	t.Run("round trip", func(t *testing.T) {
		token, err := svc.GenerateToken(userID, workflow.RoleChecker, time.Hour)
		require.NoError(t, err)

		ident, err := svc.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, userID, ident.UserID)
		assert.Equal(t, workflow.RoleChecker, ident.Role)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := svc.GenerateToken(userID, workflow.RoleRM, -time.Minute)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other := NewJWTService("another-key", "caseflow-test", "caseflow-api")
		token, err := other.GenerateToken(userID, workflow.RoleRM, time.Hour)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("unknown role claim", func(t *testing.T) {
		token, err := svc.GenerateToken(userID, "auditor", time.Hour)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
