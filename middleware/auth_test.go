package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestHasScope(t *testing.T) {
	tests := []struct {
		name     string
		scope    string
		expected string
		result   bool
	}{
		{
			name:     "Scope present",
			scope:    "read:orders write:orders",
			expected: "write:orders",
			result:   true,
		},
		{
			name:     "Scope absent",
			scope:    "read:orders",
			expected: "write:orders",
			result:   false,
		},
		{
			name:     "Empty scope string",
			scope:    "",
			expected: "read:orders",
			result:   false,
		},
		{
			name:     "Partial match is not a match",
			scope:    "read:orders-archive",
			expected: "read:orders",
			result:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := CustomClaims{Scope: tt.scope}
			assert.Equal(t, tt.result, claims.HasScope(tt.expected))
		})
	}
}

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	return c, w
}

func TestGetUserID(t *testing.T) {
	t.Run("Returns the stored user id", func(t *testing.T) {
		c, _ := newTestContext()
		c.Set("user_id", "auth0|abc123")

		userID, err := GetUserID(c)
		assert.NoError(t, err)
		assert.Equal(t, "auth0|abc123", userID)
	})

	t.Run("Errors when missing", func(t *testing.T) {
		c, _ := newTestContext()

		_, err := GetUserID(c)
		assert.Error(t, err)
		authErr, ok := err.(*AuthError)
		assert.True(t, ok)
		assert.Equal(t, "MISSING_USER_ID", authErr.Code)
	})

	t.Run("Errors on wrong type", func(t *testing.T) {
		c, _ := newTestContext()
		c.Set("user_id", 42)

		_, err := GetUserID(c)
		assert.Error(t, err)
		authErr, ok := err.(*AuthError)
		assert.True(t, ok)
		assert.Equal(t, "INVALID_USER_ID", authErr.Code)
	})
}

func TestGetAccessToken(t *testing.T) {
	t.Run("Returns the stored token", func(t *testing.T) {
		c, _ := newTestContext()
		c.Set("access_token", "raw-token")

		token, err := GetAccessToken(c)
		assert.NoError(t, err)
		assert.Equal(t, "raw-token", token)
	})

	t.Run("Errors when missing", func(t *testing.T) {
		c, _ := newTestContext()

		_, err := GetAccessToken(c)
		assert.Error(t, err)
		authErr, ok := err.(*AuthError)
		assert.True(t, ok)
		assert.Equal(t, "MISSING_TOKEN", authErr.Code)
	})
}

func TestGetClaims(t *testing.T) {
	t.Run("Returns the validated claims", func(t *testing.T) {
		c, _ := newTestContext()
		stored := &validator.ValidatedClaims{
			CustomClaims: &CustomClaims{Role: RoleStaff},
		}
		c.Set("validated_claims", stored)

		claims, err := GetClaims(c)
		assert.NoError(t, err)
		assert.Equal(t, RoleStaff, claims.CustomClaims.(*CustomClaims).Role)
	})

	t.Run("Errors when missing", func(t *testing.T) {
		c, _ := newTestContext()

		_, err := GetClaims(c)
		assert.Error(t, err)
		authErr, ok := err.(*AuthError)
		assert.True(t, ok)
		assert.Equal(t, "MISSING_CLAIMS", authErr.Code)
	})
}
