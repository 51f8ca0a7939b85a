package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestResolveUserID(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"user_id": "u1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	userID, err := resolveUserID(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
}

func TestResolveUserIDRejectsBadSignature(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"user_id": "u1"})

	_, err := resolveUserID(token, "other-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolveUserIDRejectsMissingClaim(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": "u1"})

	_, err := resolveUserID(token, testSecret)
	assert.ErrorIs(t, err, ErrInvalidClaims)
}

func TestRequireAuthSetsUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	token := signToken(t, jwt.MapClaims{
		"user_id": "u1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("Authorization", "Bearer "+token)

	NewAuthMiddleware(testSecret).RequireAuth()(c)

	assert.False(t, c.IsAborted())
	assert.Equal(t, "u1", c.GetString("user_id"))
}

func TestRequireAuthRejectsMissingHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	NewAuthMiddleware(testSecret).RequireAuth()(c)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWSAuthReadsQueryToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	token := signToken(t, jwt.MapClaims{
		"user_id": "u1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)

	WSAuth(testSecret)(c)

	assert.False(t, c.IsAborted())
	assert.Equal(t, "u1", c.GetString("user_id"))
}

func TestWSAuthRejectsMissingToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ws", nil)

	WSAuth(testSecret)(c)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWSAuthRejectsExpiredToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	token := signToken(t, jwt.MapClaims{
		"user_id": "u1",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)

	WSAuth(testSecret)(c)

	assert.True(t, c.IsAborted())
}
