package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Conceptual-Machines/lyricist-api/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signed(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTAuth(&config.Config{JWTSecret: testSecret}))
	r.GET("/whoami", func(c *gin.Context) {
		id, _ := GetCurrentUserID(c)
		c.String(http.StatusOK, id)
	})
	return r
}

func TestJWTAuth(t *testing.T) {
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))
	past := jwt.NewNumericDate(time.Now().Add(-time.Hour))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "missing header",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "user id claim",
			header: "Bearer " + signed(t, jwt.SigningMethodHS256, []byte(testSecret), &Claims{
				UserID:           "42",
				RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future},
			}),
			wantStatus: http.StatusOK,
			wantBody:   "42",
		},
		{
			name: "registered subject",
			header: "Bearer " + signed(t, jwt.SigningMethodHS256, []byte(testSecret), &Claims{
				RegisteredClaims: jwt.RegisteredClaims{Subject: "writer-7", ExpiresAt: future},
			}),
			wantStatus: http.StatusOK,
			wantBody:   "writer-7",
		},
		{
			name: "expired",
			header: "Bearer " + signed(t, jwt.SigningMethodHS256, []byte(testSecret), &Claims{
				UserID:           "42",
				RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: past},
			}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "wrong secret",
			header: "Bearer " + signed(t, jwt.SigningMethodHS256, []byte("other"), &Claims{
				UserID: "42",
			}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "no subject",
			header:     "Bearer " + signed(t, jwt.SigningMethodHS256, []byte(testSecret), &Claims{}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed header",
			header:     "Token abc",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			newRouter().ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}
}
