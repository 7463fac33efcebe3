package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Conceptual-Machines/lyricist-api/internal/config"
	"github.com/Conceptual-Machines/lyricist-api/internal/llm"
	"github.com/Conceptual-Machines/lyricist-api/internal/pipeline"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestRouter(authMode string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{AuthMode: authMode, JWTSecret: "secret"}
	orchestrator := pipeline.New(llm.NewProviderFactory("", ""))
	return SetupRouter(nil, cfg, orchestrator, nil, "test")
}

func TestRoutes(t *testing.T) {
	tests := []struct {
		name       string
		authMode   string
		method     string
		path       string
		body       string
		headers    map[string]string
		wantStatus int
	}{
		{name: "health", authMode: "none", method: http.MethodGet, path: "/health", wantStatus: http.StatusOK},
		{name: "metrics", authMode: "none", method: http.MethodGet, path: "/api/metrics", wantStatus: http.StatusOK},
		{
			name: "activate without auth", authMode: "none", method: http.MethodPost, path: "/api/v1/skills/activate",
			body: `{"text":"hello"}`, wantStatus: http.StatusOK,
		},
		{
			name: "gateway requires user header", authMode: "gateway", method: http.MethodPost, path: "/api/v1/skills/activate",
			body: `{"text":"hello"}`, wantStatus: http.StatusUnauthorized,
		},
		{
			name: "gateway with user header", authMode: "gateway", method: http.MethodPost, path: "/api/v1/skills/activate",
			body: `{"text":"hello"}`, headers: map[string]string{"X-User-ID": "7"}, wantStatus: http.StatusOK,
		},
		{
			name: "jwt requires bearer token", authMode: "jwt", method: http.MethodPost, path: "/api/v1/strategy",
			body: `{"text":"hello"}`, wantStatus: http.StatusUnauthorized,
		},
		{
			name: "history without database", authMode: "none", method: http.MethodGet, path: "/api/v1/history",
			wantStatus: http.StatusNotFound,
		},
		{
			name: "preflight", authMode: "jwt", method: http.MethodOptions, path: "/api/v1/strategy",
			headers: map[string]string{
				"Origin":                        "https://studio.example.com",
				"Access-Control-Request-Method": http.MethodPost,
			},
			wantStatus: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			newTestRouter(tt.authMode).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}

func TestRequestIDIsPropagated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "upstream-123")
	w := httptest.NewRecorder()
	newTestRouter("none").ServeHTTP(w, req)

	assert.Equal(t, "upstream-123", w.Header().Get("X-Request-ID"))
}

func TestCORS(t *testing.T) {
	router := newTestRouter("none")

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/pipeline", nil)
	req.Header.Set("Origin", "https://studio.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://studio.example.com")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, strings.ToLower(w.Header().Get("Access-Control-Expose-Headers")), "x-request-id")
}
