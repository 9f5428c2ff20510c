package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func serve(origins []string, req *http.Request) (*httptest.ResponseRecorder, bool) {
	called := false
	h := CORS(origins)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w, called
}

func TestCORSWildcard(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/domains", nil)
	req.Header.Set("Origin", "http://localhost:5173")

	w, called := serve([]string{"*"}, req)
	assert.True(t, called)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSExplicitOrigin(t *testing.T) {
	origins := []string{"https://cleia.example"}

	req := httptest.NewRequest(http.MethodGet, "/api/domains", nil)
	req.Header.Set("Origin", "https://cleia.example")
	w, _ := serve(origins, req)
	assert.Equal(t, "https://cleia.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/api/domains", nil)
	req.Header.Set("Origin", "https://evil.example")
	w, called := serve(origins, req)
	assert.True(t, called, "disallowed origins still reach the handler; the browser enforces the policy")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	w, called := serve([]string{"*"}, req)
	assert.False(t, called)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
}
