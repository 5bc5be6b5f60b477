package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wadjakorntonsri/contextkeeper/pkg/config"
)

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		origin         string
		method         string
		expectedOrigin string
		expectedStatus int
		expectVary     bool
	}{
		{
			name:           "Wildcard - GET",
			origin:         "*",
			method:         http.MethodGet,
			expectedOrigin: "*",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Empty origin falls back to wildcard",
			origin:         "",
			method:         http.MethodPost,
			expectedOrigin: "*",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Preflight short-circuits",
			origin:         "https://chat.example.com",
			method:         http.MethodOptions,
			expectedOrigin: "https://chat.example.com",
			expectedStatus: http.StatusNoContent,
			expectVary:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := NewMiddleware(&config.Config{AllowedOrigin: tt.origin})
			called := false
			handler := mw.CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			}))

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(tt.method, "/api/capture", nil))

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, tt.expectedOrigin, rr.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.method != http.MethodOptions, called)
			if tt.expectVary {
				assert.Equal(t, "Origin", rr.Header().Get("Vary"))
			}
		})
	}
}

func TestRequestLoggerPassesThrough(t *testing.T) {
	mw := NewMiddleware(&config.Config{})
	handler := mw.RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusTeapot, rr.Code)
	assert.Equal(t, "short and stout", rr.Body.String())
}
