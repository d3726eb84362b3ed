package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRequestId_GeneratesWhenAbsent(t *testing.T) {
	var seen string
	handler := WithRequestId(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value(RequestIdKey).(string)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, seen)
	_, err := uuid.Parse(seen)
	assert.NoError(t, err, "generated id should be a uuid")
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"), "id echoed on the response")
}

func TestWithRequestId_KeepsCallerSuppliedId(t *testing.T) {
	var seen string
	handler := WithRequestId(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value(RequestIdKey).(string)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "upstream-id")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "upstream-id", seen)
	assert.Equal(t, "upstream-id", rec.Header().Get("X-Request-ID"))
}
