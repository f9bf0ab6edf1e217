package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/veristream/veristream-internal/internal/common/logtrace"
)

func TestPanicHandlerRecovers(t *testing.T) {
	h := PanicHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/contents", nil)
	req = req.WithContext(logtrace.WithRequestId(req.Context(), "req-123"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"result":0`)
	assert.Contains(t, rec.Body.String(), "req-123")
}

func TestPanicHandlerPassesThrough(t *testing.T) {
	h := PanicHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/contents", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
