package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observed struct {
	method string
	route  string
	status int
}

type fakeMetrics struct {
	calls []observed
}

func (m *fakeMetrics) ObserveHTTPRequest(method, route string, status int, _ time.Duration) {
	m.calls = append(m.calls, observed{method: method, route: route, status: status})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func TestObserve_UsesRouteTemplate(t *testing.T) {
	metrics := &fakeMetrics{}
	r := mux.NewRouter()
	r.Use(Observe(nopLogger{}, metrics))
	r.HandleFunc("/api/v1/leads/{leadId}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods(http.MethodGet)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/leads/42", nil))

	require.Len(t, metrics.calls, 1)
	assert.Equal(t, observed{method: http.MethodGet, route: "/api/v1/leads/{leadId}", status: http.StatusNotFound}, metrics.calls[0])
}

func TestRecover_RespondsInternalError(t *testing.T) {
	r := mux.NewRouter()
	r.Use(Recover(nopLogger{}))
	r.HandleFunc("/boom", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal_error")
}
