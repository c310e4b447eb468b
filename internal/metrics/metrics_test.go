package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_ObserveCall(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveCall("identity", "sign_in", 10*time.Millisecond, nil)
	c.ObserveCall("identity", "sign_in", 20*time.Millisecond, errors.New("boom"))
	c.ObserveCall("identity", "sign_in", 5*time.Millisecond, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.calls.WithLabelValues("identity", "sign_in", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.calls.WithLabelValues("identity", "sign_in", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.latency))
}

func TestCollector_TransitionsAndStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordTransition("signed_out", "authenticating")
	c.RecordHTTPStatus(http.StatusOK)
	c.RecordHTTPStatus(http.StatusOK)
	c.RecordHTTPStatus(http.StatusUnauthorized)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.transitions.WithLabelValues("signed_out", "authenticating")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.httpStatus.WithLabelValues("200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpStatus.WithLabelValues("401")))
}

func TestSince(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	func() (err error) {
		defer Since(c, "media", "upload", time.Now(), &err)
		return errors.New("transport")
	}()

	assert.Equal(t, 1.0, testutil.ToFloat64(c.calls.WithLabelValues("media", "upload", "error")))
	Since(nil, "media", "upload", time.Now(), nil)
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordHTTPStatus(http.StatusCreated)

	rr := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "tes_http_responses_total")
}
