package metrics

import (
	"errors"
	"testing"
	"testlab/internal/apperr"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Observe(t *testing.T) {
	m := New()

	m.Observe("listTestRequests", nil)
	m.Observe("listTestRequests", nil)
	m.Observe("listTestRequests", apperr.Forbidden("no"))
	m.Observe("deleteTestRequest", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("listTestRequests", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("listTestRequests", "forbidden")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("deleteTestRequest", "internal")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Observe("x", nil)
		m.SetWebSocketClients(3)
	})
}
