package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveBackend(t *testing.T) {
	before := testutil.ToFloat64(BackendRequests.WithLabelValues("get_product", OutcomeSuccess))
	ObserveBackend("get_product", OutcomeSuccess, 10*time.Millisecond)
	after := testutil.ToFloat64(BackendRequests.WithLabelValues("get_product", OutcomeSuccess))
	assert.InDelta(t, 1, after-before, 0.0001)
}

func TestObserveHTTP(t *testing.T) {
	ObserveHTTP("GET", 307, time.Millisecond)
	assert.Positive(t, testutil.CollectAndCount(HTTPRequestDuration))
}
