package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHubInstrument(t *testing.T) {
	before := testutil.CollectAndCount(HubCallDuration)

	HubInstrument().RecordTime("metrics_test_fn", 25*time.Millisecond)

	assert.Equal(t, before+1, testutil.CollectAndCount(HubCallDuration))
}

func TestResult(t *testing.T) {
	assert.Equal(t, RESULT_OK, Result(nil))
	assert.Equal(t, RESULT_ERROR, Result(errors.New("boom")))
}

func TestEntityCounters(t *testing.T) {
	counter := EntityUpdatesTotal.WithLabelValues("metrics_test", RESULT_ERROR)
	before := testutil.ToFloat64(counter)
	counter.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
