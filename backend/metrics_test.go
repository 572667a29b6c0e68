package backend

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordSessionOpenedIncrementsCounter(t *testing.T) {
	before := testutil.ToFloat64(sessionsTotal.WithLabelValues("spanner"))
	recordSessionOpened("spanner")
	after := testutil.ToFloat64(sessionsTotal.WithLabelValues("spanner"))
	if after != before+1 {
		t.Fatalf("sessionsTotal[spanner] = %v, want %v", after, before+1)
	}
}

func TestObserveQueryRecordsSample(t *testing.T) {
	before := testutil.CollectAndCount(queryDuration)
	observeQuery("bigquery", "metrics-test-op", time.Now())
	after := testutil.CollectAndCount(queryDuration)
	if after <= before {
		t.Fatalf("queryDuration metric count = %d after observing, want more than %d", after, before)
	}
}
