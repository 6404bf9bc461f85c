package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveOperationCountsByOutcome(t *testing.T) {
	Register()
	Register()

	before := testutil.ToFloat64(operations.WithLabelValues("create", "slot_unavailable"))
	ObserveOperation("create", "slot_unavailable", 3*time.Millisecond)
	ObserveOperation("create", "slot_unavailable", 5*time.Millisecond)
	if got := testutil.ToFloat64(operations.WithLabelValues("create", "slot_unavailable")); got != before+2 {
		t.Fatalf("counter = %v, want %v", got, before+2)
	}

	IncStorageRetry("cancel")
	if got := testutil.ToFloat64(storageRetries.WithLabelValues("cancel")); got < 1 {
		t.Fatalf("retry counter = %v", got)
	}
}
