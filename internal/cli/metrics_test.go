package cli

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/BlueBrain/ArchNGV-sub001/pkg/errors"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{errors.New(errors.ErrCodeExhausted, "full"), "EXHAUSTED"},
		{context.Canceled, "canceled"},
		{fmt.Errorf("boom"), "error"},
	}
	for _, tt := range tests {
		if got := outcome(tt.err); got != tt.want {
			t.Errorf("outcome(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestPromPlacementHooks(t *testing.T) {
	ctx := context.Background()
	h := promPlacementHooks{}

	overlap := placementRejections.WithLabelValues("overlap")
	exhausted := placementRuns.WithLabelValues("EXHAUSTED")
	rejBefore := testutil.ToFloat64(overlap)
	runsBefore := testutil.ToFloat64(exhausted)

	h.OnPlacementStart(ctx, 10)
	if got := testutil.ToFloat64(placementsInFlight); got < 1 {
		t.Errorf("in flight = %v, want >= 1", got)
	}
	h.OnRejection(ctx, "overlap")
	h.OnRejection(ctx, "overlap")
	h.OnPlacementComplete(ctx, 3, time.Second, errors.New(errors.ErrCodeExhausted, "full"))

	if got := testutil.ToFloat64(overlap) - rejBefore; got != 2 {
		t.Errorf("overlap rejections = %v, want 2", got)
	}
	if got := testutil.ToFloat64(exhausted) - runsBefore; got != 1 {
		t.Errorf("exhausted runs = %v, want 1", got)
	}
}

func TestPromCacheHooks(t *testing.T) {
	ctx := context.Background()
	h := promCacheHooks{}

	hits := cacheRequests.WithLabelValues("placement", "hit")
	written := cacheWrittenBytes.WithLabelValues("placement")
	hitsBefore, writtenBefore := testutil.ToFloat64(hits), testutil.ToFloat64(written)

	h.OnCacheHit(ctx, "placement")
	h.OnCacheSet(ctx, "placement", 128)

	if got := testutil.ToFloat64(hits) - hitsBefore; got != 1 {
		t.Errorf("hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(written) - writtenBefore; got != 128 {
		t.Errorf("written bytes = %v, want 128", got)
	}
}
