package cli

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/BlueBrain/ArchNGV-sub001/pkg/errors"
	"github.com/BlueBrain/ArchNGV-sub001/pkg/observability"
)

const (
	resultLabel  = "result"
	reasonLabel  = "reason"
	keyTypeLabel = "key_type"
	methodLabel  = "method"
	routeLabel   = "route"
	statusLabel  = "status"
)

var (
	placementRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ngv_placement_runs_total",
		Help: "The number of placement runs by outcome error code.",
	}, []string{
		resultLabel,
	})

	placementsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ngv_placements_in_flight",
		Help: "The number of placement runs in progress.",
	})

	placedCells = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ngv_placed_cells_total",
		Help: "The number of somata placed.",
	})

	placementGroups = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ngv_placement_groups_total",
		Help: "The number of voxel intensity groups completed.",
	})

	placementRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ngv_placement_rejections_total",
		Help: "The number of rejected candidate draws.",
	}, []string{
		reasonLabel,
	})

	placementDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ngv_placement_duration_seconds",
		Help:    "The time to complete a placement run.",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 9),
	})

	cacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ngv_cache_requests_total",
		Help: "The number of cache lookups by result.",
	}, []string{
		keyTypeLabel,
		resultLabel,
	})

	cacheWrittenBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ngv_cache_written_bytes_total",
		Help: "The number of bytes written to the cache.",
	}, []string{
		keyTypeLabel,
	})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ngv_http_requests_total",
		Help: "The number of HTTP requests served.",
	}, []string{
		methodLabel,
		routeLabel,
		statusLabel,
	})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "ngv_http_request_duration_seconds",
		Help: "The time to serve an HTTP request.",
	}, []string{
		methodLabel,
		routeLabel,
	})
)

// registerMetrics routes observability events to Prometheus.
func registerMetrics() {
	observability.SetPlacementHooks(promPlacementHooks{})
	observability.SetCacheHooks(promCacheHooks{})
	observability.SetHTTPHooks(promHTTPHooks{})
}

type promPlacementHooks struct{}

func (promPlacementHooks) OnPlacementStart(context.Context, int) {
	placementsInFlight.Inc()
}

func (promPlacementHooks) OnGroupComplete(context.Context, float64, int) {
	placementGroups.Inc()
}

func (promPlacementHooks) OnRejection(_ context.Context, reason string) {
	placementRejections.With(prometheus.Labels{reasonLabel: reason}).Inc()
}

func (promPlacementHooks) OnPlacementComplete(_ context.Context, placed int, d time.Duration, err error) {
	placementsInFlight.Dec()
	placementRuns.With(prometheus.Labels{resultLabel: outcome(err)}).Inc()
	placedCells.Add(float64(placed))
	placementDuration.Observe(d.Seconds())
}

// outcome labels a run by its error code.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.GetCode(err) != "":
		return string(errors.GetCode(err))
	case err == context.Canceled || err == context.DeadlineExceeded:
		return "canceled"
	}
	return "error"
}

type promCacheHooks struct{}

func (promCacheHooks) OnCacheHit(_ context.Context, keyType string) {
	cacheRequests.With(prometheus.Labels{keyTypeLabel: keyType, resultLabel: "hit"}).Inc()
}

func (promCacheHooks) OnCacheMiss(_ context.Context, keyType string) {
	cacheRequests.With(prometheus.Labels{keyTypeLabel: keyType, resultLabel: "miss"}).Inc()
}

func (promCacheHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	cacheWrittenBytes.With(prometheus.Labels{keyTypeLabel: keyType}).Add(float64(size))
}

type promHTTPHooks struct{}

func (promHTTPHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	httpRequests.With(prometheus.Labels{
		methodLabel: method,
		routeLabel:  route,
		statusLabel: strconv.Itoa(status),
	}).Inc()
	httpLatency.With(prometheus.Labels{
		methodLabel: method,
		routeLabel:  route,
	}).Observe(d.Seconds())
}
