package metrics

import (
	"context"
	"strconv"
	"sync"
	"time"

	"fleet-relay/backend/app/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const metricPrefix = "fleet_"

// DepthSource reports queue depth per status.
type DepthSource interface {
	CountByStatus(ctx context.Context) (map[models.CommandStatus]int64, error)
}

var (
	registerOnce sync.Once

	commandsEnqueued prometheus.Counter
	commandsClaimed  prometheus.Counter
	commandsExecuted prometheus.Counter
	claimBatch       prometheus.Histogram
	claimLatency     *prometheus.HistogramVec
	payloadErrors    prometheus.Counter
	devicesDeleted   prometheus.Counter
	registrations    *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
)

// Init registers the collectors once. depth may be nil.
func Init(depth DepthSource, logger zerolog.Logger) {
	registerOnce.Do(func() {
		commandsEnqueued = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "commands_enqueued_total",
			Help: "Commands accepted into the queue",
		})
		commandsClaimed = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "commands_claimed_total",
			Help: "Commands delivered to polling agents",
		})
		commandsExecuted = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "commands_executed_total",
			Help: "Completion reports accepted",
		})
		claimBatch = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    metricPrefix + "claim_batch_size",
			Help:    "Commands returned per claim",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		})
		claimLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metricPrefix + "claim_latency_seconds",
			Help:    "Claim transaction latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"result"})
		payloadErrors = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "payload_decode_errors_total",
			Help: "Claimed commands whose payload was returned raw",
		})
		devicesDeleted = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "devices_deleted_total",
			Help: "Device cascades that removed data",
		})
		registrations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricPrefix + "device_registrations_total",
			Help: "Device check-ins by outcome",
		}, []string{"outcome"})
		httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricPrefix + "http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"})
		httpLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metricPrefix + "http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"})

		prometheus.MustRegister(
			commandsEnqueued,
			commandsClaimed,
			commandsExecuted,
			claimBatch,
			claimLatency,
			payloadErrors,
			devicesDeleted,
			registrations,
			httpRequests,
			httpLatency,
		)
		if depth != nil {
			registerDepth(depth, logger)
		}
	})
}

func registerDepth(depth DepthSource, logger zerolog.Logger) {
	for _, status := range []models.CommandStatus{models.StatusPending, models.StatusSent} {
		status := status
		prometheus.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name:        metricPrefix + "commands_queued",
				Help:        "Commands currently in the given status",
				ConstLabels: prometheus.Labels{"status": string(status)},
			},
			func() float64 {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				counts, err := depth.CountByStatus(ctx)
				if err != nil {
					logger.Warn().Err(err).Msg("metrics depth query failed")
					return 0
				}
				return float64(counts[status])
			},
		))
	}
}

func IncEnqueued() {
	if commandsEnqueued != nil {
		commandsEnqueued.Inc()
	}
}

// ObserveClaim records one claim transaction.
func ObserveClaim(n int, err error, d time.Duration) {
	result := "success"
	if err != nil {
		result = "error"
	}
	if claimLatency != nil {
		claimLatency.WithLabelValues(result).Observe(d.Seconds())
	}
	if err != nil {
		return
	}
	if claimBatch != nil {
		claimBatch.Observe(float64(n))
	}
	if commandsClaimed != nil && n > 0 {
		commandsClaimed.Add(float64(n))
	}
}

func IncExecuted() {
	if commandsExecuted != nil {
		commandsExecuted.Inc()
	}
}

func IncPayloadError() {
	if payloadErrors != nil {
		payloadErrors.Inc()
	}
}

func IncDeviceDeleted() {
	if devicesDeleted != nil {
		devicesDeleted.Inc()
	}
}

// IncRegistration counts a check-in; created separates first registrations
// from heartbeats.
func IncRegistration(created bool) {
	if registrations == nil {
		return
	}
	outcome := "heartbeat"
	if created {
		outcome = "created"
	}
	registrations.WithLabelValues(outcome).Inc()
}

// ObserveHTTP records one served request.
func ObserveHTTP(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	if httpRequests != nil {
		httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	}
	if httpLatency != nil {
		httpLatency.WithLabelValues(route).Observe(d.Seconds())
	}
}
