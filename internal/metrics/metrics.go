// Package metrics exposes the daemon's Prometheus surface: server state
// counters, file/backup task counters and durations, HTTP request counts,
// and auth attempt counts. Subscribe wires the event bus in at
// PriorityMonitor so metrics observation never delays a real handler.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dncore/swi/internal/events"
)

var (
	ServerStateTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swi_server_state_transitions_total",
			Help: "Total server state machine transitions",
		},
		[]string{"server_id", "new_state"},
	)

	ServerProcessEndedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swi_server_process_ended_total",
			Help: "Total server process exits",
		},
		[]string{"server_id", "crashed"},
	)

	ServersRegistered = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "swi_servers_registered",
			Help: "Number of servers currently in the registry",
		},
	)

	FileTasksActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "swi_file_tasks_active",
			Help: "Number of currently running file/archive tasks",
		},
	)

	FileTasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swi_file_tasks_total",
			Help: "Total file tasks completed, by type and final status",
		},
		[]string{"type", "status"},
	)

	BackupTasksActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "swi_backup_tasks_active",
			Help: "Number of currently running backup engine tasks",
		},
	)

	BackupTasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swi_backup_tasks_total",
			Help: "Total backup engine tasks completed, by type and final status",
		},
		[]string{"type", "status"},
	)

	WatchdogMemoryWarningsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swi_watchdog_memory_warnings_total",
			Help: "Total times the memory watchdog blocked or warned on a launch",
		},
		[]string{"server_id"},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swi_http_requests_total",
			Help: "Total HTTP requests handled by the control plane",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "swi_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	AuthAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swi_auth_attempts_total",
			Help: "Total login attempts",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		ServerStateTransitionsTotal,
		ServerProcessEndedTotal,
		ServersRegistered,
		FileTasksActive,
		FileTasksTotal,
		BackupTasksActive,
		BackupTasksTotal,
		WatchdogMemoryWarningsTotal,
		HTTPRequestsTotal,
		HTTPRequestDuration,
		AuthAttemptsTotal,
	)
}

// Handler returns the HTTP handler to serve at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// EchoMiddleware instruments every request with count and latency metrics.
func EchoMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}

			path := c.Path()
			HTTPRequestsTotal.WithLabelValues(c.Request().Method, path, strconv.Itoa(status)).Inc()
			HTTPRequestDuration.WithLabelValues(c.Request().Method, path).Observe(duration.Seconds())
			return err
		}
	}
}

// Subscribe wires the bus's domain events into the counters/gauges above.
// Call once during daemon startup. Subscriptions run at PriorityMonitor,
// ahead of the WebSocket fan-out (PriorityLast) but never blocking it.
func Subscribe(bus *events.Bus) {
	events.Subscribe(bus, events.PriorityMonitor, func(e events.ServerChangeState) {
		ServerStateTransitionsTotal.WithLabelValues(e.ServerID, string(e.New)).Inc()
	})

	events.Subscribe(bus, events.PriorityMonitor, func(e events.ServerProcessEnded) {
		ServerProcessEndedTotal.WithLabelValues(e.ServerID, strconv.FormatBool(e.Crashed)).Inc()
	})

	events.Subscribe(bus, events.PriorityMonitor, func(e events.ServerRegistered) {
		ServersRegistered.Inc()
	})
	events.Subscribe(bus, events.PriorityMonitor, func(e events.ServerUnregistered) {
		ServersRegistered.Dec()
	})

	events.Subscribe(bus, events.PriorityMonitor, func(e events.FileTaskStart) {
		FileTasksActive.Inc()
	})
	events.Subscribe(bus, events.PriorityMonitor, func(e events.FileTaskEnd) {
		FileTasksActive.Dec()
		FileTasksTotal.WithLabelValues(string(e.Task.Type), string(e.Task.Status)).Inc()
	})

	events.Subscribe(bus, events.PriorityMonitor, func(e events.BackupTaskStart) {
		BackupTasksActive.Inc()
	})
	events.Subscribe(bus, events.PriorityMonitor, func(e events.BackupTaskEnd) {
		BackupTasksActive.Dec()
		BackupTasksTotal.WithLabelValues(string(e.Task.Kind), string(e.Task.Status)).Inc()
	})

	events.Subscribe(bus, events.PriorityMonitor, func(e events.WatchdogMemoryWarning) {
		WatchdogMemoryWarningsTotal.WithLabelValues(e.ServerID).Inc()
	})
}
