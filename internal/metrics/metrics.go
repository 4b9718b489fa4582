// Package metrics exposes Prometheus counters and gauges for the
// fire-control engine: how often nozzles fire, why requests get rejected,
// and when the watchdog or emergency stop trips.
//
// Metric naming convention: axofuego_<subsystem>_<name>_<unit>.
//
// All metrics are registered on a dedicated prometheus.Registry rather than
// the global default, so a second engine instance in the same process (e.g.
// in tests) never collides with the first.
//
// Cardinality control: channel id is not used as a label beyond the small,
// fixed number of nozzles on the rig (spec.md bounds this at 8-16), so it is
// safe as a label value here — unlike an unbounded identifier.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every Prometheus descriptor the engine records to.
type Metrics struct {
	registry *prometheus.Registry

	// ─── Channel actuation ────────────────────────────────────────────────

	// FiresTotal counts accepted fire requests, by channel id.
	FiresTotal *prometheus.CounterVec

	// RejectionsTotal counts rejected fire requests, by reason
	// (busy, emergency_stopped, unknown_channel).
	RejectionsTotal *prometheus.CounterVec

	// ActiveChannels is the current number of energized nozzles.
	ActiveChannels prometheus.Gauge

	// FireDuration is the histogram for how long accepted fires stay
	// energized. It is registered, but no engine code path observes into
	// it, so it stays empty.
	FireDuration prometheus.Histogram

	// ─── Safety ───────────────────────────────────────────────────────────

	// WatchdogTripsTotal counts watchdog-triggered all-channel releases.
	WatchdogTripsTotal prometheus.Counter

	// EmergencyTripsTotal counts emergency-stop latch activations.
	EmergencyTripsTotal prometheus.Counter

	// EmergencyActive reports whether the emergency latch is currently set.
	EmergencyActive prometheus.Gauge

	// ─── Pattern scheduler ────────────────────────────────────────────────

	// SchedulerTicksTotal counts beat ticks processed by the scheduler.
	SchedulerTicksTotal prometheus.Counter

	// SchedulerLateTicksTotal counts ticks the scheduler received later
	// than one tick period after they were due.
	SchedulerLateTicksTotal prometheus.Counter

	// PatternsStartedTotal counts pattern playback starts, by pattern name.
	PatternsStartedTotal *prometheus.CounterVec

	// ─── Process ──────────────────────────────────────────────────────────

	// UptimeSeconds is the number of seconds since the engine started.
	UptimeSeconds prometheus.Gauge

	startTime time.Time
}

// New creates and registers every Axofuego Prometheus metric.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		FiresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "axofuego",
			Subsystem: "channel",
			Name:      "fires_total",
			Help:      "Total accepted fire requests, by channel id.",
		}, []string{"channel"}),

		RejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "axofuego",
			Subsystem: "channel",
			Name:      "rejections_total",
			Help:      "Total rejected fire requests, by reason.",
		}, []string{"reason"}),

		ActiveChannels: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "axofuego",
			Subsystem: "channel",
			Name:      "active",
			Help:      "Current number of energized nozzles.",
		}),

		FireDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "axofuego",
			Subsystem: "channel",
			Name:      "fire_duration_seconds",
			Help:      "Distribution of realized fire durations.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8},
		}),

		WatchdogTripsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "axofuego",
			Subsystem: "safety",
			Name:      "watchdog_trips_total",
			Help:      "Total watchdog-triggered all-channel releases.",
		}),

		EmergencyTripsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "axofuego",
			Subsystem: "safety",
			Name:      "emergency_trips_total",
			Help:      "Total emergency-stop latch activations.",
		}),

		EmergencyActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "axofuego",
			Subsystem: "safety",
			Name:      "emergency_active",
			Help:      "1 when the emergency-stop latch is set, 0 otherwise.",
		}),

		SchedulerTicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "axofuego",
			Subsystem: "scheduler",
			Name:      "ticks_total",
			Help:      "Total beat ticks processed by the pattern scheduler.",
		}),

		SchedulerLateTicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "axofuego",
			Subsystem: "scheduler",
			Name:      "late_ticks_total",
			Help:      "Total ticks delivered more than one tick period after they were due.",
		}),

		PatternsStartedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "axofuego",
			Subsystem: "scheduler",
			Name:      "patterns_started_total",
			Help:      "Total pattern playback starts, by pattern name.",
		}, []string{"pattern"}),

		UptimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "axofuego",
			Subsystem: "engine",
			Name:      "uptime_seconds",
			Help:      "Seconds since the engine process started.",
		}),
	}

	reg.MustRegister(
		m.FiresTotal,
		m.RejectionsTotal,
		m.ActiveChannels,
		m.FireDuration,
		m.WatchdogTripsTotal,
		m.EmergencyTripsTotal,
		m.EmergencyActive,
		m.SchedulerTicksTotal,
		m.SchedulerLateTicksTotal,
		m.PatternsStartedTotal,
		m.UptimeSeconds,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return m
}

// Serve starts the Prometheus HTTP endpoint on addr. Blocks until ctx is
// cancelled or the server fails to start.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go m.updateUptime(ctx)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("metrics server on %s: %w", addr, err)
	}
	return nil
}

func (m *Metrics) updateUptime(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.UptimeSeconds.Set(time.Since(m.startTime).Seconds())
		case <-ctx.Done():
			return
		}
	}
}
