// Package metrics provides Prometheus metrics for sharesave runs.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bamsammich/sharesave/internal/event"
	"github.com/bamsammich/sharesave/internal/stats"
)

var (
	// API metrics
	apiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sharesave_api_requests_total",
			Help: "Total number of 189 Cloud API requests",
		},
		[]string{"op", "status"},
	)

	apiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sharesave_api_request_duration_seconds",
			Help:    "189 Cloud API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	// Engine events
	eventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sharesave_events_total",
			Help: "Total engine events by type",
		},
		[]string{"type"},
	)

	// Run progress
	outstandingUnits = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sharesave_outstanding_units",
			Help: "Units queued or executing",
		},
	)

	walkedFolders = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sharesave_walked_folders",
			Help: "Share folders listed so far",
		},
	)

	savedFolders = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sharesave_saved_folders",
			Help: "Folders saved whole in a single request",
		},
	)

	savedFiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sharesave_saved_files",
			Help: "Files saved through batches",
		},
	)

	savedBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sharesave_saved_bytes",
			Help: "Bytes saved through batches",
		},
	)

	runFailed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sharesave_run_failed",
			Help: "1 once any unit of the run has failed",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAPIRequest records one API round trip. It has the shape of a
// cloud189.RequestObserver.
func RecordAPIRequest(op string, d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	apiRequestsTotal.WithLabelValues(op, status).Inc()
	apiRequestDuration.WithLabelValues(op).Observe(d.Seconds())
}

// RecordEvent counts an engine event.
func RecordEvent(ev event.Event) {
	eventsTotal.WithLabelValues(ev.Type.String()).Inc()
}

// Tee records every event from in and forwards it to the returned channel,
// which is closed after in is.
func Tee(in <-chan event.Event) <-chan event.Event {
	out := make(chan event.Event, cap(in))
	go func() {
		defer close(out)
		for ev := range in {
			RecordEvent(ev)
			out <- ev
		}
	}()
	return out
}

// Sink mirrors run progress into gauges.
type Sink struct{}

var _ stats.Sink = Sink{}

// Update implements stats.Sink.
func (Sink) Update(s stats.Snapshot) {
	outstandingUnits.Set(float64(s.Outstanding))
	walkedFolders.Set(float64(s.WalkedFolders))
	savedFolders.Set(float64(s.SavedFolders))
	savedFiles.Set(float64(s.SavedFiles))
	savedBytes.Set(float64(s.SavedBytes))
	if s.Failed {
		runFailed.Set(1)
	} else {
		runFailed.Set(0)
	}
}

// Serve exposes /metrics on addr until ctx is done. The listener is bound
// before Serve returns so that address errors surface immediately.
func Serve(ctx context.Context, addr string, log *slog.Logger) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", "error", err)
		}
	}()

	log.Info("serving metrics", "addr", ln.Addr().String())
	return ln.Addr(), nil
}
