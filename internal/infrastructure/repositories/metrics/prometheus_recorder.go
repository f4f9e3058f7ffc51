package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
)

const (
	namespace       = "sitedeploy"
	dirPerm         = 0o755
	shutdownTimeout = 5 * time.Second
	readTimeout     = 10 * time.Second
)

// PrometheusRecorder exposes cycle and deployment metrics. One-shot runs write
// them to a node_exporter textfile; the watch daemon also serves them over HTTP.
type PrometheusRecorder struct {
	registry *prom.Registry
	textfile string

	cycles              *prom.CounterVec
	deployments         *prom.CounterVec
	deploymentDuration  *prom.HistogramVec
	lastDeploy          *prom.GaugeVec
	lastCycle           *prom.GaugeVec
	changeCount         prom.Gauge
	trackedFingerprints prom.Gauge
	lockHeld            prom.Gauge
}

// NewPrometheusRecorder registers the sitedeploy metrics on a fresh registry.
// textfile may be empty, in which case Flush does nothing.
func NewPrometheusRecorder(textfile string) *PrometheusRecorder {
	it := &PrometheusRecorder{registry: prom.NewRegistry(), textfile: textfile}
	it.cycles = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "cycles_total",
		Help:      "Decision cycles by mode and outcome",
	}, []string{"mode", "outcome"})
	it.deployments = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "deployments_total",
		Help:      "Deployments by kind, trigger and outcome",
	}, []string{"kind", "trigger", "outcome"})
	it.deploymentDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "deployment_duration_seconds",
		Help:      "Duration of regeneration plus publish",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
	}, []string{"kind"})
	it.lastDeploy = prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "last_deploy_timestamp_seconds",
		Help:      "Unix time of the last successful deployment",
	}, []string{"kind"})
	it.lastCycle = prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "last_cycle_timestamp_seconds",
		Help:      "Unix time of the last cycle per outcome",
	}, []string{"outcome"})
	it.changeCount = prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "pending_report_changes",
		Help:      "Report data changes accumulated since the last report deployment",
	})
	it.trackedFingerprints = prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "tracked_files",
		Help:      "Files with a recorded fingerprint",
	})
	it.lockHeld = prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "lock_held",
		Help:      "1 while this process holds the deployment lock",
	})
	it.registry.MustRegister(
		it.cycles, it.deployments, it.deploymentDuration, it.lastDeploy,
		it.lastCycle, it.changeCount, it.trackedFingerprints, it.lockHeld,
	)
	return it
}

// Registry returns the underlying registry.
func (it *PrometheusRecorder) Registry() *prom.Registry {
	return it.registry
}

// ObserveCycle records a finished cycle. state is nil when the cycle was skipped.
func (it *PrometheusRecorder) ObserveCycle(result *entities.CycleResult, state *entities.DeploymentState) {
	if result == nil {
		return
	}
	it.cycles.WithLabelValues(string(result.Mode), string(result.Outcome)).Inc()
	it.lastCycle.WithLabelValues(string(result.Outcome)).Set(float64(result.StartedAt.Unix()))

	if record := result.Record; record != nil {
		it.deployments.WithLabelValues(string(record.Kind), string(record.Trigger), string(record.Outcome)).Inc()
		it.deploymentDuration.WithLabelValues(string(record.Kind)).Observe(record.Duration.Seconds())
	}

	if state == nil {
		return
	}
	it.changeCount.Set(float64(state.ChangeCount))
	it.trackedFingerprints.Set(float64(len(state.FileFingerprints)))
	for _, kind := range []entities.DeploymentKind{entities.KindHomepage, entities.KindReports} {
		if last := state.LastDeploy(kind); last != nil {
			it.lastDeploy.WithLabelValues(string(kind)).Set(float64(last.Unix()))
		}
	}
}

// ObserveLock tracks whether this process holds the lock.
func (it *PrometheusRecorder) ObserveLock(held bool) {
	if held {
		it.lockHeld.Set(1)
		return
	}
	it.lockHeld.Set(0)
}

// Flush writes the registry to the textfile, atomically.
func (it *PrometheusRecorder) Flush() error {
	if it.textfile == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(it.textfile), dirPerm); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	return prom.WriteToTextfile(it.textfile, it.registry)
}

// Serve exposes /metrics on addr until ctx is done.
func (it *PrometheusRecorder) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(it.registry, promhttp.HandlerOpts{EnableOpenMetrics: true}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: readTimeout}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Infof("Serving metrics on http://%s/metrics", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
