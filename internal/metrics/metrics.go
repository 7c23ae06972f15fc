// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics holds the Prometheus collectors reported by the loader.
// Collectors live on a caller-supplied registry; the CLI uses a private one
// so nothing leaks into the global default registry.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "magellan_loader"

// Batch status label values.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// LoaderMetrics records bulk load progress per index. A nil *LoaderMetrics
// is valid and records nothing.
type LoaderMetrics struct {
	documents     *prometheus.CounterVec
	batches       *prometheus.CounterVec
	batchDuration *prometheus.HistogramVec
	batchSize     *prometheus.GaugeVec
}

// New creates the loader collectors and registers them with reg.
func New(reg prometheus.Registerer) *LoaderMetrics {
	m := &LoaderMetrics{
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_indexed_total",
			Help:      "Documents accepted by the cluster",
		}, []string{"index"}),

		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Bulk requests sent, by outcome",
		}, []string{"index", "status"}),

		batchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Bulk request duration",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"index"}),

		batchSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_batch_documents",
			Help:      "Documents in the most recent bulk request",
		}, []string{"index"}),
	}

	reg.MustRegister(m.documents, m.batches, m.batchDuration, m.batchSize)
	return m
}

// ObserveBatch records one bulk request against index. Documents are counted
// only when err is nil.
func (m *LoaderMetrics) ObserveBatch(index string, docs int, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.batchDuration.WithLabelValues(index).Observe(d.Seconds())
	m.batchSize.WithLabelValues(index).Set(float64(docs))
	if err != nil {
		m.batches.WithLabelValues(index, StatusFailed).Inc()
		return
	}
	m.batches.WithLabelValues(index, StatusOK).Inc()
	m.documents.WithLabelValues(index).Add(float64(docs))
}

// Handler returns a mux serving g on /metrics.
func Handler(g prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return mux
}

// Serve binds addr and serves g on /metrics until ctx is cancelled. A bind
// failure is returned before anything is served. The returned server's Addr
// is the bound address, so ":0" picks a free port.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, logger *zap.Logger) (*http.Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	srv := &http.Server{
		Addr:              ln.Addr().String(),
		Handler:           Handler(g),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Serving metrics", zap.String("addr", srv.Addr))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()

	return srv, nil
}

// WriteTextfile writes the metrics in g to path in the node exporter
// textfile format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
