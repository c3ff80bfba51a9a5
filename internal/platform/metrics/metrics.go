// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package metrics exposes sync engine counters to Prometheus.
//
// Collectors are package-level and registered once on the default registry;
// the API server serves them on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lector"

// Label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"

	DirectionUpload   = "upload"
	DirectionDownload = "download"
)

var (
	registerOnce sync.Once

	positionWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "position_local_writes_total",
		Help:      "Reading positions written to the local store, by whether the write was suppressed as redundant",
	}, []string{"suppressed"})
	progressFlushes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "progress_flushes_total",
		Help:      "Debounced remote progress writes by outcome",
	}, []string{"outcome"})
	fallbackReads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reading_state_reads_total",
		Help:      "Reading state lookups by the layer that served them",
	}, []string{"source"})
	chunksTransferred = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chunks_transferred_total",
		Help:      "Book content chunks moved to or from the remote store",
	}, []string{"direction"})
	blobBytes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "blob_bytes_total",
		Help:      "Book content bytes moved to or from the remote store",
	}, []string{"direction"})
	reconstructionFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconstruction_failures_total",
		Help:      "Downloads that failed chunk reassembly or digest verification",
	})
	snapshotsMerged = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "library_snapshots_merged_total",
		Help:      "Remote library snapshots merged into the view",
	})
	libraryEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "library_entries",
		Help:      "Entries in the current library view",
	})
	pendingFlushes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "progress_flushes_pending",
		Help:      "Books with a debounced remote write waiting to fire",
	})
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "API requests by route and status",
	}, []string{"method", "route", "status"})
	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "API latency by route",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
	}, []string{"method", "route"})
)

// Register initializes metrics with the global Prometheus registry (idempotent)
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(positionWrites, progressFlushes, fallbackReads, chunksTransferred, blobBytes,
			reconstructionFailures, snapshotsMerged, libraryEntries, pendingFlushes, httpRequests, httpDuration)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Reading
func IncPositionWrite(suppressed bool) {
	positionWrites.WithLabelValues(strconv.FormatBool(suppressed)).Inc()
}
func IncProgressFlush(outcome string) { progressFlushes.WithLabelValues(outcome).Inc() }
func IncStateRead(source string)      { fallbackReads.WithLabelValues(source).Inc() }
func SetPendingFlushes(n int)         { pendingFlushes.Set(float64(n)) }

// Blob transfer
func AddChunks(direction string, n int) { chunksTransferred.WithLabelValues(direction).Add(float64(n)) }
func AddBlobBytes(direction string, n int) {
	blobBytes.WithLabelValues(direction).Add(float64(n))
}
func IncReconstructionFailure() { reconstructionFailures.Inc() }

// Library
func IncSnapshotMerged()      { snapshotsMerged.Inc() }
func SetLibraryEntries(n int) { libraryEntries.Set(float64(n)) }

// HTTP records request counts and latency labelled by the matched chi route pattern.
func HTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		start := time.Now()
		recorder := &statusWriter{ResponseWriter: writer, status: http.StatusOK}
		next.ServeHTTP(recorder, request)

		route := "unmatched"
		if routeContext := chi.RouteContext(request.Context()); routeContext != nil {
			if pattern := routeContext.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		httpRequests.WithLabelValues(request.Method, route, strconv.Itoa(recorder.status)).Inc()
		httpDuration.WithLabelValues(request.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (writer *statusWriter) WriteHeader(code int) {
	writer.status = code
	writer.ResponseWriter.WriteHeader(code)
}

func (writer *statusWriter) Flush() {
	if flusher, ok := writer.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (writer *statusWriter) Unwrap() http.ResponseWriter { return writer.ResponseWriter }
