package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	ingestStartedTotal   atomic.Uint64
	ingestCompletedTotal atomic.Uint64
	ingestFailedTotal    atomic.Uint64
	queriesAnsweredTotal atomic.Uint64
	queriesFailedTotal   atomic.Uint64

	ingestDuration = newHistogram([]float64{50, 100, 250, 500, 1000, 2000, 5000, 10000, 30000})
	queryDuration  = newHistogram([]float64{10, 25, 50, 100, 250, 500, 1000, 2000, 5000})
)

// IncIngestStarted increments the ingestion-started counter.
func IncIngestStarted() {
	ingestStartedTotal.Add(1)
}

// IncIngestCompleted increments the ingestion-completed counter.
func IncIngestCompleted() {
	ingestCompletedTotal.Add(1)
}

// IncIngestFailed increments the ingestion-failed counter.
func IncIngestFailed() {
	ingestFailedTotal.Add(1)
}

// IncQueryAnswered increments the answered-queries counter.
func IncQueryAnswered() {
	queriesAnsweredTotal.Add(1)
}

// IncQueryFailed increments the failed-queries counter.
func IncQueryFailed() {
	queriesFailedTotal.Add(1)
}

// ObserveIngestDurationMs records a document ingestion duration in milliseconds.
func ObserveIngestDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	ingestDuration.Observe(value)
}

// ObserveQueryDurationMs records a query pipeline duration in milliseconds.
func ObserveQueryDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	queryDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "ingest_started_total", "Total document ingestions started", ingestStartedTotal.Load())
	writeCounter(&buf, "ingest_completed_total", "Total document ingestions completed", ingestCompletedTotal.Load())
	writeCounter(&buf, "ingest_failed_total", "Total document ingestions failed", ingestFailedTotal.Load())
	writeCounter(&buf, "queries_answered_total", "Total chat queries answered", queriesAnsweredTotal.Load())
	writeCounter(&buf, "queries_failed_total", "Total chat queries failed", queriesFailedTotal.Load())
	writeHistogram(&buf, "ingest_duration_ms", "Document ingestion duration in milliseconds", ingestDuration.Snapshot())
	writeHistogram(&buf, "query_duration_ms", "Query pipeline duration in milliseconds", queryDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
