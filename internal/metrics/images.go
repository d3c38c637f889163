// Package metrics exports image pipeline telemetry to Prometheus.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "catalog"

// ImageMetrics records ingestion, purge and cache activity. A nil
// *ImageMetrics is valid and records nothing.
type ImageMetrics struct {
	ingested      *prometheus.CounterVec
	ingestedBytes prometheus.Counter
	transcode     *prometheus.HistogramVec
	purged        prometheus.Counter
	cacheHits     *prometheus.CounterVec
	swept         prometheus.Counter
}

// NewImageMetrics registers the collectors on reg, or on the default
// registerer when reg is nil. Collectors that are already registered are
// reused.
func NewImageMetrics(reg prometheus.Registerer) (*ImageMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &ImageMetrics{
		ingested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "images_ingested_total",
			Help:      "Uploads processed by the ingestion pipeline, by result.",
		}, []string{"result"}),
		ingestedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_ingested_bytes_total",
			Help:      "Original upload bytes accepted by the ingestion pipeline.",
		}),
		transcode: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "image_transcode_seconds",
			Help:      "Time spent decoding, resizing and encoding one variant.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"variant"}),
		purged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_purged_total",
			Help:      "Stored images purged from disk (main and thumbnail count as one).",
		}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_cache_hits_total",
			Help:      "Image byte reads served per tier (memory, redis, disk).",
		}, []string{"tier"}),
		swept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_orphans_swept_total",
			Help:      "Orphaned files removed by the sweeper.",
		}),
	}

	var err error
	if m.ingested, err = register(reg, m.ingested); err != nil {
		return nil, err
	}
	if m.ingestedBytes, err = register(reg, m.ingestedBytes); err != nil {
		return nil, err
	}
	if m.transcode, err = register(reg, m.transcode); err != nil {
		return nil, err
	}
	if m.purged, err = register(reg, m.purged); err != nil {
		return nil, err
	}
	if m.cacheHits, err = register(reg, m.cacheHits); err != nil {
		return nil, err
	}
	if m.swept, err = register(reg, m.swept); err != nil {
		return nil, err
	}
	return m, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("register image metric: %w", err)
	}
	return c, nil
}

// RecordIngest counts one ingestion attempt. result is "ok", "rejected",
// "invalid_image", "canceled" or "io_error".
func (m *ImageMetrics) RecordIngest(result string, sizeBytes int) {
	if m == nil {
		return
	}
	m.ingested.WithLabelValues(result).Inc()
	if result == "ok" {
		m.ingestedBytes.Add(float64(sizeBytes))
	}
}

// ObserveTranscode records how long one variant took.
func (m *ImageMetrics) ObserveTranscode(variant string, d time.Duration) {
	if m == nil {
		return
	}
	m.transcode.WithLabelValues(variant).Observe(d.Seconds())
}

func (m *ImageMetrics) RecordPurge() {
	if m == nil {
		return
	}
	m.purged.Inc()
}

func (m *ImageMetrics) RecordCacheHit(tier string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(tier).Inc()
}

func (m *ImageMetrics) RecordSwept(n int) {
	if m == nil || n == 0 {
		return
	}
	m.swept.Add(float64(n))
}
