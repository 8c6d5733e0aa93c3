// Package metrics collects Prometheus metrics for tile fetches.
// The CLI is short-lived, so the registry is written to a textfile instead of being served.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type BuildInfo struct {
	Version  string
	Revision string
}

// Provider is safe for concurrent use. A nil *Provider records nothing.
type Provider struct {
	reg           *prometheus.Registry
	tileRequests  *prometheus.CounterVec
	tileBytes     *prometheus.CounterVec
	tileDuration  *prometheus.HistogramVec
	tilesSaved    prometheus.Counter
	tilesRemoved  prometheus.Counter
	rangeRequests *prometheus.CounterVec
}

func Init(build BuildInfo) *Provider {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	buildInfo := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wmtsclient_build_info",
			Help: "Build info for this binary (value is always 1).",
		},
		[]string{"version", "revision"},
	)
	if build.Version == "" {
		build.Version = "dev"
	}
	buildInfo.WithLabelValues(build.Version, build.Revision).Set(1)

	p := &Provider{
		reg: reg,
		tileRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wmtsclient_tile_requests_total",
			Help: "GetTile requests by layer and result.",
		}, []string{"layer", "result"}),
		tileBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wmtsclient_tile_bytes_total",
			Help: "Encoded tile bytes received by layer.",
		}, []string{"layer"}),
		tileDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wmtsclient_tile_request_duration_seconds",
			Help:    "GetTile request latency by layer.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"layer"}),
		tilesSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wmtsclient_tiles_saved_total",
			Help: "Tiles written to disk.",
		}),
		tilesRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wmtsclient_tiles_removed_total",
			Help: "Tiles removed from disk after a failed range.",
		}),
		rangeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wmtsclient_range_requests_total",
			Help: "Tile range operations by mode and result.",
		}, []string{"mode", "result"}),
	}
	reg.MustRegister(buildInfo, p.tileRequests, p.tileBytes, p.tileDuration, p.tilesSaved, p.tilesRemoved, p.rangeRequests)
	return p
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveTile records one GetTile request.
func (p *Provider) ObserveTile(layer string, took time.Duration, size int, err error) {
	if p == nil {
		return
	}
	p.tileRequests.WithLabelValues(layer, result(err)).Inc()
	p.tileDuration.WithLabelValues(layer).Observe(took.Seconds())
	if err == nil {
		p.tileBytes.WithLabelValues(layer).Add(float64(size))
	}
}

// ObserveRange records the outcome of a whole range operation, mode is "memory" or "disk".
func (p *Provider) ObserveRange(mode string, err error) {
	if p == nil {
		return
	}
	p.rangeRequests.WithLabelValues(mode, result(err)).Inc()
}

func (p *Provider) TileSaved() {
	if p == nil {
		return
	}
	p.tilesSaved.Inc()
}

func (p *Provider) TilesRemoved(n int) {
	if p == nil {
		return
	}
	p.tilesRemoved.Add(float64(n))
}

func (p *Provider) Register(cs ...prometheus.Collector) {
	for _, c := range cs {
		p.reg.MustRegister(c)
	}
}

func (p *Provider) Gatherer() prometheus.Gatherer { return p.reg }

// WriteToTextfile writes all metrics in the text exposition format, for the node exporter textfile collector.
func (p *Provider) WriteToTextfile(path string) error {
	if p == nil {
		return errors.New("metrics are not initialized")
	}
	return prometheus.WriteToTextfile(path, p.reg)
}
