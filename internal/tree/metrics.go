package tree

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// buildsTotal counts builds by mode and result ("ok", "invalid", "error").
	buildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lsystree_builds_total",
		Help: "Tree builds by mode and result",
	}, []string{"mode", "result"})

	buildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lsystree_build_duration_seconds",
		Help:    "Time to interpret and assemble one tree",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
	})

	buildSegments = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lsystree_build_segments",
		Help:    "Segments per built tree",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})

	buildVertices = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lsystree_build_vertices",
		Help:    "Vertices per built tree",
		Buckets: prometheus.ExponentialBuckets(64, 4, 10),
	})

	stackUnderflows = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lsystree_stack_underflows_total",
		Help: "Pops ignored because the turtle stack was empty",
	})
)

func observeBuild(a *Asset) {
	buildsTotal.WithLabelValues(a.Mode.String(), "ok").Inc()
	buildDuration.Observe(a.Duration.Seconds())
	buildSegments.Observe(float64(a.Stats.Segments))
	buildVertices.Observe(float64(a.Mesh.VertexCount()))
	stackUnderflows.Add(float64(a.Stats.Underflows))
}
