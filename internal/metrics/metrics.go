package metrics

import (
	"time"

	"github.com/lexgen/lexgen/scanner"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors exported by the server.
type Metrics struct {
	builds        *prometheus.CounterVec
	buildDuration prometheus.Histogram
	states        prometheus.Histogram
	tokens        *prometheus.CounterVec
	errorTokens   prometheus.Counter
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		builds: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lexgen",
			Subsystem: "build",
			Name:      "total",
			Help:      "Number of table builds, by outcome",
		}, []string{"result"}),
		buildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "lexgen",
			Subsystem: "build",
			Name:      "duration_seconds",
			Help:      "Time spent building tables",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}),
		states: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "lexgen",
			Subsystem: "build",
			Name:      "states",
			Help:      "Number of states in built tables",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		tokens: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lexgen",
			Subsystem: "scan",
			Name:      "tokens_total",
			Help:      "Number of tokens produced, by class",
		}, []string{"class"}),
		errorTokens: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "lexgen",
			Subsystem: "scan",
			Name:      "error_tokens_total",
			Help:      "Number of error tokens produced",
		}),
	}
}

// ObserveBuild records one build. states is ignored when err is set.
func (m *Metrics) ObserveBuild(elapsed time.Duration, states int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.builds.WithLabelValues("error").Inc()
		return
	}
	m.builds.WithLabelValues("ok").Inc()
	m.buildDuration.Observe(elapsed.Seconds())
	m.states.Observe(float64(states))
}

// ObserveScan records the tokens of one scan.
func (m *Metrics) ObserveScan(tokens []scanner.Token) {
	if m == nil {
		return
	}
	for _, tok := range tokens {
		if tok.IsError() {
			m.errorTokens.Inc()
			continue
		}
		m.tokens.WithLabelValues(tok.Class).Inc()
	}
}
