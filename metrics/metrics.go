// Package metrics wires a netcode.Client's optional instrumentation
// hooks to Prometheus, following the promauto counter/gauge pattern
// internal/metrics/metrics.go uses for the CAN server's hub and
// transport counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/maxpoletaev/lockstep/history"
	"github.com/maxpoletaev/lockstep/netcode"
)

// Recorder implements netcode.Recorder on top of Prometheus counters
// and gauges. The zero value is invalid; use NewRecorder.
type Recorder struct {
	framesAdvanced    prometheus.Counter
	framesSpeculated  prometheus.Counter
	framesStalled     prometheus.Counter
	rollbacks         prometheus.Counter
	rollbackDepth     prometheus.Histogram
	predictions       *prometheus.CounterVec
	skipFrames        prometheus.Gauge
	outstandingStates prometheus.Gauge
}

// NewRecorder registers a fresh set of metrics on reg and returns a
// Recorder ready to attach to a netcode.Client via SetRecorder. Passing
// a nil registry creates the metrics without registering them anywhere.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		framesAdvanced: factory.NewCounter(prometheus.CounterOpts{
			Name: "lockstep_frames_advanced_total",
			Help: "Total ticks that advanced the simulation with a fully confirmed input set.",
		}),
		framesSpeculated: factory.NewCounter(prometheus.CounterOpts{
			Name: "lockstep_frames_speculated_total",
			Help: "Total ticks that advanced the simulation speculatively under prediction.",
		}),
		framesStalled: factory.NewCounter(prometheus.CounterOpts{
			Name: "lockstep_frames_stalled_total",
			Help: "Total ticks that stalled waiting for input and emitted a Request packet.",
		}),
		rollbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "lockstep_rollbacks_total",
			Help: "Total rollbacks performed due to a wrong prediction.",
		}),
		rollbackDepth: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "lockstep_rollback_depth_frames",
			Help:    "Distribution of how many frames each rollback re-advanced.",
			Buckets: prometheus.LinearBuckets(1, 2, 10),
		}),
		predictions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lockstep_predictions_total",
			Help: "Total networked input insertions, labeled by prediction outcome.",
		}, []string{"result"}),
		skipFrames: factory.NewGauge(prometheus.GaugeOpts{
			Name: "lockstep_skip_frames",
			Help: "Current clock-sync skip-frame counter.",
		}),
		outstandingStates: factory.NewGauge(prometheus.GaugeOpts{
			Name: "lockstep_saved_states",
			Help: "Current number of outstanding speculative saved states.",
		}),
	}
}

func (r *Recorder) FrameAdvanced()   { r.framesAdvanced.Inc() }
func (r *Recorder) FrameSpeculated() { r.framesSpeculated.Inc() }
func (r *Recorder) FrameStalled()    { r.framesStalled.Inc() }

func (r *Recorder) RollbackStarted(depth int) {
	r.rollbacks.Inc()
	r.rollbackDepth.Observe(float64(depth))
}

func (r *Recorder) Prediction(result history.PredictionResult) {
	r.predictions.WithLabelValues(result.String()).Inc()
}

func (r *Recorder) SkipFrames(n int)   { r.skipFrames.Set(float64(n)) }
func (r *Recorder) SavedStates(n int)  { r.outstandingStates.Set(float64(n)) }

var _ netcode.Recorder = (*Recorder)(nil)
