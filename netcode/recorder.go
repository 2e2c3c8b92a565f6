package netcode

import "github.com/maxpoletaev/lockstep/history"

// Recorder receives optional instrumentation events from a Client. It
// lets a host wire in metrics (see the metrics package) without the
// engine itself depending on any instrumentation library: Client only
// ever calls through this tiny interface.
type Recorder interface {
	// FrameAdvanced is called once per tick that advanced the
	// simulation with a fully confirmed (Canonical) input set.
	FrameAdvanced()
	// FrameSpeculated is called once per tick that advanced the
	// simulation speculatively (Phase D).
	FrameSpeculated()
	// FrameStalled is called once per tick that stalled and emitted a
	// Request packet (Phase E).
	FrameStalled()
	// RollbackStarted is called when a pending rollback begins
	// replaying, with the number of frames it will re-advance.
	RollbackStarted(depth int)
	// Prediction is called once per networked input insertion, with
	// the resulting prediction outcome.
	Prediction(result history.PredictionResult)
	// SkipFrames reports the current clock-sync skip counter after a
	// Inputs packet updates it.
	SkipFrames(n int)
	// SavedStates reports the number of outstanding speculative saved
	// states once per Update call, after any pending rollback has been
	// replayed and before the tick's own advance, speculation or stall.
	SavedStates(n int)
}

// SetRecorder attaches r to receive instrumentation events. Passing nil
// disables instrumentation (the default).
func (c *Client[T, S]) SetRecorder(r Recorder) {
	c.recorder = r
}

func (c *Client[T, S]) recordPrediction(result history.PredictionResult) {
	if c.recorder != nil {
		c.recorder.Prediction(result)
	}
}
