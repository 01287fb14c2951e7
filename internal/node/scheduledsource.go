package node

import "github.com/bken-audio/graph/internal/block"

// scheduledSource is the shared start/stop bookkeeping for
// AudioScheduledSourceNode-style engines (Oscillator, BufferSource): both
// honor a start time and an optional stop time, emitting silence outside
// that window and firing OnEnded once when the stop boundary is crossed
// (§4.3, and the original servo-media AudioScheduledSourceNode trait
// referenced by examples/panner.rs). Grounded on the teacher's noisegate
// package's hold/open-state bookkeeping, generalized from an RMS threshold
// gate to a scheduled time gate.
type scheduledSource struct {
	started   bool
	startTick block.Tick
	stopTick  block.Tick
	hasStop   bool
	ended     bool
	onEnded   func()
}

// Start schedules the source to begin emitting at the given time in
// seconds.
func (s *scheduledSource) Start(whenSeconds float64, sampleRate float32) {
	s.started = true
	s.startTick = block.SecondsToTick(whenSeconds, float64(sampleRate))
}

// Stop schedules the source to stop emitting at the given time in seconds.
func (s *scheduledSource) Stop(whenSeconds float64, sampleRate float32) {
	s.hasStop = true
	s.stopTick = block.SecondsToTick(whenSeconds, float64(sampleRate))
}

// active reports whether the source should be emitting audio at frame,
// and fires OnEnded exactly once the first time frame crosses the stop
// boundary.
func (s *scheduledSource) active(frame block.Tick) bool {
	if !s.started || frame < s.startTick {
		return false
	}
	if s.hasStop && frame >= s.stopTick {
		if !s.ended {
			s.ended = true
			if s.onEnded != nil {
				s.onEnded()
			}
		}
		return false
	}
	return true
}

func (s *scheduledSource) SetOnEnded(fn func()) { s.onEnded = fn }
