// Package null implements the dummy audio sink (§12.4, grounded on
// servo-media's audio/src/sink.rs DummyAudioSink): a Sink that never
// applies backpressure and discards every pushed block immediately. Used
// by the demo command's -dry-run mode when no real output device is wanted.
package null

import "github.com/bken-audio/graph/internal/block"

// Sink discards every block pushed to it and never reports backpressure.
type Sink struct {
	totalRendered uint64
	onEOS         func(uint64)
}

// New returns a ready-to-use null sink.
func New() *Sink { return &Sink{} }

func (s *Sink) Init(sampleRate float32, channels int) error { return nil }

func (s *Sink) Play() error { return nil }

// Stop is a no-op pause: there is no device state to suspend, and a null
// sink never fires the EOS callback here — only Close does.
func (s *Sink) Stop() error { return nil }

// Close fires the EOS callback, once, with the total number of frames
// ever pushed.
func (s *Sink) Close() error {
	if s.onEOS != nil {
		s.onEOS(s.totalRendered)
	}
	return nil
}

// HasEnoughData always reports false: a null sink has no real playback
// buffer to fill, so it never asks the render thread to pace itself and
// simply discards blocks as fast as they are produced. Output through it is
// not paced to wall-clock time.
func (s *Sink) HasEnoughData() bool { return false }

func (s *Sink) PushData(chunk block.Chunk) error {
	if len(chunk.Blocks) > 0 {
		s.totalRendered += block.FramesPerBlock
	}
	return nil
}

func (s *Sink) SetEOSCallback(fn func(allRenderedFrames uint64)) { s.onEOS = fn }
