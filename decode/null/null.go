// Package null implements the dummy decoder (§12.4, grounded on
// servo-media's audio/src/sink.rs DummyAudioSink counterpart for decode):
// a Decoder that yields no samples and immediately signals a clean
// end-of-stream. Suited to callers where a BufferSource's compressed
// input path is not exercised.
package null

// Decoder yields no samples and completes immediately.
type Decoder struct{}

// New returns a ready-to-use null decoder.
func New() *Decoder { return &Decoder{} }

// Decode ignores data and reports a clean end-of-stream with no samples.
func (d *Decoder) Decode(data []byte) (<-chan [][]float32, <-chan error) {
	samples := make(chan [][]float32)
	done := make(chan error, 1)
	close(samples)
	done <- nil
	return samples, done
}
