package render

import "github.com/bken-audio/graph/internal/block"

// SinkError is returned by Sink operations (§6, §7): Backend wraps a
// backend-specific failure, BufferPushFailed signals push_data was
// rejected, StateChangeFailed signals init/play/stop refused.
type SinkError struct {
	Kind    SinkErrorKind
	Message string
}

type SinkErrorKind int

const (
	SinkBackend SinkErrorKind = iota
	SinkBufferPushFailed
	SinkStateChangeFailed
)

func (e *SinkError) Error() string { return e.Message }

// Sink is the narrow external-collaborator contract the render thread
// drives (§1, §6): a platform audio pipeline that consumes rendered
// blocks. The render thread calls every method here except SetEOSCallback;
// concrete backends (sink/portaudio, a test double, sink/null) live outside
// this package.
type Sink interface {
	Init(sampleRate float32, channels int) error
	Play() error
	// Stop pauses playback for the Running->Paused transition. It must
	// leave the sink resumable by a later Play and must not fire the EOS
	// callback — that only happens on Close.
	Stop() error
	// Close permanently tears the sink down for the terminal ->Closed
	// transition and fires the EOS callback, once.
	Close() error
	// HasEnoughData reports whether the sink currently holds enough
	// buffered audio that the render thread should not push more yet.
	HasEnoughData() bool
	PushData(chunk block.Chunk) error
	// SetEOSCallback registers fn to be called, once, when the render
	// thread closes, with the total number of frames ever rendered.
	SetEOSCallback(fn func(allRenderedFrames uint64))
}

// Decoder is the narrow external-collaborator contract for turning
// compressed bytes into PCM (§6): invoked once to fill a buffer source.
// Concrete decoders (decode/opus, decode/null) live outside this package.
type Decoder interface {
	// Decode asynchronously yields per-channel PCM chunks on samples and
	// a single terminal value on done (nil for a clean end-of-stream, a
	// non-nil error otherwise).
	Decode(data []byte) (samples <-chan [][]float32, done <-chan error)
}
