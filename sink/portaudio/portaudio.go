// Package portaudio implements the render.Sink contract over PortAudio
// output, grounded on client/audio.go's capture/playback stream lifecycle
// (Start/Stop/Close sequencing, the paStream abstraction kept for
// testability, and the wg-before-Close shutdown ordering that avoids
// touching a freed native stream from a still-running goroutine).
package portaudio

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	pa "github.com/gordonklaus/portaudio"

	"github.com/bken-audio/graph/internal/block"
	"github.com/bken-audio/graph/internal/render"
)

// paStream abstracts a PortAudio output stream for testing, mirroring
// client/audio.go's paStream interface.
type paStream interface {
	Start() error
	Stop() error
	Close() error
	Write() error
}

// queueDepth is the number of rendered blocks buffered ahead of playback.
// §6's FRAMES_PER_BLOCK=128 at 44100Hz is ~2.9ms/block; 4 blocks gives
// ~11.6ms of cushion against scheduling jitter without adding noticeable
// latency.
const queueDepth = 4

// highWatermark is the queued-block count at which HasEnoughData reports
// true, pausing the render thread's push cadence.
const highWatermark = queueDepth - 1

// Sink plays rendered blocks through a PortAudio output stream.
type Sink struct {
	deviceID int

	mu         sync.Mutex
	stream     paStream
	sampleRate float32
	channels   int

	queue    chan block.Chunk
	writeBuf []float32
	stopCh   chan struct{}
	wg       sync.WaitGroup

	totalRendered atomic.Uint64
	onEOS         func(uint64)

	log *slog.Logger
}

// New returns a Sink that opens its output stream on deviceID (-1 for the
// PortAudio default output device).
func New(deviceID int, log *slog.Logger) *Sink {
	if log == nil {
		log = slog.Default()
	}
	return &Sink{deviceID: deviceID, log: log}
}

var _ render.Sink = (*Sink)(nil)

func (s *Sink) Init(sampleRate float32, channels int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := pa.Initialize(); err != nil {
		return &render.SinkError{Kind: render.SinkBackend, Message: fmt.Sprintf("portaudio: initialize: %v", err)}
	}

	devices, err := pa.Devices()
	if err != nil {
		return &render.SinkError{Kind: render.SinkBackend, Message: fmt.Sprintf("portaudio: list devices: %v", err)}
	}
	dev, err := resolveDevice(devices, s.deviceID)
	if err != nil {
		return &render.SinkError{Kind: render.SinkBackend, Message: err.Error()}
	}

	s.writeBuf = make([]float32, channels*block.FramesPerBlock)
	params := pa.StreamParameters{
		Output: pa.StreamDeviceParameters{
			Device:   dev,
			Channels: channels,
			Latency:  dev.DefaultLowOutputLatency,
		},
		SampleRate:      float64(sampleRate),
		FramesPerBuffer: block.FramesPerBlock,
	}
	stream, err := pa.OpenStream(params, s.writeBuf)
	if err != nil {
		return &render.SinkError{Kind: render.SinkBackend, Message: fmt.Sprintf("portaudio: open stream: %v", err)}
	}

	s.stream = stream
	s.sampleRate = sampleRate
	s.channels = channels
	s.queue = make(chan block.Chunk, queueDepth)
	return nil
}

func resolveDevice(devices []*pa.DeviceInfo, idx int) (*pa.DeviceInfo, error) {
	if idx >= 0 && idx < len(devices) {
		return devices[idx], nil
	}
	return pa.DefaultOutputDevice()
}

// Play starts (or resumes) playback. Each call opens a fresh stopCh and
// write goroutine, since a prior Stop closed the previous one.
func (s *Sink) Play() error {
	s.mu.Lock()
	stream := s.stream
	s.mu.Unlock()
	if stream == nil {
		return &render.SinkError{Kind: render.SinkStateChangeFailed, Message: "portaudio: play before init"}
	}
	if err := stream.Start(); err != nil {
		return &render.SinkError{Kind: render.SinkStateChangeFailed, Message: fmt.Sprintf("portaudio: start: %v", err)}
	}

	s.mu.Lock()
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	s.wg.Add(1)
	go s.writeLoop(stopCh)
	return nil
}

// Stop pauses playback for a Running->Paused transition: it halts the
// stream so a blocked Write call returns and the write goroutine can
// exit, then waits for it, but keeps the native stream open so a later
// Play can resume without reopening the device. It never fires the EOS
// callback — only Close does, per render.Sink's contract.
func (s *Sink) Stop() error {
	s.mu.Lock()
	stream := s.stream
	stopCh := s.stopCh
	s.mu.Unlock()
	if stream == nil {
		return nil
	}

	close(stopCh)
	if err := stream.Stop(); err != nil {
		s.log.Error("portaudio: stop stream failed", "error", err)
	}
	s.wg.Wait()
	return nil
}

// Close permanently tears the sink down for the terminal ->Closed
// transition (per client/audio.go's Stop: halt before Close so no
// goroutine touches the native stream after it is freed), then fires the
// EOS callback once with the total frames ever rendered. Safe to call
// whether or not Stop already ran for this session.
func (s *Sink) Close() error {
	s.mu.Lock()
	stream := s.stream
	stopCh := s.stopCh
	s.mu.Unlock()
	if stream == nil {
		return nil
	}

	select {
	case <-stopCh:
		// Already halted by a prior Stop (e.g. closing from Paused).
	default:
		close(stopCh)
		if err := stream.Stop(); err != nil {
			s.log.Error("portaudio: stop stream failed", "error", err)
		}
		s.wg.Wait()
	}

	// Only clear s.stream once writeLoop has fully exited (wg.Wait above):
	// writeLoop reads s.stream without taking s.mu, so nilling it earlier
	// races with a write still in flight.
	s.mu.Lock()
	s.stream = nil
	s.mu.Unlock()

	if err := stream.Close(); err != nil {
		return &render.SinkError{Kind: render.SinkStateChangeFailed, Message: fmt.Sprintf("portaudio: close: %v", err)}
	}

	if s.onEOS != nil {
		s.onEOS(s.totalRendered.Load())
	}
	return nil
}

func (s *Sink) HasEnoughData() bool {
	return len(s.queue) >= highWatermark
}

func (s *Sink) PushData(chunk block.Chunk) error {
	select {
	case s.queue <- chunk:
		return nil
	default:
		return &render.SinkError{Kind: render.SinkBufferPushFailed, Message: "portaudio: output queue full"}
	}
}

func (s *Sink) SetEOSCallback(fn func(allRenderedFrames uint64)) { s.onEOS = fn }

// writeLoop drains queued chunks into the PortAudio write buffer,
// de-planarizing channel-major Block storage into the frame-major
// interleaving PortAudio expects. stopCh is the channel created by the
// Play call that spawned this goroutine, not necessarily s.stopCh at the
// time writeLoop reads it (a later Stop/Play cycle may have replaced it).
func (s *Sink) writeLoop(stopCh chan struct{}) {
	defer s.wg.Done()
	for {
		select {
		case <-stopCh:
			return
		case chunk := <-s.queue:
			s.deinterleave(chunk)
			if err := s.stream.Write(); err != nil {
				select {
				case <-stopCh:
				default:
					s.log.Error("portaudio: write failed", "error", err)
				}
				return
			}
			s.totalRendered.Add(block.FramesPerBlock)
		}
	}
}

func (s *Sink) deinterleave(chunk block.Chunk) {
	if len(chunk.Blocks) == 0 {
		for i := range s.writeBuf {
			s.writeBuf[i] = 0
		}
		return
	}
	b := &chunk.Blocks[0]
	if b.IsSilence() {
		for i := range s.writeBuf {
			s.writeBuf[i] = 0
		}
		return
	}
	samples := b.Samples()
	for i := 0; i < block.FramesPerBlock; i++ {
		for c := 0; c < s.channels; c++ {
			s.writeBuf[i*s.channels+c] = samples[c*block.FramesPerBlock+i]
		}
	}
}
