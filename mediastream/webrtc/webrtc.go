// Package webrtc backs node.MediaStreamSource with live audio read off a
// WebRTC remote track (§11), grounded on client/transport.go's
// StartReceiving pattern: a background goroutine drains packets into a
// bounded buffer that the caller pops from non-blockingly, dropping
// oldest on overflow the way client/internal/jitter does. RTP/Opus
// plumbing (depacketization, sequence handling) is pion's; decoding uses
// the same hraban/opus codec as decode/opus.
package webrtc

import (
	"log/slog"
	"sync"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	hraban "gopkg.in/hraban/opus.v2"

	"github.com/bken-audio/graph/internal/block"
)

// trackSampleRate and trackChannels are the Opus parameters WebRTC audio
// tracks are negotiated at in practice (matches client/audio.go's mono
// 48kHz codec setup).
const (
	trackSampleRate  = 48000
	trackChannels    = 1
	opusFrameSamples = 960 // 20ms @ 48kHz
)

// Source reads Opus/RTP packets off a WebRTC remote track, decodes them,
// and resamples into the graph's blocks. It implements
// node.StreamDescriptor.
type Source struct {
	track           *webrtc.TrackRemote
	dec             *hraban.Decoder
	log             *slog.Logger
	graphSampleRate float32

	mu    sync.Mutex
	ring  []float32 // fixed-capacity circular storage, decoded samples at trackSampleRate
	head  int       // index of the oldest buffered sample
	count int       // number of valid samples currently buffered

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// ringCapacitySamples bounds buffered audio at ~200ms, matching the
// teacher's jitter buffer's low-latency-but-absorbs-bursts sizing.
const ringCapacitySamples = trackSampleRate / 5

// New returns a Source reading from track, resampling into blocks at
// graphSampleRate. Call Start to begin pumping packets.
func New(track *webrtc.TrackRemote, graphSampleRate float32, log *slog.Logger) (*Source, error) {
	if log == nil {
		log = slog.Default()
	}
	dec, err := hraban.NewDecoder(trackSampleRate, trackChannels)
	if err != nil {
		return nil, err
	}
	return &Source{
		track:           track,
		dec:             dec,
		log:             log,
		graphSampleRate: graphSampleRate,
		ring:            make([]float32, ringCapacitySamples),
		stopCh:          make(chan struct{}),
	}, nil
}

// push appends v to the ring, dropping the oldest buffered sample to make
// room when full (mirrors the jitter buffer's drop-oldest overflow
// policy). Caller must hold s.mu.
func (s *Source) push(v float32) {
	if s.count == len(s.ring) {
		s.head = (s.head + 1) % len(s.ring)
		s.count--
	}
	idx := (s.head + s.count) % len(s.ring)
	s.ring[idx] = v
	s.count++
}

// at returns the i-th buffered sample (0 == oldest). Caller must hold s.mu.
func (s *Source) at(i int) float32 {
	return s.ring[(s.head+i)%len(s.ring)]
}

// advance discards the n oldest buffered samples. Caller must hold s.mu.
func (s *Source) advance(n int) {
	s.head = (s.head + n) % len(s.ring)
	s.count -= n
}

// Start launches the background receive loop.
func (s *Source) Start() {
	s.wg.Add(1)
	go s.receiveLoop()
}

// Close stops the receive loop.
func (s *Source) Close() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *Source) receiveLoop() {
	defer s.wg.Done()
	pcm := make([]int16, opusFrameSamples*trackChannels)
	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		pkt, _, err := s.track.ReadRTP()
		if err != nil {
			return
		}
		s.handlePacket(pkt, pcm)
	}
}

func (s *Source) handlePacket(pkt *rtp.Packet, pcm []int16) {
	n, err := s.dec.Decode(pkt.Payload, pcm)
	if err != nil {
		s.log.Warn("webrtc: opus decode failed", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < n; i++ {
		s.push(float32(pcm[i]) / 32768.0)
	}
}

// NextBlock implements node.StreamDescriptor: it resamples buffered
// trackSampleRate audio down to graph-rate frames via linear
// interpolation and returns one full block, or false if not enough
// source audio has arrived yet.
func (s *Source) NextBlock() (block.Block, bool) {
	needed := int(float64(block.FramesPerBlock) * float64(trackSampleRate) / float64(s.graphSampleRate))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count < needed+1 {
		return block.Block{}, false
	}

	out := block.Silence(1)
	out.ExplicitSilence()
	samples := out.Samples()
	ratio := float64(trackSampleRate) / float64(s.graphSampleRate)
	for i := 0; i < block.FramesPerBlock; i++ {
		pos := float64(i) * ratio
		i0 := int(pos)
		if i0 >= s.count-1 {
			i0 = s.count - 2
		}
		frac := float32(pos - float64(i0))
		samples[i] = s.at(i0) + frac*(s.at(i0+1)-s.at(i0))
	}
	s.advance(needed)
	return out, true
}
