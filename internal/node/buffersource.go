package node

import (
	"math"

	"github.com/bken-audio/graph/internal/block"
	"github.com/bken-audio/graph/internal/param"
)

type BufferSourceMessage struct {
	SetBuffer       [][]float32 // channel-planar PCM, one slice per channel
	SetLoop         *bool
	SetLoopPoints   *[2]float64 // start, end in seconds
	SetPlaybackRate *param.Event
	SetDetune       *param.Event
	Start           *float64
	Stop            *float64
}

func (BufferSourceMessage) isNodeMessage() {}

// BufferSource plays a PCM buffer between start and stop time with
// playback-rate/detune controlled sub-sample linear interpolation, looping
// between loopStart/loopEnd when enabled (§4.3). It fires OnEnded once when
// playback reaches the end of a non-looping buffer.
type BufferSource struct {
	Base
	buffer        [][]float32 // per-channel samples
	loop          bool
	loopStartSec  float64
	loopEndSec    float64
	playbackRate  *param.Param
	detune        *param.Param
	position      float64 // fractional frame position into buffer
	finished      bool
	scheduledSource
}

func NewBufferSource() *BufferSource {
	return &BufferSource{
		Base:         Base{NewCommon(DefaultChannelInfo())},
		playbackRate: param.New(1.0),
		detune:       param.New(0),
	}
}

func (s *BufferSource) NodeType() Type { return TypeBufferSource }

func (s *BufferSource) GetParam(p ParamType) *param.Param {
	switch p {
	case ParamPlaybackRate:
		return s.playbackRate
	case ParamDetune:
		return s.detune
	default:
		return unknownParam(TypeBufferSource, p)
	}
}

func (s *BufferSource) HandleMessage(msg Message, sampleRate float32) {
	m, ok := msg.(BufferSourceMessage)
	if !ok {
		return
	}
	if m.SetBuffer != nil {
		s.buffer = m.SetBuffer
		s.position = 0
		s.finished = false
		if len(m.SetBuffer) > 0 {
			s.Info.Count = len(m.SetBuffer)
			s.loopEndSec = float64(len(m.SetBuffer[0])) / float64(sampleRate)
		}
	}
	if m.SetLoop != nil {
		s.loop = *m.SetLoop
	}
	if m.SetLoopPoints != nil {
		s.loopStartSec, s.loopEndSec = m.SetLoopPoints[0], m.SetLoopPoints[1]
	}
	if m.SetPlaybackRate != nil {
		s.playbackRate.InsertEvent(*m.SetPlaybackRate)
	}
	if m.SetDetune != nil {
		s.detune.InsertEvent(*m.SetDetune)
	}
	if m.Start != nil {
		s.scheduledSource.Start(*m.Start, sampleRate)
	}
	if m.Stop != nil {
		s.scheduledSource.Stop(*m.Stop, sampleRate)
	}
}

func (s *BufferSource) frameCount() int {
	if len(s.buffer) == 0 {
		return 0
	}
	return len(s.buffer[0])
}

// sampleAt returns linearly-interpolated sample ch at fractional position
// pos, both within [0, frameCount).
func (s *BufferSource) sampleAt(ch int, pos float64) float32 {
	n := s.frameCount()
	i0 := int(pos)
	if i0 >= n-1 {
		return s.buffer[ch][n-1]
	}
	frac := float32(pos - float64(i0))
	a, b := s.buffer[ch][i0], s.buffer[ch][i0+1]
	return a + frac*(b-a)
}

func (s *BufferSource) Process(inputs block.Chunk, info *block.Info) block.Chunk {
	channels := len(s.buffer)
	if channels == 0 || s.finished {
		inputs.Blocks[0] = block.Silence(s.Info.Count)
		return inputs
	}

	out := block.Silence(channels)
	sr := float64(info.SampleRate)
	loopStartFrame := s.loopStartSec * sr
	loopEndFrame := s.loopEndSec * sr
	if loopEndFrame <= loopStartFrame {
		loopEndFrame = float64(s.frameCount())
	}

	active := false
	for i := 0; i < block.FramesPerBlock; i++ {
		frame := info.Frame + block.Tick(i)
		if !s.scheduledSource.active(frame) {
			continue
		}
		if s.position >= float64(s.frameCount()) {
			if s.loop {
				s.position = loopStartFrame
			} else {
				s.finished = true
				if !s.ended {
					s.ended = true
					if s.onEnded != nil {
						s.onEnded()
					}
				}
				break
			}
		}
		if !active {
			out.ExplicitSilence()
			active = true
		}
		s.playbackRate.Update(info.SampleRate, uint64(frame))
		s.detune.Update(info.SampleRate, uint64(frame))
		for ch := 0; ch < channels; ch++ {
			out.Samples()[ch*block.FramesPerBlock+i] = s.sampleAt(ch, s.position)
		}

		rate := float64(s.playbackRate.Value()) * math.Pow(2, float64(s.detune.Value())/1200)
		s.position += rate

		if s.loop && s.position >= loopEndFrame {
			s.position = loopStartFrame + (s.position - loopEndFrame)
		}
	}

	inputs.Blocks[0] = out
	return inputs
}
