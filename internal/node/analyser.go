package node

import (
	"github.com/bken-audio/graph/internal/block"
	"github.com/bken-audio/graph/internal/param"
)

// AnalyserMessage carries no automatable params; it exists only so the
// render thread can dispatch through the same HandleMessage contract as
// every other node.
type AnalyserMessage struct{}

func (AnalyserMessage) isNodeMessage() {}

// Analyser passes its input through unchanged while mono-downmixing a copy
// onto a bounded channel for an external consumer (§4.3). A slow consumer
// never blocks process: a full channel has its oldest pending block
// dropped to make room, per §13's drop-oldest decision.
type Analyser struct {
	Base
	tap chan []float32
}

// NewAnalyser returns an Analyser whose tap channel buffers up to
// capacity mono blocks before dropping the oldest pending one.
func NewAnalyser(capacity int) *Analyser {
	if capacity < 1 {
		capacity = 1
	}
	return &Analyser{Base: Base{NewCommon(DefaultChannelInfo())}, tap: make(chan []float32, capacity)}
}

func (a *Analyser) NodeType() Type { return TypeAnalyser }

func (a *Analyser) GetParam(p ParamType) *param.Param { return unknownParam(TypeAnalyser, p) }

func (a *Analyser) HandleMessage(Message, float32) {}

// Tap returns the channel external consumers read mono blocks from.
func (a *Analyser) Tap() <-chan []float32 { return a.tap }

func (a *Analyser) Process(inputs block.Chunk, info *block.Info) block.Chunk {
	in := &inputs.Blocks[0]
	if !in.IsSilence() {
		mono := make([]float32, block.FramesPerBlock)
		channels := in.Channels()
		for i := 0; i < block.FramesPerBlock; i++ {
			var sum float32
			for c := 0; c < channels; c++ {
				sum += in.Samples()[c*block.FramesPerBlock+i]
			}
			mono[i] = sum / float32(channels)
		}
		select {
		case a.tap <- mono:
		default:
			select {
			case <-a.tap:
			default:
			}
			select {
			case a.tap <- mono:
			default:
			}
		}
	}
	return inputs
}
