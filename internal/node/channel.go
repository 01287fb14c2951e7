package node

import (
	"github.com/bken-audio/graph/internal/block"
	"github.com/bken-audio/graph/internal/param"
)

// ChannelMerger takes K mono (or multi-channel, using only channel 0 of
// each) inputs and produces one K-channel output, input i becoming output
// channel i (§4.3). Its channel-count mode is forced to Explicit.
type ChannelMerger struct {
	Base
	inputs int
}

func NewChannelMerger(k int) *ChannelMerger {
	info := ChannelInfo{Count: k, Mode: Explicit, Interpretation: block.Speakers}
	return &ChannelMerger{Base: Base{NewCommon(info)}, inputs: k}
}

func (m *ChannelMerger) NodeType() Type   { return TypeChannelMerger }
func (m *ChannelMerger) InputCount() int  { return m.inputs }
func (m *ChannelMerger) OutputCount() int { return 1 }

func (m *ChannelMerger) GetParam(p ParamType) *param.Param { return unknownParam(TypeChannelMerger, p) }
func (m *ChannelMerger) HandleMessage(Message, float32)    {}

func (m *ChannelMerger) Process(inputs block.Chunk, info *block.Info) block.Chunk {
	out := block.Silence(m.inputs)
	any := false
	for i := 0; i < m.inputs && i < inputs.Len(); i++ {
		in := &inputs.Blocks[i]
		if in.IsSilence() {
			continue
		}
		if !any {
			out.ExplicitSilence()
			any = true
		}
		copy(out.Samples()[i*block.FramesPerBlock:(i+1)*block.FramesPerBlock], in.Samples()[0:block.FramesPerBlock])
	}
	return block.Chunk{Blocks: []block.Block{out}}
}

// ChannelSplitter takes one input and produces K mono outputs, output i
// taking channel i of the input (§4.3).
type ChannelSplitter struct {
	Base
	outputs int
}

func NewChannelSplitter(k int) *ChannelSplitter {
	info := ChannelInfo{Count: k, Mode: Explicit, Interpretation: block.Discrete}
	return &ChannelSplitter{Base: Base{NewCommon(info)}, outputs: k}
}

func (s *ChannelSplitter) NodeType() Type   { return TypeChannelSplitter }
func (s *ChannelSplitter) InputCount() int  { return 1 }
func (s *ChannelSplitter) OutputCount() int { return s.outputs }

func (s *ChannelSplitter) GetParam(p ParamType) *param.Param {
	return unknownParam(TypeChannelSplitter, p)
}
func (s *ChannelSplitter) HandleMessage(Message, float32) {}

func (s *ChannelSplitter) Process(inputs block.Chunk, info *block.Info) block.Chunk {
	in := &inputs.Blocks[0]
	out := make([]block.Block, s.outputs)
	for i := 0; i < s.outputs; i++ {
		if in.IsSilence() || i >= in.Channels() {
			out[i] = block.Silence(1)
			continue
		}
		b := block.Silence(1)
		b.ExplicitSilence()
		copy(b.Samples(), in.Samples()[i*block.FramesPerBlock:(i+1)*block.FramesPerBlock])
		out[i] = b
	}
	return block.Chunk{Blocks: out}
}
