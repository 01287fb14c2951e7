package node

import (
	"github.com/bken-audio/graph/internal/block"
	"github.com/bken-audio/graph/internal/param"
)

type ConstantSourceMessage struct{ Offset param.Event }

func (ConstantSourceMessage) isNodeMessage() {}

// ConstantSource writes offset.value() to every sample of its single output
// (§4.3). Explicit silence is materialized before writing, since a constant
// non-zero offset can never itself be silent.
type ConstantSource struct {
	Base
	offset *param.Param
}

func NewConstantSource(initialOffset float32) *ConstantSource {
	return &ConstantSource{Base: Base{NewCommon(DefaultChannelInfo())}, offset: param.New(initialOffset)}
}

func (c *ConstantSource) NodeType() Type { return TypeConstantSource }

func (c *ConstantSource) GetParam(p ParamType) *param.Param {
	if p == ParamOffset {
		return c.offset
	}
	return unknownParam(TypeConstantSource, p)
}

func (c *ConstantSource) HandleMessage(msg Message, sampleRate float32) {
	if m, ok := msg.(ConstantSourceMessage); ok {
		c.offset.InsertEvent(m.Offset)
	}
}

func (c *ConstantSource) Process(inputs block.Chunk, info *block.Info) block.Chunk {
	out := &inputs.Blocks[0]
	out.ExplicitSilence()
	channels := out.Channels()
	offset := c.offset.Value()
	out.Iter(func(f block.Frame) {
		if c.offset.Update(info.SampleRate, uint64(info.Frame)+uint64(f.Tick())) {
			offset = c.offset.Value()
		}
		for ch := 0; ch < channels; ch++ {
			f.Set(ch, offset)
		}
	})
	return inputs
}
