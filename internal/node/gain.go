package node

import (
	"github.com/bken-audio/graph/internal/block"
	"github.com/bken-audio/graph/internal/param"
)

// GainMessage carries a SetParam mutation for the Gain node's single
// automatable input.
type GainMessage struct{ Gain param.Event }

func (GainMessage) isNodeMessage() {}

// Gain multiplies every input sample by its gain param (§4.3): output =
// input * gain.value(). Silence passes through untouched, and a block whose
// gain is 0 on every frame is returned flagged silent.
type Gain struct {
	Base
	gain *param.Param
}

// NewGain returns a Gain node with the given initial gain and Max channel
// mode (the §4.3 default for this node).
func NewGain(initialGain float32) *Gain {
	info := DefaultChannelInfo()
	info.Mode = Max
	return &Gain{Base: Base{NewCommon(info)}, gain: param.New(initialGain)}
}

func (g *Gain) NodeType() Type { return TypeGain }

func (g *Gain) GetParam(p ParamType) *param.Param {
	if p == ParamGain {
		return g.gain
	}
	return unknownParam(TypeGain, p)
}

func (g *Gain) HandleMessage(msg Message, sampleRate float32) {
	if m, ok := msg.(GainMessage); ok {
		g.gain.InsertEvent(m.Gain)
	}
}

func (g *Gain) Process(inputs block.Chunk, info *block.Info) block.Chunk {
	in := &inputs.Blocks[0]
	if in.IsSilence() {
		return inputs
	}
	channels := in.Channels()
	gain := g.gain.Value()
	allZero := true
	in.Iter(func(f block.Frame) {
		if g.gain.Update(info.SampleRate, uint64(info.Frame)+uint64(f.Tick())) {
			gain = g.gain.Value()
		}
		if gain != 0 {
			allZero = false
		}
		for ch := 0; ch < channels; ch++ {
			f.Set(ch, f.At(ch)*gain)
		}
	})
	if allZero {
		inputs.Blocks[0] = block.Silence(channels)
	}
	return inputs
}
