package node

import (
	"github.com/bken-audio/graph/internal/block"
	"github.com/bken-audio/graph/internal/param"
)

// DestinationMessage carries no automatable params.
type DestinationMessage struct{}

func (DestinationMessage) isNodeMessage() {}

// Destination captures the most recently processed input chunk for the
// render thread's block cadence loop to push to the sink (§4.3). It has
// one input, no output, and a fixed Explicit channel mode that resists
// mutation (§12.5: servo-media's ChannelInfo::default() forces Explicit
// for the destination), defaulting to stereo.
type Destination struct {
	Common
	captured block.Chunk
}

func NewDestination(channels int) *Destination {
	if channels < 1 {
		channels = 2
	}
	info := ChannelInfo{Count: channels, Mode: Explicit, Interpretation: block.Speakers}
	return &Destination{Common: NewCommon(info)}
}

func (d *Destination) NodeType() Type   { return TypeDestination }
func (d *Destination) InputCount() int  { return 1 }
func (d *Destination) OutputCount() int { return 0 }

func (d *Destination) SetChannelCount(int) error {
	return &ErrChannelCountImmutable{NodeType: TypeDestination}
}

func (d *Destination) SetChannelCountMode(ChannelCountMode) error {
	return &ErrChannelCountImmutable{NodeType: TypeDestination}
}

func (d *Destination) SetChannelInterpretation(block.Interpretation) error {
	return &ErrChannelCountImmutable{NodeType: TypeDestination}
}

func (d *Destination) GetParam(p ParamType) *param.Param { return unknownParam(TypeDestination, p) }

func (d *Destination) HandleMessage(Message, float32) {}

func (d *Destination) Process(inputs block.Chunk, info *block.Info) block.Chunk {
	d.captured = inputs
	return block.Chunk{}
}

func (d *Destination) DestinationData() (block.Chunk, bool) {
	if d.captured.Len() == 0 {
		return block.Chunk{}, false
	}
	return d.captured, true
}
