package node

import (
	"github.com/bken-audio/graph/internal/block"
	"github.com/bken-audio/graph/internal/param"
)

// StreamDescriptor is the opaque external source a MediaStreamSource reads
// blocks from (§4.3: "reads blocks from an external stream descriptor,
// opaque to the core"). Concrete implementations — e.g. a WebRTC track
// reader in mediastream/webrtc — live outside this package.
type StreamDescriptor interface {
	// NextBlock returns the next available block and true, or an unset
	// block and false if no full block is currently available.
	NextBlock() (block.Block, bool)
}

// MediaStreamSourceMessage carries no automatable params; the stream
// descriptor itself is supplied at construction.
type MediaStreamSourceMessage struct{}

func (MediaStreamSourceMessage) isNodeMessage() {}

// MediaStreamSource surfaces blocks pulled from an external stream,
// emitting silence whenever the source underflows (§4.3).
type MediaStreamSource struct {
	Base
	stream StreamDescriptor
}

func NewMediaStreamSource(stream StreamDescriptor) *MediaStreamSource {
	return &MediaStreamSource{Base: Base{NewCommon(DefaultChannelInfo())}, stream: stream}
}

func (s *MediaStreamSource) NodeType() Type { return TypeMediaStreamSource }

func (s *MediaStreamSource) GetParam(p ParamType) *param.Param {
	return unknownParam(TypeMediaStreamSource, p)
}

func (s *MediaStreamSource) HandleMessage(Message, float32) {}

func (s *MediaStreamSource) Process(inputs block.Chunk, info *block.Info) block.Chunk {
	if s.stream == nil {
		inputs.Blocks[0] = block.Silence(s.Info.Count)
		return inputs
	}
	b, ok := s.stream.NextBlock()
	if !ok {
		inputs.Blocks[0] = block.Silence(s.Info.Count)
		return inputs
	}
	inputs.Blocks[0] = b
	return inputs
}
