// Package node implements the polymorphic set of audio-processing engines
// (§4.3): oscillator, gain, biquad filter, constant source, buffer source,
// channel merger/splitter, panner + listener, analyser, destination, and
// media-stream source. Each is a concrete struct behind the Engine
// interface — a closed tagged union rather than a deep inheritance
// hierarchy (§9), with shared per-node bookkeeping (channel info)
// embedded by value via Common.
package node

import (
	"fmt"

	"github.com/bken-audio/graph/internal/block"
	"github.com/bken-audio/graph/internal/param"
)

// Type tags the concrete kind of a node engine.
type Type int

const (
	TypeOscillator Type = iota
	TypeGain
	TypeBiquadFilter
	TypeConstantSource
	TypeBufferSource
	TypeChannelMerger
	TypeChannelSplitter
	TypePanner
	TypeListener
	TypeAnalyser
	TypeDestination
	TypeMediaStreamSource
)

func (t Type) String() string {
	switch t {
	case TypeOscillator:
		return "Oscillator"
	case TypeGain:
		return "Gain"
	case TypeBiquadFilter:
		return "BiquadFilter"
	case TypeConstantSource:
		return "ConstantSource"
	case TypeBufferSource:
		return "BufferSource"
	case TypeChannelMerger:
		return "ChannelMerger"
	case TypeChannelSplitter:
		return "ChannelSplitter"
	case TypePanner:
		return "Panner"
	case TypeListener:
		return "Listener"
	case TypeAnalyser:
		return "Analyser"
	case TypeDestination:
		return "Destination"
	case TypeMediaStreamSource:
		return "MediaStreamSource"
	default:
		return "Unknown"
	}
}

// ParamType identifies an automatable parameter port (§3).
type ParamType int

const (
	ParamFrequency ParamType = iota
	ParamDetune
	ParamGain
	ParamOffset
	ParamQ
	ParamPlaybackRate
	ParamPositionX
	ParamPositionY
	ParamPositionZ
	ParamOrientationX
	ParamOrientationY
	ParamOrientationZ
)

func (t ParamType) String() string {
	names := [...]string{
		"Frequency", "Detune", "Gain", "Offset", "Q", "PlaybackRate",
		"PositionX", "PositionY", "PositionZ",
		"OrientationX", "OrientationY", "OrientationZ",
	}
	if int(t) < len(names) {
		return names[t]
	}
	return "Unknown"
}

// ChannelCountMode controls how a node's per-input channel reconciliation
// target is computed (§4.4 step 3).
type ChannelCountMode int

const (
	Max ChannelCountMode = iota
	ClampedMax
	Explicit
)

// ChannelInfo is the per-node channel configuration (§3).
type ChannelInfo struct {
	Count          int
	Mode           ChannelCountMode
	Interpretation block.Interpretation
}

// DefaultChannelInfo returns the common two-channel, Max-mode, Speakers
// default most nodes start with.
func DefaultChannelInfo() ChannelInfo {
	return ChannelInfo{Count: 2, Mode: Max, Interpretation: block.Speakers}
}

// ErrChannelCountImmutable is returned by SetChannelCount et al. on nodes
// (destinations) that reject channel configuration changes (§4.3).
type ErrChannelCountImmutable struct{ NodeType Type }

func (e *ErrChannelCountImmutable) Error() string {
	return fmt.Sprintf("%s: channel configuration is fixed and cannot be changed", e.NodeType)
}

// Common is the shared mixin embedded by value in every concrete engine
// (§9): the node's channel configuration. It is not itself an Engine.
type Common struct {
	Info ChannelInfo
}

func NewCommon(info ChannelInfo) Common { return Common{Info: info} }

func (c *Common) ChannelInfo() ChannelInfo { return c.Info }

func (c *Common) SetChannelCount(n int) error {
	if n < 1 || n > block.MaxChannels {
		return fmt.Errorf("channel count %d out of range [1,%d]", n, block.MaxChannels)
	}
	c.Info.Count = n
	return nil
}

func (c *Common) SetChannelCountMode(m ChannelCountMode) error {
	c.Info.Mode = m
	return nil
}

func (c *Common) SetChannelInterpretation(i block.Interpretation) error {
	c.Info.Interpretation = i
	return nil
}

func (c *Common) InputCount() int  { return 1 }
func (c *Common) OutputCount() int { return 1 }

// unknownParam panics per §4.3/§7: "get_param... panics (programmer error)
// on unknown param for that node type" — a ProgrammerError, not a
// recoverable condition.
func unknownParam(nodeType Type, p ParamType) *param.Param {
	panic(fmt.Sprintf("%s: unknown param %s", nodeType, p))
}

// Message is the envelope for node-specific control messages dispatched by
// the render thread (§4.5's MessageNode). Concrete payload types are
// defined alongside each engine (e.g. GainMessage, OscillatorMessage).
type Message interface{ isNodeMessage() }

// Engine is the polymorphic per-node contract every concrete processor
// implements (§4.3).
type Engine interface {
	NodeType() Type
	InputCount() int
	OutputCount() int
	ChannelInfo() ChannelInfo
	SetChannelCount(int) error
	SetChannelCountMode(ChannelCountMode) error
	SetChannelInterpretation(block.Interpretation) error
	GetParam(ParamType) *param.Param
	Process(inputs block.Chunk, info *block.Info) block.Chunk
	DestinationData() (block.Chunk, bool)
	HandleMessage(msg Message, sampleRate float32)
}

// Base implements the parts of Engine that are identical for every node
// that is not the destination: no captured data, panic on unhandled
// messages left unimplemented by the embedder is deliberately NOT provided
// here, since every concrete engine defines HandleMessage for its own
// message set.
type Base struct{ Common }

func (b *Base) DestinationData() (block.Chunk, bool) { return block.Chunk{}, false }
