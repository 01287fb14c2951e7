package node

import (
	"github.com/golang/geo/r3"

	"github.com/bken-audio/graph/internal/block"
	"github.com/bken-audio/graph/internal/param"
)

// ListenerMessage carries a per-axis position or forward-orientation
// automation event, addressed the same way the original's ParamDir
// addressed panner/listener axes (§12.2): one ParamType per axis, reusing
// the Position{X,Y,Z}/Orientation{X,Y,Z} entries already in ParamType.
type ListenerMessage struct {
	SetPositionX, SetPositionY, SetPositionZ       *param.Event
	SetOrientationX, SetOrientationY, SetOrientationZ *param.Event
}

func (ListenerMessage) isNodeMessage() {}

// Listener holds the single listening point every Panner pans relative to:
// a position and a forward-facing orientation vector, up fixed at (0,1,0).
// It passes audio through unchanged (InputCount/OutputCount default to 1)
// since the graph has no notion of a node with zero ports; in practice it
// is left unconnected and Panner nodes hold a direct reference to it.
type Listener struct {
	Base
	posX, posY, posZ       *param.Param
	orientX, orientY, orientZ *param.Param
}

func NewListener() *Listener {
	return &Listener{
		Base:    Base{NewCommon(DefaultChannelInfo())},
		posX:    param.New(0),
		posY:    param.New(0),
		posZ:    param.New(0),
		orientX: param.New(0),
		orientY: param.New(0),
		orientZ: param.New(-1),
	}
}

func (l *Listener) NodeType() Type { return TypeListener }

func (l *Listener) GetParam(p ParamType) *param.Param {
	switch p {
	case ParamPositionX:
		return l.posX
	case ParamPositionY:
		return l.posY
	case ParamPositionZ:
		return l.posZ
	case ParamOrientationX:
		return l.orientX
	case ParamOrientationY:
		return l.orientY
	case ParamOrientationZ:
		return l.orientZ
	default:
		return unknownParam(TypeListener, p)
	}
}

func (l *Listener) HandleMessage(msg Message, sampleRate float32) {
	m, ok := msg.(ListenerMessage)
	if !ok {
		return
	}
	if m.SetPositionX != nil {
		l.posX.InsertEvent(*m.SetPositionX)
	}
	if m.SetPositionY != nil {
		l.posY.InsertEvent(*m.SetPositionY)
	}
	if m.SetPositionZ != nil {
		l.posZ.InsertEvent(*m.SetPositionZ)
	}
	if m.SetOrientationX != nil {
		l.orientX.InsertEvent(*m.SetOrientationX)
	}
	if m.SetOrientationY != nil {
		l.orientY.InsertEvent(*m.SetOrientationY)
	}
	if m.SetOrientationZ != nil {
		l.orientZ.InsertEvent(*m.SetOrientationZ)
	}
}

// Position returns the listener's current location.
func (l *Listener) Position() r3.Vector {
	return r3.Vector{X: float64(l.posX.Value()), Y: float64(l.posY.Value()), Z: float64(l.posZ.Value())}
}

// Forward returns the listener's current forward-facing unit vector.
func (l *Listener) Forward() r3.Vector {
	v := r3.Vector{X: float64(l.orientX.Value()), Y: float64(l.orientY.Value()), Z: float64(l.orientZ.Value())}
	if v.Norm() == 0 {
		return r3.Vector{X: 0, Y: 0, Z: -1}
	}
	return v.Normalize()
}

// Up is fixed at (0,1,0); the spec exposes no listener up-vector param.
func (l *Listener) Up() r3.Vector { return r3.Vector{X: 0, Y: 1, Z: 0} }

// updateParams advances every position/orientation param to the current
// block. Idempotent within a block: Param.Update only advances state past
// tNow once, so calling this more than once for the same frame (e.g. once
// from the graph's own topological walk and again from a Panner that
// reads this Listener directly) is safe. Panner.Process calls this itself
// before reading position/orientation, since the graph's topological
// order gives no guarantee a Listener node — reached only via a direct
// pointer, not a graph edge — is processed before the Panners that
// reference it.
func (l *Listener) updateParams(sampleRate float32, frame uint64) {
	l.posX.Update(sampleRate, frame)
	l.posY.Update(sampleRate, frame)
	l.posZ.Update(sampleRate, frame)
	l.orientX.Update(sampleRate, frame)
	l.orientY.Update(sampleRate, frame)
	l.orientZ.Update(sampleRate, frame)
}

// Process advances the listener's position/orientation automation once per
// block — there is no per-sample audio signal to iterate over here, unlike
// a Panner's input.
func (l *Listener) Process(inputs block.Chunk, info *block.Info) block.Chunk {
	l.updateParams(info.SampleRate, uint64(info.Frame))
	return inputs
}
