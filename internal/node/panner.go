package node

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/bken-audio/graph/internal/block"
	"github.com/bken-audio/graph/internal/param"
)

// PanningModel selects how Panner turns source/listener geometry into a
// stereo gain pair (§4.3).
type PanningModel int

const (
	EqualPower PanningModel = iota
	HRTF
)

// PannerMessage carries per-axis position/orientation automation, cone
// angle/gain and distance-model updates, or a model switch. The panner has
// no velocity input.
type PannerMessage struct {
	SetPositionX, SetPositionY, SetPositionZ    *param.Event
	SetOrientationX, SetOrientationY, SetOrientationZ *param.Event
	SetModel                                    *PanningModel
	SetConeInnerAngle, SetConeOuterAngle         *float64 // degrees
	SetConeOuterGain                             *float32
	SetRefDistance, SetMaxDistance, SetRolloffFactor *float64
}

func (PannerMessage) isNodeMessage() {}

// Panner spatializes a mono or stereo input into stereo output relative to
// a Listener, via equal-power gain or HRTF convolution (§4.3). It holds a
// direct reference to its Listener rather than routing through graph
// ports, since the listener is process-global state rather than a signal
// the panner receives as audio.
type Panner struct {
	Base
	listener *Listener

	posX, posY, posZ       *param.Param
	orientX, orientY, orientZ *param.Param

	model PanningModel

	coneInnerAngle float64
	coneOuterAngle float64
	coneOuterGain  float32

	refDistance   float64
	maxDistance   float64
	rolloffFactor float64

	hrtf *hrtfEngine
}

func NewPanner(listener *Listener) *Panner {
	info := DefaultChannelInfo()
	info.Count = 2
	info.Mode = ClampedMax
	return &Panner{
		Base:           Base{NewCommon(info)},
		listener:       listener,
		posX:           param.New(0),
		posY:           param.New(0),
		posZ:           param.New(0),
		orientX:        param.New(1),
		orientY:        param.New(0),
		orientZ:        param.New(0),
		model:          EqualPower,
		coneInnerAngle: 360,
		coneOuterAngle: 360,
		coneOuterGain:  0,
		refDistance:    1,
		maxDistance:    10000,
		rolloffFactor:  1,
		hrtf:           newHRTFEngine(),
	}
}

func (p *Panner) NodeType() Type { return TypePanner }

func (p *Panner) GetParam(pt ParamType) *param.Param {
	switch pt {
	case ParamPositionX:
		return p.posX
	case ParamPositionY:
		return p.posY
	case ParamPositionZ:
		return p.posZ
	case ParamOrientationX:
		return p.orientX
	case ParamOrientationY:
		return p.orientY
	case ParamOrientationZ:
		return p.orientZ
	default:
		return unknownParam(TypePanner, pt)
	}
}

func (p *Panner) HandleMessage(msg Message, sampleRate float32) {
	m, ok := msg.(PannerMessage)
	if !ok {
		return
	}
	if m.SetPositionX != nil {
		p.posX.InsertEvent(*m.SetPositionX)
	}
	if m.SetPositionY != nil {
		p.posY.InsertEvent(*m.SetPositionY)
	}
	if m.SetPositionZ != nil {
		p.posZ.InsertEvent(*m.SetPositionZ)
	}
	if m.SetOrientationX != nil {
		p.orientX.InsertEvent(*m.SetOrientationX)
	}
	if m.SetOrientationY != nil {
		p.orientY.InsertEvent(*m.SetOrientationY)
	}
	if m.SetOrientationZ != nil {
		p.orientZ.InsertEvent(*m.SetOrientationZ)
	}
	if m.SetModel != nil {
		p.model = *m.SetModel
	}
	if m.SetConeInnerAngle != nil {
		p.coneInnerAngle = *m.SetConeInnerAngle
	}
	if m.SetConeOuterAngle != nil {
		p.coneOuterAngle = *m.SetConeOuterAngle
	}
	if m.SetConeOuterGain != nil {
		p.coneOuterGain = *m.SetConeOuterGain
	}
	if m.SetRefDistance != nil {
		p.refDistance = *m.SetRefDistance
	}
	if m.SetMaxDistance != nil {
		p.maxDistance = *m.SetMaxDistance
	}
	if m.SetRolloffFactor != nil {
		p.rolloffFactor = *m.SetRolloffFactor
	}
}

func (p *Panner) position() r3.Vector {
	return r3.Vector{X: float64(p.posX.Value()), Y: float64(p.posY.Value()), Z: float64(p.posZ.Value())}
}

func (p *Panner) orientation() r3.Vector {
	v := r3.Vector{X: float64(p.orientX.Value()), Y: float64(p.orientY.Value()), Z: float64(p.orientZ.Value())}
	if v.Norm() == 0 {
		return r3.Vector{X: 1, Y: 0, Z: 0}
	}
	return v.Normalize()
}

// distanceGain implements the WebAudio "inverse" distance model.
func (p *Panner) distanceGain(dist float64) float32 {
	d := math.Max(dist, p.refDistance)
	d = math.Min(d, p.maxDistance)
	if p.refDistance == 0 {
		return 1
	}
	g := p.refDistance / (p.refDistance + p.rolloffFactor*(d-p.refDistance))
	return float32(g)
}

// coneGain implements the WebAudio cone-angle attenuation: full gain
// within coneInnerAngle of the source's forward orientation, linear
// falloff to coneOuterGain by coneOuterAngle, coneOuterGain beyond.
func (p *Panner) coneGain(sourceToListener r3.Vector) float32 {
	if p.coneInnerAngle >= 360 && p.coneOuterAngle >= 360 {
		return 1
	}
	orient := p.orientation()
	if orient.Norm() == 0 || sourceToListener.Norm() == 0 {
		return 1
	}
	cosAngle := orient.Dot(sourceToListener.Normalize())
	cosAngle = math.Max(-1, math.Min(1, cosAngle))
	angle := math.Acos(cosAngle) * 180 / math.Pi

	absInner := math.Abs(p.coneInnerAngle) / 2
	absOuter := math.Abs(p.coneOuterAngle) / 2
	if angle <= absInner {
		return 1
	}
	if angle >= absOuter {
		return p.coneOuterGain
	}
	x := (angle - absInner) / (absOuter - absInner)
	return float32(1-x)*(1-p.coneOuterGain) + p.coneOuterGain
}

// azimuthElevation computes the angle in degrees of the source relative to
// the listener's forward/right/up basis, per the WebAudio panner spec's
// geometry (azimuth in [-180,180], elevation in [-90,90]).
func azimuthElevation(source, listenerPos, forward, up r3.Vector) (azimuth, elevation float64) {
	sl := source.Sub(listenerPos)
	if sl.Norm() == 0 {
		return 0, 0
	}
	sl = sl.Normalize()

	right := forward.Cross(up)
	if right.Norm() == 0 {
		right = r3.Vector{X: 1, Y: 0, Z: 0}
	} else {
		right = right.Normalize()
	}
	realUp := right.Cross(forward).Normalize()

	upProjection := sl.Dot(realUp)
	projected := sl.Sub(realUp.Mul(upProjection))
	if projected.Norm() == 0 {
		return 0, 0
	}
	projected = projected.Normalize()

	azimuth = 90 - angleBetweenDeg(projected, right)
	if projected.Dot(forward) < 0 {
		azimuth = 180 - azimuth
	}
	for azimuth < -180 {
		azimuth += 360
	}
	for azimuth > 180 {
		azimuth -= 360
	}

	elevation = 90 - angleBetweenDeg(sl, projected)
	if elevation > 90 {
		elevation = 180 - elevation
	} else if elevation < -90 {
		elevation = -180 - elevation
	}
	return azimuth, elevation
}

func angleBetweenDeg(a, b r3.Vector) float64 {
	cos := a.Dot(b)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}

// equalPowerGains implements the WebAudio equal-power panning law: azimuth
// clamped to [-90,90] maps onto a quarter-circle of L/R gains that sum in
// power (not amplitude) to a constant.
func equalPowerGains(azimuth float64) (left, right float32) {
	if azimuth < -90 {
		azimuth = -90
	} else if azimuth > 90 {
		azimuth = 90
	}
	x := (azimuth + 90) / 180
	gainL := math.Cos(0.5 * math.Pi * x)
	gainR := math.Sin(0.5 * math.Pi * x)
	return float32(gainL), float32(gainR)
}

func (p *Panner) Process(inputs block.Chunk, info *block.Info) block.Chunk {
	frame := uint64(info.Frame)
	p.posX.Update(info.SampleRate, frame)
	p.posY.Update(info.SampleRate, frame)
	p.posZ.Update(info.SampleRate, frame)
	p.orientX.Update(info.SampleRate, frame)
	p.orientY.Update(info.SampleRate, frame)
	p.orientZ.Update(info.SampleRate, frame)

	in := &inputs.Blocks[0]
	out := block.Silence(2)
	if in.IsSilence() {
		inputs.Blocks[0] = out
		return inputs
	}
	out.ExplicitSilence()

	srcPos := p.position()
	listenerPos, forward, up := r3.Vector{}, r3.Vector{X: 0, Y: 0, Z: -1}, r3.Vector{X: 0, Y: 1, Z: 0}
	if p.listener != nil {
		// The graph's topological order gives no guarantee this Listener
		// (reached via a direct pointer, not a graph edge) was processed
		// before this Panner this block, so advance its automation here
		// too; updateParams is idempotent within a block.
		p.listener.updateParams(info.SampleRate, uint64(info.Frame))
		listenerPos = p.listener.Position()
		forward = p.listener.Forward()
		up = p.listener.Up()
	}

	dist := srcPos.Sub(listenerPos).Norm()
	distGain := p.distanceGain(dist)
	coneGain := p.coneGain(listenerPos.Sub(srcPos))

	inChannels := in.Channels()

	if p.model == HRTF {
		p.hrtf.process(in, &out, srcPos, listenerPos, forward, up, distGain*coneGain)
		inputs.Blocks[0] = out
		return inputs
	}

	azimuth, _ := azimuthElevation(srcPos, listenerPos, forward, up)
	gL, gR := equalPowerGains(azimuth)
	gL *= distGain * coneGain
	gR *= distGain * coneGain

	for i := 0; i < block.FramesPerBlock; i++ {
		var mono float32
		if inChannels == 1 {
			mono = in.Samples()[i]
		} else {
			mono = 0.5 * (in.Samples()[i] + in.Samples()[block.FramesPerBlock+i])
		}
		out.Samples()[i] = mono * gL
		out.Samples()[block.FramesPerBlock+i] = mono * gR
	}

	inputs.Blocks[0] = out
	return inputs
}
