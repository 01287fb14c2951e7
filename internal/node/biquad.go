package node

import (
	"math"

	"github.com/bken-audio/graph/internal/block"
	"github.com/bken-audio/graph/internal/param"
)

// BiquadType selects the Audio EQ Cookbook filter response.
type BiquadType int

const (
	LowPass BiquadType = iota
	HighPass
	BandPass
	LowShelf
	HighShelf
	Peaking
	Notch
	AllPass
)

type BiquadMessage struct {
	SetFrequency *param.Event
	SetDetune    *param.Event
	SetQ         *param.Event
	SetGain      *param.Event
	SetType      *BiquadType
}

func (BiquadMessage) isNodeMessage() {}

// biquadState is the direct-form-1 per-channel history: x1,x2 are the last
// two input samples, y1,y2 the last two output samples. Grounded on the
// teacher's internal/aec package, which keeps an analogous small
// mutex-free per-channel filter-state struct recomputed as parameters
// change; here the adaptive NLMS taps are replaced with the fixed Audio EQ
// Cookbook direct-form-1 recursion.
type biquadState struct {
	x1, x2, y1, y2 float64
}

type biquadCoeffs struct {
	b0, b1, b2, a1, a2 float64
}

// BiquadFilter implements direct-form-1 IIR filtering with coefficients
// from the Audio EQ Cookbook, recomputed whenever frequency, detune, Q,
// gain or type change (§4.3).
type BiquadFilter struct {
	Base
	typ        BiquadType
	frequency  *param.Param
	detune     *param.Param
	q          *param.Param
	gain       *param.Param
	states     []biquadState
	coeffs     biquadCoeffs
	lastFreq   float32
	lastDetune float32
	lastQ      float32
	lastGain   float32
	lastType   BiquadType
}

func NewBiquadFilter(typ BiquadType) *BiquadFilter {
	b := &BiquadFilter{
		Base:      Base{NewCommon(DefaultChannelInfo())},
		typ:       typ,
		frequency: param.New(350),
		detune:    param.New(0),
		q:         param.New(1),
		gain:      param.New(0),
		lastType:  typ + 1, // force initial coefficient computation
	}
	return b
}

func (b *BiquadFilter) NodeType() Type { return TypeBiquadFilter }

func (b *BiquadFilter) GetParam(p ParamType) *param.Param {
	switch p {
	case ParamFrequency:
		return b.frequency
	case ParamDetune:
		return b.detune
	case ParamQ:
		return b.q
	case ParamGain:
		return b.gain
	default:
		return unknownParam(TypeBiquadFilter, p)
	}
}

func (b *BiquadFilter) HandleMessage(msg Message, sampleRate float32) {
	m, ok := msg.(BiquadMessage)
	if !ok {
		return
	}
	if m.SetFrequency != nil {
		b.frequency.InsertEvent(*m.SetFrequency)
	}
	if m.SetDetune != nil {
		b.detune.InsertEvent(*m.SetDetune)
	}
	if m.SetQ != nil {
		b.q.InsertEvent(*m.SetQ)
	}
	if m.SetGain != nil {
		b.gain.InsertEvent(*m.SetGain)
	}
	if m.SetType != nil {
		b.typ = *m.SetType
	}
}

func (b *BiquadFilter) recomputeIfNeeded(sampleRate float32) {
	freq := b.frequency.Value()
	detune := b.detune.Value()
	q := b.q.Value()
	gain := b.gain.Value()
	if freq == b.lastFreq && detune == b.lastDetune && q == b.lastQ && gain == b.lastGain && b.typ == b.lastType {
		return
	}
	b.lastFreq, b.lastDetune, b.lastQ, b.lastGain, b.lastType = freq, detune, q, gain, b.typ

	f0 := float64(freq) * math.Pow(2, float64(detune)/1200)
	nyquist := float64(sampleRate) / 2
	if f0 < 1 {
		f0 = 1
	}
	if f0 > nyquist-1 {
		f0 = nyquist - 1
	}
	w0 := 2 * math.Pi * f0 / float64(sampleRate)
	sinW0, cosW0 := math.Sin(w0), math.Cos(w0)
	qv := float64(q)
	if qv <= 0 {
		qv = 1e-6
	}
	alpha := sinW0 / (2 * qv)
	A := math.Pow(10, float64(gain)/40)

	var b0, b1, b2, a0, a1, a2 float64
	switch b.typ {
	case LowPass:
		b0 = (1 - cosW0) / 2
		b1 = 1 - cosW0
		b2 = (1 - cosW0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosW0
		a2 = 1 - alpha
	case HighPass:
		b0 = (1 + cosW0) / 2
		b1 = -(1 + cosW0)
		b2 = (1 + cosW0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosW0
		a2 = 1 - alpha
	case BandPass:
		b0 = alpha
		b1 = 0
		b2 = -alpha
		a0 = 1 + alpha
		a1 = -2 * cosW0
		a2 = 1 - alpha
	case Notch:
		b0 = 1
		b1 = -2 * cosW0
		b2 = 1
		a0 = 1 + alpha
		a1 = -2 * cosW0
		a2 = 1 - alpha
	case AllPass:
		b0 = 1 - alpha
		b1 = -2 * cosW0
		b2 = 1 + alpha
		a0 = 1 + alpha
		a1 = -2 * cosW0
		a2 = 1 - alpha
	case Peaking:
		b0 = 1 + alpha*A
		b1 = -2 * cosW0
		b2 = 1 - alpha*A
		a0 = 1 + alpha/A
		a1 = -2 * cosW0
		a2 = 1 - alpha/A
	case LowShelf:
		sq := math.Sqrt(A)
		b0 = A * ((A + 1) - (A-1)*cosW0 + 2*sq*alpha)
		b1 = 2 * A * ((A - 1) - (A+1)*cosW0)
		b2 = A * ((A + 1) - (A-1)*cosW0 - 2*sq*alpha)
		a0 = (A + 1) + (A-1)*cosW0 + 2*sq*alpha
		a1 = -2 * ((A - 1) + (A+1)*cosW0)
		a2 = (A + 1) + (A-1)*cosW0 - 2*sq*alpha
	case HighShelf:
		sq := math.Sqrt(A)
		b0 = A * ((A + 1) + (A-1)*cosW0 + 2*sq*alpha)
		b1 = -2 * A * ((A - 1) + (A+1)*cosW0)
		b2 = A * ((A + 1) + (A-1)*cosW0 - 2*sq*alpha)
		a0 = (A + 1) - (A-1)*cosW0 + 2*sq*alpha
		a1 = 2 * ((A - 1) - (A+1)*cosW0)
		a2 = (A + 1) - (A-1)*cosW0 - 2*sq*alpha
	}

	b.coeffs = biquadCoeffs{b0: b0 / a0, b1: b1 / a0, b2: b2 / a0, a1: a1 / a0, a2: a2 / a0}
}

func (b *BiquadFilter) Process(inputs block.Chunk, info *block.Info) block.Chunk {
	in := &inputs.Blocks[0]
	if in.IsSilence() {
		return inputs
	}
	channels := in.Channels()
	if len(b.states) != channels {
		b.states = make([]biquadState, channels)
	}
	b.recomputeIfNeeded(info.SampleRate)
	c := b.coeffs

	in.Iter(func(f block.Frame) {
		frame := uint64(info.Frame) + uint64(f.Tick())
		freqChanged := b.frequency.Update(info.SampleRate, frame)
		detuneChanged := b.detune.Update(info.SampleRate, frame)
		qChanged := b.q.Update(info.SampleRate, frame)
		gainChanged := b.gain.Update(info.SampleRate, frame)
		if freqChanged || detuneChanged || qChanged || gainChanged {
			b.recomputeIfNeeded(info.SampleRate)
			c = b.coeffs
		}
		for ch := 0; ch < channels; ch++ {
			s := &b.states[ch]
			x0 := float64(f.At(ch))
			y0 := c.b0*x0 + c.b1*s.x1 + c.b2*s.x2 - c.a1*s.y1 - c.a2*s.y2
			s.x2, s.x1 = s.x1, x0
			s.y2, s.y1 = s.y1, y0
			f.Set(ch, float32(y0))
		}
	})
	return inputs
}
