package node

import (
	"math"

	"github.com/bken-audio/graph/internal/block"
	"github.com/bken-audio/graph/internal/param"
)

// Waveform selects the oscillator's shape.
type Waveform int

const (
	Sine Waveform = iota
	Square
	Sawtooth
	Triangle
)

// OscillatorMessage carries either a parameter automation event or a
// scheduled start/stop, mirroring the original AudioScheduledSourceNode
// message variants referenced by examples/panner.rs.
type OscillatorMessage struct {
	SetFrequency *param.Event
	SetDetune    *param.Event
	Start        *float64
	Stop         *float64
}

func (OscillatorMessage) isNodeMessage() {}

// Oscillator generates sine/square/sawtooth/triangle waveforms at
// frequency*2^(detune/1200) cents (§4.3), band-limiting square/saw/triangle
// via polyBLEP so aliasing stays below Nyquist; sine is computed directly.
type Oscillator struct {
	Base
	waveform  Waveform
	frequency *param.Param
	detune    *param.Param
	phase     float64 // 0..1
	triAccum  float64 // leaky integrator state for the triangle waveform
	scheduledSource
}

func NewOscillator(waveform Waveform, freq float32) *Oscillator {
	o := &Oscillator{
		Base:      Base{NewCommon(DefaultChannelInfo())},
		waveform:  waveform,
		frequency: param.New(freq),
		detune:    param.New(0),
	}
	o.Info.Count = 1
	return o
}

func (o *Oscillator) NodeType() Type { return TypeOscillator }

func (o *Oscillator) GetParam(p ParamType) *param.Param {
	switch p {
	case ParamFrequency:
		return o.frequency
	case ParamDetune:
		return o.detune
	default:
		return unknownParam(TypeOscillator, p)
	}
}

func (o *Oscillator) HandleMessage(msg Message, sampleRate float32) {
	m, ok := msg.(OscillatorMessage)
	if !ok {
		return
	}
	if m.SetFrequency != nil {
		o.frequency.InsertEvent(*m.SetFrequency)
	}
	if m.SetDetune != nil {
		o.detune.InsertEvent(*m.SetDetune)
	}
	if m.Start != nil {
		o.scheduledSource.Start(*m.Start, sampleRate)
	}
	if m.Stop != nil {
		o.scheduledSource.Stop(*m.Stop, sampleRate)
	}
}

func (o *Oscillator) Process(inputs block.Chunk, info *block.Info) block.Chunk {
	out := block.Silence(1)
	sr := float64(info.SampleRate)

	freq := o.frequency.Value()
	detune := o.detune.Value()

	active := false
	for i := 0; i < block.FramesPerBlock; i++ {
		frame := info.Frame + block.Tick(i)
		if !o.scheduledSource.active(frame) {
			o.phase = 0
			continue
		}
		if !active {
			out.ExplicitSilence()
			active = true
		}
		if o.frequency.Update(info.SampleRate, uint64(frame)) {
			freq = o.frequency.Value()
		}
		if o.detune.Update(info.SampleRate, uint64(frame)) {
			detune = o.detune.Value()
		}
		f := float64(freq) * math.Pow(2, float64(detune)/1200)
		dt := f / sr

		var sample float64
		switch o.waveform {
		case Sine:
			sample = math.Sin(2 * math.Pi * o.phase)
		case Square:
			sample = sign(o.phase) + polyBLEP(o.phase, dt) - polyBLEP(math.Mod(o.phase+0.5, 1), dt)
		case Sawtooth:
			sample = 2*o.phase - 1 - polyBLEP(o.phase, dt)
		case Triangle:
			sq := sign(o.phase) + polyBLEP(o.phase, dt) - polyBLEP(math.Mod(o.phase+0.5, 1), dt)
			// Leaky-integrated square wave: a band-limited square fed
			// through a one-pole integrator yields a band-limited
			// triangle, avoiding a second independent BLEP family.
			o.triAccum = (1-triLeak)*o.triAccum + 4*dt*sq
			sample = o.triAccum
		}

		out.Samples()[i] = float32(sample)

		o.phase += dt
		if o.phase >= 1 {
			o.phase -= 1
		}
	}

	inputs.Blocks[0] = out
	return inputs
}

// triLeak is the leak coefficient of the triangle integrator's one-pole
// high-pass, just enough to bleed off DC drift without audibly affecting
// the waveform.
const triLeak = 0.0005

// sign returns the naive (non-band-limited) square/triangle generator
// sample for phase p in [0,1): +1 for the first half-cycle, -1 for the
// second.
func sign(p float64) float64 {
	if p < 0.5 {
		return 1
	}
	return -1
}

// polyBLEP returns the polynomial band-limited step correction for a phase
// discontinuity at phase t, with dt the per-sample phase increment.
func polyBLEP(t, dt float64) float64 {
	if t < dt {
		t /= dt
		return t + t - t*t - 1
	} else if t > 1-dt {
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}
