package node

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/bken-audio/graph/internal/block"
)

// hrtfTaps is the length of each ear's FIR impulse response. The WebAudio
// HRTF panning model convolves the mono source against a measured
// head-related impulse response per ear; this core has no corpus source
// for measured data (§13 Open Question), so the table below is a
// procedurally-baked placeholder: each ear's response is a single
// exponentially-decaying impulse delayed by an inter-aural time difference
// that grows with azimuth, which reproduces the qualitative shape (onset
// delay + decay) of a real HRIR without claiming to be one.
const hrtfTaps = 128

// hrtfAzimuthBins are the azimuth angles, in degrees, the baked table is
// indexed by; process() picks the nearest bin to the source's azimuth.
var hrtfAzimuthBins = []float64{-90, -45, 0, 45, 90}

type hrtfPair struct {
	left, right [hrtfTaps]float32
}

var hrtfTable = buildHRTFTable()

func buildHRTFTable() []hrtfPair {
	table := make([]hrtfPair, len(hrtfAzimuthBins))
	for i, az := range hrtfAzimuthBins {
		table[i] = bakeHRIR(az)
	}
	return table
}

// bakeHRIR synthesizes one azimuth's impulse-response pair: an
// exponentially decaying pulse train per ear, with the near ear's onset
// earlier (smaller ITD) and louder (no head-shadow attenuation) than the
// far ear, scaled by sin/cos of the azimuth to vary continuously across
// bins.
func bakeHRIR(azimuthDeg float64) hrtfPair {
	theta := azimuthDeg * math.Pi / 180
	// Inter-aural time difference in taps: up to ~32 taps (~0.7ms at 44.1kHz)
	// at +-90 degrees, zero at 0.
	itd := int(32 * math.Sin(theta))
	// Head shadow: far ear attenuated, near ear unattenuated.
	leftGain := float32(1)
	rightGain := float32(1)
	// Positive azimuth is to the listener's right (as in equalPowerGains),
	// so there the left ear is the far one.
	if itd > 0 {
		leftGain = float32(0.5 + 0.5*math.Cos(theta))
	} else if itd < 0 {
		rightGain = float32(0.5 + 0.5*math.Cos(theta))
	}

	var p hrtfPair
	decay := 0.75
	leftOnset, rightOnset := 0, 0
	if itd > 0 {
		leftOnset = itd
	} else if itd < 0 {
		rightOnset = -itd
	}
	for i := 0; i < hrtfTaps; i++ {
		if i >= leftOnset {
			p.left[i] = leftGain * float32(math.Pow(decay, float64(i-leftOnset)))
		}
		if i >= rightOnset {
			p.right[i] = rightGain * float32(math.Pow(decay, float64(i-rightOnset)))
		}
	}
	return p
}

func nearestHRIR(azimuthDeg float64) hrtfPair {
	best := 0
	bestDiff := math.Abs(azimuthDeg - hrtfAzimuthBins[0])
	for i := 1; i < len(hrtfAzimuthBins); i++ {
		d := math.Abs(azimuthDeg - hrtfAzimuthBins[i])
		if d < bestDiff {
			bestDiff = d
			best = i
		}
	}
	return hrtfTable[best]
}

// hrtfEngine holds the convolution history across blocks, shared by both
// ears: a hrtfTaps-1-sample tail of past mono input, since each output
// sample depends on the previous hrtfTaps-1 input samples.
type hrtfEngine struct {
	history [hrtfTaps - 1]float32
}

func newHRTFEngine() *hrtfEngine { return &hrtfEngine{} }

// process convolves in's mono-downmixed signal against the azimuth-nearest
// baked impulse response pair, writing the result into out (already sized
// to 2 channels and materialized), scaled by an overall gain.
func (h *hrtfEngine) process(in, out *block.Block, source, listenerPos, forward, up r3.Vector, gain float32) {
	azimuth, _ := azimuthElevation(source, listenerPos, forward, up)
	ir := nearestHRIR(azimuth)

	channels := in.Channels()
	mono := make([]float32, hrtfTaps-1+block.FramesPerBlock)
	copy(mono, h.history[:])
	for i := 0; i < block.FramesPerBlock; i++ {
		var s float32
		if channels == 1 {
			s = in.Samples()[i]
		} else {
			s = 0.5 * (in.Samples()[i] + in.Samples()[block.FramesPerBlock+i])
		}
		mono[hrtfTaps-1+i] = s
	}

	for i := 0; i < block.FramesPerBlock; i++ {
		var left, right float32
		base := hrtfTaps - 1 + i
		for t := 0; t < hrtfTaps; t++ {
			x := mono[base-t]
			left += x * ir.left[t]
			right += x * ir.right[t]
		}
		out.Samples()[i] = left * gain
		out.Samples()[block.FramesPerBlock+i] = right * gain
	}

	copy(h.history[:], mono[len(mono)-(hrtfTaps-1):])
}
