package node

import (
	"math"
	"testing"

	"github.com/bken-audio/graph/internal/block"
	"github.com/bken-audio/graph/internal/param"
)

func TestBiquadLowPassAttenuatesHighFrequencyMoreThanLow(t *testing.T) {
	sampleRate := float32(block.DefaultSampleRate)

	measure := func(freq float64) float64 {
		f := NewBiquadFilter(LowPass)
		ev := param.NewSetValue(500, 0)
		f.HandleMessage(BiquadMessage{SetFrequency: &ev}, sampleRate)

		sum := 0.0
		info := block.NewInfo(sampleRate, 0)
		for i := 0; i < 200; i++ {
			chunk := block.NewChunk(1, 1)
			chunk.Blocks[0].ExplicitSilence()
			for n := 0; n < block.FramesPerBlock; n++ {
				t := float64(i*block.FramesPerBlock+n) / float64(sampleRate)
				chunk.Blocks[0].Samples()[n] = float32(math.Sin(2 * math.Pi * freq * t))
			}
			out := f.Process(chunk, &info)
			for _, v := range out.Blocks[0].Samples() {
				sum += float64(v) * float64(v)
			}
			info.Frame += block.FramesPerBlock
		}
		return sum
	}

	low := measure(100)
	high := measure(8000)
	if high >= low {
		t.Fatalf("expected a 500Hz lowpass to pass 100Hz more than 8000Hz, got low=%v high=%v", low, high)
	}
}

func TestBiquadSilentInputPassesThrough(t *testing.T) {
	f := NewBiquadFilter(LowPass)
	info := block.NewInfo(block.DefaultSampleRate, 0)
	chunk := block.NewChunk(1, 2)

	out := f.Process(chunk, &info)
	if !out.Blocks[0].IsSilence() {
		t.Fatalf("expected silent input to stay silent")
	}
}

func TestBiquadNotchZerosImpulseResponseAtCenter(t *testing.T) {
	sampleRate := float32(block.DefaultSampleRate)
	f := NewBiquadFilter(Notch)
	freqEv := param.NewSetValue(1000, 0)
	qEv := param.NewSetValue(10, 0)
	f.HandleMessage(BiquadMessage{SetFrequency: &freqEv, SetQ: &qEv}, sampleRate)
	info := block.NewInfo(sampleRate, 0)

	sum := 0.0
	for i := 0; i < 50; i++ {
		chunk := block.NewChunk(1, 1)
		chunk.Blocks[0].ExplicitSilence()
		for n := 0; n < block.FramesPerBlock; n++ {
			t := float64(i*block.FramesPerBlock+n) / float64(sampleRate)
			chunk.Blocks[0].Samples()[n] = float32(math.Sin(2 * math.Pi * 1000 * t))
		}
		out := f.Process(chunk, &info)
		if i > 10 {
			for _, v := range out.Blocks[0].Samples() {
				sum += float64(v) * float64(v)
			}
		}
		info.Frame += block.FramesPerBlock
	}
	if sum > 1e-3 {
		t.Fatalf("expected a steady-state 1kHz tone through a 1kHz notch to be nearly silenced, got energy %v", sum)
	}
}

// TestBiquadDetuneShiftsCenterFrequency confirms SetDetune automation
// actually moves the filter's center: detuning a 1kHz notch up an octave
// (1200 cents) should stop canceling a steady 1kHz tone.
func TestBiquadDetuneShiftsCenterFrequency(t *testing.T) {
	sampleRate := float32(block.DefaultSampleRate)
	f := NewBiquadFilter(Notch)
	freqEv := param.NewSetValue(1000, 0)
	qEv := param.NewSetValue(10, 0)
	detuneEv := param.NewSetValue(1200, 0)
	f.HandleMessage(BiquadMessage{SetFrequency: &freqEv, SetQ: &qEv, SetDetune: &detuneEv}, sampleRate)
	info := block.NewInfo(sampleRate, 0)

	sum := 0.0
	for i := 0; i < 50; i++ {
		chunk := block.NewChunk(1, 1)
		chunk.Blocks[0].ExplicitSilence()
		for n := 0; n < block.FramesPerBlock; n++ {
			t := float64(i*block.FramesPerBlock+n) / float64(sampleRate)
			chunk.Blocks[0].Samples()[n] = float32(math.Sin(2 * math.Pi * 1000 * t))
		}
		out := f.Process(chunk, &info)
		if i > 10 {
			for _, v := range out.Blocks[0].Samples() {
				sum += float64(v) * float64(v)
			}
		}
		info.Frame += block.FramesPerBlock
	}
	if sum < 1e-2 {
		t.Fatalf("expected detuning the notch away from 1kHz to let a 1kHz tone through, got energy %v", sum)
	}
}
