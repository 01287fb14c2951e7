package node

import (
	"math"
	"testing"

	"github.com/bken-audio/graph/internal/block"
)

// TestOscillatorSineMatchesClosedForm covers end-to-end scenario 1:
// Oscillator(sine, freq=440) for 128 frames at 44100Hz approximates
// sin(2*pi*440*i/44100) within 1e-4.
func TestOscillatorSineMatchesClosedForm(t *testing.T) {
	o := NewOscillator(Sine, 440)
	o.Start(0, block.DefaultSampleRate)
	info := block.NewInfo(block.DefaultSampleRate, 0)
	out := o.Process(block.Chunk{Blocks: []block.Block{block.Silence(1)}}, &info)
	samples := out.Blocks[0].Samples()
	for i := 0; i < block.FramesPerBlock; i++ {
		want := math.Sin(2 * math.Pi * 440 * float64(i) / float64(block.DefaultSampleRate))
		if math.Abs(float64(samples[i])-want) > 1e-4 {
			t.Fatalf("frame %d: want %v got %v", i, want, samples[i])
		}
	}
}

func TestOscillatorSilentBeforeStart(t *testing.T) {
	o := NewOscillator(Sine, 440)
	o.Start(1.0, block.DefaultSampleRate) // starts far in the future
	info := block.NewInfo(block.DefaultSampleRate, 0)
	out := o.Process(block.Chunk{Blocks: []block.Block{block.Silence(1)}}, &info)
	if !out.Blocks[0].IsSilence() {
		t.Fatalf("expected silence before start time")
	}
}

func TestOscillatorStopFiresOnEnded(t *testing.T) {
	o := NewOscillator(Sine, 440)
	fired := false
	o.SetOnEnded(func() { fired = true })
	o.Start(0, block.DefaultSampleRate)
	o.Stop(0, block.DefaultSampleRate)
	info := block.NewInfo(block.DefaultSampleRate, 0)
	o.Process(block.Chunk{Blocks: []block.Block{block.Silence(1)}}, &info)
	if !fired {
		t.Fatalf("expected OnEnded to fire once stop boundary is crossed")
	}
}

func TestOscillatorSquareStaysInRange(t *testing.T) {
	o := NewOscillator(Square, 440)
	o.Start(0, block.DefaultSampleRate)
	info := block.NewInfo(block.DefaultSampleRate, 0)
	out := o.Process(block.Chunk{Blocks: []block.Block{block.Silence(1)}}, &info)
	for i, s := range out.Blocks[0].Samples() {
		if s > 1.2 || s < -1.2 {
			t.Fatalf("frame %d: square sample %v exceeds expected band-limited range", i, s)
		}
	}
}
