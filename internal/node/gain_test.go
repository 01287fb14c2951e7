package node

import (
	"testing"

	"github.com/bken-audio/graph/internal/block"
	"github.com/bken-audio/graph/internal/param"
)

// TestConstantSourceGainChain covers end-to-end scenario 2: ConstantSource
// (offset=0.25) through Gain(gain=0.5) yields 0.125 on every sample.
func TestConstantSourceGainChain(t *testing.T) {
	cs := NewConstantSource(0.25)
	g := NewGain(0.5)
	info := block.NewInfo(block.DefaultSampleRate, 0)

	csOut := cs.Process(block.Chunk{Blocks: []block.Block{block.Silence(2)}}, &info)
	gOut := g.Process(csOut, &info)

	for i, s := range gOut.Blocks[0].Samples() {
		if s != 0.125 {
			t.Fatalf("sample %d: want 0.125 got %v", i, s)
		}
	}
}

func TestGainZeroProducesSilentFlagWhenIndicated(t *testing.T) {
	o := NewOscillator(Sine, 440)
	o.Start(0, block.DefaultSampleRate)
	g := NewGain(0)
	info := block.NewInfo(block.DefaultSampleRate, 0)
	oscOut := o.Process(block.Chunk{Blocks: []block.Block{block.Silence(1)}}, &info)
	gOut := g.Process(oscOut, &info)
	if !gOut.Blocks[0].IsSilence() {
		t.Fatalf("expected the output block to be flagged silent at gain 0")
	}
	for i, s := range gOut.Blocks[0].Samples() {
		if s != 0 {
			t.Fatalf("sample %d: expected zeroed output at gain 0, got %v", i, s)
		}
	}
}

func TestGainPassesThroughSilence(t *testing.T) {
	g := NewGain(1)
	info := block.NewInfo(block.DefaultSampleRate, 0)
	out := g.Process(block.Chunk{Blocks: []block.Block{block.Silence(2)}}, &info)
	if !out.Blocks[0].IsSilence() {
		t.Fatalf("expected silence propagation through gain")
	}
}

// TestConstantSourceLinearRamp covers end-to-end scenario 3: offset ramps
// linearly from 1.0 to 0.0 over one second; sample n equals 1 - n/44100.
func TestConstantSourceLinearRamp(t *testing.T) {
	cs := NewConstantSource(1.0)
	cs.HandleMessage(ConstantSourceMessage{Offset: param.NewLinearRamp(0.0, 1.0)}, block.DefaultSampleRate)
	info := block.NewInfo(block.DefaultSampleRate, 0)
	out := cs.Process(block.Chunk{Blocks: []block.Block{block.Silence(1)}}, &info)
	for n, s := range out.Blocks[0].Samples() {
		want := float32(1.0 - float64(n)/float64(block.DefaultSampleRate))
		if diff := s - want; diff > 1e-4 || diff < -1e-4 {
			t.Fatalf("frame %d: want %v got %v", n, want, s)
		}
	}
}
