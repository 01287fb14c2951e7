package node

import (
	"testing"

	"github.com/bken-audio/graph/internal/block"
)

func TestAnalyserPassesThroughAndTaps(t *testing.T) {
	a := NewAnalyser(2)
	in := block.Silence(2)
	in.ExplicitSilence()
	in.Samples()[0] = 1
	in.Samples()[block.FramesPerBlock] = 3
	info := block.NewInfo(block.DefaultSampleRate, 0)
	out := a.Process(block.Chunk{Blocks: []block.Block{in}}, &info)
	if out.Blocks[0].Samples()[0] != 1 {
		t.Fatalf("expected pass-through, input altered")
	}
	select {
	case mono := <-a.Tap():
		if mono[0] != 2 {
			t.Fatalf("expected mono downmix (1+3)/2=2, got %v", mono[0])
		}
	default:
		t.Fatalf("expected a tapped block")
	}
}

func TestAnalyserDropsOldestWhenFull(t *testing.T) {
	a := NewAnalyser(1)
	info := block.NewInfo(block.DefaultSampleRate, 0)
	for n := 0; n < 3; n++ {
		in := block.Silence(1)
		in.ExplicitSilence()
		in.Samples()[0] = float32(n)
		a.Process(block.Chunk{Blocks: []block.Block{in}}, &info)
	}
	mono := <-a.Tap()
	if mono[0] != 2 {
		t.Fatalf("expected the most recent block (n=2) to survive drop-oldest, got %v", mono[0])
	}
}
