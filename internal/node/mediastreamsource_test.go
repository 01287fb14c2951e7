package node

import (
	"testing"

	"github.com/bken-audio/graph/internal/block"
)

type fakeStream struct {
	blocks []block.Block
	i      int
}

func (f *fakeStream) NextBlock() (block.Block, bool) {
	if f.i >= len(f.blocks) {
		return block.Block{}, false
	}
	b := f.blocks[f.i]
	f.i++
	return b, true
}

func TestMediaStreamSourceEmitsSilenceOnUnderflow(t *testing.T) {
	s := NewMediaStreamSource(&fakeStream{})
	info := block.NewInfo(block.DefaultSampleRate, 0)
	out := s.Process(block.Chunk{Blocks: []block.Block{block.Silence(2)}}, &info)
	if !out.Blocks[0].IsSilence() {
		t.Fatalf("expected silence on underflow")
	}
}

func TestMediaStreamSourceSurfacesAvailableBlock(t *testing.T) {
	b := block.Silence(1)
	b.ExplicitSilence()
	b.Samples()[0] = 0.75
	s := NewMediaStreamSource(&fakeStream{blocks: []block.Block{b}})
	info := block.NewInfo(block.DefaultSampleRate, 0)
	out := s.Process(block.Chunk{Blocks: []block.Block{block.Silence(1)}}, &info)
	if out.Blocks[0].Samples()[0] != 0.75 {
		t.Fatalf("expected surfaced block sample")
	}
}
