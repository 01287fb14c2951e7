package node

import (
	"testing"

	"github.com/bken-audio/graph/internal/block"
)

func TestDestinationCapturesInputAndHasNoOutput(t *testing.T) {
	d := NewDestination(2)
	if d.OutputCount() != 0 {
		t.Fatalf("expected output_count 0, got %d", d.OutputCount())
	}
	in := block.Silence(2)
	in.ExplicitSilence()
	in.Samples()[0] = 0.5
	info := block.NewInfo(block.DefaultSampleRate, 0)
	rest := d.Process(block.Chunk{Blocks: []block.Block{in}}, &info)
	if rest.Len() != 0 {
		t.Fatalf("expected destination to return no output blocks, got %d", rest.Len())
	}
	data, ok := d.DestinationData()
	if !ok {
		t.Fatalf("expected captured destination data")
	}
	if data.Blocks[0].Samples()[0] != 0.5 {
		t.Fatalf("expected captured chunk to match last input")
	}
}

func TestDestinationChannelCountImmutable(t *testing.T) {
	d := NewDestination(2)
	if err := d.SetChannelCount(4); err == nil {
		t.Fatalf("expected error setting channel count on destination")
	}
}

func TestDestinationDataFalseBeforeFirstProcess(t *testing.T) {
	d := NewDestination(2)
	_, ok := d.DestinationData()
	if ok {
		t.Fatalf("expected no destination data before first process")
	}
}
