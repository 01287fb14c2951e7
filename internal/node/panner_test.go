package node

import (
	"math"
	"testing"

	"github.com/bken-audio/graph/internal/block"
	"github.com/bken-audio/graph/internal/param"
)

func TestEqualPowerGainsCenterIsEqual(t *testing.T) {
	l, r := equalPowerGains(0)
	if math.Abs(float64(l-r)) > 1e-6 {
		t.Fatalf("expected equal L/R gain at azimuth 0, got L=%v R=%v", l, r)
	}
	if math.Abs(float64(l*l+r*r)-1) > 1e-3 {
		t.Fatalf("expected power sum ~= 1, got %v", l*l+r*r)
	}
}

func TestEqualPowerGainsHardLeft(t *testing.T) {
	l, r := equalPowerGains(-90)
	if l < 0.99 || r > 1e-3 {
		t.Fatalf("expected full left at azimuth -90, got L=%v R=%v", l, r)
	}
}

func TestEqualPowerGainsHardRight(t *testing.T) {
	l, r := equalPowerGains(90)
	if r < 0.99 || l > 1e-3 {
		t.Fatalf("expected full right at azimuth 90, got L=%v R=%v", l, r)
	}
}

func TestPannerSilentInputProducesSilentOutput(t *testing.T) {
	listener := NewListener()
	p := NewPanner(listener)
	in := block.Silence(1)
	info := block.NewInfo(block.DefaultSampleRate, 0)
	out := p.Process(block.Chunk{Blocks: []block.Block{in}}, &info)
	if !out.Blocks[0].IsSilence() {
		t.Fatalf("expected silent output for silent input")
	}
}

func TestPannerSourceToTheRightPansRight(t *testing.T) {
	listener := NewListener()
	p := NewPanner(listener)
	p.posX.SetValueImmediate(100)
	p.posZ.SetValueImmediate(0)

	in := block.Silence(1)
	in.ExplicitSilence()
	for i := range in.Samples() {
		in.Samples()[i] = 1
	}
	info := block.NewInfo(block.DefaultSampleRate, 0)
	out := p.Process(block.Chunk{Blocks: []block.Block{in}}, &info)
	left := out.Blocks[0].Samples()[0]
	right := out.Blocks[0].Samples()[block.FramesPerBlock]
	if right <= left {
		t.Fatalf("expected source to the right (+X) to favor the right channel, got L=%v R=%v", left, right)
	}
}

func TestPannerMessageAutomationMovesSource(t *testing.T) {
	listener := NewListener()
	p := NewPanner(listener)

	x := param.NewSetValue(100, 0)
	z := param.NewSetValue(0, 0)
	p.HandleMessage(PannerMessage{SetPositionX: &x, SetPositionZ: &z}, block.DefaultSampleRate)

	in := block.Silence(1)
	in.ExplicitSilence()
	for i := range in.Samples() {
		in.Samples()[i] = 1
	}
	info := block.NewInfo(block.DefaultSampleRate, 0)
	out := p.Process(block.Chunk{Blocks: []block.Block{in}}, &info)
	left := out.Blocks[0].Samples()[0]
	right := out.Blocks[0].Samples()[block.FramesPerBlock]
	if right <= left {
		t.Fatalf("expected a PannerMessage-driven move to +X to favor the right channel, got L=%v R=%v", left, right)
	}
}

func TestListenerMessageAutomationMovesPosition(t *testing.T) {
	l := NewListener()
	x := param.NewSetValue(5, 0)
	l.HandleMessage(ListenerMessage{SetPositionX: &x}, block.DefaultSampleRate)

	info := block.NewInfo(block.DefaultSampleRate, 0)
	l.Process(block.Chunk{Blocks: make([]block.Block, 1)}, &info)

	if got := l.Position().X; got != 5 {
		t.Fatalf("expected listener position X=5 after a ListenerMessage, got %v", got)
	}
}

func TestDistanceGainDecreasesWithDistance(t *testing.T) {
	listener := NewListener()
	p := NewPanner(listener)
	near := p.distanceGain(1)
	far := p.distanceGain(100)
	if far >= near {
		t.Fatalf("expected gain to decrease with distance, near=%v far=%v", near, far)
	}
}
