package graph

import (
	"math"
	"testing"

	"github.com/bken-audio/graph/internal/block"
	"github.com/bken-audio/graph/internal/node"
)

func TestCycleRejected(t *testing.T) {
	g := New()
	a := g.AddNode(node.NewGain(1))
	b := g.AddNode(node.NewGain(1))

	if err := g.Connect(Port{Node: a, Index: 0}, Port{Node: b, Index: 0}); err != nil {
		t.Fatalf("unexpected error connecting a->b: %v", err)
	}
	err := g.Connect(Port{Node: b, Index: 0}, Port{Node: a, Index: 0})
	if err == nil {
		t.Fatalf("expected TopologyError for a->b->a cycle")
	}
	if len(g.edges) != 1 {
		t.Fatalf("expected graph unchanged after rejected connect, got %d edges", len(g.edges))
	}

	// processing still proceeds afterward.
	info := block.NewInfo(block.DefaultSampleRate, 0)
	if _, ok := g.ProcessBlock(&info); ok {
		t.Fatalf("expected no destination present")
	}
}

func TestTopologicalOrderDeterministic(t *testing.T) {
	g := New()
	a := g.AddNode(node.NewGain(1))
	b := g.AddNode(node.NewGain(1))
	c := g.AddNode(node.NewGain(1))
	_ = g.Connect(Port{Node: c, Index: 0}, Port{Node: b, Index: 0})
	_ = g.Connect(Port{Node: b, Index: 0}, Port{Node: a, Index: 0})

	order1 := append([]NodeId(nil), g.topoSort()...)
	g.invalidate()
	order2 := append([]NodeId(nil), g.topoSort()...)
	if len(order1) != len(order2) {
		t.Fatalf("order length mismatch")
	}
	for i := range order1 {
		if order1[i] != order2[i] {
			t.Fatalf("order not stable across repeated runs: %v vs %v", order1, order2)
		}
	}
	// c has no dependencies, must come before b which must come before a.
	pos := map[NodeId]int{}
	for i, id := range order1 {
		pos[id] = i
	}
	if !(pos[c] < pos[b] && pos[b] < pos[a]) {
		t.Fatalf("expected order c,b,a respecting dependencies, got %v", order1)
	}
}

func TestOscillatorGainDestinationEndToEnd(t *testing.T) {
	g := New()
	osc := node.NewOscillator(node.Sine, 440)
	osc.Start(0, block.DefaultSampleRate)
	oscID := g.AddNode(osc)
	gainID := g.AddNode(node.NewGain(0.5))
	destID := g.AddNode(node.NewDestination(1))

	if err := g.Connect(Port{Node: oscID, Index: 0}, Port{Node: gainID, Index: 0}); err != nil {
		t.Fatalf("connect osc->gain: %v", err)
	}
	if err := g.Connect(Port{Node: gainID, Index: 0}, Port{Node: destID, Index: 0}); err != nil {
		t.Fatalf("connect gain->dest: %v", err)
	}

	info := block.NewInfo(block.DefaultSampleRate, 0)
	out, ok := g.ProcessBlock(&info)
	if !ok {
		t.Fatalf("expected destination data")
	}
	samples := out.Blocks[0].Samples()
	for i := 0; i < block.FramesPerBlock; i++ {
		want := 0.5 * math.Sin(2*math.Pi*440*float64(i)/float64(block.DefaultSampleRate))
		if math.Abs(float64(samples[i])-want) > 1e-4 {
			t.Fatalf("frame %d: want %v got %v", i, want, samples[i])
		}
	}
}

func TestSilencePropagatesThroughGainAndBiquad(t *testing.T) {
	g := New()
	osc := node.NewOscillator(node.Sine, 440) // never started: silent forever
	oscID := g.AddNode(osc)
	gainID := g.AddNode(node.NewGain(1))
	biquadID := g.AddNode(node.NewBiquadFilter(node.LowPass))
	destID := g.AddNode(node.NewDestination(1))

	_ = g.Connect(Port{Node: oscID, Index: 0}, Port{Node: gainID, Index: 0})
	_ = g.Connect(Port{Node: gainID, Index: 0}, Port{Node: biquadID, Index: 0})
	_ = g.Connect(Port{Node: biquadID, Index: 0}, Port{Node: destID, Index: 0})

	info := block.NewInfo(block.DefaultSampleRate, 0)
	out, ok := g.ProcessBlock(&info)
	if !ok {
		t.Fatalf("expected destination data")
	}
	if !out.Blocks[0].IsSilence() {
		t.Fatalf("expected silence to propagate end to end")
	}
}

func TestRemoveNodeDropsIncidentEdges(t *testing.T) {
	g := New()
	a := g.AddNode(node.NewGain(1))
	b := g.AddNode(node.NewGain(1))
	_ = g.Connect(Port{Node: a, Index: 0}, Port{Node: b, Index: 0})
	g.RemoveNode(a)
	if len(g.edges) != 0 {
		t.Fatalf("expected incident edges dropped, got %d", len(g.edges))
	}
	if _, ok := g.Node(a); ok {
		t.Fatalf("expected node removed")
	}
}
