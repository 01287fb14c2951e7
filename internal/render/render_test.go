package render

import (
	"errors"
	"testing"

	"github.com/bken-audio/graph/internal/block"
	"github.com/bken-audio/graph/internal/graph"
	"github.com/bken-audio/graph/internal/node"
)

type fakeSink struct {
	initCalls, playCalls, stopCalls, closeCalls int
	pushed                                      []block.Chunk
	pushErr                                     error
	hasEnough                                   bool
}

func (f *fakeSink) Init(sampleRate float32, channels int) error { f.initCalls++; return nil }
func (f *fakeSink) Play() error                                 { f.playCalls++; return nil }
func (f *fakeSink) Stop() error                                 { f.stopCalls++; return nil }
func (f *fakeSink) Close() error                                { f.closeCalls++; return nil }
func (f *fakeSink) HasEnoughData() bool                         { return f.hasEnough }
func (f *fakeSink) PushData(chunk block.Chunk) error {
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushed = append(f.pushed, chunk)
	return nil
}
func (f *fakeSink) SetEOSCallback(fn func(uint64)) {}

func newTestRender(sink *fakeSink) *Render {
	g := graph.New()
	return New(g, sink, block.DefaultSampleRate, 2, 4, nil)
}

func TestResumeFromUnstartedInitsAndPlays(t *testing.T) {
	sink := &fakeSink{}
	r := newTestRender(sink)
	reply := make(chan error, 1)
	r.transition(Running, reply)
	if err := <-reply; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sink.initCalls != 1 || sink.playCalls != 1 {
		t.Fatalf("expected one init and one play call, got init=%d play=%d", sink.initCalls, sink.playCalls)
	}
	if r.State() != Running {
		t.Fatalf("expected Running, got %s", r.State())
	}
}

func TestSuspendStopsSink(t *testing.T) {
	sink := &fakeSink{}
	r := newTestRender(sink)
	r.transition(Running, make(chan error, 1))
	reply := make(chan error, 1)
	r.transition(Paused, reply)
	if err := <-reply; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sink.stopCalls != 1 {
		t.Fatalf("expected one stop call, got %d", sink.stopCalls)
	}
}

func TestAlreadyInStateRepliesOkWithoutSinkCall(t *testing.T) {
	sink := &fakeSink{}
	r := newTestRender(sink)
	reply := make(chan error, 1)
	r.transition(Unstarted, reply)
	if err := <-reply; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sink.initCalls != 0 || sink.playCalls != 0 || sink.stopCalls != 0 || sink.closeCalls != 0 {
		t.Fatalf("expected no sink calls for a same-state no-op")
	}
}

func TestCloseFromAnyState(t *testing.T) {
	sink := &fakeSink{}
	r := newTestRender(sink)
	reply := make(chan error, 1)
	stop := r.transition(Closed, reply)
	if err := <-reply; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !stop {
		t.Fatalf("expected Close transition to signal stop")
	}
	if sink.closeCalls != 1 {
		t.Fatalf("expected close called on Close transition, got %d", sink.closeCalls)
	}
	if sink.stopCalls != 0 {
		t.Fatalf("expected Stop not to be called on Close transition, got %d", sink.stopCalls)
	}
}

func TestSinkPushFailureEscalatesToPaused(t *testing.T) {
	sink := &fakeSink{pushErr: errors.New("backend gone")}
	r := newTestRender(sink)
	r.transition(Running, make(chan error, 1))
	r.runningTick()
	if r.State() != Paused {
		t.Fatalf("expected Paused after push failure, got %s", r.State())
	}
}

func TestCreateNodeConnectAndProcessViaHandle(t *testing.T) {
	sink := &fakeSink{}
	r := newTestRender(sink)

	oscReply := make(chan graph.NodeId, 1)
	osc := node.NewOscillator(node.Sine, 440)
	osc.Start(0, block.DefaultSampleRate)
	r.handle(createNodeCmd{Engine: osc, Reply: oscReply})
	oscID := <-oscReply

	destReply := make(chan graph.NodeId, 1)
	r.handle(createNodeCmd{Engine: node.NewDestination(1), Reply: destReply})
	destID := <-destReply

	connReply := make(chan error, 1)
	r.handle(connectCmd{Src: graph.Port{Node: oscID, Index: 0}, Dest: graph.Port{Node: destID, Index: 0}, Reply: connReply})
	if err := <-connReply; err != nil {
		t.Fatalf("unexpected connect error: %v", err)
	}

	r.transition(Running, make(chan error, 1))
	r.runningTick()

	if len(sink.pushed) != 1 {
		t.Fatalf("expected exactly one pushed block, got %d", len(sink.pushed))
	}
	if sink.pushed[0].Blocks[0].IsSilence() {
		t.Fatalf("expected a non-silent rendered block from the running oscillator")
	}
	if r.currentFrame.Load() != block.FramesPerBlock {
		t.Fatalf("expected current frame to advance by one block, got %d", r.currentFrame.Load())
	}
}

func TestDrainPendingRepliesToStrandedCommands(t *testing.T) {
	sink := &fakeSink{}
	r := newTestRender(sink)
	connReply := make(chan error, 1)
	r.cmds <- connectCmd{Reply: connReply}
	r.drainPending()
	select {
	case err := <-connReply:
		if err == nil {
			t.Fatalf("expected an error reply for a drained command")
		}
	default:
		t.Fatalf("expected drainPending to reply to the stranded command")
	}
}
