// Package render implements the render thread (§4.5): the event loop that
// owns a Graph and a Sink, multiplexes control messages against sink
// demand, drives block cadence, and maintains the processing state
// machine Unstarted -> Running <-> Paused -> Closed.
package render

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/bken-audio/graph/internal/block"
	"github.com/bken-audio/graph/internal/graph"
	"github.com/bken-audio/graph/internal/node"
)

// Render owns the graph and the sink exclusively; nothing outside this
// package's Run goroutine ever touches g or sink directly (§5's "no shared
// mutable state crosses the render thread boundary except via messages").
// currentFrame and state are atomics so client threads can read cheap
// snapshots without messaging the render thread.
type Render struct {
	g            *graph.Graph
	sink         Sink
	sampleRate   float32
	destChannels int
	log          *slog.Logger

	cmds chan command

	state         atomic.Int32
	currentFrame  atomic.Uint64
	totalRendered atomic.Uint64

	stopped chan struct{}
}

// New returns a Render in the Unstarted state, owning g and sink. cmdBuf
// sizes the command channel (0 is valid: every send then rendezvous with
// the render thread directly).
func New(g *graph.Graph, sink Sink, sampleRate float32, destChannels int, cmdBuf int, log *slog.Logger) *Render {
	if log == nil {
		log = slog.Default()
	}
	r := &Render{
		g:            g,
		sink:         sink,
		sampleRate:   sampleRate,
		destChannels: destChannels,
		log:          log,
		cmds:         make(chan command, cmdBuf),
		stopped:      make(chan struct{}),
	}
	r.state.Store(int32(Unstarted))
	return r
}

// State returns the current lifecycle state, safe to call from any thread.
func (r *Render) State() State { return State(r.state.Load()) }

// CurrentTime returns CurrentTime = Tick / SampleRate in seconds, safe to
// call from any thread (§3, §5).
func (r *Render) CurrentTime() float64 {
	return block.Tick(r.currentFrame.Load()).Seconds(float64(r.sampleRate))
}

// Stopped is closed once Run returns.
func (r *Render) Stopped() <-chan struct{} { return r.stopped }

// Run is the render thread's event loop. Call it in its own goroutine;
// it returns once the state reaches Closed.
func (r *Render) Run() {
	defer close(r.stopped)
	for {
		switch r.State() {
		case Closed:
			r.drainPending()
			return
		case Running:
			if r.runningTick() {
				r.drainPending()
				return
			}
		default: // Unstarted, Paused: block on the command channel
			cmd, ok := <-r.cmds
			if !ok {
				return
			}
			if r.handle(cmd) {
				r.drainPending()
				return
			}
		}
	}
}

// runningTick performs one iteration of the block-cadence loop (§4.5):
// service any pending command first (control messages apply strictly
// between blocks, never mid-block), then either wait briefly for sink
// room or render and push exactly one block.
func (r *Render) runningTick() (stop bool) {
	select {
	case cmd := <-r.cmds:
		return r.handle(cmd)
	default:
	}

	if r.sink.HasEnoughData() {
		time.Sleep(time.Millisecond)
		return false
	}

	info := block.NewInfo(r.sampleRate, block.Tick(r.currentFrame.Load()))
	chunk, _ := r.g.ProcessBlock(&info)
	if err := r.sink.PushData(chunk); err != nil {
		r.log.Error("sink push failed, pausing", "error", err)
		r.state.Store(int32(Paused))
		return false
	}
	r.currentFrame.Add(block.FramesPerBlock)
	r.totalRendered.Add(block.FramesPerBlock)
	return false
}

// drainPending discards commands queued after Close, per §5's "flushes
// pending messages by draining and discarding".
func (r *Render) drainPending() {
	for {
		select {
		case cmd := <-r.cmds:
			replyDropped(cmd)
		default:
			return
		}
	}
}

// replyDropped unblocks any reply channel a drained command was carrying,
// with a closed-state error, rather than leaving the sender parked
// forever.
func replyDropped(cmd command) {
	err := fmt.Errorf("render: closed before command was serviced")
	switch c := cmd.(type) {
	case createNodeCmd:
		close(c.Reply)
	case connectCmd:
		c.Reply <- err
	case getCurrentTimeCmd:
		close(c.Reply)
	case getChannelInfoCmd:
		close(c.Reply)
	case setChannelCountCmd:
		c.Reply <- err
	case setChannelModeCmd:
		c.Reply <- err
	case stateChangeCmd:
		c.Reply <- err
	}
}

// handle dispatches one control message between blocks (§4.5). It returns
// true when the render thread must stop (the Close transition completed).
func (r *Render) handle(cmd command) (stop bool) {
	switch c := cmd.(type) {
	case createNodeCmd:
		id := r.g.AddNode(c.Engine)
		c.Reply <- id

	case removeNodeCmd:
		r.g.RemoveNode(c.ID)

	case messageNodeCmd:
		if engine, ok := r.g.Node(c.ID); ok {
			engine.HandleMessage(c.Msg, r.sampleRate)
		}

	case connectCmd:
		c.Reply <- r.g.Connect(c.Src, c.Dest)

	case disconnectCmd:
		r.g.Disconnect(c.Src, c.Dest)

	case getCurrentTimeCmd:
		c.Reply <- r.CurrentTime()

	case getChannelInfoCmd:
		if engine, ok := r.g.Node(c.ID); ok {
			c.Reply <- engine.ChannelInfo()
		} else {
			c.Reply <- node.ChannelInfo{}
		}

	case setChannelCountCmd:
		if engine, ok := r.g.Node(c.ID); ok {
			c.Reply <- engine.SetChannelCount(c.Count)
		} else {
			c.Reply <- fmt.Errorf("render: unknown node %v", c.ID)
		}

	case setChannelModeCmd:
		if engine, ok := r.g.Node(c.ID); ok {
			c.Reply <- engine.SetChannelCountMode(c.Mode)
		} else {
			c.Reply <- fmt.Errorf("render: unknown node %v", c.ID)
		}

	case stateChangeCmd:
		return r.transition(c.To, c.Reply)
	}
	return false
}

// transition performs one state-machine edge (§4.5's table), replying
// synchronously. It returns true only when the Close transition just
// completed, signaling Run to exit.
func (r *Render) transition(to State, reply chan error) bool {
	from := r.State()
	if from == to {
		reply <- nil
		return false
	}

	var err error
	switch {
	case from == Unstarted && to == Running:
		if err = r.sink.Init(r.sampleRate, r.destChannels); err == nil {
			err = r.sink.Play()
		}
	case from == Running && to == Paused:
		err = r.sink.Stop()
	case from == Paused && to == Running:
		err = r.sink.Play()
	case to == Closed:
		err = r.sink.Close()
	default:
		err = fmt.Errorf("invalid transition %s -> %s", from, to)
	}

	if err != nil {
		reply <- &StateChangeError{From: from, To: to, Cause: err}
		return false
	}

	r.log.Info("render state transition", "from", from, "to", to)
	r.state.Store(int32(to))
	reply <- nil
	return to == Closed
}

// The methods below are the client-facing control-message API (§6): each
// constructs the matching command, sends it on r.cmds, and, when the
// command carries a reply channel, blocks on it (RemoveNode, MessageNode
// and Disconnect do not wait for a reply). Safe to call from any goroutine; submission order from a
// single caller goroutine is preserved since the channel serializes sends.

// CreateNode registers engine with the graph and returns its NodeId.
func (r *Render) CreateNode(engine node.Engine) graph.NodeId {
	reply := make(chan graph.NodeId, 1)
	r.cmds <- createNodeCmd{Engine: engine, Reply: reply}
	return <-reply
}

// RemoveNode disconnects and drops a node. Fire-and-forget: ordering with
// respect to the caller's other messages is preserved by channel order,
// but no reply is awaited.
func (r *Render) RemoveNode(id graph.NodeId) {
	r.cmds <- removeNodeCmd{ID: id}
}

// MessageNode dispatches a node-specific control message (§6: SetParam,
// Start/Stop, analyser/buffer-source/panner/listener messages).
func (r *Render) MessageNode(id graph.NodeId, msg node.Message) {
	r.cmds <- messageNodeCmd{ID: id, Msg: msg}
}

// Connect adds an edge, returning a *graph.TopologyError if it would
// create a cycle or references an out-of-range port.
func (r *Render) Connect(src, dest graph.Port) error {
	reply := make(chan error, 1)
	r.cmds <- connectCmd{Src: src, Dest: dest, Reply: reply}
	return <-reply
}

// Disconnect removes an edge, if present.
func (r *Render) Disconnect(src, dest graph.Port) {
	r.cmds <- disconnectCmd{Src: src, Dest: dest}
}

// ChannelInfo returns a node's current channel configuration.
func (r *Render) ChannelInfo(id graph.NodeId) node.ChannelInfo {
	reply := make(chan node.ChannelInfo, 1)
	r.cmds <- getChannelInfoCmd{ID: id, Reply: reply}
	return <-reply
}

// SetChannelCount updates a node's channel count.
func (r *Render) SetChannelCount(id graph.NodeId, count int) error {
	reply := make(chan error, 1)
	r.cmds <- setChannelCountCmd{ID: id, Count: count, Reply: reply}
	return <-reply
}

// SetChannelCountMode updates a node's channel count mode.
func (r *Render) SetChannelCountMode(id graph.NodeId, mode node.ChannelCountMode) error {
	reply := make(chan error, 1)
	r.cmds <- setChannelModeCmd{ID: id, Mode: mode, Reply: reply}
	return <-reply
}

// Resume transitions Unstarted->Running or Paused->Running.
func (r *Render) Resume() error {
	return r.requestState(Running)
}

// Suspend transitions Running->Paused.
func (r *Render) Suspend() error {
	return r.requestState(Paused)
}

// Close transitions any state to Closed and stops the render loop.
func (r *Render) Close() error {
	return r.requestState(Closed)
}

func (r *Render) requestState(to State) error {
	if r.State() == Closed {
		if to == Closed {
			return nil
		}
		return &StateChangeError{From: Closed, To: to, Cause: fmt.Errorf("render thread has already closed")}
	}
	reply := make(chan error, 1)
	r.cmds <- stateChangeCmd{To: to, Reply: reply}
	return <-reply
}
