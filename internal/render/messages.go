package render

import (
	"github.com/bken-audio/graph/internal/graph"
	"github.com/bken-audio/graph/internal/node"
)

// command is the sealed set of control messages the render thread
// multiplexes against sink demand (§4.5). Every variant that returns data
// carries its own reply channel; state-change variants reply synchronously
// once the transition (and its sink action) completes.
type command interface{ isCommand() }

type createNodeCmd struct {
	Engine node.Engine
	Reply  chan graph.NodeId
}

func (createNodeCmd) isCommand() {}

type removeNodeCmd struct {
	ID graph.NodeId
}

func (removeNodeCmd) isCommand() {}

type messageNodeCmd struct {
	ID  graph.NodeId
	Msg node.Message
}

func (messageNodeCmd) isCommand() {}

type connectCmd struct {
	Src, Dest graph.Port
	Reply     chan error
}

func (connectCmd) isCommand() {}

type disconnectCmd struct {
	Src, Dest graph.Port
}

func (disconnectCmd) isCommand() {}

type getCurrentTimeCmd struct {
	Reply chan float64
}

func (getCurrentTimeCmd) isCommand() {}

type getChannelInfoCmd struct {
	ID    graph.NodeId
	Reply chan node.ChannelInfo
}

func (getChannelInfoCmd) isCommand() {}

type setChannelCountCmd struct {
	ID    graph.NodeId
	Count int
	Reply chan error
}

func (setChannelCountCmd) isCommand() {}

type setChannelModeCmd struct {
	ID    graph.NodeId
	Mode  node.ChannelCountMode
	Reply chan error
}

func (setChannelModeCmd) isCommand() {}

// stateChangeCmd drives Suspend/Resume/Close: To names the requested
// target state, and Reply receives nil on success (including the
// already-in-that-state no-op case) or a *StateChangeError.
type stateChangeCmd struct {
	To    State
	Reply chan error
}

func (stateChangeCmd) isCommand() {}
