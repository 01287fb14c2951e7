// Package graph owns the node topology, per-port channel mixing, and
// per-block scheduling described in §4.4: a node map keyed by NodeId, a
// connection set, a free-running NodeId allocator, and the topological
// order cache process_block walks every tick.
package graph

import (
	"fmt"
	"sort"

	"github.com/bken-audio/graph/internal/block"
	"github.com/bken-audio/graph/internal/node"
)

// NodeId identifies a node within a Graph. It is a plain counter (not a
// UUID) because §4.4 requires deterministic ordering ties to break on
// NodeId, which an opaque identifier cannot do; grounded on the teacher's
// server/internal/core/channel_state.go atomic.Uint64 id allocator,
// generalized from user ids to node ids.
type NodeId uint64

// Port addresses one input or output port of a node.
type Port struct {
	Node  NodeId
	Index int
}

// TopologyError reports a rejected graph mutation: a cycle, or a
// port index outside a node's declared InputCount/OutputCount (§4.4,
// §7). Topology-rejecting errors are returned to the caller; the graph
// is left unchanged.
type TopologyError struct {
	Op     string
	Detail string
}

func (e *TopologyError) Error() string {
	return fmt.Sprintf("graph topology: %s: %s", e.Op, e.Detail)
}

type edge struct {
	Src  Port
	Dest Port
}

// Graph is the owner of node engines, their connections, and the cached
// topological order process_block walks. It is not safe for concurrent
// use; the render thread is its sole owner (§4.5's concurrency model).
type Graph struct {
	nextID NodeId
	nodes  map[NodeId]node.Engine
	edges  []edge

	topoOrder []NodeId // nil when the cache has been invalidated

	outputCache map[Port]block.Block

	destination NodeId
	hasDest     bool
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes:       make(map[NodeId]node.Engine),
		outputCache: make(map[Port]block.Block),
	}
}

// AddNode registers engine under a freshly allocated NodeId, O(1) (§4.4).
func (g *Graph) AddNode(engine node.Engine) NodeId {
	g.nextID++
	id := g.nextID
	g.nodes[id] = engine
	if _, ok := engine.(*node.Destination); ok && !g.hasDest {
		g.destination = id
		g.hasDest = true
	}
	return id
}

// Node returns the engine registered under id.
func (g *Graph) Node(id NodeId) (node.Engine, bool) {
	e, ok := g.nodes[id]
	return e, ok
}

// RemoveNode disconnects every incident edge and drops the engine (§4.4).
func (g *Graph) RemoveNode(id NodeId) {
	kept := g.edges[:0]
	for _, e := range g.edges {
		if e.Src.Node == id || e.Dest.Node == id {
			continue
		}
		kept = append(kept, e)
	}
	g.edges = kept
	delete(g.nodes, id)
	g.invalidate()
}

// Connect adds an edge from src to dest, rejecting it with a TopologyError
// if it would create a cycle (§4.4: incremental DFS from dest attempting
// to reach src) or if either port index is out of range for its node.
func (g *Graph) Connect(src, dest Port) error {
	srcNode, ok := g.nodes[src.Node]
	if !ok {
		return &TopologyError{Op: "connect", Detail: "unknown source node"}
	}
	destNode, ok := g.nodes[dest.Node]
	if !ok {
		return &TopologyError{Op: "connect", Detail: "unknown destination node"}
	}
	if src.Index < 0 || src.Index >= srcNode.OutputCount() {
		return &TopologyError{Op: "connect", Detail: "source port out of range"}
	}
	if dest.Index < 0 || dest.Index >= destNode.InputCount() {
		return &TopologyError{Op: "connect", Detail: "destination port out of range"}
	}
	if src.Node == dest.Node {
		return &TopologyError{Op: "connect", Detail: "self-loop"}
	}
	if g.canReach(dest.Node, src.Node) {
		return &TopologyError{Op: "connect", Detail: "would create a cycle"}
	}
	g.edges = append(g.edges, edge{Src: src, Dest: dest})
	g.invalidate()
	return nil
}

// Disconnect removes the edge between src and dest, if present.
func (g *Graph) Disconnect(src, dest Port) {
	kept := g.edges[:0]
	for _, e := range g.edges {
		if e.Src == src && e.Dest == dest {
			continue
		}
		kept = append(kept, e)
	}
	g.edges = kept
	g.invalidate()
}

// canReach reports whether from can reach to by following edges forward
// (src -> dest), via depth-first search.
func (g *Graph) canReach(from, to NodeId) bool {
	if from == to {
		return true
	}
	visited := map[NodeId]bool{from: true}
	stack := []NodeId{from}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range g.edges {
			if e.Src.Node != cur {
				continue
			}
			nxt := e.Dest.Node
			if nxt == to {
				return true
			}
			if !visited[nxt] {
				visited[nxt] = true
				stack = append(stack, nxt)
			}
		}
	}
	return false
}

func (g *Graph) invalidate() {
	g.topoOrder = nil
}

// topoSort computes a topological order of all registered nodes using
// Kahn's algorithm, breaking ties by smaller NodeId for determinism
// (§4.4: "for equal dependency depth, smaller NodeId is processed
// first").
func (g *Graph) topoSort() []NodeId {
	inDegree := make(map[NodeId]int, len(g.nodes))
	adj := make(map[NodeId][]NodeId, len(g.nodes))
	for id := range g.nodes {
		inDegree[id] = 0
	}
	for _, e := range g.edges {
		adj[e.Src.Node] = append(adj[e.Src.Node], e.Dest.Node)
		inDegree[e.Dest.Node]++
	}

	ready := make([]NodeId, 0, len(g.nodes))
	for id, d := range inDegree {
		if d == 0 {
			ready = append(ready, id)
		}
	}
	sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })

	order := make([]NodeId, 0, len(g.nodes))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })
		cur := ready[0]
		ready = ready[1:]
		order = append(order, cur)
		for _, next := range adj[cur] {
			inDegree[next]--
			if inDegree[next] == 0 {
				ready = append(ready, next)
			}
		}
	}
	return order
}

// ProcessBlock advances every node by one block in topological order,
// reconciling each input port's channel count per the node's
// ChannelCountMode, and returns the destination's captured chunk (§4.4
// steps 1-5).
func (g *Graph) ProcessBlock(info *block.Info) (block.Chunk, bool) {
	if g.topoOrder == nil {
		g.topoOrder = g.topoSort()
	}
	clear(g.outputCache)

	for _, id := range g.topoOrder {
		engine := g.nodes[id]
		in := g.gatherInputs(id, engine, info)
		out := engine.Process(in, info)
		for i := range out.Blocks {
			g.outputCache[Port{Node: id, Index: i}] = out.Blocks[i]
		}
	}

	if !g.hasDest {
		return block.Chunk{}, false
	}
	destEngine, ok := g.nodes[g.destination]
	if !ok {
		return block.Chunk{}, false
	}
	return destEngine.DestinationData()
}

// gatherInputs builds engine's input chunk by summing, per input port, all
// incoming edges' cached upstream output blocks after mixing each to the
// port's reconciled target channel count (§4.4 step 2-3).
func (g *Graph) gatherInputs(id NodeId, engine node.Engine, info *block.Info) block.Chunk {
	inputCount := engine.InputCount()
	chunk := block.NewChunk(inputCount, engine.ChannelInfo().Count)

	for port := 0; port < inputCount; port++ {
		incoming := g.incomingBlocksFor(Port{Node: id, Index: port})
		if len(incoming) == 0 {
			continue
		}
		maxUp := 0
		for _, b := range incoming {
			if c := b.Channels(); c > maxUp {
				maxUp = c
			}
		}
		target := reconcileTarget(engine.ChannelInfo(), maxUp)
		interp := engine.ChannelInfo().Interpretation

		acc := block.Silence(target)
		for _, b := range incoming {
			mixed := b.Clone()
			mixed.Mix(target, interp)
			acc.Add(&mixed)
		}
		chunk.Blocks[port] = acc
	}
	return chunk
}

func (g *Graph) incomingBlocksFor(dest Port) []block.Block {
	var blocks []block.Block
	for _, e := range g.edges {
		if e.Dest != dest {
			continue
		}
		if b, ok := g.outputCache[e.Src]; ok {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

// reconcileTarget implements §4.4 step 3's per-mode target computation.
func reconcileTarget(info node.ChannelInfo, maxUp int) int {
	switch info.Mode {
	case node.ClampedMax:
		if maxUp < info.Count {
			return maxUp
		}
		return info.Count
	case node.Explicit:
		return info.Count
	default: // Max
		return maxUp
	}
}
