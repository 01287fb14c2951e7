// Package registry is the process-wide mutex-guarded table of
// client-identified instances (§5: "used for muting all nodes belonging to
// a browsing context"). It tracks which NodeIds belong to which context,
// nothing more — muting itself is a MessageNode(GainMessage) sent through
// the owning Render, since this package never touches a graph or render
// thread directly and its lock is never held while process_block runs.
//
// Modeled on server/internal/core/channel_state.go's shape: a
// sync.RWMutex-guarded map plus structured logging on mutation.
package registry

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/bken-audio/graph/internal/graph"
)

// ContextID identifies one browsing context (or equivalent client-side
// grouping). Unlike NodeId, it never needs to sort deterministically, so a
// UUID is the right shape here.
type ContextID uuid.UUID

// String returns the canonical UUID text form.
func (c ContextID) String() string { return uuid.UUID(c).String() }

// Registry maps each known ContextID to the set of NodeIds registered
// under it.
type Registry struct {
	mu       sync.RWMutex
	contexts map[ContextID]map[graph.NodeId]struct{}
	log      *slog.Logger
}

// New returns an empty registry.
func New(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		contexts: make(map[ContextID]map[graph.NodeId]struct{}),
		log:      log,
	}
}

// NewContext allocates and registers a fresh, empty context.
func (r *Registry) NewContext() ContextID {
	id := ContextID(uuid.New())

	r.mu.Lock()
	r.contexts[id] = make(map[graph.NodeId]struct{})
	r.mu.Unlock()

	r.log.Debug("registry: context created", "context", id)
	return id
}

// Register associates node with ctx, creating ctx if it is not already
// known.
func (r *Registry) Register(ctx ContextID, node graph.NodeId) {
	r.mu.Lock()
	defer r.mu.Unlock()

	nodes, ok := r.contexts[ctx]
	if !ok {
		nodes = make(map[graph.NodeId]struct{})
		r.contexts[ctx] = nodes
	}
	nodes[node] = struct{}{}
}

// Unregister drops node from ctx, if present. It does not remove an
// emptied context.
func (r *Registry) Unregister(ctx ContextID, node graph.NodeId) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if nodes, ok := r.contexts[ctx]; ok {
		delete(nodes, node)
	}
}

// Nodes returns a snapshot of every NodeId currently registered under ctx.
func (r *Registry) Nodes(ctx ContextID) []graph.NodeId {
	r.mu.RLock()
	defer r.mu.RUnlock()

	nodes := r.contexts[ctx]
	out := make([]graph.NodeId, 0, len(nodes))
	for id := range nodes {
		out = append(out, id)
	}
	return out
}

// DropContext removes ctx and every association it held, returning the
// NodeIds it contained so the caller can tear them down or mute them.
func (r *Registry) DropContext(ctx ContextID) []graph.NodeId {
	r.mu.Lock()
	nodes := r.contexts[ctx]
	delete(r.contexts, ctx)
	r.mu.Unlock()

	out := make([]graph.NodeId, 0, len(nodes))
	for id := range nodes {
		out = append(out, id)
	}
	r.log.Info("registry: context dropped", "context", ctx, "nodes", len(out))
	return out
}

// ContextCount reports how many contexts are currently tracked.
func (r *Registry) ContextCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.contexts)
}
