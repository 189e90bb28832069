package chain

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/ib-77/flowgraph/internal/logging"
	"github.com/ib-77/flowgraph/pkg/flow"
)

// Group owns the lifecycle of a set of nodes. Nodes are expected in data
// flow order, producers before their consumers.
type Group struct {
	mu     sync.Mutex
	nodes  []flow.Node
	logger *slog.Logger
}

func NewGroup(nodes ...flow.Node) *Group {
	g := &Group{logger: logging.NewNop()}
	g.Add(nodes...)
	return g
}

func (g *Group) WithLogger(logger *slog.Logger) *Group {
	if logger != nil {
		g.mu.Lock()
		g.logger = logger
		g.mu.Unlock()
	}
	return g
}

// Add appends nodes that are not members yet.
func (g *Group) Add(nodes ...flow.Node) {
	g.mu.Lock()
	defer g.mu.Unlock()

next:
	for _, n := range nodes {
		if flow.IsNil(n) {
			continue
		}
		for _, m := range g.nodes {
			if m.ID() == n.ID() {
				continue next
			}
		}
		g.nodes = append(g.nodes, n)
	}
}

func (g *Group) addAny(v any) {
	if n, ok := v.(flow.Node); ok {
		g.Add(n)
	}
}

func (g *Group) Nodes() []flow.Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]flow.Node(nil), g.nodes...)
}

func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.nodes)
}

// Start starts the consumers before their producers.
func (g *Group) Start() {
	nodes := g.Nodes()
	for i := len(nodes) - 1; i >= 0; i-- {
		nodes[i].StartProcessing()
	}
	g.logger.Debug("group started", "nodes", len(nodes))
}

// Stop stops the producers before their consumers.
func (g *Group) Stop() {
	nodes := g.Nodes()
	for _, n := range nodes {
		n.StopProcessing()
	}
	g.logger.Debug("group stopping", "nodes", len(nodes))
}

// Close closes every node, producers first, and joins their errors. The
// consumers keep draining until their producers are gone.
func (g *Group) Close() error {
	var errs []error
	for _, n := range g.Nodes() {
		if err := n.Close(); err != nil {
			g.logger.Warn("node did not close", "node_id", n.ID().String(), "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
