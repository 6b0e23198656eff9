package pubsub

import (
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
)

// Tree is the local router's own forwarding table for declarations
// originated at (or forwarded on behalf of) Root: the set of this node's
// direct children in the spanning tree rooted at Root. Per spec.md §4.3,
// walking a Tree only ever visits these direct children — the underlying
// topology service guarantees each of them will, on receipt, continue the
// walk using its own Tree for the same root.
type Tree struct {
	Root   PeerId
	Childs []PeerId
}

// Net is the spanning-tree view the topology service hands to Tables for
// one tier (routers_net or peers_net). It is a concrete default
// implementation of the external collaborator described in spec.md §1/§6,
// built on gonum's graph package the way gravitational-gravity,
// DigitalArsenal-space-data-network and shurlinet-shurli all vendor gonum
// for graph computation.
type Net struct {
	self  PeerId
	graph *simple.UndirectedGraph

	idxOf map[PeerId]int64
	pidOf map[int64]PeerId

	trees map[int64]*Tree
}

// NewNet builds a Net for the node named self from an undirected adjacency
// list (edges are symmetric: if a connects to b, b connects to a).
func NewNet(self PeerId, edges map[PeerId][]PeerId) *Net {
	n := &Net{
		self:  self,
		graph: simple.NewUndirectedGraph(),
		idxOf: make(map[PeerId]int64),
		pidOf: make(map[int64]PeerId),
		trees: make(map[int64]*Tree),
	}

	var nextID int64
	nodeID := func(p PeerId) int64 {
		if id, ok := n.idxOf[p]; ok {
			return id
		}
		id := nextID
		nextID++
		n.idxOf[p] = id
		n.pidOf[id] = p
		n.graph.AddNode(simple.Node(id))
		return id
	}

	for p := range edges {
		nodeID(p)
	}
	for p, neighbors := range edges {
		u := nodeID(p)
		for _, nb := range neighbors {
			v := nodeID(nb)
			if u == v || n.graph.HasEdgeBetween(u, v) {
				continue
			}
			n.graph.SetEdge(simple.Edge{F: simple.Node(u), T: simple.Node(v)})
		}
	}

	n.recomputeTrees()
	return n
}

// GetIdx resolves a PeerId to its node index in the topology graph
// ("net.get_idx(peer_id) → NodeIndex?").
func (n *Net) GetIdx(p PeerId) (int64, bool) {
	idx, ok := n.idxOf[p]
	return idx, ok
}

// PidOf resolves a node index back to a PeerId ("net.graph[node_idx].pid").
func (n *Net) PidOf(idx int64) (PeerId, bool) {
	p, ok := n.pidOf[idx]
	return p, ok
}

// Tree returns the local node's forwarding table for the tree rooted at the
// node indexed by rootIdx ("net.trees[tree_sid]").
func (n *Net) Tree(rootIdx int64) (*Tree, bool) {
	t, ok := n.trees[rootIdx]
	return t, ok
}

// recomputeTrees rebuilds, for every known root, the local node's direct
// children in the BFS spanning tree rooted there. Recomputed wholesale on
// every topology change; the graphs this core operates over are federation-
// sized overlays, not internet-scale, so this is not a hot path.
func (n *Net) recomputeTrees() {
	n.trees = make(map[int64]*Tree)
	nodes := n.graph.Nodes()
	for nodes.Next() {
		root := nodes.Node().ID()
		n.trees[root] = &Tree{
			Root:   n.pidOf[root],
			Childs: n.childrenOfSelfInTreeRootedAt(root),
		}
	}
}

// childrenOfSelfInTreeRootedAt runs a BFS from root over the topology graph
// and returns the PeerIds of n.self's own children in that BFS tree.
func (n *Net) childrenOfSelfInTreeRootedAt(root int64) []PeerId {
	if _, ok := n.pidOf[root]; !ok {
		return nil
	}

	visited := map[int64]bool{root: true}
	queue := []int64{root}
	var selfChildren []int64

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]

		to := n.graph.From(u)
		for to.Next() {
			v := to.Node().ID()
			if visited[v] {
				continue
			}
			visited[v] = true
			if u == n.idxOf[n.self] {
				selfChildren = append(selfChildren, v)
			}
			queue = append(queue, v)
		}
	}

	out := make([]PeerId, 0, len(selfChildren))
	for _, c := range selfChildren {
		out = append(out, n.pidOf[c])
	}
	return out
}

// AddLink adds a symmetric edge between a and b and recomputes every tree.
// It returns the set of new children that appeared in each tree, keyed by
// root node index, for use by pubsub_new_childs (fanout.go).
func (n *Net) AddLink(a, b PeerId) map[int64][]PeerId {
	before := n.snapshotChilds()

	get := func(p PeerId) int64 {
		if id, ok := n.idxOf[p]; ok {
			return id
		}
		id := int64(len(n.idxOf))
		n.idxOf[p] = id
		n.pidOf[id] = p
		n.graph.AddNode(simple.Node(id))
		return id
	}

	ua, ub := get(a), get(b)
	if ua != ub && !n.graph.HasEdgeBetween(ua, ub) {
		n.graph.SetEdge(simple.Edge{F: simple.Node(ua), T: simple.Node(ub)})
	}

	n.recomputeTrees()
	return n.diffNewChilds(before)
}

func (n *Net) snapshotChilds() map[int64][]PeerId {
	out := make(map[int64][]PeerId, len(n.trees))
	for root, tree := range n.trees {
		out[root] = append([]PeerId(nil), tree.Childs...)
	}
	return out
}

func (n *Net) diffNewChilds(before map[int64][]PeerId) map[int64][]PeerId {
	diff := make(map[int64][]PeerId)
	for root, tree := range n.trees {
		prev := make(map[PeerId]struct{}, len(before[root]))
		for _, p := range before[root] {
			prev[p] = struct{}{}
		}
		var fresh []PeerId
		for _, p := range tree.Childs {
			if _, ok := prev[p]; !ok {
				fresh = append(fresh, p)
			}
		}
		if len(fresh) > 0 {
			diff[root] = fresh
		}
	}
	return diff
}

var _ graph.Graph = (*simple.UndirectedGraph)(nil)
