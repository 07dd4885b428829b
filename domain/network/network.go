// Package network is the directed social network houseowners exchange
// knowledge over. An edge from a to b means a influences b.
package network

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

var (
	// ErrUnknownNode is returned for an edge naming an agent not in the network.
	ErrUnknownNode = errors.New("unknown node")

	// ErrDuplicateNode is returned when an agent id is given twice.
	ErrDuplicateNode = errors.New("duplicate node")

	// ErrInvalidDegree is returned for a negative out-degree.
	ErrInvalidDegree = errors.New("invalid degree")
)

// Network maps agent ids onto a gonum directed graph. Neighbour lists are
// returned in id order so that runs with the same seed are reproducible.
type Network struct {
	g   *simple.DirectedGraph
	ids []string
	idx map[string]int64
}

// New creates a network of isolated nodes.
func New(ids []string) (*Network, error) {
	n := &Network{
		g:   simple.NewDirectedGraph(),
		ids: make([]string, 0, len(ids)),
		idx: make(map[string]int64, len(ids)),
	}
	for _, id := range ids {
		if _, ok := n.idx[id]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, id)
		}
		nid := int64(len(n.ids))
		n.idx[id] = nid
		n.ids = append(n.ids, id)
		n.g.AddNode(simple.Node(nid))
	}
	return n, nil
}

// Random creates a network where every agent influences degree others
// drawn uniformly without replacement. The degree is capped at the number
// of other agents.
func Random(ids []string, degree int, rng *rand.Rand) (*Network, error) {
	if degree < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDegree, degree)
	}
	n, err := New(ids)
	if err != nil {
		return nil, err
	}
	k := min(degree, len(ids)-1)
	if k <= 0 {
		return n, nil
	}

	others := make([]int64, 0, len(ids)-1)
	for from := range int64(len(ids)) {
		others = others[:0]
		for to := range int64(len(ids)) {
			if to != from {
				others = append(others, to)
			}
		}
		// Partial Fisher-Yates: the first k entries become the sample.
		for i := range k {
			j := i + rng.IntN(len(others)-i)
			others[i], others[j] = others[j], others[i]
		}
		for _, to := range others[:k] {
			n.g.SetEdge(n.g.NewEdge(simple.Node(from), simple.Node(to)))
		}
	}
	return n, nil
}

// FromAdjacency rebuilds a network from the successor lists Adjacency
// returns. Every id that appears as a key or a successor becomes a node.
func FromAdjacency(adj map[string][]string) (*Network, error) {
	seen := make(map[string]bool, len(adj))
	var ids []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, from := range sortedKeys(adj) {
		add(from)
		for _, to := range adj[from] {
			add(to)
		}
	}
	slices.Sort(ids)

	n, err := New(ids)
	if err != nil {
		return nil, err
	}
	for from, succs := range adj {
		for _, to := range succs {
			if err := n.Link(from, to); err != nil {
				return nil, err
			}
		}
	}
	return n, nil
}

// Link adds an edge: from influences to. Self loops are ignored.
func (n *Network) Link(from, to string) error {
	u, ok := n.idx[from]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, from)
	}
	v, ok := n.idx[to]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, to)
	}
	if u == v {
		return nil
	}
	n.g.SetEdge(n.g.NewEdge(simple.Node(u), simple.Node(v)))
	return nil
}

// Len returns the number of agents.
func (n *Network) Len() int { return len(n.ids) }

// Edges returns the number of directed edges.
func (n *Network) Edges() int { return n.g.Edges().Len() }

// Predecessors returns the agents that influence id.
func (n *Network) Predecessors(id string) []string {
	nid, ok := n.idx[id]
	if !ok {
		return nil
	}
	return n.names(n.g.To(nid))
}

// Successors returns the agents id influences.
func (n *Network) Successors(id string) []string {
	nid, ok := n.idx[id]
	if !ok {
		return nil
	}
	return n.names(n.g.From(nid))
}

// Components returns the number of weakly connected components.
func (n *Network) Components() int {
	if n.Len() == 0 {
		return 0
	}
	return len(topo.ConnectedComponents(graph.Undirect{G: n.g}))
}

// Adjacency returns the successor list of every agent, for checkpoints.
func (n *Network) Adjacency() map[string][]string {
	adj := make(map[string][]string, len(n.ids))
	for _, id := range n.ids {
		adj[id] = n.Successors(id)
	}
	return adj
}

func (n *Network) names(it graph.Nodes) []string {
	nodes := graph.NodesOf(it)
	out := make([]string, len(nodes))
	for i, node := range nodes {
		out[i] = n.ids[node.ID()]
	}
	slices.Sort(out)
	return out
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
