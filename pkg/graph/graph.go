package graph

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// EdgeID identifies an edge by its endpoints and optional key.
//
// Two edges with the same endpoints but different keys are distinct. Two
// edges with the same endpoints and the same key (or both keys absent) are the
// same edge. An absent key and a present empty key are different keys.
type EdgeID struct {
	A   string           // First endpoint, as passed to AddEdge
	B   string           // Second endpoint
	Key Optional[string] // Disambiguates parallel edges
}

// IsSelfLoop reports whether both endpoints are the same node.
func (id EdgeID) IsSelfLoop() bool { return id.A == id.B }

// Node is a vertex with its attribute table.
type Node struct {
	Key   string
	Attrs *Attrs
}

// Edge is an edge with its attribute table.
type Edge struct {
	ID    EdgeID
	Attrs *Attrs
}

// Graph is a labeled graph with per-node and per-edge attribute tables.
//
// Nodes are created explicitly with AddNode or implicitly as edge endpoints
// and are never removed. Each edge is stored once in the edge table and
// referenced by EdgeID from the adjacency index of both endpoints, so
// adjacent edges are found without scanning the whole graph.
//
// All traversals follow insertion order. The zero value is not usable - use
// New. Graph is not safe for concurrent use without external synchronization;
// concurrent read-only access (including DOT emission) is safe.
type Graph struct {
	name     Optional[string]
	directed bool
	attrs    *Attrs
	nodes    *orderedmap.OrderedMap[string, *Node]
	edges    *orderedmap.OrderedMap[EdgeID, *Edge]
	adj      map[string]*orderedmap.OrderedMap[EdgeID, struct{}]
}

// New creates an empty graph. Directedness cannot change afterwards.
func New(name Optional[string], directed bool) *Graph {
	return &Graph{
		name:     name,
		directed: directed,
		attrs:    newAttrs(),
		nodes:    orderedmap.New[string, *Node](),
		edges:    orderedmap.New[EdgeID, *Edge](),
		adj:      make(map[string]*orderedmap.OrderedMap[EdgeID, struct{}]),
	}
}

// NewDirected creates an empty directed graph with the given name.
func NewDirected(name string) *Graph { return New(Some(name), true) }

// NewUndirected creates an empty undirected graph with the given name.
func NewUndirected(name string) *Graph { return New(Some(name), false) }

// Name returns the graph name, which may be absent.
func (g *Graph) Name() Optional[string] { return g.name }

// Directed reports whether edges are oriented.
func (g *Graph) Directed() bool { return g.directed }

// Attrs returns the graph-level attribute table.
func (g *Graph) Attrs() *Attrs { return g.attrs }

// SetAttr sets a graph-level attribute.
func (g *Graph) SetAttr(key, value string) { g.attrs.Set(key, value) }

// AddNode inserts the node if absent and merges attrs into its attribute
// table, overwriting existing keys. Calling it repeatedly is idempotent apart
// from attribute updates.
func (g *Graph) AddNode(key string, attrs ...Attr) *Node {
	n := g.ensureNode(key)
	n.Attrs.Merge(attrs...)
	return n
}

// AddNodeAttrs is AddNode for a plain attribute map. Map iteration order is
// random, so keys are merged in sorted order.
func (g *Graph) AddNodeAttrs(key string, attrs map[string]string) *Node {
	return g.AddNode(key, sortedAttrs(attrs)...)
}

// AddEdge ensures both endpoints and the edge (a, b, key) exist, then merges
// attrs into the edge's attribute table with per-key overwrite. Adding the
// same triple twice accumulates attributes on one edge.
func (g *Graph) AddEdge(a, b string, key Optional[string], attrs ...Attr) EdgeID {
	g.ensureNode(a)
	g.ensureNode(b)

	id := EdgeID{A: a, B: b, Key: key}
	e, ok := g.edges.Get(id)
	if !ok {
		e = &Edge{ID: id, Attrs: newAttrs()}
		g.edges.Set(id, e)
		g.adj[a].Set(id, struct{}{})
		g.adj[b].Set(id, struct{}{})
	}
	e.Attrs.Merge(attrs...)
	return id
}

// AddEdgeAttrs is AddEdge for a plain attribute map, merged in sorted key order.
func (g *Graph) AddEdgeAttrs(a, b string, key Optional[string], attrs map[string]string) EdgeID {
	return g.AddEdge(a, b, key, sortedAttrs(attrs)...)
}

func (g *Graph) ensureNode(key string) *Node {
	if n, ok := g.nodes.Get(key); ok {
		return n
	}
	n := &Node{Key: key, Attrs: newAttrs()}
	g.nodes.Set(key, n)
	g.adj[key] = orderedmap.New[EdgeID, struct{}]()
	return n
}

// Nodes returns all node keys in insertion order.
func (g *Graph) Nodes() []string {
	keys := make([]string, 0, g.nodes.Len())
	for p := g.nodes.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

// Node returns the node with the given key and true, or nil and false.
func (g *Graph) Node(key string) (*Node, bool) { return g.nodes.Get(key) }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return g.nodes.Len() }

// EdgeCount returns the number of distinct edges.
func (g *Graph) EdgeCount() int { return g.edges.Len() }

// Edge returns the edge with the given identity and true, or nil and false.
func (g *Graph) Edge(id EdgeID) (*Edge, bool) { return g.edges.Get(id) }

// EdgesAll returns every edge exactly once.
//
// Edges are collected by walking each node's adjacency index and keeping an
// edge only when the node is the edge's first endpoint A. An edge indexed
// under both endpoints is thus reported once, from A's side. A self-loop
// appears once in its node's index and is reported once.
func (g *Graph) EdgesAll() []EdgeID {
	out := make([]EdgeID, 0, g.edges.Len())
	for p := g.nodes.Oldest(); p != nil; p = p.Next() {
		for e := g.adj[p.Key].Oldest(); e != nil; e = e.Next() {
			if e.Key.A == p.Key {
				out = append(out, e.Key)
			}
		}
	}
	return out
}

// EdgesAt returns the edges where node is either endpoint, in insertion
// order. The boolean is false if the node does not exist.
func (g *Graph) EdgesAt(node string) ([]EdgeID, bool) {
	idx, ok := g.adj[node]
	if !ok {
		return nil, false
	}
	out := make([]EdgeID, 0, idx.Len())
	for e := idx.Oldest(); e != nil; e = e.Next() {
		out = append(out, e.Key)
	}
	return out, true
}

// Degree returns the number of edges adjacent to node. The boolean is false
// if the node does not exist, which is distinct from a degree of zero.
func (g *Graph) Degree(node string) (int, bool) {
	idx, ok := g.adj[node]
	if !ok {
		return 0, false
	}
	return idx.Len(), true
}

// InDegree returns the number of adjacent edges whose second endpoint is node.
// For undirected graphs it equals Degree. Self-loops count toward both
// InDegree and OutDegree.
func (g *Graph) InDegree(node string) (int, bool) {
	return g.countAt(node, func(id EdgeID) bool { return id.B == node })
}

// OutDegree returns the number of adjacent edges whose first endpoint is node.
// For undirected graphs it equals Degree.
func (g *Graph) OutDegree(node string) (int, bool) {
	return g.countAt(node, func(id EdgeID) bool { return id.A == node })
}

func (g *Graph) countAt(node string, match func(EdgeID) bool) (int, bool) {
	idx, ok := g.adj[node]
	if !ok {
		return 0, false
	}
	if !g.directed {
		return idx.Len(), true
	}
	n := 0
	for e := idx.Oldest(); e != nil; e = e.Next() {
		if match(e.Key) {
			n++
		}
	}
	return n, true
}
