package io

import (
	"bytes"
	"fmt"
	"maps"
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/dotgraph/pkg/graph"
)

// document is the serialized form of a graph.
type document struct {
	Name     *string     `json:"name,omitempty" yaml:"name,omitempty" toml:"name"`
	Directed bool        `json:"directed" yaml:"directed" toml:"directed"`
	Attrs    *attrTable  `json:"attrs,omitempty" yaml:"attrs,omitempty" toml:"attrs"`
	Nodes    []nodeEntry `json:"nodes" yaml:"nodes" toml:"nodes"`
	Edges    []edgeEntry `json:"edges" yaml:"edges" toml:"edges"`
}

type nodeEntry struct {
	ID    *string    `json:"id" yaml:"id" toml:"id"`
	Attrs *attrTable `json:"attrs,omitempty" yaml:"attrs,omitempty" toml:"attrs"`
}

type edgeEntry struct {
	From  *string    `json:"from" yaml:"from" toml:"from"`
	To    *string    `json:"to" yaml:"to" toml:"to"`
	Key   *string    `json:"key,omitempty" yaml:"key,omitempty" toml:"key"`
	Attrs *attrTable `json:"attrs,omitempty" yaml:"attrs,omitempty" toml:"attrs"`
}

// attrTable is an attribute table in a document. JSON and YAML keep document
// order; TOML tables are decoded in sorted key order.
type attrTable struct {
	m *orderedmap.OrderedMap[string, string]
}

func newAttrTable(pairs []graph.Attr) *attrTable {
	if len(pairs) == 0 {
		return nil
	}
	t := &attrTable{m: orderedmap.New[string, string](len(pairs))}
	for _, kv := range pairs {
		t.m.Set(kv.Key, kv.Value)
	}
	return t
}

func (t *attrTable) pairs() []graph.Attr {
	if t == nil || t.m == nil {
		return nil
	}
	out := make([]graph.Attr, 0, t.m.Len())
	for p := t.m.Oldest(); p != nil; p = p.Next() {
		out = append(out, graph.KV(p.Key, p.Value))
	}
	return out
}

func (t *attrTable) MarshalJSON() ([]byte, error) {
	if t.m == nil {
		return []byte("{}"), nil
	}
	return t.m.MarshalJSON()
}

func (t *attrTable) UnmarshalJSON(data []byte) error {
	t.m = orderedmap.New[string, string]()
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	return t.m.UnmarshalJSON(data)
}

func (t *attrTable) MarshalYAML() (any, error) {
	if t.m == nil {
		return map[string]string{}, nil
	}
	return t.m.MarshalYAML()
}

func (t *attrTable) UnmarshalYAML(value *yaml.Node) error {
	t.m = orderedmap.New[string, string]()
	return t.m.UnmarshalYAML(value)
}

func (t *attrTable) UnmarshalTOML(v any) error {
	raw, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("attrs: expected a table, got %T", v)
	}
	t.m = orderedmap.New[string, string](len(raw))
	for _, k := range slices.Sorted(maps.Keys(raw)) {
		s, ok := raw[k].(string)
		if !ok {
			return fmt.Errorf("attrs: value of %q must be a string, got %T", k, raw[k])
		}
		t.m.Set(k, s)
	}
	return nil
}

func missingEndpoint(e edgeEntry) string {
	switch {
	case e.From == nil && e.To == nil:
		return "from and to"
	case e.From == nil:
		return "from"
	default:
		return "to"
	}
}

// toGraph builds a graph from the document: graph attributes, then nodes,
// then edges, each in document order. A present but empty id or endpoint is
// the node key "".
func (d *document) toGraph() (*graph.Graph, error) {
	name := graph.None[string]()
	if d.Name != nil {
		name = graph.Some(*d.Name)
	}
	g := graph.New(name, d.Directed)

	for _, kv := range d.Attrs.pairs() {
		g.SetAttr(kv.Key, kv.Value)
	}
	for i, n := range d.Nodes {
		if n.ID == nil {
			return nil, fmt.Errorf("node %d: missing id", i)
		}
		g.AddNode(*n.ID, n.Attrs.pairs()...)
	}
	for i, e := range d.Edges {
		if e.From == nil || e.To == nil {
			return nil, fmt.Errorf("edge %d: missing %s", i, missingEndpoint(e))
		}
		key := graph.NoKey()
		if e.Key != nil {
			key = graph.Key(*e.Key)
		}
		g.AddEdge(*e.From, *e.To, key, e.Attrs.pairs()...)
	}
	return g, nil
}

func fromGraph(g *graph.Graph) *document {
	d := &document{
		Directed: g.Directed(),
		Attrs:    newAttrTable(g.Attrs().Pairs()),
		Nodes:    make([]nodeEntry, 0, g.NodeCount()),
		Edges:    make([]edgeEntry, 0, g.EdgeCount()),
	}
	if name, ok := g.Name().Get(); ok {
		d.Name = &name
	}

	for _, key := range g.Nodes() {
		n, _ := g.Node(key)
		d.Nodes = append(d.Nodes, nodeEntry{ID: &key, Attrs: newAttrTable(n.Attrs.Pairs())})
	}
	for _, id := range g.EdgesAll() {
		e, _ := g.Edge(id)
		entry := edgeEntry{From: &id.A, To: &id.B, Attrs: newAttrTable(e.Attrs.Pairs())}
		if k, ok := id.Key.Get(); ok {
			entry.Key = &k
		}
		d.Edges = append(d.Edges, entry)
	}
	return d
}
