package graph

import (
	"maps"
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Attr is a single name/value attribute pair.
type Attr struct {
	Key   string
	Value string
}

// KV builds an [Attr].
func KV(key, value string) Attr { return Attr{Key: key, Value: value} }

// Attrs is an attribute table attached to a graph, node or edge.
//
// Keys are unique and the last write for a key wins. Iteration follows first
// insertion order: overwriting a key keeps its original position, so the same
// sequence of mutations always yields the same iteration order.
//
// The zero value is not usable; tables are created by the owning [Graph].
type Attrs struct {
	m *orderedmap.OrderedMap[string, string]
}

func newAttrs() *Attrs {
	return &Attrs{m: orderedmap.New[string, string]()}
}

// Set stores value under key, replacing any previous value.
func (a *Attrs) Set(key, value string) { a.m.Set(key, value) }

// Get returns the value stored under key.
func (a *Attrs) Get(key string) (string, bool) { return a.m.Get(key) }

// Len returns the number of distinct keys.
func (a *Attrs) Len() int { return a.m.Len() }

// Merge applies attrs in order with per-key overwrite.
func (a *Attrs) Merge(attrs ...Attr) {
	for _, kv := range attrs {
		a.m.Set(kv.Key, kv.Value)
	}
}

// Pairs returns a copy of the table in iteration order.
func (a *Attrs) Pairs() []Attr {
	out := make([]Attr, 0, a.m.Len())
	for p := a.m.Oldest(); p != nil; p = p.Next() {
		out = append(out, Attr{Key: p.Key, Value: p.Value})
	}
	return out
}

// Keys returns the attribute names in iteration order.
func (a *Attrs) Keys() []string {
	out := make([]string, 0, a.m.Len())
	for p := a.m.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Key)
	}
	return out
}

// Map returns a copy of the table as a plain map.
func (a *Attrs) Map() map[string]string {
	out := make(map[string]string, a.m.Len())
	for p := a.m.Oldest(); p != nil; p = p.Next() {
		out[p.Key] = p.Value
	}
	return out
}

func sortedAttrs(m map[string]string) []Attr {
	out := make([]Attr, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		out = append(out, Attr{Key: k, Value: m[k]})
	}
	return out
}
