// Package dot renders a [graph.Graph] as Graphviz DOT text.
//
// # Usage
//
//	g := graph.NewDirected("deps")
//	g.AddEdge("app", "lib", graph.Key("runtime"), graph.KV("label", "uses"))
//	text := dot.Render(g)
//
// produces
//
//	strict digraph deps {
//	  app;
//	  lib;
//	  // runtime
//	  app -> lib [label="uses"];
//	}
//
// # Output
//
// The header is always `strict digraph` or `strict graph` followed by the
// graph name (empty when the graph has none). Graph attributes, nodes and
// edges follow in insertion order, each statement on its own line. Nodes and
// edges without attributes are written without a bracket list. Edges with a
// key are preceded by a `//` comment carrying the key; the connector is `->`
// for directed graphs and `--` otherwise.
//
// Rendering is a pure function of the graph: the same graph always produces
// the same text, and the graph is never modified.
//
// # Escaping
//
// By default names are written verbatim and attribute values are wrapped in
// double quotes without any escaping. A value that contains a double quote or
// a line break, or a graph name with spaces, is copied into the output as-is
// and may not be accepted by Graphviz. Set [Options].Escape to quote and
// escape everything that needs it.
//
// [graph.Graph]: github.com/matzehuels/dotgraph/pkg/graph.Graph
package dot
