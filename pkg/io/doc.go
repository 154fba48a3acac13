// Package io reads and writes graph documents: declarative descriptions of a
// [graph.Graph] in JSON, TOML or YAML.
//
// # Overview
//
// A graph document lists the graph's name, directedness, graph attributes,
// nodes and edges. It is the input format of the dotgraph CLI and HTTP API,
// and lets external tools produce graphs without linking against Go code.
//
// # Document Format
//
//	{
//	  "name": "deps",
//	  "directed": true,
//	  "attrs": {"rankdir": "LR"},
//	  "nodes": [
//	    {"id": "app", "attrs": {"shape": "box"}},
//	    {"id": "lib"}
//	  ],
//	  "edges": [
//	    {"from": "app", "to": "lib", "key": "runtime", "attrs": {"style": "bold"}}
//	  ]
//	}
//
// Fields:
//   - name: optional; omitted means the graph has no name (distinct from "")
//   - directed: defaults to false
//   - attrs: string values only
//   - nodes[].id: required
//   - edges[].from, edges[].to: required; unknown endpoints are created
//   - edges[].key: optional; omitted means an absent key (distinct from "")
//
// Entries are applied in document order: graph attributes, then nodes, then
// edges. Repeated nodes or edge triples merge their attributes.
//
// # Import
//
// Use [ImportFile] to read a file, choosing the format by extension, or
// [ReadJSON], [ReadTOML] and [ReadYAML] to read from any io.Reader:
//
//	g, err := io.ImportFile("deps.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Export
//
// [WriteJSON] and [ExportJSON] write a graph back as a JSON document.
// Re-importing the result yields an equivalent graph. [ExportDOT] writes the
// emitter output to a file.
//
// # Concurrency
//
// All functions in this package are safe to call concurrently with other
// readers of the same graph, but not with concurrent modifications of it.
package io
