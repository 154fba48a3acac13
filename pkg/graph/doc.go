// Package graph provides a labeled graph with per-node and per-edge
// attribute tables, used as the input model for DOT emission.
//
// # Overview
//
// A [Graph] is either directed or undirected (fixed at creation), may carry
// an optional name, and holds three kinds of attribute tables: one for the
// graph itself, one per node and one per edge. Attribute tables are string to
// string maps where the last write for a key wins.
//
// # Basic Usage
//
// Create a graph with [New] (or [NewDirected] / [NewUndirected]), then add
// nodes and edges. Edge endpoints are created on demand:
//
//	g := graph.NewDirected("deps")
//	g.SetAttr("rankdir", "LR")
//	g.AddEdge("app", "lib", graph.Key("runtime"), graph.KV("style", "bold"))
//	g.AddNode("lib", graph.KV("shape", "box"))
//
// Mutations never fail: unknown nodes are created implicitly and repeated
// additions merge attributes into the existing entity.
//
// # Multi-edges
//
// An edge is identified by the triple (A, B, key), see [EdgeID]. The key is an
// [Optional] string, so several edges between the same ordered pair of nodes
// can coexist as long as their keys differ. Re-adding an existing triple
// merges attributes rather than creating a duplicate.
//
// # Queries
//
// [Graph.Nodes] and [Graph.EdgesAll] list the graph contents in insertion
// order. [Graph.EdgesAt], [Graph.Degree], [Graph.InDegree] and
// [Graph.OutDegree] read a per-node adjacency index. Queries on an unknown
// node return false as their second result instead of failing, which keeps
// "unknown" distinct from "degree zero".
//
// [Graph.EdgesAll] reports each edge from its first endpoint's index entry
// only. A self-loop (A == B) is indexed once and reported once; it counts once
// toward [Graph.Degree] and once toward each of [Graph.InDegree] and
// [Graph.OutDegree].
//
// # Concurrency
//
// A Graph performs no internal locking. Concurrent mutation must be
// serialized by the caller. Concurrent read-only use, such as rendering the
// same graph from several goroutines, is safe.
package graph
