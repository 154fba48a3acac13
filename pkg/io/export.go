package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/dotgraph/pkg/dot"
	"github.com/matzehuels/dotgraph/pkg/graph"
)

// WriteJSON encodes g as a JSON graph document and writes it to w.
// Nodes and edges are written in the graph's iteration order. The output can
// be re-imported with [ReadJSON] and yields an equivalent graph.
func WriteJSON(w io.Writer, g *graph.Graph) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fromGraph(g)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes g as a JSON graph document to path.
func ExportJSON(path string, g *graph.Graph) error {
	return writeFile(path, func(w io.Writer) error { return WriteJSON(w, g) })
}

// ExportDOT writes the DOT text of g to path.
func ExportDOT(path string, g *graph.Graph, opts dot.Options) error {
	return writeFile(path, func(w io.Writer) error { return dot.Write(w, g, opts) })
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
