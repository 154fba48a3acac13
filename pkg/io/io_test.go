package io

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/dotgraph/pkg/dot"
	"github.com/matzehuels/dotgraph/pkg/errors"
	"github.com/matzehuels/dotgraph/pkg/graph"
)

const jsonDoc = `{
  "name": "Test Graph",
  "directed": true,
  "attrs": {"fontsize": "32"},
  "nodes": [
    {"id": "c", "attrs": {"color": "blue", "shape": "box"}},
    {"id": "d"}
  ],
  "edges": [
    {"from": "a", "to": "b", "key": "a-to-b", "attrs": {"label": "A to B"}},
    {"from": "b", "to": "a"},
    {"from": "b", "to": "a", "key": ""}
  ]
}`

const tomlDoc = `
name = "Test Graph"
directed = true
attrs = { fontsize = "32" }

[[nodes]]
id = "c"
attrs = { shape = "box", color = "blue" }

[[nodes]]
id = "d"

[[edges]]
from = "a"
to = "b"
key = "a-to-b"
attrs = { label = "A to B" }

[[edges]]
from = "b"
to = "a"

[[edges]]
from = "b"
to = "a"
key = ""
`

const yamlDoc = `
name: Test Graph
directed: true
attrs:
  fontsize: "32"
nodes:
  - id: c
    attrs:
      color: blue
      shape: box
  - id: d
edges:
  - from: a
    to: b
    key: a-to-b
    attrs:
      label: A to B
  - from: b
    to: a
  - from: b
    to: a
    key: ""
`

func TestReaders(t *testing.T) {
	tests := []struct {
		name string
		read func(r *strings.Reader) (*graph.Graph, error)
		doc  string
	}{
		{"json", func(r *strings.Reader) (*graph.Graph, error) { return ReadJSON(r) }, jsonDoc},
		{"toml", func(r *strings.Reader) (*graph.Graph, error) { return ReadTOML(r) }, tomlDoc},
		{"yaml", func(r *strings.Reader) (*graph.Graph, error) { return ReadYAML(r) }, yamlDoc},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := tt.read(strings.NewReader(tt.doc))
			if err != nil {
				t.Fatalf("read: %v", err)
			}

			if name, _ := g.Name().Get(); name != "Test Graph" {
				t.Errorf("Name() = %v", g.Name())
			}
			if !g.Directed() {
				t.Error("Directed() = false")
			}
			if v, _ := g.Attrs().Get("fontsize"); v != "32" {
				t.Errorf("fontsize = %q", v)
			}
			if diff := cmp.Diff([]string{"c", "d", "a", "b"}, g.Nodes()); diff != "" {
				t.Errorf("Nodes() mismatch (-want +got):\n%s", diff)
			}
			if got := g.EdgeCount(); got != 3 {
				t.Errorf("EdgeCount() = %d, want 3", got)
			}
			if _, ok := g.Edge(graph.EdgeID{A: "b", B: "a", Key: graph.NoKey()}); !ok {
				t.Error("edge (b, a, none) missing")
			}
			if _, ok := g.Edge(graph.EdgeID{A: "b", B: "a", Key: graph.Key("")}); !ok {
				t.Error("edge (b, a, \"\") missing")
			}
			e, ok := g.Edge(graph.EdgeID{A: "a", B: "b", Key: graph.Key("a-to-b")})
			if !ok {
				t.Fatal("edge (a, b, a-to-b) missing")
			}
			if v, _ := e.Attrs.Get("label"); v != "A to B" {
				t.Errorf("label = %q", v)
			}
		})
	}
}

func TestReadJSONKeepsAttributeOrder(t *testing.T) {
	g, err := ReadJSON(strings.NewReader(`{"nodes": [{"id": "n", "attrs": {"z": "1", "a": "2"}}], "edges": []}`))
	if err != nil {
		t.Fatal(err)
	}
	n, _ := g.Node("n")
	if diff := cmp.Diff([]string{"z", "a"}, n.Attrs.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadTOMLSortsAttributes(t *testing.T) {
	g, err := ReadTOML(strings.NewReader("[[nodes]]\nid = \"n\"\nattrs = { z = \"1\", a = \"2\" }\n"))
	if err != nil {
		t.Fatal(err)
	}
	n, _ := g.Node("n")
	if diff := cmp.Diff([]string{"a", "z"}, n.Attrs.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"malformed", `{"nodes": [`},
		{"missing node id", `{"nodes": [{"attrs": {}}]}`},
		{"missing endpoint", `{"edges": [{"from": "a"}]}`},
		{"null endpoint", `{"edges": [{"from": null, "to": "a"}]}`},
		{"non-string attr", `{"nodes": [{"id": "a", "attrs": {"size": 3}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.doc))
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("error = %v, want INVALID_INPUT", err)
			}
		})
	}

	if _, err := ReadTOML(strings.NewReader("[[nodes]]\nid = \"a\"\nattrs = { size = 3 }\n")); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("TOML non-string attr error = %v, want INVALID_INPUT", err)
	}
}

func TestReadEmptyNodeKey(t *testing.T) {
	doc := `{"directed": true, "nodes": [{"id": ""}], "edges": [{"from": "", "to": "a"}]}`
	g, err := ReadJSON(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ReadJSON() error: %v", err)
	}
	if diff := cmp.Diff([]string{"", "a"}, g.Nodes()); diff != "" {
		t.Errorf("Nodes() mismatch (-want +got):\n%s", diff)
	}
	if out, ok := g.OutDegree(""); !ok || out != 1 {
		t.Errorf("OutDegree(\"\") = %d, %v; want 1, true", out, ok)
	}
	if got := dot.RenderWith(g, dot.Options{Escape: true}); !strings.Contains(got, `  "" -> a;`) {
		t.Errorf("escaped DOT does not quote the empty key:\n%s", got)
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, g); err != nil {
		t.Fatal(err)
	}
	back, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON(WriteJSON()) error: %v", err)
	}
	if diff := cmp.Diff(g.Nodes(), back.Nodes()); diff != "" {
		t.Errorf("round trip Nodes() mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTrip(t *testing.T) {
	g, err := ReadJSON(strings.NewReader(jsonDoc))
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, g); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	again, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("re-read: %v", err)
	}

	if diff := cmp.Diff(dot.Render(g), dot.Render(again)); diff != "" {
		t.Errorf("round trip changed DOT output (-want +got):\n%s", diff)
	}
}

func TestWriteJSONOmitsAbsentFields(t *testing.T) {
	g := graph.New(graph.None[string](), false)
	g.AddEdge("a", "b", graph.NoKey())

	var buf bytes.Buffer
	if err := WriteJSON(&buf, g); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, field := range []string{`"name"`, `"key"`, `"attrs"`} {
		if strings.Contains(out, field) {
			t.Errorf("output contains %s:\n%s", field, out)
		}
	}
}

func TestImportFile(t *testing.T) {
	dir := t.TempDir()
	for name, doc := range map[string]string{"g.json": jsonDoc, "g.toml": tomlDoc, "g.yml": yamlDoc} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
			t.Fatal(err)
		}
		g, err := ImportFile(path)
		if err != nil {
			t.Errorf("ImportFile(%s): %v", name, err)
			continue
		}
		if g.NodeCount() != 4 {
			t.Errorf("ImportFile(%s): NodeCount() = %d, want 4", name, g.NodeCount())
		}
	}

	if _, err := ImportFile(filepath.Join(dir, "g.xml")); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("unknown extension error = %v, want INVALID_FORMAT", err)
	}
	if _, err := ImportFile(filepath.Join(dir, "missing.json")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestExportDOT(t *testing.T) {
	g, err := ReadJSON(strings.NewReader(jsonDoc))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "g.gv")
	if err := ExportDOT(path, g, dot.Options{}); err != nil {
		t.Fatalf("ExportDOT: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != dot.Render(g) {
		t.Errorf("file content differs from Render():\n%s", data)
	}

	jsonPath := filepath.Join(t.TempDir(), "g.json")
	if err := ExportJSON(jsonPath, g); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	back, err := ImportFile(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	if back.EdgeCount() != g.EdgeCount() {
		t.Errorf("EdgeCount() = %d, want %d", back.EdgeCount(), g.EdgeCount())
	}
}

func TestMediaTypeReader(t *testing.T) {
	tests := []struct {
		mediaType string
		doc       string
	}{
		{"", jsonDoc},
		{"application/json", jsonDoc},
		{"application/toml", tomlDoc},
		{"application/x-yaml", yamlDoc},
	}
	for _, tt := range tests {
		read, err := MediaTypeReader(tt.mediaType)
		if err != nil {
			t.Fatalf("MediaTypeReader(%q): %v", tt.mediaType, err)
		}
		g, err := read(strings.NewReader(tt.doc))
		if err != nil {
			t.Errorf("MediaTypeReader(%q) decode: %v", tt.mediaType, err)
			continue
		}
		if g.NodeCount() != 4 {
			t.Errorf("MediaTypeReader(%q): NodeCount() = %d, want 4", tt.mediaType, g.NodeCount())
		}
	}

	if _, err := MediaTypeReader("text/html"); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("text/html error = %v, want UNSUPPORTED", err)
	}
}
