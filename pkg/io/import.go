package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/dotgraph/pkg/errors"
	"github.com/matzehuels/dotgraph/pkg/graph"
)

// ReadJSON decodes a JSON graph document from r.
//
// The input must be a JSON object with "nodes" and "edges" arrays:
//
//	{
//	  "name": "deps",
//	  "directed": true,
//	  "nodes": [{"id": "a"}, {"id": "b", "attrs": {"shape": "box"}}],
//	  "edges": [{"from": "a", "to": "b", "key": "runtime"}]
//	}
//
// Each node must have an "id" field and each edge "from" and "to" fields.
// An empty string is a valid node key; only an absent or null field is
// rejected.
// Edge endpoints that are not listed under "nodes" are created implicitly.
// An edge without "key" has an absent key, which is distinct from "key": "".
// Attribute values must be strings.
//
// ReadJSON returns an error with code INVALID_INPUT if the JSON is malformed
// or a node or edge lacks a required field. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*graph.Graph, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode JSON")
	}
	return build(&doc)
}

// ReadTOML decodes a TOML graph document from r. Nodes and edges are arrays
// of tables:
//
//	name = "deps"
//	directed = true
//
//	[[nodes]]
//	id = "a"
//	attrs = { shape = "box" }
//
//	[[edges]]
//	from = "a"
//	to = "b"
//	key = "runtime"
//
// TOML tables carry no order, so attributes are applied in sorted key order.
func ReadTOML(r io.Reader) (*graph.Graph, error) {
	var doc document
	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode TOML")
	}
	return build(&doc)
}

// ReadYAML decodes a YAML graph document from r, with the same fields as
// [ReadJSON].
func ReadYAML(r io.Reader) (*graph.Graph, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode YAML")
	}
	return build(&doc)
}

func build(doc *document) (*graph.Graph, error) {
	g, err := doc.toGraph()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid graph document")
	}
	return g, nil
}

// Reader returns the decoder for a file extension (".json", ".toml", ".yaml"
// or ".yml").
func Reader(ext string) (func(io.Reader) (*graph.Graph, error), error) {
	switch strings.ToLower(ext) {
	case ".json":
		return ReadJSON, nil
	case ".toml":
		return ReadTOML, nil
	case ".yaml", ".yml":
		return ReadYAML, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat,
			"unsupported graph file extension %q (want .json, .toml, .yaml or .yml)", ext)
	}
}

// MediaTypeReader returns the decoder for an HTTP media type. An empty media
// type selects JSON.
func MediaTypeReader(mediaType string) (func(io.Reader) (*graph.Graph, error), error) {
	switch strings.ToLower(mediaType) {
	case "", "application/json":
		return ReadJSON, nil
	case "application/toml":
		return ReadTOML, nil
	case "application/yaml", "application/x-yaml", "text/yaml":
		return ReadYAML, nil
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported graph media type %q", mediaType)
	}
}

// ImportFile reads a graph document from path, choosing the decoder by file
// extension. A missing file yields an error with code FILE_NOT_FOUND.
func ImportFile(path string) (*graph.Graph, error) {
	read, err := Reader(filepath.Ext(path))
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "graph file %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return read(f)
}
