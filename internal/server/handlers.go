package server

import (
	"bytes"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/matzehuels/dotgraph/pkg/buildinfo"
	"github.com/matzehuels/dotgraph/pkg/errors"
	"github.com/matzehuels/dotgraph/pkg/graph"
	graphio "github.com/matzehuels/dotgraph/pkg/io"
	"github.com/matzehuels/dotgraph/pkg/pipeline"
	"github.com/matzehuels/dotgraph/pkg/render"
)

// DOTMediaType is the content type of DOT text.
const DOTMediaType = "text/vnd.graphviz"

// CacheHeader reports whether a rendered artifact came from the cache.
const CacheHeader = "X-Dotgraph-Cache"

// GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

// POST /v1/dot?escape=bool
func (s *Server) handleDOT(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	g, err := readGraph(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	text := s.runner.Emit(r.Context(), g, opts)
	w.Header().Set("Content-Type", DOTMediaType+"; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, text)
}

// POST /v1/render?engine=name&format=fmt&escape=bool&refresh=bool
//
// A text/vnd.graphviz body is rendered as-is; any other body is decoded as a
// graph document and emitted first.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if f := r.URL.Query().Get("format"); f != "" {
		opts.Formats = []render.Format{render.Format(f)}
	}
	if e := r.URL.Query().Get("engine"); e != "" {
		opts.Engine = render.Engine(e)
	}

	var result *pipeline.Result
	if mediaType(r) == DOTMediaType {
		body, rerr := io.ReadAll(r.Body)
		if rerr != nil {
			s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, rerr, "read body"))
			return
		}
		result, err = s.runner.RenderDOT(r.Context(), string(body), opts)
	} else {
		g, gerr := readGraph(r)
		if gerr != nil {
			s.writeError(w, r, gerr)
			return
		}
		result, err = s.runner.Render(r.Context(), g, opts)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	format := opts.Formats[0]
	cached := "miss"
	if result.CacheInfo.RenderHit {
		cached = "hit"
	}
	w.Header().Set("Content-Type", format.MediaType())
	w.Header().Set(CacheHeader, cached)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[format])
}

// POST /v1/graphs/inspect
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	g, err := readGraph(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, graph.Summarize(g))
}

// options returns the server defaults, limited to one format and overridden
// by the escape and refresh query parameters.
func (s *Server) options(r *http.Request) (pipeline.Options, error) {
	opts := s.defaults
	if len(opts.Formats) > 0 {
		opts.Formats = opts.Formats[:1:1]
	}
	opts.Logger = s.loggerFrom(r.Context())
	opts.SetDefaults()

	q := r.URL.Query()
	for name, dst := range map[string]*bool{"escape": &opts.Escape, "refresh": &opts.Refresh} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "query parameter %s: %q is not a boolean", name, v)
		}
		*dst = b
	}
	return opts, nil
}

func mediaType(r *http.Request) string {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ct
	}
	return mt
}

func readGraph(r *http.Request) (*graph.Graph, error) {
	read, err := graphio.MediaTypeReader(mediaType(r))
	if err != nil {
		return nil, err
	}
	// Buffer first: some decoders drop the reader's error, which would hide
	// an *http.MaxBytesError from statusFor.
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	return read(bytes.NewReader(body))
}
