package dot

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/matzehuels/dotgraph/pkg/graph"
)

// Options configures DOT emission.
type Options struct {
	// Escape quotes the graph name, node IDs and attribute names when they are
	// not plain DOT identifiers, and escapes backslashes, double quotes and
	// line breaks inside quoted strings. When false, names and values are
	// written as-is and values are only wrapped in double quotes.
	Escape bool
}

const indent = "  "

// Render returns the DOT representation of g using default options.
//
// Values are written without escaping: an attribute value containing a double
// quote or a line break produces DOT that Graphviz cannot parse. Use
// [RenderWith] with Options.Escape for untrusted input.
func Render(g *graph.Graph) string {
	return RenderWith(g, Options{})
}

// RenderWith returns the DOT representation of g.
func RenderWith(g *graph.Graph, opts Options) string {
	var buf bytes.Buffer
	_ = Write(&buf, g, opts)
	return buf.String()
}

// Write streams the DOT representation of g to w. It does not modify g.
//
// The output is, in order: the header line, one statement per graph
// attribute, one statement per node, one statement per edge (preceded by a
// comment carrying the edge key when the key is present) and the closing
// brace.
func Write(w io.Writer, g *graph.Graph, opts Options) error {
	bw := bufio.NewWriter(w)
	e := emitter{opts: opts}

	kind, conn := "graph", "--"
	if g.Directed() {
		kind, conn = "digraph", "->"
	}
	fmt.Fprintf(bw, "strict %s %s {\n", kind, e.name(g.Name()))

	for _, kv := range g.Attrs().Pairs() {
		fmt.Fprintf(bw, "%s%s=%s;\n", indent, e.id(kv.Key), e.value(kv.Value))
	}

	for _, key := range g.Nodes() {
		n, _ := g.Node(key)
		fmt.Fprintf(bw, "%s%s%s;\n", indent, e.id(key), e.attrList(n.Attrs))
	}

	for _, id := range g.EdgesAll() {
		if k, ok := id.Key.Get(); ok {
			fmt.Fprintf(bw, "%s// %s\n", indent, e.comment(k))
		}
		edge, _ := g.Edge(id)
		fmt.Fprintf(bw, "%s%s %s %s%s;\n", indent, e.id(id.A), conn, e.id(id.B), e.attrList(edge.Attrs))
	}

	bw.WriteString("}\n")
	return bw.Flush()
}

type emitter struct {
	opts Options
}

func (e emitter) name(n graph.Optional[string]) string {
	s, ok := n.Get()
	if !ok {
		return ""
	}
	return e.id(s)
}

func (e emitter) attrList(a *graph.Attrs) string {
	if a.Len() == 0 {
		return ""
	}
	parts := make([]string, 0, a.Len())
	for _, kv := range a.Pairs() {
		parts = append(parts, e.id(kv.Key)+"="+e.value(kv.Value))
	}
	return " [" + strings.Join(parts, ", ") + "]"
}

func (e emitter) id(s string) string {
	if !e.opts.Escape || isPlainID(s) {
		return s
	}
	return quote(s)
}

func (e emitter) value(s string) string {
	if !e.opts.Escape {
		return `"` + s + `"`
	}
	return quote(s)
}

func (e emitter) comment(s string) string {
	if !e.opts.Escape {
		return s
	}
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}

var (
	identRe   = regexp.MustCompile(`^[A-Za-z_\x{80}-\x{10FFFF}][A-Za-z0-9_\x{80}-\x{10FFFF}]*$`)
	numeralRe = regexp.MustCompile(`^-?(\.[0-9]+|[0-9]+(\.[0-9]*)?)$`)
	keywords  = map[string]bool{"node": true, "edge": true, "graph": true, "digraph": true, "subgraph": true, "strict": true}
)

// isPlainID reports whether s can appear unquoted as a DOT ID.
func isPlainID(s string) bool {
	if keywords[strings.ToLower(s)] {
		return false
	}
	return identRe.MatchString(s) || numeralRe.MatchString(s)
}

var quoteReplacer = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\r\n", `\n`, "\n", `\n`, "\r", `\n`)

func quote(s string) string {
	return `"` + quoteReplacer.Replace(s) + `"`
}
