package cli

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/dotgraph/pkg/graph"
)

// List styles
var (
	listDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	listHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// maxEdgeLines bounds the edge list shown under the node table.
const maxEdgeLines = 8

// sortKey orders the node table.
type sortKey int

const (
	sortInsertion sortKey = iota
	sortDegree
	sortInDegree
	sortOutDegree
	sortID
	numSortKeys
)

func (k sortKey) String() string {
	return [...]string{"insertion", "degree", "in-degree", "out-degree", "id"}[k]
}

// sortNodes returns a sorted copy of nodes. Degree orders are descending;
// ties keep insertion order.
func sortNodes(nodes []graph.NodeSummary, key sortKey) []graph.NodeSummary {
	out := slices.Clone(nodes)
	slices.SortStableFunc(out, func(a, b graph.NodeSummary) int {
		switch key {
		case sortDegree:
			return cmp.Compare(b.Degree, a.Degree)
		case sortInDegree:
			return cmp.Compare(b.InDegree, a.InDegree)
		case sortOutDegree:
			return cmp.Compare(b.OutDegree, a.OutDegree)
		case sortID:
			return strings.Compare(a.ID, b.ID)
		default:
			return 0
		}
	})
	return out
}

// =============================================================================
// NodeTableModel - Interactive node browser
// =============================================================================

// NodeTableModel is the bubbletea model for browsing a graph's nodes.
type NodeTableModel struct {
	Graph   *graph.Graph
	Summary graph.Summary
	Rows    []graph.NodeSummary
	Sort    sortKey
	Cursor  int
	Height  int
	Offset  int
}

// NewNodeTableModel creates a new node table model.
func NewNodeTableModel(g *graph.Graph) NodeTableModel {
	s := graph.Summarize(g)
	return NodeTableModel{
		Graph:   g,
		Summary: s,
		Rows:    s.Nodes,
		Height:  15,
	}
}

func (m NodeTableModel) Init() tea.Cmd {
	return nil
}

func (m NodeTableModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.Rows)-1 {
				m.Cursor++
			}
		case "home", "g":
			m.Cursor = 0
		case "end", "G":
			m.Cursor = max(len(m.Rows)-1, 0)
		case "s":
			m.Sort = (m.Sort + 1) % numSortKeys
			m.Rows = sortNodes(m.Summary.Nodes, m.Sort)
			m.Cursor, m.Offset = 0, 0
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-maxEdgeLines-10, 5)
	}

	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
	return m, nil
}

func (m NodeTableModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(graphTitle(m.Summary)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("↑/↓ navigate  s sort (%s)  q quit", m.Sort)))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Rows))
	b.WriteString(nodeTable(m.Rows[m.Offset:end], m.Cursor-m.Offset).Render())
	b.WriteString("\n")

	if len(m.Rows) > 0 {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Rows))))
		b.WriteString("\n\n")
		b.WriteString(m.edgeList(m.Rows[m.Cursor].ID))
	}
	return b.String()
}

// edgeList renders the edges incident to node.
func (m NodeTableModel) edgeList(node string) string {
	var b strings.Builder
	edges, _ := m.Graph.EdgesAt(node)
	b.WriteString(StyleHighlight.Render(fmt.Sprintf("Edges at %s (%d)", node, len(edges))))
	b.WriteString("\n")
	for i, id := range edges {
		if i == maxEdgeLines {
			b.WriteString(listDimStyle.Render(fmt.Sprintf("  … %d more", len(edges)-maxEdgeLines)))
			b.WriteString("\n")
			break
		}
		b.WriteString("  " + formatEdge(id, m.Summary.Directed) + "\n")
	}
	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

func graphTitle(s graph.Summary) string {
	kind := "undirected"
	if s.Directed {
		kind = "directed"
	}
	name := s.Name
	if name == "" {
		name = "(unnamed)"
	}
	return fmt.Sprintf("%s · %s · %d nodes · %d edges", name, kind, s.NodeCount, s.EdgeCount)
}

func formatEdge(id graph.EdgeID, directed bool) string {
	conn := "--"
	if directed {
		conn = "->"
	}
	line := fmt.Sprintf("%s %s %s", id.A, conn, id.B)
	if k, ok := id.Key.Get(); ok {
		line += StyleDim.Render(fmt.Sprintf("  key=%q", k))
	}
	return line
}

// nodeTable renders rows as a bordered table. selected is the highlighted
// row index, or -1 for none.
func nodeTable(rows []graph.NodeSummary, selected int) *table.Table {
	data := make([][]string, len(rows))
	for i, n := range rows {
		data[i] = []string{
			n.ID,
			fmt.Sprint(n.Degree),
			fmt.Sprint(n.InDegree),
			fmt.Sprint(n.OutDegree),
			fmt.Sprint(n.Attrs),
		}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Node", "Degree", "In", "Out", "Attrs").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return listHeaderStyle
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if row == selected {
				return base.Foreground(colorCyan).Bold(true)
			}
			if col > 0 && rows[row].Degree == 0 {
				return base.Foreground(colorDim)
			}
			return base.Foreground(colorWhite)
		})
}
