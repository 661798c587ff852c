package plan

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wrendb/wrendb/record"
	"github.com/wrendb/wrendb/types"
)

// Explain renders node as the pretty-printed plan tree the EXPLAIN
// statement returns: one line per node, children indented by one tab
// relative to their parent, string lists sorted lexicographically within
// a node, and a join's two children reordered for display by node-type
// rank (Filter < Join < Project < Scan) and then by first sorted key.
func Explain(node *Node) string {
	var sb strings.Builder
	explainNode(&sb, node, 0)
	return strings.TrimRight(sb.String(), "\n")
}

func explainNode(sb *strings.Builder, node *Node, depth int) {
	if node == nil {
		return
	}
	sb.WriteString(strings.Repeat("\t", depth))
	sb.WriteString(label(node))
	sb.WriteString("\n")
	for _, child := range displayChildren(node) {
		explainNode(sb, child, depth+1)
	}
}

func label(node *Node) string {
	switch node.Kind {
	case ScanKind:
		return fmt.Sprintf("Scan(table=%s)", node.Table)
	case FilterKind:
		return fmt.Sprintf("Filter(condition=[%s])", strings.Join(sortedConditions(node.Conditions), ","))
	case ProjectKind:
		return fmt.Sprintf("Project(columns=[%s])", strings.Join(sortedColumns(node.Columns), ","))
	case JoinKind:
		return fmt.Sprintf("Join(tables=[%s],condition=[%s])",
			strings.Join(sortedStrings(node.Tables()), ","),
			strings.Join(sortedConditions(node.Conditions), ","))
	default:
		return "?"
	}
}

func displayChildren(node *Node) []*Node {
	switch node.Kind {
	case FilterKind, ProjectKind:
		if node.Child == nil {
			return nil
		}
		return []*Node{node.Child}
	case JoinKind:
		children := []*Node{node.Left, node.Right}
		sort.SliceStable(children, func(i, j int) bool {
			return lessForDisplay(children[i], children[j])
		})
		return children
	default:
		return nil
	}
}

// rank orders node kinds for join-child display: Filter < Join < Project < Scan.
func rank(node *Node) int {
	switch node.Kind {
	case FilterKind:
		return 0
	case JoinKind:
		return 1
	case ProjectKind:
		return 2
	case ScanKind:
		return 3
	default:
		return 4
	}
}

func lessForDisplay(a, b *Node) bool {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra < rb
	}
	return firstKey(a) < firstKey(b)
}

func firstKey(node *Node) string {
	switch node.Kind {
	case ScanKind:
		return node.Table
	case FilterKind:
		cs := sortedConditions(node.Conditions)
		if len(cs) > 0 {
			return cs[0]
		}
	case ProjectKind:
		cs := sortedColumns(node.Columns)
		if len(cs) > 0 {
			return cs[0]
		}
	case JoinKind:
		ts := sortedStrings(node.Tables())
		if len(ts) > 0 {
			return ts[0]
		}
	}
	return ""
}

func sortedConditions(conditions []types.Condition) []string {
	out := make([]string, len(conditions))
	for i, c := range conditions {
		out[i] = c.String()
	}
	sort.Strings(out)
	return out
}

func sortedColumns(columns []record.Column) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.Table + "." + c.Name
	}
	sort.Strings(out)
	return out
}

func sortedStrings(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
