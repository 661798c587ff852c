// Package plan defines the relational plan tree the analyzer builds and
// the optimizer rewrites: a tagged variant over Scan, Filter, Project, and
// Join -- one node type carrying a Kind tag, over the fixed set of
// relational operators this engine supports.
package plan

import (
	"github.com/wrendb/wrendb/metadata"
	"github.com/wrendb/wrendb/record"
	"github.com/wrendb/wrendb/types"
)

// Kind tags which variant a Node holds.
type Kind int

const (
	ScanKind Kind = iota
	FilterKind
	ProjectKind
	JoinKind
)

func (k Kind) String() string {
	switch k {
	case ScanKind:
		return "Scan"
	case FilterKind:
		return "Filter"
	case ProjectKind:
		return "Project"
	case JoinKind:
		return "Join"
	default:
		return "Unknown"
	}
}

// Node is one node of a relational plan tree. Only the fields relevant to
// its Kind are meaningful; the analyzer and optimizer only ever construct
// nodes through the New* functions below, which populate exactly those.
type Node struct {
	Kind Kind

	Table string // Scan

	Child       *Node          // Filter, Project
	Columns     []record.Column // Project
	IsSelectAll bool           // Project

	Left, Right *Node             // Join
	Conditions  []types.Condition // Filter, Join
}

func NewScan(table string) *Node {
	return &Node{Kind: ScanKind, Table: table}
}

func NewFilter(child *Node, conditions []types.Condition) *Node {
	return &Node{Kind: FilterKind, Child: child, Conditions: conditions}
}

func NewProject(child *Node, columns []record.Column, isSelectAll bool) *Node {
	return &Node{Kind: ProjectKind, Child: child, Columns: columns, IsSelectAll: isSelectAll}
}

func NewJoin(left, right *Node, conditions []types.Condition) *Node {
	return &Node{Kind: JoinKind, Left: left, Right: right, Conditions: conditions}
}

// Tables returns the set of base table names reachable from node, in
// first-encountered order.
func (n *Node) Tables() []string {
	seen := map[string]bool{}
	var out []string
	var walk func(*Node)
	walk = func(node *Node) {
		if node == nil {
			return
		}
		switch node.Kind {
		case ScanKind:
			if !seen[node.Table] {
				seen[node.Table] = true
				out = append(out, node.Table)
			}
		case FilterKind, ProjectKind:
			walk(node.Child)
		case JoinKind:
			walk(node.Left)
			walk(node.Right)
		}
	}
	walk(n)
	return out
}

// Schema returns the ordered column list this node's output records carry,
// resolving base-table columns from cat as needed.
func (n *Node) Schema(cat *metadata.Catalog) ([]record.Column, error) {
	switch n.Kind {
	case ScanKind:
		table, err := cat.GetTable(n.Table)
		if err != nil {
			return nil, err
		}
		return table.Columns, nil
	case FilterKind:
		return n.Child.Schema(cat)
	case ProjectKind:
		if n.IsSelectAll {
			return n.Child.Schema(cat)
		}
		return n.Columns, nil
	case JoinKind:
		left, err := n.Left.Schema(cat)
		if err != nil {
			return nil, err
		}
		right, err := n.Right.Schema(cat)
		if err != nil {
			return nil, err
		}
		out := make([]record.Column, 0, len(left)+len(right))
		out = append(out, left...)
		out = append(out, right...)
		return out, nil
	default:
		return nil, nil
	}
}
