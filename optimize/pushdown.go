package optimize

import (
	"github.com/wrendb/wrendb/metadata"
	"github.com/wrendb/wrendb/plan"
	"github.com/wrendb/wrendb/record"
	"github.com/wrendb/wrendb/types"
)

// pushdownPredicates walks node top-down carrying a mutable residual
// condition list. At a Join it partitions residuals into left-only,
// right-only, and cross (referencing one table from each side); cross
// conditions become the Join's own Conditions, left/right-only ones
// recurse into the matching child. At a Scan, conditions referencing only
// its table attach via a wrapping Filter. Whatever cannot be attributed
// anywhere bubbles back up to the caller as the returned residual list.
func pushdownPredicates(node *plan.Node, residuals []types.Condition) (*plan.Node, []types.Condition) {
	switch node.Kind {
	case plan.ScanKind:
		var mine, rest []types.Condition
		for _, c := range residuals {
			if referencesOnly(c, node.Table) {
				mine = append(mine, c)
			} else {
				rest = append(rest, c)
			}
		}
		if len(mine) > 0 {
			node = plan.NewFilter(node, mine)
		}
		return node, rest

	case plan.JoinKind:
		leftTables := tableSet(node.Left.Tables())
		rightTables := tableSet(node.Right.Tables())

		var leftOnly, rightOnly, cross, other []types.Condition
		for _, c := range residuals {
			refs := c.Tables()
			switch classify(refs, leftTables, rightTables) {
			case sideLeft:
				leftOnly = append(leftOnly, c)
			case sideRight:
				rightOnly = append(rightOnly, c)
			case sideCross:
				cross = append(cross, c)
			default:
				other = append(other, c)
			}
		}

		newLeft, leftSurvive := pushdownPredicates(node.Left, leftOnly)
		newRight, rightSurvive := pushdownPredicates(node.Right, rightOnly)

		node.Left = newLeft
		node.Right = newRight
		node.Conditions = cross

		other = append(other, leftSurvive...)
		other = append(other, rightSurvive...)
		return node, other

	default:
		return node, residuals
	}
}

// PushdownPredicates is the entry point: it runs pushdownPredicates over
// the whole tree and wraps any leftover residual (a condition that could
// not be attributed to any table or join, which should not arise from a
// validly analyzed query) in a Filter at the very top.
func PushdownPredicates(root *plan.Node, conditions []types.Condition) *plan.Node {
	root, leftover := pushdownPredicates(root, conditions)
	if len(leftover) > 0 {
		root = plan.NewFilter(root, leftover)
	}
	return root
}

type side int

const (
	sideNeither side = iota
	sideLeft
	sideRight
	sideCross
)

func classify(refs []string, left, right map[string]bool) side {
	var onLeft, onRight bool
	for _, t := range refs {
		if left[t] {
			onLeft = true
		}
		if right[t] {
			onRight = true
		}
	}
	switch {
	case onLeft && onRight:
		return sideCross
	case onLeft:
		return sideLeft
	case onRight:
		return sideRight
	default:
		return sideNeither
	}
}

func tableSet(tables []string) map[string]bool {
	set := make(map[string]bool, len(tables))
	for _, t := range tables {
		set[t] = true
	}
	return set
}

// referencesOnly reports whether c mentions table and no other table.
func referencesOnly(c types.Condition, table string) bool {
	refs := c.Tables()
	if len(refs) != 1 {
		return false
	}
	return refs[0] == table
}

// requiredColumns maps table name to the set of column names needed from it.
type requiredColumns map[string]map[string]bool

func newRequired() requiredColumns {
	return requiredColumns{}
}

func (r requiredColumns) add(table, column string) {
	set, ok := r[table]
	if !ok {
		set = map[string]bool{}
		r[table] = set
	}
	set[column] = true
}

func (r requiredColumns) restrictedTo(tables map[string]bool) requiredColumns {
	out := newRequired()
	for t, cols := range r {
		if tables[t] {
			for c := range cols {
				out.add(t, c)
			}
		}
	}
	return out
}

func addConditionColumns(r requiredColumns, conditions []types.Condition) {
	for _, c := range conditions {
		r.add(c.LeftTable, c.LeftColumn)
		if !c.IsRHSValue {
			r.add(c.RHSTable, c.RHSColumn)
		}
	}
}

// pushdownProjections walks node top-down, inserting a Project immediately
// above any Scan whose full column set exceeds what required demands.
func pushdownProjections(node *plan.Node, required requiredColumns, cat *metadata.Catalog) (*plan.Node, error) {
	switch node.Kind {
	case plan.ScanKind:
		table, err := cat.GetTable(node.Table)
		if err != nil {
			return nil, err
		}
		needed := required[node.Table]
		if needed == nil || len(needed) >= len(table.Columns) {
			return node, nil
		}
		var cols []record.Column
		for _, c := range table.Columns {
			if needed[c.Name] {
				cols = append(cols, c)
			}
		}
		if len(cols) == len(table.Columns) {
			return node, nil
		}
		return plan.NewProject(node, cols, false), nil

	case plan.FilterKind:
		req := newRequired()
		for t, cols := range required {
			for c := range cols {
				req.add(t, c)
			}
		}
		addConditionColumns(req, node.Conditions)
		child, err := pushdownProjections(node.Child, req, cat)
		if err != nil {
			return nil, err
		}
		node.Child = child
		return node, nil

	case plan.JoinKind:
		leftTables := tableSet(node.Left.Tables())
		rightTables := tableSet(node.Right.Tables())

		leftReq := required.restrictedTo(leftTables)
		rightReq := required.restrictedTo(rightTables)
		addConditionColumns(leftReq, filterBySide(node.Conditions, leftTables))
		addConditionColumns(rightReq, filterBySide(node.Conditions, rightTables))

		left, err := pushdownProjections(node.Left, leftReq, cat)
		if err != nil {
			return nil, err
		}
		right, err := pushdownProjections(node.Right, rightReq, cat)
		if err != nil {
			return nil, err
		}
		node.Left = left
		node.Right = right
		return node, nil

	default:
		return node, nil
	}
}

func filterBySide(conditions []types.Condition, side map[string]bool) []types.Condition {
	var out []types.Condition
	for _, c := range conditions {
		if side[c.LeftTable] || (!c.IsRHSValue && side[c.RHSTable]) {
			out = append(out, c)
		}
	}
	return out
}
