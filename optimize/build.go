package optimize

import (
	"github.com/wrendb/wrendb/metadata"
	"github.com/wrendb/wrendb/plan"
	"github.com/wrendb/wrendb/record"
	"github.com/wrendb/wrendb/types"
)

// Build runs the full join-ordering, predicate-pushdown, and
// projection-pushdown pipeline over a fully-analyzed query: tables named
// exactly, conditions and select columns already bound to a table on
// every reference. The result always has a Project at its root, wrapping
// user columns (or every column of every table, for SELECT *).
func Build(tables []string, conditions []types.Condition, selectColumns []record.Column, isSelectAll bool, cat *metadata.Catalog, stats metadata.Statistics) (*plan.Node, error) {
	root, err := buildJoinOrder(tables, conditions, stats)
	if err != nil {
		return nil, err
	}

	root = PushdownPredicates(root, conditions)

	required := newRequired()
	if isSelectAll {
		for _, t := range tables {
			table, err := cat.GetTable(t)
			if err != nil {
				return nil, err
			}
			for _, c := range table.Columns {
				required.add(t, c.Name)
			}
		}
	} else {
		for _, c := range selectColumns {
			required.add(c.Table, c.Name)
		}
	}
	addConditionColumns(required, collectConditions(root))

	root, err = pushdownProjections(root, required, cat)
	if err != nil {
		return nil, err
	}

	return plan.NewProject(root, selectColumns, isSelectAll), nil
}

// collectConditions gathers every Filter/Join condition still attached
// anywhere in the tree, used to compute the globally required column set
// for projection pushdown.
func collectConditions(node *plan.Node) []types.Condition {
	if node == nil {
		return nil
	}
	var out []types.Condition
	switch node.Kind {
	case plan.FilterKind:
		out = append(out, node.Conditions...)
		out = append(out, collectConditions(node.Child)...)
	case plan.ProjectKind:
		out = append(out, collectConditions(node.Child)...)
	case plan.JoinKind:
		out = append(out, node.Conditions...)
		out = append(out, collectConditions(node.Left)...)
		out = append(out, collectConditions(node.Right)...)
	}
	return out
}
