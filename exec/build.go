package exec

import (
	"fmt"

	"github.com/wrendb/wrendb/dberrors"
	"github.com/wrendb/wrendb/metadata"
	"github.com/wrendb/wrendb/physical"
	"github.com/wrendb/wrendb/record"
	"github.com/wrendb/wrendb/tx"
	"github.com/wrendb/wrendb/types"
)

// Build compiles a query-shaped physical.Node tree (SeqScan, IndexScan,
// Filter, Projection, NestedLoopJoin, SortMergeJoin, Sort) into a driven
// Executor tree. DML and DDL nodes have no executor form of their own --
// the coordinator builds their Insert/Delete/Update executors directly,
// using Build only for the child that supplies the rows to mutate.
func Build(node *physical.Node, txn *tx.Transaction, cat *metadata.Catalog) (Executor, error) {
	switch node.Kind {
	case physical.SeqScanKind:
		table, err := cat.GetTable(node.Table)
		if err != nil {
			return nil, err
		}
		return NewSeqScan(txn, table, node.Conditions), nil

	case physical.IndexScanKind:
		table, err := cat.GetTable(node.Table)
		if err != nil {
			return nil, err
		}
		indexDesc, err := cat.GetIndex(node.IndexName)
		if err != nil {
			return nil, err
		}
		return NewIndexScan(txn, table, indexDesc, node.Conditions, node.IndexColumns), nil

	case physical.FilterKind:
		child, err := Build(node.Child, txn, cat)
		if err != nil {
			return nil, err
		}
		return NewFilter(child, node.Conditions), nil

	case physical.ProjectionKind:
		child, err := Build(node.Child, txn, cat)
		if err != nil {
			return nil, err
		}
		return NewProjection(child, node.Columns), nil

	case physical.NestedLoopJoinKind:
		left, right, err := buildJoinChildren(node, txn, cat)
		if err != nil {
			return nil, err
		}
		return NewNestedLoopJoin(left, right, node.Conditions), nil

	case physical.SortMergeJoinKind:
		left, right, err := buildJoinChildren(node, txn, cat)
		if err != nil {
			return nil, err
		}
		leftKey, rightKey, err := equiJoinKeys(node.Conditions, left, right)
		if err != nil {
			return nil, err
		}
		return NewSortMergeJoin(left, right, leftKey, rightKey, node.Conditions), nil

	case physical.SortKind:
		child, err := Build(node.Child, txn, cat)
		if err != nil {
			return nil, err
		}
		sortColumn, ok := findColumn(child.OutputColumns(), "", node.SortKey)
		if !ok {
			return nil, &dberrors.InvariantError{Detail: fmt.Sprintf("sort key %q not found in child output", node.SortKey)}
		}
		return NewSort(child, sortColumn, node.Descending), nil

	default:
		return nil, &dberrors.InvariantError{Detail: fmt.Sprintf("exec.Build: node kind %v has no executor form", node.Kind)}
	}
}

func buildJoinChildren(node *physical.Node, txn *tx.Transaction, cat *metadata.Catalog) (Executor, Executor, error) {
	left, err := Build(node.Left, txn, cat)
	if err != nil {
		return nil, nil, err
	}
	right, err := Build(node.Right, txn, cat)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

// equiJoinKeys picks the first join condition that equates one column of
// left against one column of right, in either order. Sort-merge join has
// no meaning without such a condition.
func equiJoinKeys(conditions []types.Condition, left, right Executor) (leftKey, rightKey record.Column, err error) {
	for _, c := range conditions {
		if c.Op != types.EQ || c.IsRHSValue {
			continue
		}
		if lc, ok := findColumn(left.OutputColumns(), c.LeftTable, c.LeftColumn); ok {
			if rc, ok := findColumn(right.OutputColumns(), c.RHSTable, c.RHSColumn); ok {
				return lc, rc, nil
			}
		}
		if lc, ok := findColumn(left.OutputColumns(), c.RHSTable, c.RHSColumn); ok {
			if rc, ok := findColumn(right.OutputColumns(), c.LeftTable, c.LeftColumn); ok {
				return lc, rc, nil
			}
		}
	}
	return record.Column{}, record.Column{}, &dberrors.InvariantError{Detail: "sort-merge join requires an equality condition between its two sides"}
}
