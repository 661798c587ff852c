package optimize

import (
	"fmt"

	"github.com/wrendb/wrendb/metadata"
	"github.com/wrendb/wrendb/physical"
	"github.com/wrendb/wrendb/plan"
	"github.com/wrendb/wrendb/types"
)

// JoinConfig carries the two join-algorithm SET knobs lowering needs; at
// least one must be enabled.
type JoinConfig struct {
	EnableNestLoop  bool
	EnableSortMerge bool
}

// Lower turns a fully-optimized relational plan tree into a physical plan
// tree, choosing SeqScan vs IndexScan per Scan and NestedLoop vs SortMerge
// per Join according to cfg.
func Lower(node *plan.Node, cat *metadata.Catalog, cfg JoinConfig) (*physical.Node, error) {
	if !cfg.EnableNestLoop && !cfg.EnableSortMerge {
		return nil, fmt.Errorf("optimize: no join algorithm enabled")
	}

	switch node.Kind {
	case plan.ScanKind:
		return lowerScan(node.Table, nil, cat)

	case plan.FilterKind:
		if node.Child.Kind == plan.ScanKind {
			return lowerScan(node.Child.Table, node.Conditions, cat)
		}
		child, err := Lower(node.Child, cat, cfg)
		if err != nil {
			return nil, err
		}
		return &physical.Node{Kind: physical.FilterKind, Child: child, Conditions: node.Conditions}, nil

	case plan.ProjectKind:
		child, err := Lower(node.Child, cat, cfg)
		if err != nil {
			return nil, err
		}
		if node.IsSelectAll {
			return child, nil
		}
		return &physical.Node{Kind: physical.ProjectionKind, Child: child, Columns: node.Columns}, nil

	case plan.JoinKind:
		left, err := Lower(node.Left, cat, cfg)
		if err != nil {
			return nil, err
		}
		right, err := Lower(node.Right, cat, cfg)
		if err != nil {
			return nil, err
		}
		kind := physical.NestedLoopJoinKind
		if !cfg.EnableNestLoop {
			kind = physical.SortMergeJoinKind
		}
		return &physical.Node{Kind: kind, Left: left, Right: right, Conditions: node.Conditions}, nil

	default:
		return nil, fmt.Errorf("optimize: cannot lower plan node kind %v", node.Kind)
	}
}

// lowerScan chooses SeqScan or IndexScan for table, given the conditions
// attached directly above it (nil if none). It picks the longest prefix
// of some index on table whose columns are all referenced by conditions,
// preferring the prefix with the most equality conditions among ties, and
// only when the matched length does not exceed the number of conditions.
func lowerScan(table string, conditions []types.Condition, cat *metadata.Catalog) (*physical.Node, error) {
	indexes, err := cat.IndexesOnTable(table)
	if err != nil {
		return nil, err
	}

	byColumn := map[string][]types.Condition{}
	for _, c := range conditions {
		byColumn[c.LeftColumn] = append(byColumn[c.LeftColumn], c)
	}

	var bestPrefix []string
	bestLen, bestEq := 0, -1
	for _, idx := range indexes {
		length, equalities := matchPrefix(idx.Columns, byColumn)
		if length == 0 || length > len(conditions) {
			continue
		}
		if length > bestLen || (length == bestLen && equalities > bestEq) {
			bestLen = length
			bestEq = equalities
			bestPrefix = idx.Columns[:length]
			bestPrefix = append([]string(nil), bestPrefix...)
		}
	}

	if bestPrefix == nil {
		return &physical.Node{Kind: physical.SeqScanKind, Table: table, Conditions: conditions}, nil
	}

	var indexName string
	for _, idx := range indexes {
		if len(idx.Columns) >= len(bestPrefix) && sameStringPrefix(idx.Columns, bestPrefix) {
			indexName = idx.Name
			break
		}
	}

	return &physical.Node{
		Kind:         physical.IndexScanKind,
		Table:        table,
		Conditions:   conditions,
		IndexName:    indexName,
		IndexColumns: bestPrefix,
	}, nil
}

func matchPrefix(indexColumns []string, byColumn map[string][]types.Condition) (length, equalities int) {
	for _, col := range indexColumns {
		conds, ok := byColumn[col]
		if !ok {
			break
		}
		length++
		for _, c := range conds {
			if c.Op == types.EQ {
				equalities++
			}
		}
	}
	return length, equalities
}

func sameStringPrefix(full, prefix []string) bool {
	if len(full) < len(prefix) {
		return false
	}
	for i, c := range prefix {
		if full[i] != c {
			return false
		}
	}
	return true
}
