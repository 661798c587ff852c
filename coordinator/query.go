package coordinator

import (
	"github.com/wrendb/wrendb/analyze"
	"github.com/wrendb/wrendb/exec"
	"github.com/wrendb/wrendb/metadata"
	"github.com/wrendb/wrendb/optimize"
	"github.com/wrendb/wrendb/parse"
	"github.com/wrendb/wrendb/physical"
	"github.com/wrendb/wrendb/plan"
	"github.com/wrendb/wrendb/tx"
)

// buildPlan resolves and optimizes a SELECT statement into a relational
// plan tree, the shared first half of both the select and explain paths.
func buildPlan(stmt *parse.Statement, mgr *metadata.Manager) (*analyze.SelectQuery, *plan.Node, error) {
	q, err := analyze.Select(stmt, mgr.Catalog)
	if err != nil {
		return nil, nil, err
	}
	node, err := optimize.Build(q.Tables, q.Conditions, q.SelectColumns, q.IsSelectAll, mgr.Catalog, mgr.Stats)
	if err != nil {
		return nil, nil, err
	}
	return q, node, nil
}

// lowerPlan turns node into a driven executor, wrapping it in a Sort when
// the originating query carried an ORDER BY -- optimize.Lower has no Sort
// node of its own, so ordering is applied after lowering.
func lowerPlan(q *analyze.SelectQuery, node *plan.Node, txn *tx.Transaction, mgr *metadata.Manager, cfg Config) (exec.Executor, error) {
	physicalNode, err := optimize.Lower(node, mgr.Catalog, optimize.JoinConfig{
		EnableNestLoop:  cfg.EnableNestLoop,
		EnableSortMerge: cfg.EnableSortMerge,
	})
	if err != nil {
		return nil, err
	}
	if q.HasOrderBy {
		physicalNode = &physical.Node{
			Kind:       physical.SortKind,
			Child:      physicalNode,
			SortKey:    q.OrderColumn,
			Descending: q.OrderDescending,
		}
	}
	return exec.Build(physicalNode, txn, mgr.Catalog)
}

// runSelect drives ex to completion, formatting every produced record into
// the bounded response buffer.
func runSelect(ex exec.Executor) (string, error) {
	defer ex.Close()
	columns := ex.OutputColumns()

	buf := &responseBuffer{}
	buf.writeLine(separatorLine(len(columns)))
	buf.writeLine(headerLine(columns))
	buf.writeLine(separatorLine(len(columns)))

	count := 0
	if err := ex.Begin(); err != nil {
		return "", err
	}
	for !ex.IsEnd() {
		buf.writeLine(dataLine(columns, ex.CurrentRecord()))
		count++
		more, err := ex.Next()
		if err != nil {
			return "", err
		}
		if !more {
			break
		}
	}
	buf.writeLine(separatorLine(len(columns)))
	return buf.render(count), nil
}

func selectStatement(stmt *parse.Statement, txn *tx.Transaction, mgr *metadata.Manager, cfg Config) (string, error) {
	q, node, err := buildPlan(stmt, mgr)
	if err != nil {
		return "", err
	}
	ex, err := lowerPlan(q, node, txn, mgr, cfg)
	if err != nil {
		return "", err
	}
	return runSelect(ex)
}

func explainStatement(stmt *parse.Statement, mgr *metadata.Manager) (string, error) {
	_, node, err := buildPlan(stmt.Explain, mgr)
	if err != nil {
		return "", err
	}
	return plan.Explain(node), nil
}
