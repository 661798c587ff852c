// Package physical defines the physical plan tree the optimizer's
// lowering phase produces and the coordinator hands to the executor
// package: relational operators paired with a concrete physical operator
// (sequential vs index scan, nested-loop vs sort-merge join), plus the
// DML and DDL wrapper nodes the coordinator dispatches on.
package physical

import (
	"github.com/wrendb/wrendb/record"
	"github.com/wrendb/wrendb/types"
)

type Kind int

const (
	SeqScanKind Kind = iota
	IndexScanKind
	NestedLoopJoinKind
	SortMergeJoinKind
	FilterKind
	ProjectionKind
	SortKind
	DMLKind
	DDLKind
)

// DMLOp is the kind of a DML statement's side effect.
type DMLOp int

const (
	InsertOp DMLOp = iota
	UpdateOp
	DeleteOp
	SelectOp
)

// DDLOp is the kind of a DDL statement.
type DDLOp int

const (
	CreateTableOp DDLOp = iota
	DropTableOp
	CreateIndexOp
	DropIndexOp
)

// Assignment is one "column = value" pair of an UPDATE statement's SET list.
type Assignment struct {
	Column string
	Value  types.Value
}

// Node is one physical plan node. As with plan.Node, only the fields
// relevant to Kind are populated.
type Node struct {
	Kind Kind

	// SeqScan, IndexScan
	Table        string
	Conditions   []types.Condition
	IndexName    string
	IndexColumns []string

	// NestedLoopJoin, SortMergeJoin
	Left, Right *Node

	// Filter, Projection, Sort, DML child
	Child *Node

	// Projection
	Columns []record.Column

	// Sort
	SortKey    string
	Descending bool

	// DML
	DML         DMLOp
	DMLTable    string
	Values      [][]types.Value
	Assignments []Assignment

	// DDL
	DDL            DDLOp
	DDLTable       string
	ColumnDefs     []record.Column
	DDLIndexName   string
	DDLIndexColumns []string
}
