package parse

import "github.com/wrendb/wrendb/types"

// Kind tags the variety of statement a Statement holds. Only the fields
// documented against that kind are populated.
type Kind int

const (
	CreateTableKind Kind = iota
	DropTableKind
	CreateIndexKind
	DropIndexKind
	InsertKind
	DeleteKind
	UpdateKind
	SelectKind
	ExplainKind
	ShowTablesKind
	ShowIndexKind
	DescKind
	BeginKind
	CommitKind
	RollbackKind
	CheckpointKind
	SetKind
)

// ColumnDef is one column of a CREATE TABLE column list.
type ColumnDef struct {
	Name string
	Kind types.Kind
	Len  int
}

// SelectColumn is one entry of a SELECT column list: either an unqualified
// or table-qualified column reference.
type SelectColumn struct {
	Table  string
	Column string
}

// Assignment is one entry of an UPDATE SET list.
type Assignment struct {
	Column string
	Value  types.Value
}

// OrderBy is an optional ORDER BY clause on a SELECT.
type OrderBy struct {
	Table      string
	Column     string
	Descending bool
}

// Statement is the parser's tagged-variant output: one struct per
// recognized statement form, discriminated by Kind.
type Statement struct {
	Kind Kind

	Table string // most kinds

	Columns []ColumnDef // CreateTable
	Indexed []string    // CreateIndex, DropIndex: key column list

	InsertValues []types.Value // Insert: one row, positional against the table's declared columns

	Assignments []Assignment // Update

	Conditions []types.Condition // Delete, Update, Select: WHERE list (tables left unqualified until analysis)

	SelectAll     bool
	SelectColumns []SelectColumn // Select
	FromTables    []string       // Select
	OrderBy       *OrderBy       // Select

	Explain *Statement // Explain: the wrapped SELECT

	SetName  string // Set
	SetValue bool   // Set
}
