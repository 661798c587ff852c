// Package analyze binds a parsed parse.Statement to the catalog: it
// resolves every table and column reference, rejects unknown or ambiguous
// names, and hands the coordinator fully-qualified inputs ready for
// optimize.Build or a DML executor -- the parser never touches the
// catalog, and nothing downstream of analyze needs to re-resolve a name.
package analyze

import (
	"fmt"

	"github.com/wrendb/wrendb/dberrors"
	"github.com/wrendb/wrendb/exec"
	"github.com/wrendb/wrendb/metadata"
	"github.com/wrendb/wrendb/parse"
	"github.com/wrendb/wrendb/record"
	"github.com/wrendb/wrendb/types"
)

// SelectQuery is a SELECT statement with every column reference resolved
// to a specific table, ready for optimize.Build.
type SelectQuery struct {
	Tables        []string
	Conditions    []types.Condition
	SelectColumns []record.Column
	IsSelectAll   bool

	HasOrderBy      bool
	OrderColumn     string
	OrderDescending bool
}

// Select resolves a SelectKind statement (or the SELECT wrapped by an
// EXPLAIN statement) against cat.
func Select(stmt *parse.Statement, cat *metadata.Catalog) (*SelectQuery, error) {
	descs, err := loadTables(stmt.FromTables, cat)
	if err != nil {
		return nil, err
	}

	conditions := make([]types.Condition, len(stmt.Conditions))
	for i, c := range stmt.Conditions {
		rc, err := resolveCondition(c, descs, stmt.FromTables)
		if err != nil {
			return nil, err
		}
		conditions[i] = rc
	}

	q := &SelectQuery{Tables: stmt.FromTables, Conditions: conditions, IsSelectAll: stmt.SelectAll}

	if !stmt.SelectAll {
		q.SelectColumns = make([]record.Column, len(stmt.SelectColumns))
		for i, sc := range stmt.SelectColumns {
			col, err := resolveColumnRef(sc.Table, sc.Column, descs, stmt.FromTables)
			if err != nil {
				return nil, err
			}
			q.SelectColumns[i] = col
		}
	}

	if stmt.OrderBy != nil {
		col, err := resolveColumnRef(stmt.OrderBy.Table, stmt.OrderBy.Column, descs, stmt.FromTables)
		if err != nil {
			return nil, err
		}
		q.HasOrderBy = true
		q.OrderColumn = col.Name
		q.OrderDescending = stmt.OrderBy.Descending
	}

	return q, nil
}

// Insert resolves an InsertKind statement, returning the target table and
// the single encoded row it names -- the grammar allows exactly one
// VALUES row per statement.
func Insert(stmt *parse.Statement, cat *metadata.Catalog) (*metadata.TableDescriptor, []record.Record, error) {
	table, err := cat.GetTable(stmt.Table)
	if err != nil {
		return nil, nil, err
	}
	if len(stmt.InsertValues) != len(table.Columns) {
		return nil, nil, &dberrors.SyntaxError{
			Detail: fmt.Sprintf("insert into %s: expected %d values, got %d", stmt.Table, len(table.Columns), len(stmt.InsertValues)),
		}
	}
	rec, err := record.EncodeValues(table.Columns, stmt.InsertValues)
	if err != nil {
		return nil, nil, err
	}
	return table, []record.Record{rec}, nil
}

// Delete resolves a DeleteKind statement's target table and WHERE list.
func Delete(stmt *parse.Statement, cat *metadata.Catalog) (*metadata.TableDescriptor, []types.Condition, error) {
	table, err := cat.GetTable(stmt.Table)
	if err != nil {
		return nil, nil, err
	}
	descs := map[string]*metadata.TableDescriptor{stmt.Table: table}
	conditions := make([]types.Condition, len(stmt.Conditions))
	for i, c := range stmt.Conditions {
		rc, err := resolveCondition(c, descs, []string{stmt.Table})
		if err != nil {
			return nil, nil, err
		}
		conditions[i] = rc
	}
	return table, conditions, nil
}

// Update resolves an UpdateKind statement's target table, WHERE list, and
// SET assignments. Each assignment's value is a literal already parsed
// into a types.Value, so its Eval closure ignores the record it is given.
func Update(stmt *parse.Statement, cat *metadata.Catalog) (*metadata.TableDescriptor, []types.Condition, []exec.Assignment, error) {
	table, err := cat.GetTable(stmt.Table)
	if err != nil {
		return nil, nil, nil, err
	}
	descs := map[string]*metadata.TableDescriptor{stmt.Table: table}
	conditions := make([]types.Condition, len(stmt.Conditions))
	for i, c := range stmt.Conditions {
		rc, err := resolveCondition(c, descs, []string{stmt.Table})
		if err != nil {
			return nil, nil, nil, err
		}
		conditions[i] = rc
	}

	assignments := make([]exec.Assignment, len(stmt.Assignments))
	for i, a := range stmt.Assignments {
		col, ok := table.Column(a.Column)
		if !ok {
			return nil, nil, nil, &dberrors.ColumnNotFoundError{Table: stmt.Table, Column: a.Column}
		}
		value := a.Value
		assignments[i] = exec.Assignment{
			Column: col,
			Eval:   func(record.Record) (types.Value, error) { return value, nil },
		}
	}

	return table, conditions, assignments, nil
}

// CreateTable validates a CreateTableKind statement's column list (no
// duplicate names) and returns it in record.Column form, ready for
// metadata.Catalog.CreateTable.
func CreateTable(stmt *parse.Statement) ([]record.Column, error) {
	seen := map[string]bool{}
	columns := make([]record.Column, len(stmt.Columns))
	for i, c := range stmt.Columns {
		if seen[c.Name] {
			return nil, &dberrors.SyntaxError{Detail: fmt.Sprintf("column %q declared more than once", c.Name)}
		}
		seen[c.Name] = true
		columns[i] = record.Column{Name: c.Name, Kind: c.Kind, Len: c.Len}
	}
	return columns, nil
}

// CreateIndex validates a CreateIndexKind statement's key column list
// against the table's schema and returns the deterministic index name the
// grammar leaves implicit (CREATE INDEX t (c...) never names the index).
func CreateIndex(stmt *parse.Statement, cat *metadata.Catalog) (indexName string, table *metadata.TableDescriptor, err error) {
	table, err = cat.GetTable(stmt.Table)
	if err != nil {
		return "", nil, err
	}
	for _, c := range stmt.Indexed {
		if _, ok := table.Column(c); !ok {
			return "", nil, &dberrors.ColumnNotFoundError{Table: stmt.Table, Column: c}
		}
	}
	return IndexName(stmt.Table, stmt.Indexed), table, nil
}

// IndexName synthesizes the deterministic name CREATE INDEX/DROP INDEX
// resolve to, since the grammar supplies a table and column list but no
// separate index-name token.
func IndexName(table string, columns []string) string {
	name := "idx_" + table
	for _, c := range columns {
		name += "_" + c
	}
	return name
}

func loadTables(tables []string, cat *metadata.Catalog) (map[string]*metadata.TableDescriptor, error) {
	out := make(map[string]*metadata.TableDescriptor, len(tables))
	for _, t := range tables {
		desc, err := cat.GetTable(t)
		if err != nil {
			return nil, err
		}
		out[t] = desc
	}
	return out, nil
}

func resolveCondition(c types.Condition, descs map[string]*metadata.TableDescriptor, tables []string) (types.Condition, error) {
	leftCol, err := resolveColumnRef(c.LeftTable, c.LeftColumn, descs, tables)
	if err != nil {
		return types.Condition{}, err
	}
	out := c
	out.LeftTable = leftCol.Table
	if !c.IsRHSValue {
		rightCol, err := resolveColumnRef(c.RHSTable, c.RHSColumn, descs, tables)
		if err != nil {
			return types.Condition{}, err
		}
		out.RHSTable = rightCol.Table
	}
	return out, nil
}

// resolveColumnRef binds an explicit or unqualified column reference to
// one of the tables in scope, rejecting an unknown table, an unknown
// column, or (for an unqualified reference) a column name present on more
// than one table.
func resolveColumnRef(table, column string, descs map[string]*metadata.TableDescriptor, tables []string) (record.Column, error) {
	if table != "" {
		desc, ok := descs[table]
		if !ok {
			return record.Column{}, &dberrors.TableNotFoundError{Table: table}
		}
		col, ok := desc.Column(column)
		if !ok {
			return record.Column{}, &dberrors.ColumnNotFoundError{Table: table, Column: column}
		}
		return col, nil
	}

	var found record.Column
	matches := 0
	for _, t := range tables {
		if col, ok := descs[t].Column(column); ok {
			found = col
			matches++
		}
	}
	switch matches {
	case 0:
		return record.Column{}, &dberrors.ColumnNotFoundError{Column: column}
	case 1:
		return found, nil
	default:
		return record.Column{}, &dberrors.AmbiguousColumnError{Column: column}
	}
}
