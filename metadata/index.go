package metadata

import (
	"github.com/wrendb/wrendb/dberrors"
	"github.com/wrendb/wrendb/record"
)

// IndexDescriptor is the persisted definition of a CREATE INDEX statement:
// the table it indexes and the ordered column names forming its composite
// key. Index files are named deterministically from these two fields (see
// FileName), so the same CREATE INDEX statement always resolves to the
// same on-disk file across restarts.
type IndexDescriptor struct {
	Name    string
	Table   string
	Columns []string
}

// FileName is the deterministic on-disk name for this index's B+-tree
// file, derived from table and column list per the persisted-state layout.
func (d IndexDescriptor) FileName() string {
	name := d.Table
	for _, c := range d.Columns {
		name += "_" + c
	}
	return name
}

// KeySchema builds the btree key schema for this index's columns, in the
// order the index declares them.
func (d IndexDescriptor) KeySchema(table *TableDescriptor) ([]record.Column, error) {
	cols := make([]record.Column, 0, len(d.Columns))
	for _, name := range d.Columns {
		c, ok := table.Column(name)
		if !ok {
			return nil, &dberrors.ColumnNotFoundError{Table: d.Table, Column: name}
		}
		cols = append(cols, c)
	}
	return cols, nil
}
