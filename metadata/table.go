package metadata

import "github.com/wrendb/wrendb/record"

// TableDescriptor is the in-memory form of a CREATE TABLE statement: a
// name and its ordered, offset-assigned columns. Column order is
// authoritative -- it determines both record layout and the positional
// binding of INSERT VALUES lists.
type TableDescriptor struct {
	Name    string
	Columns []record.Column
}

// Column looks up a column by name, reporting whether it exists.
func (t *TableDescriptor) Column(name string) (record.Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return record.Column{}, false
}

// Width returns the fixed byte width of one record of this table.
func (t *TableDescriptor) Width() int {
	return record.TupleLength(t.Columns)
}
