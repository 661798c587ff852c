package exec

import (
	"github.com/wrendb/wrendb/dberrors"
	"github.com/wrendb/wrendb/heap"
	"github.com/wrendb/wrendb/index"
	"github.com/wrendb/wrendb/metadata"
	"github.com/wrendb/wrendb/record"
	"github.com/wrendb/wrendb/tx"
	"github.com/wrendb/wrendb/types"
)

// openIndexes opens every index on table for maintenance during an
// Insert/Update/Delete.
func openIndexes(txn *tx.Transaction, table *metadata.TableDescriptor, descs []*metadata.IndexDescriptor) ([]*index.Index, error) {
	out := make([]*index.Index, len(descs))
	for i, d := range descs {
		keyColumns, err := d.KeySchema(table)
		if err != nil {
			return nil, err
		}
		idx, err := index.Open(txn, d.FileName(), index.SchemaFromColumns(keyColumns))
		if err != nil {
			return nil, err
		}
		out[i] = idx
	}
	return out, nil
}

// indexKeyValues extracts a record's values for an index's key columns, in
// the index's declared column order.
func indexKeyValues(rec record.Record, table *metadata.TableDescriptor, desc *metadata.IndexDescriptor) []types.Value {
	values := make([]types.Value, len(desc.Columns))
	for i, name := range desc.Columns {
		col, _ := table.Column(name)
		values[i] = rec.GetValue(col)
	}
	return values
}

func insertIntoIndexes(heapFile *heap.File, idxs []*index.Index, descs []*metadata.IndexDescriptor, table *metadata.TableDescriptor, rec record.Record, rid record.ID) error {
	for i, idx := range idxs {
		values := indexKeyValues(rec, table, descs[i])
		ok, err := idx.Insert(values, rid)
		if err != nil {
			return err
		}
		if !ok {
			if err := heapFile.Delete(rid); err != nil {
				return err
			}
			return &dberrors.DuplicateKeyError{Index: descs[i].Name}
		}
	}
	return nil
}

func deleteFromIndexes(idxs []*index.Index, descs []*metadata.IndexDescriptor, table *metadata.TableDescriptor, rec record.Record) error {
	for i, idx := range idxs {
		values := indexKeyValues(rec, table, descs[i])
		if _, err := idx.Delete(values); err != nil {
			return err
		}
	}
	return nil
}

// Insert appends each of values, in order, to the table's heap file and
// every index defined on the table. A duplicate key on any unique index
// rolls back that one row's heap insert and fails the statement; rows
// already inserted before it stay inserted (each row commits independently
// against the same transaction).
type Insert struct {
	txn     *tx.Transaction
	table   *metadata.TableDescriptor
	indexes []*metadata.IndexDescriptor
	values  []record.Record

	pos      int
	inserted int
	end      bool
}

func NewInsert(txn *tx.Transaction, table *metadata.TableDescriptor, indexes []*metadata.IndexDescriptor, values []record.Record) *Insert {
	return &Insert{txn: txn, table: table, indexes: indexes, values: values}
}

func (in *Insert) Begin() error {
	in.pos = 0
	in.inserted = 0
	in.end = len(in.values) == 0
	if in.end {
		return nil
	}
	return in.insertAt(in.pos)
}

func (in *Insert) insertAt(pos int) error {
	heapFile, err := heap.Open(in.txn, in.table.Name, in.table.Columns)
	if err != nil {
		return err
	}
	idxs, err := openIndexes(in.txn, in.table, in.indexes)
	if err != nil {
		return err
	}

	rec := in.values[pos]
	rid, err := heapFile.Insert(rec)
	if err != nil {
		return err
	}
	if err := insertIntoIndexes(heapFile, idxs, in.indexes, in.table, rec, rid); err != nil {
		return err
	}
	in.inserted++
	return nil
}

func (in *Insert) Next() (bool, error) {
	in.pos++
	if in.pos >= len(in.values) {
		in.end = true
		return false, nil
	}
	if err := in.insertAt(in.pos); err != nil {
		return false, err
	}
	return true, nil
}

func (in *Insert) IsEnd() bool { return in.end }

func (in *Insert) CurrentRecord() record.Record { return nil }

func (in *Insert) CurrentRID() record.ID { return record.ID{} }

func (in *Insert) OutputColumns() []record.Column { return nil }

func (in *Insert) TupleLength() int { return 0 }

func (in *Insert) Close() {}

// Inserted reports how many rows were successfully inserted.
func (in *Insert) Inserted() int { return in.inserted }

// Delete drives child, a scan over the target table, and removes each
// record it produces from the heap file and from every index on the
// table.
type Delete struct {
	txn     *tx.Transaction
	table   *metadata.TableDescriptor
	indexes []*metadata.IndexDescriptor
	child   Executor

	deleted int
	end     bool
}

func NewDelete(txn *tx.Transaction, table *metadata.TableDescriptor, indexes []*metadata.IndexDescriptor, child Executor) *Delete {
	return &Delete{txn: txn, table: table, indexes: indexes, child: child}
}

func (d *Delete) Begin() error {
	if err := d.child.Begin(); err != nil {
		return err
	}
	d.deleted = 0
	return d.deleteCurrent()
}

func (d *Delete) deleteCurrent() error {
	for {
		if d.child.IsEnd() {
			d.end = true
			return nil
		}
		heapFile, err := heap.Open(d.txn, d.table.Name, d.table.Columns)
		if err != nil {
			return err
		}
		idxs, err := openIndexes(d.txn, d.table, d.indexes)
		if err != nil {
			return err
		}
		rec := d.child.CurrentRecord()
		rid := d.child.CurrentRID()
		if err := deleteFromIndexes(idxs, d.indexes, d.table, rec); err != nil {
			return err
		}
		if err := heapFile.Delete(rid); err != nil {
			return err
		}
		d.deleted++
		return nil
	}
}

func (d *Delete) Next() (bool, error) {
	ok, err := d.child.Next()
	if err != nil {
		return false, err
	}
	if !ok {
		d.end = true
		return false, nil
	}
	if err := d.deleteCurrent(); err != nil {
		return false, err
	}
	return !d.end, nil
}

func (d *Delete) IsEnd() bool { return d.end }

func (d *Delete) CurrentRecord() record.Record { return nil }

func (d *Delete) CurrentRID() record.ID { return record.ID{} }

func (d *Delete) OutputColumns() []record.Column { return nil }

func (d *Delete) TupleLength() int { return 0 }

func (d *Delete) Close() { d.child.Close() }

// Deleted reports how many rows were removed.
func (d *Delete) Deleted() int { return d.deleted }

// Update drives child, a scan over the target table, and for each record
// it produces applies assignments and rewrites the heap row in place.
// Indexes whose key columns are touched by an assignment are updated by
// deleting the old key and inserting the new one; indexes whose keys are
// untouched are left alone.
type Update struct {
	txn         *tx.Transaction
	table       *metadata.TableDescriptor
	indexes     []*metadata.IndexDescriptor
	child       Executor
	assignments []Assignment

	updated int
	end     bool
}

// Assignment is a single SET column = value pair, with value already
// evaluated against the child's current record (allowing expressions like
// `SET total = total + 1`).
type Assignment struct {
	Column record.Column
	Eval   func(rec record.Record) (types.Value, error)
}

func NewUpdate(txn *tx.Transaction, table *metadata.TableDescriptor, indexes []*metadata.IndexDescriptor, child Executor, assignments []Assignment) *Update {
	return &Update{txn: txn, table: table, indexes: indexes, child: child, assignments: assignments}
}

func (u *Update) touchesIndexKey(desc *metadata.IndexDescriptor) bool {
	for _, a := range u.assignments {
		for _, name := range desc.Columns {
			if a.Column.Name == name {
				return true
			}
		}
	}
	return false
}

func (u *Update) Begin() error {
	if err := u.child.Begin(); err != nil {
		return err
	}
	u.updated = 0
	return u.updateCurrent()
}

func (u *Update) updateCurrent() error {
	if u.child.IsEnd() {
		u.end = true
		return nil
	}
	heapFile, err := heap.Open(u.txn, u.table.Name, u.table.Columns)
	if err != nil {
		return err
	}
	idxs, err := openIndexes(u.txn, u.table, u.indexes)
	if err != nil {
		return err
	}

	oldRec := u.child.CurrentRecord()
	rid := u.child.CurrentRID()
	newRec := append(record.Record(nil), oldRec...)
	for _, a := range u.assignments {
		v, err := a.Eval(oldRec)
		if err != nil {
			return err
		}
		if err := newRec.SetValue(a.Column, v); err != nil {
			return err
		}
	}

	touched := make([]bool, len(idxs))
	for i, desc := range u.indexes {
		touched[i] = u.touchesIndexKey(desc)
		if touched[i] {
			if _, err := idxs[i].Delete(indexKeyValues(oldRec, u.table, desc)); err != nil {
				return err
			}
		}
	}
	if err := heapFile.Update(rid, newRec); err != nil {
		return err
	}
	for i, desc := range u.indexes {
		if !touched[i] {
			continue
		}
		ok, err := idxs[i].Insert(indexKeyValues(newRec, u.table, desc), rid)
		if err != nil {
			return err
		}
		if !ok {
			return &dberrors.DuplicateKeyError{Index: desc.Name}
		}
	}
	u.updated++
	return nil
}

func (u *Update) Next() (bool, error) {
	ok, err := u.child.Next()
	if err != nil {
		return false, err
	}
	if !ok {
		u.end = true
		return false, nil
	}
	if err := u.updateCurrent(); err != nil {
		return false, err
	}
	return !u.end, nil
}

func (u *Update) IsEnd() bool { return u.end }

func (u *Update) CurrentRecord() record.Record { return nil }

func (u *Update) CurrentRID() record.ID { return record.ID{} }

func (u *Update) OutputColumns() []record.Column { return nil }

func (u *Update) TupleLength() int { return 0 }

func (u *Update) Close() { u.child.Close() }

// Updated reports how many rows were rewritten.
func (u *Update) Updated() int { return u.updated }
