// Package index adapts the B+-tree of index/btree to the fixed Value-tuple
// interface the executor and DML operators use: a composite index key is
// always a positional list of types.Value, one per indexed column, in the
// column order metadata.IndexDescriptor declares.
package index

import (
	"github.com/wrendb/wrendb/index/btree"
	"github.com/wrendb/wrendb/record"
	"github.com/wrendb/wrendb/tx"
	"github.com/wrendb/wrendb/types"
)

// Index binds a key schema to a B+-tree, translating between the caller's
// Value tuples and the tree's packed byte keys. The B+-tree is the one
// index structure this engine builds; there is no separate hash-index
// implementation.
type Index struct {
	tree   *btree.Tree
	schema btree.Schema
}

// SchemaFromColumns builds the btree key schema for an index whose key
// columns are columns, in order.
func SchemaFromColumns(columns []record.Column) btree.Schema {
	schema := make(btree.Schema, len(columns))
	for i, c := range columns {
		schema[i] = btree.KeyColumn{Kind: c.Kind, Len: c.Len}
	}
	return schema
}

// Open opens (creating if necessary) the B+-tree file backing indexName,
// keyed by the columns described by schema.
func Open(txn *tx.Transaction, indexName string, schema btree.Schema) (*Index, error) {
	tree, err := btree.Open(txn, indexName, schema)
	if err != nil {
		return nil, err
	}
	return &Index{tree: tree, schema: schema}, nil
}

// Get returns the RID stored under the exact key formed by values, if any.
func (ix *Index) Get(values []types.Value) (record.ID, bool, error) {
	key, err := ix.schema.EncodeKey(values)
	if err != nil {
		return record.ID{}, false, err
	}
	return ix.tree.Get(key)
}

// Insert adds rid under the key formed by values. inserted is false, with
// no error and no mutation, if the key already exists -- uniqueness is
// enforced by the tree itself.
func (ix *Index) Insert(values []types.Value, rid record.ID) (inserted bool, err error) {
	key, err := ix.schema.EncodeKey(values)
	if err != nil {
		return false, err
	}
	_, inserted, err = ix.tree.Insert(key, rid)
	return inserted, err
}

// Delete removes the entry under the key formed by values, reporting
// whether it existed.
func (ix *Index) Delete(values []types.Value) (bool, error) {
	key, err := ix.schema.EncodeKey(values)
	if err != nil {
		return false, err
	}
	return ix.tree.Erase(key)
}

// RangeScan opens a scan over every entry whose key lies in
// [lowerValues, upperValues]. Callers pad partial-prefix bounds with each
// column's MinValue/MaxValue before calling this.
func (ix *Index) RangeScan(lowerValues, upperValues []types.Value) (*btree.Scan, error) {
	lowerKey, err := ix.schema.EncodeKey(lowerValues)
	if err != nil {
		return nil, err
	}
	upperKey, err := ix.schema.EncodeKey(upperValues)
	if err != nil {
		return nil, err
	}
	lower, err := ix.tree.LowerBound(lowerKey)
	if err != nil {
		return nil, err
	}
	upper, err := ix.tree.UpperBound(upperKey)
	if err != nil {
		return nil, err
	}
	return btree.NewScan(ix.tree, lower, upper), nil
}

// EqualScan opens a scan over exactly the entries whose key equals values.
func (ix *Index) EqualScan(values []types.Value) (*btree.Scan, error) {
	key, err := ix.schema.EncodeKey(values)
	if err != nil {
		return nil, err
	}
	lower, err := ix.tree.LowerBound(key)
	if err != nil {
		return nil, err
	}
	upper, err := ix.tree.UpperBound(key)
	if err != nil {
		return nil, err
	}
	return btree.NewScan(ix.tree, lower, upper), nil
}

// FullScan opens a scan over every entry in key order.
func (ix *Index) FullScan() (*btree.Scan, error) {
	begin, err := ix.tree.LeafBegin()
	if err != nil {
		return nil, err
	}
	end, err := ix.tree.LeafEnd()
	if err != nil {
		return nil, err
	}
	return btree.NewScan(ix.tree, begin, end), nil
}

// Schema returns the key schema this index was opened with.
func (ix *Index) Schema() btree.Schema {
	return ix.schema
}
