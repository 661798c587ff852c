package exec

import (
	"github.com/wrendb/wrendb/dberrors"
	"github.com/wrendb/wrendb/heap"
	"github.com/wrendb/wrendb/index"
	"github.com/wrendb/wrendb/index/btree"
	"github.com/wrendb/wrendb/metadata"
	"github.com/wrendb/wrendb/record"
	"github.com/wrendb/wrendb/tx"
	"github.com/wrendb/wrendb/types"
)

// IndexScan positions a range scan over the leading prefix of an index's
// key columns matched by conditions: an equality prefix, then at most one
// trailing range condition, then Min/MaxValue padding for the rest. It
// then re-checks every candidate record against the full condition list,
// since the index alone cannot evaluate residual, non-prefix conditions.
type IndexScan struct {
	txn          *tx.Transaction
	table        *metadata.TableDescriptor
	indexDesc    *metadata.IndexDescriptor
	conditions   []types.Condition
	indexColumns []string

	heapFile   *heap.File
	idx        *index.Index
	scan       *btree.Scan
	current    record.Record
	currentRID record.ID
	end        bool
}

func NewIndexScan(txn *tx.Transaction, table *metadata.TableDescriptor, indexDesc *metadata.IndexDescriptor, conditions []types.Condition, indexColumns []string) *IndexScan {
	return &IndexScan{txn: txn, table: table, indexDesc: indexDesc, conditions: conditions, indexColumns: indexColumns}
}

func (s *IndexScan) Begin() error {
	heapFile, err := heap.Open(s.txn, s.table.Name, s.table.Columns)
	if err != nil {
		return err
	}
	s.heapFile = heapFile

	keyColumns, err := s.indexDesc.KeySchema(s.table)
	if err != nil {
		return err
	}
	schema := index.SchemaFromColumns(keyColumns)
	idx, err := index.Open(s.txn, s.indexDesc.FileName(), schema)
	if err != nil {
		return err
	}
	s.idx = idx

	lower, upper, err := buildBounds(s.indexColumns, s.table, s.conditions)
	if err != nil {
		return err
	}
	scan, err := idx.RangeScan(lower, upper)
	if err != nil {
		return err
	}
	s.scan = scan
	s.end = false
	_, err = s.Next()
	return err
}

func (s *IndexScan) Next() (bool, error) {
	for {
		ok, err := s.scan.Next()
		if err != nil {
			return false, err
		}
		if !ok {
			s.end = true
			return false, nil
		}
		_, rid, err := s.scan.Entry()
		if err != nil {
			return false, err
		}
		rec, err := s.heapFile.Get(rid)
		if err != nil {
			return false, err
		}
		match, err := evaluateConditions(s.conditions, s.table.Columns, rec)
		if err != nil {
			return false, err
		}
		if match {
			s.current = rec
			s.currentRID = rid
			return true, nil
		}
	}
}

func (s *IndexScan) IsEnd() bool { return s.end }

func (s *IndexScan) CurrentRecord() record.Record { return s.current }

func (s *IndexScan) CurrentRID() record.ID { return s.currentRID }

func (s *IndexScan) OutputColumns() []record.Column { return s.table.Columns }

func (s *IndexScan) TupleLength() int { return s.table.Width() }

// Close is a no-op: a btree.Scan holds no pinned pages between calls to
// Next, and the underlying heap.File and index.Index hold no state that
// needs releasing either.
func (s *IndexScan) Close() {}

// buildBounds computes the composite lower/upper key value tuples for a
// range scan over indexColumns: an equality value for as long as
// conditions supply one, then at most one range-refined column, then
// Min/MaxValue padding for every trailing column.
func buildBounds(indexColumns []string, table *metadata.TableDescriptor, conditions []types.Condition) ([]types.Value, []types.Value, error) {
	lower := make([]types.Value, len(indexColumns))
	upper := make([]types.Value, len(indexColumns))
	settled := false

	for i, name := range indexColumns {
		col, ok := table.Column(name)
		if !ok {
			return nil, nil, &dberrors.ColumnNotFoundError{Table: table.Name, Column: name}
		}
		if settled {
			lower[i] = types.MinValue(col.Kind, col.Len)
			upper[i] = types.MaxValue(col.Kind, col.Len)
			continue
		}

		var eqVal, lowVal, highVal *types.Value
		for _, c := range conditions {
			if c.LeftColumn != name || c.LeftTable != table.Name || !c.IsRHSValue {
				continue
			}
			v := c.RHSValue
			switch c.Op {
			case types.EQ:
				eqVal = &v
			case types.LT, types.LE:
				highVal = &v
			case types.GT, types.GE:
				lowVal = &v
			}
		}

		switch {
		case eqVal != nil:
			lower[i] = *eqVal
			upper[i] = *eqVal
		case lowVal != nil || highVal != nil:
			if lowVal != nil {
				lower[i] = *lowVal
			} else {
				lower[i] = types.MinValue(col.Kind, col.Len)
			}
			if highVal != nil {
				upper[i] = *highVal
			} else {
				upper[i] = types.MaxValue(col.Kind, col.Len)
			}
			settled = true
		default:
			lower[i] = types.MinValue(col.Kind, col.Len)
			upper[i] = types.MaxValue(col.Kind, col.Len)
			settled = true
		}
	}
	return lower, upper, nil
}
