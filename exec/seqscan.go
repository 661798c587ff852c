package exec

import (
	"github.com/wrendb/wrendb/heap"
	"github.com/wrendb/wrendb/metadata"
	"github.com/wrendb/wrendb/record"
	"github.com/wrendb/wrendb/tx"
	"github.com/wrendb/wrendb/types"
)

// SeqScan iterates a table's heap file in storage order, applying
// conditions directly against each candidate record.
type SeqScan struct {
	txn        *tx.Transaction
	table      *metadata.TableDescriptor
	conditions []types.Condition

	heapFile *heap.File
	scan     *heap.Scan
	end      bool
}

func NewSeqScan(txn *tx.Transaction, table *metadata.TableDescriptor, conditions []types.Condition) *SeqScan {
	return &SeqScan{txn: txn, table: table, conditions: conditions}
}

func (s *SeqScan) Begin() error {
	f, err := heap.Open(s.txn, s.table.Name, s.table.Columns)
	if err != nil {
		return err
	}
	s.heapFile = f
	scan, err := heap.NewScan(f)
	if err != nil {
		return err
	}
	s.scan = scan
	s.end = false
	_, err = s.Next()
	return err
}

func (s *SeqScan) Next() (bool, error) {
	for {
		ok, err := s.scan.Next()
		if err != nil {
			return false, err
		}
		if !ok {
			s.end = true
			return false, nil
		}
		rec, err := s.scan.Record()
		if err != nil {
			return false, err
		}
		match, err := evaluateConditions(s.conditions, s.table.Columns, rec)
		if err != nil {
			return false, err
		}
		if match {
			return true, nil
		}
	}
}

func (s *SeqScan) IsEnd() bool { return s.end }

func (s *SeqScan) CurrentRecord() record.Record {
	rec, err := s.scan.Record()
	if err != nil {
		return nil
	}
	return rec
}

func (s *SeqScan) CurrentRID() record.ID { return s.scan.RID() }

func (s *SeqScan) OutputColumns() []record.Column { return s.table.Columns }

func (s *SeqScan) TupleLength() int { return s.table.Width() }

func (s *SeqScan) Close() {
	if s.scan != nil {
		s.scan.Close()
	}
}
