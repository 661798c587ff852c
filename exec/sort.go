package exec

import (
	"sort"

	"github.com/wrendb/wrendb/record"
	"github.com/wrendb/wrendb/types"
)

// Sort materializes its child fully, sorts by one key column in the
// declared direction (ties broken by original, first-produced order),
// then re-emits the sorted records.
type Sort struct {
	child      Executor
	sortColumn record.Column
	descending bool

	records []record.Record
	rids    []record.ID
	idx     int
}

func NewSort(child Executor, sortColumn record.Column, descending bool) *Sort {
	return &Sort{child: child, sortColumn: sortColumn, descending: descending}
}

func (s *Sort) Begin() error {
	if err := s.child.Begin(); err != nil {
		return err
	}
	s.records = nil
	s.rids = nil
	for !s.child.IsEnd() {
		rec := append(record.Record(nil), s.child.CurrentRecord()...)
		s.records = append(s.records, rec)
		s.rids = append(s.rids, s.child.CurrentRID())
		ok, err := s.child.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
	}

	var sortErr error
	order := make([]int, len(s.records))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		cmp, err := types.CompareValues(s.records[order[a]].GetValue(s.sortColumn), s.records[order[b]].GetValue(s.sortColumn))
		if err != nil {
			sortErr = err
			return false
		}
		if s.descending {
			return cmp > 0
		}
		return cmp < 0
	})
	if sortErr != nil {
		return sortErr
	}
	records := make([]record.Record, len(order))
	rids := make([]record.ID, len(order))
	for i, j := range order {
		records[i] = s.records[j]
		rids[i] = s.rids[j]
	}
	s.records, s.rids = records, rids

	s.idx = 0
	return nil
}

func (s *Sort) Next() (bool, error) {
	s.idx++
	return s.idx < len(s.records), nil
}

func (s *Sort) IsEnd() bool { return s.idx >= len(s.records) }

func (s *Sort) CurrentRecord() record.Record { return s.records[s.idx] }

func (s *Sort) CurrentRID() record.ID { return s.rids[s.idx] }

func (s *Sort) OutputColumns() []record.Column { return s.child.OutputColumns() }

func (s *Sort) TupleLength() int { return s.child.TupleLength() }

func (s *Sort) Close() { s.child.Close() }
