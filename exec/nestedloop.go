package exec

import (
	"github.com/wrendb/wrendb/record"
	"github.com/wrendb/wrendb/types"
)

// NestedLoopJoin drives left as the outer loop and right as the inner
// loop: for each left record, right is scanned from its beginning until a
// matching pair is found or right is exhausted, at which point left
// advances and right restarts. The join record is left's bytes followed
// by right's bytes; join conditions are evaluated against that
// concatenation using the right side's columns shifted by left's tuple
// length.
type NestedLoopJoin struct {
	left, right Executor
	conditions  []types.Condition
	columns     []record.Column
	current     record.Record
	end         bool
}

func NewNestedLoopJoin(left, right Executor, conditions []types.Condition) *NestedLoopJoin {
	columns := append(append([]record.Column{}, left.OutputColumns()...), shiftColumns(right.OutputColumns(), left.TupleLength())...)
	return &NestedLoopJoin{left: left, right: right, conditions: conditions, columns: columns}
}

func shiftColumns(columns []record.Column, delta int) []record.Column {
	out := make([]record.Column, len(columns))
	for i, c := range columns {
		out[i] = record.ShiftColumn(c, delta)
	}
	return out
}

func (j *NestedLoopJoin) Begin() error {
	if err := j.left.Begin(); err != nil {
		return err
	}
	if j.left.IsEnd() {
		j.end = true
		return nil
	}
	if err := j.right.Begin(); err != nil {
		return err
	}
	return j.advance()
}

func (j *NestedLoopJoin) Next() (bool, error) {
	if j.end {
		return false, nil
	}
	ok, err := j.right.Next()
	if err != nil {
		return false, err
	}
	if !ok {
		if err := j.advanceLeft(); err != nil {
			return false, err
		}
	}
	if err := j.advance(); err != nil {
		return false, err
	}
	return !j.end, nil
}

// advance scans forward from the right side's current position, moving
// left and re-beginning right whenever right is exhausted, until a
// matching pair is found or the whole join is exhausted.
func (j *NestedLoopJoin) advance() error {
	for {
		if j.left.IsEnd() {
			j.end = true
			j.current = nil
			return nil
		}
		if j.right.IsEnd() {
			if err := j.advanceLeft(); err != nil {
				return err
			}
			continue
		}
		joined := record.Concat(j.left.CurrentRecord(), j.right.CurrentRecord())
		match, err := evaluateConditions(j.conditions, j.columns, joined)
		if err != nil {
			return err
		}
		if match {
			j.current = joined
			return nil
		}
		ok, err := j.right.Next()
		if err != nil {
			return err
		}
		if !ok {
			if err := j.advanceLeft(); err != nil {
				return err
			}
		}
	}
}

func (j *NestedLoopJoin) advanceLeft() error {
	ok, err := j.left.Next()
	if err != nil {
		return err
	}
	if !ok {
		j.end = true
		return nil
	}
	return j.right.Begin()
}

func (j *NestedLoopJoin) IsEnd() bool { return j.end }

func (j *NestedLoopJoin) CurrentRecord() record.Record { return j.current }

func (j *NestedLoopJoin) CurrentRID() record.ID { return record.ID{} }

func (j *NestedLoopJoin) OutputColumns() []record.Column { return j.columns }

func (j *NestedLoopJoin) TupleLength() int { return j.left.TupleLength() + j.right.TupleLength() }

func (j *NestedLoopJoin) Close() {
	j.left.Close()
	j.right.Close()
}
