package exec

import (
	"github.com/wrendb/wrendb/record"
	"github.com/wrendb/wrendb/types"
)

// Filter applies conditions to its child's output, identical in semantics
// to the sequential-scan filter but usable over any upstream executor.
type Filter struct {
	child      Executor
	conditions []types.Condition
	end        bool
}

func NewFilter(child Executor, conditions []types.Condition) *Filter {
	return &Filter{child: child, conditions: conditions}
}

func (f *Filter) Begin() error {
	if err := f.child.Begin(); err != nil {
		return err
	}
	return f.advanceToMatch()
}

func (f *Filter) Next() (bool, error) {
	ok, err := f.child.Next()
	if err != nil || !ok {
		f.end = !ok
		return ok, err
	}
	if err := f.advanceToMatch(); err != nil {
		return false, err
	}
	return !f.end, nil
}

func (f *Filter) advanceToMatch() error {
	for {
		if f.child.IsEnd() {
			f.end = true
			return nil
		}
		match, err := evaluateConditions(f.conditions, f.child.OutputColumns(), f.child.CurrentRecord())
		if err != nil {
			return err
		}
		if match {
			return nil
		}
		ok, err := f.child.Next()
		if err != nil {
			return err
		}
		if !ok {
			f.end = true
			return nil
		}
	}
}

func (f *Filter) IsEnd() bool { return f.end }

func (f *Filter) CurrentRecord() record.Record { return f.child.CurrentRecord() }

func (f *Filter) CurrentRID() record.ID { return f.child.CurrentRID() }

func (f *Filter) OutputColumns() []record.Column { return f.child.OutputColumns() }

func (f *Filter) TupleLength() int { return f.child.TupleLength() }

func (f *Filter) Close() { f.child.Close() }
