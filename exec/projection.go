package exec

import "github.com/wrendb/wrendb/record"

// Projection copies the requested column slices from its child's current
// record into a record laid out in the projection's own column order.
type Projection struct {
	child   Executor
	columns []record.Column // requested columns, described against the child's schema
	layout  []record.Column // same columns, re-offset for the projected record's own layout
}

func NewProjection(child Executor, columns []record.Column) *Projection {
	layout, _ := record.ComputeOffsets(columns)
	return &Projection{child: child, columns: columns, layout: layout}
}

func (p *Projection) Begin() error { return p.child.Begin() }

func (p *Projection) Next() (bool, error) { return p.child.Next() }

func (p *Projection) IsEnd() bool { return p.child.IsEnd() }

func (p *Projection) CurrentRecord() record.Record {
	src := p.child.CurrentRecord()
	out := record.NewRecord(p.layout)
	for i, srcCol := range p.columns {
		_ = out.SetValue(p.layout[i], src.GetValue(srcCol))
	}
	return out
}

func (p *Projection) CurrentRID() record.ID { return p.child.CurrentRID() }

func (p *Projection) OutputColumns() []record.Column { return p.layout }

func (p *Projection) TupleLength() int { return record.TupleLength(p.layout) }

func (p *Projection) Close() { p.child.Close() }
