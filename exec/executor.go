// Package exec implements a pull-based executor iterator tree: one
// Executor per physical.Node, each pulling records from its children on
// demand and applying its own operator semantics. This is the runtime
// counterpart to package plan/optimize -- physical.Node describes the
// tree, exec builds and drives it.
package exec

import (
	"github.com/wrendb/wrendb/record"
)

// Executor is the pull-based iterator contract every operator implements.
// Begin positions the cursor on the first qualifying record, possibly
// past-end; Next advances it. CurrentRecord is valid only between a
// Begin/Next call that returned true (ok) and the following Next call --
// records are owned by the executor for the duration of the current
// position only. CurrentRID is meaningful for executors reading directly
// from a single base table (SeqScan, IndexScan); Filter, Projection and
// Sort report their child's RID for the current row, and the join and DML
// executors return the zero ID.
type Executor interface {
	Begin() error
	Next() (bool, error)
	IsEnd() bool
	CurrentRecord() record.Record
	CurrentRID() record.ID
	OutputColumns() []record.Column
	TupleLength() int
	Close()
}
