package exec

import (
	"sort"

	"github.com/wrendb/wrendb/record"
	"github.com/wrendb/wrendb/types"
)

// SortMergeJoin joins two equi-joined inputs by materializing and sorting
// each by its join key, then walking both sorted streams together: runs
// of equal keys on each side are grouped and cross-multiplied, and every
// resulting pair is re-checked against the full condition list (covering
// any non-key residual conditions) before being emitted.
type SortMergeJoin struct {
	left, right         Executor
	leftKey, rightKey   record.Column
	conditions          []types.Condition
	columns             []record.Column

	leftRecs, rightRecs []record.Record
	leftRIDs, rightRIDs []record.ID
	li, ri              int

	pairs   []record.Record
	pairIdx int
	end     bool
}

func NewSortMergeJoin(left, right Executor, leftKey, rightKey record.Column, conditions []types.Condition) *SortMergeJoin {
	columns := append(append([]record.Column{}, left.OutputColumns()...), shiftColumns(right.OutputColumns(), left.TupleLength())...)
	return &SortMergeJoin{left: left, right: right, leftKey: leftKey, rightKey: rightKey, conditions: conditions, columns: columns}
}

func materializeSorted(child Executor, key record.Column) ([]record.Record, []record.ID, error) {
	if err := child.Begin(); err != nil {
		return nil, nil, err
	}
	var recs []record.Record
	var rids []record.ID
	for !child.IsEnd() {
		recs = append(recs, append(record.Record(nil), child.CurrentRecord()...))
		rids = append(rids, child.CurrentRID())
		ok, err := child.Next()
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			break
		}
	}
	var sortErr error
	idx := make([]int, len(recs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		cmp, err := types.CompareValues(recs[idx[a]].GetValue(key), recs[idx[b]].GetValue(key))
		if err != nil {
			sortErr = err
			return false
		}
		return cmp < 0
	})
	sortedRecs := make([]record.Record, len(recs))
	sortedRIDs := make([]record.ID, len(recs))
	for i, j := range idx {
		sortedRecs[i] = recs[j]
		sortedRIDs[i] = rids[j]
	}
	return sortedRecs, sortedRIDs, sortErr
}

func (j *SortMergeJoin) Begin() error {
	var err error
	j.leftRecs, j.leftRIDs, err = materializeSorted(j.left, j.leftKey)
	if err != nil {
		return err
	}
	j.rightRecs, j.rightRIDs, err = materializeSorted(j.right, j.rightKey)
	if err != nil {
		return err
	}
	j.li, j.ri = 0, 0
	return j.advanceGroups()
}

// advanceGroups scans forward from the current li/ri positions, matching
// runs of equal keys, until it finds a group whose cross product yields at
// least one record satisfying the full condition list, or exhausts both
// sides.
func (j *SortMergeJoin) advanceGroups() error {
	for {
		j.pairs = nil
		j.pairIdx = 0
		if j.li >= len(j.leftRecs) || j.ri >= len(j.rightRecs) {
			j.end = true
			return nil
		}
		cmp, err := types.CompareValues(j.leftRecs[j.li].GetValue(j.leftKey), j.rightRecs[j.ri].GetValue(j.rightKey))
		if err != nil {
			return err
		}
		if cmp < 0 {
			j.li++
			continue
		}
		if cmp > 0 {
			j.ri++
			continue
		}

		lEnd := j.li
		for lEnd < len(j.leftRecs) {
			c, err := types.CompareValues(j.leftRecs[lEnd].GetValue(j.leftKey), j.leftRecs[j.li].GetValue(j.leftKey))
			if err != nil {
				return err
			}
			if c != 0 {
				break
			}
			lEnd++
		}
		rEnd := j.ri
		for rEnd < len(j.rightRecs) {
			c, err := types.CompareValues(j.rightRecs[rEnd].GetValue(j.rightKey), j.rightRecs[j.ri].GetValue(j.rightKey))
			if err != nil {
				return err
			}
			if c != 0 {
				break
			}
			rEnd++
		}

		for li := j.li; li < lEnd; li++ {
			for ri := j.ri; ri < rEnd; ri++ {
				joined := record.Concat(j.leftRecs[li], j.rightRecs[ri])
				match, err := evaluateConditions(j.conditions, j.columns, joined)
				if err != nil {
					return err
				}
				if match {
					j.pairs = append(j.pairs, joined)
				}
			}
		}
		j.li, j.ri = lEnd, rEnd
		if len(j.pairs) > 0 {
			return nil
		}
	}
}

func (j *SortMergeJoin) Next() (bool, error) {
	j.pairIdx++
	if j.pairIdx < len(j.pairs) {
		return true, nil
	}
	if err := j.advanceGroups(); err != nil {
		return false, err
	}
	return !j.end, nil
}

func (j *SortMergeJoin) IsEnd() bool { return j.end }

func (j *SortMergeJoin) CurrentRecord() record.Record { return j.pairs[j.pairIdx] }

func (j *SortMergeJoin) CurrentRID() record.ID { return record.ID{} }

func (j *SortMergeJoin) OutputColumns() []record.Column { return j.columns }

func (j *SortMergeJoin) TupleLength() int { return j.left.TupleLength() + j.right.TupleLength() }

func (j *SortMergeJoin) Close() {
	j.left.Close()
	j.right.Close()
}
