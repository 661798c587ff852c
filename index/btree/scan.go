package btree

import "github.com/wrendb/wrendb/record"

// Scan walks a contiguous range of the tree's leaf chain in key order,
// from a starting position up to (but not including) an end position
// obtained from LowerBound/UpperBound/LeafBegin/LeafEnd. It is the
// primitive the index-scan executor node is built on.
type Scan struct {
	tree    *Tree
	pos     Iid
	end     Iid
	started bool
}

// NewScan opens a scan over [start, end).
func NewScan(tree *Tree, start, end Iid) *Scan {
	return &Scan{tree: tree, pos: start, end: end}
}

// Next advances to the next entry in range, returning false once the scan
// reaches end.
func (s *Scan) Next() (bool, error) {
	if s.started {
		next, err := s.tree.Next(s.pos)
		if err != nil {
			return false, err
		}
		s.pos = next
	}
	s.started = true
	return s.pos != s.end, nil
}

// Entry returns the key and record ID at the scan's current position.
func (s *Scan) Entry() ([]byte, record.ID, error) {
	return s.tree.EntryAt(s.pos)
}
