package btree

import (
	"sync"

	"github.com/wrendb/wrendb/record"
	"github.com/wrendb/wrendb/tx"
)

const fileExtension = ".idx"

// FileName returns the on-disk file name Open uses for indexName, so
// callers that need to destroy an index's storage (DROP INDEX) don't have
// to know the extension.
func FileName(indexName string) string {
	return indexName + fileExtension
}

// Tree is a disk-resident B+-tree index over a (possibly composite) key
// schema, mapping each key to a heap record.ID. Every page access goes
// through the owning transaction, so the index participates in the same
// commit/rollback and locking discipline as table data.
//
// Structural changes -- splitting or merging a node in a way that might
// alter which page is the root -- are serialized by rootLatch. Point and
// range reads take no tree-wide lock; they rely on the transaction's own
// per-block locking for isolation.
type Tree struct {
	txn      *tx.Transaction
	fileName string
	schema   Schema

	rootLatch sync.Mutex
}

// Open opens (creating if necessary) the B+-tree index backing indexName.
// A brand new index starts as a single empty leaf that is also the root.
func Open(txn *tx.Transaction, indexName string, schema Schema) (*Tree, error) {
	t := &Tree{txn: txn, fileName: indexName + fileExtension, schema: schema}

	size, err := txn.Size(t.fileName)
	if err != nil {
		return nil, err
	}
	if size > 0 {
		return t, nil
	}

	if _, err := txn.Append(t.fileName); err != nil { // block 0: header
		return nil, err
	}
	if err := t.setNumPages(0); err != nil {
		return nil, err
	}
	rootPage, err := t.allocatePage()
	if err != nil {
		return nil, err
	}
	root, err := t.openNode(rootPage)
	if err != nil {
		return nil, err
	}
	err = root.formatLeaf(noPage)
	root.close()
	if err != nil {
		return nil, err
	}
	if err := t.setRootPage(rootPage); err != nil {
		return nil, err
	}
	if err := t.setFirstLeaf(rootPage); err != nil {
		return nil, err
	}
	if err := t.setLastLeaf(rootPage); err != nil {
		return nil, err
	}
	return t, nil
}

// findLeaf descends from the root to the leaf page that would contain key.
func (t *Tree) findLeaf(key []byte) (int, error) {
	page, err := t.rootPage()
	if err != nil {
		return 0, err
	}
	for {
		n, err := t.openNode(page)
		if err != nil {
			return 0, err
		}
		leaf, err := n.isLeaf()
		if err != nil {
			n.close()
			return 0, err
		}
		if leaf {
			n.close()
			return page, nil
		}
		idx, err := n.internalChildIndex(key)
		if err != nil {
			n.close()
			return 0, err
		}
		child, err := n.childAt(idx)
		n.close()
		if err != nil {
			return 0, err
		}
		page = child
	}
}

// internalChildIndex returns the value-slot index whose subtree should be
// descended into for key. Search starts at slot 1: slot 0 is a redundant
// separator that always compares less than or equal to any key that could
// legitimately be looked up, since it holds the leftmost subtree's minimum.
func (n *node) internalChildIndex(key []byte) (int, error) {
	num, err := n.numKeys()
	if err != nil {
		return 0, err
	}
	lo, hi := 1, num
	for lo < hi {
		mid := (lo + hi) / 2
		k, err := n.keyAt(mid)
		if err != nil {
			return 0, err
		}
		c, err := n.tree.schema.Compare(k, key)
		if err != nil {
			return 0, err
		}
		if c <= 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo - 1, nil
}

// Get returns the record ID stored under key, if any.
func (t *Tree) Get(key []byte) (record.ID, bool, error) {
	leafPage, err := t.findLeaf(key)
	if err != nil {
		return record.ID{}, false, err
	}
	leaf, err := t.openNode(leafPage)
	if err != nil {
		return record.ID{}, false, err
	}
	defer leaf.close()

	idx, err := leaf.lowerBoundIndex(key)
	if err != nil {
		return record.ID{}, false, err
	}
	num, err := leaf.numKeys()
	if err != nil {
		return record.ID{}, false, err
	}
	if idx >= num {
		return record.ID{}, false, nil
	}
	k, err := leaf.keyAt(idx)
	if err != nil {
		return record.ID{}, false, err
	}
	c, err := t.schema.Compare(k, key)
	if err != nil {
		return record.ID{}, false, err
	}
	if c != 0 {
		return record.ID{}, false, nil
	}
	rid, err := leaf.ridAt(idx)
	return rid, true, err
}

// LowerBound returns the position of the first entry with key >= key, or
// the end-of-tree position if none. If the search runs off the end of a
// non-last leaf, the position rolls forward to slot 0 of the next leaf.
func (t *Tree) LowerBound(key []byte) (Iid, error) {
	return t.boundSearch(key, false)
}

// UpperBound returns the position of the first entry with key > key.
func (t *Tree) UpperBound(key []byte) (Iid, error) {
	return t.boundSearch(key, true)
}

func (t *Tree) boundSearch(key []byte, strictlyGreater bool) (Iid, error) {
	leafPage, err := t.findLeaf(key)
	if err != nil {
		return Iid{}, err
	}
	leaf, err := t.openNode(leafPage)
	if err != nil {
		return Iid{}, err
	}
	defer leaf.close()

	var idx int
	if strictlyGreater {
		idx, err = leaf.upperBoundIndex(key)
	} else {
		idx, err = leaf.lowerBoundIndex(key)
	}
	if err != nil {
		return Iid{}, err
	}
	num, err := leaf.numKeys()
	if err != nil {
		return Iid{}, err
	}
	if idx < num {
		return Iid{PageNum: leafPage, SlotNum: idx}, nil
	}
	next, err := leaf.nextLeaf()
	if err != nil {
		return Iid{}, err
	}
	if next == noPage {
		return Iid{PageNum: leafPage, SlotNum: idx}, nil
	}
	return Iid{PageNum: next, SlotNum: 0}, nil
}

// LeafBegin returns the position of the first entry in the whole tree.
func (t *Tree) LeafBegin() (Iid, error) {
	first, err := t.firstLeaf()
	if err != nil {
		return Iid{}, err
	}
	return Iid{PageNum: first, SlotNum: 0}, nil
}

// LeafEnd returns the one-past-the-end position of the whole tree.
func (t *Tree) LeafEnd() (Iid, error) {
	last, err := t.lastLeaf()
	if err != nil {
		return Iid{}, err
	}
	leaf, err := t.openNode(last)
	if err != nil {
		return Iid{}, err
	}
	defer leaf.close()
	num, err := leaf.numKeys()
	if err != nil {
		return Iid{}, err
	}
	return Iid{PageNum: last, SlotNum: num}, nil
}

// EntryAt returns the key and record ID at pos, which must not be an
// end-of-tree position.
func (t *Tree) EntryAt(pos Iid) ([]byte, record.ID, error) {
	leaf, err := t.openNode(pos.PageNum)
	if err != nil {
		return nil, record.ID{}, err
	}
	defer leaf.close()
	key, err := leaf.keyAt(pos.SlotNum)
	if err != nil {
		return nil, record.ID{}, err
	}
	rid, err := leaf.ridAt(pos.SlotNum)
	return key, rid, err
}

// Next advances pos by one entry, rolling over to the next leaf as needed.
// The returned position may be LeafEnd().
func (t *Tree) Next(pos Iid) (Iid, error) {
	leaf, err := t.openNode(pos.PageNum)
	if err != nil {
		return Iid{}, err
	}
	defer leaf.close()
	num, err := leaf.numKeys()
	if err != nil {
		return Iid{}, err
	}
	if pos.SlotNum+1 < num {
		return Iid{PageNum: pos.PageNum, SlotNum: pos.SlotNum + 1}, nil
	}
	next, err := leaf.nextLeaf()
	if err != nil {
		return Iid{}, err
	}
	if next == noPage {
		return Iid{PageNum: pos.PageNum, SlotNum: num}, nil
	}
	return Iid{PageNum: next, SlotNum: 0}, nil
}
