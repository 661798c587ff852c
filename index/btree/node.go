package btree

import (
	"fmt"

	"github.com/wrendb/wrendb/file"
	"github.com/wrendb/wrendb/record"
	"github.com/wrendb/wrendb/tx"
)

// Node page layout: a small fixed header, followed by an array of capacity
// keys, followed by a parallel array of capacity 8-byte value slots. A leaf's
// value slot holds a record.ID (page number, slot number); an internal
// node's value slot holds a child page number in its first four bytes.
//
// Every internal node keeps exactly as many keys as it has children: slot i
// holds the minimum key of subtree i, including a redundant key at slot 0.
// This mirrors the classic B+-tree layout where separators are attached to
// child slots rather than stored between them.
const (
	nodeParentOffset   = 0
	nodeNumKeysOffset  = 4
	nodeIsLeafOffset   = 8
	nodePrevLeafOffset = 12
	nodeNextLeafOffset = 16
	nodeHeaderSize     = 20
	valueSlotSize      = 8
)

type node struct {
	txn     *tx.Transaction
	block   *file.BlockId
	tree    *Tree
	pageNum int
}

// capacity is the physical number of key/value slots reserved per node
// page: one more than maxKeys, so a node can transiently hold one entry
// past its logical limit between an insert and the split that follows it.
func (t *Tree) capacity() int {
	return (t.txn.BlockSize() - nodeHeaderSize) / (t.schema.KeyLen() + valueSlotSize)
}

// maxKeys is a node's logical order: the most entries it may hold once
// balanced. A node with more than this many keys must split.
func (t *Tree) maxKeys() int {
	return t.capacity() - 1
}

// minKeys is the minimum occupancy (ceil(maxKeys/2)) a non-root node must
// retain, mirroring get_min_size in the classic split/merge algorithm.
func (t *Tree) minKeys() int {
	m := t.maxKeys()
	return (m + 1) / 2
}

func (t *Tree) openNode(pageNum int) (*node, error) {
	block := file.NewBlockId(t.fileName, pageNum)
	if err := t.txn.Pin(block); err != nil {
		return nil, err
	}
	return &node{txn: t.txn, block: block, tree: t, pageNum: pageNum}, nil
}

func (n *node) close() {
	n.txn.Unpin(n.block)
}

func (n *node) keysOffset() int {
	return nodeHeaderSize
}

func (n *node) valuesOffset() int {
	return nodeHeaderSize + n.tree.capacity()*n.tree.schema.KeyLen()
}

func (n *node) formatLeaf(parent int) error {
	return n.formatCommon(parent, true)
}

func (n *node) formatInternal(parent int) error {
	return n.formatCommon(parent, false)
}

func (n *node) formatCommon(parent int, isLeaf bool) error {
	if err := n.setParent(parent); err != nil {
		return err
	}
	if err := n.setNumKeys(0); err != nil {
		return err
	}
	leafFlag := int32(0)
	if isLeaf {
		leafFlag = 1
	}
	if err := n.txn.SetInt(n.block, nodeIsLeafOffset, leafFlag, true); err != nil {
		return err
	}
	if err := n.setPrevLeaf(noPage); err != nil {
		return err
	}
	return n.setNextLeaf(noPage)
}

func (n *node) parent() (int, error) {
	v, err := n.txn.GetInt(n.block, nodeParentOffset)
	return int(v), err
}

func (n *node) setParent(p int) error {
	return n.txn.SetInt(n.block, nodeParentOffset, int32(p), true)
}

func (n *node) numKeys() (int, error) {
	v, err := n.txn.GetInt(n.block, nodeNumKeysOffset)
	return int(v), err
}

func (n *node) setNumKeys(k int) error {
	return n.txn.SetInt(n.block, nodeNumKeysOffset, int32(k), true)
}

func (n *node) isLeaf() (bool, error) {
	v, err := n.txn.GetInt(n.block, nodeIsLeafOffset)
	return v != 0, err
}

func (n *node) prevLeaf() (int, error) {
	v, err := n.txn.GetInt(n.block, nodePrevLeafOffset)
	return int(v), err
}

func (n *node) setPrevLeaf(p int) error {
	return n.txn.SetInt(n.block, nodePrevLeafOffset, int32(p), true)
}

func (n *node) nextLeaf() (int, error) {
	v, err := n.txn.GetInt(n.block, nodeNextLeafOffset)
	return int(v), err
}

func (n *node) setNextLeaf(p int) error {
	return n.txn.SetInt(n.block, nodeNextLeafOffset, int32(p), true)
}

func (n *node) keyAt(i int) ([]byte, error) {
	return n.txn.GetFixedBytes(n.block, n.keysOffset()+i*n.tree.schema.KeyLen(), n.tree.schema.KeyLen())
}

func (n *node) setKeyAt(i int, key []byte) error {
	return n.txn.SetFixedBytes(n.block, n.keysOffset()+i*n.tree.schema.KeyLen(), key, true)
}

// childAt returns the child page number stored at value slot i (internal nodes only).
func (n *node) childAt(i int) (int, error) {
	v, err := n.txn.GetInt(n.block, n.valuesOffset()+i*valueSlotSize)
	return int(v), err
}

func (n *node) setChildAt(i int, page int) error {
	return n.txn.SetInt(n.block, n.valuesOffset()+i*valueSlotSize, int32(page), true)
}

// ridAt returns the record ID stored at value slot i (leaf nodes only).
func (n *node) ridAt(i int) (record.ID, error) {
	off := n.valuesOffset() + i*valueSlotSize
	pageNum, err := n.txn.GetInt(n.block, off)
	if err != nil {
		return record.ID{}, err
	}
	slot, err := n.txn.GetInt(n.block, off+4)
	if err != nil {
		return record.ID{}, err
	}
	return record.NewID(int(pageNum), int(slot)), nil
}

func (n *node) setRIDAt(i int, rid record.ID) error {
	off := n.valuesOffset() + i*valueSlotSize
	if err := n.txn.SetInt(n.block, off, int32(rid.PageNum), true); err != nil {
		return err
	}
	return n.txn.SetInt(n.block, off+4, int32(rid.Slot), true)
}

// insertLeafAt shifts entries [i, numKeys) right by one and writes key/rid at i.
func (n *node) insertLeafAt(i int, key []byte, rid record.ID) error {
	num, err := n.numKeys()
	if err != nil {
		return err
	}
	for j := num; j > i; j-- {
		if err := n.copyEntryLeaf(j-1, j); err != nil {
			return err
		}
	}
	if err := n.setKeyAt(i, key); err != nil {
		return err
	}
	if err := n.setRIDAt(i, rid); err != nil {
		return err
	}
	return n.setNumKeys(num + 1)
}

// insertInternalAt shifts entries [i, numKeys) right by one and writes key/child at i.
func (n *node) insertInternalAt(i int, key []byte, child int) error {
	num, err := n.numKeys()
	if err != nil {
		return err
	}
	for j := num; j > i; j-- {
		if err := n.copyEntryInternal(j-1, j); err != nil {
			return err
		}
	}
	if err := n.setKeyAt(i, key); err != nil {
		return err
	}
	if err := n.setChildAt(i, child); err != nil {
		return err
	}
	return n.setNumKeys(num + 1)
}

func (n *node) removeAt(i int, isLeafNode bool) error {
	num, err := n.numKeys()
	if err != nil {
		return err
	}
	for j := i; j < num-1; j++ {
		if isLeafNode {
			if err := n.copyEntryLeaf(j+1, j); err != nil {
				return err
			}
		} else {
			if err := n.copyEntryInternal(j+1, j); err != nil {
				return err
			}
		}
	}
	return n.setNumKeys(num - 1)
}

func (n *node) copyEntryLeaf(from, to int) error {
	k, err := n.keyAt(from)
	if err != nil {
		return err
	}
	r, err := n.ridAt(from)
	if err != nil {
		return err
	}
	if err := n.setKeyAt(to, k); err != nil {
		return err
	}
	return n.setRIDAt(to, r)
}

func (n *node) copyEntryInternal(from, to int) error {
	k, err := n.keyAt(from)
	if err != nil {
		return err
	}
	c, err := n.childAt(from)
	if err != nil {
		return err
	}
	if err := n.setKeyAt(to, k); err != nil {
		return err
	}
	return n.setChildAt(to, c)
}

// indexOfChild returns the value-slot index at which childPage appears
// among this (internal) node's children.
func (n *node) indexOfChild(childPage int) (int, error) {
	num, err := n.numKeys()
	if err != nil {
		return 0, err
	}
	for i := 0; i < num; i++ {
		c, err := n.childAt(i)
		if err != nil {
			return 0, err
		}
		if c == childPage {
			return i, nil
		}
	}
	return 0, fmt.Errorf("btree: child page %d not found among parent's children", childPage)
}

// lowerBoundIndex returns the smallest index i such that keyAt(i) >= key
// (a standard binary search lower bound over the node's numKeys entries).
func (n *node) lowerBoundIndex(key []byte) (int, error) {
	num, err := n.numKeys()
	if err != nil {
		return 0, err
	}
	lo, hi := 0, num
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
		if c < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, nil
}

// upperBoundIndex returns the smallest index i such that keyAt(i) > key.
func (n *node) upperBoundIndex(key []byte) (int, error) {
	num, err := n.numKeys()
	if err != nil {
		return 0, err
	}
	lo, hi := 0, num
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
	return lo, nil
}
