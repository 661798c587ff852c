package btree

import "github.com/wrendb/wrendb/file"

// The tree's metadata -- root page number, leftmost/rightmost leaf, and the
// count of allocated node pages -- lives in block 0 of the index file. Node
// pages occupy blocks 1..numPages.
const (
	headerRootOffset      = 0
	headerFirstLeafOffset = 4
	headerLastLeafOffset  = 8
	headerNumPagesOffset  = 12
	headerSize            = 16
)

const noPage = -1

func (t *Tree) headerBlock() *file.BlockId {
	return file.NewBlockId(t.fileName, 0)
}

func (t *Tree) rootPage() (int, error) {
	if err := t.txn.Pin(t.headerBlock()); err != nil {
		return 0, err
	}
	defer t.txn.Unpin(t.headerBlock())
	v, err := t.txn.GetInt(t.headerBlock(), headerRootOffset)
	return int(v), err
}

func (t *Tree) setRootPage(page int) error {
	if err := t.txn.Pin(t.headerBlock()); err != nil {
		return err
	}
	defer t.txn.Unpin(t.headerBlock())
	return t.txn.SetInt(t.headerBlock(), headerRootOffset, int32(page), true)
}

func (t *Tree) firstLeaf() (int, error) {
	if err := t.txn.Pin(t.headerBlock()); err != nil {
		return 0, err
	}
	defer t.txn.Unpin(t.headerBlock())
	v, err := t.txn.GetInt(t.headerBlock(), headerFirstLeafOffset)
	return int(v), err
}

func (t *Tree) setFirstLeaf(page int) error {
	if err := t.txn.Pin(t.headerBlock()); err != nil {
		return err
	}
	defer t.txn.Unpin(t.headerBlock())
	return t.txn.SetInt(t.headerBlock(), headerFirstLeafOffset, int32(page), true)
}

func (t *Tree) lastLeaf() (int, error) {
	if err := t.txn.Pin(t.headerBlock()); err != nil {
		return 0, err
	}
	defer t.txn.Unpin(t.headerBlock())
	v, err := t.txn.GetInt(t.headerBlock(), headerLastLeafOffset)
	return int(v), err
}

func (t *Tree) setLastLeaf(page int) error {
	if err := t.txn.Pin(t.headerBlock()); err != nil {
		return err
	}
	defer t.txn.Unpin(t.headerBlock())
	return t.txn.SetInt(t.headerBlock(), headerLastLeafOffset, int32(page), true)
}

func (t *Tree) numPages() (int, error) {
	if err := t.txn.Pin(t.headerBlock()); err != nil {
		return 0, err
	}
	defer t.txn.Unpin(t.headerBlock())
	v, err := t.txn.GetInt(t.headerBlock(), headerNumPagesOffset)
	return int(v), err
}

func (t *Tree) setNumPages(n int) error {
	if err := t.txn.Pin(t.headerBlock()); err != nil {
		return err
	}
	defer t.txn.Unpin(t.headerBlock())
	return t.txn.SetInt(t.headerBlock(), headerNumPagesOffset, int32(n), true)
}

// allocatePage appends a fresh node page (block) to the index file and
// returns its block number.
func (t *Tree) allocatePage() (int, error) {
	block, err := t.txn.Append(t.fileName)
	if err != nil {
		return 0, err
	}
	n, err := t.numPages()
	if err != nil {
		return 0, err
	}
	if err := t.setNumPages(n + 1); err != nil {
		return 0, err
	}
	return block.Number(), nil
}
