package buffer

import (
	"github.com/wrendb/wrendb/file"
	"github.com/wrendb/wrendb/log"
)

// Buffer wraps one page-sized frame of memory together with bookkeeping
// about which disk block it currently holds, how many clients have it
// pinned, and whether it has been modified since it was last flushed.
type Buffer struct {
	fileManager *file.Manager
	logManager  *log.Manager
	contents    *file.Page
	block       *file.BlockId
	pins        int
	txNum       int64
	lsn         int64
}

// NewBuffer creates a buffer, not yet assigned to any block.
func NewBuffer(fileManager *file.Manager, logManager *log.Manager) *Buffer {
	return &Buffer{
		fileManager: fileManager,
		logManager:  logManager,
		contents:    file.NewPage(fileManager.BlockSize()),
		txNum:       -1,
		lsn:         -1,
	}
}

// Contents returns the page held by this buffer.
func (b *Buffer) Contents() *file.Page {
	return b.contents
}

// Block returns the block currently assigned to this buffer, or nil.
func (b *Buffer) Block() *file.BlockId {
	return b.block
}

// SetModified records that txNum has modified this buffer's page, and the
// log sequence number of the log record describing the change (or -1 if
// the change need not be logged).
func (b *Buffer) SetModified(txNum int64, lsn int64) {
	b.txNum = txNum
	if lsn >= 0 {
		b.lsn = lsn
	}
}

// isPinned reports whether any client currently holds this buffer pinned.
func (b *Buffer) isPinned() bool {
	return b.pins > 0
}

func (b *Buffer) modifyingTxn() int64 {
	return b.txNum
}

// assignToBlock flushes the buffer's current contents (if dirty) and reads
// the specified block into it.
func (b *Buffer) assignToBlock(block *file.BlockId) error {
	if err := b.flush(); err != nil {
		return err
	}
	b.block = block
	if err := b.fileManager.Read(block, b.contents); err != nil {
		return err
	}
	b.pins = 0
	return nil
}

// flush writes the buffer's page to disk if it has been modified, first
// ensuring the WAL record describing the change has been forced to disk
// (write-ahead logging).
func (b *Buffer) flush() error {
	if b.txNum < 0 {
		return nil
	}
	if err := b.logManager.Flush(b.lsn); err != nil {
		return err
	}
	if err := b.fileManager.Write(b.block, b.contents); err != nil {
		return err
	}
	b.txNum = -1
	return nil
}

func (b *Buffer) pin() {
	b.pins++
}

func (b *Buffer) unpin() {
	b.pins--
}
