package tx

import (
	"fmt"
	"sync/atomic"

	"github.com/wrendb/wrendb/buffer"
	"github.com/wrendb/wrendb/file"
	"github.com/wrendb/wrendb/log"
	"github.com/wrendb/wrendb/tx/concurrency"
)

// EndOfFile is the dummy block number used to lock a file's length against
// concurrent Size/Append calls.
const EndOfFile = -1

var nextTxNum int64

func nextTxNumber() int64 {
	return atomic.AddInt64(&nextTxNum, 1)
}

// Transaction is the unit of work over a database: every read and write of
// a block goes through one, and it is responsible for concurrency control
// (via its concurrency.Manager) and crash recovery (via its
// RecoveryManager) for the duration of the work it wraps.
type Transaction struct {
	recoveryManager    *RecoveryManager
	concurrencyManager *concurrency.Manager
	bufferManager      *buffer.Manager
	fileManager        *file.Manager
	txNum              int64
	myBuffers          *BufferList
}

// NewTransaction starts a new transaction over the given file, log, and
// buffer managers, writing a start record to the log.
func NewTransaction(fileManager *file.Manager, logManager *log.Manager, bufferManager *buffer.Manager) (*Transaction, error) {
	t := &Transaction{
		fileManager:        fileManager,
		bufferManager:      bufferManager,
		txNum:              nextTxNumber(),
		concurrencyManager: concurrency.NewManager(),
		myBuffers:          NewBufferList(bufferManager),
	}
	rm, err := NewRecoveryManager(t, t.txNum, logManager, bufferManager)
	if err != nil {
		return nil, err
	}
	t.recoveryManager = rm
	return t, nil
}

// Commit flushes modified buffers and their log records, writes and flushes
// a commit record, then releases every lock and pin this transaction holds.
func (tx *Transaction) Commit() error {
	if err := tx.recoveryManager.Commit(); err != nil {
		return err
	}
	tx.concurrencyManager.Release()
	tx.myBuffers.UnpinAll()
	return nil
}

// Rollback undoes every change this transaction made, then releases every
// lock and pin it holds.
func (tx *Transaction) Rollback() error {
	if err := tx.recoveryManager.Rollback(); err != nil {
		return err
	}
	tx.concurrencyManager.Release()
	tx.myBuffers.UnpinAll()
	return nil
}

// Recover flushes all modified buffers, then rolls back every transaction
// left uncommitted at the last shutdown. Called once at startup, before any
// user transaction begins.
func (tx *Transaction) Recover() error {
	if err := tx.bufferManager.FlushAll(tx.txNum); err != nil {
		return err
	}
	return tx.recoveryManager.Recover()
}

// Pin pins the specified block for the lifetime of this transaction (or
// until Unpin is called).
func (tx *Transaction) Pin(block *file.BlockId) error {
	return tx.myBuffers.Pin(block)
}

// Unpin unpins the specified block.
func (tx *Transaction) Unpin(block *file.BlockId) {
	tx.myBuffers.Unpin(block)
}

// GetInt reads the int stored at offset in block, first taking a shared lock.
func (tx *Transaction) GetInt(block *file.BlockId, offset int) (int32, error) {
	if err := tx.concurrencyManager.SLock(block); err != nil {
		return 0, err
	}
	buff := tx.myBuffers.GetBuffer(block)
	if buff == nil {
		return 0, fmt.Errorf("buffer for block %s not found", block)
	}
	return buff.Contents().GetInt(offset), nil
}

// SetInt writes val at offset in block, taking an exclusive lock first, and
// -- if logIt is true -- writing an undo log record for the old value
// before the page is overwritten.
func (tx *Transaction) SetInt(block *file.BlockId, offset int, val int32, logIt bool) error {
	if err := tx.concurrencyManager.XLock(block); err != nil {
		return err
	}
	buff := tx.myBuffers.GetBuffer(block)
	if buff == nil {
		return fmt.Errorf("buffer for block %s not found", block)
	}

	var lsn int64 = -1
	if logIt {
		var err error
		if lsn, err = tx.recoveryManager.SetInt(buff, offset, val); err != nil {
			return err
		}
	}
	buff.Contents().SetInt(offset, val)
	buff.SetModified(tx.txNum, lsn)
	return nil
}

// GetFloat reads the float stored at offset in block, first taking a shared lock.
func (tx *Transaction) GetFloat(block *file.BlockId, offset int) (float32, error) {
	if err := tx.concurrencyManager.SLock(block); err != nil {
		return 0, err
	}
	buff := tx.myBuffers.GetBuffer(block)
	if buff == nil {
		return 0, fmt.Errorf("buffer for block %s not found", block)
	}
	return buff.Contents().GetFloat(offset), nil
}

// SetFloat writes val at offset in block, following the same locking and
// logging discipline as SetInt.
func (tx *Transaction) SetFloat(block *file.BlockId, offset int, val float32, logIt bool) error {
	if err := tx.concurrencyManager.XLock(block); err != nil {
		return err
	}
	buff := tx.myBuffers.GetBuffer(block)
	if buff == nil {
		return fmt.Errorf("buffer for block %s not found", block)
	}

	var lsn int64 = -1
	if logIt {
		var err error
		if lsn, err = tx.recoveryManager.SetFloat(buff, offset, val); err != nil {
			return err
		}
	}
	buff.Contents().SetFloat(offset, val)
	buff.SetModified(tx.txNum, lsn)
	return nil
}

// GetFixedBytes reads length bytes stored at offset in block, first taking a
// shared lock. Used for CHAR(n) column values and whole record slots.
func (tx *Transaction) GetFixedBytes(block *file.BlockId, offset, length int) ([]byte, error) {
	if err := tx.concurrencyManager.SLock(block); err != nil {
		return nil, err
	}
	buff := tx.myBuffers.GetBuffer(block)
	if buff == nil {
		return nil, fmt.Errorf("buffer for block %s not found", block)
	}
	return buff.Contents().GetFixedBytes(offset, length), nil
}

// SetFixedBytes writes b at offset in block (zero-padded or truncated to
// len(b) on read-back), following the same locking and logging discipline
// as SetInt.
func (tx *Transaction) SetFixedBytes(block *file.BlockId, offset int, b []byte, logIt bool) error {
	if err := tx.concurrencyManager.XLock(block); err != nil {
		return err
	}
	buff := tx.myBuffers.GetBuffer(block)
	if buff == nil {
		return fmt.Errorf("buffer for block %s not found", block)
	}

	var lsn int64 = -1
	if logIt {
		var err error
		if lsn, err = tx.recoveryManager.SetBytes(buff, offset, len(b)); err != nil {
			return err
		}
	}
	buff.Contents().SetFixedBytes(offset, len(b), b)
	buff.SetModified(tx.txNum, lsn)
	return nil
}

// Size returns the number of blocks in filename, taking a shared lock on the
// file's end-of-file marker so a concurrent Append cannot race with the count.
func (tx *Transaction) Size(filename string) (int, error) {
	dummyBlock := file.NewBlockId(filename, EndOfFile)
	if err := tx.concurrencyManager.SLock(dummyBlock); err != nil {
		return -1, err
	}
	return tx.fileManager.Length(filename)
}

// Append allocates a new block at the end of filename, taking an exclusive
// lock on the file's end-of-file marker first.
func (tx *Transaction) Append(filename string) (*file.BlockId, error) {
	dummyBlock := file.NewBlockId(filename, EndOfFile)
	if err := tx.concurrencyManager.XLock(dummyBlock); err != nil {
		return nil, err
	}
	block, err := tx.fileManager.Append(filename)
	if err != nil {
		return nil, err
	}
	return &block, nil
}

// BlockSize returns the fixed block size of the underlying database.
func (tx *Transaction) BlockSize() int {
	return tx.fileManager.BlockSize()
}

// AvailableBuffers returns the number of currently unpinned buffers.
func (tx *Transaction) AvailableBuffers() int {
	return tx.bufferManager.Available()
}

// TxNum returns this transaction's number.
func (tx *Transaction) TxNum() int64 {
	return tx.txNum
}

// DestroyFile permanently removes filename from disk. Used by DROP
// TABLE/DROP INDEX to reclaim a heap or index file's storage; callers are
// responsible for having already removed any catalog rows referencing it.
func (tx *Transaction) DestroyFile(filename string) error {
	return tx.fileManager.DestroyFile(filename)
}
