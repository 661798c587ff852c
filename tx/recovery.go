package tx

import (
	"github.com/wrendb/wrendb/buffer"
	"github.com/wrendb/wrendb/log"
)

// RecoveryManager implements the transaction's rollback and system-startup
// recovery using undo-only logging: every SetX record is written before its
// data change, and recovery just applies, newest first, the undo records of
// transactions that never committed or rolled back, until it reaches a
// checkpoint or the start of the log.
type RecoveryManager struct {
	logManager    *log.Manager
	bufferManager *buffer.Manager
	tx            *Transaction
	txNum         int64
}

func NewRecoveryManager(tx *Transaction, txNum int64, logManager *log.Manager, bufferManager *buffer.Manager) (*RecoveryManager, error) {
	rm := &RecoveryManager{logManager: logManager, bufferManager: bufferManager, tx: tx, txNum: txNum}
	if _, err := WriteStartToLog(logManager, txNum); err != nil {
		return nil, err
	}
	return rm, nil
}

// Commit flushes this transaction's modified buffers, writes a commit
// record, and forces the log so the commit is durable before returning.
func (rm *RecoveryManager) Commit() error {
	if err := rm.bufferManager.FlushAll(rm.txNum); err != nil {
		return err
	}
	lsn, err := WriteCommitToLog(rm.logManager, rm.txNum)
	if err != nil {
		return err
	}
	return rm.logManager.Flush(lsn)
}

// Rollback undoes this transaction's changes by scanning the log backward,
// applying every SetX record belonging to txNum, then writes a rollback
// record and forces the log.
func (rm *RecoveryManager) Rollback() error {
	if err := rm.doRollback(); err != nil {
		return err
	}
	if err := rm.bufferManager.FlushAll(rm.txNum); err != nil {
		return err
	}
	lsn, err := WriteRollbackToLog(rm.logManager, rm.txNum)
	if err != nil {
		return err
	}
	return rm.logManager.Flush(lsn)
}

// Recover runs at system startup, before any new transaction begins. It
// undoes every transaction that had written a start record but no commit
// or rollback record by the time the system stopped, stopping early at a
// checkpoint since nothing before it could still be uncommitted.
func (rm *RecoveryManager) Recover() error {
	if err := rm.doRecover(); err != nil {
		return err
	}
	if err := rm.bufferManager.FlushAll(rm.txNum); err != nil {
		return err
	}
	_, err := WriteCheckpointToLog(rm.logManager)
	return err
}

// SetInt logs the value currently at block/offset (i.e. the value about to
// be overwritten) and returns the LSN of the log record. The caller must
// pin the block before calling this.
func (rm *RecoveryManager) SetInt(buff *buffer.Buffer, offset int, _ int32) (int64, error) {
	oldVal := buff.Contents().GetInt(offset)
	return WriteSetIntToLog(rm.logManager, rm.txNum, buff.Block(), offset, oldVal)
}

// SetFloat logs the value currently at block/offset before it is overwritten.
func (rm *RecoveryManager) SetFloat(buff *buffer.Buffer, offset int, _ float32) (int64, error) {
	oldVal := buff.Contents().GetFloat(offset)
	return WriteSetFloatToLog(rm.logManager, rm.txNum, buff.Block(), offset, oldVal)
}

// SetBytes logs the length bytes currently at block/offset before they are
// overwritten.
func (rm *RecoveryManager) SetBytes(buff *buffer.Buffer, offset int, length int) (int64, error) {
	oldVal := buff.Contents().GetFixedBytes(offset, length)
	return WriteSetBytesToLog(rm.logManager, rm.txNum, buff.Block(), offset, oldVal)
}

func (rm *RecoveryManager) doRollback() error {
	iter, err := rm.logManager.Iterator()
	if err != nil {
		return err
	}
	for iter.HasNext() {
		bytes, err := iter.Next()
		if err != nil {
			return err
		}
		rec, err := CreateLogRecord(bytes)
		if err != nil {
			return err
		}
		if rec.TxNumber() == rm.txNum {
			if rec.Op() == Start {
				return nil
			}
			if err := rec.Undo(rm.tx); err != nil {
				return err
			}
		}
	}
	return nil
}

func (rm *RecoveryManager) doRecover() error {
	finishedTxs := make(map[int64]bool)
	iter, err := rm.logManager.Iterator()
	if err != nil {
		return err
	}
	for iter.HasNext() {
		bytes, err := iter.Next()
		if err != nil {
			return err
		}
		rec, err := CreateLogRecord(bytes)
		if err != nil {
			return err
		}
		switch rec.Op() {
		case Checkpoint:
			return nil
		case Commit, Rollback:
			finishedTxs[rec.TxNumber()] = true
		default:
			if !finishedTxs[rec.TxNumber()] {
				if err := rec.Undo(rm.tx); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
