package tx

import (
	"fmt"

	"github.com/wrendb/wrendb/file"
	"github.com/wrendb/wrendb/log"
)

type RollbackRecord struct {
	txNum int64
}

func NewRollbackRecord(page *file.Page) *RollbackRecord {
	return &RollbackRecord{txNum: page.GetInt64(int32Size)}
}

func (r *RollbackRecord) Op() LogRecordType {
	return Rollback
}

func (r *RollbackRecord) TxNumber() int64 {
	return r.txNum
}

func (r *RollbackRecord) Undo(_ *Transaction) error {
	return nil
}

func (r *RollbackRecord) String() string {
	return fmt.Sprintf("<ROLLBACK %d>", r.txNum)
}

// WriteRollbackToLog appends a rollback record and returns its LSN.
func WriteRollbackToLog(logManager *log.Manager, txNum int64) (int64, error) {
	rec := make([]byte, int32Size+int64Size)
	page := file.NewPageFromBytes(rec)
	page.SetInt(0, int32(Rollback))
	page.SetInt64(int32Size, txNum)
	return logManager.Append(rec)
}
