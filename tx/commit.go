package tx

import (
	"fmt"

	"github.com/wrendb/wrendb/file"
	"github.com/wrendb/wrendb/log"
)

type CommitRecord struct {
	txNum int64
}

func NewCommitRecord(page *file.Page) *CommitRecord {
	return &CommitRecord{txNum: page.GetInt64(int32Size)}
}

func (r *CommitRecord) Op() LogRecordType {
	return Commit
}

func (r *CommitRecord) TxNumber() int64 {
	return r.txNum
}

func (r *CommitRecord) Undo(_ *Transaction) error {
	return nil
}

func (r *CommitRecord) String() string {
	return fmt.Sprintf("<COMMIT %d>", r.txNum)
}

// WriteCommitToLog appends a commit record and returns its LSN.
func WriteCommitToLog(logManager *log.Manager, txNum int64) (int64, error) {
	rec := make([]byte, int32Size+int64Size)
	page := file.NewPageFromBytes(rec)
	page.SetInt(0, int32(Commit))
	page.SetInt64(int32Size, txNum)
	return logManager.Append(rec)
}
