package tx

import (
	"fmt"

	"github.com/wrendb/wrendb/file"
	"github.com/wrendb/wrendb/log"
)

const int32Size = 4
const int64Size = 8

type StartRecord struct {
	txNum int64
}

func NewStartRecord(page *file.Page) *StartRecord {
	return &StartRecord{txNum: page.GetInt64(int32Size)}
}

func (r *StartRecord) Op() LogRecordType {
	return Start
}

func (r *StartRecord) TxNumber() int64 {
	return r.txNum
}

// Undo does nothing; a start record changes no data.
func (r *StartRecord) Undo(_ *Transaction) error {
	return nil
}

func (r *StartRecord) String() string {
	return fmt.Sprintf("<START %d>", r.txNum)
}

// WriteStartToLog appends a start record and returns its LSN.
func WriteStartToLog(logManager *log.Manager, txNum int64) (int64, error) {
	rec := make([]byte, int32Size+int64Size)
	page := file.NewPageFromBytes(rec)
	page.SetInt(0, int32(Start))
	page.SetInt64(int32Size, txNum)
	return logManager.Append(rec)
}
