package tx

import (
	"github.com/wrendb/wrendb/file"
	"github.com/wrendb/wrendb/log"
)

// CheckpointRecord marks a point in the log at which no transaction was
// active. Recovery never needs to scan past the most recent one.
type CheckpointRecord struct{}

func NewCheckpointRecord() *CheckpointRecord {
	return &CheckpointRecord{}
}

func (r *CheckpointRecord) Op() LogRecordType {
	return Checkpoint
}

// TxNumber has no meaning for a checkpoint; dummy value used to satisfy LogRecord.
func (r *CheckpointRecord) TxNumber() int64 {
	return -1
}

func (r *CheckpointRecord) Undo(_ *Transaction) error {
	return nil
}

func (r *CheckpointRecord) String() string {
	return "<CHECKPOINT>"
}

// WriteCheckpointToLog appends a checkpoint record and returns its LSN.
func WriteCheckpointToLog(logManager *log.Manager) (int64, error) {
	rec := make([]byte, int32Size)
	page := file.NewPageFromBytes(rec)
	page.SetInt(0, int32(Checkpoint))
	return logManager.Append(rec)
}
