package tx

import (
	"errors"

	"github.com/wrendb/wrendb/file"
)

// LogRecordType is the type of log record.
type LogRecordType int

const (
	Checkpoint LogRecordType = iota
	Start
	Commit
	Rollback
	SetInt
	SetFloat
	SetBytes
)

func (t LogRecordType) String() string {
	switch t {
	case Checkpoint:
		return "Checkpoint"
	case Start:
		return "Start"
	case Commit:
		return "Commit"
	case Rollback:
		return "Rollback"
	case SetInt:
		return "SetInt"
	case SetFloat:
		return "SetFloat"
	case SetBytes:
		return "SetBytes"
	default:
		return "Unknown"
	}
}

func FromCode(code int) (LogRecordType, error) {
	switch code {
	case 0:
		return Checkpoint, nil
	case 1:
		return Start, nil
	case 2:
		return Commit, nil
	case 3:
		return Rollback, nil
	case 4:
		return SetInt, nil
	case 5:
		return SetFloat, nil
	case 6:
		return SetBytes, nil
	default:
		return -1, errors.New("unknown LogRecordType code")
	}
}

// LogRecord is one entry recovered from the write-ahead log.
type LogRecord interface {
	// Op returns the log record type.
	Op() LogRecordType

	// TxNumber returns the transaction ID stored with the log record.
	TxNumber() int64

	// Undo reverses the operation encoded by this log record. Only
	// SetInt, SetFloat, and SetBytes records do anything interesting here.
	Undo(tx *Transaction) error

	String() string
}

// CreateLogRecord interprets bytes to build the appropriate log record. It
// assumes the first four bytes hold the record's type code.
func CreateLogRecord(bytes []byte) (LogRecord, error) {
	p := file.NewPageFromBytes(bytes)
	code := p.GetInt(0)
	recordType, err := FromCode(int(code))
	if err != nil {
		return nil, err
	}

	switch recordType {
	case Checkpoint:
		return NewCheckpointRecord(), nil
	case Start:
		return NewStartRecord(p), nil
	case Commit:
		return NewCommitRecord(p), nil
	case Rollback:
		return NewRollbackRecord(p), nil
	case SetInt:
		return NewSetIntRecord(p), nil
	case SetFloat:
		return NewSetFloatRecord(p), nil
	case SetBytes:
		return NewSetBytesRecord(p), nil
	default:
		return nil, errors.New("unexpected LogRecordType")
	}
}
