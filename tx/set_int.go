package tx

import (
	"fmt"

	"github.com/wrendb/wrendb/file"
	"github.com/wrendb/wrendb/log"
)

type SetIntRecord struct {
	txNum  int64
	offset int
	value  int32
	block  *file.BlockId
}

func NewSetIntRecord(page *file.Page) *SetIntRecord {
	txNumPos := int32Size
	txNum := page.GetInt64(txNumPos)

	fileNamePos := txNumPos + int64Size
	fileName := page.GetString(fileNamePos)

	blockNumPos := fileNamePos + file.MaxLength(len(fileName))
	blockNum := page.GetInt(blockNumPos)
	block := file.NewBlockId(fileName, int(blockNum))

	offsetPos := blockNumPos + int32Size
	offset := page.GetInt(offsetPos)

	valuePos := offsetPos + int32Size
	val := page.GetInt(valuePos)

	return &SetIntRecord{txNum: txNum, offset: int(offset), value: val, block: block}
}

func (r *SetIntRecord) Op() LogRecordType {
	return SetInt
}

func (r *SetIntRecord) TxNumber() int64 {
	return r.txNum
}

func (r *SetIntRecord) String() string {
	return fmt.Sprintf("<SETINT %d %s %d %d>", r.txNum, r.block, r.offset, r.value)
}

func (r *SetIntRecord) Undo(tx *Transaction) error {
	if err := tx.Pin(r.block); err != nil {
		return err
	}
	defer tx.Unpin(r.block)
	return tx.SetInt(r.block, r.offset, r.value, false)
}

// WriteSetIntToLog appends a set-int record, capturing the value at offset
// before the write it accompanies, and returns its LSN.
func WriteSetIntToLog(logManager *log.Manager, txNum int64, block *file.BlockId, offset int, val int32) (int64, error) {
	txNumPos := int32Size
	fileNamePos := txNumPos + int64Size
	fileName := block.Filename()

	blockNumPos := fileNamePos + file.MaxLength(len(fileName))
	offsetPos := blockNumPos + int32Size
	valuePos := offsetPos + int32Size
	recordLen := valuePos + int32Size

	rec := make([]byte, recordLen)
	page := file.NewPageFromBytes(rec)
	page.SetInt(0, int32(SetInt))
	page.SetInt64(txNumPos, txNum)
	page.SetString(fileNamePos, fileName)
	page.SetInt(blockNumPos, int32(block.Number()))
	page.SetInt(offsetPos, int32(offset))
	page.SetInt(valuePos, val)

	return logManager.Append(rec)
}
