package tx

import (
	"fmt"

	"github.com/wrendb/wrendb/file"
	"github.com/wrendb/wrendb/log"
)

type SetFloatRecord struct {
	txNum  int64
	offset int
	value  float32
	block  *file.BlockId
}

func NewSetFloatRecord(page *file.Page) *SetFloatRecord {
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
	val := page.GetFloat(valuePos)

	return &SetFloatRecord{txNum: txNum, offset: int(offset), value: val, block: block}
}

func (r *SetFloatRecord) Op() LogRecordType {
	return SetFloat
}

func (r *SetFloatRecord) TxNumber() int64 {
	return r.txNum
}

func (r *SetFloatRecord) String() string {
	return fmt.Sprintf("<SETFLOAT %d %s %d %f>", r.txNum, r.block, r.offset, r.value)
}

func (r *SetFloatRecord) Undo(tx *Transaction) error {
	if err := tx.Pin(r.block); err != nil {
		return err
	}
	defer tx.Unpin(r.block)
	return tx.SetFloat(r.block, r.offset, r.value, false)
}

// WriteSetFloatToLog appends a set-float record and returns its LSN.
func WriteSetFloatToLog(logManager *log.Manager, txNum int64, block *file.BlockId, offset int, val float32) (int64, error) {
	txNumPos := int32Size
	fileNamePos := txNumPos + int64Size
	fileName := block.Filename()

	blockNumPos := fileNamePos + file.MaxLength(len(fileName))
	offsetPos := blockNumPos + int32Size
	valuePos := offsetPos + int32Size
	recordLen := valuePos + int32Size

	rec := make([]byte, recordLen)
	page := file.NewPageFromBytes(rec)
	page.SetInt(0, int32(SetFloat))
	page.SetInt64(txNumPos, txNum)
	page.SetString(fileNamePos, fileName)
	page.SetInt(blockNumPos, int32(block.Number()))
	page.SetInt(offsetPos, int32(offset))
	page.SetFloat(valuePos, val)

	return logManager.Append(rec)
}
