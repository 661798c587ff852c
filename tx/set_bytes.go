package tx

import (
	"fmt"

	"github.com/wrendb/wrendb/file"
	"github.com/wrendb/wrendb/log"
)

// SetBytesRecord undoes a fixed-width byte write -- used both for CHAR(n)
// column values and for whole-record slot writes in the heap layer.
type SetBytesRecord struct {
	txNum  int64
	offset int
	value  []byte
	block  *file.BlockId
}

func NewSetBytesRecord(page *file.Page) *SetBytesRecord {
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
	val := page.GetBytes(valuePos)

	return &SetBytesRecord{txNum: txNum, offset: int(offset), value: val, block: block}
}

func (r *SetBytesRecord) Op() LogRecordType {
	return SetBytes
}

func (r *SetBytesRecord) TxNumber() int64 {
	return r.txNum
}

func (r *SetBytesRecord) String() string {
	return fmt.Sprintf("<SETBYTES %d %s %d %d bytes>", r.txNum, r.block, r.offset, len(r.value))
}

func (r *SetBytesRecord) Undo(tx *Transaction) error {
	if err := tx.Pin(r.block); err != nil {
		return err
	}
	defer tx.Unpin(r.block)
	return tx.SetFixedBytes(r.block, r.offset, r.value, false)
}

// WriteSetBytesToLog appends a set-bytes record, capturing the length and
// old contents of the byte range at offset, and returns its LSN.
func WriteSetBytesToLog(logManager *log.Manager, txNum int64, block *file.BlockId, offset int, val []byte) (int64, error) {
	txNumPos := int32Size
	fileNamePos := txNumPos + int64Size
	fileName := block.Filename()

	blockNumPos := fileNamePos + file.MaxLength(len(fileName))
	offsetPos := blockNumPos + int32Size
	valuePos := offsetPos + int32Size
	recordLen := valuePos + 4 + len(val)

	rec := make([]byte, recordLen)
	page := file.NewPageFromBytes(rec)
	page.SetInt(0, int32(SetBytes))
	page.SetInt64(txNumPos, txNum)
	page.SetString(fileNamePos, fileName)
	page.SetInt(blockNumPos, int32(block.Number()))
	page.SetInt(offsetPos, int32(offset))
	page.SetBytes(valuePos, val)

	return logManager.Append(rec)
}
