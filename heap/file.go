package heap

import (
	"fmt"

	"github.com/wrendb/wrendb/file"
	"github.com/wrendb/wrendb/record"
	"github.com/wrendb/wrendb/tx"
)

const fileExtension = ".tbl"

// FileName returns the on-disk file name heap.Open uses for tableName, so
// callers that need to destroy a table's storage (DROP TABLE) don't have
// to know the extension.
func FileName(tableName string) string {
	return tableName + fileExtension
}

// File is the fixed-slot heap storage for one table: an arbitrarily large
// sequence of blocks, each formatted as a page of fixed-width record slots.
// It is the storage engine's only means of persisting and retrieving table
// rows; every executor that reads or writes base-table data goes through
// one.
type File struct {
	txn      *tx.Transaction
	columns  []record.Column
	fileName string
	width    int
}

// Open opens (creating if necessary) the heap file backing tableName. The
// first block is allocated immediately if the file is empty, matching the
// engine's rule that every table has at least one block once created.
func Open(txn *tx.Transaction, tableName string, columns []record.Column) (*File, error) {
	f := &File{
		txn:      txn,
		columns:  columns,
		fileName: tableName + fileExtension,
		width:    record.TupleLength(columns),
	}

	size, err := txn.Size(f.fileName)
	if err != nil {
		return nil, fmt.Errorf("heap: get file size: %w", err)
	}
	if size == 0 {
		if _, err := f.appendFormattedBlock(); err != nil {
			return nil, fmt.Errorf("heap: format first block: %w", err)
		}
	}
	return f, nil
}

// Get retrieves the record stored at rid.
func (f *File) Get(rid record.ID) (record.Record, error) {
	block := file.NewBlockId(f.fileName, rid.PageNum)
	p, err := newPage(f.txn, block, f.width)
	if err != nil {
		return nil, err
	}
	defer p.close()

	occupied, err := p.flag(rid.Slot)
	if err != nil {
		return nil, err
	}
	if occupied != flagInUse {
		return nil, fmt.Errorf("heap: record %s does not exist", rid)
	}
	return p.getRecord(rid.Slot)
}

// Insert stores rec in the first available slot, appending a new block if
// every existing block is full, and returns the ID it was stored under.
func (f *File) Insert(rec record.Record) (record.ID, error) {
	size, err := f.txn.Size(f.fileName)
	if err != nil {
		return record.ID{}, err
	}

	for blockNum := 0; blockNum < size; blockNum++ {
		block := file.NewBlockId(f.fileName, blockNum)
		p, err := newPage(f.txn, block, f.width)
		if err != nil {
			return record.ID{}, err
		}
		slot, err := p.insertAfter(-1)
		if err != nil {
			p.close()
			return record.ID{}, err
		}
		if slot >= 0 {
			if err := p.setRecord(slot, rec); err != nil {
				p.close()
				return record.ID{}, err
			}
			p.close()
			return record.NewID(blockNum, slot), nil
		}
		p.close()
	}

	blockNum, err := f.appendFormattedBlock()
	if err != nil {
		return record.ID{}, err
	}
	block := file.NewBlockId(f.fileName, blockNum)
	p, err := newPage(f.txn, block, f.width)
	if err != nil {
		return record.ID{}, err
	}
	defer p.close()

	slot, err := p.insertAfter(-1)
	if err != nil {
		return record.ID{}, err
	}
	if slot < 0 {
		return record.ID{}, fmt.Errorf("heap: newly formatted block has no room for a record")
	}
	if err := p.setRecord(slot, rec); err != nil {
		return record.ID{}, err
	}
	return record.NewID(blockNum, slot), nil
}

// Update overwrites the record at rid in place. The new record must have
// the same width as the table's fixed record layout.
func (f *File) Update(rid record.ID, rec record.Record) error {
	block := file.NewBlockId(f.fileName, rid.PageNum)
	p, err := newPage(f.txn, block, f.width)
	if err != nil {
		return err
	}
	defer p.close()
	return p.setRecord(rid.Slot, rec)
}

// Delete marks rid's slot empty. The record's bytes are left in the block
// but are no longer reachable by scan or lookup.
func (f *File) Delete(rid record.ID) error {
	block := file.NewBlockId(f.fileName, rid.PageNum)
	p, err := newPage(f.txn, block, f.width)
	if err != nil {
		return err
	}
	defer p.close()
	return p.setFlag(rid.Slot, flagEmpty)
}

// Count returns the number of in-use slots in the file, used by the
// statistics manager to estimate table cardinality.
func (f *File) Count() (int, error) {
	size, err := f.txn.Size(f.fileName)
	if err != nil {
		return 0, err
	}
	total := 0
	for blockNum := 0; blockNum < size; blockNum++ {
		block := file.NewBlockId(f.fileName, blockNum)
		p, err := newPage(f.txn, block, f.width)
		if err != nil {
			return 0, err
		}
		slot := -1
		for {
			slot, err = p.nextAfter(slot)
			if err != nil {
				p.close()
				return 0, err
			}
			if slot < 0 {
				break
			}
			total++
		}
		p.close()
	}
	return total, nil
}

func (f *File) appendFormattedBlock() (int, error) {
	block, err := f.txn.Append(f.fileName)
	if err != nil {
		return 0, err
	}
	p, err := newPage(f.txn, block, f.width)
	if err != nil {
		return 0, err
	}
	defer p.close()
	if err := p.format(); err != nil {
		return 0, err
	}
	return block.Number(), nil
}

// Scan iterates every in-use record of a heap file in block/slot order.
type Scan struct {
	txn      *tx.Transaction
	fileName string
	width    int
	page     *page
	slot     int
}

// NewScan opens a scan over the whole file, positioned before the first record.
func NewScan(f *File) (*Scan, error) {
	s := &Scan{txn: f.txn, fileName: f.fileName, width: f.width}
	if err := s.moveToBlock(0); err != nil {
		return nil, err
	}
	return s, nil
}

// Next advances to the next in-use record, returning false once the file is
// exhausted.
func (s *Scan) Next() (bool, error) {
	for {
		slot, err := s.page.nextAfter(s.slot)
		if err != nil {
			return false, err
		}
		if slot >= 0 {
			s.slot = slot
			return true, nil
		}
		atLast, err := s.atLastBlock()
		if err != nil {
			return false, err
		}
		if atLast {
			return false, nil
		}
		if err := s.moveToBlock(s.page.block.Number() + 1); err != nil {
			return false, err
		}
	}
}

// Record returns the record at the scan's current position.
func (s *Scan) Record() (record.Record, error) {
	return s.page.getRecord(s.slot)
}

// RID returns the ID of the record at the scan's current position.
func (s *Scan) RID() record.ID {
	return record.NewID(s.page.block.Number(), s.slot)
}

// Close releases the scan's pinned block.
func (s *Scan) Close() {
	if s.page != nil {
		s.page.close()
	}
}

func (s *Scan) moveToBlock(blockNum int) error {
	if s.page != nil {
		s.page.close()
	}
	block := file.NewBlockId(s.fileName, blockNum)
	p, err := newPage(s.txn, block, s.width)
	if err != nil {
		return err
	}
	s.page = p
	s.slot = -1
	return nil
}

func (s *Scan) atLastBlock() (bool, error) {
	size, err := s.txn.Size(s.fileName)
	if err != nil {
		return false, err
	}
	return s.page.block.Number() == size-1, nil
}
