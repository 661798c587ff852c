package heap

import (
	"github.com/wrendb/wrendb/file"
	"github.com/wrendb/wrendb/record"
	"github.com/wrendb/wrendb/tx"
)

const (
	flagEmpty int32 = 0
	flagInUse int32 = 1
)

// page is a fixed-slot heap block: a flat array of slotSize-byte slots,
// each slot holding a one-word occupancy flag followed by a record whose
// width is fixed for the whole table. There is no free-space header;
// occupancy is discovered by scanning flags.
type page struct {
	txn         *tx.Transaction
	block       *file.BlockId
	recordWidth int
	slotSize    int
}

func newPage(txn *tx.Transaction, block *file.BlockId, recordWidth int) (*page, error) {
	if err := txn.Pin(block); err != nil {
		return nil, err
	}
	return &page{txn: txn, block: block, recordWidth: recordWidth, slotSize: 4 + recordWidth}, nil
}

func (p *page) close() {
	p.txn.Unpin(p.block)
}

func (p *page) slotsPerBlock() int {
	return p.txn.BlockSize() / p.slotSize
}

func (p *page) offset(slot int) int {
	return slot * p.slotSize
}

func (p *page) format() error {
	slots := p.slotsPerBlock()
	for slot := 0; slot < slots; slot++ {
		if err := p.txn.SetInt(p.block, p.offset(slot), flagEmpty, false); err != nil {
			return err
		}
	}
	return nil
}

func (p *page) flag(slot int) (int32, error) {
	return p.txn.GetInt(p.block, p.offset(slot))
}

func (p *page) setFlag(slot int, val int32) error {
	return p.txn.SetInt(p.block, p.offset(slot), val, true)
}

func (p *page) getRecord(slot int) (record.Record, error) {
	b, err := p.txn.GetFixedBytes(p.block, p.offset(slot)+4, p.recordWidth)
	if err != nil {
		return nil, err
	}
	return record.Record(b), nil
}

func (p *page) setRecord(slot int, rec record.Record) error {
	return p.txn.SetFixedBytes(p.block, p.offset(slot)+4, []byte(rec), true)
}

// nextAfter returns the next in-use slot strictly after slot, or -1.
func (p *page) nextAfter(slot int) (int, error) {
	return p.searchAfter(slot, flagInUse)
}

// insertAfter finds the next empty slot strictly after slot, marks it
// in-use, and returns it, or -1 if the block is full.
func (p *page) insertAfter(slot int) (int, error) {
	newSlot, err := p.searchAfter(slot, flagEmpty)
	if err != nil || newSlot < 0 {
		return -1, err
	}
	if err := p.setFlag(newSlot, flagInUse); err != nil {
		return -1, err
	}
	return newSlot, nil
}

func (p *page) searchAfter(slot int, want int32) (int, error) {
	slot++
	slots := p.slotsPerBlock()
	for slot < slots {
		f, err := p.flag(slot)
		if err != nil {
			return -1, err
		}
		if f == want {
			return slot, nil
		}
		slot++
	}
	return -1, nil
}
