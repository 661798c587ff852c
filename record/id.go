package record

import "fmt"

// ID identifies a record by the heap page that stores it and its slot
// number within that page. It is zero-sized in the sense that it carries
// no allocation of its own and is trivially copied by value.
type ID struct {
	PageNum int
	Slot    int
}

func NewID(pageNum, slot int) ID {
	return ID{PageNum: pageNum, Slot: slot}
}

func (id ID) Equals(other ID) bool {
	return id.PageNum == other.PageNum && id.Slot == other.Slot
}

func (id ID) String() string {
	return fmt.Sprintf("[page %d, slot %d]", id.PageNum, id.Slot)
}
