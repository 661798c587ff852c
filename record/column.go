package record

import (
	"fmt"

	"github.com/wrendb/wrendb/types"
)

// Column is the descriptor of one field of a table: its declared type and
// byte length, and the byte offset that field occupies within the fixed
// layout of a record for the owning table. Offsets are computed once, at
// CREATE TABLE time, and never change afterward.
type Column struct {
	Table   string
	Name    string
	Kind    types.Kind
	Len     int // byte length; meaningful width for CharKind, fixed 4 for Int/Float
	Offset  int
	Indexed bool
}

// ByteLen returns the number of bytes this column occupies in a record.
func (c Column) ByteLen() int {
	switch c.Kind {
	case types.IntKind, types.FloatKind:
		return 4
	case types.CharKind:
		return c.Len
	default:
		panic("unknown column kind")
	}
}

func (c Column) String() string {
	if c.Kind == types.CharKind {
		return fmt.Sprintf("%s.%s CHAR(%d)", c.Table, c.Name, c.Len)
	}
	return fmt.Sprintf("%s.%s %s", c.Table, c.Name, c.Kind)
}

// ComputeOffsets assigns byte offsets to columns in declared order,
// concatenating them with no padding, and returns the total record width.
func ComputeOffsets(columns []Column) ([]Column, int) {
	offset := 0
	out := make([]Column, len(columns))
	for i, c := range columns {
		c.Offset = offset
		out[i] = c
		offset += c.ByteLen()
	}
	return out, offset
}
