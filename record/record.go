package record

import (
	"fmt"

	"github.com/wrendb/wrendb/file"
	"github.com/wrendb/wrendb/types"
)

// Record is a contiguous byte buffer, exactly TupleLength(columns) bytes
// long, laid out as the concatenation of its columns in declared order.
// The engine never relocates a record's bytes in place; a value is
// changed by decoding, mutating, and re-encoding the whole buffer, or (for
// heap files) by rewriting the slot addressed by an ID.
type Record []byte

// NewRecord allocates a zeroed record buffer sized for columns.
func NewRecord(columns []Column) Record {
	width := 0
	for _, c := range columns {
		width += c.ByteLen()
	}
	return make(Record, width)
}

// TupleLength returns the byte width of a record laid out with columns.
func TupleLength(columns []Column) int {
	width := 0
	for _, c := range columns {
		width += c.ByteLen()
	}
	return width
}

// EncodeValues builds a record buffer from a positional list of values
// matching columns exactly.
func EncodeValues(columns []Column, values []types.Value) (Record, error) {
	if len(columns) != len(values) {
		return nil, fmt.Errorf("column/value count mismatch: %d columns, %d values", len(columns), len(values))
	}
	rec := NewRecord(columns)
	for i, c := range columns {
		if err := rec.SetValue(c, values[i]); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// GetValue decodes the value stored at column c's offset.
func (r Record) GetValue(c Column) types.Value {
	page := file.NewPageFromBytes([]byte(r))
	switch c.Kind {
	case types.IntKind:
		return types.NewInt(page.GetInt(c.Offset))
	case types.FloatKind:
		return types.NewFloat(page.GetFloat(c.Offset))
	case types.CharKind:
		return types.NewChar(page.GetFixedBytes(c.Offset, c.Len))
	default:
		panic("unknown column kind")
	}
}

// SetValue encodes v into column c's slice of the record buffer, coercing
// between int and float the same way comparison does. Any other kind
// mismatch is a type error.
func (r Record) SetValue(c Column, v types.Value) error {
	page := file.NewPageFromBytes([]byte(r))
	switch c.Kind {
	case types.IntKind:
		if v.Kind == types.FloatKind {
			page.SetInt(c.Offset, int32(v.F))
			return nil
		}
		if v.Kind != types.IntKind {
			return &types.TypeError{Left: c.Kind, Right: v.Kind}
		}
		page.SetInt(c.Offset, v.I)
	case types.FloatKind:
		if v.Kind == types.IntKind {
			page.SetFloat(c.Offset, float32(v.I))
			return nil
		}
		if v.Kind != types.FloatKind {
			return &types.TypeError{Left: c.Kind, Right: v.Kind}
		}
		page.SetFloat(c.Offset, v.F)
	case types.CharKind:
		if v.Kind != types.CharKind {
			return &types.TypeError{Left: c.Kind, Right: v.Kind}
		}
		page.SetFixedBytes(c.Offset, c.Len, v.S)
	default:
		panic("unknown column kind")
	}
	return nil
}

// Concat returns a new record holding left's bytes followed by right's
// bytes, as produced by a join. Callers offset the right side's column
// descriptors by len(left) before reading them from the result.
func Concat(left, right Record) Record {
	out := make(Record, len(left)+len(right))
	copy(out, left)
	copy(out[len(left):], right)
	return out
}

// ShiftColumn returns a copy of c with its offset increased by delta, used
// to translate a right-hand join column's offset into the concatenated
// output record (or, in reverse, to translate it back for evaluating a
// join condition against the unconcatenated right record).
func ShiftColumn(c Column, delta int) Column {
	c.Offset += delta
	return c
}
