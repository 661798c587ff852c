// Package btree implements the engine's on-disk index structure: an
// ordered B+-tree keyed on one or more table columns, storing a record ID
// per leaf entry. It supports point lookup, range positioning, and
// concurrent insert/delete with node split, merge, and redistribution,
// entirely through a tx.Transaction's page-level Pin/Get/Set methods --
// the same idiom the heap package uses to build fixed-slot pages on top
// of the same transaction primitives.
package btree

import (
	"fmt"

	"github.com/wrendb/wrendb/file"
	"github.com/wrendb/wrendb/types"
)

// KeyColumn describes one column of a (possibly composite) index key: its
// type and, for CHAR columns, its fixed byte length.
type KeyColumn struct {
	Kind types.Kind
	Len  int
}

func (c KeyColumn) byteLen() int {
	if c.Kind == types.CharKind {
		return c.Len
	}
	return 4
}

// Schema is the ordered list of columns making up an index's composite key.
type Schema []KeyColumn

// KeyLen returns the total byte width of a key under this schema.
func (s Schema) KeyLen() int {
	n := 0
	for _, c := range s {
		n += c.byteLen()
	}
	return n
}

// EncodeKey packs values into a single key buffer, in column order. len(values)
// must equal len(s).
func (s Schema) EncodeKey(values []types.Value) ([]byte, error) {
	if len(values) != len(s) {
		return nil, fmt.Errorf("btree: expected %d key values, got %d", len(s), len(values))
	}
	buf := make([]byte, s.KeyLen())
	page := file.NewPageFromBytes(buf)
	offset := 0
	for i, c := range s {
		v := values[i]
		if v.Kind != c.Kind {
			return nil, &types.TypeError{Left: c.Kind, Right: v.Kind}
		}
		switch c.Kind {
		case types.IntKind:
			page.SetInt(offset, v.I)
		case types.FloatKind:
			page.SetFloat(offset, v.F)
		case types.CharKind:
			page.SetFixedBytes(offset, c.Len, v.S)
		}
		offset += c.byteLen()
	}
	return buf, nil
}

// DecodeKey unpacks a key buffer produced by EncodeKey back into its
// component values.
func (s Schema) DecodeKey(key []byte) []types.Value {
	page := file.NewPageFromBytes(key)
	values := make([]types.Value, len(s))
	offset := 0
	for i, c := range s {
		switch c.Kind {
		case types.IntKind:
			values[i] = types.NewInt(page.GetInt(offset))
		case types.FloatKind:
			values[i] = types.NewFloat(page.GetFloat(offset))
		case types.CharKind:
			values[i] = types.NewChar(page.GetFixedBytes(offset, c.Len))
		}
		offset += c.byteLen()
	}
	return values
}

// Compare orders two encoded keys column by column: numeric columns compare
// numerically (with int/float promotion), CHAR columns compare their fixed
// byte range lexicographically. The first non-equal column decides.
func (s Schema) Compare(a, b []byte) (int, error) {
	av, bv := s.DecodeKey(a), s.DecodeKey(b)
	for i := range s {
		c, err := types.CompareValues(av[i], bv[i])
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return c, nil
		}
	}
	return 0, nil
}
