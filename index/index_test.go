package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrendb/wrendb/buffer"
	"github.com/wrendb/wrendb/file"
	"github.com/wrendb/wrendb/index/btree"
	"github.com/wrendb/wrendb/log"
	"github.com/wrendb/wrendb/record"
	"github.com/wrendb/wrendb/tx"
	"github.com/wrendb/wrendb/types"
)

func indexTestSetup(t *testing.T) *tx.Transaction {
	dbDir := t.TempDir()
	fm, err := file.NewManager(dbDir, 400)
	require.NoError(t, err)
	lm, err := log.NewManager(fm, "logfile")
	require.NoError(t, err)
	bm := buffer.NewManager(fm, lm, 8)
	txn, err := tx.NewTransaction(fm, lm, bm)
	require.NoError(t, err)
	return txn
}

func TestIndexInsertGetDelete(t *testing.T) {
	txn := indexTestSetup(t)
	schema := btree.Schema{{Kind: types.IntKind}}

	ix, err := Open(txn, "idx", schema)
	require.NoError(t, err)

	inserted, err := ix.Insert([]types.Value{types.NewInt(5)}, record.NewID(1, 2))
	require.NoError(t, err)
	assert.True(t, inserted)

	rid, ok, err := ix.Get([]types.Value{types.NewInt(5)})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, record.NewID(1, 2), rid)

	ok, err = ix.Delete([]types.Value{types.NewInt(5)})
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, err = ix.Get([]types.Value{types.NewInt(5)})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIndexRangeScan(t *testing.T) {
	txn := indexTestSetup(t)
	schema := btree.Schema{{Kind: types.IntKind}}

	ix, err := Open(txn, "idx2", schema)
	require.NoError(t, err)

	for i := int32(0); i < 10; i++ {
		_, err := ix.Insert([]types.Value{types.NewInt(i)}, record.NewID(int(i), 0))
		require.NoError(t, err)
	}

	scan, err := ix.RangeScan([]types.Value{types.NewInt(3)}, []types.Value{types.NewInt(6)})
	require.NoError(t, err)

	var got []int32
	for {
		ok, err := scan.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		key, _, err := scan.Entry()
		require.NoError(t, err)
		got = append(got, schema.DecodeKey(key)[0].I)
	}
	assert.Equal(t, []int32{3, 4, 5, 6}, got)
}
