package heap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrendb/wrendb/buffer"
	"github.com/wrendb/wrendb/file"
	"github.com/wrendb/wrendb/log"
	"github.com/wrendb/wrendb/record"
	"github.com/wrendb/wrendb/tx"
	"github.com/wrendb/wrendb/types"
)

func heapTestSetup(t *testing.T) (*tx.Transaction, []record.Column, func()) {
	testDir := filepath.Join("testdir", t.Name())
	fm, err := file.NewManager(testDir, 400)
	require.NoError(t, err)
	lm, err := log.NewManager(fm, "testlog")
	require.NoError(t, err)
	bm := buffer.NewManager(fm, lm, 8)

	txn, err := tx.NewTransaction(fm, lm, bm)
	require.NoError(t, err)

	columns, _ := record.ComputeOffsets([]record.Column{
		{Table: "t", Name: "id", Kind: types.IntKind},
		{Table: "t", Name: "name", Kind: types.CharKind, Len: 12},
	})

	cleanup := func() {
		if err := os.RemoveAll(testDir); err != nil {
			t.Errorf("failed to clean up test directory: %v", err)
		}
	}
	return txn, columns, cleanup
}

func TestHeapFileInsertAndGet(t *testing.T) {
	txn, columns, cleanup := heapTestSetup(t)
	defer cleanup()

	f, err := Open(txn, "widgets", columns)
	require.NoError(t, err)

	rec, err := record.EncodeValues(columns, []types.Value{
		types.NewInt(7),
		types.NewChar([]byte("bolt")),
	})
	require.NoError(t, err)

	rid, err := f.Insert(rec)
	require.NoError(t, err)

	got, err := f.Get(rid)
	require.NoError(t, err)
	assert.Equal(t, int32(7), got.GetValue(columns[0]).I)
	assert.Equal(t, []byte("bolt\x00\x00\x00\x00\x00\x00\x00\x00"), got.GetValue(columns[1]).S)
}

func TestHeapFileDeleteFreesSlot(t *testing.T) {
	txn, columns, cleanup := heapTestSetup(t)
	defer cleanup()

	f, err := Open(txn, "widgets2", columns)
	require.NoError(t, err)

	rec, err := record.EncodeValues(columns, []types.Value{types.NewInt(1), types.NewChar([]byte("a"))})
	require.NoError(t, err)
	rid, err := f.Insert(rec)
	require.NoError(t, err)

	require.NoError(t, f.Delete(rid))
	_, err = f.Get(rid)
	assert.Error(t, err)
}

func TestHeapFileSpansMultipleBlocks(t *testing.T) {
	txn, columns, cleanup := heapTestSetup(t)
	defer cleanup()

	f, err := Open(txn, "widgets3", columns)
	require.NoError(t, err)

	const n = 60 // enough fixed-width slots to overflow one 400-byte block
	rids := make([]record.ID, 0, n)
	for i := 0; i < n; i++ {
		rec, err := record.EncodeValues(columns, []types.Value{
			types.NewInt(int32(i)),
			types.NewChar([]byte("x")),
		})
		require.NoError(t, err)
		rid, err := f.Insert(rec)
		require.NoError(t, err)
		rids = append(rids, rid)
	}

	count, err := f.Count()
	require.NoError(t, err)
	assert.Equal(t, n, count)

	seen := make(map[int32]bool)
	scan, err := NewScan(f)
	require.NoError(t, err)
	defer scan.Close()
	for {
		ok, err := scan.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		rec, err := scan.Record()
		require.NoError(t, err)
		seen[rec.GetValue(columns[0]).I] = true
	}
	assert.Len(t, seen, n)
}

func TestHeapFileUpdate(t *testing.T) {
	txn, columns, cleanup := heapTestSetup(t)
	defer cleanup()

	f, err := Open(txn, "widgets4", columns)
	require.NoError(t, err)

	rec, err := record.EncodeValues(columns, []types.Value{types.NewInt(1), types.NewChar([]byte("a"))})
	require.NoError(t, err)
	rid, err := f.Insert(rec)
	require.NoError(t, err)

	updated, err := record.EncodeValues(columns, []types.Value{types.NewInt(2), types.NewChar([]byte("b"))})
	require.NoError(t, err)
	require.NoError(t, f.Update(rid, updated))

	got, err := f.Get(rid)
	require.NoError(t, err)
	assert.Equal(t, int32(2), got.GetValue(columns[0]).I)
}
