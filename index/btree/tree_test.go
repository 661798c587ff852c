package btree

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

func btreeTestSetup(t *testing.T, blockSize int) (*tx.Transaction, func()) {
	testDir := filepath.Join("testdir", t.Name())
	fm, err := file.NewManager(testDir, blockSize)
	require.NoError(t, err)
	lm, err := log.NewManager(fm, "testlog")
	require.NoError(t, err)
	bm := buffer.NewManager(fm, lm, 32)

	txn, err := tx.NewTransaction(fm, lm, bm)
	require.NoError(t, err)

	cleanup := func() {
		if err := os.RemoveAll(testDir); err != nil {
			t.Errorf("failed to clean up test directory: %v", err)
		}
	}
	return txn, cleanup
}

func intSchema() Schema {
	return Schema{{Kind: types.IntKind}}
}

func intKey(t *testing.T, s Schema, v int32) []byte {
	t.Helper()
	k, err := s.EncodeKey([]types.Value{types.NewInt(v)})
	require.NoError(t, err)
	return k
}

func TestTreeInsertAndGet(t *testing.T) {
	txn, cleanup := btreeTestSetup(t, 128)
	defer cleanup()

	schema := intSchema()
	tree, err := Open(txn, "idx1", schema)
	require.NoError(t, err)

	key := intKey(t, schema, 42)
	_, inserted, err := tree.Insert(key, record.NewID(3, 1))
	require.NoError(t, err)
	require.True(t, inserted)

	rid, ok, err := tree.Get(key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, record.NewID(3, 1), rid)

	_, ok, err = tree.Get(intKey(t, schema, 99))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTreeInsertDuplicateKeyRejected(t *testing.T) {
	txn, cleanup := btreeTestSetup(t, 400)
	defer cleanup()

	schema := intSchema()
	tree, err := Open(txn, "idxdup", schema)
	require.NoError(t, err)

	key := intKey(t, schema, 7)
	_, inserted, err := tree.Insert(key, record.NewID(1, 0))
	require.NoError(t, err)
	require.True(t, inserted)

	_, inserted, err = tree.Insert(key, record.NewID(2, 0))
	require.NoError(t, err)
	assert.False(t, inserted)

	rid, ok, err := tree.Get(key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, record.NewID(1, 0), rid, "the original entry must survive a rejected duplicate insert")
}

func TestTreeSplitsAcrossManyInserts(t *testing.T) {
	txn, cleanup := btreeTestSetup(t, 128) // small block forces splits quickly
	defer cleanup()

	schema := intSchema()
	tree, err := Open(txn, "idx2", schema)
	require.NoError(t, err)

	const n = 200
	for i := 0; i < n; i++ {
		_, inserted, err := tree.Insert(intKey(t, schema, int32(i)), record.NewID(i, 0))
		require.NoError(t, err)
		require.True(t, inserted)
	}

	for i := 0; i < n; i++ {
		rid, ok, err := tree.Get(intKey(t, schema, int32(i)))
		require.NoError(t, err)
		require.True(t, ok, "key %d should be present", i)
		assert.Equal(t, record.NewID(i, 0), rid)
	}

	begin, err := tree.LeafBegin()
	require.NoError(t, err)
	end, err := tree.LeafEnd()
	require.NoError(t, err)

	scan := NewScan(tree, begin, end)
	prev := int32(-1)
	count := 0
	for {
		ok, err := scan.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		key, _, err := scan.Entry()
		require.NoError(t, err)
		v := schema.DecodeKey(key)[0].I
		assert.Greater(t, v, prev, "keys must come back in ascending order")
		prev = v
		count++
	}
	assert.Equal(t, n, count)
}

func TestTreeRangeScan(t *testing.T) {
	txn, cleanup := btreeTestSetup(t, 128)
	defer cleanup()

	schema := intSchema()
	tree, err := Open(txn, "idx3", schema)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		_, inserted, err := tree.Insert(intKey(t, schema, int32(i)), record.NewID(i, 0))
		require.NoError(t, err)
		require.True(t, inserted)
	}

	lower, err := tree.LowerBound(intKey(t, schema, 10))
	require.NoError(t, err)
	upper, err := tree.UpperBound(intKey(t, schema, 20))
	require.NoError(t, err)

	scan := NewScan(tree, lower, upper)
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
	require.Len(t, got, 11) // 10..20 inclusive
	assert.Equal(t, int32(10), got[0])
	assert.Equal(t, int32(20), got[len(got)-1])
}

func TestTreeEraseUnderflowsAndMerges(t *testing.T) {
	txn, cleanup := btreeTestSetup(t, 128)
	defer cleanup()

	schema := intSchema()
	tree, err := Open(txn, "idx4", schema)
	require.NoError(t, err)

	const n = 200
	for i := 0; i < n; i++ {
		_, inserted, err := tree.Insert(intKey(t, schema, int32(i)), record.NewID(i, 0))
		require.NoError(t, err)
		require.True(t, inserted)
	}

	for i := 0; i < n; i += 2 {
		ok, err := tree.Erase(intKey(t, schema, int32(i)))
		require.NoError(t, err)
		require.True(t, ok)
	}

	for i := 0; i < n; i++ {
		rid, ok, err := tree.Get(intKey(t, schema, int32(i)))
		require.NoError(t, err)
		if i%2 == 0 {
			assert.False(t, ok, "key %d should have been erased", i)
		} else {
			require.True(t, ok, "key %d should remain", i)
			assert.Equal(t, record.NewID(i, 0), rid)
		}
	}

	begin, err := tree.LeafBegin()
	require.NoError(t, err)
	end, err := tree.LeafEnd()
	require.NoError(t, err)
	scan := NewScan(tree, begin, end)
	count := 0
	for {
		ok, err := scan.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		count++
	}
	assert.Equal(t, n/2, count)
}

func TestTreeEraseAllReturnsToEmptyRoot(t *testing.T) {
	txn, cleanup := btreeTestSetup(t, 128)
	defer cleanup()

	schema := intSchema()
	tree, err := Open(txn, "idx5", schema)
	require.NoError(t, err)

	const n = 60
	for i := 0; i < n; i++ {
		_, inserted, err := tree.Insert(intKey(t, schema, int32(i)), record.NewID(i, 0))
		require.NoError(t, err)
		require.True(t, inserted)
	}
	for i := 0; i < n; i++ {
		ok, err := tree.Erase(intKey(t, schema, int32(i)))
		require.NoError(t, err)
		require.True(t, ok)
	}

	_, ok, err := tree.Get(intKey(t, schema, 0))
	require.NoError(t, err)
	assert.False(t, ok)

	begin, err := tree.LeafBegin()
	require.NoError(t, err)
	end, err := tree.LeafEnd()
	require.NoError(t, err)
	assert.Equal(t, begin, end)
}

func TestTreeEraseNonexistentIsNoop(t *testing.T) {
	txn, cleanup := btreeTestSetup(t, 400)
	defer cleanup()

	schema := intSchema()
	tree, err := Open(txn, "idx6", schema)
	require.NoError(t, err)

	_, inserted, err := tree.Insert(intKey(t, schema, 1), record.NewID(0, 0))
	require.NoError(t, err)
	require.True(t, inserted)

	ok, err := tree.Erase(intKey(t, schema, 2))
	require.NoError(t, err)
	assert.False(t, ok)
}
