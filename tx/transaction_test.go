package tx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrendb/wrendb/buffer"
	"github.com/wrendb/wrendb/file"
	"github.com/wrendb/wrendb/log"
)

func txTestSetup(t *testing.T) (*file.Manager, *log.Manager, *buffer.Manager, func()) {
	testDir := filepath.Join("testdir", t.Name())
	fm, err := file.NewManager(testDir, 400)
	require.NoError(t, err)

	lm, err := log.NewManager(fm, "testlog")
	require.NoError(t, err)

	bm := buffer.NewManager(fm, lm, 8)

	cleanup := func() {
		if err := os.RemoveAll(testDir); err != nil {
			t.Errorf("failed to clean up test directory: %v", err)
		}
	}
	return fm, lm, bm, cleanup
}

func TestTransactionSetGetIntCommit(t *testing.T) {
	fm, lm, bm, cleanup := txTestSetup(t)
	defer cleanup()

	txn, err := NewTransaction(fm, lm, bm)
	require.NoError(t, err)

	block, err := txn.Append("testfile")
	require.NoError(t, err)
	require.NoError(t, txn.Pin(block))
	require.NoError(t, txn.SetInt(block, 0, 99, true))
	require.NoError(t, txn.Commit())

	txn2, err := NewTransaction(fm, lm, bm)
	require.NoError(t, err)
	require.NoError(t, txn2.Pin(block))
	val, err := txn2.GetInt(block, 0)
	require.NoError(t, err)
	assert.Equal(t, int32(99), val)
	require.NoError(t, txn2.Commit())
}

func TestTransactionRollbackUndoesWrite(t *testing.T) {
	fm, lm, bm, cleanup := txTestSetup(t)
	defer cleanup()

	setup, err := NewTransaction(fm, lm, bm)
	require.NoError(t, err)
	block, err := setup.Append("testfile2")
	require.NoError(t, err)
	require.NoError(t, setup.Pin(block))
	require.NoError(t, setup.SetInt(block, 0, 1, true))
	require.NoError(t, setup.Commit())

	txn, err := NewTransaction(fm, lm, bm)
	require.NoError(t, err)
	require.NoError(t, txn.Pin(block))
	require.NoError(t, txn.SetInt(block, 0, 2, true))
	require.NoError(t, txn.Rollback())

	verify, err := NewTransaction(fm, lm, bm)
	require.NoError(t, err)
	require.NoError(t, verify.Pin(block))
	val, err := verify.GetInt(block, 0)
	require.NoError(t, err)
	assert.Equal(t, int32(1), val)
	require.NoError(t, verify.Commit())
}

func TestTransactionSetGetFixedBytes(t *testing.T) {
	fm, lm, bm, cleanup := txTestSetup(t)
	defer cleanup()

	txn, err := NewTransaction(fm, lm, bm)
	require.NoError(t, err)
	block, err := txn.Append("testfile3")
	require.NoError(t, err)
	require.NoError(t, txn.Pin(block))
	require.NoError(t, txn.SetFixedBytes(block, 0, []byte("abcd"), true))
	require.NoError(t, txn.Commit())

	verify, err := NewTransaction(fm, lm, bm)
	require.NoError(t, err)
	require.NoError(t, verify.Pin(block))
	got, err := verify.GetFixedBytes(block, 0, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte("abcd"), got)
	require.NoError(t, verify.Commit())
}

func TestTransactionAvailableBuffersAndSize(t *testing.T) {
	fm, lm, bm, cleanup := txTestSetup(t)
	defer cleanup()

	txn, err := NewTransaction(fm, lm, bm)
	require.NoError(t, err)
	assert.Equal(t, 8, txn.AvailableBuffers())

	block, err := txn.Append("testfile4")
	require.NoError(t, err)
	require.NoError(t, txn.Pin(block))
	assert.Equal(t, 7, txn.AvailableBuffers())

	size, err := txn.Size("testfile4")
	require.NoError(t, err)
	assert.Equal(t, 1, size)

	txn.Unpin(block)
	require.NoError(t, txn.Commit())
}
