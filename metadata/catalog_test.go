package metadata

import (
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

func setupCatalogTest(t *testing.T) *tx.Transaction {
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

func sampleColumns() []record.Column {
	return []record.Column{
		{Name: "a", Kind: types.IntKind},
		{Name: "b", Kind: types.CharKind, Len: 4},
	}
}

func TestCatalogCreateAndGetTable(t *testing.T) {
	txn := setupCatalogTest(t)
	cat := Open(txn)

	desc, err := cat.CreateTable("t", sampleColumns())
	require.NoError(t, err)
	assert.Equal(t, "t", desc.Name)
	require.Len(t, desc.Columns, 2)
	assert.Equal(t, 0, desc.Columns[0].Offset)
	assert.Equal(t, 4, desc.Columns[1].Offset)

	got, err := cat.GetTable("t")
	require.NoError(t, err)
	assert.Equal(t, desc.Columns, got.Columns)
}

func TestCatalogCreateTableDuplicateRejected(t *testing.T) {
	txn := setupCatalogTest(t)
	cat := Open(txn)

	_, err := cat.CreateTable("t", sampleColumns())
	require.NoError(t, err)

	_, err = cat.CreateTable("t", sampleColumns())
	assert.Error(t, err)
}

func TestCatalogGetTableNotFound(t *testing.T) {
	txn := setupCatalogTest(t)
	cat := Open(txn)

	_, err := cat.GetTable("missing")
	assert.Error(t, err)
}

func TestCatalogAllTables(t *testing.T) {
	txn := setupCatalogTest(t)
	cat := Open(txn)

	_, err := cat.CreateTable("t1", sampleColumns())
	require.NoError(t, err)
	_, err = cat.CreateTable("t2", sampleColumns())
	require.NoError(t, err)

	names, err := cat.AllTables()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"t1", "t2"}, names)
}

func TestCatalogDropTable(t *testing.T) {
	txn := setupCatalogTest(t)
	cat := Open(txn)

	_, err := cat.CreateTable("t", sampleColumns())
	require.NoError(t, err)

	require.NoError(t, cat.DropTable("t"))

	_, err = cat.GetTable("t")
	assert.Error(t, err)

	names, err := cat.AllTables()
	require.NoError(t, err)
	assert.NotContains(t, names, "t")
}

func TestCatalogCreateAndGetIndex(t *testing.T) {
	txn := setupCatalogTest(t)
	cat := Open(txn)

	_, err := cat.CreateTable("t", sampleColumns())
	require.NoError(t, err)

	desc, err := cat.CreateIndex("idx_t_a", "t", []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, desc.Columns)

	got, err := cat.GetIndex("idx_t_a")
	require.NoError(t, err)
	assert.Equal(t, desc, got)
}

func TestCatalogCreateCompositeIndexPreservesOrder(t *testing.T) {
	txn := setupCatalogTest(t)
	cat := Open(txn)

	_, err := cat.CreateTable("t", sampleColumns())
	require.NoError(t, err)

	_, err = cat.CreateIndex("idx_ba", "t", []string{"b", "a"})
	require.NoError(t, err)

	got, err := cat.GetIndex("idx_ba")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, got.Columns)
}

func TestCatalogIndexesOnTable(t *testing.T) {
	txn := setupCatalogTest(t)
	cat := Open(txn)

	_, err := cat.CreateTable("t", sampleColumns())
	require.NoError(t, err)
	_, err = cat.CreateIndex("idx1", "t", []string{"a"})
	require.NoError(t, err)
	_, err = cat.CreateIndex("idx2", "t", []string{"b"})
	require.NoError(t, err)

	indexes, err := cat.IndexesOnTable("t")
	require.NoError(t, err)
	assert.Len(t, indexes, 2)
}

func TestCatalogDropIndex(t *testing.T) {
	txn := setupCatalogTest(t)
	cat := Open(txn)

	_, err := cat.CreateTable("t", sampleColumns())
	require.NoError(t, err)
	_, err = cat.CreateIndex("idx1", "t", []string{"a"})
	require.NoError(t, err)

	require.NoError(t, cat.DropIndex("idx1"))

	_, err = cat.GetIndex("idx1")
	assert.Error(t, err)
}
