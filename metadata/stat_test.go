package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrendb/wrendb/heap"
	"github.com/wrendb/wrendb/record"
	"github.com/wrendb/wrendb/types"
)

func TestStatManagerCountsRecords(t *testing.T) {
	txn := setupCatalogTest(t)
	cat := Open(txn)

	table, err := cat.CreateTable("t", sampleColumns())
	require.NoError(t, err)

	f, err := heap.Open(txn, "t", table.Columns)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		rec, err := record.EncodeValues(table.Columns, []types.Value{
			types.NewInt(int32(i)),
			types.NewChar([]byte("wxyz")),
		})
		require.NoError(t, err)
		_, err = f.Insert(rec)
		require.NoError(t, err)
	}

	sm, err := NewStatManager(txn, cat, 100)
	require.NoError(t, err)

	info, err := sm.GetStatInfo("t")
	require.NoError(t, err)
	assert.Equal(t, 5, info.RecordsOutput())
	assert.GreaterOrEqual(t, info.BlocksAccessed(), 1)
}

func TestStatManagerEmptyTableClampsToOne(t *testing.T) {
	txn := setupCatalogTest(t)
	cat := Open(txn)

	_, err := cat.CreateTable("empty", sampleColumns())
	require.NoError(t, err)

	sm, err := NewStatManager(txn, cat, 100)
	require.NoError(t, err)

	info, err := sm.GetStatInfo("empty")
	require.NoError(t, err)
	assert.Equal(t, 1, info.RecordsOutput())
}

func TestFixedRatioStatisticsSelectivity(t *testing.T) {
	txn := setupCatalogTest(t)
	cat := Open(txn)
	sm, err := NewStatManager(txn, cat, 100)
	require.NoError(t, err)
	stats := NewFixedRatioStatistics(sm)

	assert.Equal(t, 0.1, stats.Selectivity(types.EQ))
	assert.Equal(t, 0.9, stats.Selectivity(types.NE))
	assert.Equal(t, 0.33, stats.Selectivity(types.LT))
}

func TestFixedRatioStatisticsJoinCardinality(t *testing.T) {
	txn := setupCatalogTest(t)
	cat := Open(txn)
	sm, err := NewStatManager(txn, cat, 100)
	require.NoError(t, err)
	stats := NewFixedRatioStatistics(sm)

	assert.Equal(t, 700, stats.JoinCardinality(1000, 10))
	assert.Equal(t, 1, stats.JoinCardinality(0, 0))
}
