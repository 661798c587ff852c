package optimize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrendb/wrendb/buffer"
	"github.com/wrendb/wrendb/file"
	"github.com/wrendb/wrendb/heap"
	"github.com/wrendb/wrendb/log"
	"github.com/wrendb/wrendb/metadata"
	"github.com/wrendb/wrendb/physical"
	"github.com/wrendb/wrendb/plan"
	"github.com/wrendb/wrendb/record"
	"github.com/wrendb/wrendb/tx"
	"github.com/wrendb/wrendb/types"
)

func optimizeTestSetup(t *testing.T) (*metadata.Manager, *tx.Transaction) {
	dbDir := t.TempDir()
	fm, err := file.NewManager(dbDir, 400)
	require.NoError(t, err)
	lm, err := log.NewManager(fm, "logfile")
	require.NoError(t, err)
	bm := buffer.NewManager(fm, lm, 8)
	txn, err := tx.NewTransaction(fm, lm, bm)
	require.NoError(t, err)

	mgr, err := metadata.NewManager(txn)
	require.NoError(t, err)
	return mgr, txn
}

func insertN(t *testing.T, mgr *metadata.Manager, txn *tx.Transaction, table string, n int) {
	desc, err := mgr.Catalog.GetTable(table)
	require.NoError(t, err)
	f, err := heap.Open(txn, table, desc.Columns)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		rec, err2 := record.EncodeValues(desc.Columns, []types.Value{types.NewInt(int32(i))})
		require.NoError(t, err2)
		_, err2 = f.Insert(rec)
		require.NoError(t, err2)
	}
}

func TestBuildJoinOrderPicksSmallestFirst(t *testing.T) {
	mgr, txn := optimizeTestSetup(t)
	_, err := mgr.Catalog.CreateTable("small", []record.Column{{Name: "id", Kind: types.IntKind}})
	require.NoError(t, err)
	_, err = mgr.Catalog.CreateTable("big", []record.Column{{Name: "id", Kind: types.IntKind}})
	require.NoError(t, err)

	insertN(t, mgr, txn, "small", 10)
	insertN(t, mgr, txn, "big", 1000)
	require.NoError(t, mgr.RefreshStatistics())

	cond := types.NewColumnCondition("small", "id", types.EQ, "big", "id")
	root, err := buildJoinOrder([]string{"big", "small"}, []types.Condition{cond}, mgr.Stats)
	require.NoError(t, err)

	require.Equal(t, plan.JoinKind, root.Kind)
	assert.Equal(t, plan.ScanKind, root.Left.Kind)
	assert.Equal(t, "small", root.Left.Table)
	assert.Equal(t, "big", root.Right.Table)
}

func TestPushdownPredicatesAttachesJoinConditionAtJoin(t *testing.T) {
	root := plan.NewJoin(plan.NewScan("u"), plan.NewScan("o"), nil)
	uAge := types.NewValueCondition("u", "age", types.GE, types.NewInt(18))
	oTotal := types.NewValueCondition("o", "total", types.LT, types.NewInt(100))
	joinCond := types.NewColumnCondition("u", "id", types.EQ, "o", "uid")

	out := PushdownPredicates(root, []types.Condition{uAge, oTotal, joinCond})

	require.Equal(t, plan.JoinKind, out.Kind)
	require.Len(t, out.Conditions, 1)
	assert.Equal(t, joinCond, out.Conditions[0])

	require.Equal(t, plan.FilterKind, out.Left.Kind)
	assert.Equal(t, "u", out.Left.Child.Table)
	require.Equal(t, plan.FilterKind, out.Right.Kind)
	assert.Equal(t, "o", out.Right.Child.Table)
}

func TestLowerChoosesIndexScanForEqualityPrefix(t *testing.T) {
	mgr, _ := optimizeTestSetup(t)
	_, err := mgr.Catalog.CreateTable("t", []record.Column{
		{Name: "a", Kind: types.IntKind},
		{Name: "b", Kind: types.IntKind},
	})
	require.NoError(t, err)
	_, err = mgr.Catalog.CreateIndex("idx_t_a", "t", []string{"a"})
	require.NoError(t, err)

	cond := types.NewValueCondition("t", "a", types.EQ, types.NewInt(5))
	scan := plan.NewFilter(plan.NewScan("t"), []types.Condition{cond})

	phys, err := Lower(scan, mgr.Catalog, JoinConfig{EnableNestLoop: true})
	require.NoError(t, err)
	assert.Equal(t, physical.IndexScanKind, phys.Kind)
	assert.Equal(t, "idx_t_a", phys.IndexName)
	assert.Equal(t, []string{"a"}, phys.IndexColumns)
}

func TestLowerFallsBackToSeqScanWithoutMatchingIndex(t *testing.T) {
	mgr, _ := optimizeTestSetup(t)
	_, err := mgr.Catalog.CreateTable("t", []record.Column{{Name: "a", Kind: types.IntKind}})
	require.NoError(t, err)

	cond := types.NewValueCondition("t", "a", types.EQ, types.NewInt(5))
	scan := plan.NewFilter(plan.NewScan("t"), []types.Condition{cond})

	phys, err := Lower(scan, mgr.Catalog, JoinConfig{EnableNestLoop: true})
	require.NoError(t, err)
	assert.Equal(t, physical.SeqScanKind, phys.Kind)
}

func TestLowerRejectsNoJoinAlgorithm(t *testing.T) {
	mgr, _ := optimizeTestSetup(t)
	_, err := Lower(plan.NewScan("t"), mgr.Catalog, JoinConfig{})
	assert.Error(t, err)
}
