package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrendb/wrendb/buffer"
	"github.com/wrendb/wrendb/file"
	"github.com/wrendb/wrendb/heap"
	"github.com/wrendb/wrendb/log"
	"github.com/wrendb/wrendb/metadata"
	"github.com/wrendb/wrendb/record"
	"github.com/wrendb/wrendb/tx"
	"github.com/wrendb/wrendb/types"
)

func execTestSetup(t *testing.T) (*metadata.Manager, *tx.Transaction) {
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

func mustInsert(t *testing.T, txn *tx.Transaction, table string, columns []record.Column, values ...[]types.Value) {
	f, err := heap.Open(txn, table, columns)
	require.NoError(t, err)
	for _, row := range values {
		rec, err := record.EncodeValues(columns, row)
		require.NoError(t, err)
		_, err = f.Insert(rec)
		require.NoError(t, err)
	}
}

func drain(t *testing.T, e Executor) []record.Record {
	require.NoError(t, e.Begin())
	var out []record.Record
	for !e.IsEnd() {
		out = append(out, append(record.Record(nil), e.CurrentRecord()...))
		ok, err := e.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
	}
	return out
}

func TestSeqScanReturnsAllRecords(t *testing.T) {
	mgr, txn := execTestSetup(t)
	cols := []record.Column{{Name: "a", Kind: types.IntKind}}
	desc, err := mgr.Catalog.CreateTable("t", cols)
	require.NoError(t, err)
	mustInsert(t, txn, "t", cols, []types.Value{types.NewInt(1)}, []types.Value{types.NewInt(2)}, []types.Value{types.NewInt(3)})

	scan := NewSeqScan(txn, desc, nil)
	recs := drain(t, scan)
	require.Len(t, recs, 3)
}

func TestFilterKeepsOnlyMatching(t *testing.T) {
	mgr, txn := execTestSetup(t)
	cols := []record.Column{{Name: "a", Kind: types.IntKind}}
	desc, err := mgr.Catalog.CreateTable("t", cols)
	require.NoError(t, err)
	mustInsert(t, txn, "t", cols, []types.Value{types.NewInt(1)}, []types.Value{types.NewInt(5)}, []types.Value{types.NewInt(9)})

	scan := NewSeqScan(txn, desc, nil)
	cond := types.NewValueCondition("t", "a", types.GE, types.NewInt(5))
	f := NewFilter(scan, []types.Condition{cond})

	recs := drain(t, f)
	require.Len(t, recs, 2)
	assert.Equal(t, int32(5), recs[0].GetValue(cols[0]).I)
	assert.Equal(t, int32(9), recs[1].GetValue(cols[0]).I)
}

func TestProjectionReordersColumns(t *testing.T) {
	mgr, txn := execTestSetup(t)
	cols := []record.Column{
		{Name: "a", Kind: types.IntKind},
		{Name: "b", Kind: types.IntKind},
	}
	desc, err := mgr.Catalog.CreateTable("t", cols)
	require.NoError(t, err)
	mustInsert(t, txn, "t", desc.Columns, []types.Value{types.NewInt(1), types.NewInt(2)})

	scan := NewSeqScan(txn, desc, nil)
	proj := NewProjection(scan, []record.Column{desc.Columns[1], desc.Columns[0]})

	recs := drain(t, proj)
	require.Len(t, recs, 1)
	layout := proj.OutputColumns()
	assert.Equal(t, int32(2), recs[0].GetValue(layout[0]).I)
	assert.Equal(t, int32(1), recs[0].GetValue(layout[1]).I)
}

func TestNestedLoopJoinMatchesOnEquality(t *testing.T) {
	mgr, txn := execTestSetup(t)
	uCols := []record.Column{{Name: "id", Kind: types.IntKind}}
	oCols := []record.Column{{Name: "uid", Kind: types.IntKind}}
	uDesc, err := mgr.Catalog.CreateTable("u", uCols)
	require.NoError(t, err)
	oDesc, err := mgr.Catalog.CreateTable("o", oCols)
	require.NoError(t, err)

	mustInsert(t, txn, "u", uCols, []types.Value{types.NewInt(1)}, []types.Value{types.NewInt(2)})
	mustInsert(t, txn, "o", oCols, []types.Value{types.NewInt(1)}, []types.Value{types.NewInt(1)}, []types.Value{types.NewInt(3)})

	left := NewSeqScan(txn, uDesc, nil)
	right := NewSeqScan(txn, oDesc, nil)

	cond := types.NewColumnCondition("u", "id", types.EQ, "o", "uid")
	join := NewNestedLoopJoin(left, right, []types.Condition{cond})

	recs := drain(t, join)
	assert.Len(t, recs, 2)
}

func TestSortMergeJoinMatchesOnEquality(t *testing.T) {
	mgr, txn := execTestSetup(t)
	uCols := []record.Column{{Name: "id", Kind: types.IntKind}}
	oCols := []record.Column{{Name: "uid", Kind: types.IntKind}}
	uDesc, err := mgr.Catalog.CreateTable("u", uCols)
	require.NoError(t, err)
	oDesc, err := mgr.Catalog.CreateTable("o", oCols)
	require.NoError(t, err)

	mustInsert(t, txn, "u", uCols, []types.Value{types.NewInt(2)}, []types.Value{types.NewInt(1)})
	mustInsert(t, txn, "o", oCols, []types.Value{types.NewInt(1)}, []types.Value{types.NewInt(1)}, []types.Value{types.NewInt(3)})

	left := NewSeqScan(txn, uDesc, nil)
	right := NewSeqScan(txn, oDesc, nil)

	cond := types.NewColumnCondition("u", "id", types.EQ, "o", "uid")
	join := NewSortMergeJoin(left, right, uCols[0], oCols[0], []types.Condition{cond})

	recs := drain(t, join)
	assert.Len(t, recs, 2)
}

func TestSortOrdersByColumnDescending(t *testing.T) {
	mgr, txn := execTestSetup(t)
	cols := []record.Column{{Name: "a", Kind: types.IntKind}}
	desc, err := mgr.Catalog.CreateTable("t", cols)
	require.NoError(t, err)
	mustInsert(t, txn, "t", cols, []types.Value{types.NewInt(3)}, []types.Value{types.NewInt(1)}, []types.Value{types.NewInt(2)})

	scan := NewSeqScan(txn, desc, nil)
	s := NewSort(scan, cols[0], true)

	recs := drain(t, s)
	require.Len(t, recs, 3)
	assert.Equal(t, int32(3), recs[0].GetValue(cols[0]).I)
	assert.Equal(t, int32(2), recs[1].GetValue(cols[0]).I)
	assert.Equal(t, int32(1), recs[2].GetValue(cols[0]).I)
}

func TestInsertAppendsToHeapAndIndex(t *testing.T) {
	mgr, txn := execTestSetup(t)
	cols := []record.Column{{Name: "a", Kind: types.IntKind}}
	desc, err := mgr.Catalog.CreateTable("t", cols)
	require.NoError(t, err)
	idxDesc, err := mgr.Catalog.CreateIndex("idx_t_a", "t", []string{"a"})
	require.NoError(t, err)

	rec1, err := record.EncodeValues(cols, []types.Value{types.NewInt(7)})
	require.NoError(t, err)
	rec2, err := record.EncodeValues(cols, []types.Value{types.NewInt(9)})
	require.NoError(t, err)

	ins := NewInsert(txn, desc, []*metadata.IndexDescriptor{idxDesc}, []record.Record{rec1, rec2})
	require.NoError(t, ins.Begin())
	for !ins.IsEnd() {
		ok, err := ins.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
	}
	assert.Equal(t, 2, ins.Inserted())

	scan := NewSeqScan(txn, desc, nil)
	recs := drain(t, scan)
	require.Len(t, recs, 2)
}

func TestInsertRejectsDuplicateOnUniqueIndex(t *testing.T) {
	mgr, txn := execTestSetup(t)
	cols := []record.Column{{Name: "a", Kind: types.IntKind}}
	desc, err := mgr.Catalog.CreateTable("t", cols)
	require.NoError(t, err)
	idxDesc, err := mgr.Catalog.CreateIndex("idx_t_a", "t", []string{"a"})
	require.NoError(t, err)

	rec1, err := record.EncodeValues(cols, []types.Value{types.NewInt(7)})
	require.NoError(t, err)
	rec2, err := record.EncodeValues(cols, []types.Value{types.NewInt(7)})
	require.NoError(t, err)

	ins := NewInsert(txn, desc, []*metadata.IndexDescriptor{idxDesc}, []record.Record{rec1, rec2})
	err = ins.Begin()
	require.NoError(t, err)
	_, err = ins.Next()
	assert.Error(t, err)
}

func TestDeleteRemovesMatchingRows(t *testing.T) {
	mgr, txn := execTestSetup(t)
	cols := []record.Column{{Name: "a", Kind: types.IntKind}}
	desc, err := mgr.Catalog.CreateTable("t", cols)
	require.NoError(t, err)
	mustInsert(t, txn, "t", cols, []types.Value{types.NewInt(1)}, []types.Value{types.NewInt(5)}, []types.Value{types.NewInt(9)})

	scan := NewSeqScan(txn, desc, nil)
	cond := types.NewValueCondition("t", "a", types.GE, types.NewInt(5))
	filtered := NewFilter(scan, []types.Condition{cond})

	del := NewDelete(txn, desc, nil, filtered)
	require.NoError(t, del.Begin())
	for !del.IsEnd() {
		ok, err := del.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
	}
	assert.Equal(t, 2, del.Deleted())

	remaining := NewSeqScan(txn, desc, nil)
	recs := drain(t, remaining)
	require.Len(t, recs, 1)
	assert.Equal(t, int32(1), recs[0].GetValue(cols[0]).I)
}

func TestUpdateRewritesColumnAndIndex(t *testing.T) {
	mgr, txn := execTestSetup(t)
	cols := []record.Column{{Name: "a", Kind: types.IntKind}}
	desc, err := mgr.Catalog.CreateTable("t", cols)
	require.NoError(t, err)
	idxDesc, err := mgr.Catalog.CreateIndex("idx_t_a", "t", []string{"a"})
	require.NoError(t, err)
	mustInsert(t, txn, "t", cols, []types.Value{types.NewInt(1)})

	scan := NewSeqScan(txn, desc, nil)
	assignments := []Assignment{{
		Column: cols[0],
		Eval: func(rec record.Record) (types.Value, error) {
			return types.NewInt(100), nil
		},
	}}
	upd := NewUpdate(txn, desc, []*metadata.IndexDescriptor{idxDesc}, scan, assignments)
	require.NoError(t, upd.Begin())
	for !upd.IsEnd() {
		ok, err := upd.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
	}
	assert.Equal(t, 1, upd.Updated())

	after := NewSeqScan(txn, desc, nil)
	recs := drain(t, after)
	require.Len(t, recs, 1)
	assert.Equal(t, int32(100), recs[0].GetValue(cols[0]).I)
}
