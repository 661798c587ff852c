package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrendb/wrendb/physical"
	"github.com/wrendb/wrendb/record"
	"github.com/wrendb/wrendb/types"
)

func TestBuildSeqScanFilterProjection(t *testing.T) {
	mgr, txn := execTestSetup(t)
	columns := []record.Column{
		{Name: "id", Kind: types.IntKind, Len: 4},
		{Name: "name", Kind: types.CharKind, Len: 10},
	}
	table, err := mgr.Catalog.CreateTable("people", columns)
	require.NoError(t, err)
	mustInsert(t, txn, "people", table.Columns,
		[]types.Value{types.NewInt(1), types.NewChar([]byte("Alice"))},
		[]types.Value{types.NewInt(2), types.NewChar([]byte("Bob"))},
	)

	node := &physical.Node{
		Kind: physical.ProjectionKind,
		Columns: []record.Column{
			{Table: "people", Name: "name", Kind: types.CharKind, Len: 10},
		},
		Child: &physical.Node{
			Kind:  physical.FilterKind,
			Child: &physical.Node{Kind: physical.SeqScanKind, Table: "people"},
			Conditions: []types.Condition{
				types.NewValueCondition("people", "id", types.EQ, types.NewInt(2)),
			},
		},
	}

	exec, err := Build(node, txn, mgr.Catalog)
	require.NoError(t, err)

	rows := drain(t, exec)
	require.Len(t, rows, 1)
}

func TestBuildIndexScan(t *testing.T) {
	mgr, txn := execTestSetup(t)
	columns := []record.Column{
		{Name: "id", Kind: types.IntKind, Len: 4, Table: "widgets"},
		{Name: "sku", Kind: types.CharKind, Len: 8, Table: "widgets"},
	}
	table, err := mgr.Catalog.CreateTable("widgets", columns)
	require.NoError(t, err)
	_, err = mgr.Catalog.CreateIndex("idx_widgets_id", "widgets", []string{"id"})
	require.NoError(t, err)

	mustInsert(t, txn, "widgets", table.Columns,
		[]types.Value{types.NewInt(1), types.NewChar([]byte("aaa"))},
		[]types.Value{types.NewInt(2), types.NewChar([]byte("bbb"))},
	)

	node := &physical.Node{
		Kind:         physical.IndexScanKind,
		Table:        "widgets",
		IndexName:    "idx_widgets_id",
		IndexColumns: []string{"id"},
		Conditions: []types.Condition{
			types.NewValueCondition("widgets", "id", types.EQ, types.NewInt(2)),
		},
	}

	exec, err := Build(node, txn, mgr.Catalog)
	require.NoError(t, err)

	rows := drain(t, exec)
	require.Len(t, rows, 1)
	assert.Equal(t, "bbb", string(rows[0].GetValue(table.Columns[1]).S[:3]))
}

func TestBuildRejectsUnknownNodeKind(t *testing.T) {
	mgr, txn := execTestSetup(t)
	node := &physical.Node{Kind: physical.DMLKind}
	_, err := Build(node, txn, mgr.Catalog)
	assert.Error(t, err)
}
