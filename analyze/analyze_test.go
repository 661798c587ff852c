package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrendb/wrendb/buffer"
	"github.com/wrendb/wrendb/dberrors"
	"github.com/wrendb/wrendb/file"
	"github.com/wrendb/wrendb/log"
	"github.com/wrendb/wrendb/metadata"
	"github.com/wrendb/wrendb/parse"
	"github.com/wrendb/wrendb/record"
	"github.com/wrendb/wrendb/tx"
	"github.com/wrendb/wrendb/types"
)

func analyzeTestSetup(t *testing.T) *metadata.Manager {
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
	return mgr
}

func mustParse(t *testing.T, sql string) *parse.Statement {
	stmt, err := parse.Parse(sql)
	require.NoError(t, err)
	return stmt
}

func TestSelectResolvesUnqualifiedColumns(t *testing.T) {
	mgr := analyzeTestSetup(t)
	_, err := mgr.Catalog.CreateTable("users", []record.Column{
		{Name: "id", Kind: types.IntKind},
		{Name: "name", Kind: types.CharKind, Len: 10},
	})
	require.NoError(t, err)

	stmt := mustParse(t, "select name from users where id = 1")
	q, err := Select(stmt, mgr.Catalog)
	require.NoError(t, err)

	assert.Equal(t, []string{"users"}, q.Tables)
	require.Len(t, q.SelectColumns, 1)
	assert.Equal(t, "users", q.SelectColumns[0].Table)
	assert.Equal(t, "name", q.SelectColumns[0].Name)
	require.Len(t, q.Conditions, 1)
	assert.Equal(t, "users", q.Conditions[0].LeftTable)
}

func TestSelectResolvesOrderBy(t *testing.T) {
	mgr := analyzeTestSetup(t)
	_, err := mgr.Catalog.CreateTable("users", []record.Column{
		{Name: "id", Kind: types.IntKind},
	})
	require.NoError(t, err)

	stmt := mustParse(t, "select * from users order by id desc")
	q, err := Select(stmt, mgr.Catalog)
	require.NoError(t, err)

	assert.True(t, q.HasOrderBy)
	assert.Equal(t, "id", q.OrderColumn)
	assert.True(t, q.OrderDescending)
}

func TestSelectRejectsAmbiguousColumn(t *testing.T) {
	mgr := analyzeTestSetup(t)
	_, err := mgr.Catalog.CreateTable("a", []record.Column{{Name: "id", Kind: types.IntKind}})
	require.NoError(t, err)
	_, err = mgr.Catalog.CreateTable("b", []record.Column{{Name: "id", Kind: types.IntKind}})
	require.NoError(t, err)

	stmt := mustParse(t, "select id from a, b")
	_, err = Select(stmt, mgr.Catalog)
	require.Error(t, err)
	assert.IsType(t, &dberrors.AmbiguousColumnError{}, err)
}

func TestSelectRejectsUnknownTable(t *testing.T) {
	stmt := mustParse(t, "select * from ghosts")
	mgr := analyzeTestSetup(t)
	_, err := Select(stmt, mgr.Catalog)
	require.Error(t, err)
	assert.IsType(t, &dberrors.TableNotFoundError{}, err)
}

func TestInsertEncodesRow(t *testing.T) {
	mgr := analyzeTestSetup(t)
	_, err := mgr.Catalog.CreateTable("t", []record.Column{
		{Name: "a", Kind: types.IntKind},
		{Name: "b", Kind: types.CharKind, Len: 5},
	})
	require.NoError(t, err)

	stmt := mustParse(t, "insert into t values (1, 'hi')")
	table, rows, err := Insert(stmt, mgr.Catalog)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int32(1), rows[0].GetValue(table.Columns[0]).I)
}

func TestInsertRejectsWrongArity(t *testing.T) {
	mgr := analyzeTestSetup(t)
	_, err := mgr.Catalog.CreateTable("t", []record.Column{{Name: "a", Kind: types.IntKind}})
	require.NoError(t, err)

	stmt := mustParse(t, "insert into t values (1, 2)")
	_, _, err = Insert(stmt, mgr.Catalog)
	require.Error(t, err)
	assert.IsType(t, &dberrors.SyntaxError{}, err)
}

func TestUpdateBuildsAssignments(t *testing.T) {
	mgr := analyzeTestSetup(t)
	_, err := mgr.Catalog.CreateTable("t", []record.Column{{Name: "a", Kind: types.IntKind}})
	require.NoError(t, err)

	stmt := mustParse(t, "update t set a = 5 where a = 1")
	table, conditions, assignments, err := Update(stmt, mgr.Catalog)
	require.NoError(t, err)
	assert.Equal(t, "t", table.Name)
	require.Len(t, conditions, 1)
	require.Len(t, assignments, 1)
	v, err := assignments[0].Eval(nil)
	require.NoError(t, err)
	assert.Equal(t, int32(5), v.I)
}

func TestCreateTableRejectsDuplicateColumn(t *testing.T) {
	stmt := mustParse(t, "create table t (a int, a float)")
	_, err := CreateTable(stmt)
	require.Error(t, err)
}

func TestCreateIndexSynthesizesName(t *testing.T) {
	mgr := analyzeTestSetup(t)
	_, err := mgr.Catalog.CreateTable("people", []record.Column{
		{Name: "last_name", Kind: types.CharKind, Len: 20},
		{Name: "first_name", Kind: types.CharKind, Len: 20},
	})
	require.NoError(t, err)

	stmt := mustParse(t, "create index people (last_name, first_name)")
	name, table, err := CreateIndex(stmt, mgr.Catalog)
	require.NoError(t, err)
	assert.Equal(t, "idx_people_last_name_first_name", name)
	assert.Equal(t, "people", table.Name)
}

func TestCreateIndexRejectsUnknownColumn(t *testing.T) {
	mgr := analyzeTestSetup(t)
	_, err := mgr.Catalog.CreateTable("people", []record.Column{{Name: "id", Kind: types.IntKind}})
	require.NoError(t, err)

	stmt := mustParse(t, "create index people (ghost)")
	_, _, err = CreateIndex(stmt, mgr.Catalog)
	require.Error(t, err)
	assert.IsType(t, &dberrors.ColumnNotFoundError{}, err)
}
