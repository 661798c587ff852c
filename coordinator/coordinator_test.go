package coordinator

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrendb/wrendb/dberrors"
)

func newTestCoordinator(t *testing.T) *Coordinator {
	dbDir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := New(dbDir, 400, 8, logger)
	require.NoError(t, err)
	return c
}

func run(t *testing.T, c *Coordinator, session *Session, sql string) string {
	t.Helper()
	result, err := c.Execute(session, sql)
	require.NoError(t, err, "sql: %s", sql)
	return result
}

func runErr(t *testing.T, c *Coordinator, session *Session, sql string) error {
	t.Helper()
	_, err := c.Execute(session, sql)
	require.Error(t, err, "sql: %s", sql)
	return err
}

func TestCreateAndDropTable(t *testing.T) {
	c := newTestCoordinator(t)
	session := NewSession()

	result := run(t, c, session, "CREATE TABLE t (a INT, b CHAR(20))")
	assert.Contains(t, result, "created")

	result = run(t, c, session, "SHOW TABLES")
	assert.Contains(t, result, "t")
	assert.Contains(t, result, "Total record(s): 1")

	result = run(t, c, session, "DROP TABLE t")
	assert.Contains(t, result, "dropped")

	result = run(t, c, session, "SHOW TABLES")
	assert.Contains(t, result, "Total record(s): 0")
}

func TestInsertSelectRowCounts(t *testing.T) {
	c := newTestCoordinator(t)
	session := NewSession()

	run(t, c, session, "CREATE TABLE t (a INT, b CHAR(20))")
	run(t, c, session, "INSERT INTO t VALUES (1, 'x')")
	run(t, c, session, "INSERT INTO t VALUES (2, 'y')")
	run(t, c, session, "INSERT INTO t VALUES (3, 'z')")

	result := run(t, c, session, "SELECT a, b FROM t WHERE a > 1")
	assert.Contains(t, result, "Total record(s): 2")
	assert.Contains(t, result, "2")
	assert.Contains(t, result, "y")
}

func TestUpdateAndDelete(t *testing.T) {
	c := newTestCoordinator(t)
	session := NewSession()

	run(t, c, session, "CREATE TABLE t (a INT)")
	run(t, c, session, "INSERT INTO t VALUES (1)")
	run(t, c, session, "INSERT INTO t VALUES (2)")

	result := run(t, c, session, "UPDATE t SET a = 5 WHERE a = 1")
	assert.Contains(t, result, "Total record(s): 1")

	result = run(t, c, session, "DELETE FROM t WHERE a = 5")
	assert.Contains(t, result, "Total record(s): 1")

	result = run(t, c, session, "SELECT a FROM t")
	assert.Contains(t, result, "Total record(s): 1")
}

func TestCreateShowAndDropIndexOnPopulatedTable(t *testing.T) {
	c := newTestCoordinator(t)
	session := NewSession()

	run(t, c, session, "CREATE TABLE t (a INT, b INT)")
	run(t, c, session, "INSERT INTO t VALUES (1, 10)")
	run(t, c, session, "INSERT INTO t VALUES (2, 20)")

	result := run(t, c, session, "CREATE INDEX t (a)")
	assert.Contains(t, result, "created")

	result = run(t, c, session, "SHOW INDEX FROM t")
	assert.Contains(t, result, "idx_t_a")

	result = run(t, c, session, "DROP INDEX t (a)")
	assert.Contains(t, result, "dropped")
}

func TestCreateUniqueIndexRejectsDuplicateKey(t *testing.T) {
	c := newTestCoordinator(t)
	session := NewSession()

	run(t, c, session, "CREATE TABLE t (a INT, b INT)")
	run(t, c, session, "INSERT INTO t VALUES (1, 10)")
	run(t, c, session, "INSERT INTO t VALUES (1, 20)")

	err := runErr(t, c, session, "CREATE INDEX t (a)")
	var dup *dberrors.DuplicateKeyError
	assert.ErrorAs(t, err, &dup)
}

func TestDescReflectsIndexCreatedAfterTable(t *testing.T) {
	c := newTestCoordinator(t)
	session := NewSession()

	run(t, c, session, "CREATE TABLE t (a INT, b INT)")
	result := run(t, c, session, "DESC t")
	// before an index exists, neither column reports as indexed
	for _, line := range strings.Split(result, "\n") {
		if strings.Contains(line, "| a ") || strings.Contains(line, "| b ") {
			assert.Contains(t, line, "false")
		}
	}

	run(t, c, session, "CREATE INDEX t (a)")
	result = run(t, c, session, "DESC t")
	found := false
	for _, line := range strings.Split(result, "\n") {
		if strings.Contains(line, "a") && strings.Contains(line, "true") {
			found = true
		}
	}
	assert.True(t, found, "expected DESC to report column a as indexed after CREATE INDEX: %s", result)
}

func TestExplainProducesPlanText(t *testing.T) {
	c := newTestCoordinator(t)
	session := NewSession()

	run(t, c, session, "CREATE TABLE t (a INT)")
	result := run(t, c, session, "EXPLAIN SELECT a FROM t WHERE a > 1")
	assert.Contains(t, result, "Filter")
	assert.Contains(t, result, "Scan")
}

func TestExplicitTransactionRollbackUndoesInsert(t *testing.T) {
	c := newTestCoordinator(t)
	session := NewSession()

	run(t, c, session, "CREATE TABLE t (a INT)")
	run(t, c, session, "BEGIN")
	run(t, c, session, "INSERT INTO t VALUES (1)")

	result := run(t, c, session, "SELECT a FROM t")
	assert.Contains(t, result, "Total record(s): 1")

	run(t, c, session, "ROLLBACK")

	result = run(t, c, session, "SELECT a FROM t")
	assert.Contains(t, result, "Total record(s): 0")
}

func TestExplicitTransactionCommitPersists(t *testing.T) {
	c := newTestCoordinator(t)
	session := NewSession()

	run(t, c, session, "CREATE TABLE t (a INT)")
	run(t, c, session, "BEGIN")
	run(t, c, session, "INSERT INTO t VALUES (1)")
	run(t, c, session, "COMMIT")

	result := run(t, c, session, "SELECT a FROM t")
	assert.Contains(t, result, "Total record(s): 1")
}

func TestCommitWithoutBeginIsSyntaxError(t *testing.T) {
	c := newTestCoordinator(t)
	session := NewSession()

	err := runErr(t, c, session, "COMMIT")
	var syn *dberrors.SyntaxError
	assert.ErrorAs(t, err, &syn)
}

func TestDoubleBeginIsSyntaxError(t *testing.T) {
	c := newTestCoordinator(t)
	session := NewSession()

	run(t, c, session, "BEGIN")
	err := runErr(t, c, session, "BEGIN")
	var syn *dberrors.SyntaxError
	assert.ErrorAs(t, err, &syn)
	run(t, c, session, "ROLLBACK")
}

func TestCheckpointCommitsOpenTransactionAndAllowsFurtherWork(t *testing.T) {
	c := newTestCoordinator(t)
	session := NewSession()

	run(t, c, session, "CREATE TABLE t (a INT)")
	run(t, c, session, "BEGIN")
	run(t, c, session, "INSERT INTO t VALUES (1)")

	result := run(t, c, session, "CHECKPOINT")
	assert.Contains(t, result, "checkpoint")

	// the open transaction was committed by CHECKPOINT
	assert.False(t, session.inExplicitTransaction())

	result = run(t, c, session, "SELECT a FROM t")
	assert.Contains(t, result, "Total record(s): 1")

	run(t, c, session, "INSERT INTO t VALUES (2)")
	result = run(t, c, session, "SELECT a FROM t")
	assert.Contains(t, result, "Total record(s): 2")
}

func TestSetAcceptsDisablingBothJoinKnobsButLoweringRejectsJoin(t *testing.T) {
	c := newTestCoordinator(t)
	session := NewSession()

	run(t, c, session, "SET enable_nestloop = false")
	run(t, c, session, "SET enable_sortmerge = false")

	run(t, c, session, "CREATE TABLE l (a INT)")
	run(t, c, session, "CREATE TABLE r (a INT)")

	err := runErr(t, c, session, "SELECT l.a, r.a FROM l, r WHERE l.a = r.a")
	assert.Error(t, err)
}

func TestSetUnknownKnobFails(t *testing.T) {
	c := newTestCoordinator(t)
	session := NewSession()

	err := runErr(t, c, session, "SET nonsense = true")
	var syn *dberrors.SyntaxError
	assert.ErrorAs(t, err, &syn)
}

func TestDefaultConfigAllowsBothJoinAlgorithms(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.EnableNestLoop)
	assert.True(t, cfg.EnableSortMerge)
	assert.False(t, cfg.EnableOutputFile)
}
