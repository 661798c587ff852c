// Package coordinator is the single entry point a statement passes
// through: parse, analyze, optimize, execute, and format the result into
// the byte stream a caller sees. Executor and plan internals never escape
// it -- callers only ever see formatted text and errors.
package coordinator

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/wrendb/wrendb/buffer"
	"github.com/wrendb/wrendb/dberrors"
	"github.com/wrendb/wrendb/file"
	"github.com/wrendb/wrendb/log"
	"github.com/wrendb/wrendb/metadata"
	"github.com/wrendb/wrendb/parse"
	"github.com/wrendb/wrendb/tx"
)

// outputFileName is where a SELECT's formatted rows are additionally
// appended when the enable_output_file knob is set.
const outputFileName = "output.txt"

// logFileName is the write-ahead log's file within the database directory.
const logFileName = "wrendb.log"

// Coordinator owns the storage-engine collaborators (file, log, and
// buffer managers) shared by every session, plus the mutable SET
// configuration statements adjust.
type Coordinator struct {
	fileManager   *file.Manager
	logManager    *log.Manager
	bufferManager *buffer.Manager
	config        Config
	logger        *slog.Logger
}

// New opens (or creates) the database at dbDirectory, recovering it first
// if it already existed, and returns a Coordinator ready to execute
// statements against it.
func New(dbDirectory string, blockSize, bufferPoolSize int, logger *slog.Logger) (*Coordinator, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fm, err := file.NewManager(dbDirectory, blockSize)
	if err != nil {
		return nil, fmt.Errorf("coordinator: open file manager: %w", err)
	}
	lm, err := log.NewManager(fm, logFileName)
	if err != nil {
		return nil, fmt.Errorf("coordinator: open log manager: %w", err)
	}
	bm := buffer.NewManager(fm, lm, bufferPoolSize)

	c := &Coordinator{fileManager: fm, logManager: lm, bufferManager: bm, config: DefaultConfig(), logger: logger}

	if fm.IsNew() {
		logger.Info("created new database", "directory", dbDirectory)
	} else {
		logger.Info("recovering existing database", "directory", dbDirectory)
		recoveryTxn, err := c.newTx()
		if err != nil {
			return nil, fmt.Errorf("coordinator: start recovery transaction: %w", err)
		}
		if err := recoveryTxn.Recover(); err != nil {
			return nil, fmt.Errorf("coordinator: recover: %w", err)
		}
		if err := recoveryTxn.Commit(); err != nil {
			return nil, fmt.Errorf("coordinator: commit recovery transaction: %w", err)
		}
	}

	bootstrapTxn, err := c.newTx()
	if err != nil {
		return nil, err
	}
	if _, err := metadata.NewManager(bootstrapTxn); err != nil {
		return nil, fmt.Errorf("coordinator: bootstrap catalog: %w", err)
	}
	if err := bootstrapTxn.Commit(); err != nil {
		return nil, fmt.Errorf("coordinator: commit bootstrap transaction: %w", err)
	}

	return c, nil
}

func (c *Coordinator) newTx() (*tx.Transaction, error) {
	return tx.NewTransaction(c.fileManager, c.logManager, c.bufferManager)
}

// scope returns the transaction and catalog manager a non-transactional
// statement should run against, along with the finish function that
// commits or rolls back afterward. A session with an open explicit
// transaction reuses it and defers commit/rollback to COMMIT/ROLLBACK;
// otherwise a fresh transaction is opened and auto-committed.
func (c *Coordinator) scope(session *Session) (*tx.Transaction, *metadata.Manager, func(error) error, error) {
	if session.inExplicitTransaction() {
		return session.txn, session.mgr, func(error) error { return nil }, nil
	}

	txn, err := c.newTx()
	if err != nil {
		return nil, nil, nil, err
	}
	mgr, err := metadata.NewManager(txn)
	if err != nil {
		return nil, nil, nil, err
	}
	finish := func(execErr error) error {
		if execErr != nil {
			return txn.Rollback()
		}
		return txn.Commit()
	}
	return txn, mgr, finish, nil
}

// Execute parses and runs one statement against session, returning its
// formatted response text.
func (c *Coordinator) Execute(session *Session, sql string) (string, error) {
	stmt, err := parse.Parse(sql)
	if err != nil {
		c.logger.Warn("parse error", "sql", sql, "error", err)
		return "", err
	}

	switch stmt.Kind {
	case parse.BeginKind:
		return c.begin(session)
	case parse.CommitKind:
		return c.commitTransaction(session)
	case parse.RollbackKind:
		return c.rollbackTransaction(session)
	case parse.CheckpointKind:
		return c.checkpoint(session)
	case parse.SetKind:
		return c.set(stmt)
	}

	txn, mgr, finish, err := c.scope(session)
	if err != nil {
		c.logger.Warn("failed to open transaction", "error", err)
		return "", err
	}

	result, execErr := c.dispatch(stmt, txn, mgr)
	if finishErr := finish(execErr); execErr == nil {
		execErr = finishErr
	}
	if execErr != nil {
		logInvariantOrWarn(c.logger, execErr, "statement failed", "sql", sql)
		return "", execErr
	}

	if stmt.Kind == parse.SelectKind && c.config.EnableOutputFile {
		if err := c.appendOutputFile(result); err != nil {
			c.logger.Error("failed to append output file", "error", err)
		}
	}

	c.logger.Info("statement ok", "sql", sql)
	return result, nil
}

func (c *Coordinator) dispatch(stmt *parse.Statement, txn *tx.Transaction, mgr *metadata.Manager) (string, error) {
	switch stmt.Kind {
	case parse.CreateTableKind:
		return createTable(stmt, mgr)
	case parse.DropTableKind:
		return dropTable(stmt, mgr)
	case parse.CreateIndexKind:
		return createIndex(stmt, txn, mgr)
	case parse.DropIndexKind:
		return dropIndex(stmt, mgr)
	case parse.InsertKind:
		return insertStatement(stmt, txn, mgr)
	case parse.DeleteKind:
		return deleteStatement(stmt, txn, mgr)
	case parse.UpdateKind:
		return updateStatement(stmt, txn, mgr)
	case parse.SelectKind:
		return selectStatement(stmt, txn, mgr, c.config)
	case parse.ExplainKind:
		return explainStatement(stmt, mgr)
	case parse.ShowTablesKind:
		return showTables(mgr)
	case parse.ShowIndexKind:
		return showIndex(stmt, mgr)
	case parse.DescKind:
		return desc(stmt, mgr)
	default:
		return "", &dberrors.InvariantError{Detail: fmt.Sprintf("coordinator: unhandled statement kind %d", stmt.Kind)}
	}
}

func (c *Coordinator) begin(session *Session) (string, error) {
	if session.inExplicitTransaction() {
		return "", &dberrors.SyntaxError{Detail: "a transaction is already open"}
	}
	txn, err := c.newTx()
	if err != nil {
		return "", err
	}
	mgr, err := metadata.NewManager(txn)
	if err != nil {
		return "", err
	}
	session.txn = txn
	session.mgr = mgr
	c.logger.Info("transaction started")
	return "transaction started", nil
}

func (c *Coordinator) commitTransaction(session *Session) (string, error) {
	if !session.inExplicitTransaction() {
		return "", &dberrors.SyntaxError{Detail: "no transaction is open"}
	}
	err := session.txn.Commit()
	session.txn, session.mgr = nil, nil
	if err != nil {
		return "", err
	}
	c.logger.Info("transaction committed")
	return "transaction committed", nil
}

func (c *Coordinator) rollbackTransaction(session *Session) (string, error) {
	if !session.inExplicitTransaction() {
		return "", &dberrors.SyntaxError{Detail: "no transaction is open"}
	}
	err := session.txn.Rollback()
	session.txn, session.mgr = nil, nil
	if err != nil {
		return "", err
	}
	c.logger.Info("transaction rolled back")
	return "transaction rolled back", nil
}

// checkpoint commits any explicitly-open transaction (flushing its
// changes, catalog included, to their heap and index files) and then
// truncates the log, per the static checkpoint path.
func (c *Coordinator) checkpoint(session *Session) (string, error) {
	if session.inExplicitTransaction() {
		if err := session.mgr.RefreshStatistics(); err != nil {
			return "", err
		}
		if err := session.txn.Commit(); err != nil {
			return "", err
		}
		session.txn, session.mgr = nil, nil
	}
	if err := c.logManager.Truncate(); err != nil {
		return "", err
	}
	c.logger.Info("checkpoint completed")
	return "checkpoint completed", nil
}

func (c *Coordinator) set(stmt *parse.Statement) (string, error) {
	if err := c.config.Set(stmt.SetName, stmt.SetValue); err != nil {
		c.logger.Warn("set failed", "name", stmt.SetName, "error", err)
		return "", err
	}
	c.logger.Info("configuration updated", "name", stmt.SetName, "value", stmt.SetValue)
	return fmt.Sprintf("%s = %t", stmt.SetName, stmt.SetValue), nil
}

func (c *Coordinator) appendOutputFile(text string) error {
	path := filepath.Join(c.fileManager.Directory(), outputFileName)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("coordinator: open output file: %w", err)
	}
	defer f.Close()
	_, err = f.WriteString(text + "\n")
	return err
}

// logInvariantOrWarn logs execErr at Error if it is an internal
// invariant violation, Warn otherwise -- an invariant violation is a
// programming bug, not a statement the user could have written
// differently.
func logInvariantOrWarn(logger *slog.Logger, execErr error, msg string, args ...any) {
	if _, ok := execErr.(*dberrors.InvariantError); ok {
		logger.Error(msg, append(args, "error", execErr)...)
		return
	}
	logger.Warn(msg, append(args, "error", execErr)...)
}
