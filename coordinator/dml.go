package coordinator

import (
	"fmt"

	"github.com/wrendb/wrendb/analyze"
	"github.com/wrendb/wrendb/exec"
	"github.com/wrendb/wrendb/metadata"
	"github.com/wrendb/wrendb/parse"
	"github.com/wrendb/wrendb/tx"
)

// drive runs ex to completion for its side effects, discarding any
// records it produces -- the shared drive loop for Insert/Delete/Update,
// which report their affected-row counts through their own accessors
// rather than through the iterator protocol.
func drive(ex exec.Executor) error {
	defer ex.Close()
	if err := ex.Begin(); err != nil {
		return err
	}
	for !ex.IsEnd() {
		more, err := ex.Next()
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}
	return nil
}

func insertStatement(stmt *parse.Statement, txn *tx.Transaction, mgr *metadata.Manager) (string, error) {
	table, rows, err := analyze.Insert(stmt, mgr.Catalog)
	if err != nil {
		return "", err
	}
	indexes, err := mgr.Catalog.IndexesOnTable(table.Name)
	if err != nil {
		return "", err
	}
	ins := exec.NewInsert(txn, table, indexes, rows)
	if err := drive(ins); err != nil {
		return "", err
	}
	return fmt.Sprintf("Total record(s): %d", ins.Inserted()), nil
}

func deleteStatement(stmt *parse.Statement, txn *tx.Transaction, mgr *metadata.Manager) (string, error) {
	table, conditions, err := analyze.Delete(stmt, mgr.Catalog)
	if err != nil {
		return "", err
	}
	indexes, err := mgr.Catalog.IndexesOnTable(table.Name)
	if err != nil {
		return "", err
	}
	child := exec.NewSeqScan(txn, table, conditions)
	del := exec.NewDelete(txn, table, indexes, child)
	if err := drive(del); err != nil {
		return "", err
	}
	return fmt.Sprintf("Total record(s): %d", del.Deleted()), nil
}

func updateStatement(stmt *parse.Statement, txn *tx.Transaction, mgr *metadata.Manager) (string, error) {
	table, conditions, assignments, err := analyze.Update(stmt, mgr.Catalog)
	if err != nil {
		return "", err
	}
	indexes, err := mgr.Catalog.IndexesOnTable(table.Name)
	if err != nil {
		return "", err
	}
	child := exec.NewSeqScan(txn, table, conditions)
	upd := exec.NewUpdate(txn, table, indexes, child, assignments)
	if err := drive(upd); err != nil {
		return "", err
	}
	return fmt.Sprintf("Total record(s): %d", upd.Updated()), nil
}
