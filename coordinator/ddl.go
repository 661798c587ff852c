package coordinator

import (
	"fmt"

	"github.com/wrendb/wrendb/analyze"
	"github.com/wrendb/wrendb/dberrors"
	"github.com/wrendb/wrendb/heap"
	"github.com/wrendb/wrendb/index"
	"github.com/wrendb/wrendb/metadata"
	"github.com/wrendb/wrendb/parse"
	"github.com/wrendb/wrendb/record"
	"github.com/wrendb/wrendb/tx"
	"github.com/wrendb/wrendb/types"
)

func createTable(stmt *parse.Statement, mgr *metadata.Manager) (string, error) {
	columns, err := analyze.CreateTable(stmt)
	if err != nil {
		return "", err
	}
	if _, err := mgr.Catalog.CreateTable(stmt.Table, columns); err != nil {
		return "", err
	}
	return fmt.Sprintf("table %s created", stmt.Table), nil
}

func dropTable(stmt *parse.Statement, mgr *metadata.Manager) (string, error) {
	if err := mgr.Catalog.DropTable(stmt.Table); err != nil {
		return "", err
	}
	return fmt.Sprintf("table %s dropped", stmt.Table), nil
}

// createIndex catalogues a new index and backfills it against every row
// already present in the table, so an index created on a populated table
// is immediately usable and enforces uniqueness against existing data.
func createIndex(stmt *parse.Statement, txn *tx.Transaction, mgr *metadata.Manager) (string, error) {
	name, table, err := analyze.CreateIndex(stmt, mgr.Catalog)
	if err != nil {
		return "", err
	}
	desc, err := mgr.Catalog.CreateIndex(name, table.Name, stmt.Indexed)
	if err != nil {
		return "", err
	}

	keyColumns, err := desc.KeySchema(table)
	if err != nil {
		return "", err
	}
	idx, err := index.Open(txn, desc.FileName(), index.SchemaFromColumns(keyColumns))
	if err != nil {
		return "", err
	}
	heapFile, err := heap.Open(txn, table.Name, table.Columns)
	if err != nil {
		return "", err
	}
	scan, err := heap.NewScan(heapFile)
	if err != nil {
		return "", err
	}
	defer scan.Close()

	for {
		ok, err := scan.Next()
		if err != nil {
			return "", err
		}
		if !ok {
			break
		}
		rec, err := scan.Record()
		if err != nil {
			return "", err
		}
		inserted, err := idx.Insert(indexKeyValues(rec, table, keyColumns), scan.RID())
		if err != nil {
			return "", err
		}
		if !inserted {
			return "", &dberrors.DuplicateKeyError{Index: name}
		}
	}

	return fmt.Sprintf("index %s created", name), nil
}

// indexKeyValues extracts rec's values for keyColumns, in the index's
// declared column order.
func indexKeyValues(rec record.Record, table *metadata.TableDescriptor, keyColumns []record.Column) []types.Value {
	values := make([]types.Value, len(keyColumns))
	for i, kc := range keyColumns {
		col, _ := table.Column(kc.Name)
		values[i] = rec.GetValue(col)
	}
	return values
}

func dropIndex(stmt *parse.Statement, mgr *metadata.Manager) (string, error) {
	name := analyze.IndexName(stmt.Table, stmt.Indexed)
	if _, err := mgr.Catalog.GetIndex(name); err != nil {
		return "", err
	}
	if err := mgr.Catalog.DropIndex(name); err != nil {
		return "", err
	}
	return fmt.Sprintf("index %s dropped", name), nil
}
