package metadata

import (
	"fmt"

	"github.com/wrendb/wrendb/dberrors"
	"github.com/wrendb/wrendb/heap"
	"github.com/wrendb/wrendb/record"
	"github.com/wrendb/wrendb/tx"
	"github.com/wrendb/wrendb/types"
)

// maxNameLength bounds table, column, and index identifiers as stored in
// the catalog's fixed-width CHAR columns.
const maxNameLength = 32

const (
	tableCatalogName  = "wren_table_catalog"
	columnCatalogName = "wren_column_catalog"
	indexCatalogName  = "wren_index_catalog"
)

// tableCatalogColumns and columnCatalogColumns are the two bootstrap
// tables that persist every other table's schema, mirroring the
// two-catalog-table design of a classic table/field catalog: one row per
// table, one row per (table, column) pair.
func tableCatalogColumns() []record.Column {
	cols, _ := record.ComputeOffsets([]record.Column{
		{Table: tableCatalogName, Name: "table_name", Kind: types.CharKind, Len: maxNameLength},
	})
	return cols
}

func columnCatalogColumns() []record.Column {
	cols, _ := record.ComputeOffsets([]record.Column{
		{Table: columnCatalogName, Name: "table_name", Kind: types.CharKind, Len: maxNameLength},
		{Table: columnCatalogName, Name: "column_name", Kind: types.CharKind, Len: maxNameLength},
		{Table: columnCatalogName, Name: "kind", Kind: types.IntKind},
		{Table: columnCatalogName, Name: "len", Kind: types.IntKind},
		{Table: columnCatalogName, Name: "offset", Kind: types.IntKind},
		{Table: columnCatalogName, Name: "indexed", Kind: types.IntKind},
		{Table: columnCatalogName, Name: "pos", Kind: types.IntKind},
	})
	return cols
}

// indexCatalogColumns persists one row per (index, column) pair so that
// composite indexes retain their declared column order (the "pos" field).
func indexCatalogColumns() []record.Column {
	cols, _ := record.ComputeOffsets([]record.Column{
		{Table: indexCatalogName, Name: "index_name", Kind: types.CharKind, Len: maxNameLength},
		{Table: indexCatalogName, Name: "table_name", Kind: types.CharKind, Len: maxNameLength},
		{Table: indexCatalogName, Name: "column_name", Kind: types.CharKind, Len: maxNameLength},
		{Table: indexCatalogName, Name: "pos", Kind: types.IntKind},
	})
	return cols
}

// Catalog persists table and index descriptors in bootstrap heap tables,
// the way a real database keeps its own metadata as ordinary rows rather
// than a separate serialization format.
type Catalog struct {
	txn *tx.Transaction
}

// Open opens the catalog against txn, bootstrapping its own backing tables
// on first use (heap.Open is idempotent: it creates the file only if it
// doesn't already exist, so no isNew flag is required here).
func Open(txn *tx.Transaction) *Catalog {
	return &Catalog{txn: txn}
}

func (c *Catalog) tableCatalog() (*heap.File, error) {
	return heap.Open(c.txn, tableCatalogName, tableCatalogColumns())
}

func (c *Catalog) columnCatalog() (*heap.File, error) {
	return heap.Open(c.txn, columnCatalogName, columnCatalogColumns())
}

func (c *Catalog) indexCatalog() (*heap.File, error) {
	return heap.Open(c.txn, indexCatalogName, indexCatalogColumns())
}

func fitName(cols []record.Column, name string) []byte {
	buf := make([]byte, cols[0].Len)
	copy(buf, name)
	return buf
}

func trimName(b []byte) string {
	i := 0
	for i < len(b) && b[i] != 0 {
		i++
	}
	return string(b[:i])
}

// CreateTable adds tableName to the catalog with the given columns,
// computing byte offsets from declared order. Returns a Schema error if
// the table already exists.
func (c *Catalog) CreateTable(tableName string, columns []record.Column) (*TableDescriptor, error) {
	if _, err := c.GetTable(tableName); err == nil {
		return nil, &dberrors.TableExistsError{Table: tableName}
	}

	assigned, _ := record.ComputeOffsets(columns)
	for i := range assigned {
		assigned[i].Table = tableName
	}

	tc, err := c.tableCatalog()
	if err != nil {
		return nil, fmt.Errorf("metadata: open table catalog: %w", err)
	}
	tcCols := tableCatalogColumns()
	rec, err := record.EncodeValues(tcCols, []types.Value{types.NewChar(fitName(tcCols, tableName))})
	if err != nil {
		return nil, err
	}
	if _, err := tc.Insert(rec); err != nil {
		return nil, fmt.Errorf("metadata: insert table catalog row: %w", err)
	}

	cc, err := c.columnCatalog()
	if err != nil {
		return nil, fmt.Errorf("metadata: open column catalog: %w", err)
	}
	ccCols := columnCatalogColumns()
	for pos, col := range assigned {
		indexed := int32(0)
		if col.Indexed {
			indexed = 1
		}
		rec, err := record.EncodeValues(ccCols, []types.Value{
			types.NewChar(fitName(ccCols, tableName)),
			types.NewChar(fitName(ccCols[1:], col.Name)),
			types.NewInt(int32(col.Kind)),
			types.NewInt(int32(col.Len)),
			types.NewInt(int32(col.Offset)),
			types.NewInt(indexed),
			types.NewInt(int32(pos)),
		})
		if err != nil {
			return nil, err
		}
		if _, err := cc.Insert(rec); err != nil {
			return nil, fmt.Errorf("metadata: insert column catalog row: %w", err)
		}
	}

	return &TableDescriptor{Name: tableName, Columns: assigned}, nil
}

// GetTable returns the descriptor for tableName, or a Schema error if it
// is not catalogued.
func (c *Catalog) GetTable(tableName string) (*TableDescriptor, error) {
	tc, err := c.tableCatalog()
	if err != nil {
		return nil, err
	}
	found := false
	scan, err := heap.NewScan(tc)
	if err != nil {
		return nil, err
	}
	tcCols := tableCatalogColumns()
	for {
		ok, err := scan.Next()
		if err != nil {
			scan.Close()
			return nil, err
		}
		if !ok {
			break
		}
		rec, err := scan.Record()
		if err != nil {
			scan.Close()
			return nil, err
		}
		if trimName(rec.GetValue(tcCols[0]).S) == tableName {
			found = true
			break
		}
	}
	scan.Close()
	if !found {
		return nil, &dberrors.TableNotFoundError{Table: tableName}
	}

	cc, err := c.columnCatalog()
	if err != nil {
		return nil, err
	}
	ccCols := columnCatalogColumns()
	type posCol struct {
		pos int
		col record.Column
	}
	var found2 []posCol

	cscan, err := heap.NewScan(cc)
	if err != nil {
		return nil, err
	}
	defer cscan.Close()
	for {
		ok, err := cscan.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		rec, err := cscan.Record()
		if err != nil {
			return nil, err
		}
		if trimName(rec.GetValue(ccCols[0]).S) != tableName {
			continue
		}
		col := record.Column{
			Table:   tableName,
			Name:    trimName(rec.GetValue(ccCols[1]).S),
			Kind:    types.Kind(rec.GetValue(ccCols[2]).I),
			Len:     int(rec.GetValue(ccCols[3]).I),
			Offset:  int(rec.GetValue(ccCols[4]).I),
			Indexed: rec.GetValue(ccCols[5]).I != 0,
		}
		found2 = append(found2, posCol{pos: int(rec.GetValue(ccCols[6]).I), col: col})
	}

	cols := make([]record.Column, len(found2))
	for _, pc := range found2 {
		cols[pc.pos] = pc.col
	}
	return &TableDescriptor{Name: tableName, Columns: cols}, nil
}

// AllTables returns the name of every catalogued table.
func (c *Catalog) AllTables() ([]string, error) {
	tc, err := c.tableCatalog()
	if err != nil {
		return nil, err
	}
	scan, err := heap.NewScan(tc)
	if err != nil {
		return nil, err
	}
	defer scan.Close()
	tcCols := tableCatalogColumns()

	var names []string
	for {
		ok, err := scan.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		rec, err := scan.Record()
		if err != nil {
			return nil, err
		}
		names = append(names, trimName(rec.GetValue(tcCols[0]).S))
	}
	return names, nil
}

// DropTable removes tableName's catalog rows and destroys its heap file.
// Any indexes on the table must be dropped separately by the caller
// (the coordinator enumerates and drops them first).
func (c *Catalog) DropTable(tableName string) error {
	table, err := c.GetTable(tableName)
	if err != nil {
		return err
	}

	tc, err := c.tableCatalog()
	if err != nil {
		return err
	}
	tcCols := tableCatalogColumns()
	scan, err := heap.NewScan(tc)
	if err != nil {
		return err
	}
	for {
		ok, err := scan.Next()
		if err != nil {
			scan.Close()
			return err
		}
		if !ok {
			break
		}
		rec, err := scan.Record()
		if err != nil {
			scan.Close()
			return err
		}
		if trimName(rec.GetValue(tcCols[0]).S) == tableName {
			if err := tc.Delete(scan.RID()); err != nil {
				scan.Close()
				return err
			}
			break
		}
	}
	scan.Close()

	cc, err := c.columnCatalog()
	if err != nil {
		return err
	}
	ccCols := columnCatalogColumns()
	cscan, err := heap.NewScan(cc)
	if err != nil {
		return err
	}
	var toDelete []record.ID
	for {
		ok, err := cscan.Next()
		if err != nil {
			cscan.Close()
			return err
		}
		if !ok {
			break
		}
		rec, err := cscan.Record()
		if err != nil {
			cscan.Close()
			return err
		}
		if trimName(rec.GetValue(ccCols[0]).S) == tableName {
			toDelete = append(toDelete, cscan.RID())
		}
	}
	cscan.Close()
	for _, rid := range toDelete {
		if err := cc.Delete(rid); err != nil {
			return err
		}
	}

	_ = table // descriptor already validated existence above
	return c.txn.DestroyFile(heap.FileName(tableName))
}
