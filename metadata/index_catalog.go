package metadata

import (
	"fmt"
	"sort"

	"github.com/wrendb/wrendb/dberrors"
	"github.com/wrendb/wrendb/heap"
	"github.com/wrendb/wrendb/index/btree"
	"github.com/wrendb/wrendb/record"
	"github.com/wrendb/wrendb/types"
)

// CreateIndex adds an index descriptor to the catalog: one row per
// (index, column) pair, preserving declared column order via the "pos"
// field. Returns a Schema error if the index name is already used.
func (c *Catalog) CreateIndex(indexName, tableName string, columns []string) (*IndexDescriptor, error) {
	if _, err := c.GetIndex(indexName); err == nil {
		return nil, &dberrors.IndexExistsError{Index: indexName}
	}
	if _, err := c.GetTable(tableName); err != nil {
		return nil, err
	}

	ic, err := c.indexCatalog()
	if err != nil {
		return nil, fmt.Errorf("metadata: open index catalog: %w", err)
	}
	icCols := indexCatalogColumns()
	for pos, colName := range columns {
		rec, err := record.EncodeValues(icCols, []types.Value{
			types.NewChar(fitName(icCols, indexName)),
			types.NewChar(fitName(icCols[1:], tableName)),
			types.NewChar(fitName(icCols[2:], colName)),
			types.NewInt(int32(pos)),
		})
		if err != nil {
			return nil, err
		}
		if _, err := ic.Insert(rec); err != nil {
			return nil, fmt.Errorf("metadata: insert index catalog row: %w", err)
		}
	}

	return &IndexDescriptor{Name: indexName, Table: tableName, Columns: columns}, nil
}

// GetIndex returns the descriptor for indexName, or a Schema error if it
// is not catalogued.
func (c *Catalog) GetIndex(indexName string) (*IndexDescriptor, error) {
	ic, err := c.indexCatalog()
	if err != nil {
		return nil, err
	}
	icCols := indexCatalogColumns()
	scan, err := heap.NewScan(ic)
	if err != nil {
		return nil, err
	}
	defer scan.Close()

	type posName struct {
		pos  int
		name string
	}
	var table string
	var cols []posName
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
		if trimName(rec.GetValue(icCols[0]).S) != indexName {
			continue
		}
		table = trimName(rec.GetValue(icCols[1]).S)
		cols = append(cols, posName{
			pos:  int(rec.GetValue(icCols[3]).I),
			name: trimName(rec.GetValue(icCols[2]).S),
		})
	}
	if cols == nil {
		return nil, &dberrors.IndexNotFoundError{Index: indexName}
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].pos < cols[j].pos })
	names := make([]string, len(cols))
	for i, pc := range cols {
		names[i] = pc.name
	}
	return &IndexDescriptor{Name: indexName, Table: table, Columns: names}, nil
}

// IndexesOnTable returns every index descriptor defined on tableName.
func (c *Catalog) IndexesOnTable(tableName string) ([]*IndexDescriptor, error) {
	names, err := c.allIndexNames()
	if err != nil {
		return nil, err
	}
	var result []*IndexDescriptor
	for _, name := range names {
		desc, err := c.GetIndex(name)
		if err != nil {
			return nil, err
		}
		if desc.Table == tableName {
			result = append(result, desc)
		}
	}
	return result, nil
}

func (c *Catalog) allIndexNames() ([]string, error) {
	ic, err := c.indexCatalog()
	if err != nil {
		return nil, err
	}
	icCols := indexCatalogColumns()
	scan, err := heap.NewScan(ic)
	if err != nil {
		return nil, err
	}
	defer scan.Close()

	seen := make(map[string]bool)
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
		name := trimName(rec.GetValue(icCols[0]).S)
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names, nil
}

// DropIndex removes indexName's catalog rows and destroys its B+-tree file.
func (c *Catalog) DropIndex(indexName string) error {
	desc, err := c.GetIndex(indexName)
	if err != nil {
		return err
	}

	ic, err := c.indexCatalog()
	if err != nil {
		return err
	}
	icCols := indexCatalogColumns()
	scan, err := heap.NewScan(ic)
	if err != nil {
		return err
	}
	var toDelete []record.ID
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
		if trimName(rec.GetValue(icCols[0]).S) == indexName {
			toDelete = append(toDelete, scan.RID())
		}
	}
	scan.Close()
	for _, rid := range toDelete {
		if err := ic.Delete(rid); err != nil {
			return err
		}
	}

	return c.txn.DestroyFile(btree.FileName(desc.FileName()))
}
