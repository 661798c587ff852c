package coordinator

import (
	"strconv"
	"strings"

	"github.com/wrendb/wrendb/metadata"
	"github.com/wrendb/wrendb/parse"
	"github.com/wrendb/wrendb/record"
)

// showTables lists every catalogued table, one per row, using the same
// fixed-width row writer as a SELECT result.
func showTables(mgr *metadata.Manager) (string, error) {
	names, err := mgr.Catalog.AllTables()
	if err != nil {
		return "", err
	}
	columns := []record.Column{{Name: "table_name"}}
	buf := &responseBuffer{}
	buf.writeLine(separatorLine(1))
	buf.writeLine(headerLine(columns))
	buf.writeLine(separatorLine(1))
	for _, name := range names {
		buf.writeLine("|" + formatCell(name) + "|")
	}
	buf.writeLine(separatorLine(1))
	return buf.render(len(names)), nil
}

// showIndex lists every index defined on stmt.Table: its name and its
// ordered key column list.
func showIndex(stmt *parse.Statement, mgr *metadata.Manager) (string, error) {
	descs, err := mgr.Catalog.IndexesOnTable(stmt.Table)
	if err != nil {
		return "", err
	}
	buf := &responseBuffer{}
	buf.writeLine(separatorLine(2))
	buf.writeLine("|" + formatCell("index_name") + "|" + formatCell("columns") + "|")
	buf.writeLine(separatorLine(2))
	for _, d := range descs {
		buf.writeLine("|" + formatCell(d.Name) + "|" + formatCell(strings.Join(d.Columns, ",")) + "|")
	}
	buf.writeLine(separatorLine(2))
	return buf.render(len(descs)), nil
}

// desc prints one row per column of stmt.Table: name, type, length, and
// whether it leads at least one index on the table (Column.Indexed is set
// once, at CREATE TABLE time, and a later CREATE INDEX never revisits it,
// so this checks the live index list instead of trusting that field).
func desc(stmt *parse.Statement, mgr *metadata.Manager) (string, error) {
	table, err := mgr.Catalog.GetTable(stmt.Table)
	if err != nil {
		return "", err
	}
	indexes, err := mgr.Catalog.IndexesOnTable(stmt.Table)
	if err != nil {
		return "", err
	}
	leadsIndex := map[string]bool{}
	for _, d := range indexes {
		if len(d.Columns) > 0 {
			leadsIndex[d.Columns[0]] = true
		}
	}

	buf := &responseBuffer{}
	buf.writeLine(separatorLine(4))
	buf.writeLine("|" + formatCell("field") + "|" + formatCell("type") + "|" + formatCell("len") + "|" + formatCell("indexed") + "|")
	buf.writeLine(separatorLine(4))
	for _, c := range table.Columns {
		buf.writeLine("|" + formatCell(c.Name) + "|" + formatCell(c.Kind.String()) + "|" +
			formatCell(strconv.Itoa(c.Len)) + "|" + formatCell(strconv.FormatBool(leadsIndex[c.Name])) + "|")
	}
	buf.writeLine(separatorLine(4))
	return buf.render(len(table.Columns)), nil
}
