package exec

import (
	"fmt"

	"github.com/wrendb/wrendb/dberrors"
	"github.com/wrendb/wrendb/record"
	"github.com/wrendb/wrendb/types"
)

// evaluateConditions resolves each condition's operands as column-relative
// offsets in rec (looked up in columns by table+name) or literal values,
// and short-circuits false on the first condition that fails.
func evaluateConditions(conditions []types.Condition, columns []record.Column, rec record.Record) (bool, error) {
	for _, c := range conditions {
		leftCol, ok := findColumn(columns, c.LeftTable, c.LeftColumn)
		if !ok {
			return false, &dberrors.InvariantError{Detail: fmt.Sprintf("condition references unknown column %s.%s", c.LeftTable, c.LeftColumn)}
		}
		left := rec.GetValue(leftCol)

		var right types.Value
		if c.IsRHSValue {
			right = c.RHSValue
		} else {
			rightCol, ok := findColumn(columns, c.RHSTable, c.RHSColumn)
			if !ok {
				return false, &dberrors.InvariantError{Detail: fmt.Sprintf("condition references unknown column %s.%s", c.RHSTable, c.RHSColumn)}
			}
			right = rec.GetValue(rightCol)
		}

		ok, err := types.Compare(left, right, c.Op)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func findColumn(columns []record.Column, table, name string) (record.Column, bool) {
	for _, c := range columns {
		if c.Name == name && (table == "" || c.Table == table) {
			return c, true
		}
	}
	return record.Column{}, false
}
