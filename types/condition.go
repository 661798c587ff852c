package types

import "fmt"

// Condition is a single predicate: a column compared against either a
// literal value or another column, using one of the six comparison
// operators. Scans, filters, and joins are all driven by lists of these.
type Condition struct {
	LeftTable  string
	LeftColumn string

	Op Operator

	// IsRHSValue distinguishes a literal right-hand side (RHSValue) from a
	// column reference (RHSTable/RHSColumn).
	IsRHSValue bool
	RHSValue   Value
	RHSTable   string
	RHSColumn  string
}

// NewValueCondition builds a condition whose right-hand side is a literal.
func NewValueCondition(table, column string, op Operator, value Value) Condition {
	return Condition{LeftTable: table, LeftColumn: column, Op: op, IsRHSValue: true, RHSValue: value}
}

// NewColumnCondition builds a condition whose right-hand side is another column.
func NewColumnCondition(leftTable, leftColumn string, op Operator, rightTable, rightColumn string) Condition {
	return Condition{LeftTable: leftTable, LeftColumn: leftColumn, Op: op, RHSTable: rightTable, RHSColumn: rightColumn}
}

func (c Condition) String() string {
	left := c.LeftColumn
	if c.LeftTable != "" {
		left = c.LeftTable + "." + c.LeftColumn
	}
	if c.IsRHSValue {
		return fmt.Sprintf("%s%s%s", left, c.Op, c.RHSValue.String())
	}
	right := c.RHSColumn
	if c.RHSTable != "" {
		right = c.RHSTable + "." + c.RHSColumn
	}
	return fmt.Sprintf("%s%s%s", left, c.Op, right)
}

// ReferencesTable reports whether the condition names table on either side,
// either through an explicit prefix or (for an unprefixed column) because
// hasColumn(table, column) says the column belongs to it.
func (c Condition) ReferencesTable(table string, hasColumn func(table, column string) bool) bool {
	if c.LeftTable == table {
		return true
	}
	if c.LeftTable == "" && hasColumn(table, c.LeftColumn) {
		return true
	}
	if !c.IsRHSValue {
		if c.RHSTable == table {
			return true
		}
		if c.RHSTable == "" && hasColumn(table, c.RHSColumn) {
			return true
		}
	}
	return false
}

// Tables returns the set of table names this condition references (only
// meaningful once every column has been bound to a table by the analyzer).
func (c Condition) Tables() []string {
	seen := map[string]bool{}
	var out []string
	add := func(t string) {
		if t != "" && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	add(c.LeftTable)
	if !c.IsRHSValue {
		add(c.RHSTable)
	}
	return out
}

// IsJoinCondition reports whether the condition references exactly two
// distinct tables -- i.e. it is a candidate join predicate rather than a
// single-table filter.
func (c Condition) IsJoinCondition() bool {
	return !c.IsRHSValue && c.LeftTable != "" && c.RHSTable != "" && c.LeftTable != c.RHSTable
}
