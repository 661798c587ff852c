package parse

import (
	"strings"

	"github.com/wrendb/wrendb/dberrors"
	"github.com/wrendb/wrendb/types"
)

// Parser builds a Statement from one SQL statement's worth of tokens.
type Parser struct {
	lex *Lexer
}

// Parse lexes and parses one statement (without a trailing semicolon,
// which the caller strips) into its tagged Statement form.
func Parse(sql string) (*Statement, error) {
	lex, err := NewLexer(sql)
	if err != nil {
		return nil, err
	}
	p := &Parser{lex: lex}
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if !p.lex.MatchEOF() {
		return nil, &dberrors.SyntaxError{Detail: "unexpected trailing input"}
	}
	return stmt, nil
}

func (p *Parser) parseStatement() (*Statement, error) {
	switch {
	case p.lex.MatchKeyword("select"):
		return p.parseSelect()
	case p.lex.MatchKeyword("insert"):
		return p.parseInsert()
	case p.lex.MatchKeyword("delete"):
		return p.parseDelete()
	case p.lex.MatchKeyword("update"):
		return p.parseUpdate()
	case p.lex.MatchKeyword("create"):
		return p.parseCreate()
	case p.lex.MatchKeyword("drop"):
		return p.parseDrop()
	case p.lex.MatchKeyword("explain"):
		return p.parseExplain()
	case p.lex.MatchKeyword("show"):
		return p.parseShow()
	case p.lex.MatchKeyword("desc"):
		return p.parseDesc()
	case p.lex.MatchKeyword("begin"):
		if err := p.lex.EatKeyword("begin"); err != nil {
			return nil, err
		}
		return &Statement{Kind: BeginKind}, nil
	case p.lex.MatchKeyword("commit"):
		if err := p.lex.EatKeyword("commit"); err != nil {
			return nil, err
		}
		return &Statement{Kind: CommitKind}, nil
	case p.lex.MatchKeyword("rollback"):
		if err := p.lex.EatKeyword("rollback"); err != nil {
			return nil, err
		}
		return &Statement{Kind: RollbackKind}, nil
	case p.lex.MatchKeyword("checkpoint"):
		if err := p.lex.EatKeyword("checkpoint"); err != nil {
			return nil, err
		}
		return &Statement{Kind: CheckpointKind}, nil
	case p.lex.MatchKeyword("set"):
		return p.parseSet()
	}
	return nil, &dberrors.SyntaxError{Detail: "unrecognized statement"}
}

// ---- SELECT ----

func (p *Parser) parseSelect() (*Statement, error) {
	if err := p.lex.EatKeyword("select"); err != nil {
		return nil, err
	}
	stmt := &Statement{Kind: SelectKind}

	if p.lex.MatchDelim('*') {
		if err := p.lex.EatDelim('*'); err != nil {
			return nil, err
		}
		stmt.SelectAll = true
	} else {
		cols, err := p.parseSelectColumnList()
		if err != nil {
			return nil, err
		}
		stmt.SelectColumns = cols
	}

	if err := p.lex.EatKeyword("from"); err != nil {
		return nil, err
	}
	tables, err := p.parseIdList()
	if err != nil {
		return nil, err
	}
	stmt.FromTables = tables

	if p.lex.MatchKeyword("where") {
		conds, err := p.parseWhere()
		if err != nil {
			return nil, err
		}
		stmt.Conditions = conds
	}

	if p.lex.MatchKeyword("order") {
		ob, err := p.parseOrderBy()
		if err != nil {
			return nil, err
		}
		stmt.OrderBy = ob
	}

	return stmt, nil
}

func (p *Parser) parseSelectColumnList() ([]SelectColumn, error) {
	var out []SelectColumn
	for {
		col, err := p.parseSelectColumn()
		if err != nil {
			return nil, err
		}
		out = append(out, col)
		if !p.lex.MatchDelim(',') {
			break
		}
		if err := p.lex.EatDelim(','); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (p *Parser) parseSelectColumn() (SelectColumn, error) {
	table, column, err := p.parseQualifiedName()
	if err != nil {
		return SelectColumn{}, err
	}
	return SelectColumn{Table: table, Column: column}, nil
}

// parseQualifiedName parses `id` or `id.id`, returning ("", column) or
// (table, column) respectively.
func (p *Parser) parseQualifiedName() (string, string, error) {
	first, err := p.lex.EatId()
	if err != nil {
		return "", "", err
	}
	if p.lex.MatchDelim('.') {
		if err := p.lex.EatDelim('.'); err != nil {
			return "", "", err
		}
		second, err := p.lex.EatId()
		if err != nil {
			return "", "", err
		}
		return first, second, nil
	}
	return "", first, nil
}

func (p *Parser) parseIdList() ([]string, error) {
	var out []string
	for {
		id, err := p.lex.EatId()
		if err != nil {
			return nil, err
		}
		out = append(out, id)
		if !p.lex.MatchDelim(',') {
			break
		}
		if err := p.lex.EatDelim(','); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (p *Parser) parseWhere() ([]types.Condition, error) {
	if err := p.lex.EatKeyword("where"); err != nil {
		return nil, err
	}
	var out []types.Condition
	for {
		cond, err := p.parseCondition()
		if err != nil {
			return nil, err
		}
		out = append(out, cond)
		if !p.lex.MatchKeyword("and") {
			break
		}
		if err := p.lex.EatKeyword("and"); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (p *Parser) parseCondition() (types.Condition, error) {
	leftTable, leftColumn, err := p.parseQualifiedName()
	if err != nil {
		return types.Condition{}, err
	}
	op, err := p.parseOperator()
	if err != nil {
		return types.Condition{}, err
	}
	if p.lex.MatchId() {
		rightTable, rightColumn, err := p.parseQualifiedName()
		if err != nil {
			return types.Condition{}, err
		}
		return types.NewColumnCondition(leftTable, leftColumn, op, rightTable, rightColumn), nil
	}
	val, err := p.parseValue()
	if err != nil {
		return types.Condition{}, err
	}
	return types.NewValueCondition(leftTable, leftColumn, op, val), nil
}

func (p *Parser) parseOperator() (types.Operator, error) {
	ops := map[string]types.Operator{
		"=": types.EQ, "<>": types.NE, "!=": types.NE,
		"<": types.LT, ">": types.GT, "<=": types.LE, ">=": types.GE,
	}
	for text, op := range ops {
		if p.lex.MatchOperator(text) {
			return op, p.lex.EatOperator(text)
		}
	}
	return 0, &dberrors.SyntaxError{Detail: "expected comparison operator"}
}

func (p *Parser) parseValue() (types.Value, error) {
	switch {
	case p.lex.MatchIntConstant():
		v, err := p.lex.EatIntConstant()
		return types.NewInt(v), err
	case p.lex.MatchFloatConstant():
		v, err := p.lex.EatFloatConstant()
		return types.NewFloat(v), err
	case p.lex.MatchStringConstant():
		v, err := p.lex.EatStringConstant()
		return types.NewChar([]byte(v)), err
	}
	return types.Value{}, &dberrors.SyntaxError{Detail: "expected a constant value"}
}

func (p *Parser) parseOrderBy() (*OrderBy, error) {
	if err := p.lex.EatKeyword("order"); err != nil {
		return nil, err
	}
	if err := p.lex.EatKeyword("by"); err != nil {
		return nil, err
	}
	table, column, err := p.parseQualifiedName()
	if err != nil {
		return nil, err
	}
	ob := &OrderBy{Table: table, Column: column}
	switch {
	case p.lex.MatchKeyword("asc"):
		if err := p.lex.EatKeyword("asc"); err != nil {
			return nil, err
		}
	case p.lex.MatchKeyword("desc"):
		if err := p.lex.EatKeyword("desc"); err != nil {
			return nil, err
		}
		ob.Descending = true
	}
	return ob, nil
}

// ---- INSERT ----

func (p *Parser) parseInsert() (*Statement, error) {
	if err := p.lex.EatKeyword("insert"); err != nil {
		return nil, err
	}
	if err := p.lex.EatKeyword("into"); err != nil {
		return nil, err
	}
	table, err := p.lex.EatId()
	if err != nil {
		return nil, err
	}
	if err := p.lex.EatKeyword("values"); err != nil {
		return nil, err
	}
	if err := p.lex.EatDelim('('); err != nil {
		return nil, err
	}
	var values []types.Value
	for {
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		if !p.lex.MatchDelim(',') {
			break
		}
		if err := p.lex.EatDelim(','); err != nil {
			return nil, err
		}
	}
	if err := p.lex.EatDelim(')'); err != nil {
		return nil, err
	}
	return &Statement{Kind: InsertKind, Table: table, InsertValues: values}, nil
}

// ---- DELETE ----

func (p *Parser) parseDelete() (*Statement, error) {
	if err := p.lex.EatKeyword("delete"); err != nil {
		return nil, err
	}
	if err := p.lex.EatKeyword("from"); err != nil {
		return nil, err
	}
	table, err := p.lex.EatId()
	if err != nil {
		return nil, err
	}
	stmt := &Statement{Kind: DeleteKind, Table: table}
	if p.lex.MatchKeyword("where") {
		conds, err := p.parseWhere()
		if err != nil {
			return nil, err
		}
		stmt.Conditions = conds
	}
	return stmt, nil
}

// ---- UPDATE ----

func (p *Parser) parseUpdate() (*Statement, error) {
	if err := p.lex.EatKeyword("update"); err != nil {
		return nil, err
	}
	table, err := p.lex.EatId()
	if err != nil {
		return nil, err
	}
	if err := p.lex.EatKeyword("set"); err != nil {
		return nil, err
	}
	var assignments []Assignment
	for {
		col, err := p.lex.EatId()
		if err != nil {
			return nil, err
		}
		if err := p.lex.EatOperator("="); err != nil {
			return nil, err
		}
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, Assignment{Column: col, Value: val})
		if !p.lex.MatchDelim(',') {
			break
		}
		if err := p.lex.EatDelim(','); err != nil {
			return nil, err
		}
	}
	stmt := &Statement{Kind: UpdateKind, Table: table, Assignments: assignments}
	if p.lex.MatchKeyword("where") {
		conds, err := p.parseWhere()
		if err != nil {
			return nil, err
		}
		stmt.Conditions = conds
	}
	return stmt, nil
}

// ---- CREATE / DROP ----

func (p *Parser) parseCreate() (*Statement, error) {
	if err := p.lex.EatKeyword("create"); err != nil {
		return nil, err
	}
	switch {
	case p.lex.MatchKeyword("table"):
		return p.parseCreateTable()
	case p.lex.MatchKeyword("index"):
		return p.parseCreateOrDropIndex(CreateIndexKind)
	}
	return nil, &dberrors.SyntaxError{Detail: "expected TABLE or INDEX after CREATE"}
}

func (p *Parser) parseDrop() (*Statement, error) {
	if err := p.lex.EatKeyword("drop"); err != nil {
		return nil, err
	}
	switch {
	case p.lex.MatchKeyword("table"):
		if err := p.lex.EatKeyword("table"); err != nil {
			return nil, err
		}
		table, err := p.lex.EatId()
		if err != nil {
			return nil, err
		}
		return &Statement{Kind: DropTableKind, Table: table}, nil
	case p.lex.MatchKeyword("index"):
		return p.parseCreateOrDropIndex(DropIndexKind)
	}
	return nil, &dberrors.SyntaxError{Detail: "expected TABLE or INDEX after DROP"}
}

func (p *Parser) parseCreateTable() (*Statement, error) {
	if err := p.lex.EatKeyword("table"); err != nil {
		return nil, err
	}
	table, err := p.lex.EatId()
	if err != nil {
		return nil, err
	}
	if err := p.lex.EatDelim('('); err != nil {
		return nil, err
	}
	var cols []ColumnDef
	for {
		col, err := p.parseColumnDef()
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
		if !p.lex.MatchDelim(',') {
			break
		}
		if err := p.lex.EatDelim(','); err != nil {
			return nil, err
		}
	}
	if err := p.lex.EatDelim(')'); err != nil {
		return nil, err
	}
	return &Statement{Kind: CreateTableKind, Table: table, Columns: cols}, nil
}

func (p *Parser) parseColumnDef() (ColumnDef, error) {
	name, err := p.lex.EatId()
	if err != nil {
		return ColumnDef{}, err
	}
	switch {
	case p.lex.MatchKeyword("int"):
		if err := p.lex.EatKeyword("int"); err != nil {
			return ColumnDef{}, err
		}
		return ColumnDef{Name: name, Kind: types.IntKind, Len: 4}, nil
	case p.lex.MatchKeyword("float"):
		if err := p.lex.EatKeyword("float"); err != nil {
			return ColumnDef{}, err
		}
		return ColumnDef{Name: name, Kind: types.FloatKind, Len: 4}, nil
	case p.lex.MatchKeyword("char"):
		if err := p.lex.EatKeyword("char"); err != nil {
			return ColumnDef{}, err
		}
		if err := p.lex.EatDelim('('); err != nil {
			return ColumnDef{}, err
		}
		n, err := p.lex.EatIntConstant()
		if err != nil {
			return ColumnDef{}, err
		}
		if err := p.lex.EatDelim(')'); err != nil {
			return ColumnDef{}, err
		}
		return ColumnDef{Name: name, Kind: types.CharKind, Len: int(n)}, nil
	}
	return ColumnDef{}, &dberrors.SyntaxError{Detail: "expected column type"}
}

func (p *Parser) parseCreateOrDropIndex(kind Kind) (*Statement, error) {
	if err := p.lex.EatKeyword("index"); err != nil {
		return nil, err
	}
	table, err := p.lex.EatId()
	if err != nil {
		return nil, err
	}
	if err := p.lex.EatDelim('('); err != nil {
		return nil, err
	}
	cols, err := p.parseIdList()
	if err != nil {
		return nil, err
	}
	if err := p.lex.EatDelim(')'); err != nil {
		return nil, err
	}
	return &Statement{Kind: kind, Table: table, Indexed: cols}, nil
}

// ---- EXPLAIN / SHOW / DESC / SET ----

func (p *Parser) parseExplain() (*Statement, error) {
	if err := p.lex.EatKeyword("explain"); err != nil {
		return nil, err
	}
	inner, err := p.parseSelect()
	if err != nil {
		return nil, err
	}
	return &Statement{Kind: ExplainKind, Explain: inner}, nil
}

func (p *Parser) parseShow() (*Statement, error) {
	if err := p.lex.EatKeyword("show"); err != nil {
		return nil, err
	}
	switch {
	case p.lex.MatchKeyword("tables"):
		if err := p.lex.EatKeyword("tables"); err != nil {
			return nil, err
		}
		return &Statement{Kind: ShowTablesKind}, nil
	case p.lex.MatchKeyword("index"):
		if err := p.lex.EatKeyword("index"); err != nil {
			return nil, err
		}
		if err := p.lex.EatKeyword("from"); err != nil {
			return nil, err
		}
		table, err := p.lex.EatId()
		if err != nil {
			return nil, err
		}
		return &Statement{Kind: ShowIndexKind, Table: table}, nil
	}
	return nil, &dberrors.SyntaxError{Detail: "expected TABLES or INDEX after SHOW"}
}

func (p *Parser) parseDesc() (*Statement, error) {
	if err := p.lex.EatKeyword("desc"); err != nil {
		return nil, err
	}
	table, err := p.lex.EatId()
	if err != nil {
		return nil, err
	}
	return &Statement{Kind: DescKind, Table: table}, nil
}

func (p *Parser) parseSet() (*Statement, error) {
	if err := p.lex.EatKeyword("set"); err != nil {
		return nil, err
	}
	name, err := p.lex.EatId()
	if err != nil {
		return nil, err
	}
	if err := p.lex.EatOperator("="); err != nil {
		return nil, err
	}
	// booleans lex as identifiers ("true"/"false"), not a dedicated token type.
	word, err := p.lex.EatId()
	if err != nil {
		return nil, err
	}
	value := strings.ToLower(word) == "true"
	return &Statement{Kind: SetKind, SetName: name, SetValue: value}, nil
}
