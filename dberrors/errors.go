// Package dberrors defines this engine's error kinds: Syntax, Schema,
// Type, Integrity, Invariant, and I/O. Each is a small typed error so the
// coordinator can distinguish a user-facing statement failure from an
// internal invariant violation without string matching, and every
// user-visible error carries the offending identifier in its message.
package dberrors

import "fmt"

// TableNotFoundError reports a reference to a table that does not exist
// in the catalog.
type TableNotFoundError struct {
	Table string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("table not found: %s", e.Table)
}

// TableExistsError reports a CREATE TABLE naming an already-catalogued table.
type TableExistsError struct {
	Table string
}

func (e *TableExistsError) Error() string {
	return fmt.Sprintf("table already exists: %s", e.Table)
}

// ColumnNotFoundError reports a reference to a column absent from its table.
type ColumnNotFoundError struct {
	Table  string
	Column string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column not found: %s.%s", e.Table, e.Column)
}

// AmbiguousColumnError reports an unqualified column name present in more
// than one table of a multi-table query.
type AmbiguousColumnError struct {
	Column string
}

func (e *AmbiguousColumnError) Error() string {
	return fmt.Sprintf("ambiguous column: %s", e.Column)
}

// IndexExistsError reports a CREATE INDEX naming an already-catalogued index.
type IndexExistsError struct {
	Index string
}

func (e *IndexExistsError) Error() string {
	return fmt.Sprintf("index already exists: %s", e.Index)
}

// IndexNotFoundError reports a reference to an index absent from the catalog.
type IndexNotFoundError struct {
	Index string
}

func (e *IndexNotFoundError) Error() string {
	return fmt.Sprintf("index not found: %s", e.Index)
}

// DuplicateKeyError reports a unique-index insert whose key already exists.
type DuplicateKeyError struct {
	Index string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key on unique index: %s", e.Index)
}

// SyntaxError reports an unrecognized statement or malformed AST variant.
type SyntaxError struct {
	Detail string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error: %s", e.Detail)
}

// InvariantError reports a violation the algorithms assume can never
// happen -- a programming bug, not a user error, and not meant to be
// recovered from.
type InvariantError struct {
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("internal invariant violated: %s", e.Detail)
}
