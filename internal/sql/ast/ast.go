// Package ast defines the statement and expression tree the parser emits
// and the planner consumes.
package ast

import "github.com/novadb/novadb/internal/record"

// Statement is the root interface for all SQL statements.
type Statement interface {
	stmtNode()
}

// ColumnDef is one column in a CREATE TABLE column list.
type ColumnDef struct {
	Name string
	Type record.ColumnType
}

type CreateTableStmt struct {
	TableName string
	Columns   []ColumnDef
}

func (*CreateTableStmt) stmtNode() {}

type DropTableStmt struct {
	TableName string
}

func (*DropTableStmt) stmtNode() {}

type CreateIndexStmt struct {
	IndexName string
	TableName string
	Columns   []string
}

func (*CreateIndexStmt) stmtNode() {}

type InsertStmt struct {
	TableName string
	Rows      [][]record.Value
}

func (*InsertStmt) stmtNode() {}

type DeleteStmt struct {
	TableName string
	Where     Expr // nil if no WHERE clause
}

func (*DeleteStmt) stmtNode() {}

// JoinClause describes "JOIN <table> ON <on>".
type JoinClause struct {
	TableName string
	On        Expr // a single equi-comparison BinaryOp
}

// Projection is either "*" (Star) or a list of column references.
type Projection struct {
	Star bool
	Cols []ColRef
}

type SelectStmt struct {
	Projection Projection
	TableName  string
	Join       *JoinClause // nil for single-table SELECT
	Where      Expr        // nil if no WHERE clause
}

func (*SelectStmt) stmtNode() {}

// Expr is the root interface for scalar expressions in WHERE/ON clauses.
type Expr interface {
	exprNode()
}

// Op enumerates the comparison and conjunction operators the spec supports.
type Op int

const (
	Eq Op = iota
	Ne
	Lt
	Le
	Gt
	Ge
	And
)

func (o Op) String() string {
	switch o {
	case Eq:
		return "="
	case Ne:
		return "!="
	case Lt:
		return "<"
	case Le:
		return "<="
	case Gt:
		return ">"
	case Ge:
		return ">="
	case And:
		return "AND"
	default:
		return "?"
	}
}

// Flip returns the operator for swapped operands: (lhs op rhs) == (rhs Flip(op) lhs).
func (o Op) Flip() Op {
	switch o {
	case Lt:
		return Gt
	case Le:
		return Ge
	case Gt:
		return Lt
	case Ge:
		return Le
	default:
		return o // Eq, Ne, And are symmetric
	}
}

type BinaryOp struct {
	Op  Op
	Lhs Expr
	Rhs Expr
}

func (*BinaryOp) exprNode() {}

// ColRef is a (possibly table-qualified) column reference.
type ColRef struct {
	Qualifier string // table name or alias; "" if unqualified
	Name      string
}

func (ColRef) exprNode() {}

type Literal struct {
	Value record.Value
}

func (Literal) exprNode() {}
