// Package parser tokenizes and parses SQL text into the ast package's
// statement and expression tree.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/novadb/novadb/internal/record"
	"github.com/novadb/novadb/internal/sql/ast"
)

type cursor struct {
	toks []token
	pos  int
}

func (c *cursor) peek() token { return c.toks[c.pos] }

func (c *cursor) next() token {
	t := c.toks[c.pos]
	if c.pos < len(c.toks)-1 {
		c.pos++
	}
	return t
}

func (c *cursor) atKeyword(kw string) bool {
	t := c.peek()
	return t.kind == tokIdent && strings.EqualFold(t.text, kw)
}

func (c *cursor) expectKeyword(kw string) error {
	if !c.atKeyword(kw) {
		return fmt.Errorf("parser: expected %q, got %q", kw, c.peek().text)
	}
	c.next()
	return nil
}

func (c *cursor) expectPunct(p string) error {
	t := c.peek()
	if t.kind != tokPunct || t.text != p {
		return fmt.Errorf("parser: expected %q, got %q", p, t.text)
	}
	c.next()
	return nil
}

func (c *cursor) expectIdent() (string, error) {
	t := c.peek()
	if t.kind != tokIdent {
		return "", fmt.Errorf("parser: expected identifier, got %q", t.text)
	}
	c.next()
	return t.text, nil
}

// Parse parses a single ';'-terminated SQL statement.
func Parse(sql string) (ast.Statement, error) {
	toks, err := lex(sql)
	if err != nil {
		return nil, err
	}
	c := &cursor{toks: toks}

	var stmt ast.Statement
	switch {
	case c.atKeyword("CREATE"):
		stmt, err = parseCreate(c)
	case c.atKeyword("DROP"):
		stmt, err = parseDropTable(c)
	case c.atKeyword("INSERT"):
		stmt, err = parseInsert(c)
	case c.atKeyword("DELETE"):
		stmt, err = parseDelete(c)
	case c.atKeyword("SELECT"):
		stmt, err = parseSelect(c)
	default:
		return nil, fmt.Errorf("parser: unsupported statement: %q", sql)
	}
	if err != nil {
		return nil, err
	}

	if c.peek().kind == tokPunct && c.peek().text == ";" {
		c.next()
	}
	if c.peek().kind != tokEOF {
		return nil, fmt.Errorf("parser: unexpected trailing input %q", c.peek().text)
	}
	return stmt, nil
}

func parseCreate(c *cursor) (ast.Statement, error) {
	c.next() // CREATE
	switch {
	case c.atKeyword("TABLE"):
		return parseCreateTable(c)
	case c.atKeyword("INDEX"):
		return parseCreateIndex(c)
	default:
		return nil, fmt.Errorf("parser: expected TABLE or INDEX after CREATE, got %q", c.peek().text)
	}
}

func parseCreateTable(c *cursor) (ast.Statement, error) {
	if err := c.expectKeyword("TABLE"); err != nil {
		return nil, err
	}
	name, err := c.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := c.expectPunct("("); err != nil {
		return nil, err
	}

	var cols []ast.ColumnDef
	for {
		colName, err := c.expectIdent()
		if err != nil {
			return nil, err
		}
		typeName, err := c.expectIdent()
		if err != nil {
			return nil, err
		}
		colType, err := parseColumnType(typeName)
		if err != nil {
			return nil, err
		}
		cols = append(cols, ast.ColumnDef{Name: colName, Type: colType})

		if c.peek().kind == tokPunct && c.peek().text == "," {
			c.next()
			continue
		}
		break
	}
	if err := c.expectPunct(")"); err != nil {
		return nil, err
	}
	return &ast.CreateTableStmt{TableName: name, Columns: cols}, nil
}

func parseColumnType(s string) (record.ColumnType, error) {
	switch strings.ToUpper(s) {
	case "INTEGER", "INT":
		return record.IntegerType, nil
	case "BOOLEAN", "BOOL":
		return record.BooleanType, nil
	case "VARCHAR", "TEXT":
		return record.VarcharType, nil
	default:
		return 0, fmt.Errorf("parser: unsupported column type %q", s)
	}
}

func parseCreateIndex(c *cursor) (ast.Statement, error) {
	if err := c.expectKeyword("INDEX"); err != nil {
		return nil, err
	}
	name, err := c.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := c.expectKeyword("ON"); err != nil {
		return nil, err
	}
	table, err := c.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := c.expectPunct("("); err != nil {
		return nil, err
	}
	var cols []string
	for {
		col, err := c.expectIdent()
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
		if c.peek().kind == tokPunct && c.peek().text == "," {
			c.next()
			continue
		}
		break
	}
	if err := c.expectPunct(")"); err != nil {
		return nil, err
	}
	return &ast.CreateIndexStmt{IndexName: name, TableName: table, Columns: cols}, nil
}

func parseDropTable(c *cursor) (ast.Statement, error) {
	c.next() // DROP
	if err := c.expectKeyword("TABLE"); err != nil {
		return nil, err
	}
	name, err := c.expectIdent()
	if err != nil {
		return nil, err
	}
	return &ast.DropTableStmt{TableName: name}, nil
}

func parseInsert(c *cursor) (ast.Statement, error) {
	c.next() // INSERT
	if err := c.expectKeyword("INTO"); err != nil {
		return nil, err
	}
	table, err := c.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := c.expectKeyword("VALUES"); err != nil {
		return nil, err
	}

	var rows [][]record.Value
	for {
		if err := c.expectPunct("("); err != nil {
			return nil, err
		}
		var vals []record.Value
		for {
			v, err := parseLiteralValue(c)
			if err != nil {
				return nil, err
			}
			vals = append(vals, v)
			if c.peek().kind == tokPunct && c.peek().text == "," {
				c.next()
				continue
			}
			break
		}
		if err := c.expectPunct(")"); err != nil {
			return nil, err
		}
		rows = append(rows, vals)

		if c.peek().kind == tokPunct && c.peek().text == "," {
			c.next()
			continue
		}
		break
	}
	return &ast.InsertStmt{TableName: table, Rows: rows}, nil
}

func parseLiteralValue(c *cursor) (record.Value, error) {
	t := c.peek()
	switch t.kind {
	case tokNumber:
		c.next()
		n, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			return record.Value{}, fmt.Errorf("parser: invalid integer literal %q: %w", t.text, err)
		}
		return record.Integer(n), nil
	case tokString:
		c.next()
		return record.String(t.text), nil
	case tokIdent:
		if strings.EqualFold(t.text, "true") {
			c.next()
			return record.Boolean(true), nil
		}
		if strings.EqualFold(t.text, "false") {
			c.next()
			return record.Boolean(false), nil
		}
	}
	return record.Value{}, fmt.Errorf("parser: expected literal, got %q", t.text)
}

func parseDelete(c *cursor) (ast.Statement, error) {
	c.next() // DELETE
	if err := c.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	table, err := c.expectIdent()
	if err != nil {
		return nil, err
	}
	stmt := &ast.DeleteStmt{TableName: table}
	if c.atKeyword("WHERE") {
		c.next()
		where, err := parseWhereExpr(c)
		if err != nil {
			return nil, err
		}
		stmt.Where = where
	}
	return stmt, nil
}

func parseSelect(c *cursor) (ast.Statement, error) {
	c.next() // SELECT
	proj, err := parseProjection(c)
	if err != nil {
		return nil, err
	}
	if err := c.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	table, err := c.expectIdent()
	if err != nil {
		return nil, err
	}

	stmt := &ast.SelectStmt{Projection: proj, TableName: table}

	if c.atKeyword("JOIN") {
		c.next()
		joinTable, err := c.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := c.expectKeyword("ON"); err != nil {
			return nil, err
		}
		on, err := parseComparison(c)
		if err != nil {
			return nil, err
		}
		stmt.Join = &ast.JoinClause{TableName: joinTable, On: on}
	}

	if c.atKeyword("WHERE") {
		c.next()
		where, err := parseWhereExpr(c)
		if err != nil {
			return nil, err
		}
		stmt.Where = where
	}
	return stmt, nil
}

func parseProjection(c *cursor) (ast.Projection, error) {
	if c.peek().kind == tokOp && c.peek().text == "*" {
		c.next()
		return ast.Projection{Star: true}, nil
	}
	var cols []ast.ColRef
	for {
		ref, err := parseColRef(c)
		if err != nil {
			return ast.Projection{}, err
		}
		cols = append(cols, ref)
		if c.peek().kind == tokPunct && c.peek().text == "," {
			c.next()
			continue
		}
		break
	}
	return ast.Projection{Cols: cols}, nil
}

func parseColRef(c *cursor) (ast.ColRef, error) {
	first, err := c.expectIdent()
	if err != nil {
		return ast.ColRef{}, err
	}
	if c.peek().kind == tokPunct && c.peek().text == "." {
		c.next()
		second, err := c.expectIdent()
		if err != nil {
			return ast.ColRef{}, err
		}
		return ast.ColRef{Qualifier: first, Name: second}, nil
	}
	return ast.ColRef{Name: first}, nil
}

// parseWhereExpr parses a conjunction of comparisons (top-level AND only;
// disjunction and negation are rejected by construction since there is no
// rule to produce them).
func parseWhereExpr(c *cursor) (ast.Expr, error) {
	left, err := parseComparison(c)
	if err != nil {
		return nil, err
	}
	for c.atKeyword("AND") {
		c.next()
		right, err := parseComparison(c)
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Op: ast.And, Lhs: left, Rhs: right}
	}
	return left, nil
}

func parseComparison(c *cursor) (ast.Expr, error) {
	lhs, err := parseOperand(c)
	if err != nil {
		return nil, err
	}
	op, err := parseCompareOp(c)
	if err != nil {
		return nil, err
	}
	rhs, err := parseOperand(c)
	if err != nil {
		return nil, err
	}
	return &ast.BinaryOp{Op: op, Lhs: lhs, Rhs: rhs}, nil
}

func parseCompareOp(c *cursor) (ast.Op, error) {
	t := c.peek()
	if t.kind != tokOp {
		return 0, fmt.Errorf("parser: expected comparison operator, got %q", t.text)
	}
	c.next()
	switch t.text {
	case "=":
		return ast.Eq, nil
	case "!=":
		return ast.Ne, nil
	case "<":
		return ast.Lt, nil
	case "<=":
		return ast.Le, nil
	case ">":
		return ast.Gt, nil
	case ">=":
		return ast.Ge, nil
	default:
		return 0, fmt.Errorf("parser: unsupported operator %q", t.text)
	}
}

// parseOperand parses either a literal or a (possibly qualified) column
// reference.
func parseOperand(c *cursor) (ast.Expr, error) {
	t := c.peek()
	if t.kind == tokNumber || t.kind == tokString {
		v, err := parseLiteralValue(c)
		if err != nil {
			return nil, err
		}
		return ast.Literal{Value: v}, nil
	}
	if t.kind == tokIdent && (strings.EqualFold(t.text, "true") || strings.EqualFold(t.text, "false")) {
		v, err := parseLiteralValue(c)
		if err != nil {
			return nil, err
		}
		return ast.Literal{Value: v}, nil
	}
	ref, err := parseColRef(c)
	if err != nil {
		return nil, err
	}
	return ref, nil
}
