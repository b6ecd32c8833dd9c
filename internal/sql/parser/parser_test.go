package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/novadb/novadb/internal/record"
	"github.com/novadb/novadb/internal/sql/ast"
)

func TestParse_CreateTable(t *testing.T) {
	stmt, err := Parse("CREATE TABLE users (id INTEGER, name VARCHAR);")
	require.NoError(t, err)
	ct, ok := stmt.(*ast.CreateTableStmt)
	require.True(t, ok)
	require.Equal(t, "users", ct.TableName)
	require.Equal(t, []ast.ColumnDef{
		{Name: "id", Type: record.IntegerType},
		{Name: "name", Type: record.VarcharType},
	}, ct.Columns)
}

func TestParse_InsertMultiRow(t *testing.T) {
	stmt, err := Parse("INSERT INTO users VALUES (1,'Alice'),(2,'Bob');")
	require.NoError(t, err)
	ins, ok := stmt.(*ast.InsertStmt)
	require.True(t, ok)
	require.Equal(t, "users", ins.TableName)
	require.Equal(t, [][]record.Value{
		{record.Integer(1), record.String("Alice")},
		{record.Integer(2), record.String("Bob")},
	}, ins.Rows)
}

func TestParse_QuoteEscaping(t *testing.T) {
	stmt, err := Parse("INSERT INTO t VALUES ('it''s');")
	require.NoError(t, err)
	ins := stmt.(*ast.InsertStmt)
	require.Equal(t, "it's", ins.Rows[0][0].S)
}

func TestParse_SelectWithWhere(t *testing.T) {
	stmt, err := Parse("SELECT * FROM users WHERE id=2;")
	require.NoError(t, err)
	sel, ok := stmt.(*ast.SelectStmt)
	require.True(t, ok)
	require.True(t, sel.Projection.Star)
	bop, ok := sel.Where.(*ast.BinaryOp)
	require.True(t, ok)
	require.Equal(t, ast.Eq, bop.Op)
}

func TestParse_SelectConjunctiveWhere(t *testing.T) {
	stmt, err := Parse("SELECT * FROM users WHERE age >= 30 AND name = 'x';")
	require.NoError(t, err)
	sel := stmt.(*ast.SelectStmt)
	top, ok := sel.Where.(*ast.BinaryOp)
	require.True(t, ok)
	require.Equal(t, ast.And, top.Op)
}

func TestParse_SelectJoinOn(t *testing.T) {
	stmt, err := Parse("SELECT o.oid, u.name FROM o JOIN u ON o.uid = u.id;")
	require.NoError(t, err)
	sel := stmt.(*ast.SelectStmt)
	require.NotNil(t, sel.Join)
	require.Equal(t, "u", sel.Join.TableName)
	on, ok := sel.Join.On.(*ast.BinaryOp)
	require.True(t, ok)
	require.Equal(t, ast.Eq, on.Op)
	lhs, ok := on.Lhs.(ast.ColRef)
	require.True(t, ok)
	require.Equal(t, "o", lhs.Qualifier)
	require.Equal(t, "uid", lhs.Name)
}

func TestParse_CreateIndex(t *testing.T) {
	stmt, err := Parse("CREATE INDEX idx_age ON users(age);")
	require.NoError(t, err)
	ci, ok := stmt.(*ast.CreateIndexStmt)
	require.True(t, ok)
	require.Equal(t, "idx_age", ci.IndexName)
	require.Equal(t, "users", ci.TableName)
	require.Equal(t, []string{"age"}, ci.Columns)
}

func TestParse_DeleteWithWhere(t *testing.T) {
	stmt, err := Parse("DELETE FROM users WHERE id=1;")
	require.NoError(t, err)
	del, ok := stmt.(*ast.DeleteStmt)
	require.True(t, ok)
	require.Equal(t, "users", del.TableName)
	require.NotNil(t, del.Where)
}

func TestParse_DropTable(t *testing.T) {
	stmt, err := Parse("DROP TABLE users;")
	require.NoError(t, err)
	dt, ok := stmt.(*ast.DropTableStmt)
	require.True(t, ok)
	require.Equal(t, "users", dt.TableName)
}

func TestParse_MissingSemicolonAllowed(t *testing.T) {
	_, err := Parse("SELECT * FROM users")
	require.NoError(t, err)
}

func TestParse_RejectsTrailingGarbage(t *testing.T) {
	_, err := Parse("SELECT * FROM users; garbage")
	require.Error(t, err)
}
