package catalog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/novadb/novadb/internal/btree"
	"github.com/novadb/novadb/internal/heap"
	"github.com/novadb/novadb/internal/record"
)

func usersSchema() record.Schema {
	return record.NewSchema(
		record.Column{Name: "id", Type: record.IntegerType},
		record.Column{Name: "age", Type: record.IntegerType},
		record.Column{Name: "name", Type: record.VarcharType},
	)
}

func TestCatalog_CreateTableAndInsert(t *testing.T) {
	dir := t.TempDir()
	cat, err := Open(dir, 8)
	require.NoError(t, err)

	tbl, err := cat.CreateTable("users", usersSchema())
	require.NoError(t, err)

	id, err := tbl.Insert([]record.Value{record.Integer(1), record.Integer(30), record.String("Alice")})
	require.NoError(t, err)

	got, ok := cat.Table("users")
	require.True(t, ok)
	row, err := got.Get(id)
	require.NoError(t, err)
	require.Equal(t, record.String("Alice"), row[2])
}

func TestCatalog_CreateTableDuplicateFails(t *testing.T) {
	dir := t.TempDir()
	cat, err := Open(dir, 8)
	require.NoError(t, err)

	_, err = cat.CreateTable("users", usersSchema())
	require.NoError(t, err)
	_, err = cat.CreateTable("users", usersSchema())
	require.ErrorIs(t, err, ErrTableExists)
}

func TestCatalog_CreateIndexBuildsFromExistingRows(t *testing.T) {
	dir := t.TempDir()
	cat, err := Open(dir, 8)
	require.NoError(t, err)

	tbl, err := cat.CreateTable("users", usersSchema())
	require.NoError(t, err)

	var ids []heap.RowId
	ages := []int64{20, 30, 40}
	for i, age := range ages {
		id, err := tbl.Insert([]record.Value{record.Integer(int64(i)), record.Integer(age), record.String("x")})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	require.NoError(t, cat.CreateIndex("idx_age", "users", []string{"age"}))

	entry, ok := cat.Index("idx_age")
	require.True(t, ok)
	vals, found := entry.Tree.Search(btree.CompositeKey{30})
	require.True(t, found)
	require.Equal(t, []heap.RowId{ids[1]}, vals)
}

func TestCatalog_InsertIntoIndexesKeepsTreeInSync(t *testing.T) {
	dir := t.TempDir()
	cat, err := Open(dir, 8)
	require.NoError(t, err)

	tbl, err := cat.CreateTable("users", usersSchema())
	require.NoError(t, err)
	require.NoError(t, cat.CreateIndex("idx_age", "users", []string{"age"}))

	row := []record.Value{record.Integer(1), record.Integer(99), record.String("z")}
	id, err := tbl.Insert(row)
	require.NoError(t, err)
	require.NoError(t, cat.InsertIntoIndexes("users", row, id))

	entry, _ := cat.Index("idx_age")
	vals, found := entry.Tree.Search(btree.CompositeKey{99})
	require.True(t, found)
	require.Equal(t, []heap.RowId{id}, vals)
}

func TestCatalog_DeleteFromIndexesRemovesExactPair(t *testing.T) {
	dir := t.TempDir()
	cat, err := Open(dir, 8)
	require.NoError(t, err)

	tbl, err := cat.CreateTable("users", usersSchema())
	require.NoError(t, err)
	require.NoError(t, cat.CreateIndex("idx_age", "users", []string{"age"}))

	rowA := []record.Value{record.Integer(1), record.Integer(5), record.String("a")}
	rowB := []record.Value{record.Integer(2), record.Integer(5), record.String("b")}
	idA, err := tbl.Insert(rowA)
	require.NoError(t, err)
	idB, err := tbl.Insert(rowB)
	require.NoError(t, err)
	require.NoError(t, cat.InsertIntoIndexes("users", rowA, idA))
	require.NoError(t, cat.InsertIntoIndexes("users", rowB, idB))

	require.NoError(t, cat.DeleteFromIndexes("users", rowA, idA))

	entry, _ := cat.Index("idx_age")
	vals, found := entry.Tree.Search(btree.CompositeKey{5})
	require.True(t, found)
	require.Equal(t, []heap.RowId{idB}, vals)
}

func TestCatalog_DropTableRemovesIndexesAndFile(t *testing.T) {
	dir := t.TempDir()
	cat, err := Open(dir, 8)
	require.NoError(t, err)

	_, err = cat.CreateTable("users", usersSchema())
	require.NoError(t, err)
	require.NoError(t, cat.CreateIndex("idx_age", "users", []string{"age"}))

	require.NoError(t, cat.DropTable("users"))

	_, ok := cat.Table("users")
	require.False(t, ok)
	_, ok = cat.Index("idx_age")
	require.False(t, ok)

	require.NoFileExists(t, filepath.Join(dir, "users.db"))
}

func TestCatalog_ReopenRebuildsTablesAndIndexes(t *testing.T) {
	dir := t.TempDir()
	cat, err := Open(dir, 8)
	require.NoError(t, err)

	tbl, err := cat.CreateTable("users", usersSchema())
	require.NoError(t, err)
	id, err := tbl.Insert([]record.Value{record.Integer(1), record.Integer(50), record.String("p")})
	require.NoError(t, err)
	require.NoError(t, cat.CreateIndex("idx_age", "users", []string{"age"}))
	require.NoError(t, cat.FlushAll())

	reopened, err := Open(dir, 8)
	require.NoError(t, err)

	reTbl, ok := reopened.Table("users")
	require.True(t, ok)
	row, err := reTbl.Get(id)
	require.NoError(t, err)
	require.Equal(t, record.String("p"), row[2])

	entry, ok := reopened.Index("idx_age")
	require.True(t, ok)
	vals, found := entry.Tree.Search(btree.CompositeKey{50})
	require.True(t, found)
	require.Equal(t, []heap.RowId{id}, vals)
}

func TestCatalog_CreateIndexUnknownColumnFails(t *testing.T) {
	dir := t.TempDir()
	cat, err := Open(dir, 8)
	require.NoError(t, err)
	_, err = cat.CreateTable("users", usersSchema())
	require.NoError(t, err)

	err = cat.CreateIndex("idx_bad", "users", []string{"nope"})
	require.ErrorIs(t, err, ErrColumnNotFound)
}
