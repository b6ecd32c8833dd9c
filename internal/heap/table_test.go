package heap

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/novadb/novadb/internal/record"
)

func testSchema() record.Schema {
	return record.NewSchema(
		record.Column{Name: "id", Type: record.IntegerType},
		record.Column{Name: "name", Type: record.VarcharType},
	)
}

func TestTable_CreateInsertGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.db")
	tbl, err := Create("users", testSchema(), path, 8)
	require.NoError(t, err)

	id, err := tbl.Insert([]record.Value{record.Integer(1), record.String("Alice")})
	require.NoError(t, err)

	row, err := tbl.Get(id)
	require.NoError(t, err)
	require.Equal(t, []record.Value{record.Integer(1), record.String("Alice")}, row)
}

func TestTable_InsertAllocatesNewPageWhenFull(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.db")
	schema := record.NewSchema(record.Column{Name: "name", Type: record.VarcharType})
	tbl, err := Create("users", schema, path, 8)
	require.NoError(t, err)

	big := make([]byte, 4000)
	for i := range big {
		big[i] = 'x'
	}

	var ids []RowId
	for i := 0; i < 5; i++ {
		id, err := tbl.Insert([]record.Value{record.String(string(big))})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	require.Greater(t, tbl.NumDataPages(), uint32(1))

	for _, id := range ids {
		_, err := tbl.Get(id)
		require.NoError(t, err)
	}
}

func TestTable_DeleteTombstones(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.db")
	tbl, err := Create("users", testSchema(), path, 8)
	require.NoError(t, err)

	id, err := tbl.Insert([]record.Value{record.Integer(1), record.String("a")})
	require.NoError(t, err)

	require.NoError(t, tbl.Delete(id))
	_, err = tbl.Get(id)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTable_GetOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.db")
	tbl, err := Create("users", testSchema(), path, 8)
	require.NoError(t, err)

	_, err = tbl.Get(RowId{PageID: 99, SlotID: 0})
	require.Error(t, err)
}

func TestTable_RowTooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.db")
	schema := record.NewSchema(record.Column{Name: "s", Type: record.VarcharType})
	tbl, err := Create("t", schema, path, 8)
	require.NoError(t, err)

	huge := make([]byte, 9000)
	_, err = tbl.Insert([]record.Value{record.String(string(huge))})
	require.ErrorIs(t, err, ErrRowTooLarge)
}

func TestTable_OpenReconstructsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.db")
	tbl, err := Create("users", testSchema(), path, 8)
	require.NoError(t, err)
	id, err := tbl.Insert([]record.Value{record.Integer(2), record.String("Bob")})
	require.NoError(t, err)
	require.NoError(t, tbl.Flush())

	reopened, err := Open(path, 8)
	require.NoError(t, err)
	require.Equal(t, "users", reopened.Name)
	require.Equal(t, testSchema(), reopened.Schema)

	row, err := reopened.Get(id)
	require.NoError(t, err)
	require.Equal(t, []record.Value{record.Integer(2), record.String("Bob")}, row)
}

func TestTableScan_SkipsTombstonesAndTerminates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.db")
	tbl, err := Create("users", testSchema(), path, 8)
	require.NoError(t, err)

	var ids []RowId
	for i := int64(0); i < 5; i++ {
		id, err := tbl.Insert([]record.Value{record.Integer(i), record.String("r")})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	require.NoError(t, tbl.Delete(ids[2]))

	scan := NewTableScan(tbl)
	var seen []int64
	for {
		ok, err := scan.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		_, row := scan.Row()
		seen = append(seen, row[0].I)
	}
	require.Equal(t, []int64{0, 1, 3, 4}, seen)

	ok, err := scan.Next()
	require.NoError(t, err)
	require.False(t, ok)
}
