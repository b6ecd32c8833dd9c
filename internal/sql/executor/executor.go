package executor

import (
	"fmt"
	"log/slog"

	"github.com/novadb/novadb/internal/catalog"
	"github.com/novadb/novadb/internal/heap"
	"github.com/novadb/novadb/internal/record"
	"github.com/novadb/novadb/internal/sql/ast"
	"github.com/novadb/novadb/internal/sql/planner"
)

// Exec dispatches a parsed statement against cat, driving the planner and
// the volcano iterators for DML/query statements and hitting the catalog
// directly for DDL.
func Exec(cat *catalog.Catalog, stmt ast.Statement) (*Result, error) {
	switch s := stmt.(type) {
	case *ast.CreateTableStmt:
		return execCreateTable(cat, s)
	case *ast.DropTableStmt:
		return execDropTable(cat, s)
	case *ast.CreateIndexStmt:
		return execCreateIndex(cat, s)
	case *ast.InsertStmt:
		return execInsert(cat, s)
	case *ast.DeleteStmt:
		return execDelete(cat, s)
	case *ast.SelectStmt:
		return execSelect(cat, s)
	default:
		return nil, fmt.Errorf("executor: unsupported statement %T", stmt)
	}
}

func execCreateTable(cat *catalog.Catalog, s *ast.CreateTableStmt) (*Result, error) {
	cols := make([]record.Column, len(s.Columns))
	for i, c := range s.Columns {
		cols[i] = record.Column{Name: c.Name, Type: c.Type}
	}
	if _, err := cat.CreateTable(s.TableName, record.NewSchema(cols...)); err != nil {
		return nil, err
	}
	return &Result{Kind: KindAck}, nil
}

func execDropTable(cat *catalog.Catalog, s *ast.DropTableStmt) (*Result, error) {
	if err := cat.DropTable(s.TableName); err != nil {
		return nil, err
	}
	return &Result{Kind: KindAck}, nil
}

func execCreateIndex(cat *catalog.Catalog, s *ast.CreateIndexStmt) (*Result, error) {
	if err := cat.CreateIndex(s.IndexName, s.TableName, s.Columns); err != nil {
		return nil, err
	}
	return &Result{Kind: KindAck}, nil
}

// execInsert validates every row against the schema before writing any of
// them, per §7: multi-row INSERT is all-or-nothing provided storage errors
// don't strike mid-write.
func execInsert(cat *catalog.Catalog, s *ast.InsertStmt) (*Result, error) {
	tbl, ok := cat.Table(s.TableName)
	if !ok {
		return nil, fmt.Errorf("executor: table %s not found", s.TableName)
	}
	for _, row := range s.Rows {
		if err := tbl.Schema.Validate(row); err != nil {
			return nil, err
		}
	}

	for _, row := range s.Rows {
		id, err := tbl.Insert(row)
		if err != nil {
			return nil, err
		}
		if err := cat.InsertIntoIndexes(s.TableName, row, id); err != nil {
			return nil, err
		}
	}
	slog.Info("executor.insert", "table", s.TableName, "rows", len(s.Rows))
	return &Result{Kind: KindRowCount, RowCount: len(s.Rows)}, nil
}

func execDelete(cat *catalog.Catalog, s *ast.DeleteStmt) (*Result, error) {
	plan, err := planner.BuildDelete(cat, s)
	if err != nil {
		return nil, err
	}
	tbl, ok := cat.Table(plan.Table)
	if !ok {
		return nil, fmt.Errorf("executor: table %s not found", plan.Table)
	}

	it, err := Build(cat, plan.Scan)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var ids []heap.RowId
	var rows [][]record.Value
	for {
		id, ok, err := nextWithID(it)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		ids = append(ids, id)
		rows = append(rows, it.Row())
	}

	count := 0
	for i, id := range ids {
		if err := tbl.Delete(id); err != nil {
			return nil, err
		}
		if err := cat.DeleteFromIndexes(plan.Table, rows[i], id); err != nil {
			return nil, err
		}
		count++
	}
	slog.Info("executor.delete", "table", plan.Table, "rows", count)
	return &Result{Kind: KindRowCount, RowCount: count}, nil
}

// rowIDIterator is implemented by the scan iterators that can report which
// physical row they just produced (seq/index scans, and the union of two
// of those) — exactly the shapes DELETE's planner ever builds.
type rowIDIterator interface {
	RowID() heap.RowId
}

func nextWithID(it RowIterator) (heap.RowId, bool, error) {
	ok, err := it.Next()
	if err != nil || !ok {
		return heap.RowId{}, ok, err
	}
	ridIt, ok := it.(rowIDIterator)
	if !ok {
		return heap.RowId{}, false, fmt.Errorf("executor: DELETE scan %T does not expose row ids", it)
	}
	return ridIt.RowID(), true, nil
}

func execSelect(cat *catalog.Catalog, s *ast.SelectStmt) (*Result, error) {
	plan, err := planner.BuildSelect(cat, s)
	if err != nil {
		return nil, err
	}
	it, err := Build(cat, plan.Root)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var rows [][]record.Value
	for {
		ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		rows = append(rows, it.Row())
	}
	return &Result{Kind: KindRows, Schema: plan.Schema, Rows: rows, Plan: plan.Root.String()}, nil
}
