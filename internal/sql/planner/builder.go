package planner

import (
	"fmt"

	"github.com/novadb/novadb/internal/catalog"
	"github.com/novadb/novadb/internal/record"
	"github.com/novadb/novadb/internal/sql/ast"
)

type tableSchema struct {
	name   string
	schema record.Schema
}

// resolveColRef finds which table (by index into tables) and column
// position ref names. Qualified refs must match a known table alias;
// unqualified refs must be unambiguous across all tables.
func resolveColRef(tables []tableSchema, ref ast.ColRef) (int, int, error) {
	if ref.Qualifier != "" {
		for i, t := range tables {
			if t.name == ref.Qualifier {
				pos := t.schema.IndexOf(ref.Name)
				if pos < 0 {
					return 0, 0, fmt.Errorf("planner: column %s.%s not found", ref.Qualifier, ref.Name)
				}
				return i, pos, nil
			}
		}
		return 0, 0, fmt.Errorf("planner: unknown table qualifier %s", ref.Qualifier)
	}

	matches := 0
	var mi, mp int
	for i, t := range tables {
		if pos := t.schema.IndexOf(ref.Name); pos >= 0 {
			matches++
			mi, mp = i, pos
		}
	}
	switch matches {
	case 0:
		return 0, 0, fmt.Errorf("planner: column %s not found", ref.Name)
	case 1:
		return mi, mp, nil
	default:
		return 0, 0, fmt.Errorf("planner: column %s is ambiguous", ref.Name)
	}
}

// BuildSelect compiles a SELECT statement into a physical plan, resolving
// index selection (single table) or join strategy (two tables).
func BuildSelect(cat *catalog.Catalog, stmt *ast.SelectStmt) (*SelectPlan, error) {
	if stmt.Join == nil {
		return buildSingleTableSelect(cat, stmt)
	}
	return buildJoinSelect(cat, stmt)
}

func buildSingleTableSelect(cat *catalog.Catalog, stmt *ast.SelectStmt) (*SelectPlan, error) {
	tbl, ok := cat.Table(stmt.TableName)
	if !ok {
		return nil, fmt.Errorf("planner: table %s not found", stmt.TableName)
	}
	preds, err := ExtractPredicates(stmt.Where)
	if err != nil {
		return nil, err
	}
	scan, err := buildTableScan(cat, stmt.TableName, preds)
	if err != nil {
		return nil, err
	}

	schema, err := projectSingle(tbl.Schema, stmt.Projection)
	if err != nil {
		return nil, err
	}
	var positions []int
	if !stmt.Projection.Star {
		positions = make([]int, len(stmt.Projection.Cols))
		for i, ref := range stmt.Projection.Cols {
			positions[i] = tbl.Schema.IndexOf(ref.Name)
		}
	}
	proj := &ProjectPlan{Input: scan, Star: stmt.Projection.Star, Columns: stmt.Projection.Cols, Positions: positions}
	return &SelectPlan{Root: proj, Schema: schema}, nil
}

// buildTableScan builds a SeqScan or IndexScan (or a Union of two IndexScans
// for the `!=` special case) over table, pushing as many preds as possible
// into the scan and leaving the rest as a residual filter.
func buildTableScan(cat *catalog.Catalog, table string, preds []Predicate) (Plan, error) {
	idx, k, used := bestIndex(cat, table, preds)
	if idx == nil || k < 1 {
		return &SeqScanPlan{Table: table, Residual: preds}, nil
	}

	boundsList, err := computeBounds(idx, used, k)
	if err != nil {
		return &SeqScanPlan{Table: table, Residual: preds}, nil
	}
	residual := residualPredicates(preds, used)

	if len(boundsList) == 1 {
		return &IndexScanPlan{Table: table, IndexName: idx.Meta.Name, Lo: boundsList[0].Lo, Hi: boundsList[0].Hi, Residual: residual}, nil
	}
	return &UnionScanPlan{
		Left:  &IndexScanPlan{Table: table, IndexName: idx.Meta.Name, Lo: boundsList[0].Lo, Hi: boundsList[0].Hi, Residual: residual},
		Right: &IndexScanPlan{Table: table, IndexName: idx.Meta.Name, Lo: boundsList[1].Lo, Hi: boundsList[1].Hi, Residual: residual},
	}, nil
}

func residualPredicates(all, used []Predicate) []Predicate {
	var residual []Predicate
	for _, p := range all {
		consumed := false
		for _, u := range used {
			if p == u {
				consumed = true
				break
			}
		}
		if !consumed {
			residual = append(residual, p)
		}
	}
	return residual
}

func projectSingle(schema record.Schema, proj ast.Projection) (record.Schema, error) {
	if proj.Star {
		return schema, nil
	}
	cols := make([]record.Column, len(proj.Cols))
	for i, ref := range proj.Cols {
		pos := schema.IndexOf(ref.Name)
		if pos < 0 {
			return record.Schema{}, fmt.Errorf("planner: column %s not found", ref.Name)
		}
		cols[i] = schema.Columns[pos]
	}
	return record.NewSchema(cols...), nil
}

func indexOnColumn(cat *catalog.Catalog, table, col string) *catalog.IndexEntry {
	for _, e := range cat.IndexesOn(table) {
		if len(e.Meta.Columns) == 1 && e.Meta.Columns[0] == col {
			return e
		}
	}
	return nil
}

// buildJoinSelect implements §4.8's two-table join planning: merge join
// when both sides are indexed on the join column, nested-loop with an
// inner index when only one side is, and a plain nested loop otherwise.
func buildJoinSelect(cat *catalog.Catalog, stmt *ast.SelectStmt) (*SelectPlan, error) {
	leftName, rightName := stmt.TableName, stmt.Join.TableName
	leftTbl, ok := cat.Table(leftName)
	if !ok {
		return nil, fmt.Errorf("planner: table %s not found", leftName)
	}
	rightTbl, ok := cat.Table(rightName)
	if !ok {
		return nil, fmt.Errorf("planner: table %s not found", rightName)
	}

	on, ok := stmt.Join.On.(*ast.BinaryOp)
	if !ok || on.Op != ast.Eq {
		return nil, fmt.Errorf("planner: JOIN ON must be a single equi-comparison")
	}
	lref, lok := on.Lhs.(ast.ColRef)
	rref, rok := on.Rhs.(ast.ColRef)
	if !lok || !rok {
		return nil, fmt.Errorf("planner: JOIN ON must compare two column references")
	}

	tables := []tableSchema{{leftName, leftTbl.Schema}, {rightName, rightTbl.Schema}}
	li, _, err := resolveColRef(tables, lref)
	if err != nil {
		return nil, err
	}
	ri, _, err := resolveColRef(tables, rref)
	if err != nil {
		return nil, err
	}
	if li == ri {
		return nil, fmt.Errorf("planner: JOIN ON must reference both tables")
	}
	// normalize so x is the left table's column, y is the right table's
	xCol, yCol := lref.Name, rref.Name
	if li == 1 {
		xCol, yCol = rref.Name, lref.Name
	}

	wherePreds, err := ExtractPredicates(stmt.Where)
	if err != nil {
		return nil, err
	}
	var leftPreds, rightPreds, crossFilter []Predicate
	for _, p := range wherePreds {
		ti, _, err := resolveColRef(tables, p.Col)
		if err != nil {
			return nil, err
		}
		switch ti {
		case 0:
			leftPreds = append(leftPreds, p)
		case 1:
			rightPreds = append(rightPreds, p)
		default:
			crossFilter = append(crossFilter, p)
		}
	}

	idxA := indexOnColumn(cat, leftName, xCol)
	idxB := indexOnColumn(cat, rightName, yCol)

	var root Plan
	switch {
	case idxA != nil && idxB != nil:
		root = &MergeJoinPlan{
			LeftTable: leftName, LeftIndexName: idxA.Meta.Name, LeftJoinColumn: xCol,
			RightTable: rightName, RightIndexName: idxB.Meta.Name, RightJoinColumn: yCol,
			LeftResidual: leftPreds, RightResidual: rightPreds, CrossFilter: crossFilter,
		}
	case idxB != nil:
		outer, err := buildTableScan(cat, leftName, leftPreds)
		if err != nil {
			return nil, err
		}
		root = &NLJoinPlan{
			Outer: outer, OuterTable: leftName, OuterJoinColumn: xCol,
			InnerTable: rightName, InnerIndexName: idxB.Meta.Name, InnerJoinColumn: yCol,
			InnerResidual: rightPreds, CrossFilter: crossFilter,
			LeftTable: leftName, RightTable: rightName, OuterIsLeft: true,
		}
	case idxA != nil:
		outer, err := buildTableScan(cat, rightName, rightPreds)
		if err != nil {
			return nil, err
		}
		root = &NLJoinPlan{
			Outer: outer, OuterTable: rightName, OuterJoinColumn: yCol,
			InnerTable: leftName, InnerIndexName: idxA.Meta.Name, InnerJoinColumn: xCol,
			InnerResidual: leftPreds, CrossFilter: crossFilter,
			LeftTable: leftName, RightTable: rightName, OuterIsLeft: false,
		}
	default:
		outer, err := buildTableScan(cat, leftName, leftPreds)
		if err != nil {
			return nil, err
		}
		root = &NLJoinPlan{
			Outer: outer, OuterTable: leftName, OuterJoinColumn: xCol,
			InnerTable: rightName, InnerJoinColumn: yCol,
			InnerResidual: rightPreds, CrossFilter: crossFilter,
			LeftTable: leftName, RightTable: rightName, OuterIsLeft: true,
		}
	}

	combined := record.NewSchema(append(append([]record.Column{}, leftTbl.Schema.Columns...), rightTbl.Schema.Columns...)...)
	schema, positions, err := projectJoined(tables, combined, stmt.Projection)
	if err != nil {
		return nil, err
	}
	proj := &ProjectPlan{Input: root, Star: stmt.Projection.Star, Columns: stmt.Projection.Cols, Positions: positions}
	return &SelectPlan{Root: proj, Schema: schema}, nil
}

func projectJoined(tables []tableSchema, combined record.Schema, proj ast.Projection) (record.Schema, []int, error) {
	if proj.Star {
		return combined, nil, nil
	}
	cols := make([]record.Column, len(proj.Cols))
	positions := make([]int, len(proj.Cols))
	offset := len(tables[0].schema.Columns)
	for i, ref := range proj.Cols {
		ti, pos, err := resolveColRef(tables, ref)
		if err != nil {
			return record.Schema{}, nil, err
		}
		abs := pos
		if ti == 1 {
			abs = offset + pos
		}
		cols[i] = combined.Columns[abs]
		positions[i] = abs
	}
	return record.NewSchema(cols...), positions, nil
}

// BuildDelete compiles a DELETE statement's row-selection pipeline. DELETE
// has no JOIN in the spec's AST surface.
func BuildDelete(cat *catalog.Catalog, stmt *ast.DeleteStmt) (*DeletePlan, error) {
	if _, ok := cat.Table(stmt.TableName); !ok {
		return nil, fmt.Errorf("planner: table %s not found", stmt.TableName)
	}
	preds, err := ExtractPredicates(stmt.Where)
	if err != nil {
		return nil, err
	}
	scan, err := buildTableScan(cat, stmt.TableName, preds)
	if err != nil {
		return nil, err
	}
	return &DeletePlan{Scan: scan, Table: stmt.TableName}, nil
}
