package executor

import (
	"github.com/novadb/novadb/internal/catalog"
	"github.com/novadb/novadb/internal/record"
	"github.com/novadb/novadb/internal/sql/planner"
)

// projectIter narrows each input row to Positions, or passes it through
// unchanged for SELECT *.
type projectIter struct {
	input     RowIterator
	positions []int
	row       []record.Value
}

func buildProject(cat *catalog.Catalog, p *planner.ProjectPlan) (RowIterator, error) {
	input, err := Build(cat, p.Input)
	if err != nil {
		return nil, err
	}
	return &projectIter{input: input, positions: p.Positions}, nil
}

func (it *projectIter) Next() (bool, error) {
	ok, err := it.input.Next()
	if err != nil || !ok {
		return false, err
	}
	src := it.input.Row()
	if it.positions == nil {
		it.row = src
		return true, nil
	}
	row := make([]record.Value, len(it.positions))
	for i, pos := range it.positions {
		row[i] = src[pos]
	}
	it.row = row
	return true, nil
}

func (it *projectIter) Row() []record.Value { return it.row }
func (it *projectIter) Close()              { it.input.Close() }

// filterIter applies Predicates to each row from Input. It evaluates
// against Input's own row shape, so it is only valid where that shape is a
// single table's schema (join residuals are applied inline by the join
// iterators instead, since they need the combined row).
type filterIter struct {
	input      RowIterator
	schema     record.Schema
	predicates []planner.Predicate
	row        []record.Value
}

func buildFilter(cat *catalog.Catalog, p *planner.FilterPlan) (RowIterator, error) {
	input, err := Build(cat, p.Input)
	if err != nil {
		return nil, err
	}
	schema, err := inputSchema(cat, p.Input)
	if err != nil {
		return nil, err
	}
	return &filterIter{input: input, schema: schema, predicates: p.Predicates}, nil
}

// inputSchema recovers the row schema a scan plan produces, for a
// FilterPlan wrapping a bare scan directly (builder.go pushes predicates
// into the scan itself and builds no FilterPlan). Any other input yields an
// empty schema.
func inputSchema(cat *catalog.Catalog, plan planner.Plan) (record.Schema, error) {
	switch p := plan.(type) {
	case *planner.SeqScanPlan:
		tbl, _ := cat.Table(p.Table)
		return tbl.Schema, nil
	case *planner.IndexScanPlan:
		tbl, _ := cat.Table(p.Table)
		return tbl.Schema, nil
	default:
		return record.Schema{}, nil
	}
}

func (it *filterIter) Next() (bool, error) {
	for {
		ok, err := it.input.Next()
		if err != nil || !ok {
			return false, err
		}
		row := it.input.Row()
		pass, err := evalPredicates(it.schema, row, it.predicates)
		if err != nil {
			return false, err
		}
		if pass {
			it.row = row
			return true, nil
		}
	}
}

func (it *filterIter) Row() []record.Value { return it.row }
func (it *filterIter) Close()              { it.input.Close() }
