// Package executor drives a planner.Plan as a pull-based (volcano) row
// iterator: each node exposes Next()/Row(), composing scans, joins, filter
// and project over the catalog's open tables and indexes.
package executor

import (
	"fmt"

	"github.com/novadb/novadb/internal/btree"
	"github.com/novadb/novadb/internal/catalog"
	"github.com/novadb/novadb/internal/heap"
	"github.com/novadb/novadb/internal/record"
	"github.com/novadb/novadb/internal/sql/planner"
)

// RowIterator is the uniform pull contract every plan node implements.
type RowIterator interface {
	Next() (bool, error)
	Row() []record.Value
	Close()
}

// Build compiles a planner.Plan into a RowIterator against cat.
func Build(cat *catalog.Catalog, plan planner.Plan) (RowIterator, error) {
	switch p := plan.(type) {
	case *planner.SeqScanPlan:
		return buildSeqScan(cat, p)
	case *planner.IndexScanPlan:
		return buildIndexScan(cat, p)
	case *planner.UnionScanPlan:
		return buildUnionScan(cat, p)
	case *planner.NLJoinPlan:
		return buildNLJoin(cat, p)
	case *planner.MergeJoinPlan:
		return buildMergeJoin(cat, p)
	case *planner.FilterPlan:
		return buildFilter(cat, p)
	case *planner.ProjectPlan:
		return buildProject(cat, p)
	default:
		return nil, fmt.Errorf("executor: unsupported plan node %T", plan)
	}
}

// seqScanIter wraps a heap.TableScan, applying a residual filter per row.
type seqScanIter struct {
	scan     *heap.TableScan
	schema   record.Schema
	residual []planner.Predicate
	row      []record.Value
	id       heap.RowId
}

func buildSeqScan(cat *catalog.Catalog, p *planner.SeqScanPlan) (RowIterator, error) {
	tbl, ok := cat.Table(p.Table)
	if !ok {
		return nil, fmt.Errorf("executor: table %s not found", p.Table)
	}
	return &seqScanIter{scan: heap.NewTableScan(tbl), schema: tbl.Schema, residual: p.Residual}, nil
}

func (it *seqScanIter) Next() (bool, error) {
	for {
		ok, err := it.scan.Next()
		if err != nil || !ok {
			return false, err
		}
		id, row := it.scan.Row()
		pass, err := evalPredicates(it.schema, row, it.residual)
		if err != nil {
			return false, err
		}
		if pass {
			it.row = row
			it.id = id
			return true, nil
		}
	}
}

func (it *seqScanIter) Row() []record.Value { return it.row }
func (it *seqScanIter) Close()              { it.scan.Close() }
func (it *seqScanIter) RowID() heap.RowId   { return it.id }

// indexScanIter consumes a B+Tree RangeScan, fetching each matching row and
// applying a residual filter.
type indexScanIter struct {
	tbl      *heap.Table
	rangeIt  *btree.RangeIter
	schema   record.Schema
	residual []planner.Predicate
	row      []record.Value
	id       heap.RowId
}

func buildIndexScan(cat *catalog.Catalog, p *planner.IndexScanPlan) (RowIterator, error) {
	tbl, ok := cat.Table(p.Table)
	if !ok {
		return nil, fmt.Errorf("executor: table %s not found", p.Table)
	}
	entry, ok := cat.Index(p.IndexName)
	if !ok {
		return nil, fmt.Errorf("executor: index %s not found", p.IndexName)
	}
	return &indexScanIter{
		tbl:      tbl,
		rangeIt:  entry.Tree.RangeScan(p.Lo, p.Hi),
		schema:   tbl.Schema,
		residual: p.Residual,
	}, nil
}

func (it *indexScanIter) Next() (bool, error) {
	for it.rangeIt.Next() {
		id := it.rangeIt.Value()
		row, err := it.tbl.Get(id)
		if err != nil {
			if err == heap.ErrNotFound {
				continue // stale index entry for a deleted row
			}
			return false, err
		}
		pass, err := evalPredicates(it.schema, row, it.residual)
		if err != nil {
			return false, err
		}
		if pass {
			it.row = row
			it.id = id
			return true, nil
		}
	}
	return false, nil
}

func (it *indexScanIter) Row() []record.Value { return it.row }
func (it *indexScanIter) Close()              {}
func (it *indexScanIter) RowID() heap.RowId   { return it.id }

// unionScanIter concatenates Left then Right (used for `!=` on the sole
// indexed column: two disjoint range scans).
type unionScanIter struct {
	left, right RowIterator
	onLeft      bool
	started     bool
}

func buildUnionScan(cat *catalog.Catalog, p *planner.UnionScanPlan) (RowIterator, error) {
	left, err := Build(cat, p.Left)
	if err != nil {
		return nil, err
	}
	right, err := Build(cat, p.Right)
	if err != nil {
		return nil, err
	}
	return &unionScanIter{left: left, right: right, onLeft: true}, nil
}

func (it *unionScanIter) Next() (bool, error) {
	if it.onLeft {
		ok, err := it.left.Next()
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		it.onLeft = false
	}
	return it.right.Next()
}

func (it *unionScanIter) Row() []record.Value {
	if it.onLeft {
		return it.left.Row()
	}
	return it.right.Row()
}

func (it *unionScanIter) Close() {
	it.left.Close()
	it.right.Close()
}

// RowID lets unionScanIter participate in DELETE's row-id tracking; Left
// and Right are always themselves seq/index scans, which implement it.
func (it *unionScanIter) RowID() heap.RowId {
	if it.onLeft {
		return it.left.(rowIDIterator).RowID()
	}
	return it.right.(rowIDIterator).RowID()
}
