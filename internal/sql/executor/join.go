package executor

import (
	"fmt"

	"github.com/novadb/novadb/internal/btree"
	"github.com/novadb/novadb/internal/catalog"
	"github.com/novadb/novadb/internal/heap"
	"github.com/novadb/novadb/internal/record"
	"github.com/novadb/novadb/internal/sql/planner"
)

// nlJoinIter: for each outer row, probes the inner table either by index
// lookup (when one is available) or by a full rescan.
type nlJoinIter struct {
	outer RowIterator

	outerJoinPos int
	pendingOuter []record.Value

	innerTbl      *heap.Table
	innerTree     *btree.Tree // nil when no inner index
	innerJoinPos  int
	innerResidual []planner.Predicate

	leftTable, rightTable   string
	leftSchema, rightSchema record.Schema
	outerIsLeft             bool
	crossFilter             []planner.Predicate

	matches   []heap.RowId
	mi        int
	innerScan *heap.TableScan // used for the no-index fallback
	row       []record.Value
}

func buildNLJoin(cat *catalog.Catalog, p *planner.NLJoinPlan) (RowIterator, error) {
	outer, err := Build(cat, p.Outer)
	if err != nil {
		return nil, err
	}
	outerTbl, ok := cat.Table(p.OuterTable)
	if !ok {
		return nil, fmt.Errorf("executor: table %s not found", p.OuterTable)
	}
	innerTbl, ok := cat.Table(p.InnerTable)
	if !ok {
		return nil, fmt.Errorf("executor: table %s not found", p.InnerTable)
	}
	leftTbl, ok := cat.Table(p.LeftTable)
	if !ok {
		return nil, fmt.Errorf("executor: table %s not found", p.LeftTable)
	}
	rightTbl, ok := cat.Table(p.RightTable)
	if !ok {
		return nil, fmt.Errorf("executor: table %s not found", p.RightTable)
	}

	it := &nlJoinIter{
		outer:         outer,
		outerJoinPos:  outerTbl.Schema.IndexOf(p.OuterJoinColumn),
		innerTbl:      innerTbl,
		innerJoinPos:  innerTbl.Schema.IndexOf(p.InnerJoinColumn),
		innerResidual: p.InnerResidual,
		leftTable:     p.LeftTable,
		rightTable:    p.RightTable,
		leftSchema:    leftTbl.Schema,
		rightSchema:   rightTbl.Schema,
		outerIsLeft:   p.OuterIsLeft,
		crossFilter:   p.CrossFilter,
	}
	if p.InnerIndexName != "" {
		entry, ok := cat.Index(p.InnerIndexName)
		if !ok {
			return nil, fmt.Errorf("executor: index %s not found", p.InnerIndexName)
		}
		it.innerTree = entry.Tree
	}
	return it, nil
}

func (it *nlJoinIter) Next() (bool, error) {
	for {
		if it.innerScan == nil && it.mi >= len(it.matches) {
			ok, err := it.outer.Next()
			if err != nil || !ok {
				return false, err
			}
			it.pendingOuter = it.outer.Row()
			joinVal := it.pendingOuter[it.outerJoinPos]

			if it.innerTree != nil {
				vals, _ := it.innerTree.Search(btree.CompositeKey{joinVal.I})
				it.matches = vals
				it.mi = 0
			} else {
				it.innerScan = heap.NewTableScan(it.innerTbl)
			}
		}

		if it.innerTree != nil {
			matched := false
			for it.mi < len(it.matches) {
				id := it.matches[it.mi]
				it.mi++
				innerRow, err := it.innerTbl.Get(id)
				if err != nil {
					if err == heap.ErrNotFound {
						continue
					}
					return false, err
				}
				ok, err := it.finishRow(innerRow)
				if err != nil {
					return false, err
				}
				if ok {
					matched = true
					return true, nil
				}
			}
			if !matched {
				continue
			}
		}

		// no-index fallback: rescan inner fully for this outer row
		for it.innerScan != nil {
			ok, err := it.innerScan.Next()
			if err != nil {
				return false, err
			}
			if !ok {
				it.innerScan.Close()
				it.innerScan = nil
				break
			}
			_, innerRow := it.innerScan.Row()
			if !innerRow[it.innerJoinPos].Equal(it.pendingOuter[it.outerJoinPos]) {
				continue
			}
			matched, err := it.finishRow(innerRow)
			if err != nil {
				return false, err
			}
			if matched {
				return true, nil
			}
		}
	}
}

func (it *nlJoinIter) finishRow(innerRow []record.Value) (bool, error) {
	pass, err := evalPredicates(it.innerTbl.Schema, innerRow, it.innerResidual)
	if err != nil || !pass {
		return false, err
	}

	var combined []record.Value
	if it.outerIsLeft {
		combined = append(append([]record.Value{}, it.pendingOuter...), innerRow...)
	} else {
		combined = append(append([]record.Value{}, innerRow...), it.pendingOuter...)
	}

	for _, p := range it.crossFilter {
		ok, err := evalCrossPredicate(it.leftTable, it.leftSchema, it.rightTable, it.rightSchema, combined, p)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	it.row = combined
	return true, nil
}

func (it *nlJoinIter) Row() []record.Value { return it.row }
func (it *nlJoinIter) Close() {
	it.outer.Close()
	if it.innerScan != nil {
		it.innerScan.Close()
	}
}

// mergeJoinIter walks both index-ordered sides in lockstep. Duplicate right
// keys are buffered per left key since the B+Tree range iterator is not
// restartable.
type mergeJoinIter struct {
	leftIt, rightIt       *btree.RangeIter
	leftTbl, rightTbl     *heap.Table
	leftTable, rightTable string
	leftResidual          []planner.Predicate
	rightResidual         []planner.Predicate
	crossFilter           []planner.Predicate

	haveLeft bool
	leftKey  int64
	leftRow  []record.Value

	bufValid bool
	bufKey   int64
	buf      []heap.RowId
	bi       int

	haveLookahead   bool
	lookaheadKey    int64
	lookaheadRowID  heap.RowId

	row []record.Value
}

func buildMergeJoin(cat *catalog.Catalog, p *planner.MergeJoinPlan) (RowIterator, error) {
	leftTbl, ok := cat.Table(p.LeftTable)
	if !ok {
		return nil, fmt.Errorf("executor: table %s not found", p.LeftTable)
	}
	rightTbl, ok := cat.Table(p.RightTable)
	if !ok {
		return nil, fmt.Errorf("executor: table %s not found", p.RightTable)
	}
	leftEntry, ok := cat.Index(p.LeftIndexName)
	if !ok {
		return nil, fmt.Errorf("executor: index %s not found", p.LeftIndexName)
	}
	rightEntry, ok := cat.Index(p.RightIndexName)
	if !ok {
		return nil, fmt.Errorf("executor: index %s not found", p.RightIndexName)
	}

	lo := btree.CompositeKey{btree.MinInt64}
	hi := btree.CompositeKey{btree.MaxInt64}
	return &mergeJoinIter{
		leftIt:        leftEntry.Tree.RangeScan(lo, hi),
		rightIt:       rightEntry.Tree.RangeScan(lo, hi),
		leftTbl:       leftTbl,
		rightTbl:      rightTbl,
		leftTable:     p.LeftTable,
		rightTable:    p.RightTable,
		leftResidual:  p.LeftResidual,
		rightResidual: p.RightResidual,
		crossFilter:   p.CrossFilter,
	}, nil
}

func (it *mergeJoinIter) Next() (bool, error) {
	for {
		if it.haveLeft && it.bufValid && it.bufKey == it.leftKey && it.bi < len(it.buf) {
			id := it.buf[it.bi]
			it.bi++
			rightRow, err := it.rightTbl.Get(id)
			if err != nil {
				if err == heap.ErrNotFound {
					continue
				}
				return false, err
			}
			ok, err := it.emit(it.leftRow, rightRow)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
			continue
		}

		if !it.haveLeft || (it.bufValid && it.bufKey == it.leftKey && it.bi >= len(it.buf)) {
			ok, err := it.advanceLeft()
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
			// advanceLeft always yields a fresh left row, even one whose key
			// repeats the previous row's (the left index is a multimap too),
			// so a buffered right group must be replayed from the top for it.
			it.bi = 0
		}

		if !(it.bufValid && it.bufKey == it.leftKey) {
			found, err := it.loadRightGroup(it.leftKey)
			if err != nil {
				return false, err
			}
			if !found {
				it.haveLeft = false
				continue
			}
			it.bi = 0
		}
	}
}

func (it *mergeJoinIter) advanceLeft() (bool, error) {
	for it.leftIt.Next() {
		key := it.leftIt.Key()[0]
		id := it.leftIt.Value()
		row, err := it.leftTbl.Get(id)
		if err != nil {
			if err == heap.ErrNotFound {
				continue
			}
			return false, err
		}
		pass, err := evalPredicates(it.leftTbl.Schema, row, it.leftResidual)
		if err != nil {
			return false, err
		}
		if !pass {
			continue
		}
		it.leftKey, it.leftRow, it.haveLeft = key, row, true
		return true, nil
	}
	it.haveLeft = false
	return false, nil
}

// loadRightGroup advances the right cursor (consuming any prior lookahead
// first) until it collects every entry whose key equals target, or
// determines none exist.
func (it *mergeJoinIter) loadRightGroup(target int64) (bool, error) {
	if it.bufValid && it.bufKey == target {
		return len(it.buf) > 0, nil
	}
	if it.bufValid && it.bufKey > target {
		return false, nil
	}

	it.buf = nil
	for {
		var curKey int64
		var curID heap.RowId
		if it.haveLookahead {
			curKey, curID = it.lookaheadKey, it.lookaheadRowID
			it.haveLookahead = false
		} else if it.rightIt.Next() {
			curKey = it.rightIt.Key()[0]
			curID = it.rightIt.Value()
		} else {
			it.bufValid, it.bufKey = true, target
			return len(it.buf) > 0, nil
		}

		switch {
		case curKey < target:
			continue
		case curKey == target:
			it.buf = append(it.buf, curID)
		default:
			it.lookaheadKey, it.lookaheadRowID, it.haveLookahead = curKey, curID, true
			it.bufValid, it.bufKey = true, target
			return len(it.buf) > 0, nil
		}
	}
}

func (it *mergeJoinIter) emit(leftRow, rightRow []record.Value) (bool, error) {
	pass, err := evalPredicates(it.rightTbl.Schema, rightRow, it.rightResidual)
	if err != nil || !pass {
		return false, err
	}
	combined := append(append([]record.Value{}, leftRow...), rightRow...)
	for _, p := range it.crossFilter {
		ok, err := evalCrossPredicate(it.leftTable, it.leftTbl.Schema, it.rightTable, it.rightTbl.Schema, combined, p)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	it.row = combined
	return true, nil
}

func (it *mergeJoinIter) Row() []record.Value { return it.row }
func (it *mergeJoinIter) Close()              {}
