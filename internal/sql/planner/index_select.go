package planner

import (
	"fmt"

	"github.com/novadb/novadb/internal/btree"
	"github.com/novadb/novadb/internal/catalog"
	"github.com/novadb/novadb/internal/record"
	"github.com/novadb/novadb/internal/sql/ast"
)

// Bounds is one inclusive [Lo, Hi] composite-key range to feed a B+Tree
// RangeScan.
type Bounds struct {
	Lo, Hi btree.CompositeKey
}

func predicatesForColumn(preds []Predicate, col string) []Predicate {
	var out []Predicate
	for _, p := range preds {
		if p.Col.Name == col {
			out = append(out, p)
		}
	}
	return out
}

// matchPrefix implements §4.8 rule 1: the longest prefix of index's
// columns where the first k-1 columns carry equality predicates and the
// k-th may carry equality or a range. It returns the matched length and the
// predicates consumed.
func matchPrefix(indexCols []string, preds []Predicate) (k int, used []Predicate) {
	for i, col := range indexCols {
		matches := predicatesForColumn(preds, col)
		if len(matches) == 0 {
			break
		}
		allEq := true
		for _, p := range matches {
			if p.Op != ast.Eq {
				allEq = false
			}
		}
		if allEq {
			used = append(used, matches[0])
			k = i + 1
			continue
		}
		// a non-equality column only extends the match as the final column
		used = append(used, matches...)
		k = i + 1
		break
	}
	return k, used
}

// bestIndex implements §4.8 rule 2: the index maximizing matched prefix
// length, ties broken by catalog discovery order (IndexesOn is already in
// that order).
func bestIndex(cat *catalog.Catalog, table string, preds []Predicate) (*catalog.IndexEntry, int, []Predicate) {
	var best *catalog.IndexEntry
	bestK := 0
	var bestUsed []Predicate
	for _, e := range cat.IndexesOn(table) {
		k, used := matchPrefix(e.Meta.Columns, preds)
		if k > bestK {
			best, bestK, bestUsed = e, k, used
		}
	}
	return best, bestK, bestUsed
}

// computeBounds implements §4.8 rule 4. It returns one Bounds normally, or
// two disjoint Bounds when the matched last column is a single `!=`
// predicate on the tree's only indexed column (Open Question 3).
func computeBounds(index *catalog.IndexEntry, used []Predicate, k int) ([]Bounds, error) {
	arity := len(index.Meta.Columns)

	if k == 1 && arity == 1 && len(used) == 1 && used[0].Op == ast.Ne {
		val := used[0].Val.I
		return []Bounds{
			{Lo: btree.CompositeKey{btree.MinInt64}, Hi: btree.CompositeKey{val - 1}},
			{Lo: btree.CompositeKey{val + 1}, Hi: btree.CompositeKey{btree.MaxInt64}},
		}, nil
	}

	byCol := make(map[string][]Predicate, len(used))
	for _, p := range used {
		byCol[p.Col.Name] = append(byCol[p.Col.Name], p)
	}

	lo := make(btree.CompositeKey, arity)
	hi := make(btree.CompositeKey, arity)
	for i := 0; i < arity; i++ {
		if i >= k {
			lo[i], hi[i] = btree.MinInt64, btree.MaxInt64
			continue
		}
		col := index.Meta.Columns[i]
		preds := byCol[col]
		if len(preds) == 0 {
			return nil, fmt.Errorf("planner: internal error: no predicate for matched column %s", col)
		}
		if len(preds) == 1 && preds[0].Op == ast.Eq {
			v, err := intVal(preds[0].Val)
			if err != nil {
				return nil, err
			}
			lo[i], hi[i] = v, v
			continue
		}

		loBound, hiBound := int64(btree.MinInt64), int64(btree.MaxInt64)
		for _, p := range preds {
			v, err := intVal(p.Val)
			if err != nil {
				return nil, err
			}
			switch p.Op {
			case ast.Ge:
				loBound = v
			case ast.Gt:
				loBound = v + 1
			case ast.Le:
				hiBound = v
			case ast.Lt:
				hiBound = v - 1
			default:
				return nil, fmt.Errorf("planner: operator %s not supported in a composite range bound", p.Op)
			}
		}
		lo[i], hi[i] = loBound, hiBound
	}
	return []Bounds{{Lo: lo, Hi: hi}}, nil
}

func intVal(v record.Value) (int64, error) {
	if v.Kind != record.KindInteger {
		return 0, fmt.Errorf("planner: only INTEGER columns are indexable, got %s", v.Kind)
	}
	return v.I, nil
}
