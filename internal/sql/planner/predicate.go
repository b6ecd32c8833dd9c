// Package planner turns a parsed SELECT/DELETE statement into a physical
// plan tree: predicate extraction and normalization, composite-index
// prefix matching, and join strategy selection.
package planner

import (
	"fmt"

	"github.com/novadb/novadb/internal/record"
	"github.com/novadb/novadb/internal/sql/ast"
)

// Predicate is a normalized (column, op, literal) comparison: the column
// reference is always the left-hand side.
type Predicate struct {
	Col ast.ColRef
	Op  ast.Op
	Val record.Value
}

// ExtractPredicates splits a conjunctive WHERE expression into a flat list
// of column-literal predicates. The AST has no form for disjunction or
// negation, so neither can reach it. A column-column comparison does parse
// (e.g. "WHERE a = b") and is rejected here, as is any comparison without
// exactly one column operand.
func ExtractPredicates(e ast.Expr) ([]Predicate, error) {
	if e == nil {
		return nil, nil
	}
	bop, ok := e.(*ast.BinaryOp)
	if !ok {
		return nil, fmt.Errorf("planner: WHERE must be a comparison or conjunction, got %T", e)
	}
	if bop.Op == ast.And {
		left, err := ExtractPredicates(bop.Lhs)
		if err != nil {
			return nil, err
		}
		right, err := ExtractPredicates(bop.Rhs)
		if err != nil {
			return nil, err
		}
		return append(left, right...), nil
	}
	p, err := normalizeComparison(bop)
	if err != nil {
		return nil, err
	}
	return []Predicate{p}, nil
}

// normalizeComparison orients a single comparison so the column reference
// is always on the left, flipping the operator when the operands were
// swapped ("5 < age" becomes "age > 5").
func normalizeComparison(bop *ast.BinaryOp) (Predicate, error) {
	lcol, lok := bop.Lhs.(ast.ColRef)
	rcol, rok := bop.Rhs.(ast.ColRef)
	llit, llok := bop.Lhs.(ast.Literal)
	rlit, rlok := bop.Rhs.(ast.Literal)

	switch {
	case lok && rlok:
		return Predicate{Col: lcol, Op: bop.Op, Val: rlit.Value}, nil
	case llok && rok:
		return Predicate{Col: rcol, Op: bop.Op.Flip(), Val: llit.Value}, nil
	case lok && rok:
		return Predicate{}, fmt.Errorf("planner: column-to-column comparisons are not supported outside JOIN ON")
	default:
		return Predicate{}, fmt.Errorf("planner: comparison must have exactly one column operand")
	}
}
