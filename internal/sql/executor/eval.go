package executor

import (
	"fmt"

	"github.com/novadb/novadb/internal/record"
	"github.com/novadb/novadb/internal/sql/ast"
	"github.com/novadb/novadb/internal/sql/planner"
)

// evalPredicate checks a single row (from one table, whose schema is
// schema) against predicate p, comparing by value case per §4.9 ("compare
// values by case; cross-case is a runtime error").
func evalPredicate(schema record.Schema, row []record.Value, p planner.Predicate) (bool, error) {
	pos := schema.IndexOf(p.Col.Name)
	if pos < 0 {
		return false, fmt.Errorf("executor: column %s not found", p.Col.Name)
	}
	return compareOp(row[pos], p.Op, p.Val)
}

func evalPredicates(schema record.Schema, row []record.Value, preds []planner.Predicate) (bool, error) {
	for _, p := range preds {
		ok, err := evalPredicate(schema, row, p)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func compareOp(lhs record.Value, op ast.Op, rhs record.Value) (bool, error) {
	cmp, err := lhs.Compare(rhs)
	if err != nil {
		return false, err
	}
	switch op {
	case ast.Eq:
		return cmp == 0, nil
	case ast.Ne:
		return cmp != 0, nil
	case ast.Lt:
		return cmp < 0, nil
	case ast.Le:
		return cmp <= 0, nil
	case ast.Gt:
		return cmp > 0, nil
	case ast.Ge:
		return cmp >= 0, nil
	default:
		return false, fmt.Errorf("executor: unsupported predicate operator %s", op)
	}
}

// resolveJoinPosition maps a (possibly qualified) column reference to its
// absolute position in a combined left-then-right row.
func resolveJoinPosition(leftName string, leftSchema record.Schema, rightName string, rightSchema record.Schema, ref ast.ColRef) (int, error) {
	if ref.Qualifier == leftName || (ref.Qualifier == "" && leftSchema.IndexOf(ref.Name) >= 0 && rightSchema.IndexOf(ref.Name) < 0) {
		pos := leftSchema.IndexOf(ref.Name)
		if pos < 0 {
			return 0, fmt.Errorf("executor: column %s.%s not found", leftName, ref.Name)
		}
		return pos, nil
	}
	if ref.Qualifier == rightName || (ref.Qualifier == "" && rightSchema.IndexOf(ref.Name) >= 0) {
		pos := rightSchema.IndexOf(ref.Name)
		if pos < 0 {
			return 0, fmt.Errorf("executor: column %s.%s not found", rightName, ref.Name)
		}
		return len(leftSchema.Columns) + pos, nil
	}
	return 0, fmt.Errorf("executor: column %s not found in join", ref.Name)
}

func evalCrossPredicate(leftName string, leftSchema record.Schema, rightName string, rightSchema record.Schema, row []record.Value, p planner.Predicate) (bool, error) {
	pos, err := resolveJoinPosition(leftName, leftSchema, rightName, rightSchema, p.Col)
	if err != nil {
		return false, err
	}
	return compareOp(row[pos], p.Op, p.Val)
}
