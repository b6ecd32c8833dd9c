package planner

import (
	"fmt"

	"github.com/novadb/novadb/internal/btree"
	"github.com/novadb/novadb/internal/record"
	"github.com/novadb/novadb/internal/sql/ast"
)

// Plan is a tagged variant of the physical plan nodes a SELECT/DELETE
// compiles to. A uniform next() contract lives on the executor's iterator
// types, not here; Plan is the static description the executor builds
// iterators from.
type Plan interface {
	planNode()
	fmt.Stringer
}

// SeqScanPlan scans every row of Table, applying Residual per row.
type SeqScanPlan struct {
	Table    string
	Residual []Predicate
}

func (*SeqScanPlan) planNode() {}
func (p *SeqScanPlan) String() string {
	return fmt.Sprintf("SeqScan(%s, residual=%v)", p.Table, p.Residual)
}

// IndexScanPlan range-scans Index over [Lo, Hi] and fetches each matching
// row, applying Residual.
type IndexScanPlan struct {
	Table     string
	IndexName string
	Lo, Hi    btree.CompositeKey
	Residual  []Predicate
}

func (*IndexScanPlan) planNode() {}
func (p *IndexScanPlan) String() string {
	return fmt.Sprintf("IndexScan(%s, %s, [%v, %v], residual=%v)", p.Table, p.IndexName, p.Lo, p.Hi, p.Residual)
}

// UnionScanPlan concatenates the rows of two disjoint scans — used for `!=`
// on the single indexed prefix column (Open Question 3: two range scans,
// unioned by the executor, rather than falling back to a sequential scan).
type UnionScanPlan struct {
	Left, Right Plan
}

func (*UnionScanPlan) planNode() {}
func (p *UnionScanPlan) String() string {
	return fmt.Sprintf("Union(%s, %s)", p.Left, p.Right)
}

// NLJoinPlan is a nested-loop join: for each row from Outer, probe Inner.
// If InnerIndexName is non-empty, the probe is an index lookup keyed by the
// outer row's OuterJoinColumn value; otherwise Inner is rescanned in full
// per outer row.
type NLJoinPlan struct {
	Outer           Plan
	OuterTable      string
	OuterJoinColumn string

	InnerTable      string
	InnerIndexName  string // "" if no index available
	InnerJoinColumn string
	InnerResidual   []Predicate

	// LeftTable/RightTable are the original FROM/JOIN table names (output
	// row order is always left-then-right regardless of which one is the
	// physical outer side); OuterIsLeft says which one Outer is.
	LeftTable  string
	RightTable string
	OuterIsLeft bool

	CrossFilter []Predicate
}

func (*NLJoinPlan) planNode() {}
func (p *NLJoinPlan) String() string {
	if p.InnerIndexName != "" {
		return fmt.Sprintf("NLJoin(outer=%s, inner=%s via %s)", p.OuterTable, p.InnerTable, p.InnerIndexName)
	}
	return fmt.Sprintf("NLJoin(outer=%s, inner=%s)", p.OuterTable, p.InnerTable)
}

// MergeJoinPlan joins two index-ordered scans on equal composite keys; used
// when both join columns are indexed.
type MergeJoinPlan struct {
	LeftTable, LeftIndexName, LeftJoinColumn    string
	RightTable, RightIndexName, RightJoinColumn string
	LeftResidual, RightResidual, CrossFilter    []Predicate
}

func (*MergeJoinPlan) planNode() {}
func (p *MergeJoinPlan) String() string {
	return fmt.Sprintf("MergeJoin(%s via %s, %s via %s)", p.LeftTable, p.LeftIndexName, p.RightTable, p.RightIndexName)
}

// FilterPlan applies Predicates to Input, evaluated against a single table's
// row shape. builder.go does not produce it: scan predicates are pushed into
// the scans, and join predicates are carried by the join plans' residual and
// CrossFilter fields.
type FilterPlan struct {
	Input      Plan
	Predicates []Predicate
}

func (*FilterPlan) planNode() {}
func (p *FilterPlan) String() string {
	return fmt.Sprintf("Filter(%s, %v)", p.Input, p.Predicates)
}

// ProjectPlan narrows each input row down to Positions (absolute indices
// into the row Input produces). Positions is nil when Star is set, meaning
// the input row passes through unchanged.
type ProjectPlan struct {
	Input     Plan
	Star      bool
	Columns   []ast.ColRef
	Positions []int
}

func (*ProjectPlan) planNode() {}
func (p *ProjectPlan) String() string {
	if p.Star {
		return fmt.Sprintf("Project(%s, *)", p.Input)
	}
	return fmt.Sprintf("Project(%s, %v)", p.Input, p.Columns)
}

// SelectPlan is the top-level plan for a SELECT statement.
type SelectPlan struct {
	Root   Plan
	Schema record.Schema // the output row shape, in projected column order
}

// DeletePlan reuses the scan pipeline to produce the row set to delete.
type DeletePlan struct {
	Scan  Plan
	Table string
}
