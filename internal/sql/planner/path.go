// Package planner turns a tagged predicate tree into access-path plan
// nodes: index scans over the tagged columns, collection scans for
// everything unserved, with residual predicates re-applied on fetch.
package planner

import (
	"fmt"
	"strings"

	"github.com/dshills/QuantaPlan/internal/sql/expr"
)

// AccessPath represents a node in an access-path plan.
type AccessPath interface {
	// Children returns the child paths.
	Children() []AccessPath
	// String returns a string representation for debugging.
	String() string
	accessPath()
}

// KeyColumn is one index key column served by a predicate, at the
// column's 0-based position in the key pattern.
type KeyColumn struct {
	Position int
	Pred     *expr.Expr
}

// IndexScan reads an index over a contiguous run of key columns.
type IndexScan struct {
	Index   int
	Name    string
	Columns []KeyColumn
	Filter  *expr.Expr
}

func (s *IndexScan) Children() []AccessPath { return nil }

func (s *IndexScan) accessPath() {}

func (s *IndexScan) String() string {
	fields := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		fields[i] = col.Pred.Path
	}
	return fmt.Sprintf("IndexScan(%s, columns=[%s])", s.Name, strings.Join(fields, ", "))
}

// CollScan reads the whole collection and filters every document.
type CollScan struct {
	Filter *expr.Expr
}

func (s *CollScan) Children() []AccessPath { return nil }

func (s *CollScan) accessPath() {}

func (s *CollScan) String() string { return "CollScan" }

// OrPlan unions the results of its branch paths.
type OrPlan struct {
	Branches []AccessPath
}

func (o *OrPlan) Children() []AccessPath { return o.Branches }

func (o *OrPlan) accessPath() {}

func (o *OrPlan) String() string {
	return fmt.Sprintf("Or(%d branches)", len(o.Branches))
}

// FetchFilter fetches documents from its child path and re-applies the
// residual predicates the child could not serve.
type FetchFilter struct {
	Child    AccessPath
	Residual *expr.Expr
}

func (f *FetchFilter) Children() []AccessPath { return []AccessPath{f.Child} }

func (f *FetchFilter) accessPath() {}

func (f *FetchFilter) String() string { return "FetchFilter" }

// Explain renders an access path as an indented tree for debugging.
func Explain(path AccessPath) string {
	var sb strings.Builder
	explainTo(&sb, path, 0)
	return sb.String()
}

func explainTo(sb *strings.Builder, path AccessPath, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(path.String())
	sb.WriteString("\n")
	for _, child := range path.Children() {
		explainTo(sb, child, depth+1)
	}
}
