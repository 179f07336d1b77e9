package planner

import (
	"sort"

	"github.com/dshills/QuantaPlan/internal/catalog"
	"github.com/dshills/QuantaPlan/internal/sql/expr"
)

// Build converts a tagged predicate tree into an access path. Tagged
// leaves drive index scans; whatever the chosen index cannot serve is
// re-applied as a residual filter on fetch. A tree with no tags at all
// falls back to a collection scan.
func Build(tagged *expr.Expr, cat *catalog.Catalog) AccessPath {
	if tag := tagged.IndexTagOn(); tag != nil {
		return &IndexScan{
			Index:   tag.Index,
			Name:    cat.Entry(tag.Index).Name,
			Columns: []KeyColumn{{Position: tag.Position, Pred: tagged}},
			Filter:  tagged,
		}
	}

	switch tagged.Type {
	case expr.MatchOr:
		return buildOr(tagged, cat)
	case expr.MatchAnd, expr.MatchElemObject:
		return buildConjunction(tagged, cat)
	default:
		return &CollScan{Filter: tagged}
	}
}

// buildOr produces a union path when every branch is indexed. A single
// scan branch would dominate the union, so the whole disjunction
// degrades to a collection scan instead.
func buildOr(node *expr.Expr, cat *catalog.Catalog) AccessPath {
	branches := make([]AccessPath, 0, node.NumChildren())
	for _, child := range node.Children {
		branch := Build(child, cat)
		if _, isScan := branch.(*CollScan); isScan {
			return &CollScan{Filter: node}
		}
		branches = append(branches, branch)
	}
	if len(branches) == 0 {
		return &CollScan{Filter: node}
	}
	return &OrPlan{Branches: branches}
}

// buildConjunction builds the index scan for a conjunction's tagged
// members and wraps the remaining children as a residual filter. The
// same shape serves array-scoped nodes, whose children behave like
// conjoined predicates over the scoped path.
func buildConjunction(node *expr.Expr, cat *catalog.Catalog) AccessPath {
	var served []*expr.Expr
	var residual []*expr.Expr
	for _, child := range node.Children {
		if child.IndexTagOn() != nil {
			served = append(served, child)
		} else {
			residual = append(residual, child)
		}
	}

	if len(served) == 0 {
		return buildThroughChild(node, residual, cat)
	}

	columns := make([]KeyColumn, len(served))
	for i, child := range served {
		columns[i] = KeyColumn{Position: child.IndexTagOn().Position, Pred: child}
	}
	sort.Slice(columns, func(i, j int) bool {
		return columns[i].Position < columns[j].Position
	})

	index := columns[0].Pred.IndexTagOn().Index
	scan := &IndexScan{
		Index:   index,
		Name:    cat.Entry(index).Name,
		Columns: columns,
		Filter:  conjoin(served),
	}
	if len(residual) == 0 {
		return scan
	}
	return &FetchFilter{Child: scan, Residual: conjoin(residual)}
}

// buildThroughChild handles a conjunction whose own leaves are all
// untagged but whose nested subtrees may carry tags. The first indexed
// subtree drives the plan; its siblings become the residual.
func buildThroughChild(node *expr.Expr, children []*expr.Expr, cat *catalog.Catalog) AccessPath {
	for i, child := range children {
		if !hasIndexTags(child) {
			continue
		}
		driving := Build(child, cat)
		rest := make([]*expr.Expr, 0, len(children)-1)
		rest = append(rest, children[:i]...)
		rest = append(rest, children[i+1:]...)
		if len(rest) == 0 {
			return driving
		}
		return &FetchFilter{Child: driving, Residual: conjoin(rest)}
	}
	return &CollScan{Filter: node}
}

func hasIndexTags(node *expr.Expr) bool {
	if node.IndexTagOn() != nil {
		return true
	}
	for _, child := range node.Children {
		if hasIndexTags(child) {
			return true
		}
	}
	return false
}

func conjoin(preds []*expr.Expr) *expr.Expr {
	if len(preds) == 1 {
		return preds[0]
	}
	return expr.NewAnd(preds...)
}
