// Package relevance annotates predicate trees with the catalog indexes
// that could serve each leaf, ahead of plan enumeration.
package relevance

import (
	"github.com/dshills/QuantaPlan/internal/catalog"
	"github.com/dshills/QuantaPlan/internal/sql/expr"
)

// RateIndices walks the tree and attaches a RelevantTag to every leaf
// that some catalog index could serve: the index id lands in First
// when the leaf's qualified path is the index's leading key column,
// and in NotFirst when it is a later column. Ids are appended in
// catalog order, so rating is deterministic. Leaves no index can serve
// are left untagged.
func RateIndices(root *expr.Expr, cat *catalog.Catalog) {
	rate("", root, cat)
}

func rate(prefix string, node *expr.Expr, cat *catalog.Catalog) {
	if expr.CanUseIndexOnOwnField(node) {
		rateLeaf(prefix, node, cat)
		return
	}
	if expr.ArrayUsesIndexOnChildren(node) && node.Path != "" {
		prefix += node.Path + "."
	}
	for _, child := range node.Children {
		rate(prefix, child, cat)
	}
}

func rateLeaf(prefix string, leaf *expr.Expr, cat *catalog.Catalog) {
	path := prefix + leaf.Path
	rt := &expr.RelevantTag{}
	for id := 0; id < cat.Len(); id++ {
		entry := cat.Entry(id)
		if !compatible(leaf, entry) {
			continue
		}
		for pos, field := range entry.KeyPattern {
			if field != path {
				continue
			}
			if pos == 0 {
				rt.First = append(rt.First, id)
			} else if leaf.Type != expr.MatchGeoNear {
				// A geo-nearest predicate must drive the leading
				// column of its index.
				rt.NotFirst = append(rt.NotFirst, id)
			}
			break
		}
	}
	if len(rt.First) > 0 || len(rt.NotFirst) > 0 {
		leaf.SetRelevantTag(rt)
	}
}

// compatible reports whether an index's access structure can serve the
// leaf's match kind at all, independent of key position.
func compatible(leaf *expr.Expr, entry *catalog.IndexEntry) bool {
	switch entry.Type {
	case catalog.GeoIndex:
		return leaf.Type == expr.MatchGeoNear
	case catalog.HashIndex:
		return leaf.Type == expr.MatchEquals || leaf.Type == expr.MatchIn
	default:
		return leaf.Type != expr.MatchGeoNear
	}
}
