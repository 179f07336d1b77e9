package enumerator

import (
	"github.com/dshills/QuantaPlan/internal/sql/expr"
)

// checkCompound completes compound-index assignments below node. When a
// conjunction child holds position 0 of a compound index, the remaining
// key columns are offered, left to right, to untagged siblings whose
// relevance rating listed the same index as a non-first candidate. The
// walk stops at the first column with no taker, so assigned positions
// are always contiguous from zero.
//
// prefix carries the dotted path of enclosing array scopes so sibling
// paths compare against the catalog's fully qualified key columns.
func (e *PlanEnumerator) checkCompound(prefix string, node *expr.Expr) {
	if expr.IsLogical(node) && node.Type == expr.MatchAnd {
		e.compoundAnd(prefix, node)
	}

	if expr.ArrayUsesIndexOnChildren(node) && node.Path != "" {
		prefix += node.Path + "."
	}
	for _, child := range node.Children {
		e.checkCompound(prefix, child)
	}
}

// compoundAnd runs the completion over one conjunction's direct
// children.
func (e *PlanEnumerator) compoundAnd(prefix string, node *expr.Expr) {
	// Split the indexable children into those already holding a
	// compound index at its leading position and those still open to
	// an assignment.
	var assigned []*expr.Expr
	var unassigned []*expr.Expr
	for _, child := range node.Children {
		if !expr.CanUseIndexOnOwnField(child) {
			continue
		}
		if tag := child.IndexTagOn(); tag != nil {
			if e.cat.IsCompound(tag.Index) {
				assigned = append(assigned, child)
			}
			continue
		}
		if child.Tag() == nil {
			unassigned = append(unassigned, child)
		}
	}

	for _, owner := range assigned {
		ownerTag := owner.IndexTagOn()
		// A multikey index cannot guarantee its key columns hit the
		// same array element, so it never compounds.
		if e.cat.Multikey(ownerTag.Index) {
			continue
		}

		e.logger.Debug("compounding", "index", ownerTag.Index, "owner", prefix+owner.Path)

		kp := e.cat.KeyPattern(ownerTag.Index)
		for pos := 1; pos < len(kp); pos++ {
			if !e.assignColumn(prefix, unassigned, ownerTag.Index, pos, kp[pos]) {
				e.logger.Debug("failed to assign compound field", "index", ownerTag.Index, "column", kp[pos])
				break
			}
		}
	}
}

// assignColumn tags the first unassigned sibling that can serve column
// field of index at key position pos, and reports whether one was
// found.
func (e *PlanEnumerator) assignColumn(prefix string, unassigned []*expr.Expr, index, pos int, field string) bool {
	for _, cand := range unassigned {
		if prefix+cand.Path != field || cand.Tag() != nil {
			continue
		}
		if !containsID(e.memo.predicateFor(cand).notFirst, index) {
			continue
		}
		e.logger.Debug("setting pos", "index", index, "pos", pos, "path", prefix+cand.Path)
		cand.SetIndexTag(&expr.IndexTag{Index: index, Position: pos})
		return true
	}
	return false
}

func containsID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
