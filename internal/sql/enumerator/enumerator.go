// Package enumerator produces index-assignment plans for a predicate
// tree: a labelling of indexable leaves with "use index I at key
// position P", chosen against a catalog of available indexes. The
// tree's leaves must carry relevance tags (see the relevance package)
// before enumeration.
package enumerator

import (
	"github.com/dshills/QuantaPlan/internal/catalog"
	"github.com/dshills/QuantaPlan/internal/errors"
	"github.com/dshills/QuantaPlan/internal/log"
	"github.com/dshills/QuantaPlan/internal/sql/expr"
)

// PlanEnumerator walks a relevance-tagged predicate tree, memoizes the
// enumeration choices for every node, and yields tagged clones of the
// tree, one per plan. The current enumeration policy yields a single
// plan (choice zero everywhere, geo-nearest options first).
//
// An enumerator borrows the tree and the catalog for its lifetime and
// is not safe for concurrent use; plan different queries with distinct
// instances.
type PlanEnumerator struct {
	root *expr.Expr
	cat  *catalog.Catalog

	memo *memo
	// cur[id] is the current choice for memo id: an index into first
	// for predicate entries and into the options list for and-choice
	// entries. Unused for or-all entries.
	cur []int

	done   bool
	logger log.Logger
}

// New creates an enumerator over root against the given catalog.
func New(root *expr.Expr, cat *catalog.Catalog) *PlanEnumerator {
	return &PlanEnumerator{
		root:   root,
		cat:    cat,
		memo:   newMemo(),
		logger: log.Default().With("component", "enumerator"),
	}
}

// SetLogger replaces the enumerator's logger.
func (e *PlanEnumerator) SetLogger(logger log.Logger) {
	e.logger = logger
}

// Init builds the memo from the tagged tree, clears the relevance tags,
// and stages the first plan's index tags on the stored tree. Failure is
// currently unreachable; the error return is the seam for future
// enumeration policies.
func (e *PlanEnumerator) Init() error {
	e.logger.Debug("enumerator received root", "expr", e.root.String())

	// Fill out the memo from the tagged root.
	e.done = !e.prepMemo(e.root)

	// Dump the relevance tags. They are replaced with index tags.
	e.root.ResetTags()

	for id := 0; id < e.memo.len(); id++ {
		e.logger.Debug("memo entry", "id", id, "entry", e.memo.entry(id).String())
	}

	if !e.done {
		rootID, ok := e.memo.id(e.root)
		if !ok {
			panic(errors.InternalErrorf("indexable root was not memoized"))
		}
		e.tagMemo(rootID)
		e.checkCompound("", e.root)
	}

	return nil
}

// GetNext returns the next tagged plan tree, or false when enumeration
// is exhausted. The returned tree is a clone; the stored tree is reset
// so the enumerator could re-tag it for a further plan.
func (e *PlanEnumerator) GetNext() (*expr.Expr, bool) {
	if e.done {
		return nil, false
	}
	tree := e.root.Clone()
	e.root.ResetTags()
	e.done = true
	return tree, true
}

// prepMemo builds the memo entry for node and its descendants, returns
// whether node is indexable, and registers the node's fresh memo id.
// Nodes outside the three classifications are neither memoized nor
// indexable.
func (e *PlanEnumerator) prepMemo(node *expr.Expr) bool {
	switch {
	case expr.ArrayUsesIndexOnChildren(node):
		// Each indexable child yields a singleton option.
		entry := &andChoiceEntry{}
		for _, child := range node.Children {
			if e.prepMemo(child) {
				childID, ok := e.memo.id(child)
				if !ok {
					panic(errors.InternalErrorf("indexable child was not memoized"))
				}
				entry.subnodes = append(entry.subnodes, []int{childID})
			}
		}
		e.newMemoID(node, entry)
		return len(entry.subnodes) > 0

	case expr.CanUseIndexOnOwnField(node):
		pred := &predicateEntry{expr: node}
		if rt := node.TakeRelevantTag(); rt != nil {
			pred.first = rt.First
			pred.notFirst = rt.NotFirst
		}
		e.newMemoID(node, pred)
		// There is no guarantee any notFirst index is usable, so a
		// node only counts as indexed when it has first indices.
		return len(pred.first) > 0

	case expr.IsLogical(node):
		switch node.Type {
		case expr.MatchOr:
			// For an OR to be indexed all its children must be indexed.
			indexed := true
			for _, child := range node.Children {
				if !e.prepMemo(child) {
					indexed = false
				}
			}
			entry := &orAllEntry{}
			for _, child := range node.Children {
				childID, ok := e.memo.id(child)
				if !ok {
					// Unclassified children are not memoized and have
					// already left the OR unindexed.
					continue
				}
				entry.subnodes = append(entry.subnodes, childID)
			}
			e.newMemoID(node, entry)
			return indexed

		case expr.MatchAnd:
			return e.prepAnd(node)

		default:
			// Negations take no part in index assignment.
			return false
		}
	}
	return false
}

// prepAnd memoizes a conjunction. Only the size-1 members of the power
// set of indexable children are explored; exhaustive enumeration would
// also place every size-k subset in the memo.
func (e *PlanEnumerator) prepAnd(node *expr.Expr) bool {
	// If there is a geo-nearest child, its option is moved to the
	// front so the one plan enumerated serves it with its index.
	geoNearChild := -1

	entry := &andChoiceEntry{}
	for _, child := range node.Children {
		// An AND piggybacks on whichever children have indices.
		if !e.prepMemo(child) {
			continue
		}
		childID, ok := e.memo.id(child)
		if !ok {
			panic(errors.InternalErrorf("indexable child was not memoized"))
		}
		entry.subnodes = append(entry.subnodes, []int{childID})

		if pred, isPred := e.memo.entry(childID).(*predicateEntry); isPred {
			if pred.expr.Type == expr.MatchGeoNear {
				geoNearChild = len(entry.subnodes) - 1
			}
		}
	}

	if geoNearChild > 0 {
		entry.subnodes[0], entry.subnodes[geoNearChild] = entry.subnodes[geoNearChild], entry.subnodes[0]
	}

	e.newMemoID(node, entry)
	return len(entry.subnodes) > 0
}

// newMemoID registers node's memo entry and initializes its cursor
// slot to choice zero.
func (e *PlanEnumerator) newMemoID(node *expr.Expr, entry memoEntry) int {
	id := e.memo.add(node, entry)
	e.cur = append(e.cur, 0)
	return id
}

// tagMemo attaches index tags to every leaf reachable from memo id
// under the current cursor.
func (e *PlanEnumerator) tagMemo(id int) {
	switch entry := e.memo.entry(id).(type) {
	case *predicateEntry:
		if entry.expr.Tag() != nil {
			panic(errors.InternalErrorf("tagging an already-tagged predicate (memo id %d)", id))
		}
		// There may be no indices assignable. That's OK.
		if len(entry.first) > 0 {
			// Only first indices are assigned here. Using a notFirst
			// index requires a compound assignment, which only an
			// enclosing AND can set up.
			if e.cur[id] >= len(entry.first) {
				panic(errors.InternalErrorf("cursor %d out of bounds for memo id %d", e.cur[id], id))
			}
			entry.expr.SetIndexTag(&expr.IndexTag{Index: entry.first[e.cur[id]], Position: 0})
		}

	case *orAllEntry:
		for _, sub := range entry.subnodes {
			e.tagMemo(sub)
		}

	case *andChoiceEntry:
		if e.cur[id] >= len(entry.subnodes) {
			panic(errors.InternalErrorf("cursor %d out of bounds for memo id %d", e.cur[id], id))
		}
		for _, sub := range entry.subnodes[e.cur[id]] {
			e.tagMemo(sub)
		}
	}
}

// nextMemo advances the choice at memo id for multi-plan enumeration.
// The enumeration policy beyond the first plan is unspecified, so the
// seam always reports exhausted.
func (e *PlanEnumerator) nextMemo(id int) bool {
	return false
}
