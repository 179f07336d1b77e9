package enumerator

import (
	"fmt"
	"strings"

	"github.com/dshills/QuantaPlan/internal/errors"
	"github.com/dshills/QuantaPlan/internal/sql/expr"
)

// memoEntry is one entry in the enumeration memo. Exactly one of the
// three variants backs each entry: a predicate over a single field, a
// choice among conjunction options, or the all-children requirement of
// a disjunction.
type memoEntry interface {
	fmt.Stringer
	memoNode()
}

// predicateEntry memoizes a leaf predicate indexable on its own field.
// first and notFirst are moved in from the leaf's relevance tag.
type predicateEntry struct {
	expr     *expr.Expr
	first    []int
	notFirst []int
}

func (p *predicateEntry) memoNode() {}

func (p *predicateEntry) String() string {
	return fmt.Sprintf("predicate, first indices: %s, notFirst indices: %s, pred: %s",
		formatIDs(p.first), formatIDs(p.notFirst), strings.TrimRight(p.expr.String(), "\n"))
}

// andChoiceEntry memoizes a conjunction (or array-scoped node) as a
// list of options; each option is an ordered list of child memo ids.
type andChoiceEntry struct {
	subnodes [][]int
}

func (a *andChoiceEntry) memoNode() {}

func (a *andChoiceEntry) String() string {
	parts := make([]string, len(a.subnodes))
	for i, option := range a.subnodes {
		parts[i] = formatIDs(option)
	}
	return "ONE OF: [" + strings.Join(parts, ", ") + "]"
}

// orAllEntry memoizes a disjunction: one child memo id per memoized
// child, all of which must be tagged for any plan.
type orAllEntry struct {
	subnodes []int
}

func (o *orAllEntry) memoNode() {}

func (o *orAllEntry) String() string {
	return "ALL OF: " + formatIDs(o.subnodes)
}

func formatIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// memo is a dense arena of memo entries plus the reverse map from node
// identity to memo id. Ids are assigned contiguously from zero in the
// order entries are added, so cross-entry references always point at
// lower-numbered entries.
type memo struct {
	entries []memoEntry
	ids     map[*expr.Expr]int
}

func newMemo() *memo {
	return &memo{ids: make(map[*expr.Expr]int)}
}

// add appends an entry for node and returns its fresh id.
func (m *memo) add(node *expr.Expr, entry memoEntry) int {
	if _, seen := m.ids[node]; seen {
		panic(errors.InternalErrorf("node memoized twice: %s", node))
	}
	id := len(m.entries)
	m.entries = append(m.entries, entry)
	m.ids[node] = id
	return id
}

// id returns the memo id registered for node.
func (m *memo) id(node *expr.Expr) (int, bool) {
	id, ok := m.ids[node]
	return id, ok
}

// entry returns the memo entry with the given id.
func (m *memo) entry(id int) memoEntry {
	if id < 0 || id >= len(m.entries) {
		panic(errors.InternalErrorf("memo id %d out of range [0, %d)", id, len(m.entries)))
	}
	return m.entries[id]
}

// len returns the number of memo entries.
func (m *memo) len() int {
	return len(m.entries)
}

// predicateFor returns the predicate entry memoized for a leaf node,
// checking the entry's back-reference.
func (m *memo) predicateFor(node *expr.Expr) *predicateEntry {
	id, ok := m.id(node)
	if !ok {
		panic(errors.InternalErrorf("no memo entry for node: %s", node))
	}
	pred, ok := m.entry(id).(*predicateEntry)
	if !ok {
		panic(errors.InternalErrorf("memo entry %d is not a predicate", id))
	}
	if pred.expr != node {
		panic(errors.InternalErrorf("memo entry %d does not own its node", id))
	}
	return pred
}
