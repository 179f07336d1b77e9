package expr

import (
	"fmt"
	"strings"
)

// Tag is the annotation stored in a node's tag slot. A RelevantTag is
// attached by the relevance rater on input; an IndexTag replaces it on
// output of the plan enumerator.
type Tag interface {
	fmt.Stringer
	tagNode()
}

// RelevantTag lists the catalog indexes that could serve a leaf
// predicate: First holds ids usable as the leading key column,
// NotFirst ids usable only as a later column.
type RelevantTag struct {
	First    []int
	NotFirst []int
}

func (t *RelevantTag) tagNode() {}

func (t *RelevantTag) String() string {
	return fmt.Sprintf("relevant first=%s notFirst=%s", formatIDs(t.First), formatIDs(t.NotFirst))
}

// IndexTag records the index assignment for a leaf: use index Index at
// key column Position (0 for a leading-column use).
type IndexTag struct {
	Index    int
	Position int
}

func (t *IndexTag) tagNode() {}

func (t *IndexTag) String() string {
	return fmt.Sprintf("index=%d pos=%d", t.Index, t.Position)
}

func formatIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Tag returns the node's current tag, or nil.
func (e *Expr) Tag() Tag {
	return e.tag
}

// SetRelevantTag stores a relevance annotation on the node.
func (e *Expr) SetRelevantTag(t *RelevantTag) {
	e.tag = t
}

// TakeRelevantTag consumes and returns the node's relevance tag,
// leaving the slot empty. Returns nil if the slot holds no relevance
// tag.
func (e *Expr) TakeRelevantTag() *RelevantTag {
	if rt, ok := e.tag.(*RelevantTag); ok {
		e.tag = nil
		return rt
	}
	return nil
}

// SetIndexTag stores an index assignment on the node.
func (e *Expr) SetIndexTag(t *IndexTag) {
	e.tag = t
}

// IndexTagOn returns the node's index tag, or nil if the slot is empty
// or holds a relevance tag.
func (e *Expr) IndexTagOn() *IndexTag {
	if it, ok := e.tag.(*IndexTag); ok {
		return it
	}
	return nil
}

// ResetTag clears the node's tag slot.
func (e *Expr) ResetTag() {
	e.tag = nil
}

// ResetTags clears the tag slots of the whole subtree.
func (e *Expr) ResetTags() {
	e.tag = nil
	for _, child := range e.Children {
		child.ResetTags()
	}
}
