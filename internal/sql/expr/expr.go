package expr

import (
	"fmt"
	"strings"

	"github.com/golang/geo/s2"

	"github.com/dshills/QuantaPlan/internal/document"
)

// MatchType identifies the kind of a predicate tree node.
type MatchType int

const (
	// Logical nodes
	MatchAnd MatchType = iota
	MatchOr
	MatchNot

	// Leaf comparisons over a single field
	MatchEquals
	MatchNotEquals
	MatchLess
	MatchLessEquals
	MatchGreater
	MatchGreaterEquals
	MatchIn
	MatchExists
	MatchRegex
	MatchAll

	// Array-scoped nodes
	MatchElemObject
	MatchElemValue

	// Geo
	MatchGeoNear
)

func (t MatchType) String() string {
	switch t {
	case MatchAnd:
		return "AND"
	case MatchOr:
		return "OR"
	case MatchNot:
		return "NOT"
	case MatchEquals:
		return "EQ"
	case MatchNotEquals:
		return "NE"
	case MatchLess:
		return "LT"
	case MatchLessEquals:
		return "LTE"
	case MatchGreater:
		return "GT"
	case MatchGreaterEquals:
		return "GTE"
	case MatchIn:
		return "IN"
	case MatchExists:
		return "EXISTS"
	case MatchRegex:
		return "REGEX"
	case MatchAll:
		return "ALL"
	case MatchElemObject:
		return "ELEM_MATCH_OBJ"
	case MatchElemValue:
		return "ELEM_MATCH_VAL"
	case MatchGeoNear:
		return "GEO_NEAR"
	default:
		return fmt.Sprintf("Unknown(%d)", int(t))
	}
}

// GeoNearData carries the parameters of a geo-nearest predicate.
type GeoNearData struct {
	Center      s2.LatLng
	MaxDistance float64 // meters; 0 means unbounded
}

// Expr is a node in a predicate tree. Interior nodes are logical or
// array-scoped operators; leaves compare a dotted field path against a
// value. Each node carries a single mutable tag slot that holds a
// RelevantTag on input and an IndexTag on output.
type Expr struct {
	Type     MatchType
	Path     string
	Value    document.Value
	Geo      *GeoNearData
	Children []*Expr

	tag Tag
}

// NewAnd creates a conjunction node.
func NewAnd(children ...*Expr) *Expr {
	return &Expr{Type: MatchAnd, Children: children}
}

// NewOr creates a disjunction node.
func NewOr(children ...*Expr) *Expr {
	return &Expr{Type: MatchOr, Children: children}
}

// NewNot creates a negation node.
func NewNot(child *Expr) *Expr {
	return &Expr{Type: MatchNot, Children: []*Expr{child}}
}

// NewComparison creates a leaf comparing path against value.
func NewComparison(t MatchType, path string, value document.Value) *Expr {
	return &Expr{Type: t, Path: path, Value: value}
}

// NewGeoNear creates a geo-nearest leaf on path.
func NewGeoNear(path string, geo *GeoNearData) *Expr {
	return &Expr{Type: MatchGeoNear, Path: path, Geo: geo}
}

// NewElemObject creates an array-scoped node whose children are
// evaluated against elements of the array at path.
func NewElemObject(path string, children ...*Expr) *Expr {
	return &Expr{Type: MatchElemObject, Path: path, Children: children}
}

// NewElemValue creates an array-scoped leaf whose children compare
// array elements at path directly.
func NewElemValue(path string, children ...*Expr) *Expr {
	return &Expr{Type: MatchElemValue, Path: path, Children: children}
}

// NumChildren returns the number of child nodes.
func (e *Expr) NumChildren() int {
	return len(e.Children)
}

// Child returns the i-th child node.
func (e *Expr) Child(i int) *Expr {
	return e.Children[i]
}

// Clone returns a copy of the tree rooted at e. Node shells are fresh
// so the original can be re-tagged; values and geo data are shared.
// Tag slots are carried over onto the clone.
func (e *Expr) Clone() *Expr {
	c := &Expr{
		Type:  e.Type,
		Path:  e.Path,
		Value: e.Value,
		Geo:   e.Geo,
		tag:   e.tag,
	}
	if len(e.Children) > 0 {
		c.Children = make([]*Expr, len(e.Children))
		for i, child := range e.Children {
			c.Children[i] = child.Clone()
		}
	}
	return c
}

// String returns a debug representation of the tree.
func (e *Expr) String() string {
	var sb strings.Builder
	e.writeTo(&sb, 0)
	return sb.String()
}

func (e *Expr) writeTo(sb *strings.Builder, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(e.Type.String())
	if e.Path != "" {
		fmt.Fprintf(sb, " %s", e.Path)
	}
	switch e.Type {
	case MatchEquals, MatchNotEquals, MatchLess, MatchLessEquals,
		MatchGreater, MatchGreaterEquals, MatchIn, MatchRegex, MatchAll:
		fmt.Fprintf(sb, " %s", e.Value)
	case MatchGeoNear:
		if e.Geo != nil {
			fmt.Fprintf(sb, " center=%v maxDistance=%g", e.Geo.Center, e.Geo.MaxDistance)
		}
	}
	if e.tag != nil {
		fmt.Fprintf(sb, " [%s]", e.tag)
	}
	sb.WriteByte('\n')
	for _, child := range e.Children {
		child.writeTo(sb, depth+1)
	}
}
