package expr

// CanUseIndexOnOwnField reports whether a node is a leaf predicate that
// an index over the node's own field could serve directly.
func CanUseIndexOnOwnField(e *Expr) bool {
	if e.Path == "" {
		return false
	}
	switch e.Type {
	case MatchEquals, MatchLess, MatchLessEquals, MatchGreater,
		MatchGreaterEquals, MatchIn, MatchRegex, MatchAll,
		MatchElemValue, MatchGeoNear:
		return true
	default:
		return false
	}
}

// ArrayUsesIndexOnChildren reports whether a node is an array-scoped
// operator whose children are evaluated against a path prefix and may
// use indexes themselves.
func ArrayUsesIndexOnChildren(e *Expr) bool {
	return e.Type == MatchElemObject
}

// IsLogical reports whether a node is a generic logical operator.
func IsLogical(e *Expr) bool {
	switch e.Type {
	case MatchAnd, MatchOr, MatchNot:
		return true
	default:
		return false
	}
}
