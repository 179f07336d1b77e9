package enumerator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/QuantaPlan/internal/catalog"
	"github.com/dshills/QuantaPlan/internal/document"
	"github.com/dshills/QuantaPlan/internal/sql/expr"
)

func mustCatalog(t *testing.T, entries ...catalog.IndexEntry) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.NewCatalog(entries...)
	require.NoError(t, err)
	return cat
}

// leaf builds an equality predicate carrying the given relevance sets.
// Leaves with empty sets stay untagged, matching what the rater does
// for unservable predicates.
func leaf(path string, first, notFirst []int) *expr.Expr {
	n := expr.NewComparison(expr.MatchEquals, path, document.NewValue(1))
	if len(first) > 0 || len(notFirst) > 0 {
		n.SetRelevantTag(&expr.RelevantTag{First: first, NotFirst: notFirst})
	}
	return n
}

func firstPlan(t *testing.T, root *expr.Expr, cat *catalog.Catalog) (*expr.Expr, bool) {
	t.Helper()
	e := New(root, cat)
	require.NoError(t, e.Init())
	return e.GetNext()
}

func indexTag(t *testing.T, node *expr.Expr) *expr.IndexTag {
	t.Helper()
	tag := node.IndexTagOn()
	require.NotNil(t, tag, "node %s carries no index tag", node)
	return tag
}

func TestSingleLeafPlan(t *testing.T) {
	cat := mustCatalog(t, catalog.IndexEntry{Name: "a_1", KeyPattern: []string{"a"}})
	a := leaf("a", []int{0}, nil)

	plan, ok := firstPlan(t, a, cat)
	require.True(t, ok)
	tag := indexTag(t, plan)
	assert.Equal(t, 0, tag.Index)
	assert.Equal(t, 0, tag.Position)
}

func TestUnindexableLeafNoPlan(t *testing.T) {
	cat := mustCatalog(t, catalog.IndexEntry{Name: "a_1", KeyPattern: []string{"a"}})
	z := leaf("z", nil, nil)

	plan, ok := firstPlan(t, z, cat)
	assert.False(t, ok)
	assert.Nil(t, plan)
}

func TestNotFirstAloneDoesNotQualify(t *testing.T) {
	cat := mustCatalog(t, catalog.IndexEntry{Name: "a_1_b_1", KeyPattern: []string{"a", "b"}})
	b := leaf("b", nil, []int{0})

	_, ok := firstPlan(t, b, cat)
	assert.False(t, ok, "a leaf with only notFirst candidates has no plan of its own")
}

func TestCompoundCompletion(t *testing.T) {
	cat := mustCatalog(t, catalog.IndexEntry{Name: "a_1_b_1", KeyPattern: []string{"a", "b"}})
	a := leaf("a", []int{0}, nil)
	b := leaf("b", nil, []int{0})

	plan, ok := firstPlan(t, expr.NewAnd(a, b), cat)
	require.True(t, ok)

	at := indexTag(t, plan.Child(0))
	assert.Equal(t, 0, at.Index)
	assert.Equal(t, 0, at.Position)

	bt := indexTag(t, plan.Child(1))
	assert.Equal(t, 0, bt.Index)
	assert.Equal(t, 1, bt.Position)
}

func TestMultikeyCompoundSkipped(t *testing.T) {
	cat := mustCatalog(t, catalog.IndexEntry{Name: "a_1_b_1", KeyPattern: []string{"a", "b"}, Multikey: true})
	a := leaf("a", []int{0}, nil)
	b := leaf("b", nil, []int{0})

	plan, ok := firstPlan(t, expr.NewAnd(a, b), cat)
	require.True(t, ok)

	at := indexTag(t, plan.Child(0))
	assert.Equal(t, 0, at.Position)
	assert.Nil(t, plan.Child(1).Tag(), "multikey indexes never compound")
}

func TestNoCompletionWithoutNotFirst(t *testing.T) {
	cat := mustCatalog(t, catalog.IndexEntry{Name: "a_1_b_1", KeyPattern: []string{"a", "b"}})
	a := leaf("a", []int{0}, nil)
	c := leaf("c", nil, nil)

	plan, ok := firstPlan(t, expr.NewAnd(a, c), cat)
	require.True(t, ok)

	assert.Equal(t, 0, indexTag(t, plan.Child(0)).Position)
	assert.Nil(t, plan.Child(1).Tag())
}

func TestCompoundCompletionStopsAtGap(t *testing.T) {
	cat := mustCatalog(t, catalog.IndexEntry{Name: "abc", KeyPattern: []string{"a", "b", "c"}})
	a := leaf("a", []int{0}, nil)
	c := leaf("c", nil, []int{0})

	plan, ok := firstPlan(t, expr.NewAnd(a, c), cat)
	require.True(t, ok)

	assert.Equal(t, 0, indexTag(t, plan.Child(0)).Position)
	assert.Nil(t, plan.Child(1).Tag(), "column b is unfilled, so c must stay unassigned")
}

func TestCompoundCompletionThreeColumns(t *testing.T) {
	cat := mustCatalog(t, catalog.IndexEntry{Name: "abc", KeyPattern: []string{"a", "b", "c"}})
	a := leaf("a", []int{0}, nil)
	b := leaf("b", nil, []int{0})
	c := leaf("c", nil, []int{0})

	plan, ok := firstPlan(t, expr.NewAnd(a, c, b), cat)
	require.True(t, ok)

	assert.Equal(t, 0, indexTag(t, plan.Child(0)).Position)
	assert.Equal(t, 2, indexTag(t, plan.Child(1)).Position, "child order does not dictate key position")
	assert.Equal(t, 1, indexTag(t, plan.Child(2)).Position)
}

func TestCompoundCandidateMustListIndex(t *testing.T) {
	cat := mustCatalog(t,
		catalog.IndexEntry{Name: "a_1_b_1", KeyPattern: []string{"a", "b"}},
		catalog.IndexEntry{Name: "x_1_b_1", KeyPattern: []string{"x", "b"}},
	)
	a := leaf("a", []int{0}, nil)
	// b is only relevant to the other compound index.
	b := leaf("b", nil, []int{1})

	plan, ok := firstPlan(t, expr.NewAnd(a, b), cat)
	require.True(t, ok)
	assert.Nil(t, plan.Child(1).Tag(), "notFirst must name the owning index")
}

func TestOrAllChildrenTagged(t *testing.T) {
	cat := mustCatalog(t,
		catalog.IndexEntry{Name: "a_1", KeyPattern: []string{"a"}},
		catalog.IndexEntry{Name: "b_1", KeyPattern: []string{"b"}},
	)
	a := leaf("a", []int{0}, nil)
	b := leaf("b", []int{1}, nil)

	plan, ok := firstPlan(t, expr.NewOr(a, b), cat)
	require.True(t, ok)

	at := indexTag(t, plan.Child(0))
	assert.Equal(t, 0, at.Index)
	assert.Equal(t, 0, at.Position)

	bt := indexTag(t, plan.Child(1))
	assert.Equal(t, 1, bt.Index)
	assert.Equal(t, 0, bt.Position)
}

func TestOrWithUnindexableChildHasNoPlan(t *testing.T) {
	cat := mustCatalog(t, catalog.IndexEntry{Name: "a_1", KeyPattern: []string{"a"}})
	a := leaf("a", []int{0}, nil)
	b := leaf("b", nil, nil)

	_, ok := firstPlan(t, expr.NewOr(a, b), cat)
	assert.False(t, ok, "one unindexed branch forces a scan that dominates the whole OR")
}

func TestGeoNearChosenFirst(t *testing.T) {
	cat := mustCatalog(t,
		catalog.IndexEntry{Name: "a_1", KeyPattern: []string{"a"}},
		catalog.IndexEntry{Name: "loc_geo", KeyPattern: []string{"loc"}, Type: catalog.GeoIndex},
	)
	a := leaf("a", []int{0}, nil)
	geo := expr.NewGeoNear("loc", &expr.GeoNearData{})
	geo.SetRelevantTag(&expr.RelevantTag{First: []int{1}})

	plan, ok := firstPlan(t, expr.NewAnd(a, geo), cat)
	require.True(t, ok)

	gt := indexTag(t, plan.Child(1))
	assert.Equal(t, 1, gt.Index)
	assert.Equal(t, 0, gt.Position)
	// Only option zero is chosen under the size-1 policy, so the
	// equality leaf goes unserved in the geo plan.
	assert.Nil(t, plan.Child(0).Tag())
}

func TestGetNextExhaustsAfterOnePlan(t *testing.T) {
	cat := mustCatalog(t, catalog.IndexEntry{Name: "a_1", KeyPattern: []string{"a"}})
	a := leaf("a", []int{0}, nil)

	e := New(a, cat)
	require.NoError(t, e.Init())

	_, ok := e.GetNext()
	require.True(t, ok)
	_, ok = e.GetNext()
	assert.False(t, ok)
	_, ok = e.GetNext()
	assert.False(t, ok)
}

func TestGetNextReturnsCloneAndResetsOriginal(t *testing.T) {
	cat := mustCatalog(t, catalog.IndexEntry{Name: "a_1", KeyPattern: []string{"a"}})
	a := leaf("a", []int{0}, nil)

	e := New(a, cat)
	require.NoError(t, e.Init())

	plan, ok := e.GetNext()
	require.True(t, ok)
	assert.NotSame(t, a, plan)
	assert.NotNil(t, plan.Tag())
	assert.Nil(t, a.Tag(), "the stored tree is reset once its tags are cloned out")
}

func TestNestedAndInsideOr(t *testing.T) {
	cat := mustCatalog(t,
		catalog.IndexEntry{Name: "a_1_b_1", KeyPattern: []string{"a", "b"}},
		catalog.IndexEntry{Name: "c_1", KeyPattern: []string{"c"}},
	)
	a := leaf("a", []int{0}, nil)
	b := leaf("b", nil, []int{0})
	c := leaf("c", []int{1}, nil)

	plan, ok := firstPlan(t, expr.NewOr(expr.NewAnd(a, b), c), cat)
	require.True(t, ok)

	and := plan.Child(0)
	assert.Equal(t, 0, indexTag(t, and.Child(0)).Position)
	assert.Equal(t, 1, indexTag(t, and.Child(1)).Position)
	assert.Equal(t, 1, indexTag(t, plan.Child(1)).Index)
}

func TestElemMatchPrefixInCompletion(t *testing.T) {
	cat := mustCatalog(t, catalog.IndexEntry{Name: "arr", KeyPattern: []string{"arr.x", "arr.y"}})
	x := leaf("x", []int{0}, nil)
	y := leaf("y", nil, []int{0})
	root := expr.NewElemObject("arr", expr.NewAnd(x, y))

	plan, ok := firstPlan(t, root, cat)
	require.True(t, ok)

	and := plan.Child(0)
	assert.Equal(t, 0, indexTag(t, and.Child(0)).Position)
	assert.Equal(t, 1, indexTag(t, and.Child(1)).Position, "the array scope qualifies sibling paths")
}

func TestNotSubtreeIgnored(t *testing.T) {
	cat := mustCatalog(t, catalog.IndexEntry{Name: "a_1", KeyPattern: []string{"a"}})
	a := leaf("a", []int{0}, nil)
	not := expr.NewNot(leaf("b", nil, nil))

	plan, ok := firstPlan(t, expr.NewAnd(a, not), cat)
	require.True(t, ok)
	assert.NotNil(t, plan.Child(0).Tag())
	assert.Nil(t, plan.Child(1).Tag())
}

func TestEmptyConjunctionNoPlan(t *testing.T) {
	cat := mustCatalog(t, catalog.IndexEntry{Name: "a_1", KeyPattern: []string{"a"}})
	_, ok := firstPlan(t, expr.NewAnd(), cat)
	assert.False(t, ok)
}
