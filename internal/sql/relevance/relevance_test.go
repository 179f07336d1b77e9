package relevance

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

func relevantTag(t *testing.T, node *expr.Expr) *expr.RelevantTag {
	t.Helper()
	rt, ok := node.Tag().(*expr.RelevantTag)
	require.True(t, ok, "node %s has no relevance tag", node)
	return rt
}

func TestRateFirstAndNotFirst(t *testing.T) {
	cat := mustCatalog(t,
		catalog.IndexEntry{Name: "a_1", KeyPattern: []string{"a"}},
		catalog.IndexEntry{Name: "a_1_b_1", KeyPattern: []string{"a", "b"}},
		catalog.IndexEntry{Name: "c_1_a_1", KeyPattern: []string{"c", "a"}},
	)

	a := expr.NewComparison(expr.MatchEquals, "a", document.NewValue(1))
	b := expr.NewComparison(expr.MatchGreater, "b", document.NewValue(2))
	root := expr.NewAnd(a, b)
	RateIndices(root, cat)

	at := relevantTag(t, a)
	assert.Equal(t, []int{0, 1}, at.First)
	assert.Equal(t, []int{2}, at.NotFirst)

	bt := relevantTag(t, b)
	assert.Empty(t, bt.First)
	assert.Equal(t, []int{1}, bt.NotFirst)

	assert.Nil(t, root.Tag(), "logical nodes are never rated")
}

func TestRateUnservableLeafLeftUntagged(t *testing.T) {
	cat := mustCatalog(t, catalog.IndexEntry{Name: "a_1", KeyPattern: []string{"a"}})
	z := expr.NewComparison(expr.MatchEquals, "z", document.NewValue(1))
	RateIndices(z, cat)
	assert.Nil(t, z.Tag())
}

func TestRateGeoNear(t *testing.T) {
	cat := mustCatalog(t,
		catalog.IndexEntry{Name: "loc_btree", KeyPattern: []string{"loc"}},
		catalog.IndexEntry{Name: "loc_geo", KeyPattern: []string{"loc"}, Type: catalog.GeoIndex},
		catalog.IndexEntry{Name: "a_1_loc_geo", KeyPattern: []string{"a", "loc"}, Type: catalog.GeoIndex},
	)

	geo := expr.NewGeoNear("loc", &expr.GeoNearData{})
	RateIndices(geo, cat)

	gt := relevantTag(t, geo)
	assert.Equal(t, []int{1}, gt.First, "only the geo index with loc leading qualifies")
	assert.Empty(t, gt.NotFirst, "geo-nearest never rates as a non-first column")
}

func TestRateHashIndexEqualityOnly(t *testing.T) {
	cat := mustCatalog(t, catalog.IndexEntry{Name: "a_hash", KeyPattern: []string{"a"}, Type: catalog.HashIndex})

	eq := expr.NewComparison(expr.MatchEquals, "a", document.NewValue(1))
	rng := expr.NewComparison(expr.MatchGreater, "a", document.NewValue(1))
	RateIndices(expr.NewAnd(eq, rng), cat)

	assert.Equal(t, []int{0}, relevantTag(t, eq).First)
	assert.Nil(t, rng.Tag(), "range predicates cannot use a hash index")
}

func TestRateElemMatchPrefix(t *testing.T) {
	cat := mustCatalog(t,
		catalog.IndexEntry{Name: "arr_x_1", KeyPattern: []string{"arr.x"}, Multikey: true},
		catalog.IndexEntry{Name: "x_1", KeyPattern: []string{"x"}},
	)

	x := expr.NewComparison(expr.MatchEquals, "x", document.NewValue(1))
	root := expr.NewElemObject("arr", x)
	RateIndices(root, cat)

	xt := relevantTag(t, x)
	assert.Equal(t, []int{0}, xt.First, "path is qualified by the enclosing array scope")
}

func TestRateDeterministicOrder(t *testing.T) {
	cat := mustCatalog(t,
		catalog.IndexEntry{Name: "i0", KeyPattern: []string{"a"}},
		catalog.IndexEntry{Name: "i1", KeyPattern: []string{"a", "b"}},
		catalog.IndexEntry{Name: "i2", KeyPattern: []string{"a", "c"}},
	)
	a := expr.NewComparison(expr.MatchEquals, "a", document.NewValue(1))
	RateIndices(a, cat)
	assert.Equal(t, []int{0, 1, 2}, relevantTag(t, a).First)
}
