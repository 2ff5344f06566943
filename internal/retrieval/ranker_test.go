package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hennyi-ai/sales-engine/internal/embedding"
)

// fixedIndex builds an Index directly from rows; descriptions are "doc0",
// "doc1", ...
func fixedIndex(rows [][]float32) *embedding.Index {
	descs := make([]string, len(rows))
	for i := range rows {
		descs[i] = "doc" + string(rune('0'+i))
	}
	dim := 0
	if len(rows) > 0 {
		dim = len(rows[0])
	}
	return &embedding.Index{Descriptions: descs, Matrix: rows, Dimension: dim}
}

func TestRank_SortsDescendingWithStableTies(t *testing.T) {
	ix := fixedIndex([][]float32{
		{0, 1},  // orthogonal to query
		{1, 0},  // identical direction, score 1
		{1, 0},  // tie with doc1; catalog order must hold
		{1, 1},  // ~0.707
	})

	sel, err := Rank([]float32{1, 0}, ix, Options{TopK: 4, Threshold: -1})
	require.NoError(t, err)
	require.Equal(t, 4, sel.Len())

	assert.Equal(t, []int{1, 2, 3, 0}, []int{
		sel.Items[0].Index, sel.Items[1].Index, sel.Items[2].Index, sel.Items[3].Index,
	})
	for i := 1; i < sel.Len(); i++ {
		assert.GreaterOrEqual(t, sel.Items[i-1].Score, sel.Items[i].Score)
	}
}

func TestRank_LenientPolicyIsUnionOfTopKAndThreshold(t *testing.T) {
	ix := fixedIndex([][]float32{
		{1, 0},   // 1.0
		{1, 1},   // ~0.707
		{0, 1},   // 0
		{-1, 0},  // -1
	})

	// TopK=1 but threshold 0.5 also admits the second item.
	sel, err := Rank([]float32{1, 0}, ix, Options{TopK: 1, Threshold: 0.5, Policy: PolicyLenient})
	require.NoError(t, err)

	assert.Equal(t, 2, sel.Len())
	assert.Equal(t, 0, sel.Items[0].Index)
	assert.Equal(t, 1, sel.Items[1].Index)
}

func TestRank_SelectionSizeBounds(t *testing.T) {
	ix := fixedIndex([][]float32{
		{1, 0}, {0, 1}, {-1, 0}, {0, -1},
	})

	sel, err := Rank([]float32{1, 0}, ix, Options{TopK: 3, Threshold: 0.99})
	require.NoError(t, err)

	// Lenient always returns at least min(k, n), at most n.
	assert.GreaterOrEqual(t, sel.Len(), 3)
	assert.LessOrEqual(t, sel.Len(), ix.Len())
}

func TestRank_TopKAndThresholdPolicies(t *testing.T) {
	ix := fixedIndex([][]float32{
		{1, 0}, {1, 1}, {0, 1},
	})
	query := []float32{1, 0}

	topk, err := Rank(query, ix, Options{TopK: 2, Threshold: 0.9, Policy: PolicyTopK})
	require.NoError(t, err)
	assert.Equal(t, 2, topk.Len())

	thr, err := Rank(query, ix, Options{TopK: 2, Threshold: 0.9, Policy: PolicyThreshold})
	require.NoError(t, err)
	assert.Equal(t, 1, thr.Len())
}

func TestRank_Idempotent(t *testing.T) {
	ix := fixedIndex([][]float32{
		{1, 0}, {1, 1}, {0, 1}, {1, 0},
	})
	query := []float32{0.6, 0.8}
	opts := Options{TopK: 2, Threshold: 0.3}

	first, err := Rank(query, ix, opts)
	require.NoError(t, err)
	second, err := Rank(query, ix, opts)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRank_DimensionMismatch(t *testing.T) {
	ix := fixedIndex([][]float32{{1, 0}})

	_, err := Rank([]float32{1, 0, 0}, ix, Options{TopK: 1})
	assert.ErrorIs(t, err, embedding.ErrDimensionMismatch)
}

func TestRank_EmptyIndex(t *testing.T) {
	sel, err := Rank([]float32{1, 0}, &embedding.Index{}, Options{TopK: 3})
	require.NoError(t, err)
	assert.Zero(t, sel.Len())
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 3}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-5, 0}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 1}), 1e-9)
}

func TestSelection_Excerpt(t *testing.T) {
	sel := Selection{Items: []RankedItem{
		{Description: "car A"},
		{Description: "car B"},
	}}
	assert.Equal(t, "car A\ncar B", sel.Excerpt())
}

func TestReferenceIndex(t *testing.T) {
	cases := []struct {
		query string
		index int
		ok    bool
	}{
		{"tell me about the first one", 0, true},
		{"First", 0, true},
		{"what about the second one?", 1, true},
		{"the third", 2, true},
		{"option 4 please", 3, true},
		{"fifth", 4, true},
		{"show me a cheap hybrid", 0, false},
	}

	for _, tc := range cases {
		idx, ok := ReferenceIndex(tc.query)
		assert.Equal(t, tc.ok, ok, tc.query)
		if tc.ok {
			assert.Equal(t, tc.index, idx, tc.query)
		}
	}
}
