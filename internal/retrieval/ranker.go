// Package retrieval scores queries against the catalog index and selects
// the vehicles worth showing the customer.
package retrieval

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/hennyi-ai/sales-engine/internal/embedding"
)

// Policy names how TopK and ScoreThreshold combine into a selection.
type Policy string

const (
	// PolicyLenient keeps every item that is within the first K ranked OR
	// scores at or above the threshold: the union of both rules, capped
	// only by catalog size. Recall-biased; the default.
	PolicyLenient Policy = "lenient"
	// PolicyTopK keeps exactly the first K ranked items.
	PolicyTopK Policy = "topk"
	// PolicyThreshold keeps only items at or above the threshold.
	PolicyThreshold Policy = "threshold"
)

// Options configures a ranking call.
type Options struct {
	TopK      int
	Threshold float64
	Policy    Policy
}

// RankedItem is one selected catalog entry with its similarity score.
type RankedItem struct {
	// Index is the item's position in the catalog description list.
	Index int
	// Rank is the item's position in this selection, starting at 0.
	Rank        int
	Description string
	Score       float64
}

// Selection is an ordered set of ranked items for one query.
type Selection struct {
	Items []RankedItem
}

// Len returns the number of selected items.
func (s Selection) Len() int { return len(s.Items) }

// Item returns the item at the given selection position.
func (s Selection) Item(i int) (RankedItem, bool) {
	if i < 0 || i >= len(s.Items) {
		return RankedItem{}, false
	}
	return s.Items[i], true
}

// Excerpt renders the selection as the catalog excerpt interpolated into
// the system prompt, one description per line.
func (s Selection) Excerpt() string {
	lines := make([]string, len(s.Items))
	for i, item := range s.Items {
		lines[i] = item.Description
	}
	return strings.Join(lines, "\n")
}

// Rank scores the query vector against every row of the index and selects
// items per the configured policy. Sorting is descending by score with
// ties broken by original catalog order, so a repeated call with the same
// inputs yields the same selection.
func Rank(query []float32, ix *embedding.Index, opts Options) (Selection, error) {
	if ix.Len() == 0 {
		return Selection{}, nil
	}
	if len(query) != ix.Dimension {
		return Selection{}, fmt.Errorf("%w: query has dimension %d, index has %d",
			embedding.ErrDimensionMismatch, len(query), ix.Dimension)
	}

	policy := opts.Policy
	if policy == "" {
		policy = PolicyLenient
	}

	scored := make([]RankedItem, ix.Len())
	for i, row := range ix.Matrix {
		scored[i] = RankedItem{
			Index:       i,
			Description: ix.Descriptions[i],
			Score:       Cosine(query, row),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	var items []RankedItem
	for rank, item := range scored {
		if !accepted(policy, rank, item.Score, opts) {
			continue
		}
		item.Rank = len(items)
		items = append(items, item)
	}

	return Selection{Items: items}, nil
}

func accepted(policy Policy, rank int, score float64, opts Options) bool {
	switch policy {
	case PolicyTopK:
		return rank < opts.TopK
	case PolicyThreshold:
		return score >= opts.Threshold
	default: // PolicyLenient
		return rank < opts.TopK || score >= opts.Threshold
	}
}

// Cosine returns the cosine similarity of two vectors, in [-1, 1].
// A zero vector yields 0.
func Cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
