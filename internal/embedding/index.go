package embedding

import (
	"context"
	"errors"
	"fmt"
)

// ErrDimensionMismatch indicates the embedder produced a vector whose
// dimension does not match the index. That means the embedder was swapped
// without rebuilding, a configuration bug that is surfaced immediately.
var ErrDimensionMismatch = errors.New("embedding: dimension mismatch")

// Index pairs the catalog description list with its embedding matrix.
// Row i of the matrix is the embedding of description i; that alignment
// must never drift, so an Index is immutable once built and replaced
// wholesale on catalog reload.
type Index struct {
	Descriptions []string
	Matrix       [][]float32
	Dimension    int
}

// BuildOptions configures index construction.
type BuildOptions struct {
	// BatchSize bounds how many descriptions go to the embedder per call.
	BatchSize int
	// Progress, when set, is called after each batch with (done, total).
	Progress func(done, total int)
}

// Build embeds every description and returns the aligned index.
// Guarantees row count == description count and a uniform dimension.
func Build(ctx context.Context, embedder Embedder, descriptions []string, opts BuildOptions) (*Index, error) {
	batch := opts.BatchSize
	if batch <= 0 {
		batch = 100
	}

	matrix := make([][]float32, 0, len(descriptions))
	for start := 0; start < len(descriptions); start += batch {
		end := start + batch
		if end > len(descriptions) {
			end = len(descriptions)
		}

		vecs, err := embedder.Embed(ctx, descriptions[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch %d-%d: %w", start, end, err)
		}
		if len(vecs) != end-start {
			return nil, fmt.Errorf("embedder returned %d vectors for %d descriptions", len(vecs), end-start)
		}
		matrix = append(matrix, vecs...)

		if opts.Progress != nil {
			opts.Progress(end, len(descriptions))
		}
	}

	dim := 0
	for i, row := range matrix {
		if i == 0 {
			dim = len(row)
			continue
		}
		if len(row) != dim {
			return nil, fmt.Errorf("%w: row %d has dimension %d, expected %d",
				ErrDimensionMismatch, i, len(row), dim)
		}
	}

	return &Index{
		Descriptions: descriptions,
		Matrix:       matrix,
		Dimension:    dim,
	}, nil
}

// Len returns the number of indexed descriptions.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.Descriptions)
}

// EmbedQuery embeds a query with the same capability that built the index
// and verifies the dimension still matches.
func (ix *Index) EmbedQuery(ctx context.Context, embedder Embedder, text string) ([]float32, error) {
	vecs, err := embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for one query", len(vecs))
	}
	if len(vecs[0]) != ix.Dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d",
			ErrDimensionMismatch, len(vecs[0]), ix.Dimension)
	}
	return vecs[0], nil
}
