package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hennyi-ai/sales-engine/internal/cache"
)

// fakeEmbedder hashes each text into a small deterministic vector and
// counts calls.
type fakeEmbedder struct {
	dim   int
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, f.dim)
		for j, r := range text {
			vec[j%f.dim] += float32(r % 13)
		}
		out[i] = vec
	}
	return out, nil
}

func TestBuild_AlignsMatrixWithDescriptions(t *testing.T) {
	descs := []string{"a", "b", "c", "d", "e"}
	emb := &fakeEmbedder{dim: 4}

	ix, err := Build(context.Background(), emb, descs, BuildOptions{BatchSize: 2})
	require.NoError(t, err)

	assert.Equal(t, len(descs), len(ix.Matrix))
	assert.Equal(t, len(descs), ix.Len())
	assert.Equal(t, 4, ix.Dimension)
	assert.Equal(t, 3, emb.calls, "two full batches plus the remainder")
}

func TestBuild_ReportsProgress(t *testing.T) {
	var seen [][2]int
	_, err := Build(context.Background(), &fakeEmbedder{dim: 2}, []string{"a", "b", "c"}, BuildOptions{
		BatchSize: 2,
		Progress:  func(done, total int) { seen = append(seen, [2]int{done, total}) },
	})
	require.NoError(t, err)

	assert.Equal(t, [][2]int{{2, 3}, {3, 3}}, seen)
}

func TestBuild_RepeatedRebuildsDoNotDrift(t *testing.T) {
	emb := &fakeEmbedder{dim: 3}
	descs := []string{"one", "two"}

	for i := 0; i < 5; i++ {
		ix, err := Build(context.Background(), emb, descs, BuildOptions{})
		require.NoError(t, err)
		assert.Equal(t, len(ix.Descriptions), len(ix.Matrix))
	}
}

func TestEmbedQuery_DimensionMismatchIsFatal(t *testing.T) {
	ix, err := Build(context.Background(), &fakeEmbedder{dim: 4}, []string{"a"}, BuildOptions{})
	require.NoError(t, err)

	// A different embedder dimension simulates a swapped model.
	_, err = ix.EmbedQuery(context.Background(), &fakeEmbedder{dim: 8}, "query")
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestCachedEmbedder_SecondCallHitsCache(t *testing.T) {
	emb := &fakeEmbedder{dim: 3}
	cached := NewCachedEmbedder(emb, cache.NewMemoryClient(16), "test-small", time.Minute, nil)
	ctx := context.Background()

	first, err := cached.Embed(ctx, []string{"cheap hybrid"})
	require.NoError(t, err)
	require.Equal(t, 1, emb.calls)

	second, err := cached.Embed(ctx, []string{"cheap hybrid"})
	require.NoError(t, err)

	assert.Equal(t, 1, emb.calls, "cache hit must not call the embedder")
	assert.Equal(t, first, second)
}

func TestCachedEmbedder_MixedHitsAndMisses(t *testing.T) {
	emb := &fakeEmbedder{dim: 3}
	cached := NewCachedEmbedder(emb, cache.NewMemoryClient(16), "test-small", time.Minute, nil)
	ctx := context.Background()

	_, err := cached.Embed(ctx, []string{"a"})
	require.NoError(t, err)

	out, err := cached.Embed(ctx, []string{"a", "b"})
	require.NoError(t, err)

	assert.Len(t, out, 2)
	assert.NotNil(t, out[0])
	assert.NotNil(t, out[1])
	assert.Equal(t, 2, emb.calls, "only the miss goes upstream")
}

func TestCachedEmbedder_KeysAreModelScoped(t *testing.T) {
	shared := cache.NewMemoryClient(16)
	ctx := context.Background()

	small := NewCachedEmbedder(&fakeEmbedder{dim: 3}, shared, "test-small", time.Minute, nil)
	_, err := small.Embed(ctx, []string{"cheap hybrid"})
	require.NoError(t, err)

	// Swapping the model behind the same cache must re-embed, not serve
	// the other model's vector.
	largeInner := &fakeEmbedder{dim: 4}
	large := NewCachedEmbedder(largeInner, shared, "test-large", time.Minute, nil)

	out, err := large.Embed(ctx, []string{"cheap hybrid"})
	require.NoError(t, err)

	assert.Equal(t, 1, largeInner.calls, "different model id means a cache miss")
	require.Len(t, out, 1)
	assert.Len(t, out[0], 4)
}

func TestClient_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		// Answer out of order to exercise reordering.
		resp := map[string]any{
			"data": []map[string]any{
				{"index": 1, "embedding": []float32{0, 1}},
				{"index": 0, "embedding": []float32{1, 0}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client, err := NewClient(ClientConfig{APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)

	out, err := client.Embed(context.Background(), []string{"first", "second"})
	require.NoError(t, err)

	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, out)
}

func TestClient_EmbedErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := NewClient(ClientConfig{APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Embed(context.Background(), []string{"x"})
	assert.Error(t, err)
}
