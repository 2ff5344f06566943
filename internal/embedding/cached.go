package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/hennyi-ai/sales-engine/internal/cache"
	"github.com/hennyi-ai/sales-engine/internal/observability"
)

// CachedEmbedder memoises embeddings in a cache.Client. Query texts repeat
// constantly in a chat session, and the upstream call is the slow part.
// Cache failures are logged and ignored; they never fail an Embed call.
// Keys are namespaced by model so a model swap never serves vectors
// produced by a different embedder.
type CachedEmbedder struct {
	inner  Embedder
	cache  cache.Client
	model  string
	ttl    time.Duration
	logger *observability.Logger
}

// NewCachedEmbedder wraps an embedder with a cache. The model name becomes
// part of every cache key.
func NewCachedEmbedder(inner Embedder, c cache.Client, model string, ttl time.Duration, logger *observability.Logger) *CachedEmbedder {
	if logger == nil {
		logger = observability.Nop()
	}
	return &CachedEmbedder{
		inner:  inner,
		cache:  c,
		model:  model,
		ttl:    ttl,
		logger: logger.WithComponent("embedding-cache"),
	}
}

// Embed returns cached vectors where available and embeds only the misses.
func (e *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int

	for i, text := range texts {
		vec, err := e.lookup(ctx, text)
		if err == nil {
			out[i] = vec
			continue
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			e.logger.Warn().Err(err).Msg("cache lookup failed")
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := e.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}

	for j, vec := range vecs {
		out[missIdx[j]] = vec
		if err := e.store(ctx, missTexts[j], vec); err != nil {
			e.logger.Warn().Err(err).Msg("cache store failed")
		}
	}
	return out, nil
}

func (e *CachedEmbedder) lookup(ctx context.Context, text string) ([]float32, error) {
	data, err := e.cache.Get(ctx, cacheKey(e.model, text))
	if err != nil {
		return nil, err
	}
	var vec []float32
	if err := json.Unmarshal(data, &vec); err != nil {
		return nil, err
	}
	return vec, nil
}

func (e *CachedEmbedder) store(ctx context.Context, text string, vec []float32) error {
	data, err := json.Marshal(vec)
	if err != nil {
		return err
	}
	return e.cache.Set(ctx, cacheKey(e.model, text), data, e.ttl)
}

func cacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return "embed:" + model + ":" + hex.EncodeToString(sum[:])
}
