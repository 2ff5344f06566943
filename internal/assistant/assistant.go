// Package assistant orchestrates one customer turn: reference lookup,
// retrieval, prompt assembly, and completion.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/hennyi-ai/sales-engine/internal/catalog"
	"github.com/hennyi-ai/sales-engine/internal/chat"
	"github.com/hennyi-ai/sales-engine/internal/embedding"
	"github.com/hennyi-ai/sales-engine/internal/llm"
	"github.com/hennyi-ai/sales-engine/internal/observability"
	"github.com/hennyi-ai/sales-engine/internal/prompt"
	"github.com/hennyi-ai/sales-engine/internal/retrieval"
)

// retrievalFailureExcerpt replaces the catalog excerpt when embedding or
// ranking fails for a reason that is not a configuration bug. The
// conversation continues; the model is told retrieval broke.
const retrievalFailureExcerpt = "Error retrieving car information"

// InputCapturer obtains the customer's next utterance from an external
// source, such as a speech-to-text frontend. The assistant core never
// touches audio; it only consumes the resolved text.
type InputCapturer interface {
	Capture(ctx context.Context) (string, error)
}

// Options tunes the assistant's retrieval and conversation behavior.
type Options struct {
	TopK            int
	ScoreThreshold  float64
	Policy          retrieval.Policy
	MaxHistoryTurns int
	// BatchSize bounds descriptions per embedding call during catalog load.
	BatchSize int
	// Dimension, when set, is the vector width the embedding model is
	// expected to produce. A built index with any other width is rejected.
	Dimension int
}

// Assistant answers customer queries over the loaded catalog. The
// embedding index is swapped atomically on reload, so in-flight turns keep
// a consistent snapshot.
type Assistant struct {
	store    *catalog.Store
	embedder embedding.Embedder
	gateway  *llm.Gateway
	opts     Options
	logger   *observability.Logger

	index atomic.Pointer[embedding.Index]
}

// New returns an assistant with an empty catalog.
func New(embedder embedding.Embedder, gateway *llm.Gateway, opts Options, logger *observability.Logger) *Assistant {
	if logger == nil {
		logger = observability.Nop()
	}
	a := &Assistant{
		store:    catalog.NewStore(logger),
		embedder: embedder,
		gateway:  gateway,
		opts:     opts,
		logger:   logger.WithComponent("assistant"),
	}
	a.index.Store(&embedding.Index{})
	return a
}

// LoadCatalog describes the records, embeds the descriptions, and swaps the
// index in wholesale. Records that fail description are skipped; an empty
// surviving set returns catalog.ErrEmptyCatalog and leaves the previous
// index in place. Returns the number of vehicles loaded.
func (a *Assistant) LoadCatalog(ctx context.Context, records []catalog.Record, progress func(done, total int)) (int, error) {
	n, err := a.store.Load(records)
	if err != nil {
		return 0, err
	}

	ix, err := embedding.Build(ctx, a.embedder, a.store.Descriptions(), embedding.BuildOptions{
		BatchSize: a.opts.BatchSize,
		Progress:  progress,
	})
	if err != nil {
		return 0, fmt.Errorf("build catalog index: %w", err)
	}
	if a.opts.Dimension > 0 && ix.Dimension != a.opts.Dimension {
		return 0, fmt.Errorf("%w: model produced %d-dimensional vectors, configured for %d",
			embedding.ErrDimensionMismatch, ix.Dimension, a.opts.Dimension)
	}

	a.index.Store(ix)
	a.logger.Info().Int("vehicles", n).Int("dimension", ix.Dimension).Msg("catalog index rebuilt")
	return n, nil
}

// CatalogSize returns the number of vehicles in the active index.
func (a *Assistant) CatalogSize() int { return a.index.Load().Len() }

// NewSession starts a fresh conversation.
func (a *Assistant) NewSession() *chat.Session {
	return chat.NewSession(a.opts.MaxHistoryTurns)
}

// Respond handles one customer message and returns the assistant's reply.
// The error result is reserved for context cancellation and configuration
// bugs (embedding dimension mismatch); everything else degrades into reply
// text so the conversation continues.
func (a *Assistant) Respond(ctx context.Context, session *chat.Session, userText string) (string, error) {
	system, err := a.systemPrompt(ctx, session, userText)
	if err != nil {
		return "", err
	}

	reply, err := a.gateway.Reply(ctx, prompt.Messages(system, session.History, userText))
	if err != nil {
		return "", err
	}

	session.History.Append(chat.RoleUser, userText)
	session.History.Append(chat.RoleAssistant, reply)
	return reply, nil
}

// RespondCaptured obtains the customer's next message from the capturer
// and answers it. Returns the resolved text alongside the reply so the
// caller can display what was heard.
func (a *Assistant) RespondCaptured(ctx context.Context, session *chat.Session, capturer InputCapturer) (string, string, error) {
	userText, err := capturer.Capture(ctx)
	if err != nil {
		return "", "", fmt.Errorf("capture input: %w", err)
	}
	reply, err := a.Respond(ctx, session, userText)
	if err != nil {
		return userText, "", err
	}
	return userText, reply, nil
}

// systemPrompt resolves the system message for this turn. Reference
// queries with a cached selection bypass retrieval entirely; everything
// else goes through embed-and-rank against the current index snapshot.
func (a *Assistant) systemPrompt(ctx context.Context, session *chat.Session, userText string) (string, error) {
	if idx, ok := retrieval.ReferenceIndex(userText); ok {
		if item, found := session.CachedItem(idx); found {
			a.logger.Debug().Str("session_id", session.ID).Int("reference", idx).Msg("reference query served from cached selection")
			return prompt.ReferencePrompt(item.Description), nil
		}
		// No prior selection, or the ordinal is past it: treat as a
		// regular query.
	}

	ix := a.index.Load()
	if ix.Len() == 0 {
		return prompt.SystemPrompt(catalog.NoDataMessage), nil
	}

	query, err := ix.EmbedQuery(ctx, a.embedder, userText)
	if err != nil {
		if errors.Is(err, embedding.ErrDimensionMismatch) {
			return "", err
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		a.logger.Error().Err(err).Msg("query embedding failed")
		return prompt.SystemPrompt(retrievalFailureExcerpt), nil
	}

	sel, err := retrieval.Rank(query, ix, retrieval.Options{
		TopK:      a.opts.TopK,
		Threshold: a.opts.ScoreThreshold,
		Policy:    a.opts.Policy,
	})
	if err != nil {
		return "", err
	}

	session.RememberSelection(sel)
	a.logger.Debug().Str("session_id", session.ID).Int("selected", sel.Len()).Msg("catalog excerpt assembled")
	return prompt.SystemPrompt(sel.Excerpt()), nil
}
