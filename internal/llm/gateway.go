package llm

import (
	"context"
	"errors"

	"github.com/hennyi-ai/sales-engine/internal/observability"
)

// Apology is returned to the customer when completion fails outright.
// Completion failures never propagate as errors; the conversation continues.
const Apology = "I apologize, but I'm having trouble processing your request. Please try again."

// minimizedSystem replaces the full persona and catalog excerpt when the
// provider rejects the original prompt for size.
const minimizedSystem = "You are a helpful car sales assistant. Answer the customer's question briefly."

// Gateway wraps a Completer with the degradation ladder: a capacity
// rejection triggers one retry with a minimized prompt, and any remaining
// failure yields the apology text instead of an error.
type Gateway struct {
	completer   Completer
	logger      *observability.Logger
	maxTokens   int
	temperature float64
}

// NewGateway returns a gateway over the given completer.
func NewGateway(completer Completer, maxTokens int, temperature float64, logger *observability.Logger) *Gateway {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Gateway{
		completer:   completer,
		logger:      logger.WithComponent("llm-gateway"),
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

// Reply completes the conversation and always returns text to show the
// customer. The error result is reserved for context cancellation.
func (g *Gateway) Reply(ctx context.Context, messages []Message) (string, error) {
	text, err := g.completer.Complete(ctx, CompletionRequest{
		Messages:    messages,
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	})
	if err == nil {
		return text, nil
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	if errors.Is(err, ErrCapacityExceeded) {
		g.logger.Warn().Err(err).Msg("prompt rejected for capacity, retrying minimized")
		text, err = g.completer.Complete(ctx, CompletionRequest{
			Messages:    minimize(messages),
			MaxTokens:   g.maxTokens,
			Temperature: g.temperature,
		})
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	g.logger.Error().Err(err).Msg("completion failed, returning apology")
	return Apology, nil
}

// minimize strips the conversation down to a compact system line and the
// last user message so the retry fits whatever budget the provider enforces.
func minimize(messages []Message) []Message {
	out := []Message{{Role: RoleSystem, Content: minimizedSystem}}
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			out = append(out, messages[i])
			break
		}
	}
	return out
}
