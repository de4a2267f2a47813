package shared

import (
	"time"
)

// TokenUsage tracks the tokens consumed by a request.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Model            string
}

// Empty reports whether the provider returned no usage figures.
func (u TokenUsage) Empty() bool {
	return u.PromptTokens == 0 && u.CompletionTokens == 0 && u.TotalTokens == 0
}

// Outcome describes how a generation step produced its result.
type Outcome string

const (
	OutcomeAI       Outcome = "ai"
	OutcomeFallback Outcome = "fallback"
)

// AgentMeta holds operational metadata for one generation step.
// AgentName is the operation ("week", "meal", "shopping").
type AgentMeta struct {
	AgentName string
	Usage     TokenUsage
	Latency   time.Duration
	Outcome   Outcome
	// Reason carries the failure that forced a fallback, if any.
	Reason string
}
