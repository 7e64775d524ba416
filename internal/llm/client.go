// Package llm provides the language-model collaborator used by the query
// planners and the summarizer: a narrow completion interface, a Gemini
// implementation, and helpers for digging JSON out of model output.
package llm

import "context"

// Client is the minimal completion interface the planners and summarizer
// depend on. Implementations must honour ctx cancellation and deadlines.
type Client interface {
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
