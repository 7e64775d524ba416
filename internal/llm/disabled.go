package llm

import (
	"context"
	"errors"
)

// ErrModelDisabled indicates no model credentials were configured.
var ErrModelDisabled = errors.New("language model is not configured")

// Disabled is a Client used when no model API key is configured. Every call
// fails, which callers treat the same as any other model outage: planners
// fall back to default plans and summaries degrade to counts.
type Disabled struct{}

// CompleteWithSystem always returns ErrModelDisabled.
func (Disabled) CompleteWithSystem(context.Context, string, string) (string, error) {
	return "", ErrModelDisabled
}
