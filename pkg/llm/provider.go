// Package llm defines the text-generation interface used for
// conversation summaries.
package llm

import (
	"context"
)

// Provider defines the interface for interacting with LLM services.
type Provider interface {
	// GenerateText sends a system instruction and a prompt and returns
	// the text response.
	GenerateText(ctx context.Context, system, prompt string) (string, error)

	// HealthCheck verifies that the provider is configured and reachable.
	HealthCheck(ctx context.Context) error
}
