package ai

import "context"

// Generator sends a system instruction and a prompt to a text-generation service
// and returns the textual reply as is. Validating the reply is the caller's job.
type Generator interface {
	GenerateContent(ctx context.Context, system, prompt string) (string, error)
	Model() string
}

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)
