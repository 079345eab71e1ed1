package domain

import "context"

// TextGenerator produces free-form text for a prompt. Generation
// parameters (temperature, output token budget) are fixed at construction.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	ModelName() string
}
