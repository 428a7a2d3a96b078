package output

import "context"

// LLMPort is the narrow surface the AI field mapper needs: one prompt in, one
// text completion out. Keeping it this small lets the mapper's validation and
// retry logic be tested with a stub returning canned JSON.
type LLMPort interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
