package summarizer

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when neither an external command nor an
// OpenAI key is available.
var ErrNotConfigured = errors.New("no summarizer configured")

// Input describes the payload for a summary request.
type Input struct {
	// Instructions is the system prompt.
	Instructions string
	// Text is the material to summarise.
	Text string
}

// Summarizer produces a single summary for a given input text.
type Summarizer interface {
	Summarize(ctx context.Context, input Input) (string, error)
}

// New picks the summarizer backend: an external command when one is
// configured, OpenAI when an API key is present. It returns nil when neither
// is available.
func New(command []string, openAIKey string) Summarizer {
	if len(command) > 0 && command[0] != "" {
		return NewCommandSummarizer(command)
	}

	if openAIKey != "" {
		return NewOpenAISummarizer(openAIKey)
	}

	return nil
}
