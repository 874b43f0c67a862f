package providers

import (
	"context"
	"fmt"

	"github.com/flyerscan/prestations/internal/images"
)

// Config represents one request to a vision model: a prompt plus every
// flyer photo, sent together.
type Config struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Prompt      string
	Images      []images.Image
}

// Provider defines the interface for a vision model provider
type Provider interface {
	ExtractText(ctx context.Context, config Config) (string, error)
}

// StatusError is returned when the model endpoint answers with a non-200
// status. Body is the raw response body.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: received non-200 status code: %d - %s", e.Provider, e.StatusCode, e.Body)
}

// Defaults per provider name.
var DefaultModels = map[string]string{
	"mistral": "pixtral-large-latest",
	"openai":  "gpt-4o",
	"ollama":  "llava",
	"gemini":  "gemini-1.5-flash",
}
