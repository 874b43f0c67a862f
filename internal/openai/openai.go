package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/flyerscan/prestations/internal/providers"
)

const (
	DefaultURL = "https://api.openai.com/v1"
	MistralURL = "https://api.mistral.ai/v1"
)

// OpenAI talks to any chat-completions endpoint that accepts image_url
// content parts. Mistral speaks the same wire format.
type OpenAI struct {
	name    string
	baseURL string
	apiKey  string
	client  *http.Client
}

// New returns a provider for OpenAI. An empty baseURL uses DefaultURL.
func New(baseURL, apiKey string) *OpenAI {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &OpenAI{name: "openai", baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, client: &http.Client{}}
}

// NewMistral returns a provider for Mistral (pixtral). An empty baseURL uses
// MistralURL.
func NewMistral(baseURL, apiKey string) *OpenAI {
	if baseURL == "" {
		baseURL = MistralURL
	}
	return &OpenAI{name: "mistral", baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, client: &http.Client{}}
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type message struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

// ExtractText sends the prompt and all images in a single user message.
func (o *OpenAI) ExtractText(ctx context.Context, config providers.Config) (string, error) {
	if o.apiKey == "" {
		return "", fmt.Errorf("%s API key not set", o.name)
	}

	parts := make([]contentPart, 0, len(config.Images)+1)
	parts = append(parts, contentPart{Type: "text", Text: config.Prompt})
	for _, img := range config.Images {
		parts = append(parts, contentPart{Type: "image_url", ImageURL: &imageURL{URL: img.DataURL()}})
	}

	requestBody, err := json.Marshal(chatRequest{
		Model:       config.Model,
		Messages:    []message{{Role: "user", Content: parts}},
		MaxTokens:   config.MaxTokens,
		Temperature: config.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/chat/completions", bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &providers.StatusError{Provider: o.name, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from %s", o.name)
	}

	return response.Choices[0].Message.Content, nil
}
