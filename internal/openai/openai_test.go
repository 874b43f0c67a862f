package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flyerscan/prestations/internal/images"
	"github.com/flyerscan/prestations/internal/providers"
)

func TestExtractTextSendsAllImagesInOneMessage(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("Expected /v1/chat/completions, got %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("Expected bearer auth, got %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"| Coupe | 20 |"}}]}`))
	}))
	defer server.Close()

	p := NewMistral(server.URL+"/v1/", "secret")
	text, err := p.ExtractText(context.Background(), providers.Config{
		Model:       "pixtral-large-latest",
		Temperature: 0.2,
		MaxTokens:   2000,
		Prompt:      "Analyse",
		Images: []images.Image{
			{MIMEType: "image/jpeg", Data: []byte{1, 2, 3}},
			{MIMEType: "image/png", Data: []byte{4, 5, 6}},
		},
	})
	if err != nil {
		t.Fatalf("ExtractText failed: %v", err)
	}
	if text != "| Coupe | 20 |" {
		t.Errorf("Unexpected content %q", text)
	}

	if got.Model != "pixtral-large-latest" || got.MaxTokens != 2000 || got.Temperature != 0.2 {
		t.Errorf("Unexpected request parameters %+v", got)
	}
	if len(got.Messages) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(got.Messages))
	}
	content := got.Messages[0].Content
	if len(content) != 3 {
		t.Fatalf("Expected text + 2 images, got %d parts", len(content))
	}
	if content[0].Type != "text" || content[0].Text != "Analyse" {
		t.Errorf("Unexpected text part %+v", content[0])
	}
	if content[1].ImageURL == nil || content[1].ImageURL.URL != "data:image/jpeg;base64,AQID" {
		t.Errorf("Unexpected image part %+v", content[1])
	}
	if content[2].ImageURL == nil || content[2].ImageURL.URL != "data:image/png;base64,BAUG" {
		t.Errorf("Unexpected image part %+v", content[2])
	}
}

func TestExtractTextStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message":"rate limited"}`))
	}))
	defer server.Close()

	_, err := New(server.URL, "key").ExtractText(context.Background(), providers.Config{Prompt: "x"})
	var statusErr *providers.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Expected *StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", statusErr.StatusCode)
	}
	if statusErr.Body != `{"message":"rate limited"}` {
		t.Errorf("Unexpected body %q", statusErr.Body)
	}
}

func TestExtractTextRequiresKey(t *testing.T) {
	if _, err := NewMistral("", "").ExtractText(context.Background(), providers.Config{}); err == nil {
		t.Error("Expected error without an API key")
	}
}

func TestExtractTextNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	if _, err := New(server.URL, "key").ExtractText(context.Background(), providers.Config{}); err == nil {
		t.Error("Expected error for an empty choice list")
	}
}
