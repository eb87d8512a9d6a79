// Package openai talks to OpenAI-compatible chat completion APIs.
// OpenRouter is the default endpoint.
package openai

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/healthlens/internal/adapters/driven/apiclient"
	"github.com/custodia-labs/healthlens/internal/core/domain"
	"github.com/custodia-labs/healthlens/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultBaseURL    = domain.DefaultLLMBaseURL
	DefaultLLMModel   = domain.DefaultQueryModel
	DefaultLLMTimeout = 120 * time.Second

	// appTitle is reported to OpenRouter in X-Title.
	appTitle = "healthlens"
)

// LLMConfig configures LLMService. APIKey is required.
type LLMConfig struct {
	APIKey  string
	BaseURL string

	// Model answers requests that do not pick one.
	Model string

	Timeout    time.Duration
	HTTPClient *http.Client
}

// LLMService sends CompletionRequests to /chat/completions.
type LLMService struct {
	api   *apiclient.Client
	model string
}

type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    *float64        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

// NewLLMService fails without an API key.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultLLMModel
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultLLMTimeout
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+cfg.APIKey)
	header.Set("X-Title", appTitle)

	return &LLMService{
		api: apiclient.New(apiclient.Options{
			Provider:     "openai",
			BaseURL:      baseURL,
			Timeout:      timeout,
			Header:       header,
			Unavailable:  domain.ErrLLMUnavailable,
			ErrorMessage: apiclient.OpenAIError,
			HTTPClient:   cfg.HTTPClient,
		}),
		model: model,
	}, nil
}

// Complete returns the content of the first choice.
func (s *LLMService) Complete(ctx context.Context, req driven.CompletionRequest) (string, error) {
	body := chatCompletionRequest{
		Model:       cmp.Or(req.Model, s.model),
		Messages:    messages(req),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if req.JSON {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	var resp chatCompletionResponse
	if err := s.api.Post(ctx, "/chat/completions", body, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: %s returned no choices", domain.ErrLLMUnavailable, body.Model)
	}
	return resp.Choices[0].Message.Content, nil
}

func messages(req driven.CompletionRequest) []chatMessage {
	out := []chatMessage{{Role: "system", Content: req.System}}
	if req.User != "" {
		out = append(out, chatMessage{Role: "user", Content: req.User})
	}
	return out
}

func (s *LLMService) ModelName() string { return s.model }

// BaseURL is the endpoint requests are sent to.
func (s *LLMService) BaseURL() string { return s.api.BaseURL() }

// Ping lists /models, which checks the key without spending tokens.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.api.Ping(ctx, "/models")
}

func (s *LLMService) Close() error { return nil }
