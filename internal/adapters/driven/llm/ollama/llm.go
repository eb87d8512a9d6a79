// Package ollama runs chat completions on a local Ollama server.
package ollama

import (
	"cmp"
	"context"
	"time"

	"github.com/custodia-labs/healthlens/internal/adapters/driven/apiclient"
	"github.com/custodia-labs/healthlens/internal/core/domain"
	"github.com/custodia-labs/healthlens/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultLLMModel   = "llama3.2"
	DefaultLLMTimeout = 120 * time.Second
)

// LLMConfig configures LLMService. Zero fields take the defaults above.
type LLMConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// LLMService calls /api/chat without streaming.
type LLMService struct {
	api   *apiclient.Client
	model string
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
	Options  *options      `json:"options,omitempty"`
}

type options struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

func NewLLMService(cfg LLMConfig) *LLMService {
	return &LLMService{
		api: apiclient.New(apiclient.Options{
			Provider:     "ollama",
			BaseURL:      cmp.Or(cfg.BaseURL, DefaultBaseURL),
			Timeout:      cmp.Or(cfg.Timeout, DefaultLLMTimeout),
			Unavailable:  domain.ErrLLMUnavailable,
			ErrorMessage: apiclient.OllamaError,
		}),
		model: cmp.Or(cfg.Model, DefaultLLMModel),
	}
}

// Complete maps MaxTokens to num_predict and JSON mode to format=json.
func (s *LLMService) Complete(ctx context.Context, req driven.CompletionRequest) (string, error) {
	body := chatRequest{
		Model:    cmp.Or(req.Model, s.model),
		Messages: []chatMessage{{Role: "system", Content: req.System}},
	}
	if req.User != "" {
		body.Messages = append(body.Messages, chatMessage{Role: "user", Content: req.User})
	}
	if req.JSON {
		body.Format = "json"
	}
	if req.MaxTokens > 0 || req.Temperature != nil {
		body.Options = &options{NumPredict: req.MaxTokens, Temperature: req.Temperature}
	}

	var resp chatResponse
	if err := s.api.Post(ctx, "/api/chat", body, &resp); err != nil {
		return "", err
	}
	return resp.Message.Content, nil
}

func (s *LLMService) ModelName() string { return s.model }

// Ping lists local models via /api/tags.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.api.Ping(ctx, "/api/tags")
}

func (s *LLMService) Close() error { return nil }
