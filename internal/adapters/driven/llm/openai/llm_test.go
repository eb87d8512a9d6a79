package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/healthlens/internal/core/domain"
	"github.com/custodia-labs/healthlens/internal/core/ports/driven"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewLLMService(LLMConfig{APIKey: "or-key", BaseURL: server.URL})
	require.NoError(t, err)
	return svc
}

func TestNewLLMService(t *testing.T) {
	_, err := NewLLMService(LLMConfig{})
	assert.Error(t, err)

	svc, err := NewLLMService(LLMConfig{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultQueryModel, svc.ModelName())
	assert.Equal(t, "https://openrouter.ai/api/v1", svc.BaseURL())
}

func TestComplete_Request(t *testing.T) {
	var got chatCompletionRequest
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer or-key", r.Header.Get("Authorization"))
		assert.Equal(t, appTitle, r.Header.Get("X-Title"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Probable cause: anaemia"}}]}`))
	})

	out, err := svc.Complete(context.Background(), driven.CompletionRequest{
		System: "You are a medical assistant",
		User:   "I feel dizzy",
		Model:  domain.DefaultSuggestionModel,
	})
	require.NoError(t, err)

	assert.Equal(t, "Probable cause: anaemia", out)
	assert.Equal(t, domain.DefaultSuggestionModel, got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, chatMessage{Role: "system", Content: "You are a medical assistant"}, got.Messages[0])
	assert.Equal(t, chatMessage{Role: "user", Content: "I feel dizzy"}, got.Messages[1])
	assert.Nil(t, got.ResponseFormat)
}

func TestComplete_JSONMode(t *testing.T) {
	var raw map[string]any
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{}"}}]}`))
	})

	_, err := svc.Complete(context.Background(), driven.CompletionRequest{System: "extract", JSON: true})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"type": "json_object"}, raw["response_format"])
	assert.Len(t, raw["messages"], 1)
	assert.NotContains(t, raw, "temperature")
}

func TestComplete_ZeroTemperatureIsSent(t *testing.T) {
	var raw map[string]any
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{}"}}]}`))
	})

	zero := 0.0
	_, err := svc.Complete(context.Background(), driven.CompletionRequest{System: "extract", JSON: true, Temperature: &zero})
	require.NoError(t, err)

	require.Contains(t, raw, "temperature")
	assert.Equal(t, 0.0, raw["temperature"])
}

func TestComplete_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, domain.ErrRateLimited},
		{"provider error", http.StatusBadRequest, `{"error":{"message":"invalid model"}}`, domain.ErrLLMUnavailable},
		{"no choices", http.StatusOK, `{"choices":[]}`, domain.ErrLLMUnavailable},
		{"not json", http.StatusBadGateway, `bad gateway`, domain.ErrLLMUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := svc.Complete(context.Background(), driven.CompletionRequest{System: "x"})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPing(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		w.WriteHeader(http.StatusUnauthorized)
	})
	assert.ErrorIs(t, svc.Ping(context.Background()), domain.ErrLLMUnavailable)
	assert.NoError(t, svc.Close())
}
