// Package apiclient holds the JSON-over-HTTP plumbing shared by the model
// provider adapters (OpenAI-compatible and Ollama, chat and embeddings).
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/healthlens/internal/core/domain"
)

// DefaultTimeout applies when Options leaves both Timeout and HTTPClient unset.
const DefaultTimeout = 60 * time.Second

// ErrorMessage pulls a provider error message out of a response body.
// It returns "" when the body carries none.
type ErrorMessage func(body []byte) string

// Options configures a Client.
type Options struct {
	// Provider labels error messages, e.g. "openai".
	Provider string
	BaseURL  string
	Timeout  time.Duration

	// Header is added to every request.
	Header http.Header

	// Unavailable is the sentinel wrapped into transport and protocol
	// failures, typically domain.ErrLLMUnavailable or
	// domain.ErrEmbeddingUnavailable.
	Unavailable error

	// ErrorMessage decodes provider errors. Nil disables it.
	ErrorMessage ErrorMessage

	HTTPClient *http.Client
}

// Client talks JSON to a single provider base URL.
type Client struct {
	http     *http.Client
	baseURL  string
	header   http.Header
	provider string
	down     error
	errMsg   ErrorMessage
}

// New builds a Client. A trailing slash on BaseURL is ignored.
func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	down := opts.Unavailable
	if down == nil {
		down = domain.ErrLLMUnavailable
	}
	return &Client{
		http:     hc,
		baseURL:  strings.TrimSuffix(opts.BaseURL, "/"),
		header:   opts.Header.Clone(),
		provider: opts.Provider,
		down:     down,
		errMsg:   opts.ErrorMessage,
	}
}

// BaseURL is the normalised base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Post sends in as JSON to path and decodes a 200 reply into out.
// HTTP 429 maps to domain.ErrRateLimited.
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", c.provider, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", c.provider, err)
	}
	req.Header.Set("Content-Type", "application/json")

	status, body, err := c.do(req)
	if err != nil {
		return err
	}
	if err := c.statusError(status, body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s: decode response: %w", c.down, c.provider, err)
	}
	if msg := c.message(body); msg != "" {
		return fmt.Errorf("%w: %s: %s", c.down, c.provider, msg)
	}
	return nil
}

// Ping issues a GET against path and expects 200. It is used for
// reachability and credential checks that cost no inference.
func (c *Client) Ping(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("build %s ping: %w", c.provider, err)
	}
	status, body, err := c.do(req)
	if err != nil {
		return err
	}
	return c.statusError(status, body)
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %s: %w", c.down, c.provider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %s: read response: %w", c.down, c.provider, err)
	}
	return resp.StatusCode, body, nil
}

func (c *Client) statusError(status int, body []byte) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, c.provider)
	}
	if msg := c.message(body); msg != "" {
		return fmt.Errorf("%w: %s: %s", c.down, c.provider, msg)
	}
	return fmt.Errorf("%w: %s returned status %d", c.down, c.provider, status)
}

func (c *Client) message(body []byte) string {
	if c.errMsg == nil || len(body) == 0 {
		return ""
	}
	return c.errMsg(body)
}

// OpenAIError reads {"error": {"message": "..."}} bodies.
func OpenAIError(body []byte) string {
	var env struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &env) != nil || env.Error == nil {
		return ""
	}
	return env.Error.Message
}

// OllamaError reads {"error": "..."} bodies.
func OllamaError(body []byte) string {
	var env struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &env) != nil {
		return ""
	}
	return env.Error
}
