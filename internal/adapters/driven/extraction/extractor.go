// Package extraction turns raw report text into the closed lab parameter
// record by asking the chat model for a JSON object and validating it
// against a fixed schema.
package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/custodia-labs/healthlens/internal/core/domain"
	"github.com/custodia-labs/healthlens/internal/core/ports/driven"
	"github.com/custodia-labs/healthlens/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.StructuredExtractor = (*Extractor)(nil)

// Extractor calls the LLM in JSON mode and validates the reply.
type Extractor struct {
	llm     driven.LLMService
	prompts driven.PromptStore
	model   string
	schema  *gojsonschema.Schema
}

// New creates an extractor. An empty model uses the LLM service default.
func New(llm driven.LLMService, prompts driven.PromptStore, model string) (*Extractor, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(Schema()))
	if err != nil {
		return nil, fmt.Errorf("compile extraction schema: %w", err)
	}
	return &Extractor{llm: llm, prompts: prompts, model: model, schema: schema}, nil
}

// Schema returns the JSON schema of the parsed record: every lab parameter
// is a number or null, the notes are a string or null, and no other keys
// are allowed.
func Schema() map[string]any {
	properties := make(map[string]any, len(domain.AllLabParameters())+1)
	for _, p := range domain.AllLabParameters() {
		properties[p.String()] = map[string]any{"type": []string{"number", "null"}}
	}
	properties[domain.AdditionalNotesKey] = map[string]any{"type": []string{"string", "null"}}

	return map[string]any{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
}

// Extract asks the model for the record. A reply that is not a schema-valid
// JSON object is ErrExtractionParse.
func (e *Extractor) Extract(ctx context.Context, rawText string) (*domain.ParsedData, error) {
	system, err := e.prompts.Load(driven.PromptExtraction)
	if err != nil {
		return nil, fmt.Errorf("load extraction prompt: %w", err)
	}

	deterministic := 0.0
	reply, err := e.llm.Complete(ctx, driven.CompletionRequest{
		System:      system,
		User:        rawText,
		Model:       e.model,
		JSON:        true,
		Temperature: &deterministic,
	})
	if err != nil {
		if errors.Is(err, domain.ErrLLMUnavailable) || errors.Is(err, domain.ErrRateLimited) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}

	return e.Parse(reply)
}

// Parse validates a model reply and decodes it.
func (e *Extractor) Parse(reply string) (*domain.ParsedData, error) {
	body := strings.TrimSpace(reply)
	if !json.Valid([]byte(body)) {
		logger.Debug("Extraction reply is not JSON: %q", truncate(body, 200))
		return nil, fmt.Errorf("%w: reply is not valid JSON", domain.ErrExtractionParse)
	}

	result, err := e.schema.Validate(gojsonschema.NewStringLoader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrExtractionParse, err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrExtractionParse, strings.Join(details, "; "))
	}

	// Keys the model left out decode as nil.
	var data domain.ParsedData
	if err := json.Unmarshal([]byte(body), &data); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrExtractionParse, err)
	}
	return &data, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
