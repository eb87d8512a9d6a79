package mcp

import (
	"fmt"

	"github.com/custodia-labs/healthlens/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	Ingestion  driving.IngestionService
	Query      driving.QueryService
	Suggestion driving.SuggestionService
	Reports    driving.ReportService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	switch {
	case p.Ingestion == nil:
		return fmt.Errorf("%w: ingestion", ErrMissingService)
	case p.Query == nil:
		return fmt.Errorf("%w: query", ErrMissingService)
	case p.Suggestion == nil:
		return fmt.Errorf("%w: suggestion", ErrMissingService)
	case p.Reports == nil:
		return fmt.Errorf("%w: reports", ErrMissingService)
	}
	return nil
}
