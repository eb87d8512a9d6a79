package mcp

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/healthlens/internal/core/domain"
)

// IngestInput is the input schema for the ingest_report tool.
type IngestInput struct {
	User string `json:"user" jsonschema:"identity of the user who owns the report"`
	Path string `json:"path" jsonschema:"local path of a pdf, jpg, jpeg, png or txt report"`
}

// IngestOutput is the output schema for the ingest_report tool.
type IngestOutput struct {
	ReportID     string   `json:"report_id"`
	FileName     string   `json:"file_name"`
	Chunks       int      `json:"chunks"`
	Duplicate    bool     `json:"duplicate"`
	IndexOutcome string   `json:"index_outcome,omitempty"`
	Parameters   []string `json:"parameters,omitempty"`
}

// QueryInput is the input schema for the query_symptoms tool.
type QueryInput struct {
	User     string `json:"user" jsonschema:"identity of the user asking"`
	Symptoms string `json:"symptoms" jsonschema:"free-text description of the symptoms"`
}

// QueryOutput is the output schema for the query_symptoms tool.
type QueryOutput struct {
	Answer  string         `json:"answer"`
	Sources []SourceOutput `json:"sources"`
}

// SourceOutput is one report excerpt placed in the model context.
type SourceOutput struct {
	FileName string  `json:"file_name"`
	Page     int     `json:"page,omitempty"`
	Score    float64 `json:"score"`
	Content  string  `json:"content"`
}

// UserInput is the input schema for tools that only need the user.
type UserInput struct {
	User string `json:"user" jsonschema:"identity of the user"`
}

// SuggestOutput is the output schema for the suggest tool.
type SuggestOutput struct {
	Suggestion string `json:"suggestion"`
	ReportID   string `json:"report_id"`
	FileName   string `json:"file_name"`
}

// ListReportsOutput is the output schema for the list_reports tool.
type ListReportsOutput struct {
	Reports []ReportOutput `json:"reports"`
	Count   int            `json:"count"`
}

// ReportOutput summarises one stored report.
type ReportOutput struct {
	ID         string             `json:"id"`
	Seq        int64              `json:"seq"`
	FileName   string             `json:"file_name"`
	FileType   string             `json:"file_type"`
	CreatedAt  time.Time          `json:"created_at"`
	Symptoms   string             `json:"symptoms,omitempty"`
	Parameters map[string]float64 `json:"parameters,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest_report",
		Description: "Ingest a medical report file for a user so it can be queried",
	}, s.handleIngest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query_symptoms",
		Description: "Describe symptoms and get an answer grounded in the user's own reports",
	}, s.handleQuery)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "suggest",
		Description: "Get health suggestions based on the user's latest report and symptoms",
	}, s.handleSuggest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_reports",
		Description: "List the user's stored reports with extracted lab values",
	}, s.handleListReports)
}

func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	result, err := s.ports.Ingestion.IngestFile(ctx, input.User, localPath(input.Path))
	if err != nil {
		return nil, IngestOutput{}, err
	}

	output := IngestOutput{
		ReportID:     result.Record.ID,
		FileName:     result.Record.FileName,
		Chunks:       result.Chunks,
		Duplicate:    result.Duplicate,
		IndexOutcome: string(result.IndexOutcome),
	}
	for _, p := range result.Record.ParsedData.Present() {
		output.Parameters = append(output.Parameters, p.String())
	}
	return nil, output, nil
}

func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	answer, err := s.ports.Query.Ask(ctx, input.User, input.Symptoms)
	if err != nil {
		return nil, QueryOutput{}, err
	}

	output := QueryOutput{
		Answer:  answer.Text,
		Sources: make([]SourceOutput, len(answer.Sources)),
	}
	for i, hit := range answer.Sources {
		page, _ := hit.Chunk.Metadata[domain.MetaPage].(int)
		output.Sources[i] = SourceOutput{
			FileName: hit.Chunk.Source(),
			Page:     page,
			Score:    hit.Score,
			Content:  hit.Chunk.Content,
		}
	}
	return nil, output, nil
}

func (s *Server) handleSuggest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input UserInput,
) (*mcp.CallToolResult, SuggestOutput, error) {
	suggestion, err := s.ports.Suggestion.Suggest(ctx, input.User)
	if err != nil {
		return nil, SuggestOutput{}, err
	}

	return nil, SuggestOutput{
		Suggestion: suggestion.Text,
		ReportID:   suggestion.Record.ID,
		FileName:   suggestion.Record.FileName,
	}, nil
}

func (s *Server) handleListReports(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input UserInput,
) (*mcp.CallToolResult, ListReportsOutput, error) {
	records, err := s.ports.Reports.List(ctx, input.User)
	if err != nil {
		return nil, ListReportsOutput{}, err
	}

	output := ListReportsOutput{
		Reports: make([]ReportOutput, len(records)),
		Count:   len(records),
	}
	for i := range records {
		output.Reports[i] = reportOutput(&records[i])
	}
	return nil, output, nil
}

// localPath accepts a bare path or a file:// URI, as assistants send either.
func localPath(p string) string {
	if !strings.HasPrefix(p, "file://") {
		return p
	}
	u, err := url.Parse(p)
	if err != nil || u.Path == "" {
		return strings.TrimPrefix(p, "file://")
	}
	return u.Path
}

func reportOutput(r *domain.ReportRecord) ReportOutput {
	out := ReportOutput{
		ID:        r.ID,
		Seq:       r.Seq,
		FileName:  r.FileName,
		FileType:  r.FileType,
		CreatedAt: r.CreatedAt,
		Symptoms:  r.Symptoms,
	}
	for _, p := range r.ParsedData.Present() {
		if out.Parameters == nil {
			out.Parameters = make(map[string]float64)
		}
		out.Parameters[p.String()] = *r.ParsedData.Value(p)
	}
	return out
}
