package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/healthlens/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for healthlens resources.
	uriScheme = "healthlens://"

	usersPrefix  = uriScheme + "users/"
	latestSuffix = "/reports/latest"
)

// latestReport is the JSON body of the latest-report resource.
type latestReport struct {
	ID            string             `json:"id"`
	FileName      string             `json:"file_name"`
	Text          string             `json:"text"`
	MedicalParams *domain.ParsedData `json:"medical_params"`
	Symptoms      string             `json:"symptoms"`
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: usersPrefix + "{user}" + latestSuffix,
		Name:        "latest-report",
		Description: "The user's most recent report with raw text, lab values and symptoms",
		MIMEType:    "application/json",
	}, s.handleLatestReportResource)
}

func (s *Server) handleLatestReportResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	user := extractUser(req.Params.URI)
	if user == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	record, err := s.ports.Reports.Latest(ctx, user)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		return nil, fmt.Errorf("loading latest report: %w", err)
	}

	data, err := json.MarshalIndent(latestReport{
		ID:            record.ID,
		FileName:      record.FileName,
		Text:          record.RawText,
		MedicalParams: record.ParsedData,
		Symptoms:      record.Symptoms,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling report: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractUser extracts the user from healthlens://users/{user}/reports/latest.
func extractUser(uri string) string {
	if !strings.HasPrefix(uri, usersPrefix) {
		return ""
	}

	rest := strings.TrimPrefix(uri, usersPrefix)
	if !strings.HasSuffix(rest, latestSuffix) {
		return ""
	}

	user, err := url.PathUnescape(strings.TrimSuffix(rest, latestSuffix))
	if err != nil || strings.Contains(user, "/") {
		return ""
	}
	return user
}
