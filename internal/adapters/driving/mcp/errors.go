// Package mcp provides an MCP (Model Context Protocol) server adapter for healthlens.
// It lets AI assistants ingest reports, ask symptom questions and read a
// user's stored reports. Every tool call names the user it acts for.
package mcp

import "errors"

// ErrMissingService is returned when a required driving port is not provided.
var ErrMissingService = errors.New("mcp: service is required")
