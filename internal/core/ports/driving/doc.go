// Package driving declares the use cases the CLI, HTTP and MCP adapters
// call into: ingestion, symptom queries, suggestions, report browsing and
// settings. internal/core/services implements them.
package driving
