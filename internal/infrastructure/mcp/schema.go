package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/felixgeelhaar/mcp-go"
)

// SchemaVersion is the current MCP tool schema version (semver).
const SchemaVersion = "1.0.0"

const (
	schemaURI = "fareview://schema"
	rubricURI = "fareview://rubric"
)

type schemaResponse struct {
	SchemaVersion string   `json:"schema_version"`
	ServerVersion string   `json:"server_version"`
	Tools         []string `json:"tools"`
}

func (s *Server) registerSchemaResource() {
	s.mcpServer.Resource(schemaURI).
		Name(schemaURI).
		Description("MCP tool schema version").
		MimeType("application/json").
		Handler(func(_ context.Context, _ string, _ map[string]string) (*mcplib.ResourceContent, error) {
			return jsonResource(schemaURI, schemaResponse{
				SchemaVersion: SchemaVersion,
				ServerVersion: Version,
				Tools:         []string{"fareview_analyze", "fareview_rubric", "fareview_history"},
			})
		})

	s.mcpServer.Resource(rubricURI).
		Name(rubricURI).
		Description("The rubric reports are scored against").
		MimeType("application/json").
		Handler(func(ctx context.Context, _ string, _ map[string]string) (*mcplib.ResourceContent, error) {
			resp, err := s.handleRubric(ctx, struct{}{})
			if err != nil {
				return nil, err
			}
			return jsonResource(rubricURI, resp)
		})
}

func jsonResource(uri string, v any) (*mcplib.ResourceContent, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &mcplib.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}
