package mcp

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Resource URIs.
const (
	RulesURI   = "shipcheck://rules"
	MetricsURI = "shipcheck://metrics"
)

func (s *Server) registerResources() {
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        "rules",
			URI:         RulesURI,
			Description: "Rule IDs in evaluation order",
			MIMEType:    "application/json",
		},
		s.handleRulesResource,
	)
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        "metrics",
			URI:         MetricsURI,
			Description: "Verdict counts, most frequent failing subjects and latency since the server started",
			MIMEType:    "application/json",
		},
		s.handleMetricsResource,
	)
}

func (s *Server) handleRulesResource(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	if req != nil && req.Params != nil && req.Params.URI != RulesURI {
		return nil, NewResourceNotFoundError(req.Params.URI)
	}
	return jsonResource(RulesURI, RulesOutput{Rules: s.rules})
}

func (s *Server) handleMetricsResource(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	if req != nil && req.Params != nil && req.Params.URI != MetricsURI {
		return nil, NewResourceNotFoundError(req.Params.URI)
	}
	return jsonResource(MetricsURI, s.metrics.Snapshot())
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, MapError(err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: "application/json",
				Text:     string(data),
			},
		},
	}, nil
}
