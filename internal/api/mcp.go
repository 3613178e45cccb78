package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"gopkg.in/yaml.v3"

	"github.com/kalambet/giftwise/internal/gifts"
	"github.com/kalambet/giftwise/internal/pipeline"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Service Service
	Version string
}

// NewMCPServer creates an MCP server exposing gift recommendation tools and
// the rule table as a resource.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	s := server.NewMCPServer(
		"giftwise",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("giftwise: describe a gift recipient in plain English and get gift ideas drawn from a fixed rule table."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("recommend_gifts",
			mcp.WithDescription("Extract a recipient profile (age, gender, interests, dislikes) from a description and suggest up to five gifts."),
			mcp.WithString("text", mcp.Description("Free-text description of the gift recipient"), mcp.Required()),
			mcp.WithBoolean("assume_interest", mcp.Description("Treat the whole text as the interest when no 'loves/likes/enjoys' phrase is found")),
			mcp.WithString("format", mcp.Description("Output format: text (default) or json"), mcp.Enum("text", "json")),
		),
		mcpRecommendGifts(deps),
	)

	s.AddTool(
		mcp.NewTool("extract_profile",
			mcp.WithDescription("Extract a structured recipient profile from a description without recommending gifts."),
			mcp.WithString("text", mcp.Description("Free-text description of the gift recipient"), mcp.Required()),
		),
		mcpExtractProfile(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"gifts://rules",
			"Gift Rules",
			mcp.WithResourceDescription("Interest categories and the gifts suggested for each"),
			mcp.WithMIMEType("application/yaml"),
		),
		mcpResourceRules(deps),
	)

	return s
}

func mcpRecommendGifts(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcpError("text is required"), nil
		}
		format := req.GetString("format", "text")
		if format != "text" && format != "json" {
			return mcpError(fmt.Sprintf("unsupported format %q", format)), nil
		}

		opts := pipeline.Options{AssumeInterest: req.GetBool("assume_interest", false)}
		res, _, err := deps.Service.Recommend(ctx, text, opts)
		if err != nil {
			return mcpServiceError(err), nil
		}

		if format == "json" {
			b, err := json.Marshal(res)
			if err != nil {
				return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
			}
			return mcpText(string(b)), nil
		}

		out := gifts.Format(res.Profile, res.Recommendations)
		if res.AssumedInterest {
			out = fmt.Sprintf("No specific interests found, assuming %q is the interest.\n\n%s", res.Profile.Interests[0].Phrase, out)
		}
		return mcpText(out), nil
	}
}

func mcpExtractProfile(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcpError("text is required"), nil
		}
		p, err := deps.Service.Profile(ctx, text)
		if err != nil {
			return mcpServiceError(err), nil
		}
		b, err := json.Marshal(p)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal profile: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceRules(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := yaml.Marshal(deps.Service.Table())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal rules: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/yaml",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpServiceError(err error) *mcp.CallToolResult {
	if errors.Is(err, pipeline.ErrEmptyText) {
		return mcpError("text must not be blank")
	}
	return mcpError(fmt.Sprintf("recommendation failed: %v", err))
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
