package api

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"gopkg.in/yaml.v3"

	"github.com/kalambet/giftwise/internal/pipeline"
	"github.com/kalambet/giftwise/internal/profile"
)

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func newTestMCPDeps() MCPDeps {
	return MCPDeps{Service: newTestService(&keywordClassifier{}), Version: "test"}
}

func TestNewMCPServer(t *testing.T) {
	if s := NewMCPServer(MCPDeps{Service: newTestService(&keywordClassifier{})}); s == nil {
		t.Fatal("NewMCPServer returned nil")
	}
}

func TestMCPTool_RecommendGifts_Text(t *testing.T) {
	handler := mcpRecommendGifts(newTestMCPDeps())
	result, err := handler(context.Background(), makeCallToolRequest("recommend_gifts", map[string]any{
		"text": "My 25-year-old sister loves painting and enjoys traveling",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", toolText(t, result))
	}
	text := toolText(t, result)
	for _, want := range []string{"Age: 25", "Gender: Female", "Interests: painting, traveling", "Top Recommendations:", "5. language courses"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestMCPTool_RecommendGifts_JSON(t *testing.T) {
	handler := mcpRecommendGifts(newTestMCPDeps())
	result, _ := handler(context.Background(), makeCallToolRequest("recommend_gifts", map[string]any{
		"text":   "He likes gaming",
		"format": "json",
	}))
	if result.IsError {
		t.Fatalf("tool error: %s", toolText(t, result))
	}
	var res pipeline.Result
	if err := json.Unmarshal([]byte(toolText(t, result)), &res); err != nil {
		t.Fatalf("parsing result JSON: %v", err)
	}
	if len(res.Recommendations) != 3 || res.Recommendations[0].Gift != "gaming console" {
		t.Errorf("recommendations = %+v", res.Recommendations)
	}
}

func TestMCPTool_RecommendGifts_AssumeInterest(t *testing.T) {
	handler := mcpRecommendGifts(newTestMCPDeps())
	result, _ := handler(context.Background(), makeCallToolRequest("recommend_gifts", map[string]any{
		"text":            "music",
		"assume_interest": true,
	}))
	text := toolText(t, result)
	if !strings.HasPrefix(text, `No specific interests found, assuming "music"`) {
		t.Errorf("output = %q", text)
	}
	if !strings.Contains(text, "1. wireless headphones") {
		t.Errorf("output missing music gifts:\n%s", text)
	}
}

func TestMCPTool_RecommendGifts_Errors(t *testing.T) {
	tests := []struct {
		name string
		deps MCPDeps
		args map[string]any
		want string
	}{
		{"missing text", newTestMCPDeps(), map[string]any{}, "text is required"},
		{"blank text", newTestMCPDeps(), map[string]any{"text": "  "}, "must not be blank"},
		{"bad format", newTestMCPDeps(), map[string]any{"text": "x", "format": "xml"}, "unsupported format"},
		{
			"classifier failure",
			MCPDeps{Service: newTestService(&keywordClassifier{err: errors.New("offline")})},
			map[string]any{"text": "loves jazz"},
			"offline",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := mcpRecommendGifts(tt.deps)(context.Background(), makeCallToolRequest("recommend_gifts", tt.args))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !result.IsError {
				t.Fatal("expected tool error result")
			}
			if text := toolText(t, result); !strings.Contains(text, tt.want) {
				t.Errorf("error text = %q, want it to contain %q", text, tt.want)
			}
		})
	}
}

func TestMCPTool_ExtractProfile(t *testing.T) {
	handler := mcpExtractProfile(newTestMCPDeps())
	result, _ := handler(context.Background(), makeCallToolRequest("extract_profile", map[string]any{
		"text": "my mother enjoys cooking but hates crowds",
	}))
	if result.IsError {
		t.Fatalf("tool error: %s", toolText(t, result))
	}
	var p profile.Profile
	if err := json.Unmarshal([]byte(toolText(t, result)), &p); err != nil {
		t.Fatalf("parsing profile JSON: %v", err)
	}
	if p.Gender != profile.GenderFemale {
		t.Errorf("gender = %q, want female", p.Gender)
	}
	if len(p.Dislikes) != 1 || p.Dislikes[0] != "crowds" {
		t.Errorf("dislikes = %q, want [crowds]", p.Dislikes)
	}
}

func TestMCPResource_Rules(t *testing.T) {
	handler := mcpResourceRules(newTestMCPDeps())
	contents, err := handler(context.Background(), mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{URI: "gifts://rules"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("expected 1 content, got %d", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected TextResourceContents, got %T", contents[0])
	}
	var doc struct {
		Categories []string            `yaml:"categories"`
		Gifts      map[string][]string `yaml:"gifts"`
	}
	if err := yaml.Unmarshal([]byte(tc.Text), &doc); err != nil {
		t.Fatalf("parsing YAML: %v", err)
	}
	if len(doc.Categories) != 10 || len(doc.Gifts["art"]) != 3 {
		t.Errorf("rules = %+v", doc)
	}
}

func TestMCPServer_ConcurrentCalls(t *testing.T) {
	recommend := mcpRecommendGifts(newTestMCPDeps())
	extract := mcpExtractProfile(newTestMCPDeps())

	var wg sync.WaitGroup
	errs := make(chan string, 20)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handler := recommend
			if i%2 == 1 {
				handler = extract
			}
			res, err := handler(context.Background(), makeCallToolRequest("", map[string]any{"text": "he likes reading"}))
			if err != nil {
				errs <- err.Error()
			} else if res.IsError {
				errs <- "tool returned an error result"
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for msg := range errs {
		t.Errorf("concurrent call failed: %s", msg)
	}
}
