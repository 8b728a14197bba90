// Package mcptools exposes the quiz service as MCP tools.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ZanzyTHEbar/elkquiz/internal/quiz"
)

// Version is set at build time via ldflags.
var Version = "dev"

// NewServer creates an MCP server with every quiz tool registered.
func NewServer(svc *quiz.Service) *server.MCPServer {
	s := server.NewMCPServer(
		"elkquiz",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)
	Register(s, svc)
	return s
}

// Register adds the quiz tools to s.
func Register(s *server.MCPServer, svc *quiz.Service) {
	suites := NewListSuitesTool(svc)
	s.AddTool(suites.Definition(), suites.Handle)

	score := NewScoreTool(svc)
	s.AddTool(score.Definition(), score.Handle)

	result := NewResultTool(svc)
	s.AddTool(result.Definition(), result.Handle)
}

// ListSuitesTool handles the list_suites MCP tool.
type ListSuitesTool struct {
	svc *quiz.Service
}

// NewListSuitesTool creates a ListSuitesTool.
func NewListSuitesTool(svc *quiz.Service) *ListSuitesTool {
	return &ListSuitesTool{svc: svc}
}

// Definition returns the MCP tool definition for list_suites.
func (t *ListSuitesTool) Definition() mcp.Tool {
	return mcp.NewTool("list_suites",
		mcp.WithDescription("List the loaded question suites with their question and dimension counts."),
	)
}

// Handle processes the list_suites tool call.
func (t *ListSuitesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := t.svc.Snapshot()

	var b strings.Builder
	fmt.Fprintf(&b, "Loaded %d suites (default: %s)\n\n", len(snap.Suites), snap.Default.ID)
	for _, s := range snap.Summaries() {
		fmt.Fprintf(&b, "- **%s** (%s) v%s: %d questions, %d dimensions\n",
			s.ID, s.Name, s.Version, s.TotalQuestions, s.DimensionCount)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ScoreTool handles the score_answers MCP tool.
type ScoreTool struct {
	svc *quiz.Service
}

// NewScoreTool creates a ScoreTool.
func NewScoreTool(svc *quiz.Service) *ScoreTool {
	return &ScoreTool{svc: svc}
}

// Definition returns the MCP tool definition for score_answers.
func (t *ScoreTool) Definition() mcp.Tool {
	return mcp.NewTool("score_answers",
		mcp.WithDescription(
			"Score a full set of answers against a suite and store the report. "+
				"Returns the summary with the result id used by get_result.",
		),
		mcp.WithString("suite_id",
			mcp.Description("Suite id; empty means the default suite"),
		),
		mcp.WithString("answers_json",
			mcp.Required(),
			mcp.Description(`JSON array of {"subject_id": <question id>, "select_score": <option score>}`),
		),
	)
}

// Handle processes the score_answers tool call.
func (t *ScoreTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	answers := req.GetString("answers_json", "")
	if strings.TrimSpace(answers) == "" {
		return mcp.NewToolResultError("'answers_json' is required"), nil
	}

	ack, err := t.svc.Submit(ctx, req.GetString("suite_id", ""), json.RawMessage(answers))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scoring failed: %v", userMessage(err))), nil
	}
	return jsonResult(ack)
}

// ResultTool handles the get_result MCP tool.
type ResultTool struct {
	svc *quiz.Service
}

// NewResultTool creates a ResultTool.
func NewResultTool(svc *quiz.Service) *ResultTool {
	return &ResultTool{svc: svc}
}

// Definition returns the MCP tool definition for get_result.
func (t *ResultTool) Definition() mcp.Tool {
	return mcp.NewTool("get_result",
		mcp.WithDescription("Fetch the full report of a stored result."),
		mcp.WithString("suite_id",
			mcp.Description("Suite id the result was scored against; empty matches any suite"),
		),
		mcp.WithString("result_id",
			mcp.Required(),
			mcp.Description("Result id returned by score_answers"),
		),
	)
}

// Handle processes the get_result tool call.
func (t *ResultTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resultID := req.GetString("result_id", "")
	if resultID == "" {
		return mcp.NewToolResultError("'result_id' is required"), nil
	}

	suiteID := req.GetString("suite_id", "")
	var (
		record any
		err    error
	)
	if suiteID == "" {
		record, err = t.svc.LegacyResult(ctx, resultID)
	} else {
		record, err = t.svc.Result(ctx, suiteID, resultID)
	}
	if err != nil {
		return mcp.NewToolResultError(userMessage(err)), nil
	}
	return jsonResult(record)
}
