package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/elkquiz/internal/catalog"
	"github.com/ZanzyTHEbar/elkquiz/internal/quiz"
	"github.com/ZanzyTHEbar/elkquiz/internal/store"
)

func newTestService(t *testing.T) *quiz.Service {
	t.Helper()
	build := func(id string, keys ...string) *catalog.Suite {
		var questions []catalog.Question
		next := 1
		for _, key := range keys {
			questions = append(questions,
				catalog.Question{ID: next, Dimension: key},
				catalog.Question{ID: next + 1, Dimension: key})
			next += 2
		}
		suite, err := catalog.NewSuite(id, catalog.SuiteFile{ID: id}, questions, nil)
		require.NoError(t, err)
		return suite
	}
	snap, err := catalog.NewSnapshot([]*catalog.Suite{build("alpha", "A", "B"), build("beta", "C")}, catalog.DefaultAdConfig)
	require.NoError(t, err)
	return quiz.NewService(catalog.NewStatic(snap), store.New(8, time.Hour))
}

func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(r *mcp.CallToolResult) string {
	if r == nil {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func answers(n, score int) string {
	items := make([]map[string]int, 0, n)
	for i := 1; i <= n; i++ {
		items = append(items, map[string]int{"subject_id": i, "select_score": score})
	}
	data, _ := json.Marshal(items)
	return string(data)
}

func TestDefinitions(t *testing.T) {
	svc := newTestService(t)

	score := NewScoreTool(svc).Definition()
	assert.Equal(t, "score_answers", score.Name)
	assert.Contains(t, score.InputSchema.Properties, "suite_id")
	assert.Contains(t, score.InputSchema.Required, "answers_json")

	result := NewResultTool(svc).Definition()
	assert.Equal(t, "get_result", result.Name)
	assert.Contains(t, result.InputSchema.Required, "result_id")

	assert.Equal(t, "list_suites", NewListSuitesTool(svc).Definition().Name)
}

func TestListSuites(t *testing.T) {
	res, err := NewListSuitesTool(newTestService(t)).Handle(context.Background(), makeReq(nil))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	text := resultText(res)
	assert.Contains(t, text, "Loaded 2 suites (default: alpha)")
	assert.Contains(t, text, "**beta**")
}

func TestScoreThenFetch(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	res, err := NewScoreTool(svc).Handle(ctx, makeReq(map[string]interface{}{
		"suite_id":     "alpha",
		"answers_json": answers(4, 5),
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(res))

	var ack map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &ack))
	var resultID string
	require.NoError(t, json.Unmarshal(ack["resultId"], &resultID))
	require.NotEmpty(t, resultID)

	tool := NewResultTool(svc)
	for _, suiteID := range []string{"alpha", ""} {
		t.Run(fmt.Sprintf("suite=%q", suiteID), func(t *testing.T) {
			res, err := tool.Handle(ctx, makeReq(map[string]interface{}{
				"suite_id":  suiteID,
				"result_id": resultID,
			}))
			require.NoError(t, err)
			require.False(t, res.IsError, resultText(res))
			assert.Contains(t, resultText(res), resultID)
		})
	}

	res, err = tool.Handle(ctx, makeReq(map[string]interface{}{"suite_id": "beta", "result_id": resultID}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(res), "结果不存在")
}

func TestScoreErrors(t *testing.T) {
	tool := NewScoreTool(newTestService(t))

	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{"missing answers", map[string]interface{}{}, "'answers_json' is required"},
		{"not an array", map[string]interface{}{"answers_json": `{}`}, "answers必须为数组"},
		{"unknown suite", map[string]interface{}{"suite_id": "nope", "answers_json": `[]`}, "套题不存在: nope"},
		{"incomplete", map[string]interface{}{"answers_json": answers(1, 3)}, "答案数量不完整"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tool.Handle(context.Background(), makeReq(tt.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Contains(t, resultText(res), tt.want)
		})
	}
}

func TestNewServerRegistersTools(t *testing.T) {
	s := NewServer(newTestService(t))
	tools := s.ListTools()
	assert.Len(t, tools, 3)
	assert.Contains(t, tools, "score_answers")
}
