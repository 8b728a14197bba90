package mcptools

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	apperrors "github.com/ZanzyTHEbar/elkquiz/internal/errors"
)

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// userMessage prefers the AppError message over its coded Error() string.
func userMessage(err error) string {
	if appErr := apperrors.ToAppError(err); appErr != nil && appErr.Message != "" {
		return appErr.Message
	}
	return err.Error()
}
