// Package types holds the request and response bodies of the HTTP API.
package types

import (
	"encoding/json"

	"github.com/ZanzyTHEbar/elkquiz/internal/analysis"
	"github.com/ZanzyTHEbar/elkquiz/internal/catalog"
)

// SubmitRequest is the body of the submit endpoints. Answers is kept raw so
// item-level problems get their own messages.
type SubmitRequest struct {
	Answers json.RawMessage `json:"answers" swaggertype:"array,object"`
}

// Envelope wraps submit and result payloads.
type Envelope struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Msg     string `json:"msg,omitempty"`
	Data    any    `json:"data"`
}

// ResultResponse documents the result endpoints.
type ResultResponse struct {
	Success bool                   `json:"success"`
	Code    int                    `json:"code"`
	Data    *analysis.ResultRecord `json:"data"`
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Success        bool   `json:"success"`
	Suites         int    `json:"suites"`
	DefaultSuiteID string `json:"defaultSuiteId"`
	StoredResults  int    `json:"storedResults"`
	CatalogVersion uint64 `json:"catalogVersion"`
	RedisEnabled   bool   `json:"redisEnabled"`
}

// ReloadResponse is returned by POST /api/reload.
type ReloadResponse struct {
	Success        bool   `json:"success"`
	Suites         int    `json:"suites"`
	DefaultSuiteID string `json:"defaultSuiteId"`
}

// SuitesResponse is returned by GET /api/suites.
type SuitesResponse struct {
	Success        bool              `json:"success"`
	DefaultSuiteID string            `json:"defaultSuiteId"`
	Data           []catalog.Summary `json:"data"`
}

// AdConfigResponse is returned by GET /api/ad-config.
type AdConfigResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data" swaggertype:"object"`
}

// QuestionsResponse is returned by the questions endpoints.
type QuestionsResponse struct {
	Success bool               `json:"success"`
	Suite   catalog.Summary    `json:"suite"`
	Total   int                `json:"total"`
	Data    []catalog.Question `json:"data"`
}

// ErrorResponse documents the AppError body.
type ErrorResponse struct {
	Success   bool              `json:"success"`
	Code      int               `json:"code"`
	Error     string            `json:"error"`
	Category  string            `json:"category"`
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// NewQuestionsResponse builds the questions payload for suite.
func NewQuestionsResponse(suite *catalog.Suite) QuestionsResponse {
	return QuestionsResponse{
		Success: true,
		Suite:   suite.Summary(),
		Total:   suite.TotalQuestions(),
		Data:    suite.Questions,
	}
}
