package security

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	apperrors "github.com/ZanzyTHEbar/elkquiz/internal/errors"
)

const maxIdentifierLength = 128

// SecurityConfig holds security configuration
type SecurityConfig struct {
	MaxBodyBytes   int64         `json:"max_body_bytes"`
	RequestTimeout time.Duration `json:"request_timeout"`
	EnableHSTS     bool          `json:"enable_hsts"`
}

// DefaultSecurityConfig returns secure defaults
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		MaxBodyBytes:   1 << 20,
		RequestTimeout: 30 * time.Second,
	}
}

// SecurityMiddleware bundles the request guards mounted on the API.
type SecurityMiddleware struct {
	config SecurityConfig
}

// NewSecurityMiddleware creates a new security middleware instance
func NewSecurityMiddleware(config SecurityConfig) *SecurityMiddleware {
	return &SecurityMiddleware{config: config}
}

// Config returns the active settings.
func (sm *SecurityMiddleware) Config() SecurityConfig {
	return sm.config
}

// ValidateIdentifier checks a suite or result id taken from the URL.
func ValidateIdentifier(id string) error {
	switch {
	case id == "":
		return errors.New("identifier is empty")
	case len(id) > maxIdentifierLength:
		return errors.New("identifier is too long")
	case !utf8.ValidString(id):
		return errors.New("identifier contains invalid UTF-8 encoding")
	case strings.ContainsAny(id, "\x00/\\"), strings.Contains(id, ".."):
		return errors.New("identifier contains invalid characters")
	}
	return nil
}

// ValidateContentType rejects POST bodies that are not JSON. An empty body
// with no content type is allowed.
func (sm *SecurityMiddleware) ValidateContentType(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.Next()
		return
	}

	contentType := strings.ToLower(c.GetHeader("Content-Type"))
	if contentType == "" || strings.HasPrefix(contentType, "application/json") {
		c.Next()
		return
	}

	appErr := apperrors.NewValidationError("仅支持 application/json 请求体", contentType)
	appErr.HTTPStatus = http.StatusUnsupportedMediaType
	_ = c.Error(appErr)
	c.Abort()
}

// LimitBody caps the request body at MaxBodyBytes.
func (sm *SecurityMiddleware) LimitBody(c *gin.Context) {
	if c.Request.Body != nil && sm.config.MaxBodyBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, sm.config.MaxBodyBytes)
	}
	c.Next()
}

// RequestTimeout enforces request timeout
func (sm *SecurityMiddleware) RequestTimeout(c *gin.Context) {
	if sm.config.RequestTimeout <= 0 {
		c.Next()
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), sm.config.RequestTimeout)
	defer cancel()

	c.Request = c.Request.WithContext(ctx)
	c.Header("X-Timeout", strconv.Itoa(int(sm.config.RequestTimeout.Seconds())))

	c.Next()
}

// SecurityHeaders adds security headers to responses
func (sm *SecurityMiddleware) SecurityHeaders() gin.HandlerFunc {
	return SecurityHeadersMiddleware(sm.config.EnableHSTS)
}

// ReadJSONBody reads the request body as raw JSON. An empty body reads as {}.
func ReadJSONBody(c *gin.Context) (json.RawMessage, error) {
	if c.Request.Body == nil {
		return json.RawMessage("{}"), nil
	}

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			appErr := apperrors.NewValidationError("请求体过大", maxErr.Limit)
			appErr.HTTPStatus = http.StatusRequestEntityTooLarge
			return nil, appErr
		}
		return nil, apperrors.NewValidationError("请求体读取失败", err.Error())
	}

	if len(strings.TrimSpace(string(raw))) == 0 {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid(raw) {
		return nil, apperrors.NewValidationError("JSON解析失败")
	}
	return raw, nil
}
