package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/gin-gonic/gin"

	apperrors "github.com/ZanzyTHEbar/elkquiz/internal/errors"
)

const nonceKey = "csp-nonce"

// Ad script and frame hosts used by the result page's ad slots.
const (
	adScriptHost = "https://pagead2.googlesyndication.com"
	adFrameHosts = "https://googleads.g.doubleclick.net https://tpc.googlesyndication.com"
)

// GenerateNonce generates a cryptographically secure random nonce
func GenerateNonce() (string, error) {
	nonceBytes := make([]byte, 32)
	if _, err := rand.Read(nonceBytes); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return base64.StdEncoding.EncodeToString(nonceBytes), nil
}

// CSPMiddleware generates a nonce per page request and sets the CSP header.
func CSPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		nonce, err := GenerateNonce()
		if err != nil {
			_ = c.Error(apperrors.NewInternalError("csp nonce", err))
			c.Abort()
			return
		}

		c.Set(nonceKey, nonce)
		c.Header("Content-Security-Policy", BuildCSPPolicy(nonce))
		c.Next()
	}
}

// GetNonce retrieves the nonce from the Gin context
func GetNonce(c *gin.Context) string {
	if nonce, exists := c.Get(nonceKey); exists {
		if nonceStr, ok := nonce.(string); ok {
			return nonceStr
		}
	}
	return ""
}

// BuildCSPPolicy constructs the Content Security Policy with the provided
// nonce. 'strict-dynamic' lets the page load the ad script it injects.
func BuildCSPPolicy(nonce string) string {
	return fmt.Sprintf(
		"default-src 'self'; "+
			"script-src 'self' 'nonce-%s' 'strict-dynamic' %s; "+
			"style-src 'self' 'nonce-%s' 'unsafe-inline'; "+
			"img-src 'self' data: https:; "+
			"font-src 'self' data:; "+
			"connect-src 'self' %s; "+
			"frame-src %s; "+
			"frame-ancestors 'none'; "+
			"base-uri 'self'; "+
			"form-action 'self'",
		nonce, adScriptHost, nonce, adScriptHost, adFrameHosts,
	)
}
