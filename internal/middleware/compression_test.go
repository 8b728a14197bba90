package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCompressedRouter(cm *CompressionMiddleware) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(cm.Handler())
	r.GET("/big", func(c *gin.Context) {
		c.String(http.StatusOK, strings.Repeat("维度", 1000))
	})
	r.GET("/small", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	r.GET("/missing", func(c *gin.Context) {
		c.String(http.StatusNotFound, strings.Repeat("x", 4096))
	})
	r.GET("/empty", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func request(r http.Handler, path, acceptEncoding string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if acceptEncoding != "" {
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCompressesLargeResponses(t *testing.T) {
	cm := NewCompressionMiddleware(DefaultCompressionConfig())
	r := newCompressedRouter(cm)

	rec := request(r, "/big", "gzip, deflate")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	assert.Equal(t, "Accept-Encoding", rec.Header().Get("Vary"))

	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("维度", 1000), string(plain))

	stats := cm.GetStats()
	assert.EqualValues(t, 1, stats["compressed_requests"])
	assert.Less(t, stats["compression_ratio"].(float64), 1.0)
}

func TestSkipsCompression(t *testing.T) {
	r := newCompressedRouter(NewCompressionMiddleware(DefaultCompressionConfig()))

	tests := []struct {
		name, path, accept string
		status             int
	}{
		{"no accept header", "/big", "", http.StatusOK},
		{"gzip refused", "/big", "gzip;q=0", http.StatusOK},
		{"below min size", "/small", "gzip", http.StatusOK},
		{"non-200", "/missing", "gzip", http.StatusNotFound},
		{"no body", "/empty", "gzip", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := request(r, tt.path, tt.accept)
			assert.Equal(t, tt.status, rec.Code)
			assert.Empty(t, rec.Header().Get("Content-Encoding"))
		})
	}

	rec := request(r, "/small", "gzip")
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
}

func TestErrorsAfterCompressionStillRender(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Next()
		if len(c.Errors) > 0 && !c.Writer.Written() {
			c.JSON(http.StatusBadRequest, gin.H{"error": c.Errors.Last().Error()})
		}
	})
	r.Use(NewCompressionMiddleware(DefaultCompressionConfig()).Handler())
	r.GET("/fail", func(c *gin.Context) {
		_ = c.Error(io.ErrUnexpectedEOF)
	})

	rec := request(r, "/fail", "gzip")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unexpected EOF")
}
