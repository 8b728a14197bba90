package frontend

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ZanzyTHEbar/elkquiz/internal/errors"
	"github.com/ZanzyTHEbar/elkquiz/internal/security"
)

const indexHTML = `<!doctype html><html><head><link rel="stylesheet" href="/style.css"></head>` +
	`<body><script src="/app.js"></script></body></html>`

func newRouter(t *testing.T, publicFS fstest.MapFS) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tmpl, err := LoadIndexTemplate(publicFS)
	require.NoError(t, err)

	r := gin.New()
	r.Use(apperrors.ErrorHandler(), security.CSPMiddleware())
	r.GET("/favicon.ico", FaviconHandler(publicFS))
	r.NoRoute(NewStaticHandler(publicFS, tmpl))
	return r
}

func get(r http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestIndexGetsNonce(t *testing.T) {
	r := newRouter(t, fstest.MapFS{
		"index.html": {Data: []byte(indexHTML)},
		"app.js":     {Data: []byte("console.log(1)")},
	})

	rec := get(r, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Body.String(), `<script nonce="`)
	assert.Contains(t, rec.Body.String(), `<link nonce="`)

	policy := rec.Header().Get("Content-Security-Policy")
	assert.Contains(t, policy, "'nonce-")
}

func TestStaticFiles(t *testing.T) {
	r := newRouter(t, fstest.MapFS{
		"index.html": {Data: []byte(indexHTML)},
		"app.js":     {Data: []byte("console.log(1)")},
		"css/a.css":  {Data: []byte("body{}")},
	})

	rec := get(r, "/app.js")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "console.log(1)", rec.Body.String())
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))

	assert.Equal(t, http.StatusOK, get(r, "/css/a.css").Code)
	assert.Equal(t, http.StatusNotFound, get(r, "/css").Code, "directories are not listed")
	assert.Equal(t, http.StatusNotFound, get(r, "/missing.js").Code)
	assert.Equal(t, http.StatusNotFound, get(r, "/api/unknown").Code)

	rec = get(r, "/../../etc/passwd")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMissingIndex(t *testing.T) {
	r := newRouter(t, fstest.MapFS{"app.js": {Data: []byte("x")}})
	assert.Equal(t, http.StatusNotFound, get(r, "/").Code)
}

func TestFavicon(t *testing.T) {
	r := newRouter(t, fstest.MapFS{})
	assert.Equal(t, http.StatusNoContent, get(r, "/favicon.ico").Code)

	r = newRouter(t, fstest.MapFS{"favicon.ico": {Data: []byte{0, 0, 1, 0}}})
	rec := get(r, "/favicon.ico")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/x-icon", rec.Header().Get("Content-Type"))
}

func TestOpenPublicDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte(indexHTML), 0o644))

	publicFS, err := OpenPublicDir(dir)
	require.NoError(t, err)
	tmpl, err := LoadIndexTemplate(publicFS)
	require.NoError(t, err)
	assert.NotNil(t, tmpl)

	_, err = OpenPublicDir(filepath.Join(dir, "missing"))
	assert.Error(t, err)
	_, err = OpenPublicDir(filepath.Join(dir, "index.html"))
	assert.Error(t, err)
}
