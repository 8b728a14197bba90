// Package frontend serves the quiz pages and assets from PUBLIC_DIR.
package frontend

import (
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/ZanzyTHEbar/elkquiz/internal/errors"
	"github.com/ZanzyTHEbar/elkquiz/internal/security"
)

// OpenPublicDir returns dir as a filesystem. A missing dir is an error so the
// server can log it and run API-only.
func OpenPublicDir(dir string) (fs.FS, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("public dir %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("public dir %s is not a directory", dir)
	}
	return os.DirFS(dir), nil
}

// NewStaticHandler serves files from publicFS. "/" renders index.html with
// the request's CSP nonce; anything else must name an existing file. API
// paths never fall through to files.
func NewStaticHandler(publicFS fs.FS, indexTemplate *template.Template) gin.HandlerFunc {
	var fileServer http.Handler
	if publicFS != nil {
		fileServer = http.FileServer(http.FS(publicFS))
	}

	return func(c *gin.Context) {
		reqPath := c.Request.URL.Path
		if strings.HasPrefix(reqPath, "/api/") || (c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
			notFound(c, reqPath)
			return
		}

		if reqPath == "/" || reqPath == "/index.html" {
			if indexTemplate == nil {
				notFound(c, reqPath)
				return
			}
			nonce := security.GetNonce(c)
			if nonce == "" {
				var err error
				if nonce, err = security.GenerateNonce(); err != nil {
					_ = c.Error(apperrors.NewInternalError("csp nonce", err))
					return
				}
			}
			if err := RenderIndex(c, indexTemplate, nonce); err != nil {
				slog.Error("Failed to render index.html", "error", err, "path", reqPath)
				_ = c.Error(apperrors.NewInternalError("render index", err))
			}
			return
		}

		clean := strings.TrimPrefix(path.Clean(reqPath), "/")
		if fileServer == nil || !fs.ValidPath(clean) {
			notFound(c, reqPath)
			return
		}
		if info, err := fs.Stat(publicFS, clean); err != nil || info.IsDir() {
			notFound(c, reqPath)
			return
		}

		c.Header("Cache-Control", "public, max-age=3600")
		fileServer.ServeHTTP(c.Writer, c.Request)
	}
}

// FaviconHandler answers /favicon.ico with 204 when no icon file exists.
func FaviconHandler(publicFS fs.FS) gin.HandlerFunc {
	return func(c *gin.Context) {
		if publicFS != nil {
			if data, err := fs.ReadFile(publicFS, "favicon.ico"); err == nil {
				c.Data(http.StatusOK, "image/x-icon", data)
				return
			}
		}
		c.Status(http.StatusNoContent)
	}
}

func notFound(c *gin.Context, reqPath string) {
	_ = c.Error(apperrors.NewNotFoundError("path", reqPath, "Not Found"))
}
