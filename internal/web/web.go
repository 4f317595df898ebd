// Package web serves the bundled single-page UI.
package web

import (
	"embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed static
var staticFS embed.FS

// Register mounts the UI on the router root
func Register(r *gin.Engine) {
	r.GET("/", func(c *gin.Context) {
		data, err := staticFS.ReadFile("static/index.html")
		if err != nil {
			c.String(http.StatusInternalServerError, "UI is unavailable")
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", data)
	})
}
