package api

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// openAPIPath OpenAPI文档路径，相对于工作目录
var openAPIPath = "docs/api/openapi.yaml"

// registerOpenAPIRoutes 提供 /openapi 与 /docs/ui
func registerOpenAPIRoutes(engine *gin.Engine) {
	engine.GET("/openapi", serveOpenAPI)
	engine.GET("/openapi.yaml", serveOpenAPI)
	engine.GET("/docs/ui", serveSwaggerUI)
}

func serveOpenAPI(c *gin.Context) {
	if _, err := os.Stat(openAPIPath); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "NOT_FOUND",
			"message": "API文档不存在",
		})
		return
	}
	c.Header("Content-Type", "application/yaml; charset=utf-8")
	c.File(openAPIPath)
}

func serveSwaggerUI(c *gin.Context) {
	// swagger-ui 资源走CDN
	cssHref := "https://unpkg.com/swagger-ui-dist@5/swagger-ui.css"
	jsBundle := "https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"

	html := `<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>Scoresheet API</title>
    <link rel="stylesheet" href="` + cssHref + `">
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="` + jsBundle + `" crossorigin></script>
    <script>
      window.ui = SwaggerUIBundle({ url: '/openapi', dom_id: '#swagger-ui', deepLinking: true })
    </script>
  </body>
</html>`
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}
