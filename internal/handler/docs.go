package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"html"
	"net/http"
)

const specPath = "/docs/openapi.yaml"

// DocsHandler serves the embedded OpenAPI description and a Swagger UI page
// pointing at it.
type DocsHandler struct {
	spec []byte
	etag string
	page []byte
}

func NewDocsHandler(title string, spec []byte) *DocsHandler {
	sum := sha256.Sum256(spec)
	return &DocsHandler{
		spec: spec,
		etag: `"` + hex.EncodeToString(sum[:8]) + `"`,
		page: []byte(fmt.Sprintf(swaggerHTML, html.EscapeString(title), specPath)),
	}
}

func (h *DocsHandler) SpecPath() string { return specPath }

func (h *DocsHandler) UI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(h.page)
}

func (h *DocsHandler) Spec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("ETag", h.etag)
	w.Header().Set("Cache-Control", "no-cache")
	if r.Header.Get("If-None-Match") == h.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Write(h.spec)
}

const swaggerHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>%s</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: "%s",
      dom_id: "#swagger-ui",
      presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
      layout: "BaseLayout"
    });
  </script>
</body>
</html>`
