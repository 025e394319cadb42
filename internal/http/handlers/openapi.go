package handlers

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"html/template"
	"net/http"
	"sync"
)

//go:embed openapi.json
var openAPIDocument []byte

var docsPage = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <title>{{.Title}} {{.Version}}</title>
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <style>
      body { margin: 0; padding: 0; }
      redoc { display: block; height: 100vh; }
    </style>
  </head>
  <body>
    <redoc spec-url="/v1/openapi.json"></redoc>
    <script src="https://cdn.jsdelivr.net/npm/redoc@2.2.0/bundles/redoc.standalone.js"></script>
  </body>
</html>`))

type openAPIInfo struct {
	Title   string `json:"title"`
	Version string `json:"version"`
	etag    string
}

// apiInfo is read once from the embedded document.
var apiInfo = sync.OnceValue(func() openAPIInfo {
	var doc struct {
		Info openAPIInfo `json:"info"`
	}
	_ = json.Unmarshal(openAPIDocument, &doc)
	sum := sha256.Sum256(openAPIDocument)
	doc.Info.etag = `"` + hex.EncodeToString(sum[:8]) + `"`
	return doc.Info
})

// OpenAPIJSON serves the embedded OpenAPI document with a content ETag.
func (a *App) OpenAPIJSON(w http.ResponseWriter, r *http.Request) {
	etag := apiInfo().etag
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, max-age=300")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openAPIDocument)
}

// OpenAPIDocs serves a Redoc page titled after the document's info block.
func (a *App) OpenAPIDocs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := docsPage.Execute(w, apiInfo()); err != nil {
		a.Logger.Error().Err(err).Msg("http: render docs")
	}
}
