package server

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"gapdash/internal/logging"
	"gapdash/internal/view"
)

//go:embed templates/index.html
var templates embed.FS

var pageTmpl = template.Must(template.ParseFS(templates, "templates/index.html"))

type pageData struct {
	Title   string
	Views   []viewOption
	Initial view.Selection
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	opts := s.options()
	initial := s.gen.Normalize(SelectionFromQuery(r.URL.Query()))

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, pageData{
		Title:   s.opts.Title,
		Views:   opts.Views,
		Initial: initial,
	}); err != nil {
		logging.ServerError("Render page: %v", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
