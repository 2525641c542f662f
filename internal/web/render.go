package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/hpungsan/thoughts/internal/errors"
	"github.com/hpungsan/thoughts/internal/ops"
	"github.com/hpungsan/thoughts/internal/thought"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
	Nav     string // active nav item: "thoughts", "new"
}

// ListPageData is the template data for the record list page.
type ListPageData struct {
	PageData
	Items      []thought.Summary
	Pagination ops.Pagination
	Filter     string // "", "drafts", "final"
}

// ViewPageData is the template data for the read-only record page.
type ViewPageData struct {
	PageData
	Record       *thought.Record
	RenderedHTML template.HTML
	Problems     []string
}

// FormPageData is the template data for the edit form.
type FormPageData struct {
	PageData
	Ref      string // "new" or the record id
	Fields   thought.Fields
	IsDraft  bool
	Emotions []string
	Interval int64 // autosave interval in ms, shown to the user
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
	log       *slog.Logger
}

// NewRenderer creates a Renderer by parsing templates from the given FS.
func NewRenderer(templateFS fs.FS, version string, log *slog.Logger) *Renderer {
	if log == nil {
		log = slog.Default()
	}
	funcMap := template.FuncMap{
		"add":        func(a, b int) int { return a + b },
		"sub":        func(a, b int) int { return a - b },
		"formatTime": formatTime,
		"hasEmotion": func(f thought.Fields, e string) bool { return f.HasEmotion(e) },
		"scale":      scale,
	}

	// Parse layout as the base template
	layoutTmpl := template.Must(template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html"))

	pages := map[string]string{
		"list":  "list.html",
		"view":  "view.html",
		"form":  "form.html",
		"error": "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(layoutTmpl.Clone())
		template.Must(t.ParseFS(templateFS, file))
		templates[name] = t
	}

	return &Renderer{
		templates: templates,
		version:   version,
		log:       log,
	}
}

// renderPage renders a named page template with the given data and HTTP 200 status.
func (r *Renderer) renderPage(w http.ResponseWriter, name string, data any) {
	r.renderPageStatus(w, http.StatusOK, name, data)
}

// renderPageStatus renders a named page template with the given data and HTTP status code.
func (r *Renderer) renderPageStatus(w http.ResponseWriter, status int, name string, data any) {
	t, ok := r.templates[name]
	if !ok {
		r.log.Error("template not found", "template", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		r.log.Error("template execution error", "template", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError renders an error response: JSON for API routes and clients
// that accept it, otherwise the error page.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, err error) {
	tErr := errors.As(err)
	if tErr.Code == errors.ErrInternal || tErr.Code == errors.ErrStoreUnavailable {
		r.log.Error("request failed",
			"method", req.Method,
			"path", req.URL.Path,
			"code", tErr.Code,
			"details", tErr.Details,
		)
	}

	if strings.HasPrefix(req.URL.Path, "/api/") || strings.Contains(req.Header.Get("Accept"), "application/json") {
		renderJSON(w, tErr.Status, map[string]any{
			"error": map[string]any{
				"code":    string(tErr.Code),
				"message": tErr.Message,
				"status":  tErr.Status,
			},
		})
		return
	}

	r.renderPageStatus(w, tErr.Status, "error", ErrorPageData{
		PageData: PageData{
			Title:   fmt.Sprintf("Error %d", tErr.Status),
			Version: r.version,
		},
		StatusCode: tErr.Status,
		Message:    tErr.Message,
	})
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderMarkdown converts markdown text to HTML using goldmark.
// goldmark omits raw HTML by default, so record text cannot inject markup.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// formatTime formats a timestamp as "2006-01-02 15:04" UTC.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04")
}

// scale returns the slider bounds for a scale field.
func scale(name string) int {
	spec, ok := thought.Lookup(name)
	if !ok {
		return 10
	}
	return spec.Max
}
