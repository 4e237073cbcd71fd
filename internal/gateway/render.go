package gateway

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/css/*.css
var staticFS embed.FS

// TemplateRenderer renders HTML pages inside the shared layout.
type TemplateRenderer struct {
	funcs     template.FuncMap
	layoutTpl *template.Template
	cache     map[string]*template.Template
	mu        sync.RWMutex
}

// NewTemplateRenderer parses the layout and prepares the page cache.
func NewTemplateRenderer() (*TemplateRenderer, error) {
	funcs := template.FuncMap{
		"plural": func(n int, one, many string) string {
			if n == 1 {
				return one
			}
			return many
		},
	}

	layoutContent, err := templateFS.ReadFile("templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("failed to read layout template: %w", err)
	}

	layoutTpl, err := template.New("layout").Funcs(funcs).Parse(string(layoutContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout template: %w", err)
	}

	return &TemplateRenderer{
		funcs:     funcs,
		layoutTpl: layoutTpl,
		cache:     make(map[string]*template.Template),
	}, nil
}

// RenderData holds common data for all pages.
type RenderData struct {
	Title string
	Data  any
}

// ResultPage is the data of the result page.
type ResultPage struct {
	Filename string
	Content  string
	Count    int
	Repeat   bool
}

// IndexPage is the data of the upload form page.
type IndexPage struct {
	MaxUploadBytes int64
}

// Render renders page name to w with the given status. Output is buffered
// so a template error never produces a partial page.
func (r *TemplateRenderer) Render(w http.ResponseWriter, status int, name string, data RenderData) error {
	tmpl, err := r.getTemplate(name)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
	return nil
}

func (r *TemplateRenderer) getTemplate(name string) (*template.Template, error) {
	r.mu.RLock()
	tmpl, ok := r.cache[name]
	r.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if tmpl, ok := r.cache[name]; ok {
		return tmpl, nil
	}

	tmpl, err := r.layoutTpl.Clone()
	if err != nil {
		return nil, fmt.Errorf("failed to clone layout template: %w", err)
	}

	content, err := templateFS.ReadFile("templates/" + name)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", name, err)
	}

	if _, err := tmpl.Parse(string(content)); err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	r.cache[name] = tmpl
	return tmpl, nil
}

// StaticHandler serves the embedded stylesheet under /static/.
func StaticHandler() http.Handler {
	subFS, _ := fs.Sub(staticFS, "static")
	return http.StripPrefix("/static/", http.FileServer(http.FS(subFS)))
}
