package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/wolfman30/eyeclinic-web/internal/booking"
)

//go:embed templates/*.html static/*
var assets embed.FS

// View is the per-page side effect descriptor applied by the layout: the
// document title and whether the page scrolls back to the top.
type View struct {
	Title       string
	ResetScroll bool
}

// pageData is what every template receives.
type pageData struct {
	View       View
	ClinicName string
	Year       int
	Nav        string
	Content    any
}

var templateFuncs = template.FuncMap{
	"longDate":    booking.LongDate,
	"weekdayDate": booking.WeekdayDate,
	"trustedHTML": func(s string) template.HTML { return template.HTML(s) },
	"progress": func(step booking.Step) int {
		return int(step-booking.FirstStep) * 100 / int(booking.LastStep-booking.FirstStep)
	},
	"eqStep": func(a, b booking.Step) bool { return a == b },
}

// Renderer executes the embedded page templates inside the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every page template against the layout.
func NewRenderer() (*Renderer, error) {
	files, err := fs.Glob(assets, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("web: list templates: %w", err)
	}
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, file := range files {
		name := strings.TrimSuffix(path.Base(file), ".html")
		if name == "layout" {
			continue
		}
		t, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(assets, "templates/layout.html", file)
		if err != nil {
			return nil, fmt.Errorf("web: parse %s: %w", file, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render writes page with status. The page is rendered into a buffer first so
// a template error never produces a half-written response.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data pageData) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("web: unknown page %q", page)
	}
	if data.Year == 0 {
		data.Year = time.Now().Year()
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		return fmt.Errorf("web: render %s: %w", page, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// StaticHandler serves the embedded stylesheet and script.
func StaticHandler() http.Handler {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
