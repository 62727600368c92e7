package web

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

//go:embed templates/*.html templates/partials/*.html
var templateFS embed.FS

type AppInfo struct {
	Name        string
	Institution string
	Version     string
}

// Chrome is the signed-in header: who is logged in and which sections the
// navigation offers.
type Chrome struct {
	Name               string
	Designation        string
	Role               string
	RoleBadge          string
	Department         string
	Welcome            string
	DepartmentBanner   string
	RegistrationNotice string
	Nav                map[string]bool
	ShowCreateActions  bool
}

type Flash struct {
	Level   string
	Message string
}

type Page struct {
	Title     string
	Active    string
	App       AppInfo
	Chrome    *Chrome
	CSRFField template.HTML
	Flash     *Flash
	Data      any
}

// Denied is the data of the access-denied page.
type Denied struct {
	Section string
	Role    string
}

type ErrorPage struct {
	Code    string
	Message string
}

var funcs = template.FuncMap{
	"comma": func(v any) string {
		switch n := v.(type) {
		case int:
			return humanize.Comma(int64(n))
		case int64:
			return humanize.Comma(n)
		case float64:
			return humanize.CommafWithDigits(n, 1)
		default:
			return fmt.Sprint(v)
		}
	},
	"ago": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return humanize.Time(t)
	},
	"longDate": func(t time.Time) string {
		if t.IsZero() {
			return "TBA"
		}
		return t.Format("Monday, January 2, 2006")
	},
	"shortDate": func(t time.Time) string {
		if t.IsZero() {
			return "TBA"
		}
		return t.Format("Jan 2, 2006")
	},
	"isoDate": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02")
	},
	"json": func(v any) (template.JS, error) {
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return template.JS(b), nil
	},
	"orDefault": func(fallback, v string) string {
		if strings.TrimSpace(v) == "" {
			return fallback
		}
		return v
	},
}

// Renderer holds one parsed template set per page, each combining the
// layout, the shared partials and the page itself.
type Renderer struct {
	pages     map[string]*template.Template
	fragments *template.Template
}

func NewRenderer() (*Renderer, error) {
	partials, err := fs.Glob(templateFS, "templates/partials/*.html")
	if err != nil {
		return nil, err
	}

	fragments, err := template.New("fragments").Funcs(funcs).ParseFS(templateFS, partials...)
	if err != nil {
		return nil, fmt.Errorf("parse partials: %w", err)
	}

	pageFiles, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(pageFiles))
	for _, file := range pageFiles {
		name := path.Base(file)
		if name == "layout.html" {
			continue
		}
		files := append([]string{"templates/layout.html"}, partials...)
		files = append(files, file)
		tpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, files...)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[name] = tpl
	}

	return &Renderer{pages: pages, fragments: fragments}, nil
}

func (r *Renderer) Render(w io.Writer, name string, page Page) error {
	tpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return tpl.ExecuteTemplate(w, "layout.html", page)
}

func (r *Renderer) RenderFragment(w io.Writer, name string, data any) error {
	return r.fragments.ExecuteTemplate(w, name, data)
}

// Pages lists the page template names in sorted order.
func (r *Renderer) Pages() []string {
	names := make([]string, 0, len(r.pages))
	for name := range r.pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
