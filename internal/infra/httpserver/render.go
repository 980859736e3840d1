package httpserver

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/bryanwahyu/compliance-dashboard/internal/domain/analysis"
	"github.com/bryanwahyu/compliance-dashboard/internal/format"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"upload", "loading", "dashboard", "policy", "review", "report"}

type pages struct {
	byName map[string]*template.Template
}

var funcs = template.FuncMap{
	"percent":  format.Percent,
	"ago":      format.Relative,
	"filesize": format.FileSize,
	"band":     analysis.BandFor,
	"lower":    strings.ToLower,
	"join":     strings.Join,
	"severity": func(s analysis.Severity) string { return string(s.Normalize()) },
	"date":     func(t time.Time) string { return t.Format("2006-01-02 15:04") },
	"pretty": func(v any) string {
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return ""
		}
		return string(b)
	},
}

func mustParsePages() *pages {
	p := &pages{byName: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		p.byName[name] = template.Must(template.New("layout.html").Funcs(funcs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html"))
	}
	return p
}

// page is the layout data shared by every page.
type page struct {
	Title   string
	Nav     string
	Now     time.Time
	Refresh int // seconds, 0 = none
	Notice  string
	Error   string
	Data    any
}

// render executes into a buffer first so a template error never leaves a
// half-written page.
func (p *pages) render(w http.ResponseWriter, status int, name string, data page) error {
	var buf bytes.Buffer
	if err := p.byName[name].ExecuteTemplate(&buf, "layout.html", data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}
