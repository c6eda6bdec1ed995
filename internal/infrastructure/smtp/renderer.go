package smtp

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"sort"

	"github.com/go-notification-api/internal/domain"
)

//go:embed templates/*.html
var embedded embed.FS

// Renderer executes the email templates. Placeholders are map keys, e.g. {{.toName}}.
type Renderer struct {
	set *template.Template
}

// NewRenderer parses every *.html in dir, or the built-in set when dir is empty.
func NewRenderer(dir string) (*Renderer, error) {
	var fsys fs.FS
	if dir == "" {
		sub, err := fs.Sub(embedded, "templates")
		if err != nil {
			return nil, err
		}
		fsys = sub
	} else {
		fsys = os.DirFS(dir)
	}
	set, err := template.New("email").Option("missingkey=zero").ParseFS(fsys, "*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w: %w", domain.ErrTemplate, err)
	}
	return &Renderer{set: set}, nil
}

func (r *Renderer) Render(name string, replacements map[string]string) (string, error) {
	t := r.set.Lookup(name)
	if t == nil {
		return "", fmt.Errorf("template %s not found: %w", name, domain.ErrTemplate)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, replacements); err != nil {
		return "", fmt.Errorf("execute %s: %w: %w", name, domain.ErrTemplate, err)
	}
	return buf.String(), nil
}

// Names lists the templates available to Render.
func (r *Renderer) Names() []string {
	var names []string
	for _, t := range r.set.Templates() {
		if t.Name() != "email" {
			names = append(names, t.Name())
		}
	}
	sort.Strings(names)
	return names
}
