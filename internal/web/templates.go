package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/libraryhub/libraryhub-web/internal/domain"
	"github.com/libraryhub/libraryhub-web/internal/nav"
	"github.com/libraryhub/libraryhub-web/internal/watcher"
)

//go:embed templates/*.html
var embedded embed.FS

// Shared files are parsed into every page set.
const (
	layoutFile   = "layout.html"
	partialsGlob = "*_card.html"
)

var funcs = template.FuncMap{
	"can": func(role domain.Role, c string) bool {
		return nav.Can(role, nav.Capability(c))
	},
	"roleName": nav.RoleName,
	"lower":    strings.ToLower,
	"years": func(current string) []choice {
		return choices(domain.StudyYears, current)
	},
	"semesters": func(current string) []choice {
		return choices(domain.Semesters, current)
	},
}

type choice struct {
	Value    string
	Selected bool
}

// choices lists the form options with current selected. A stored value the
// list does not know is kept as an extra option so editing preserves it.
func choices(values []string, current string) []choice {
	out := make([]choice, 0, len(values)+1)
	found := current == ""
	for _, v := range values {
		out = append(out, choice{Value: v, Selected: v == current})
		found = found || v == current
	}
	if !found {
		out = append(out, choice{Value: current, Selected: true})
	}
	return out
}

// Templates holds one parsed set per page. Each set is the layout, the card
// partials and the page file, so every page can define its own "content".
type Templates struct {
	src    fs.FS
	logger *slog.Logger

	mu    sync.RWMutex
	pages map[string]*template.Template
}

// NewTemplates parses the embedded templates, or the ones under dir when dir
// is set.
func NewTemplates(dir string, logger *slog.Logger) (*Templates, error) {
	var src fs.FS
	if dir != "" {
		src = os.DirFS(dir)
	} else {
		sub, err := fs.Sub(embedded, "templates")
		if err != nil {
			return nil, err
		}
		src = sub
	}

	t := &Templates{src: src, logger: logger}
	if err := t.Reload(); err != nil {
		return nil, err
	}
	return t, nil
}

// Reload re-parses every page. On error the previous set stays in use.
func (t *Templates) Reload() error {
	files, err := fs.Glob(t.src, "*.html")
	if err != nil {
		return fmt.Errorf("list templates: %w", err)
	}

	base, err := template.New(layoutFile).Funcs(funcs).ParseFS(t.src, layoutFile, partialsGlob)
	if err != nil {
		return fmt.Errorf("parse layout: %w", err)
	}

	pages := make(map[string]*template.Template, len(files))
	for _, f := range files {
		if f == layoutFile || isPartial(f) {
			continue
		}
		set, err := base.Clone()
		if err != nil {
			return err
		}
		if _, err := set.ParseFS(t.src, f); err != nil {
			return fmt.Errorf("parse %s: %w", f, err)
		}
		pages[strings.TrimSuffix(f, ".html")] = set
	}

	t.mu.Lock()
	t.pages = pages
	t.mu.Unlock()
	return nil
}

func isPartial(name string) bool {
	ok, _ := path.Match(partialsGlob, name)
	return ok
}

// Render executes page into a buffer first so a template error never leaves
// a half-written response.
func (t *Templates) Render(w http.ResponseWriter, status int, page string, data any) error {
	t.mu.RLock()
	set, ok := t.pages[page]
	t.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}

	var buf bytes.Buffer
	if err := set.ExecuteTemplate(&buf, layoutFile, data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Watch reloads the templates whenever a file under dir settles. It blocks
// until ctx is done.
func (t *Templates) Watch(ctx context.Context, dir string) error {
	w, err := watcher.New(t.logger, watcher.Options{Extensions: []string{".html"}})
	if err != nil {
		return err
	}
	defer w.Stop()

	if err := w.Watch(dir); err != nil {
		return fmt.Errorf("watch templates: %w", err)
	}
	go func() { _ = w.Start(ctx) }()

	t.logger.Info("watching templates for changes", "dir", dir)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events():
			if !ok {
				return nil
			}
			if err := t.Reload(); err != nil {
				t.logger.Error("template reload failed", "path", ev.Path, "error", err)
				continue
			}
			t.logger.Info("templates reloaded", "path", ev.Path, "change", ev.Type.String())
		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			t.logger.Warn("template watcher error", "error", err)
		}
	}
}
