package render

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/cbroglie/mustache"
)

// rawHTML marks a rendered fragment as safe so the Go-template engine does
// not re-escape it when a layout interpolates {{.content}}.
func rawHTML(s string) template.HTML { return template.HTML(s) }

// htmlRenderer passes raw HTML through untouched.
type htmlRenderer struct{}

func (htmlRenderer) RenderBody(source string, _ Context) (string, error) {
	return source, nil
}

// markdownRenderer converts Markdown to HTML via the shared goldmark
// instance.
type markdownRenderer struct {
	env *Env
}

func (r markdownRenderer) RenderBody(source string, _ Context) (string, error) {
	return r.env.Markdown(source)
}

// templateRenderer executes Go html/template source. Partials are attached
// as associated templates so pages can reach them with {{template "name"}};
// a partial that is not valid Go-template syntax is skipped for this engine.
type templateRenderer struct {
	env *Env
}

func (r templateRenderer) RenderBody(source string, ctx Context) (string, error) {
	root := template.New("page").Funcs(template.FuncMap(r.env.funcs))
	for name, src := range r.env.partials {
		if _, err := root.New(name).Parse(src); err != nil {
			slog.Debug("partial is not a Go template, skipping", "partial", name, "error", err)
		}
	}
	tmpl, err := root.Parse(source)
	if err != nil {
		return "", fmt.Errorf("template parse failed: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]any(ctx)); err != nil {
		return "", fmt.Errorf("template execution failed: %w", err)
	}
	return buf.String(), nil
}

// mustacheRenderer renders logic-less templates. The eagerly loaded
// partials map backs a StaticProvider, so {{> name}} resolves without any
// per-page file I/O.
type mustacheRenderer struct {
	env *Env
}

func (r mustacheRenderer) RenderBody(source string, ctx Context) (string, error) {
	provider := &mustache.StaticProvider{Partials: r.env.partials}
	out, err := mustache.RenderPartials(source, provider, map[string]any(ctx))
	if err != nil {
		return "", fmt.Errorf("mustache render failed: %w", err)
	}
	return out, nil
}
