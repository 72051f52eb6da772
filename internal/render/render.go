// Package render unifies the pluggable template backends behind one
// capability interface. The page pipeline depends only on Kind, Renderer,
// and Env; the concrete engines (raw HTML, Markdown, Go templates,
// Mustache) live in their own adapters.
package render

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	highlighting "github.com/yuin/goldmark-highlighting/v2"

	"github.com/FoxGroveMedia/campsite/internal/config"
	"github.com/FoxGroveMedia/campsite/internal/urlutil"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// Context is the binding environment handed to a template.
type Context map[string]any

// Kind is the page variant derived once from a file's extension.
type Kind int

const (
	// KindCopy is the fallthrough for unrecognized extensions: the file is
	// copied to the output verbatim.
	KindCopy Kind = iota
	KindHTML
	KindMarkdown
	KindTemplate
	KindMustache
)

// Renderer is the single capability every engine adapter exposes.
type Renderer interface {
	RenderBody(source string, ctx Context) (string, error)
}

// Hook is a user-supplied function run once per build against the live
// environment, before any page renders. Hooks may register template
// behaviors; their failures are logged, never fatal.
type Hook func(*Env) error

// renderExts lists the extensions tried when a layout reference omits one,
// in lookup order.
var renderExts = []string{".html", ".md", ".markdown", ".tmpl", ".gohtml", ".mustache", ".hbs"}

// Env holds everything shared by the engines for one build: search paths,
// the Markdown converter, the sanitizer policy, registered template funcs,
// and the partials map. It is sealed before the concurrent render phase
// and treated as read-only from then on.
type Env struct {
	cfg      *config.Config
	search   []string
	md       goldmark.Markdown
	policy   *bluemonday.Policy
	funcs    map[string]any
	partials map[string]string
}

// NewEnv constructs the per-build renderer environment.
func NewEnv(cfg *config.Config) *Env {
	return &Env{
		cfg:    cfg,
		search: cfg.SearchPaths(),
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Footnote,
				highlighting.NewHighlighting(highlighting.WithStyle("github")),
			),
			goldmark.WithParserOptions(
				parser.WithASTTransformers(
					util.Prioritized(newMDLinkTransformer(), 100),
				),
			),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
		policy:   bluemonday.UGCPolicy(),
		funcs:    map[string]any{},
		partials: map[string]string{},
	}
}

// KindOf maps an extension to its page variant, honoring the engine
// toggles: a disabled engine's files fall through to verbatim copy.
func (e *Env) KindOf(ext string) Kind {
	switch strings.ToLower(ext) {
	case ".html":
		return KindHTML
	case ".md", ".markdown":
		if !e.cfg.Engines.Markdown {
			return KindCopy
		}
		return KindMarkdown
	case ".tmpl", ".gohtml":
		if !e.cfg.Engines.Template {
			return KindCopy
		}
		return KindTemplate
	case ".mustache", ".hbs":
		if !e.cfg.Engines.Mustache {
			return KindCopy
		}
		return KindMustache
	default:
		return KindCopy
	}
}

// Renderer returns the adapter for a renderable kind, or nil for KindCopy.
func (e *Env) Renderer(kind Kind) Renderer {
	switch kind {
	case KindHTML:
		return htmlRenderer{}
	case KindMarkdown:
		return markdownRenderer{env: e}
	case KindTemplate:
		return templateRenderer{env: e}
	case KindMustache:
		return mustacheRenderer{env: e}
	default:
		return nil
	}
}

// RegisterFunc exposes a template function to the Go-template engine.
// Intended for use from hooks, before rendering starts.
func (e *Env) RegisterFunc(name string, fn any) {
	e.funcs[name] = fn
}

// RunHooks invokes the configured environment hooks. A hook error or panic
// is logged and the build continues.
func (e *Env) RunHooks(hooks []Hook) {
	for i, hook := range hooks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("environment hook panicked", "hook", i, "panic", r)
				}
			}()
			if err := hook(e); err != nil {
				slog.Error("environment hook failed", "hook", i, "error", err)
			}
		}()
	}
}

// LoadPartials reads every file in the partials directory into the shared
// name-to-content map, keyed by base name without extension. Called once
// per build so concurrently rendered pages see one consistent snapshot.
func (e *Env) LoadPartials() {
	dir := e.cfg.PartialsDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			slog.Error("could not read partial", "path", entry.Name(), "error", err)
			continue
		}
		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		e.partials[name] = string(raw)
	}
}

// Partials returns the eagerly loaded partials map.
func (e *Env) Partials() map[string]string { return e.partials }

// engineExts maps a configured engine identifier to the extensions it
// owns.
func engineExts(engine string) []string {
	switch strings.ToLower(engine) {
	case "html":
		return []string{".html"}
	case "markdown", "md":
		return []string{".md", ".markdown"}
	case "template", "gotemplate":
		return []string{".tmpl", ".gohtml"}
	case "mustache", "handlebars", "hbs":
		return []string{".mustache", ".hbs"}
	default:
		return nil
	}
}

// Resolve locates a template file by name across the search roots, in
// priority order. A name without an extension is tried with each supported
// extension appended, the configured default engine's extensions first.
func (e *Env) Resolve(name string) (string, bool) {
	candidates := []string{name}
	if filepath.Ext(name) == "" {
		candidates = candidates[:0]
		preferred := engineExts(e.cfg.DefaultEngine)
		for _, ext := range preferred {
			candidates = append(candidates, name+ext)
		}
		for _, ext := range renderExts {
			skip := false
			for _, p := range preferred {
				if p == ext {
					skip = true
					break
				}
			}
			if !skip {
				candidates = append(candidates, name+ext)
			}
		}
	}
	for _, root := range e.search {
		for _, candidate := range candidates {
			path := filepath.Join(root, candidate)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, true
			}
		}
	}
	return "", false
}

// Markdown converts Markdown source to HTML, applying the sanitizer policy
// when configured. Used both by the Markdown engine and by the per-page
// frontmatter override.
func (e *Env) Markdown(source string) (string, error) {
	var buf bytes.Buffer
	if err := e.md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("markdown conversion failed: %w", err)
	}
	if e.cfg.Sanitize {
		return string(e.policy.SanitizeBytes(buf.Bytes())), nil
	}
	return buf.String(), nil
}

// RenderLayout wraps already-rendered content in the named layout. The
// layout's own extension picks its engine, independent of the page that
// referenced it. Any failure to resolve or render the layout logs and
// returns the content unwrapped.
func (e *Env) RenderLayout(name, content string, ctx Context) string {
	path, ok := e.Resolve(name)
	if !ok {
		slog.Warn("layout not found, emitting unwrapped content", "layout", name)
		return content
	}
	kind := e.KindOf(urlutil.Ext(path))
	renderer := e.Renderer(kind)
	if renderer == nil {
		slog.Warn("layout has no matching engine", "layout", path)
		return content
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		slog.Error("could not read layout", "layout", path, "error", err)
		return content
	}
	// A layout may carry frontmatter of its own; only its body renders.
	_, body, err := SplitFrontmatter(raw)
	if err != nil {
		slog.Error("layout frontmatter is malformed", "layout", path, "error", err)
		return content
	}

	lctx := Context{}
	for k, v := range ctx {
		lctx[k] = v
	}
	lctx["content"] = rawHTML(content)

	out, err := renderer.RenderBody(string(body), lctx)
	if err != nil {
		slog.Error("layout render failed, emitting unwrapped content", "layout", path, "error", err)
		return content
	}
	return out
}
