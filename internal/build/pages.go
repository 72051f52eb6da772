package build

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/FoxGroveMedia/campsite/internal/config"
	"github.com/FoxGroveMedia/campsite/internal/data"
	"github.com/FoxGroveMedia/campsite/internal/render"
	"github.com/FoxGroveMedia/campsite/internal/urlutil"
)

// Page is one source file under the pages root, re-derived from the source
// tree on every build and discarded afterwards.
type Page struct {
	SourcePath string // absolute path of the source file
	RelPath    string // path relative to the pages root
	Kind       render.Kind
	OutputRel  string // output-relative path; extension rewritten to .html for rendered kinds
	URL        string // canonical site URL
}

// DiscoverPages walks the pages tree and classifies every file by
// extension. Dotfiles and dot-directories are skipped.
func DiscoverPages(cfg *config.Config, env *render.Env) ([]Page, error) {
	root := cfg.PagesDir()
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}

	var pages []Page
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		ext := urlutil.Ext(d.Name())
		kind := env.KindOf(ext)
		outputRel := rel
		if kind != render.KindCopy {
			outputRel = strings.TrimSuffix(rel, filepath.Ext(rel)) + ".html"
		}
		pages = append(pages, Page{
			SourcePath: path,
			RelPath:    rel,
			Kind:       kind,
			OutputRel:  outputRel,
			URL:        urlutil.URLPath(outputRel),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not walk pages directory %s: %w", root, err)
	}
	return pages, nil
}

// RenderResult aggregates the per-page outcomes of one render fan-out.
type RenderResult struct {
	Rendered int
	Copied   int
	Failed   int
}

// RenderAll processes every page concurrently. Pages are independent by
// construction: the collections map and the renderer environment are
// read-only during the fan-out, and each page owns its output file.
func RenderAll(cfg *config.Config, env *render.Env, collections data.Collections, pages []Page) RenderResult {
	type outcome struct {
		page Page
		err  error
	}
	results := make(chan outcome, len(pages))

	var wg sync.WaitGroup
	for _, page := range pages {
		wg.Add(1)
		go func(p Page) {
			defer wg.Done()
			results <- outcome{page: p, err: renderPage(cfg, env, collections, p)}
		}(page)
	}
	wg.Wait()
	close(results)

	var res RenderResult
	for r := range results {
		switch {
		case r.err != nil:
			slog.Error("page failed", "path", r.page.RelPath, "error", r.err)
			res.Failed++
		case r.page.Kind == render.KindCopy:
			res.Copied++
		default:
			res.Rendered++
		}
	}
	return res
}

// renderPage runs one page through its engine: frontmatter, body render,
// the per-page markdown override, layout composition, and the final write.
func renderPage(cfg *config.Config, env *render.Env, collections data.Collections, page Page) error {
	outPath := filepath.Join(cfg.OutputDir(), page.OutputRel)
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return err
	}

	raw, err := os.ReadFile(page.SourcePath)
	if err != nil {
		return fmt.Errorf("could not read page: %w", err)
	}

	// Unrecognized extensions are copied byte-for-byte.
	if page.Kind == render.KindCopy {
		return os.WriteFile(outPath, raw, 0644)
	}

	meta, body, err := render.SplitFrontmatter(raw)
	if err != nil {
		return fmt.Errorf("frontmatter parse failed: %w", err)
	}

	renderer := env.Renderer(page.Kind)
	ctx := pageContext(cfg, collections, page, meta, "")

	var content string
	if page.Kind == render.KindMarkdown && !markdownOverride(meta, true) {
		// markdown: false suppresses conversion even on a Markdown page.
		content = string(body)
	} else {
		content, err = renderer.RenderBody(string(body), ctx)
		if err != nil {
			return err
		}
		// markdown: true forces Markdown post-processing on any engine.
		if page.Kind != render.KindMarkdown && markdownOverride(meta, false) {
			content, err = env.Markdown(content)
			if err != nil {
				return err
			}
		}
	}

	if layout, ok := meta["layout"].(string); ok && layout != "" {
		ctx = pageContext(cfg, collections, page, meta, content)
		content = env.RenderLayout(layout, content, ctx)
	}

	return os.WriteFile(outPath, []byte(content), 0644)
}

// markdownOverride reads the frontmatter markdown flag, falling back to the
// engine default when absent or not a boolean.
func markdownOverride(meta map[string]any, def bool) bool {
	if v, ok := meta["markdown"].(bool); ok {
		return v
	}
	return def
}

// pageContext assembles the per-page template bindings. Collections are
// spread in first; the reserved keys (site, page, collections, title,
// isActive) are set afterwards and therefore always win on collision.
func pageContext(cfg *config.Config, collections data.Collections, page Page, meta map[string]any, content string) render.Context {
	ctx := render.Context{}
	for k, v := range collections {
		ctx[k] = v
	}

	pageMeta := map[string]any{}
	for k, v := range meta {
		pageMeta[k] = v
	}
	pageMeta["content"] = content
	pageMeta["path"] = page.RelPath
	pageMeta["url"] = page.URL

	title := cfg.Name
	if t, ok := meta["title"].(string); ok && t != "" {
		title = t
	}

	ctx["collections"] = map[string]any(collections)
	ctx["site"] = map[string]any{
		"name":   cfg.Name,
		"url":    cfg.URL,
		"config": cfg,
	}
	ctx["page"] = pageMeta
	ctx["title"] = title
	ctx["isActive"] = func(u string) bool {
		return urlutil.NormalizeURL(u) == urlutil.NormalizeURL(page.URL)
	}
	return ctx
}
