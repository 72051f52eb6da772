// Package build sequences a whole site build: configuration, renderer
// environment, collections, static copy, the concurrent page render, and
// the production finishing pipeline.
package build

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/FoxGroveMedia/campsite/internal/assets"
	"github.com/FoxGroveMedia/campsite/internal/config"
	"github.com/FoxGroveMedia/campsite/internal/data"
	"github.com/FoxGroveMedia/campsite/internal/render"
	"github.com/FoxGroveMedia/campsite/internal/urlutil"
)

// Options selects the build flavor.
type Options struct {
	// Dev skips image compression, minification and cache-busting for
	// rebuild speed.
	Dev bool
	// Hooks run once against the renderer environment before rendering.
	Hooks []render.Hook
}

// Result summarizes one build.
type Result struct {
	RenderResult
	StaticCopied int
	BytesSaved   int64
}

// Run executes the full build sequence against the output directory, which
// it owns exclusively for the duration.
func Run(cfg *config.Config, opts Options) (*Result, error) {
	env := render.NewEnv(cfg)
	env.RunHooks(opts.Hooks)
	env.LoadPartials()

	collections := data.Load(cfg.DataDirs())

	outDir := cfg.OutputDir()
	if err := cleanDir(outDir); err != nil {
		return nil, fmt.Errorf("could not clean output directory: %w", err)
	}

	res := &Result{}
	copied, err := CopyStatic(cfg.StaticDir(), outDir, cfg.ExcludeFiles)
	if err != nil {
		return nil, fmt.Errorf("static copy failed: %w", err)
	}
	res.StaticCopied = copied

	if cfg.CompressPhotos && !opts.Dev {
		saved := assets.CompressImages(outDir, cfg.Compress)
		res.BytesSaved = saved
		slog.Info("image compression done", "saved", urlutil.FormatBytes(saved))
	}

	pages, err := DiscoverPages(cfg, env)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		slog.Warn("no pages found, skipping render and finishing stages", "dir", cfg.PagesDir())
		return res, nil
	}

	res.RenderResult = RenderAll(cfg, env, collections, pages)

	if !opts.Dev {
		if cfg.Minify {
			assets.MinifyCSS(outDir)
			assets.MinifyHTML(outDir)
		}
		if cfg.CacheBust {
			if err := assets.CacheBust(outDir); err != nil {
				slog.Error("cache-busting failed", "error", err)
			}
		}
	}

	if err := writeRobots(cfg, outDir); err != nil {
		slog.Error("could not write robots.txt", "error", err)
	}
	if err := writeSitemap(cfg, outDir); err != nil {
		slog.Error("could not write sitemap.xml", "error", err)
	}

	slog.Info("build complete",
		"rendered", res.Rendered, "copied", res.Copied, "failed", res.Failed,
		"static", res.StaticCopied)
	return res, nil
}

// cleanDir deletes and recreates a directory.
func cleanDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// userProvided reports whether the site author already supplies the named
// file, either in the static directory or directly in the output tree.
func userProvided(cfg *config.Config, outDir, name string) bool {
	for _, dir := range []string{cfg.StaticDir(), outDir} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

func writeRobots(cfg *config.Config, outDir string) error {
	if userProvided(cfg, outDir, "robots.txt") {
		return nil
	}
	content := fmt.Sprintf("User-agent: *\nAllow: /\n\nSitemap: %s/sitemap.xml\n",
		strings.TrimRight(cfg.URL, "/"))
	return os.WriteFile(filepath.Join(outDir, "robots.txt"), []byte(content), 0644)
}

func writeSitemap(cfg *config.Config, outDir string) error {
	if userProvided(cfg, outDir, "sitemap.xml") {
		return nil
	}
	xml, err := assets.Sitemap(outDir, cfg.URL)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outDir, "sitemap.xml"), xml, 0644)
}
