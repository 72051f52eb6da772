// Package assets is the post-build finishing pipeline: minification,
// content-hash cache-busting with HTML reference rewriting, sitemap
// generation and image conversion. Every stage operates on the
// already-rendered output tree and treats per-file failures as non-fatal.
package assets

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
)

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.Add("text/html", &html.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
	})
	return m
}

// MinifyCSS rewrites every .css file under dir in place. A failing file is
// logged and left untouched.
func MinifyCSS(dir string) int {
	return minifyExt(dir, ".css", "text/css")
}

// MinifyHTML rewrites every .html file under dir in place, collapsing
// whitespace and stripping comments without touching embedded script or
// style content.
func MinifyHTML(dir string) int {
	return minifyExt(dir, ".html", "text/html")
}

func minifyExt(dir, ext, mediatype string) int {
	m := newMinifier()
	done := 0
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ext {
			return err
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			slog.Error("could not read file for minification", "path", path, "error", err)
			return nil
		}
		out, err := m.Bytes(mediatype, raw)
		if err != nil {
			slog.Error("minification failed, keeping original", "path", path, "error", err)
			return nil
		}
		if err := os.WriteFile(path, out, 0644); err != nil {
			slog.Error("could not write minified file", "path", path, "error", err)
			return nil
		}
		done++
		return nil
	})
	return done
}
