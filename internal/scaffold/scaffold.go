// Package scaffold creates new projects and archetype-based content files.
package scaffold

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"github.com/FoxGroveMedia/campsite/internal/config"
	"github.com/FoxGroveMedia/campsite/internal/urlutil"
)

// CreateSite writes a minimal working project skeleton into a new
// directory.
func CreateSite(name string) error {
	mkdir := func(path string) error { return os.MkdirAll(filepath.Join(name, path), 0755) }
	write := func(path, content string) error {
		return os.WriteFile(filepath.Join(name, path), []byte(content), 0644)
	}

	dirs := []string{
		"src/pages", "src/layouts", "src/partials", "src/data",
		"src/archetypes", "public/css",
	}
	for _, dir := range dirs {
		if err := mkdir(dir); err != nil {
			return fmt.Errorf("could not create directory %s: %w", dir, err)
		}
	}

	files := map[string]string{
		config.DefaultFile:          configYamlContent,
		"src/pages/index.md":        indexPageContent,
		"src/layouts/default.tmpl":  defaultLayoutContent,
		"src/partials/nav.tmpl":     navPartialContent,
		"src/archetypes/default.md": archetypeContent,
		"public/css/style.css":      styleContent,
	}
	for path, content := range files {
		if err := write(path, content); err != nil {
			return fmt.Errorf("could not write %s: %w", path, err)
		}
	}

	fmt.Println("Site scaffolded. You can now:")
	fmt.Println("  cd", name)
	fmt.Println("  campsite dev")
	return nil
}

// CreateContent writes a new page of the given type from the archetype
// template, named after the slugified title.
func CreateContent(cfg *config.Config, contentType, title string) error {
	slug := urlutil.Slugify(title)
	if slug == "" {
		return fmt.Errorf("title %q produces an empty slug", title)
	}
	path := filepath.Join(cfg.PagesDir(), contentType, slug+".md")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	source := archetypeContent
	archetypePath := filepath.Join(cfg.Root, cfg.SrcDir, "archetypes", "default.md")
	if raw, err := os.ReadFile(archetypePath); err == nil {
		source = string(raw)
	}

	tmpl, err := template.New("archetype").Parse(source)
	if err != nil {
		return fmt.Errorf("could not parse archetype: %w", err)
	}
	var out bytes.Buffer
	err = tmpl.Execute(&out, struct {
		Title string
		Date  string
	}{Title: title, Date: urlutil.FormatDate(time.Now())})
	if err != nil {
		return fmt.Errorf("could not execute archetype: %w", err)
	}
	if err := os.WriteFile(path, out.Bytes(), 0644); err != nil {
		return err
	}
	fmt.Println("Created:", path)
	return nil
}

const configYamlContent = `name: My Campsite
url: https://example.com
minify: true
cacheBust: true
`

const indexPageContent = `---
layout: default
title: Home
---

# Welcome

Your site is up. Edit ` + "`src/pages/index.md`" + ` to get started.
`

const defaultLayoutContent = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{.title}}</title>
  <link rel="stylesheet" href="/css/style.css">
</head>
<body>
  {{template "nav" .}}
  <main>{{.content}}</main>
</body>
</html>
`

const navPartialContent = `<nav>
  <a href="/">home</a>
</nav>
`

const archetypeContent = `---
layout: default
title: {{.Title}}
date: {{.Date}}
---

Write something meaningful here.
`

const styleContent = `body {
  font-family: sans-serif;
  max-width: 700px;
  margin: 2em auto;
  padding: 0 1em;
  line-height: 1.6;
  color: #222;
}
nav a { color: #444; text-decoration: none; margin-right: 0.5em; }
nav a:hover { text-decoration: underline; }
`
