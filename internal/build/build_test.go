package build

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FoxGroveMedia/campsite/internal/config"
	"github.com/FoxGroveMedia/campsite/internal/render"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Root = t.TempDir()
	cfg.Minify = false
	cfg.CacheBust = false
	require.NoError(t, os.MkdirAll(cfg.PagesDir(), 0755))
	return cfg
}

func writePage(t *testing.T, cfg *config.Config, rel, content string) {
	t.Helper()
	path := filepath.Join(cfg.PagesDir(), rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readOut(t *testing.T, cfg *config.Config, rel string) string {
	t.Helper()
	out, err := os.ReadFile(filepath.Join(cfg.OutputDir(), rel))
	require.NoError(t, err)
	return string(out)
}

func TestHTMLPagePassThrough(t *testing.T) {
	cfg := testConfig(t)
	body := "<!doctype html>\n<p>hello &amp; welcome</p>\n"
	writePage(t, cfg, "index.html", body)

	res, err := Run(cfg, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Rendered)
	assert.Zero(t, res.Failed)
	assert.Equal(t, body, readOut(t, cfg, "index.html"))
}

func TestMarkdownPage(t *testing.T) {
	cfg := testConfig(t)
	writePage(t, cfg, "post.md", "# Heading\n\nsome *text*\n")

	_, err := Run(cfg, Options{})
	require.NoError(t, err)
	out := readOut(t, cfg, "post.html")
	assert.Contains(t, out, "<h1>Heading</h1>")
	assert.Contains(t, out, "<em>text</em>")
}

func TestMarkdownOverrideOnHTMLPage(t *testing.T) {
	cfg := testConfig(t)
	writePage(t, cfg, "page.html", "---\nmarkdown: true\n---\n# Forced\n")

	_, err := Run(cfg, Options{})
	require.NoError(t, err)
	assert.Contains(t, readOut(t, cfg, "page.html"), "<h1>Forced</h1>")
}

func TestMarkdownOverrideOffOnMarkdownPage(t *testing.T) {
	cfg := testConfig(t)
	writePage(t, cfg, "raw.md", "---\nmarkdown: false\n---\n# Not Converted\n")

	_, err := Run(cfg, Options{})
	require.NoError(t, err)
	assert.Contains(t, readOut(t, cfg, "raw.html"), "# Not Converted")
}

func TestLayoutComposition(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.LayoutsDir(), 0755))
	layout := "<title>{{.title}}</title><main>{{.content}}</main>"
	require.NoError(t, os.WriteFile(filepath.Join(cfg.LayoutsDir(), "base.tmpl"), []byte(layout), 0644))
	writePage(t, cfg, "about.md", "---\nlayout: base\ntitle: About\n---\nBody text\n")

	_, err := Run(cfg, Options{})
	require.NoError(t, err)
	out := readOut(t, cfg, "about.html")
	assert.Contains(t, out, "<title>About</title>")
	assert.Contains(t, out, "<main><p>Body text</p>\n</main>")
}

func TestUnknownExtensionCopiesVerbatim(t *testing.T) {
	cfg := testConfig(t)
	writePage(t, cfg, "download.txt", "raw bytes, not a page")

	res, err := Run(cfg, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Copied)
	assert.Equal(t, "raw bytes, not a page", readOut(t, cfg, "download.txt"))
}

func TestCollectionsInContext(t *testing.T) {
	cfg := testConfig(t)
	dataDir := filepath.Join(cfg.Root, cfg.SrcDir, "data")
	require.NoError(t, os.MkdirAll(dataDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "nav.json"), []byte(`{"home":"/"}`), 0644))
	writePage(t, cfg, "index.tmpl", `home is {{.nav.home}} via {{index .collections "nav" "home"}}`)

	_, err := Run(cfg, Options{})
	require.NoError(t, err)
	assert.Equal(t, "home is / via /", readOut(t, cfg, "index.html"))
}

func TestEmptyPageSetShortCircuits(t *testing.T) {
	cfg := testConfig(t)

	res, err := Run(cfg, Options{})
	require.NoError(t, err)
	assert.Zero(t, res.Rendered)
	// no sitemap or robots synthesized when nothing was built
	_, statErr := os.Stat(filepath.Join(cfg.OutputDir(), "sitemap.xml"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestExcludePatterns(t *testing.T) {
	cfg := testConfig(t)
	cfg.ExcludeFiles = []string{"*.pdf"}
	staticDir := cfg.StaticDir()
	require.NoError(t, os.MkdirAll(staticDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(staticDir, "manual.pdf"), []byte("pdf"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(staticDir, "logo.svg"), []byte("<svg/>"), 0644))
	writePage(t, cfg, "index.html", "<p>hi</p>")

	_, err := Run(cfg, Options{})
	require.NoError(t, err)
	_, statErr := os.Stat(filepath.Join(cfg.OutputDir(), "manual.pdf"))
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(filepath.Join(cfg.OutputDir(), "logo.svg"))
	assert.NoError(t, statErr)
}

func TestRobotsAndSitemapSynthesized(t *testing.T) {
	cfg := testConfig(t)
	cfg.URL = "https://camp.example"
	writePage(t, cfg, "index.html", "<p>hi</p>")
	writePage(t, cfg, "blog/index.md", "# Blog")

	_, err := Run(cfg, Options{})
	require.NoError(t, err)

	robots := readOut(t, cfg, "robots.txt")
	assert.Contains(t, robots, "Sitemap: https://camp.example/sitemap.xml")

	sitemap := readOut(t, cfg, "sitemap.xml")
	assert.Contains(t, sitemap, "<loc>https://camp.example/</loc>")
	assert.Contains(t, sitemap, "<loc>https://camp.example/blog</loc>")
}

func TestUserProvidedRobotsWins(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.StaticDir(), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.StaticDir(), "robots.txt"), []byte("User-agent: *\nDisallow: /\n"), 0644))
	writePage(t, cfg, "index.html", "<p>hi</p>")

	_, err := Run(cfg, Options{})
	require.NoError(t, err)
	assert.Contains(t, readOut(t, cfg, "robots.txt"), "Disallow: /")
}

func TestProductionFinishing(t *testing.T) {
	cfg := testConfig(t)
	cfg.Minify = true
	cfg.CacheBust = true
	require.NoError(t, os.MkdirAll(cfg.StaticDir(), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.StaticDir(), "style.css"), []byte("body {\n  color: red;\n}\n"), 0644))
	writePage(t, cfg, "index.html", `<link rel="stylesheet" href="/style.css"><p>hi</p>`)

	_, err := Run(cfg, Options{})
	require.NoError(t, err)

	entries, err := os.ReadDir(cfg.OutputDir())
	require.NoError(t, err)
	var cssName string
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".css" {
			cssName = e.Name()
		}
	}
	require.NotEmpty(t, cssName, "exactly one hashed css file expected")
	assert.Regexp(t, `^style-[0-9a-f]{10}\.css$`, cssName)
	assert.Contains(t, readOut(t, cfg, "index.html"), cssName)

	// minified css went through before hashing
	assert.Equal(t, "body{color:red}", readOut(t, cfg, cssName))
}

func TestDevModeSkipsFinishing(t *testing.T) {
	cfg := testConfig(t)
	cfg.Minify = true
	cfg.CacheBust = true
	require.NoError(t, os.MkdirAll(cfg.StaticDir(), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.StaticDir(), "style.css"), []byte("body { color: red; }"), 0644))
	writePage(t, cfg, "index.html", "<p>hi</p>")

	_, err := Run(cfg, Options{Dev: true})
	require.NoError(t, err)
	// untouched name and content in dev mode
	assert.Equal(t, "body { color: red; }", readOut(t, cfg, "style.css"))
}

func TestHooksRegisterTemplateFuncs(t *testing.T) {
	cfg := testConfig(t)
	writePage(t, cfg, "index.tmpl", `{{greet "camper"}}`)

	hook := func(env *render.Env) error {
		env.RegisterFunc("greet", func(s string) string { return "hello " + s })
		return nil
	}
	_, err := Run(cfg, Options{Hooks: []render.Hook{hook}})
	require.NoError(t, err)
	assert.Equal(t, "hello camper", readOut(t, cfg, "index.html"))
}

func TestPerPageFailureDoesNotAbortBatch(t *testing.T) {
	cfg := testConfig(t)
	writePage(t, cfg, "bad.tmpl", "{{.unterminated")
	writePage(t, cfg, "good.md", "# Fine")

	res, err := Run(cfg, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Rendered)
	assert.Contains(t, readOut(t, cfg, "good.html"), "<h1>Fine</h1>")
}

func TestExcluded(t *testing.T) {
	assert.True(t, Excluded("a.pdf", []string{"*.pdf"}))
	assert.True(t, Excluded("a.PDF", []string{".pdf"}))
	assert.True(t, Excluded("secret.txt", []string{"secret.txt"}))
	assert.True(t, Excluded("draft-1.md", []string{"draft-?.md"}))
	assert.False(t, Excluded("a.pdx", []string{"*.pdf"}))
	assert.False(t, Excluded("a.pdf", nil))
}

func TestDiscoverPagesSkipsDotfiles(t *testing.T) {
	cfg := testConfig(t)
	writePage(t, cfg, ".hidden.md", "# hidden")
	writePage(t, cfg, "shown.md", "# shown")

	env := render.NewEnv(cfg)
	pages, err := DiscoverPages(cfg, env)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "shown.md", pages[0].RelPath)
	assert.Equal(t, "/shown", pages[0].URL)
}
