package render

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FoxGroveMedia/campsite/internal/config"
)

func testEnv(t *testing.T) (*config.Config, *Env) {
	t.Helper()
	cfg := config.Default()
	cfg.Root = t.TempDir()
	require.NoError(t, os.MkdirAll(cfg.LayoutsDir(), 0755))
	require.NoError(t, os.MkdirAll(cfg.PartialsDir(), 0755))
	require.NoError(t, os.MkdirAll(cfg.PagesDir(), 0755))
	return cfg, NewEnv(cfg)
}

func TestSplitFrontmatter(t *testing.T) {
	meta, body, err := SplitFrontmatter([]byte("---\ntitle: Hi\nlayout: base\n---\nbody here"))
	require.NoError(t, err)
	assert.Equal(t, "Hi", meta["title"])
	assert.Equal(t, "base", meta["layout"])
	assert.Equal(t, "body here", string(body))
}

func TestSplitFrontmatterAbsent(t *testing.T) {
	raw := []byte("<p>plain</p>")
	meta, body, err := SplitFrontmatter(raw)
	require.NoError(t, err)
	assert.Empty(t, meta)
	assert.Equal(t, raw, body)
}

func TestSplitFrontmatterUnclosed(t *testing.T) {
	raw := []byte("---\ntitle: Hi\nno close")
	meta, body, err := SplitFrontmatter(raw)
	require.NoError(t, err)
	assert.Empty(t, meta)
	assert.Equal(t, raw, body)
}

func TestSplitFrontmatterMalformed(t *testing.T) {
	raw := []byte("---\ntitle: [broken\n---\nbody")
	_, body, err := SplitFrontmatter(raw)
	assert.Error(t, err)
	assert.Equal(t, raw, body)
}

func TestSplitFrontmatterCRLF(t *testing.T) {
	meta, body, err := SplitFrontmatter([]byte("---\r\ntitle: Hi\r\n---\r\nbody"))
	require.NoError(t, err)
	assert.Equal(t, "Hi", meta["title"])
	assert.Equal(t, "body", string(body))
}

func TestKindOf(t *testing.T) {
	_, env := testEnv(t)
	assert.Equal(t, KindHTML, env.KindOf(".html"))
	assert.Equal(t, KindMarkdown, env.KindOf(".md"))
	assert.Equal(t, KindTemplate, env.KindOf(".tmpl"))
	assert.Equal(t, KindMustache, env.KindOf(".hbs"))
	assert.Equal(t, KindCopy, env.KindOf(".pdf"))
	assert.Equal(t, KindCopy, env.KindOf(""))
}

func TestKindOfDisabledEngine(t *testing.T) {
	cfg, _ := testEnv(t)
	cfg.Engines.Markdown = false
	env := NewEnv(cfg)
	assert.Equal(t, KindCopy, env.KindOf(".md"))
}

func TestMarkdownRender(t *testing.T) {
	_, env := testEnv(t)
	out, err := env.Renderer(KindMarkdown).RenderBody("# Heading", nil)
	require.NoError(t, err)
	assert.Contains(t, out, "<h1>Heading</h1>")
}

func TestMarkdownLinkRewrite(t *testing.T) {
	_, env := testEnv(t)
	out, err := env.Markdown("[next](other.md)")
	require.NoError(t, err)
	assert.Contains(t, out, `href="other.html"`)
}

func TestTemplateRender(t *testing.T) {
	_, env := testEnv(t)
	out, err := env.Renderer(KindTemplate).RenderBody("Hello {{.name}}", Context{"name": "World"})
	require.NoError(t, err)
	assert.Equal(t, "Hello World", out)
}

func TestTemplateRegisteredFunc(t *testing.T) {
	_, env := testEnv(t)
	env.RegisterFunc("shout", func(s string) string { return s + "!" })
	out, err := env.Renderer(KindTemplate).RenderBody(`{{shout "go"}}`, Context{})
	require.NoError(t, err)
	assert.Equal(t, "go!", out)
}

func TestMustacheRenderWithPartial(t *testing.T) {
	cfg, _ := testEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.PartialsDir(), "greet.mustache"), []byte("Hi {{name}}"), 0644))
	env := NewEnv(cfg)
	env.LoadPartials()

	out, err := env.Renderer(KindMustache).RenderBody("{{> greet}}, bye", Context{"name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Hi Ada, bye", out)
}

func TestRenderLayoutWrapsContent(t *testing.T) {
	cfg, _ := testEnv(t)
	layout := "<header/>{{.content}}<footer/>"
	require.NoError(t, os.WriteFile(filepath.Join(cfg.LayoutsDir(), "base.tmpl"), []byte(layout), 0644))
	env := NewEnv(cfg)

	out := env.RenderLayout("base", "<p>hi</p>", Context{})
	assert.Equal(t, "<header/><p>hi</p><footer/>", out)
}

func TestRenderLayoutMissingFallsBack(t *testing.T) {
	_, env := testEnv(t)
	out := env.RenderLayout("nope", "<p>hi</p>", Context{})
	assert.Equal(t, "<p>hi</p>", out)
}

func TestRenderLayoutBadTemplateFallsBack(t *testing.T) {
	cfg, _ := testEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.LayoutsDir(), "bad.tmpl"), []byte("{{.broken"), 0644))
	env := NewEnv(cfg)
	out := env.RenderLayout("bad", "<p>hi</p>", Context{})
	assert.Equal(t, "<p>hi</p>", out)
}

func TestResolvePriorityOrder(t *testing.T) {
	cfg, _ := testEnv(t)
	// The same name in layouts/ and pages/ resolves to layouts/ first.
	require.NoError(t, os.WriteFile(filepath.Join(cfg.LayoutsDir(), "a.html"), []byte("layout"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.PagesDir(), "a.html"), []byte("page"), 0644))
	env := NewEnv(cfg)

	path, ok := env.Resolve("a.html")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(cfg.LayoutsDir(), "a.html"), path)
}

func TestResolveDefaultEnginePreferred(t *testing.T) {
	cfg, _ := testEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.LayoutsDir(), "base.html"), []byte("html"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.LayoutsDir(), "base.tmpl"), []byte("tmpl"), 0644))

	// An extension-less reference resolves through the default engine
	// first, then falls back to the remaining engines.
	cfg.DefaultEngine = "template"
	path, ok := NewEnv(cfg).Resolve("base")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(cfg.LayoutsDir(), "base.tmpl"), path)

	cfg.DefaultEngine = "markdown"
	path, ok = NewEnv(cfg).Resolve("base")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(cfg.LayoutsDir(), "base.html"), path)
}

func TestMarkdownSanitizeToggle(t *testing.T) {
	cfg, _ := testEnv(t)
	source := "hi <script>alert(1)</script>"

	out, err := NewEnv(cfg).Markdown(source)
	require.NoError(t, err)
	assert.Contains(t, out, "<script>")

	cfg.Sanitize = true
	out, err = NewEnv(cfg).Markdown(source)
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "hi")
}

func TestRunHooksNeverFatal(t *testing.T) {
	_, env := testEnv(t)
	ran := false
	env.RunHooks([]Hook{
		func(*Env) error { return errors.New("boom") },
		func(*Env) error { panic("worse") },
		func(*Env) error { ran = true; return nil },
	})
	assert.True(t, ran)
}
