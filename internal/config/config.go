// Package config loads the project configuration. Every field has a
// default; a user-supplied campsite.yaml is merged over the defaults, so a
// partially-specified file never leaves a field undefined.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file looked up at the project root.
const DefaultFile = "campsite.yaml"

// Compress holds the image conversion settings.
type Compress struct {
	Quality          int      `yaml:"quality"`
	InputFormats     []string `yaml:"inputFormats"`
	OutputFormats    []string `yaml:"outputFormats"`
	PreserveOriginal bool     `yaml:"preserveOriginal"`
}

// Engines toggles the optional template backends. The raw HTML and verbatim
// copy paths are always available.
type Engines struct {
	Markdown bool `yaml:"markdown"`
	Template bool `yaml:"template"`
	Mustache bool `yaml:"mustache"`
}

// Config is immutable after load and threaded explicitly through every
// component; there is no ambient global configuration.
type Config struct {
	Name           string   `yaml:"name"`
	URL            string   `yaml:"url"`
	SrcDir         string   `yaml:"srcDir"`
	OutDir         string   `yaml:"outDir"`
	PublicDir      string   `yaml:"publicDir"`
	DefaultEngine  string   `yaml:"defaultEngine"`
	Minify         bool     `yaml:"minify"`
	CacheBust      bool     `yaml:"cacheBust"`
	CompressPhotos bool     `yaml:"compressPhotos"`
	Sanitize       bool     `yaml:"sanitize"`
	ExcludeFiles   []string `yaml:"excludeFiles"`
	Compress       Compress `yaml:"compress"`
	Port           int      `yaml:"port"`
	Engines        Engines  `yaml:"engines"`

	// Root is the project directory all relative paths resolve against.
	// Set by Load, not by the file.
	Root string `yaml:"-"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Name:           "Campsite",
		URL:            "https://example.com",
		SrcDir:         "src",
		OutDir:         "dist",
		PublicDir:      "public",
		DefaultEngine:  "template",
		Minify:         true,
		CacheBust:      true,
		CompressPhotos: false,
		Sanitize:       false,
		Compress: Compress{
			Quality:          80,
			InputFormats:     []string{"jpg", "jpeg", "png"},
			OutputFormats:    []string{"webp"},
			PreserveOriginal: true,
		},
		Port:    4173,
		Engines: Engines{Markdown: true, Template: true, Mustache: true},
		Root:    ".",
	}
}

// Load reads the config file at path and merges it over the defaults.
// A missing file is not an error. A malformed file returns the defaults
// together with the parse error so the caller can log and continue.
func Load(root, path string) (*Config, error) {
	cfg := Default()
	cfg.Root = root

	data, err := os.ReadFile(filepath.Join(root, path))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("could not read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		fresh := Default()
		fresh.Root = root
		return fresh, fmt.Errorf("could not parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// PagesDir is the root of renderable content.
func (c *Config) PagesDir() string { return filepath.Join(c.Root, c.SrcDir, "pages") }

// LayoutsDir holds wrappable templates.
func (c *Config) LayoutsDir() string { return filepath.Join(c.Root, c.SrcDir, "layouts") }

// PartialsDir holds includable fragments.
func (c *Config) PartialsDir() string { return filepath.Join(c.Root, c.SrcDir, "partials") }

// OutputDir is the deployable output tree.
func (c *Config) OutputDir() string { return filepath.Join(c.Root, c.OutDir) }

// StaticDir is copied verbatim to the output, minus exclusions.
func (c *Config) StaticDir() string { return filepath.Join(c.Root, c.PublicDir) }

// DataDirs lists the collection sources in scan order; later directories
// override earlier ones on key collision.
func (c *Config) DataDirs() []string {
	return []string{
		filepath.Join(c.Root, c.SrcDir, "data"),
		filepath.Join(c.Root, c.SrcDir, "collections"),
	}
}

// SearchPaths lists the template lookup roots in priority order.
func (c *Config) SearchPaths() []string {
	return []string{
		c.LayoutsDir(),
		c.PartialsDir(),
		c.PagesDir(),
		filepath.Join(c.Root, c.SrcDir),
	}
}
