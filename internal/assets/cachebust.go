package assets

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// hashLen is the hex prefix length embedded in cache-busted filenames.
const hashLen = 10

var (
	// assetTagRe finds link and script tags; reference rewriting is
	// restricted to these so unrelated text mentioning an asset path is
	// never touched.
	assetTagRe = regexp.MustCompile(`(?i)<(?:link|script)\b[^>]*>`)
	// assetAttrRe picks the href/src attribute inside one matched tag.
	assetAttrRe = regexp.MustCompile(`(?i)\b(href|src)(\s*=\s*)(["'])([^"']*)(["'])`)
)

// contentHash returns the deterministic hex digest prefix for a file's
// bytes. Identical bytes always produce the identical name.
func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:hashLen]
}

// CacheBust renames every .css/.js file under dir to embed a content hash,
// then rewrites matching href/src references in every .html file. All
// renames complete before any rewriting starts, since rewriting needs the
// full original-to-hashed mapping.
func CacheBust(dir string) error {
	var targets []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".css", ".js":
			targets = append(targets, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("could not scan output tree: %w", err)
	}

	// Rename phase, fanned out per file. The mapping key is the
	// output-relative path with forward slashes, without a leading slash.
	renamed := map[string]string{}
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, path := range targets {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			raw, err := os.ReadFile(path)
			if err != nil {
				slog.Error("could not read asset", "path", path, "error", err)
				return
			}
			ext := filepath.Ext(path)
			hashed := strings.TrimSuffix(path, ext) + "-" + contentHash(raw) + ext
			if err := os.Rename(path, hashed); err != nil {
				slog.Error("could not rename asset", "path", path, "error", err)
				return
			}
			origRel, _ := filepath.Rel(dir, path)
			hashedRel, _ := filepath.Rel(dir, hashed)
			mu.Lock()
			renamed[filepath.ToSlash(origRel)] = filepath.ToSlash(hashedRel)
			mu.Unlock()
		}(path)
	}
	wg.Wait()

	if len(renamed) == 0 {
		return nil
	}
	return rewriteReferences(dir, renamed)
}

// rewriteReferences updates href/src attributes in every HTML file to the
// hashed asset names. Files with no matching references are not rewritten.
func rewriteReferences(dir string, renamed map[string]string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".html" {
			return err
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			slog.Error("could not read page for rewriting", "path", path, "error", err)
			return nil
		}
		out := RewriteAssetRefs(string(raw), renamed)
		if out == string(raw) {
			return nil
		}
		if err := os.WriteFile(path, []byte(out), 0644); err != nil {
			slog.Error("could not write rewritten page", "path", path, "error", err)
		}
		return nil
	})
}

// RewriteAssetRefs replaces references to original asset paths, with or
// without a leading slash, inside link/script tag attributes only.
func RewriteAssetRefs(doc string, renamed map[string]string) string {
	return assetTagRe.ReplaceAllStringFunc(doc, func(tag string) string {
		return assetAttrRe.ReplaceAllStringFunc(tag, func(attr string) string {
			parts := assetAttrRe.FindStringSubmatch(attr)
			value := parts[4]
			key := strings.TrimPrefix(value, "/")
			hashed, ok := renamed[key]
			if !ok {
				return attr
			}
			if strings.HasPrefix(value, "/") {
				hashed = "/" + hashed
			}
			return parts[1] + parts[2] + parts[3] + hashed + parts[5]
		})
	})
}
