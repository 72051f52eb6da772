package build

import (
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Excluded reports whether a filename matches any exclusion pattern.
// Supported forms: exact filename, leading-dot extension (".pdf"),
// "*.ext" globs, and general "*"/"?" wildcards, all matched against the
// base name only.
func Excluded(name string, patterns []string) bool {
	base := filepath.Base(name)
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		if pattern == base {
			return true
		}
		if strings.HasPrefix(pattern, ".") && strings.EqualFold(filepath.Ext(base), pattern) {
			return true
		}
		if strings.ContainsAny(pattern, "*?") {
			if ok, err := path.Match(pattern, base); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// CopyStatic mirrors the public directory into the output tree, skipping
// files that match an exclusion pattern. An absent public directory is
// fine.
func CopyStatic(staticDir, outDir string, exclude []string) (int, error) {
	if _, err := os.Stat(staticDir); os.IsNotExist(err) {
		return 0, nil
	}
	copied := 0
	err := filepath.WalkDir(staticDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if Excluded(d.Name(), exclude) {
			return nil
		}
		rel, err := filepath.Rel(staticDir, p)
		if err != nil {
			return err
		}
		return copyFile(p, filepath.Join(outDir, rel), &copied)
	})
	return copied, err
}

func copyFile(src, dest string, copied *int) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	*copied++
	return nil
}
