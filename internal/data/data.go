// Package data loads structured-data files into the collections mapping
// exposed to every page template.
package data

import (
	"encoding/json"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Collections maps a logical name, taken from a data file's base name, to
// its parsed JSON value. It is rebuilt fully on every build and treated as
// read-only by the render fan-out.
type Collections map[string]any

// Load scans the given directories in order and merges their data files.
// Absent directories are skipped silently. A malformed file is logged and
// skipped; it never aborts the load. Later directories win on key collision.
func Load(dirs []string) Collections {
	out := Collections{}
	for _, dir := range dirs {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || filepath.Ext(d.Name()) != ".json" {
				return nil
			}

			raw, err := os.ReadFile(path)
			if err != nil {
				slog.Error("could not read data file", "path", path, "error", err)
				return nil
			}
			var value any
			if err := json.Unmarshal(raw, &value); err != nil {
				slog.Error("skipping malformed data file", "path", path, "error", err)
				return nil
			}
			key := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
			out[key] = value
			return nil
		})
		if err != nil {
			slog.Error("data directory walk failed", "dir", dir, "error", err)
		}
	}
	return out
}
