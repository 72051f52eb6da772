package assets

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/avif"
	"github.com/gen2brain/webp"

	"github.com/FoxGroveMedia/campsite/internal/config"
)

// CompressImages converts every matching image under dir into the
// configured output formats, writing sibling files. A failed conversion is
// logged and skipped. Returns the aggregate bytes saved; negative when the
// conversions grew the tree (originals preserved, small inputs).
func CompressImages(dir string, cfg config.Compress) int64 {
	inputs := map[string]bool{}
	for _, f := range cfg.InputFormats {
		inputs["."+strings.TrimPrefix(strings.ToLower(f), ".")] = true
	}

	var paths []string
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if inputs[strings.ToLower(filepath.Ext(path))] {
			paths = append(paths, path)
		}
		return nil
	})

	var saved atomic.Int64
	var wg sync.WaitGroup
	for _, path := range paths {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			n, err := convertImage(path, cfg)
			if err != nil {
				slog.Error("image conversion failed", "path", path, "error", err)
				return
			}
			saved.Add(n)
		}(path)
	}
	wg.Wait()
	return saved.Load()
}

// convertImage writes one sibling file per output format and returns the
// byte delta for this file. The original is removed only after every
// format succeeded and preserveOriginal is off.
func convertImage(path string, cfg config.Compress) (int64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return 0, fmt.Errorf("could not decode: %w", err)
	}

	origSize := int64(len(raw))
	var delta int64
	base := strings.TrimSuffix(path, filepath.Ext(path))
	for _, format := range cfg.OutputFormats {
		out := base + "." + strings.TrimPrefix(strings.ToLower(format), ".")
		n, err := encodeImage(out, img, cfg.Quality)
		if err != nil {
			return delta, fmt.Errorf("could not encode %s: %w", filepath.Base(out), err)
		}
		delta += origSize - n
	}

	if !cfg.PreserveOriginal {
		if err := os.Remove(path); err != nil {
			return delta, err
		}
		delta += origSize
	}
	return delta, nil
}

func encodeImage(path string, img image.Image, quality int) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	switch filepath.Ext(path) {
	case ".webp":
		err = webp.Encode(f, img, webp.Options{Quality: quality})
	case ".avif":
		err = avif.Encode(f, img, avif.Options{Quality: quality})
	default:
		err = fmt.Errorf("unsupported output format %q", filepath.Ext(path))
	}
	if err != nil {
		return 0, err
	}
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
