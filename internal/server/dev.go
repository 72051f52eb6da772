package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/FoxGroveMedia/campsite/internal/build"
	"github.com/FoxGroveMedia/campsite/internal/config"
)

// rebuilder serializes rebuild requests: while a build is in flight any
// number of new triggers collapse into a single pending flag, and exactly
// one fresh build starts once the current one finishes. Builds never
// overlap and the queue never grows.
type rebuilder struct {
	run      func()
	requests chan struct{}
}

func newRebuilder(run func()) *rebuilder {
	r := &rebuilder{run: run, requests: make(chan struct{}, 1)}
	go r.loop()
	return r
}

// trigger requests a rebuild; safe to call from any goroutine.
func (r *rebuilder) trigger() {
	select {
	case r.requests <- struct{}{}:
	default:
		// A rebuild is already pending; coalesce.
	}
}

func (r *rebuilder) loop() {
	for range r.requests {
		r.run()
	}
}

// Dev runs the development loop: initial build, recursive watch over the
// source tree, serialized rebuilds on change, and a live-reloading file
// server over the output directory.
func Dev(cfg *config.Config, port int, base build.Options) error {
	opts := base
	opts.Dev = true
	if _, err := build.Run(cfg, opts); err != nil {
		return fmt.Errorf("initial build failed: %w", err)
	}

	hub := newHub()
	reb := newRebuilder(func() {
		if _, err := build.Run(cfg, opts); err != nil {
			slog.Error("rebuild failed", "error", err)
			return
		}
		hub.broadcast([]byte("reload"))
	})

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("could not create file watcher: %w", err)
	}
	defer watcher.Close()

	roots := []string{
		filepath.Join(cfg.Root, cfg.SrcDir),
		cfg.StaticDir(),
		cfg.Root, // catches campsite.yaml edits
	}
	if err := watchRecursive(watcher, roots, cfg.OutputDir()); err != nil {
		return err
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				// The build itself deletes and recreates the output
				// directory; reacting to those events would retrigger the
				// rebuild forever.
				if isOutputPath(event.Name, cfg.OutputDir()) {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
					event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					// New directories need a watch of their own.
					if event.Has(fsnotify.Create) {
						if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
							watcher.Add(event.Name)
						}
					}
					slog.Debug("change detected", "path", event.Name)
					reb.trigger()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Error("watcher error", "error", err)
			}
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(hub, w, r)
	})
	mux.Handle("/", StaticHandler(cfg.OutputDir(), true))

	addr := fmt.Sprintf(":%d", port)
	slog.Info("dev server running", "addr", "http://localhost"+addr)
	return http.ListenAndServe(addr, mux)
}

// isOutputPath reports whether path is the output directory or inside it.
func isOutputPath(path, outDir string) bool {
	rel, err := filepath.Rel(filepath.Clean(outDir), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// watchRecursive adds every directory under the given roots except the
// output tree, which the build itself rewrites.
func watchRecursive(watcher *fsnotify.Watcher, roots []string, outDir string) error {
	seen := map[string]bool{}
	for _, root := range roots {
		info, err := os.Stat(root)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("could not stat watch root %s: %w", root, err)
		}
		if !info.IsDir() {
			root = filepath.Dir(root)
		}
		err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() {
				return nil
			}
			clean := filepath.Clean(path)
			if clean == filepath.Clean(outDir) {
				return filepath.SkipDir
			}
			if name := filepath.Base(clean); len(name) > 1 && name[0] == '.' {
				return filepath.SkipDir
			}
			if seen[clean] {
				return nil
			}
			if err := watcher.Add(clean); err != nil {
				slog.Error("could not watch directory", "dir", clean, "error", err)
				return nil
			}
			seen[clean] = true
			return nil
		})
		if err != nil {
			return fmt.Errorf("could not watch %s: %w", root, err)
		}
	}
	return nil
}
