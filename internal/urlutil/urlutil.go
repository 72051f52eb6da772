// Package urlutil holds the pure path/URL helpers shared by the build
// pipeline: output-path to URL mapping, slugification, and the small
// formatting functions used in logs and generated files.
package urlutil

import (
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// URLPath maps an output-relative file path to its canonical site URL.
// Separators are normalized to forward slashes, "index.html" collapses to
// the containing directory, and the root becomes "/".
func URLPath(rel string) string {
	p := strings.ReplaceAll(rel, "\\", "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if strings.HasSuffix(p, "/index.html") {
		p = strings.TrimSuffix(p, "index.html")
	}
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

// NormalizeURL canonicalizes a URL path so that two spellings of the same
// resource compare equal: "/about", "/about/" and "/about.html" all
// normalize to "/about". Empty input is the root.
func NormalizeURL(u string) string {
	u = strings.TrimSpace(u)
	if u == "" {
		return "/"
	}
	if !strings.HasPrefix(u, "/") {
		u = "/" + u
	}
	if len(u) > 1 {
		u = strings.TrimSuffix(u, "/")
	}
	u = strings.TrimSuffix(u, ".html")
	if u == "" {
		return "/"
	}
	return u
}

var (
	slugStrip    = regexp.MustCompile(`[^\w\s-]`)
	slugCollapse = regexp.MustCompile(`[\s_-]+`)
)

// Slugify turns free text into a URL-safe slug: lowercase, word characters
// and hyphens only, runs of whitespace/underscores/hyphens collapsed into a
// single hyphen, no leading or trailing hyphens.
func Slugify(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = slugStrip.ReplaceAllString(s, "")
	s = slugCollapse.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// FormatDate renders a time as YYYY-MM-DD in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// FormatBytes renders a byte count with a power-of-1024 unit suffix,
// at most two decimal places, trailing zeros trimmed.
func FormatBytes(n int64) string {
	if n == 0 {
		return "0 B"
	}
	units := []string{"B", "KB", "MB", "GB"}
	v := float64(n)
	i := 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}
	v = math.Round(v*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + units[i]
}

// Ext returns the lowercased extension of a path including the leading dot,
// or the empty string when the name has none.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
