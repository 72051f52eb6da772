package assets

import (
	"encoding/xml"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/FoxGroveMedia/campsite/internal/urlutil"
)

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// Sitemap enumerates every .html file under dir and emits a urlset
// document. Directory indexes collapse to their directory URL; the root
// index collapses to the bare site URL. Entries are sorted for
// deterministic output.
func Sitemap(dir, siteURL string) ([]byte, error) {
	base := strings.TrimRight(siteURL, "/")
	set := urlSet{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".html" {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		loc := base + urlutil.URLPath(rel)
		set.URLs = append(set.URLs, sitemapURL{
			Loc:     loc,
			LastMod: urlutil.FormatDate(info.ModTime()),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not enumerate pages for sitemap: %w", err)
	}

	sort.Slice(set.URLs, func(i, j int) bool { return set.URLs[i].Loc < set.URLs[j].Loc })

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), append(body, '\n')...), nil
}
