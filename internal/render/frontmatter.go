package render

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"
)

const frontmatterDelim = "---"

// SplitFrontmatter separates a YAML frontmatter block from the body. The
// block is bounded by "---" lines at the top of the file; when absent the
// whole input is the body and the metadata map is empty. A malformed block
// returns the raw input untouched together with the parse error.
func SplitFrontmatter(raw []byte) (map[string]any, []byte, error) {
	meta := map[string]any{}
	if !bytes.HasPrefix(raw, []byte(frontmatterDelim)) {
		return meta, raw, nil
	}
	nl := bytes.IndexByte(raw, '\n')
	if nl < 0 || strings.TrimRight(string(raw[:nl]), "\r") != frontmatterDelim {
		return meta, raw, nil
	}

	rest := raw[nl+1:]
	off := 0
	for {
		lineEnd := bytes.IndexByte(rest[off:], '\n')
		var line []byte
		if lineEnd < 0 {
			line = rest[off:]
		} else {
			line = rest[off : off+lineEnd]
		}
		if strings.TrimRight(string(line), "\r") == frontmatterDelim {
			block := rest[:off]
			var body []byte
			if lineEnd >= 0 {
				body = rest[off+lineEnd+1:]
			}
			if err := yaml.Unmarshal(block, &meta); err != nil {
				return map[string]any{}, raw, err
			}
			return meta, body, nil
		}
		if lineEnd < 0 {
			break
		}
		off += lineEnd + 1
	}
	// No closing delimiter; treat the whole file as body.
	return meta, raw, nil
}
