package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

type frontMatter struct {
	TOC bool `yaml:"toc"`
}

// splitFrontMatter strips an optional YAML front matter block delimited by
// "---" lines from the head of the document. Documents without an opening
// delimiter, or with an opening delimiter that is never closed, pass
// through untouched.
func splitFrontMatter(raw []byte) (frontMatter, []byte, error) {
	var meta frontMatter
	first, rest, found := bytes.Cut(raw, []byte("\n"))
	if !found || strings.TrimRight(string(first), "\r") != "---" {
		return meta, raw, nil
	}
	offset := 0
	for offset <= len(rest) {
		lineEnd := bytes.IndexByte(rest[offset:], '\n')
		var line []byte
		next := len(rest)
		if lineEnd >= 0 {
			line = rest[offset : offset+lineEnd]
			next = offset + lineEnd + 1
		} else {
			line = rest[offset:]
		}
		if strings.TrimRight(string(line), "\r") == "---" {
			if err := yaml.Unmarshal(rest[:offset], &meta); err != nil {
				return frontMatter{}, nil, fmt.Errorf("front matter: %w", err)
			}
			return meta, rest[next:], nil
		}
		if lineEnd < 0 {
			break
		}
		offset = next
	}
	return frontMatter{}, raw, nil
}
