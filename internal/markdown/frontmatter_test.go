package markdown

import (
	"strings"
	"testing"
)

func TestSplitFrontMatterParsesAndStrips(t *testing.T) {
	meta, body, err := splitFrontMatter([]byte("---\ntoc: true\n---\n# Title\n"))
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	if !meta.TOC {
		t.Fatalf("expected toc to be set")
	}
	if string(body) != "# Title\n" {
		t.Fatalf("expected the front matter to be stripped, got %q", string(body))
	}
}

func TestSplitFrontMatterHandlesCarriageReturns(t *testing.T) {
	meta, body, err := splitFrontMatter([]byte("---\r\ntoc: true\r\n---\r\nBody\r\n"))
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	if !meta.TOC {
		t.Fatalf("expected toc to be set")
	}
	if string(body) != "Body\r\n" {
		t.Fatalf("expected the body to survive, got %q", string(body))
	}
}

func TestSplitFrontMatterPassesThroughWithoutDelimiter(t *testing.T) {
	input := "# Title\n\ntext\n"
	meta, body, err := splitFrontMatter([]byte(input))
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	if meta.TOC {
		t.Fatalf("expected no metadata")
	}
	if string(body) != input {
		t.Fatalf("expected the document untouched, got %q", string(body))
	}
}

func TestSplitFrontMatterPassesThroughWhenUnclosed(t *testing.T) {
	input := "---\ntoc: true\n"
	_, body, err := splitFrontMatter([]byte(input))
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	if string(body) != input {
		t.Fatalf("expected an unclosed block to pass through, got %q", string(body))
	}
}

func TestSplitFrontMatterRejectsMalformedYAML(t *testing.T) {
	_, _, err := splitFrontMatter([]byte("---\ntoc: [oops\n---\nBody\n"))
	if err == nil || !strings.Contains(err.Error(), "front matter") {
		t.Fatalf("expected a front matter error, got %v", err)
	}
}
