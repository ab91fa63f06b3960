package markdown

import (
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// The parser configuration never changes and goldmark parsers are safe to
// share; per-call state lives in the reader created by Parse.
var (
	parserInstance goldmark.Markdown
	parserOnce     sync.Once
)

func getParser() goldmark.Markdown {
	parserOnce.Do(func() {
		parserInstance = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(
				parser.WithInlineParsers(
					util.Prioritized(&wikiLinkParser{}, 150),
					util.Prioritized(&statusParser{}, 151),
					util.Prioritized(&superscriptParser{}, 152),
					util.Prioritized(&subscriptParser{}, 153),
				),
			),
		)
	})
	return parserInstance
}

// Compiler turns markdown documents into Confluence storage format.
type Compiler struct{}

func NewCompiler() *Compiler {
	return &Compiler{}
}

func (c *Compiler) Compile(raw []byte) (string, error) {
	meta, body, err := splitFrontMatter(raw)
	if err != nil {
		return "", err
	}
	document := getParser().Parser().Parse(text.NewReader(body))
	renderer := &storageRenderer{source: body}
	out := strings.TrimRight(renderer.renderDocument(document), "\n")
	if meta.TOC {
		if out == "" {
			return tocMacro, nil
		}
		out = tocMacro + "\n" + out
	}
	return out, nil
}
