package markdown

import (
	"regexp"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

var kindWikiLink = ast.NewNodeKind("WikiLink")

// wikiLinkNode is a link to another page in the same space, addressed by
// title: &[Display Text](Target Page Title).
type wikiLinkNode struct {
	ast.BaseInline
	title []byte
	body  []byte
}

func (n *wikiLinkNode) Kind() ast.NodeKind { return kindWikiLink }

func (n *wikiLinkNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

var wikiLinkRegexp = regexp.MustCompile(`^&\[([^\]\n]*)\]\(([^)\n]+)\)`)

type wikiLinkParser struct{}

func (p *wikiLinkParser) Trigger() []byte {
	return []byte{'&'}
}

func (p *wikiLinkParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()
	match := wikiLinkRegexp.FindSubmatch(line)
	if match == nil {
		return nil
	}
	block.Advance(len(match[0]))
	return &wikiLinkNode{
		body:  append([]byte(nil), match[1]...),
		title: append([]byte(nil), match[2]...),
	}
}

var kindStatus = ast.NewNodeKind("Status")

// statusNode is a colored status pill: &status-green:On Track;
type statusNode struct {
	ast.BaseInline
	color string
	title []byte
}

func (n *statusNode) Kind() ast.NodeKind { return kindStatus }

func (n *statusNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

var statusRegexp = regexp.MustCompile(`^&status-(red|yellow|green|grey|purple|blue):([^;\n]+);`)

type statusParser struct{}

func (p *statusParser) Trigger() []byte {
	return []byte{'&'}
}

func (p *statusParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()
	match := statusRegexp.FindSubmatch(line)
	if match == nil {
		return nil
	}
	block.Advance(len(match[0]))
	return &statusNode{
		color: string(match[1]),
		title: append([]byte(nil), match[2]...),
	}
}

var kindSuperscript = ast.NewNodeKind("Superscript")

type superscriptNode struct {
	ast.BaseInline
	value []byte
}

func (n *superscriptNode) Kind() ast.NodeKind { return kindSuperscript }

func (n *superscriptNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

var superscriptRegexp = regexp.MustCompile(`^\^([^\^\s](?:[^\^\n]*[^\^\s])?)\^`)

type superscriptParser struct{}

func (p *superscriptParser) Trigger() []byte {
	return []byte{'^'}
}

func (p *superscriptParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()
	match := superscriptRegexp.FindSubmatch(line)
	if match == nil {
		return nil
	}
	block.Advance(len(match[0]))
	return &superscriptNode{value: append([]byte(nil), match[1]...)}
}

var kindSubscript = ast.NewNodeKind("Subscript")

type subscriptNode struct {
	ast.BaseInline
	value []byte
}

func (n *subscriptNode) Kind() ast.NodeKind { return kindSubscript }

func (n *subscriptNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// Single tildes only; double tildes stay with the strikethrough parser,
// which runs later and never sees a match consumed here.
var subscriptRegexp = regexp.MustCompile(`^~([^~\s](?:[^~\n]*[^~\s])?)~`)

type subscriptParser struct{}

func (p *subscriptParser) Trigger() []byte {
	return []byte{'~'}
}

func (p *subscriptParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()
	match := subscriptRegexp.FindSubmatch(line)
	if match == nil {
		return nil
	}
	block.Advance(len(match[0]))
	return &subscriptNode{value: append([]byte(nil), match[1]...)}
}
