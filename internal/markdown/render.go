package markdown

import (
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/util"
)

const (
	tocMacro      = `<ac:structured-macro ac:name="toc" ac:schema-version="1" data-layout="default" ac:macro-id="d4d3f545-d250-47ec-8f27-25fecf5eac5a" />`
	childrenMacro = `<ac:structured-macro ac:name="children" ac:schema-version="2" ac:macro-id="92c7a2c4-5cca-4ecf-81a2-946ef7388c71" />`
)

type panelSpec struct {
	prefix  string
	name    string
	macroID string
}

var panelSpecs = []panelSpec{
	{"Info:", "info", "42afc5c4-fb53-4483-9f1a-a87a7ad033e6"},
	{"Success:", "tip", "d60a142d-bc62-4f37-a091-7254c4472bdf"},
	{"Warning:", "note", "9e14a573-943e-4691-919b-a9f6a389da71"},
	{"Error:", "warning", "2e759c9c-11f1-4959-82e7-901a2dc737d7"},
}

type storageRenderer struct {
	source []byte
	taskID int
}

func (r *storageRenderer) renderDocument(document ast.Node) string {
	return r.renderBlocks(document)
}

func (r *storageRenderer) renderBlocks(parent ast.Node) string {
	var blocks []string
	for child := parent.FirstChild(); child != nil; child = child.NextSibling() {
		if rendered := r.renderBlock(child); rendered != "" {
			blocks = append(blocks, rendered)
		}
	}
	return strings.Join(blocks, "\n")
}

func (r *storageRenderer) renderBlock(node ast.Node) string {
	switch node.Kind() {
	case ast.KindHeading:
		level := strconv.Itoa(node.(*ast.Heading).Level)
		return "<h" + level + ">" + r.renderInline(node) + "</h" + level + ">"
	case ast.KindParagraph:
		return r.renderParagraph(node)
	case ast.KindTextBlock:
		return r.renderInline(node)
	case ast.KindFencedCodeBlock:
		language := canonicalLanguage(string(node.(*ast.FencedCodeBlock).Language(r.source)))
		return codeMacro(language, strings.TrimRight(r.blockText(node), "\n"))
	case ast.KindCodeBlock:
		return codeMacro("", strings.TrimRight(r.blockText(node), "\n"))
	case ast.KindBlockquote:
		return "<blockquote>\n" + r.renderBlocks(node) + "\n</blockquote>"
	case ast.KindList:
		return r.renderList(node.(*ast.List))
	case ast.KindThematicBreak:
		return "<hr />"
	case ast.KindHTMLBlock:
		return r.renderHTMLBlock(node.(*ast.HTMLBlock))
	case extast.KindTable:
		return r.renderTable(node.(*extast.Table))
	}
	return ""
}

func (r *storageRenderer) renderParagraph(node ast.Node) string {
	raw := strings.TrimSpace(r.blockText(node))
	if strings.HasPrefix(raw, ":include-toc:") {
		return tocMacro
	}
	if strings.HasPrefix(raw, ":include-children:") {
		return childrenMacro
	}
	content := r.renderInline(node)
	for _, panel := range panelSpecs {
		if !strings.HasPrefix(raw, panel.prefix) {
			continue
		}
		body := strings.TrimLeft(strings.TrimPrefix(content, panel.prefix), " \t\n")
		return `<ac:structured-macro ac:name="` + panel.name + `" ac:schema-version="1" ac:macro-id="` + panel.macroID + `">` +
			"<ac:rich-text-body><p>" + body + "</p></ac:rich-text-body></ac:structured-macro>"
	}
	return "<p>" + content + "</p>"
}

func (r *storageRenderer) renderList(list *ast.List) string {
	if isTaskList(list) {
		return r.renderTaskList(list)
	}
	tag := "ul"
	attrs := ""
	if list.IsOrdered() {
		tag = "ol"
		if list.Start > 1 {
			attrs = ` start="` + strconv.Itoa(list.Start) + `"`
		}
	}
	var b strings.Builder
	b.WriteString("<" + tag + attrs + ">\n")
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		b.WriteString(r.renderListItem(item, list.IsTight))
		b.WriteString("\n")
	}
	b.WriteString("</" + tag + ">")
	return b.String()
}

func (r *storageRenderer) renderListItem(item ast.Node, tight bool) string {
	var parts []string
	for child := item.FirstChild(); child != nil; child = child.NextSibling() {
		if child.Kind() == ast.KindTextBlock || (tight && child.Kind() == ast.KindParagraph) {
			parts = append(parts, r.renderInline(child))
			continue
		}
		if rendered := r.renderBlock(child); rendered != "" {
			parts = append(parts, rendered)
		}
	}
	if !tight {
		return "<li>\n" + strings.Join(parts, "\n") + "\n</li>"
	}
	return "<li>" + strings.Join(parts, "\n") + "</li>"
}

func isTaskList(list *ast.List) bool {
	item := list.FirstChild()
	if item == nil {
		return false
	}
	block := item.FirstChild()
	if block == nil {
		return false
	}
	first := block.FirstChild()
	return first != nil && first.Kind() == extast.KindTaskCheckBox
}

func (r *storageRenderer) renderTaskList(list *ast.List) string {
	var b strings.Builder
	b.WriteString("<ac:task-list>\n")
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		r.taskID++
		status := "incomplete"
		var body strings.Builder
		if first := item.FirstChild(); first != nil {
			if checkbox, ok := first.FirstChild().(*extast.TaskCheckBox); ok && checkbox.IsChecked {
				status = "complete"
			}
			body.WriteString(strings.TrimLeft(r.renderInline(first), " "))
			for extra := first.NextSibling(); extra != nil; extra = extra.NextSibling() {
				if rendered := r.renderBlock(extra); rendered != "" {
					body.WriteString("\n")
					body.WriteString(rendered)
				}
			}
		}
		b.WriteString("<ac:task>\n<ac:task-id>" + strconv.Itoa(r.taskID) + "</ac:task-id>\n" +
			"<ac:task-status>" + status + "</ac:task-status>\n" +
			"<ac:task-body>" + body.String() + "</ac:task-body>\n</ac:task>\n")
	}
	b.WriteString("</ac:task-list>")
	return b.String()
}

func (r *storageRenderer) renderHTMLBlock(node *ast.HTMLBlock) string {
	var b strings.Builder
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		b.Write(line.Value(r.source))
	}
	if node.HasClosure() {
		b.Write(node.ClosureLine.Value(r.source))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *storageRenderer) renderTable(table *extast.Table) string {
	var b strings.Builder
	b.WriteString("<table>\n")
	var bodyRows []string
	for child := table.FirstChild(); child != nil; child = child.NextSibling() {
		switch child.Kind() {
		case extast.KindTableHeader:
			b.WriteString("<thead>\n<tr>\n")
			b.WriteString(r.renderTableCells(child, "th", table.Alignments))
			b.WriteString("</tr>\n</thead>\n")
		case extast.KindTableRow:
			bodyRows = append(bodyRows, "<tr>\n"+r.renderTableCells(child, "td", table.Alignments)+"</tr>")
		}
	}
	if len(bodyRows) > 0 {
		b.WriteString("<tbody>\n")
		for _, row := range bodyRows {
			b.WriteString(row)
			b.WriteString("\n")
		}
		b.WriteString("</tbody>\n")
	}
	b.WriteString("</table>")
	return b.String()
}

func (r *storageRenderer) renderTableCells(row ast.Node, tag string, alignments []extast.Alignment) string {
	var b strings.Builder
	index := 0
	for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
		attr := ""
		if index < len(alignments) {
			switch alignments[index] {
			case extast.AlignLeft:
				attr = ` style="text-align: left;"`
			case extast.AlignRight:
				attr = ` style="text-align: right;"`
			case extast.AlignCenter:
				attr = ` style="text-align: center;"`
			}
		}
		b.WriteString("<" + tag + attr + ">" + r.renderInline(cell) + "</" + tag + ">\n")
		index++
	}
	return b.String()
}

func (r *storageRenderer) renderInline(parent ast.Node) string {
	var b strings.Builder
	for child := parent.FirstChild(); child != nil; child = child.NextSibling() {
		r.renderInlineNode(&b, child)
	}
	return b.String()
}

func (r *storageRenderer) renderInlineNode(b *strings.Builder, node ast.Node) {
	switch node.Kind() {
	case ast.KindText:
		textNode := node.(*ast.Text)
		b.WriteString(transformText(escape(string(textNode.Segment.Value(r.source)))))
		if textNode.HardLineBreak() {
			b.WriteString("<br />\n")
		} else if textNode.SoftLineBreak() {
			b.WriteString("\n")
		}
	case ast.KindString:
		b.WriteString(escape(string(node.(*ast.String).Value)))
	case ast.KindCodeSpan:
		b.WriteString("<code>")
		for child := node.FirstChild(); child != nil; child = child.NextSibling() {
			switch c := child.(type) {
			case *ast.Text:
				b.WriteString(escape(string(c.Segment.Value(r.source))))
			case *ast.String:
				b.WriteString(escape(string(c.Value)))
			}
		}
		b.WriteString("</code>")
	case ast.KindEmphasis:
		tag := "em"
		if node.(*ast.Emphasis).Level >= 2 {
			tag = "strong"
		}
		b.WriteString("<" + tag + ">" + r.renderInline(node) + "</" + tag + ">")
	case ast.KindLink:
		link := node.(*ast.Link)
		b.WriteString(`<a href="` + escape(string(link.Destination)) + `">` + r.renderInline(node) + "</a>")
	case ast.KindAutoLink:
		autoLink := node.(*ast.AutoLink)
		label := escape(string(autoLink.URL(r.source)))
		href := label
		if autoLink.AutoLinkType == ast.AutoLinkEmail {
			href = "mailto:" + label
		}
		b.WriteString(`<a href="` + href + `">` + label + "</a>")
	case ast.KindImage:
		image := node.(*ast.Image)
		b.WriteString(`<img src="` + escape(string(image.Destination)) + `"`)
		if len(image.Title) > 0 {
			b.WriteString(` title="` + escape(string(image.Title)) + `"`)
		}
		b.WriteString(` alt="` + escape(textOf(node, r.source)) + `" />`)
	case ast.KindRawHTML:
		raw := node.(*ast.RawHTML)
		for i := 0; i < raw.Segments.Len(); i++ {
			seg := raw.Segments.At(i)
			b.Write(seg.Value(r.source))
		}
	case extast.KindStrikethrough:
		b.WriteString("<s>" + r.renderInline(node) + "</s>")
	case extast.KindTaskCheckBox:
		// rendered by the enclosing task list
	case kindWikiLink:
		wiki := node.(*wikiLinkNode)
		b.WriteString(`<ac:link ac:card-appearance="inline">` +
			`<ri:page ri:content-title="` + escape(string(wiki.title)) + `" ri:version-at-save="1" />` +
			"<ac:link-body>" + escape(string(wiki.body)) + "</ac:link-body></ac:link>")
	case kindStatus:
		pill := node.(*statusNode)
		b.WriteString(statusMacro(pill.color, escape(string(pill.title))))
	case kindSuperscript:
		b.WriteString("<sup>" + escape(string(node.(*superscriptNode).value)) + "</sup>")
	case kindSubscript:
		b.WriteString("<sub>" + escape(string(node.(*subscriptNode).value)) + "</sub>")
	}
}

func (r *storageRenderer) blockText(node ast.Node) string {
	var b strings.Builder
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		b.Write(line.Value(r.source))
	}
	return b.String()
}

func codeMacro(language, source string) string {
	var b strings.Builder
	b.WriteString(`<ac:structured-macro ac:name="code" ac:schema-version="1" ac:macro-id="f3c5f016-dac0-4a3d-b154-7ccd862ab463">`)
	if language != "" {
		b.WriteString("\n  <ac:parameter ac:name=\"language\">" + language + "</ac:parameter>")
	}
	b.WriteString("\n  <ac:plain-text-body>\n    <![CDATA[" + cdataEscape(source) + "]]>\n  </ac:plain-text-body>\n</ac:structured-macro>")
	return b.String()
}

func statusMacro(color, title string) string {
	return `<ac:structured-macro ac:name="status" ac:schema-version="1" ac:macro-id="d4fcf299-d2f0-4eec-807a-1e4a3c8fe0dc">` +
		`<ac:parameter ac:name="title">` + title + `</ac:parameter>` +
		`<ac:parameter ac:name="colour">` + capitalize(color) + `</ac:parameter>` +
		`</ac:structured-macro>`
}

// canonicalLanguage maps fence info strings through the chroma lexer
// registry so aliases like "py" or "golang" resolve to the names the
// code macro understands.
func canonicalLanguage(language string) string {
	language = strings.TrimSpace(language)
	if language == "" {
		return ""
	}
	if lexer := lexers.Get(language); lexer != nil {
		return strings.ToLower(lexer.Config().Name)
	}
	return strings.ToLower(language)
}

func cdataEscape(source string) string {
	return strings.ReplaceAll(source, "]]>", "]]]]><![CDATA[>")
}

func transformText(escaped string) string {
	return strings.ReplaceAll(escaped, "---", "&mdash;")
}

func escape(s string) string {
	return string(util.EscapeHTML([]byte(s)))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func textOf(node ast.Node, source []byte) string {
	var b strings.Builder
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch c := child.(type) {
		case *ast.Text:
			b.Write(c.Segment.Value(source))
		case *ast.String:
			b.Write(c.Value)
		default:
			b.WriteString(textOf(child, source))
		}
	}
	return b.String()
}
