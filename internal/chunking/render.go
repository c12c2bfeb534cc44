package chunking

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// liner is implemented by goldmark block nodes that own a literal line
// span in the source (leaf blocks); container blocks (List, ListItem,
// Blockquote, Document) report an empty Lines() and must be walked to
// their descendants to find a span.
type liner interface {
	Lines() *text.Segments
}

// blockSpan returns the [start, end) byte range in the source that n
// (and all its descendants) occupies, by taking the min/max over every
// descendant's own line segments.
func blockSpan(n ast.Node) (int, int) {
	start, end := -1, -1
	var walk func(ast.Node)
	walk = func(nd ast.Node) {
		if l, ok := nd.(liner); ok {
			lines := l.Lines()
			if lines.Len() > 0 {
				first := lines.At(0)
				last := lines.At(lines.Len() - 1)
				if start == -1 || first.Start < start {
					start = first.Start
				}
				if last.Stop > end {
					end = last.Stop
				}
			}
		}
		for c := nd.FirstChild(); c != nil; c = c.NextSibling() {
			walk(c)
		}
	}
	walk(n)
	return start, end
}

// blockText returns the verbatim source text spanned by n.
func blockText(n ast.Node, source []byte) string {
	start, end := blockSpan(n)
	if start < 0 || end < 0 || end < start {
		return ""
	}
	return string(source[start:end])
}

// renderInline concatenates the textual content of n's inline children,
// recursing through emphasis/links/etc. to their leaf Text nodes.
func renderInline(n ast.Node, source []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(source))
			if v.SoftLineBreak() || v.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(v.Value)
		case *ast.CodeSpan:
			sb.WriteString(renderInline(v, source))
		default:
			sb.WriteString(renderInline(c, source))
		}
	}
	return sb.String()
}

// renderTable renders a GFM table per spec §4.1: "TABLE:\n" followed by
// one "col: value; col: value" line per body row.
func renderTable(tbl *east.Table, source []byte) string {
	var headers []string
	var sb strings.Builder
	sb.WriteString("TABLE:")

	for n := tbl.FirstChild(); n != nil; n = n.NextSibling() {
		switch row := n.(type) {
		case *east.TableHeader:
			for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
				headers = append(headers, strings.TrimSpace(renderInline(cell, source)))
			}
		case *east.TableRow:
			var cells []string
			i := 0
			for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
				val := strings.TrimSpace(renderInline(cell, source))
				name := ""
				if i < len(headers) {
					name = headers[i]
				}
				if name != "" {
					cells = append(cells, name+": "+val)
				} else {
					cells = append(cells, val)
				}
				i++
			}
			sb.WriteString("\n")
			sb.WriteString(strings.Join(cells, "; "))
		}
	}
	return sb.String()
}
