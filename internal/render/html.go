// Package render turns parsed documents into HTML pages.
package render

import (
	"fmt"
	"strings"

	"github.com/starford/wikarden/internal/parser"
)

var (
	textEscaper = strings.NewReplacer("<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("<", "&lt;", ">", "&gt;", `"`, "&quot;")
)

// Blocks renders each block as one line of HTML.
func Blocks(blocks []parser.Block) string {
	var sb strings.Builder
	for _, b := range blocks {
		sb.WriteString(Block(b))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Block renders a single block without a trailing newline.
func Block(b parser.Block) string {
	switch b := b.(type) {
	case *parser.Header:
		return fmt.Sprintf("<h%d>%s</h%d>", b.Level, Inlines(b.Content), b.Level)
	case *parser.Paragraph:
		return "<p>" + Inlines(b.Content) + "</p>"
	case *parser.CodeBlock:
		if b.Language == "" {
			return "<pre><code>" + textEscaper.Replace(b.Content) + "</code></pre>"
		}
		return fmt.Sprintf(`<pre><code class="language-%s">%s</code></pre>`,
			attrEscaper.Replace(b.Language), textEscaper.Replace(b.Content))
	case *parser.Image:
		return fmt.Sprintf(`<img src="%s" alt="%s"/>`, attrEscaper.Replace(b.Src), attrEscaper.Replace(b.Alt))
	default:
		return ""
	}
}

// Inlines renders inline content.
func Inlines(inlines []parser.Inline) string {
	var sb strings.Builder
	for _, in := range inlines {
		sb.WriteString(Inline(in))
	}
	return sb.String()
}

// Inline renders one inline node.
func Inline(in parser.Inline) string {
	switch in := in.(type) {
	case parser.SoftBreak:
		return "<br>"
	case parser.Text:
		return textEscaper.Replace(in.Value)
	case parser.Code:
		return "<code>" + textEscaper.Replace(in.Value) + "</code>"
	case *parser.Italic:
		return "<i>" + Inlines(in.Content) + "</i>"
	case *parser.Bold:
		return "<b>" + Inlines(in.Content) + "</b>"
	case parser.AbsoluteLink:
		return anchor(in.Location, in.Location)
	case parser.ReferenceLink:
		return anchor(in.Location, in.Name)
	case *parser.InterLink:
		return anchor(in.Location, in.Name)
	default:
		return ""
	}
}

func anchor(href, name string) string {
	return fmt.Sprintf(`<a href="%s">%s</a>`, attrEscaper.Replace(href), textEscaper.Replace(name))
}

// PlainText flattens inline content to its visible text.
func PlainText(inlines []parser.Inline) string {
	var sb strings.Builder
	for _, in := range inlines {
		switch in := in.(type) {
		case parser.SoftBreak:
			sb.WriteByte(' ')
		case parser.Text:
			sb.WriteString(in.Value)
		case parser.Code:
			sb.WriteString(in.Value)
		case *parser.Italic:
			sb.WriteString(PlainText(in.Content))
		case *parser.Bold:
			sb.WriteString(PlainText(in.Content))
		case parser.AbsoluteLink:
			sb.WriteString(in.Location)
		case parser.ReferenceLink:
			sb.WriteString(in.Name)
		case *parser.InterLink:
			sb.WriteString(in.Name)
		}
	}
	return sb.String()
}

// BodyText is the searchable text of a document: headers and paragraphs.
func BodyText(blocks []parser.Block) string {
	var parts []string
	for _, b := range blocks {
		switch b := b.(type) {
		case *parser.Header:
			parts = append(parts, PlainText(b.Content))
		case *parser.Paragraph:
			parts = append(parts, PlainText(b.Content))
		}
	}
	return strings.Join(parts, "\n")
}

// SplitTitle detaches a leading level-1 header. The header is not repeated
// in the returned blocks.
func SplitTitle(blocks []parser.Block) ([]parser.Inline, []parser.Block) {
	if len(blocks) == 0 {
		return nil, blocks
	}
	if h, ok := blocks[0].(*parser.Header); ok && h.Level == 1 {
		return h.Content, blocks[1:]
	}
	return nil, blocks
}
