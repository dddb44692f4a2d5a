package parser

import (
	"strings"
)

type tokenKind int

const (
	tokText tokenKind = iota
	tokCode
	tokItalic
	tokBold
)

type token struct {
	kind tokenKind
	text string
}

// tokenize splits a span into text, code and emphasis delimiter tokens.
// Empty text tokens are not emitted.
func tokenize(raw string) []token {
	var (
		tokens []token
		cur    strings.Builder
		inCode bool
	)
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, token{kind: tokText, text: cur.String()})
			cur.Reset()
		}
	}

	// '*' and '`' are ASCII, so byte iteration never splits a multi-byte rune
	// on a delimiter.
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c == '`':
			if inCode {
				tokens = append(tokens, token{kind: tokCode, text: cur.String()})
				cur.Reset()
				inCode = false
			} else {
				flush()
				inCode = true
			}
		case inCode:
			cur.WriteByte(c)
		case c == '*':
			flush()
			if i+1 < len(raw) && raw[i+1] == '*' {
				tokens = append(tokens, token{kind: tokBold})
				i++
			} else {
				tokens = append(tokens, token{kind: tokItalic})
			}
		default:
			cur.WriteByte(c)
		}
	}

	if inCode {
		tokens = append(tokens, token{kind: tokCode, text: cur.String()})
	} else {
		flush()
	}
	return tokens
}

// pending is a nesting stack entry: an open delimiter or a formed inline.
type pending struct {
	open   tokenKind
	inline Inline
}

func (p pending) isMarker() bool { return p.inline == nil }

// resolveSpan runs tokenize, link classification and emphasis nesting on
// one raw text span.
func resolveSpan(raw string, refs map[string]string) []Inline {
	var (
		out   []Inline
		stack []pending
	)
	emit := func(inlines ...Inline) {
		if len(stack) == 0 {
			out = append(out, inlines...)
			return
		}
		for _, in := range inlines {
			stack = append(stack, pending{inline: in})
		}
	}

	for _, tok := range tokenize(raw) {
		switch tok.kind {
		case tokText:
			emit(classify(tok.text, refs)...)
		case tokCode:
			emit(Code{Value: tok.text})
		case tokItalic, tokBold:
			i := lastMarker(stack, tok.kind)
			if i < 0 {
				stack = append(stack, pending{open: tok.kind})
				break
			}
			content := unwind(stack[i+1:])
			stack = stack[:i]
			var node Inline = &Italic{Content: content}
			if tok.kind == tokBold {
				node = &Bold{Content: content}
			}
			stack = append(stack, pending{inline: node})
		}

		if len(stack) == 1 && !stack[0].isMarker() {
			out = append(out, stack[0].inline)
			stack = stack[:0]
		}
	}

	out = append(out, unwind(stack)...)
	return mergeText(out)
}

func lastMarker(stack []pending, kind tokenKind) int {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].isMarker() && stack[i].open == kind {
			return i
		}
	}
	return -1
}

// unwind turns stack entries back into inlines. Delimiters that were never
// closed become literal asterisks so no text is lost.
func unwind(entries []pending) []Inline {
	out := make([]Inline, 0, len(entries))
	for _, e := range entries {
		switch {
		case !e.isMarker():
			out = append(out, e.inline)
		case e.open == tokBold:
			out = append(out, Text{Value: "**"})
		default:
			out = append(out, Text{Value: "*"})
		}
	}
	return mergeText(out)
}

// mergeText joins adjacent Text nodes.
func mergeText(inlines []Inline) []Inline {
	out := inlines[:0:0]
	for _, in := range inlines {
		t, ok := in.(Text)
		if !ok {
			out = append(out, in)
			continue
		}
		if n := len(out); n > 0 {
			if prev, ok := out[n-1].(Text); ok {
				out[n-1] = Text{Value: prev.Value + t.Value}
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// resolveInlines replaces raw text nodes of a block with resolved inlines.
func resolveInlines(content []Inline, refs map[string]string) []Inline {
	var out []Inline
	for _, in := range content {
		switch in := in.(type) {
		case Text:
			out = append(out, resolveSpan(in.Value, refs)...)
		default:
			out = append(out, in)
		}
	}
	return out
}
