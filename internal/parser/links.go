package parser

import (
	"strings"
)

// classify splits a text token into plain text and link inlines.
//
//	{{url}}  absolute link
//	{!name}  reference link, looked up in refs
//	{name}   interlink, resolved later against the document tree
func classify(raw string, refs map[string]string) []Inline {
	if start := strings.Index(raw, "{{"); start >= 0 {
		if end := strings.Index(raw[start+2:], "}}"); end >= 0 {
			end += start + 2
			out := classify(raw[:start], refs)
			out = append(out, AbsoluteLink{Location: raw[start+2 : end]})
			return append(out, classify(raw[end+2:], refs)...)
		}
	}

	if start := strings.IndexByte(raw, '{'); start >= 0 {
		if end := strings.IndexByte(raw[start+1:], '}'); end >= 0 {
			end += start + 1
			out := plain(raw[:start])
			out = append(out, linkContent(raw[start+1:end], refs))
			return append(out, classify(raw[end+1:], refs)...)
		}
	}

	return plain(raw)
}

func plain(s string) []Inline {
	if s == "" {
		return nil
	}
	return []Inline{Text{Value: s}}
}

// linkContent classifies the text between single braces. A reference that
// is not defined falls back to literal text.
func linkContent(inside string, refs map[string]string) Inline {
	if inside == "" {
		return Text{Value: "{}"}
	}
	if name, ok := strings.CutPrefix(inside, "!"); ok {
		if location, found := refs[name]; found {
			return ReferenceLink{Name: name, Location: location}
		}
		return Text{Value: "{" + name + "}"}
	}
	return &InterLink{Name: inside}
}
