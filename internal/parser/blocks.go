package parser

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/starford/wikarden/internal/apperr"
)

const (
	fence          = "```"
	maxHeaderLevel = 4
)

// segmenter is the first pass: it turns lines into blocks whose inline
// content is still raw text, and collects [name]: url definitions.
type segmenter struct {
	blocks []Block
	refs   map[string]string

	code      *CodeBlock // open fenced block, nil when outside one
	para      *Paragraph // paragraph the next line may extend
	continues bool
}

func segment(raw string) ([]Block, map[string]string, error) {
	s := &segmenter{refs: make(map[string]string)}
	for _, line := range splitLines(raw) {
		if err := s.line(line); err != nil {
			return nil, nil, err
		}
	}
	return s.blocks, s.refs, nil
}

func (s *segmenter) line(line string) error {
	if s.code != nil {
		if line == fence {
			s.code = nil
			return nil
		}
		s.code.Content += line + "\n"
		return nil
	}

	if line == "" {
		s.continues = false
		return nil
	}

	if lang, ok := strings.CutPrefix(line, fence); ok {
		s.continues = false
		s.code = &CodeBlock{Language: lang}
		s.blocks = append(s.blocks, s.code)
		return nil
	}

	if name, url, ok := referenceDefinition(line); ok {
		s.continues = false
		s.refs[name] = url
		return nil
	}

	if level, text, ok := header(line); ok {
		s.continues = false
		s.blocks = append(s.blocks, &Header{Level: level, Content: []Inline{Text{Value: text}}})
		return nil
	}

	return s.paragraphLine(line)
}

func (s *segmenter) paragraphLine(line string) error {
	if !s.continues || s.para == nil {
		s.para = &Paragraph{Content: []Inline{Text{Value: line}}}
		s.blocks = append(s.blocks, s.para)
		s.continues = true
		return nil
	}

	if alt, ok := strings.CutPrefix(line, "^"); ok {
		s.continues = false
		return s.image(strings.TrimLeftFunc(alt, unicode.IsSpace))
	}

	s.para.Content = append(s.para.Content, SoftBreak{}, Text{Value: line})
	return nil
}

// image converts the last line of the open paragraph into an Image block.
// A single-line paragraph is replaced; longer paragraphs keep their earlier
// lines and the image follows them.
func (s *segmenter) image(alt string) error {
	content := s.para.Content
	src, ok := content[len(content)-1].(Text)
	if !ok {
		return fmt.Errorf("parser: %w: caption %q follows non-text content", apperr.ErrMalformedImage, alt)
	}
	content = content[:len(content)-1]
	if n := len(content); n > 0 {
		if _, ok := content[n-1].(SoftBreak); ok {
			content = content[:n-1]
		}
	}

	img := &Image{Src: src.Value, Alt: alt}
	if len(content) == 0 {
		s.blocks[len(s.blocks)-1] = img
	} else {
		s.para.Content = content
		s.blocks = append(s.blocks, img)
	}
	s.para = nil
	return nil
}

// referenceDefinition matches "[name]: url".
func referenceDefinition(line string) (name, url string, ok bool) {
	rest, ok := strings.CutPrefix(line, "[")
	if !ok {
		return "", "", false
	}
	return strings.Cut(rest, "]: ")
}

// header matches one to four '#' followed by a space.
func header(line string) (level int, text string, ok bool) {
	marks, text, found := strings.Cut(line, " ")
	if !found || marks == "" || len(marks) > maxHeaderLevel {
		return 0, "", false
	}
	if strings.Trim(marks, "#") != "" {
		return 0, "", false
	}
	return len(marks), text, true
}

// splitLines splits on "\n", dropping a trailing "\r" from each line and the
// empty element after a final newline.
func splitLines(raw string) []string {
	if raw == "" {
		return nil
	}
	lines := strings.Split(raw, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
