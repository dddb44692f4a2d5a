package parser

// Block is a top-level structural unit of a document.
type Block interface {
	block()
}

// Header is a heading of level 1 to 4.
type Header struct {
	Level   int
	Content []Inline
}

// Paragraph is a run of contiguous text lines.
type Paragraph struct {
	Content []Inline
}

// CodeBlock is a fenced block whose content is never inline-parsed.
type CodeBlock struct {
	Language string
	Content  string
}

// Image is a paragraph line turned into an image by a following ^caption line.
// Src holds raw link syntax until inline resolution rewrites it to a URL.
// When the source is an interlink, Link keeps the placeholder until binding.
type Image struct {
	Src  string
	Alt  string
	Link *InterLink
}

func (*Header) block()    {}
func (*Paragraph) block() {}
func (*CodeBlock) block() {}
func (*Image) block()     {}

// Inline is a span-level unit within a block.
type Inline interface {
	inline()
}

type (
	SoftBreak struct{}

	Text struct {
		Value string
	}

	Code struct {
		Value string
	}

	Italic struct {
		Content []Inline
	}

	Bold struct {
		Content []Inline
	}

	// AbsoluteLink is written {{url}}.
	AbsoluteLink struct {
		Location string
	}

	// ReferenceLink is written {!name}; Location comes from the document's
	// [name]: url definitions.
	ReferenceLink struct {
		Name     string
		Location string
	}

	// InterLink is written {name} and targets another document by file name.
	// Location stays empty until the binder fills it in.
	InterLink struct {
		Name     string
		Location string
	}
)

func (SoftBreak) inline()     {}
func (Text) inline()          {}
func (Code) inline()          {}
func (*Italic) inline()       {}
func (*Bold) inline()         {}
func (AbsoluteLink) inline()  {}
func (ReferenceLink) inline() {}
func (*InterLink) inline()    {}
