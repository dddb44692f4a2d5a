package parser

// Walk calls fn for every inline reachable from header and paragraph
// content, descending into italic and bold nodes. Code blocks and image
// sources are not visited. Walk stops at the first error fn returns.
func Walk(blocks []Block, fn func(Inline) error) error {
	for _, b := range blocks {
		var content []Inline
		switch b := b.(type) {
		case *Header:
			content = b.Content
		case *Paragraph:
			content = b.Content
		default:
			continue
		}
		if err := walkInlines(content, fn); err != nil {
			return err
		}
	}
	return nil
}

func walkInlines(inlines []Inline, fn func(Inline) error) error {
	for _, in := range inlines {
		if err := fn(in); err != nil {
			return err
		}
		var nested []Inline
		switch in := in.(type) {
		case *Italic:
			nested = in.Content
		case *Bold:
			nested = in.Content
		}
		if err := walkInlines(nested, fn); err != nil {
			return err
		}
	}
	return nil
}

// InterLinks returns every interlink placeholder in the document, in
// document order. The returned pointers alias the tree.
func (d *Document) InterLinks() []*InterLink {
	var out []*InterLink
	_ = Walk(d.Blocks, func(in Inline) error {
		if l, ok := in.(*InterLink); ok {
			out = append(out, l)
		}
		return nil
	})
	return out
}

// Images returns the image blocks whose source is still an interlink.
func (d *Document) Images() []*Image {
	var out []*Image
	for _, b := range d.Blocks {
		if img, ok := b.(*Image); ok && img.Link != nil {
			out = append(out, img)
		}
	}
	return out
}
