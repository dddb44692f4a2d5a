package mcpserver

// MarkupDialect describes the wikarden markup so that LLM consumers can read
// and write documents that build cleanly.
const MarkupDialect = `# Wikarden Markup Dialect

Documents are plain text files with the markup extension (default .md).
Binding is strict: a build fails if any interlink is missing or ambiguous.

## Front matter

An optional YAML block may open the file:

    ---
    title: Overrides the page title
    draft: true        # parsed and bound, but not written
    ---

## Blocks

- Blank lines separate blocks. Consecutive text lines form one paragraph;
  each line break inside it renders as <br>.
- ` + "`" + `# Title` + "`" + ` to ` + "`" + `#### Title` + "`" + `: headers of level 1 to 4. A leading level-1
  header becomes the page title and is not repeated in the body.
- A line that is exactly three backticks followed by an optional language
  opens a code block; a line of exactly three backticks closes it. Code is
  never parsed for markup.
- ` + "`" + `[name]: https://example.com` + "`" + ` defines a reference link for this document.
  Definitions render nothing.
- An image is a link on its own line followed by a caption line starting
  with ` + "`" + `^` + "`" + `:

      {{/img/logo.png}}
      ^ The project logo

## Inline markup

- ` + "`" + `*italic*` + "`" + ` and ` + "`" + `**bold**` + "`" + `, nestable: ` + "`" + `*a **b** c*` + "`" + `.
- ` + "`" + `` + "`" + ` ` + "`" + `code` + "`" + ` ` + "`" + `` + "`" + ` spans.
- ` + "`" + `{{https://example.com}}` + "`" + `: absolute link, shown as its URL.
- ` + "`" + `{!name}` + "`" + `: reference link to a ` + "`" + `[name]: url` + "`" + ` definition. Unknown names
  are kept as literal text.
- ` + "`" + `{name}` + "`" + `: interlink to the document ` + "`" + `name.md` + "`" + ` anywhere in the tree,
  matched by exact, case-sensitive file name. As an image source,
  ` + "`" + `{logo.png}` + "`" + ` matches any file by its full name.

## Rules for authors

1. Every interlink name must match exactly one document.
2. Two documents with the same file name cannot both be interlinked.
3. Use reference links for external URLs used more than once.
4. Unmatched ` + "`" + `*` + "`" + ` or ` + "`" + `**` + "`" + ` stay as literal characters.
`
