package site

import (
	"html"
	"os"
	"strings"

	"github.com/hesusruiz/tracedoc/sliceedit"
)

// pageTemplate is the built-in page scaffold. A project replaces it with
// its own file through the template option; any template uses the same
// {#name} placeholders.
const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{#title}</title>
<link rel="stylesheet" href="{#assets}/tracedoc.css">
</head>
<body>
<main>
{#content}
</main>
</body>
</html>
`

// renderPage wraps a rendered fragment in the page template. The edits
// are queued against the template bytes and applied in one pass, so a
// large content fragment is copied only once.
func (b *Builder) renderPage(title, slug, content string) []byte {
	tmpl := []byte(pageTemplate)
	if b.opts.Template != "" {
		data, err := os.ReadFile(b.opts.Template)
		if err != nil {
			b.log.Warnw("template not readable, using the built-in one",
				"name", b.opts.Template, "error", err)
		} else {
			tmpl = data
		}
	}

	ed := sliceedit.NewBuffer(tmpl)
	ed.ReplaceAllString("{#title}", html.EscapeString(title))
	ed.ReplaceAllString("{#assets}", relPrefix(slug)+"assets")
	ed.ReplaceAllString("{#content}", content)
	return ed.Bytes()
}

// relPrefix climbs from the folder of a slug back to the output root.
// A top-level page gets the empty prefix, so its links stay relative.
func relPrefix(slug string) string {
	return strings.Repeat("../", strings.Count(slug, "/"))
}

// stylesheet is the built-in CSS, written against the class contract of
// the renderer: {#ns}-item, {#ns}-graphic and {#ns}-code containers with
// type and status classes, plus the {#ns}-fields metadata tables.
const stylesheet = `body {
  font-family: system-ui, sans-serif;
  line-height: 1.5;
  color: #1f2328;
}
main {
  max-width: 52rem;
  margin: 0 auto;
  padding: 0 1rem 4rem;
}
pre {
  background: #f6f8fa;
  padding: .75rem;
  overflow-x: auto;
}
table {
  border-collapse: collapse;
}
td, th {
  border: 1px solid #d0d7de;
  padding: .25rem .6rem;
  text-align: left;
}
.admonition {
  border-left: 4px solid #d0d7de;
  background: #f6f8fa;
  padding: .5rem 1rem;
  margin: 1rem 0;
}
.admonition-title {
  font-weight: 600;
  margin: 0;
}
.{#ns}-item, .{#ns}-graphic, .{#ns}-code {
  border: 1px solid #d0d7de;
  border-radius: 6px;
  padding: .75rem 1rem;
  margin: 1.25rem 0;
}
.{#ns}-header {
  font-weight: 600;
  margin-top: 0;
}
.{#ns}-id {
  font-family: monospace;
  background: #eef1f4;
  padding: 0 .3rem;
  border-radius: 3px;
}
.{#ns}-fields {
  font-size: .9rem;
  margin: .5rem 0;
}
.{#ns}-status-draft {
  border-left: 4px solid #d4a72c;
}
.{#ns}-status-approved {
  border-left: 4px solid #2da44e;
}
.{#ns}-status-deprecated {
  border-left: 4px solid #cf222e;
}
`

// defaultStylesheet returns the built-in stylesheet with the namespace
// of the project configuration filled in.
func (b *Builder) defaultStylesheet() []byte {
	ed := sliceedit.NewBuffer([]byte(stylesheet))
	ed.ReplaceAllString("{#ns}", b.cfg.Namespace)
	return ed.Bytes()
}
