package rst

import (
	"fmt"
	"strings"

	"github.com/hesusruiz/tracedoc/trace"
)

// RenderContext supplies the surroundings of one rendered document: the
// project configuration, the cross-document index, and enough path
// information to link between generated pages. A nil context renders a
// standalone fragment with the default configuration.
type RenderContext struct {
	Config *trace.Config
	Index  *trace.Index

	// BasePath is the directory the source tree was read from and
	// CurrentSlug the output path of this document relative to it,
	// without extension. Together they let references climb out of
	// subfolders when the target lives in another file.
	BasePath    string
	CurrentSlug string

	// PlantUMLServer overrides the diagram rendering server.
	PlantUMLServer string
}

// Render produces the HTML fragment of a parsed document. Rendering is a
// pure transformation: besides the tree it only ever consults the
// context given here.
func Render(doc *Document, ctx *RenderContext) string {
	r := newRenderer(ctx)
	r.blocks(doc.Children)
	return r.sb.String()
}

// incomingRef records one link pointing at an object.
type incomingRef struct {
	fromID   string
	linkType string
}

type renderer struct {
	sb  strings.Builder
	cfg *trace.Config
	ctx *RenderContext

	// incoming maps an object id to the references pointing at it,
	// gathered once per render call in index order.
	incoming map[string][]incomingRef
}

func newRenderer(ctx *RenderContext) *renderer {
	r := &renderer{ctx: ctx, cfg: trace.DefaultConfig()}
	if ctx != nil && ctx.Config != nil {
		r.cfg = ctx.Config
	}
	r.incoming = map[string][]incomingRef{}
	if ctx != nil && ctx.Index != nil {
		for _, obj := range ctx.Index.All() {
			for _, link := range obj.Links {
				for _, target := range link.Targets {
					r.incoming[target] = append(r.incoming[target],
						incomingRef{fromID: obj.ID, linkType: link.Type})
				}
			}
		}
	}
	return r
}

var (
	textEscaper = strings.NewReplacer(
		"&", "&amp;", "<", "&lt;", ">", "&gt;", "\"", "&#34;", "'", "&#39;")
	attrEscaper = strings.NewReplacer(
		"&", "&amp;", "<", "&lt;", ">", "&gt;", "\"", "&quot;", "'", "&#39;")
)

func escapeText(s string) string { return textEscaper.Replace(s) }
func escapeAttr(s string) string { return attrEscaper.Replace(s) }

func (r *renderer) blocks(bs []Block) {
	for _, b := range bs {
		r.block(b)
	}
}

func (r *renderer) block(b Block) {
	switch b := b.(type) {
	case *Section:
		r.section(b)
	case *Paragraph:
		r.sb.WriteString("<p>")
		r.inlines(b.Children)
		r.sb.WriteString("</p>\n")
	case *BulletList:
		r.sb.WriteString("<ul>\n")
		r.listItems(b.Items)
		r.sb.WriteString("</ul>\n")
	case *EnumList:
		if b.Start > 1 {
			fmt.Fprintf(&r.sb, "<ol start=\"%d\">\n", b.Start)
		} else {
			r.sb.WriteString("<ol>\n")
		}
		r.listItems(b.Items)
		r.sb.WriteString("</ol>\n")
	case *DefinitionList:
		r.sb.WriteString("<dl>\n")
		for _, item := range b.Items {
			r.sb.WriteString("<dt>")
			r.inlines(item.Term)
			r.sb.WriteString("</dt>\n<dd>")
			r.blocks(item.Definition)
			r.sb.WriteString("</dd>\n")
		}
		r.sb.WriteString("</dl>\n")
	case *CodeBlock:
		r.code(b.Language, b.Text)
	case *LiteralBlock:
		fmt.Fprintf(&r.sb, "<pre class=\"literal\">%s</pre>\n", escapeText(b.Text))
	case *BlockQuote:
		r.sb.WriteString("<blockquote>\n")
		r.blocks(b.Children)
		r.sb.WriteString("</blockquote>\n")
	case *Image:
		fmt.Fprintf(&r.sb, "<img src=\"%s\" alt=\"%s\">\n",
			escapeAttr(b.URI), escapeAttr(b.Alt))
	case *Admonition:
		fmt.Fprintf(&r.sb, "<div class=\"admonition %s\">\n<p class=\"admonition-title\">%s</p>\n",
			escapeAttr(b.Kind), escapeText(b.Title))
		r.blocks(b.Children)
		r.sb.WriteString("</div>\n")
	case *Toctree:
		r.sb.WriteString("<ul class=\"toctree\">\n")
		for _, entry := range b.Entries {
			fmt.Fprintf(&r.sb, "<li><a href=\"%s.html\">%s</a></li>\n",
				escapeAttr(entry), escapeText(entry))
		}
		r.sb.WriteString("</ul>\n")
	case *Transition:
		r.sb.WriteString("<hr>\n")
	case *Comment:
		// Comments produce no output.
	case *FieldList:
		r.sb.WriteString("<table class=\"field-list\">\n")
		for _, f := range b.Fields {
			fmt.Fprintf(&r.sb, "<tr><th>%s</th><td>", escapeText(f.Name))
			r.inlines(f.Body)
			r.sb.WriteString("</td></tr>\n")
		}
		r.sb.WriteString("</table>\n")
	case *Table:
		r.table(b)
	case *RawHTML:
		r.sb.WriteString(b.Text)
		r.sb.WriteByte('\n')
	case *ItemDirective:
		r.item(b)
	case *GraphicDirective:
		r.graphic(b)
	case *ListingDirective:
		r.listing(b)
	case *GenericDirective:
		r.generic(b)
	}
}

func (r *renderer) section(s *Section) {
	fmt.Fprintf(&r.sb, "<section id=\"%s\">\n", escapeAttr(s.ID))
	depth := s.Depth
	if depth < 1 {
		depth = 1
	}
	if depth > 6 {
		depth = 6
	}
	fmt.Fprintf(&r.sb, "<h%d>", depth)
	r.inlines(s.Inline)
	fmt.Fprintf(&r.sb, "</h%d>\n", depth)
	r.blocks(s.Children)
	r.sb.WriteString("</section>\n")
}

func (r *renderer) listItems(items [][]Block) {
	for _, item := range items {
		r.sb.WriteString("<li>")
		r.blocks(item)
		r.sb.WriteString("</li>\n")
	}
}

func (r *renderer) table(t *Table) {
	r.sb.WriteString("<table>\n")
	if len(t.Headers) > 0 {
		r.sb.WriteString("<thead>\n")
		for _, row := range t.Headers {
			r.tableRow(row, "th")
		}
		r.sb.WriteString("</thead>\n")
	}
	r.sb.WriteString("<tbody>\n")
	for _, row := range t.Rows {
		r.tableRow(row, "td")
	}
	r.sb.WriteString("</tbody>\n</table>\n")
}

func (r *renderer) tableRow(row []TableCell, tag string) {
	r.sb.WriteString("<tr>")
	for _, cell := range row {
		fmt.Fprintf(&r.sb, "<%s>", tag)
		r.inlines(cell.Inline)
		fmt.Fprintf(&r.sb, "</%s>", tag)
	}
	r.sb.WriteString("</tr>\n")
}

// code emits a highlighted block, falling back to a plain escaped pre
// when the highlighter cannot handle the source.
func (r *renderer) code(lang, text string) {
	if html, err := highlight(text, lang, r.cfg.CodeStyle); err == nil {
		r.sb.WriteString("<pre class=\"chroma\">")
		r.sb.WriteString(html)
		r.sb.WriteString("</pre>\n")
		return
	}
	fmt.Fprintf(&r.sb, "<pre>%s</pre>\n", escapeText(text))
}

// generic renders a directive nobody claimed. The output keeps the name,
// the argument, the options and the raw content, so nothing the author
// wrote is lost.
func (r *renderer) generic(d *GenericDirective) {
	fmt.Fprintf(&r.sb, "<div class=\"directive directive-%s\">\n", escapeAttr(d.Name))
	fmt.Fprintf(&r.sb, "<p class=\"directive-header\">%s</p>\n",
		escapeText(strings.TrimSpace(d.Name+" "+d.Argument)))
	for _, opt := range d.Options {
		fmt.Fprintf(&r.sb, "<p class=\"directive-option\">:%s: %s</p>\n",
			escapeText(opt.Key), escapeText(opt.Value))
	}
	if len(d.Content) > 0 {
		fmt.Fprintf(&r.sb, "<pre>%s</pre>\n", escapeText(strings.Join(d.Content, "\n")))
	}
	r.sb.WriteString("</div>\n")
}

func (r *renderer) inlines(nodes []Inline) {
	for _, n := range nodes {
		switch n := n.(type) {
		case *Text:
			r.sb.WriteString(escapeText(n.Value))
		case *Strong:
			r.sb.WriteString("<strong>")
			r.inlines(n.Children)
			r.sb.WriteString("</strong>")
		case *Emphasis:
			r.sb.WriteString("<em>")
			r.inlines(n.Children)
			r.sb.WriteString("</em>")
		case *InlineCode:
			fmt.Fprintf(&r.sb, "<code>%s</code>", escapeText(n.Value))
		case *Hyperlink:
			text := n.Text
			if text == "" {
				text = n.URI
			}
			fmt.Fprintf(&r.sb, "<a href=\"%s\">%s</a>", escapeAttr(n.URI), escapeText(text))
		case *Role:
			r.role(n)
		}
	}
}

// role renders an interpreted role. The item role becomes a link to the
// referenced object; any other role keeps its name as a class for the
// stylesheet to pick up.
func (r *renderer) role(n *Role) {
	if n.Name == "item" {
		fmt.Fprintf(&r.sb, "<a href=\"%s\">%s</a>",
			escapeAttr(r.refHref(n.Target)), escapeText(n.Target))
		return
	}
	fmt.Fprintf(&r.sb, "<span class=\"role role-%s\">%s</span>",
		escapeAttr(n.Name), escapeText(n.Target))
}

// slugify lowers a title to an HTML id: letters and digits survive,
// everything else collapses into single dashes.
func slugify(s string) string {
	var sb strings.Builder
	dash := false
	for _, c := range strings.ToLower(s) {
		switch {
		case c >= 'a' && c <= 'z' || c >= '0' && c <= '9':
			if dash && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			dash = false
			sb.WriteRune(c)
		default:
			dash = true
		}
	}
	return sb.String()
}
