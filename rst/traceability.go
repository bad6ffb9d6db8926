package rst

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hesusruiz/tracedoc/plantuml"
	"github.com/hesusruiz/tracedoc/trace"
)

// builtinOptions are the option keys the directives themselves consume,
// so they never show up again as free metadata rows.
var builtinOptions = map[string]bool{
	"id":       true,
	"type":     true,
	"level":    true,
	"status":   true,
	"value":    true,
	"term":     true,
	"alt":      true,
	"language": true,
}

// item renders a traceable item: the classed container carrying the
// anchor, a header line, the metadata table and the nested content.
func (r *renderer) item(d *ItemDirective) {
	ns := r.cfg.Namespace

	fmt.Fprintf(&r.sb, "<div class=\"%s-item %s-type-%s %s-status-%s\"",
		ns, ns, escapeAttr(d.Type), ns, escapeAttr(d.Status))
	if d.ID != "" {
		fmt.Fprintf(&r.sb, " id=\"req-%s\"", escapeAttr(d.ID))
	}
	r.sb.WriteString(">\n")

	fmt.Fprintf(&r.sb, "<p class=\"%s-header\"><span class=\"%s-id\">%s</span>",
		ns, ns, escapeText(d.ID))
	if d.Title != "" {
		fmt.Fprintf(&r.sb, " %s", escapeText(d.Title))
	}
	r.sb.WriteString("</p>\n")

	fixed := [][2]string{{"Type", r.cfg.TypeTitle(d.Type)}}
	if d.Level != "" {
		fixed = append(fixed, [2]string{"Level", r.cfg.LevelTitle(d.Level)})
	}
	fixed = append(fixed, [2]string{"Status", r.cfg.StatusTitle(d.Status)})
	if v := optionValue(d.Options, "value"); v != "" {
		fixed = append(fixed, [2]string{"Value", v})
	}
	if v := optionValue(d.Options, "term"); v != "" {
		fixed = append(fixed, [2]string{"Term", v})
	}
	r.metaTable(d.ID, fixed, d.Options)

	fmt.Fprintf(&r.sb, "<div class=\"%s-item-content\">\n", ns)
	r.blocks(d.Children)
	r.sb.WriteString("</div>\n</div>\n")
}

// graphic renders a traceable figure. A PlantUML body becomes an img
// pointing at the rendering server; anything else is nested content.
func (r *renderer) graphic(d *GraphicDirective) {
	ns := r.cfg.Namespace

	fmt.Fprintf(&r.sb, "<figure class=\"%s-graphic %s-status-%s\"",
		ns, ns, escapeAttr(d.Status))
	if d.ID != "" {
		fmt.Fprintf(&r.sb, " id=\"fig-%s\"", escapeAttr(d.ID))
	}
	r.sb.WriteString(">\n")

	if d.PlantUML != "" {
		src := plantuml.ImageURL(r.plantUMLServer(), []byte(d.PlantUML))
		fmt.Fprintf(&r.sb, "<img src=\"%s\" alt=\"%s\">\n",
			escapeAttr(src), escapeAttr(d.Alt))
	} else {
		r.blocks(d.Children)
	}

	if d.ID != "" || d.Title != "" {
		r.sb.WriteString("<figcaption>")
		if d.ID != "" {
			fmt.Fprintf(&r.sb, "<span class=\"%s-id\">%s</span> ", ns, escapeText(d.ID))
		}
		r.sb.WriteString(escapeText(d.Title))
		r.sb.WriteString("</figcaption>\n")
	}

	r.metaTable(d.ID, r.statusRows(d.Options, d.Status), d.Options)
	r.sb.WriteString("</figure>\n")
}

// statusRows builds the fixed metadata rows of a graphic or listing,
// which carry no type of their own: an optional level and the status.
func (r *renderer) statusRows(opts []Option, status string) [][2]string {
	var fixed [][2]string
	if lv := optionValue(opts, "level"); lv != "" {
		fixed = append(fixed, [2]string{"Level", r.cfg.LevelTitle(lv)})
	}
	return append(fixed, [2]string{"Status", r.cfg.StatusTitle(status)})
}

// listing renders a traceable code listing with highlighted source.
func (r *renderer) listing(d *ListingDirective) {
	ns := r.cfg.Namespace

	fmt.Fprintf(&r.sb, "<div class=\"%s-code %s-status-%s\"",
		ns, ns, escapeAttr(d.Status))
	if d.ID != "" {
		fmt.Fprintf(&r.sb, " id=\"code-%s\"", escapeAttr(d.ID))
	}
	r.sb.WriteString(">\n")

	if d.ID != "" || d.Title != "" {
		fmt.Fprintf(&r.sb, "<p class=\"%s-header\"><span class=\"%s-id\">%s</span> %s</p>\n",
			ns, ns, escapeText(d.ID), escapeText(d.Title))
	}

	r.code(d.Language, d.Text)

	r.metaTable(d.ID, r.statusRows(d.Options, d.Status), d.Options)
	r.sb.WriteString("</div>\n")
}

// metaTable writes the metadata rows of a traceable object: the fixed
// fields first, then outgoing links, leftover options, custom fields and
// finally the incoming links gathered from the index.
func (r *renderer) metaTable(id string, fixed [][2]string, opts []Option) {
	fmt.Fprintf(&r.sb, "<table class=\"%s-fields\">\n", r.cfg.Namespace)

	for _, row := range fixed {
		r.fieldRow(row[0], escapeText(row[1]))
	}

	// Outgoing links in configuration order.
	for _, lt := range r.cfg.LinkTypes {
		if raw := optionValue(opts, lt.Name); raw != "" {
			r.fieldRow(lt.Outgoing, r.targetLinks(raw))
		}
	}

	// Any option no directive or configuration entry consumed becomes a
	// verbatim row, in source order.
	for _, opt := range opts {
		if !r.consumedOption(opt.Key) {
			r.fieldRow(capitalize(opt.Key), escapeText(opt.Value))
		}
	}

	// Custom fields in configuration order, raw values mapped to their
	// display form.
	for _, cf := range r.cfg.CustomFields {
		raw := optionValue(opts, cf.Name)
		if raw == "" {
			continue
		}
		label := cf.Title
		if label == "" {
			label = capitalize(cf.Name)
		}
		value := raw
		if v, ok := cf.Values[raw]; ok {
			value = v
		}
		r.fieldRow(label, escapeText(value))
	}

	// Incoming links, grouped by type in configuration order.
	for _, lt := range r.cfg.LinkTypes {
		var ids []string
		for _, ref := range r.incoming[id] {
			if ref.linkType == lt.Name {
				ids = append(ids, ref.fromID)
			}
		}
		if len(ids) > 0 {
			r.fieldRow(lt.Incoming, r.idLinks(ids))
		}
	}

	r.sb.WriteString("</table>\n")
}

// fieldRow writes one metadata row. The value cell carries a class
// derived from the label, so stylesheets can address individual fields.
func (r *renderer) fieldRow(label, valueHTML string) {
	fmt.Fprintf(&r.sb, "<tr><th>%s</th><td class=\"%s-field-%s\">%s</td></tr>\n",
		escapeText(label), r.cfg.Namespace, slugify(label), valueHTML)
}

func (r *renderer) consumedOption(key string) bool {
	if builtinOptions[key] {
		return true
	}
	return r.cfg.LinkType(key) != nil || r.cfg.CustomField(key) != nil
}

// targetLinks turns the comma separated value of a link option into
// anchors.
func (r *renderer) targetLinks(raw string) string {
	var ids []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return r.idLinks(ids)
}

func (r *renderer) idLinks(ids []string) string {
	links := make([]string, len(ids))
	for k, id := range ids {
		links[k] = fmt.Sprintf("<a href=\"%s\">%s</a>",
			escapeAttr(r.refHref(id)), escapeText(id))
	}
	return strings.Join(links, ", ")
}

// refHref builds the href of a reference to a traceable object. Without
// an index entry the reference stays a same-page requirement anchor;
// with one, the anchor prefix follows the object kind and the path
// climbs out of the current folder when the target lives in another
// file.
func (r *renderer) refHref(id string) string {
	anchor := "req-" + id
	slug := ""
	if r.ctx != nil && r.ctx.Index != nil {
		if obj := r.ctx.Index.Get(id); obj != nil {
			anchor = obj.Kind.AnchorPrefix() + id
			slug = r.objectSlug(obj)
		}
	}
	if slug == "" || slug == r.ctx.CurrentSlug {
		return "#" + anchor
	}
	up := strings.Repeat("../", strings.Count(r.ctx.CurrentSlug, "/"))
	return up + slug + ".html#" + anchor
}

// objectSlug is the output path of the file defining obj, relative to
// the source root and without extension.
func (r *renderer) objectSlug(obj *trace.Object) string {
	if r.ctx.BasePath == "" || obj.Location.File == "" {
		return ""
	}
	rel, err := filepath.Rel(r.ctx.BasePath, obj.Location.File)
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	return filepath.ToSlash(rel)
}

func (r *renderer) plantUMLServer() string {
	if r.ctx != nil && r.ctx.PlantUMLServer != "" {
		return r.ctx.PlantUMLServer
	}
	return r.cfg.PlantUMLServer
}
