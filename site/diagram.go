package site

import (
	"context"
	"fmt"
	"strings"

	"oss.terrastruct.com/d2/d2graph"
	"oss.terrastruct.com/d2/d2layouts/d2dagrelayout"
	"oss.terrastruct.com/d2/d2lib"
	"oss.terrastruct.com/d2/d2renderers/d2svg"
	"oss.terrastruct.com/d2/d2themes/d2themescatalog"
	"oss.terrastruct.com/d2/lib/textmeasure"

	"github.com/hesusruiz/tracedoc/trace"
)

// GraphD2 writes the whole index as a d2 diagram: one node per object,
// one labeled edge per outgoing link. The ids are quoted so that dots
// and dashes inside them do not collide with the d2 syntax.
func GraphD2(idx *trace.Index) string {
	var sb strings.Builder

	for _, obj := range idx.All() {
		switch obj.Kind {
		case trace.KindGraphic:
			fmt.Fprintf(&sb, "%s.shape: document\n", d2key(obj.ID))
		case trace.KindListing:
			fmt.Fprintf(&sb, "%s.shape: page\n", d2key(obj.ID))
		default:
			fmt.Fprintf(&sb, "%s\n", d2key(obj.ID))
		}
	}

	for _, obj := range idx.All() {
		for _, link := range obj.Links {
			for _, target := range link.Targets {
				fmt.Fprintf(&sb, "%s -> %s: %s\n",
					d2key(obj.ID), d2key(target), link.Type)
			}
		}
	}

	return sb.String()
}

func d2key(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `\"`) + `"`
}

// RenderGraphSVG compiles a d2 diagram and renders it to SVG with the
// dagre layout and the neutral theme.
func RenderGraphSVG(ctx context.Context, src string) ([]byte, error) {
	ruler, err := textmeasure.NewRuler()
	if err != nil {
		return nil, err
	}

	defaultLayout := func(ctx context.Context, g *d2graph.Graph) error {
		return d2dagrelayout.Layout(ctx, g, nil)
	}
	diagram, _, err := d2lib.Compile(ctx, src, &d2lib.CompileOptions{
		Layout: defaultLayout,
		Ruler:  ruler,
	})
	if err != nil {
		return nil, err
	}

	return d2svg.Render(diagram, &d2svg.RenderOpts{
		Pad:     d2svg.DEFAULT_PADDING,
		ThemeID: d2themescatalog.NeutralDefault.ID,
	})
}
