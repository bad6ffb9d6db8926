package rst

import (
	"fmt"
	"strings"
	"testing"

	"github.com/hesusruiz/tracedoc/trace"
)

// requireOrder checks that the markers appear in the rendered output in
// the given order.
func requireOrder(t *testing.T, out string, markers []string) {
	t.Helper()
	last := -1
	for _, m := range markers {
		pos := strings.Index(out, m)
		if pos < 0 {
			t.Fatalf("output missing %q:\n%s", m, out)
		}
		if pos <= last {
			t.Errorf("%q appears out of order", m)
		}
		last = pos
	}
}

func TestRender_ItemContainer(t *testing.T) {
	src := ".. item:: Braking distance\n" +
		"   :id: R1\n" +
		"   :type: requirement\n" +
		"   :status: approved\n" +
		"\n" +
		"   The system shall stop in time.\n"
	out := Render(ParseDocument(src), nil)

	for _, w := range []string{
		`class="trace-item trace-type-requirement trace-status-approved"`,
		`id="req-R1"`,
		`class="trace-item-content"`,
		"The system shall stop in time.",
	} {
		if !strings.Contains(out, w) {
			t.Errorf("Render() missing %q:\n%s", w, out)
		}
	}
}

func TestRender_GraphicContainer(t *testing.T) {
	src := ".. graphic:: Overview\n" +
		"   :id: G1\n" +
		"\n" +
		"   @startuml\n" +
		"   a -> b\n" +
		"   @enduml\n"
	out := Render(ParseDocument(src), nil)

	for _, w := range []string{
		`class="trace-graphic trace-status-draft"`,
		`id="fig-G1"`,
		`src="https://www.plantuml.com/plantuml/png/`,
		`alt="Overview"`,
	} {
		if !strings.Contains(out, w) {
			t.Errorf("Render() missing %q:\n%s", w, out)
		}
	}

	// The diagram URL must be stable across renders.
	if again := Render(ParseDocument(src), nil); again != out {
		t.Errorf("graphic render is not deterministic")
	}
}

func TestRender_ListingContainer(t *testing.T) {
	src := ".. listing:: Sample\n" +
		"   :id: C1\n" +
		"   :language: python\n" +
		"\n" +
		"   print(1)\n"
	out := Render(ParseDocument(src), nil)

	for _, w := range []string{
		`class="trace-code trace-status-draft"`,
		`id="code-C1"`,
		"print",
	} {
		if !strings.Contains(out, w) {
			t.Errorf("Render() missing %q:\n%s", w, out)
		}
	}
}

func TestRender_MetadataRowOrder(t *testing.T) {
	cfg := trace.DefaultConfig()
	cfg.CustomFields = []trace.CustomField{
		{Name: "asil", Title: "ASIL Level", Values: map[string]string{"a": "ASIL-A"}},
	}

	src := ".. item:: Braking\n" +
		"   :id: R2\n" +
		"   :level: system\n" +
		"   :value: 42\n" +
		"   :satisfies: R1\n" +
		"   :rationale: because physics\n" +
		"   :asil: a\n"
	out := Render(ParseDocument(src), &RenderContext{Config: cfg})

	requireOrder(t, out, []string{
		`trace-field-type`,
		`trace-field-level`,
		`trace-field-status`,
		`trace-field-value`,
		`trace-field-satisfies`,
		`trace-field-rationale`,
		`trace-field-asil-level`,
	})

	if !strings.Contains(out, "ASIL-A") {
		t.Errorf("custom field value not mapped to its display form:\n%s", out)
	}
	if !strings.Contains(out, "because physics") {
		t.Errorf("free option row missing:\n%s", out)
	}
}

func TestRender_IncomingLinks(t *testing.T) {
	idx := trace.NewIndex()
	idx.Add(&trace.Object{ID: "A", Kind: trace.KindItem,
		Links: []trace.Link{{Type: "satisfies", Targets: []string{"B"}}}})
	idx.Add(&trace.Object{ID: "C", Kind: trace.KindItem,
		Links: []trace.Link{{Type: "verifies", Targets: []string{"B"}}}})
	idx.Add(&trace.Object{ID: "D", Kind: trace.KindItem,
		Links: []trace.Link{{Type: "satisfies", Targets: []string{"B"}}}})
	idx.Add(&trace.Object{ID: "B", Kind: trace.KindItem})

	out := Render(ParseDocument(".. item:: Target\n   :id: B\n"),
		&RenderContext{Index: idx})

	// Incoming rows are grouped by link type in configuration order, and
	// every outgoing link shows up at its target.
	requireOrder(t, out, []string{
		"Satisfied by",
		`href="#req-A"`,
		`href="#req-D"`,
		"Verified by",
		`href="#req-C"`,
	})
}

// Every outgoing satisfies link in a generated index must show up as an
// incoming row when its target is rendered, for every pair at once.
func TestRender_IncomingLinkSymmetry(t *testing.T) {
	const n = 12
	idx := trace.NewIndex()
	for i := 0; i < n; i++ {
		obj := &trace.Object{ID: fmt.Sprintf("R%02d", i), Kind: trace.KindItem}
		// Each object satisfies its two predecessors.
		for _, d := range []int{1, 2} {
			if i-d >= 0 {
				obj.Links = append(obj.Links, trace.Link{
					Type:    "satisfies",
					Targets: []string{fmt.Sprintf("R%02d", i-d)},
				})
			}
		}
		idx.Add(obj)
	}

	for _, target := range idx.All() {
		src := fmt.Sprintf(".. item:: Target\n   :id: %s\n", target.ID)
		out := Render(ParseDocument(src), &RenderContext{Index: idx})

		for _, other := range idx.All() {
			points := false
			for _, id := range other.Targets("satisfies") {
				if id == target.ID {
					points = true
				}
			}
			ref := fmt.Sprintf(`href="#req-%s"`, other.ID)
			if points && !strings.Contains(out, ref) {
				t.Errorf("rendering %s: no incoming row for %s", target.ID, other.ID)
			}
			if points && !strings.Contains(out, "Satisfied by") {
				t.Errorf("rendering %s: incoming label missing", target.ID)
			}
		}
	}
}

func TestRender_OutgoingLinkList(t *testing.T) {
	src := ".. item:: Child\n   :id: R3\n   :satisfies: R1, R2\n"
	out := Render(ParseDocument(src), nil)

	requireOrder(t, out, []string{
		"Satisfies",
		`<a href="#req-R1">R1</a>`,
		`<a href="#req-R2">R2</a>`,
	})
}

func TestRenderer_RefHref(t *testing.T) {
	idx := trace.NewIndex()
	idx.Add(&trace.Object{ID: "X", Kind: trace.KindItem,
		Location: trace.Location{File: "/src/sub/other.rst", Line: 3}})
	idx.Add(&trace.Object{ID: "Y", Kind: trace.KindGraphic,
		Location: trace.Location{File: "/src/sub/other.rst", Line: 9}})

	type args struct {
		currentSlug string
		id          string
	}
	tests := []struct {
		name string
		args args
		want string
	}{
		{
			name: "same file",
			args: args{currentSlug: "sub/other", id: "X"},
			want: "#req-X",
		},
		{
			name: "cross file from a sibling folder",
			args: args{currentSlug: "guide/page", id: "X"},
			want: "../sub/other.html#req-X",
		},
		{
			name: "cross file from the root",
			args: args{currentSlug: "index", id: "X"},
			want: "sub/other.html#req-X",
		},
		{
			name: "graphic anchors use the figure prefix",
			args: args{currentSlug: "index", id: "Y"},
			want: "sub/other.html#fig-Y",
		},
		{
			name: "unknown ids stay requirement anchors",
			args: args{currentSlug: "index", id: "Z"},
			want: "#req-Z",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRenderer(&RenderContext{
				Index:       idx,
				BasePath:    "/src",
				CurrentSlug: tt.args.currentSlug,
			})
			if got := r.refHref(tt.args.id); got != tt.want {
				t.Errorf("refHref() = %v, want %v", got, tt.want)
			}
		})
	}
}
