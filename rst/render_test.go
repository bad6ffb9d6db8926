package rst

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func TestRender_Escaping(t *testing.T) {
	type args struct {
		block Block
	}
	tests := []struct {
		name string
		args args
		want string
	}{
		{
			name: "text content",
			args: args{block: &Paragraph{Children: []Inline{&Text{Value: `a<b&c>"d'e`}}}},
			want: "<p>a&lt;b&amp;c&gt;&#34;d&#39;e</p>\n",
		},
		{
			name: "attributes",
			args: args{block: &Image{URI: `x"y.png`, Alt: `<it's>`}},
			want: "<img src=\"x&quot;y.png\" alt=\"&lt;it&#39;s&gt;\">\n",
		},
		{
			name: "inline code",
			args: args{block: &Paragraph{Children: []Inline{&InlineCode{Value: "<&>"}}}},
			want: "<p><code>&lt;&amp;&gt;</code></p>\n",
		},
		{
			name: "literal block",
			args: args{block: &LiteralBlock{Text: "a < b"}},
			want: "<pre class=\"literal\">a &lt; b</pre>\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &Document{Children: []Block{tt.args.block}}
			if got := Render(doc, nil); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRender_Fragments(t *testing.T) {
	type args struct {
		src string
	}
	tests := []struct {
		name string
		args args
		want []string
	}{
		{
			name: "unknown directive keeps its name",
			args: args{src: ".. wibble:: zap\n\n   content\n"},
			want: []string{"wibble"},
		},
		{
			name: "raw html is not escaped",
			args: args{src: ".. raw:: html\n\n   <b>bold</b>\n"},
			want: []string{"<b>bold</b>"},
		},
		{
			name: "admonition carries kind and title",
			args: args{src: ".. note:: Remember this\n"},
			want: []string{`class="admonition note"`, `admonition-title">Note<`, "Remember this"},
		},
		{
			name: "toctree links entries",
			args: args{src: ".. toctree::\n\n   intro\n   guide/setup\n"},
			want: []string{`href="intro.html"`, `href="guide/setup.html"`},
		},
		{
			name: "role without handler keeps its name as a class",
			args: args{src: "a :term:`widget` b\n"},
			want: []string{`class="role role-term"`, "widget"},
		},
		{
			name: "section heading and anchor",
			args: args{src: "My Title\n========\n\nbody\n"},
			want: []string{`<section id="my-title">`, "<h1>My Title</h1>"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Render(ParseDocument(tt.args.src), nil)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("Render() = %q, missing %q", got, w)
				}
			}
		})
	}
}

func TestRender_Deterministic(t *testing.T) {
	src := "Title\n=====\n\n- a\n- b\n\n.. item:: X\n   :id: R1\n\n   Body.\n"
	doc := ParseDocument(src)
	first := Render(doc, nil)
	second := Render(doc, nil)
	if first != second {
		t.Errorf("Render() differs between calls:\n%q\n%q", first, second)
	}
	if Render(ParseDocument(src), nil) != first {
		t.Errorf("Render() differs after a reparse")
	}
}

// The output of a full mixed document must survive a round trip through
// an HTML parser as a body fragment.
func TestRender_WellFormed(t *testing.T) {
	src := "Top\n====\n\nIntro with *em*, **strong** and ``code``.\n\n" +
		"- one\n- two\n\n1. first\n2. second\n\nterm\n  definition\n\n" +
		"Example::\n\n   literal <text>\n\n" +
		"=====  =====\nCol 1  Col 2\n=====  =====\nA      B\n=====  =====\n\n" +
		".. note:: Careful.\n\n.. item:: Braking\n   :id: R1\n\n   The system shall brake.\n"
	out := Render(ParseDocument(src), nil)

	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(out), body)
	if err != nil {
		t.Fatalf("ParseFragment() error = %v", err)
	}
	if len(nodes) == 0 {
		t.Fatalf("ParseFragment() returned no nodes")
	}

	if opens, closes := strings.Count(out, "<section"), strings.Count(out, "</section>"); opens != closes {
		t.Errorf("unbalanced section tags: %d open, %d close", opens, closes)
	}
	if opens, closes := strings.Count(out, "<div"), strings.Count(out, "</div>"); opens != closes {
		t.Errorf("unbalanced div tags: %d open, %d close", opens, closes)
	}
}
