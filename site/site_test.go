package site

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hesusruiz/tracedoc/trace"
)

func testBuilder(opts Options) *Builder {
	return NewBuilder(trace.DefaultConfig(), opts, zap.NewNop().Sugar())
}

func TestSlug(t *testing.T) {
	type args struct {
		root string
		src  string
	}
	tests := []struct {
		name string
		args args
		want string
	}{
		{
			name: "top level file",
			args: args{root: "/docs", src: "/docs/index.rst"},
			want: "index",
		},
		{
			name: "nested file",
			args: args{root: "/docs", src: "/docs/sub/detail.rst"},
			want: "sub/detail",
		},
		{
			name: "markdown keeps the same shape",
			args: args{root: "/docs", src: "/docs/notes.md"},
			want: "notes",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slug(tt.args.root, tt.args.src); got != tt.want {
				t.Errorf("Slug() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRelPrefix(t *testing.T) {
	tests := []struct {
		slug string
		want string
	}{
		{slug: "index", want: ""},
		{slug: "sub/detail", want: "../"},
		{slug: "a/b/c", want: "../../"},
	}
	for _, tt := range tests {
		if got := relPrefix(tt.slug); got != tt.want {
			t.Errorf("relPrefix(%q) = %q, want %q", tt.slug, got, tt.want)
		}
	}
}

func TestFrontMatter(t *testing.T) {
	t.Run("no header", func(t *testing.T) {
		meta, body := FrontMatter([]byte("Title\n=====\n"))
		if meta != nil {
			t.Errorf("meta = %v, want nil", meta)
		}
		if string(body) != "Title\n=====\n" {
			t.Errorf("body changed: %q", body)
		}
	})

	t.Run("header with title", func(t *testing.T) {
		src := "---\ntitle: Overridden\n---\nBody here\n"
		meta, body := FrontMatter([]byte(src))
		if meta == nil {
			t.Fatal("meta = nil, want parsed header")
		}
		if got := meta.String("title", ""); got != "Overridden" {
			t.Errorf("title = %q, want %q", got, "Overridden")
		}
		if string(body) != "Body here\n" {
			t.Errorf("body = %q, want %q", body, "Body here\n")
		}
	})

	t.Run("unterminated header is left alone", func(t *testing.T) {
		src := "---\ntitle: x\nno closing fence\n"
		meta, body := FrontMatter([]byte(src))
		if meta != nil {
			t.Errorf("meta = %v, want nil", meta)
		}
		if string(body) != src {
			t.Errorf("body changed: %q", body)
		}
	})
}

func TestRenderPage(t *testing.T) {
	b := testBuilder(Options{Title: "Site"})
	page := string(b.renderPage("A <Title>", "sub/page", "<p>content</p>"))

	for _, w := range []string{
		"<title>A &lt;Title&gt;</title>",
		`href="../assets/tracedoc.css"`,
		"<p>content</p>",
	} {
		if !strings.Contains(page, w) {
			t.Errorf("renderPage() missing %q:\n%s", w, page)
		}
	}
	if strings.Contains(page, "{#") {
		t.Errorf("unfilled placeholder left in page:\n%s", page)
	}
}

func TestRenderPage_CustomTemplate(t *testing.T) {
	dir := t.TempDir()
	tmpl := filepath.Join(dir, "page.html")
	if err := os.WriteFile(tmpl, []byte("<x>{#title}|{#content}</x>"), 0644); err != nil {
		t.Fatal(err)
	}

	b := testBuilder(Options{Template: tmpl})
	page := string(b.renderPage("T", "index", "C"))
	if page != "<x>T|C</x>" {
		t.Errorf("renderPage() = %q, want %q", page, "<x>T|C</x>")
	}
}

func TestLoadOptions(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "tracedoc.yaml")
	project := "namespace: req\nsite:\n  title: My Project\n  output: build\n"
	if err := os.WriteFile(file, []byte(project), 0644); err != nil {
		t.Fatal(err)
	}

	opts, err := LoadOptions(file)
	if err != nil {
		t.Fatalf("LoadOptions() error = %v", err)
	}
	if opts.Title != "My Project" || opts.Output != "build" {
		t.Errorf("LoadOptions() = %+v", opts)
	}

	missing, err := LoadOptions(filepath.Join(dir, "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadOptions(missing) error = %v", err)
	}
	if missing != (Options{}) {
		t.Errorf("LoadOptions(missing) = %+v, want zero options", missing)
	}
}

func TestGraphD2(t *testing.T) {
	idx := trace.NewIndex()
	idx.Add(&trace.Object{ID: "SYS-1", Kind: trace.KindItem})
	idx.Add(&trace.Object{ID: "FIG-1", Kind: trace.KindGraphic})
	idx.Add(&trace.Object{ID: "SUB-1", Kind: trace.KindItem,
		Links: []trace.Link{{Type: "satisfies", Targets: []string{"SYS-1"}}}})

	src := GraphD2(idx)
	for _, w := range []string{
		`"SYS-1"`,
		`"FIG-1".shape: document`,
		`"SUB-1" -> "SYS-1": satisfies`,
	} {
		if !strings.Contains(src, w) {
			t.Errorf("GraphD2() missing %q:\n%s", w, src)
		}
	}
}

// writeTree creates a small documentation set for the build tests.
func writeTree(t *testing.T) (root string) {
	t.Helper()
	root = t.TempDir()

	files := map[string]string{
		"index.rst": "Requirements\n============\n\n" +
			".. item:: Top requirement\n" +
			"   :id: SYS-1\n" +
			"   :status: approved\n\n" +
			"   The system shall work.\n",
		"sub/detail.rst": "Details\n=======\n\n" +
			".. item:: Derived requirement\n" +
			"   :id: SUB-1\n" +
			"   :satisfies: SYS-1\n",
		"notes.md": "---\ntitle: Note page\n---\n# Notes\n\nSome *markdown*.\n",
	}
	for name, text := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(text), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func readPage(t *testing.T, out, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(out, filepath.FromSlash(name)))
	if err != nil {
		t.Fatalf("reading %s: %v", name, err)
	}
	return string(data)
}

func TestBuild(t *testing.T) {
	root := writeTree(t)
	out := t.TempDir()

	idx, problems, err := testBuilder(Options{Root: root, Output: out}).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(problems) != 0 {
		t.Fatalf("Build() problems = %v, want none", problems)
	}
	if idx.Len() != 2 {
		t.Fatalf("index has %d objects, want 2", idx.Len())
	}

	index := readPage(t, out, "index.html")
	for _, w := range []string{
		"<title>Requirements</title>",
		`id="req-SYS-1"`,
		"Satisfied by",
		`href="sub/detail.html#req-SUB-1"`,
	} {
		if !strings.Contains(index, w) {
			t.Errorf("index.html missing %q", w)
		}
	}

	detail := readPage(t, out, "sub/detail.html")
	for _, w := range []string{
		`id="req-SUB-1"`,
		`href="../index.html#req-SYS-1"`,
		`href="../assets/tracedoc.css"`,
	} {
		if !strings.Contains(detail, w) {
			t.Errorf("sub/detail.html missing %q", w)
		}
	}

	notes := readPage(t, out, "notes.html")
	for _, w := range []string{
		"<title>Note page</title>",
		"<em>markdown</em>",
	} {
		if !strings.Contains(notes, w) {
			t.Errorf("notes.html missing %q", w)
		}
	}

	css := readPage(t, out, "assets/tracedoc.css")
	if !strings.Contains(css, ".trace-item") {
		t.Errorf("stylesheet not namespaced:\n%s", css)
	}

	graph := readPage(t, out, "traceability.html")
	if !strings.Contains(graph, "<svg") {
		t.Errorf("traceability page has no SVG")
	}
}

func TestBuild_DryRunWritesNothing(t *testing.T) {
	root := writeTree(t)
	out := filepath.Join(t.TempDir(), "site")

	_, _, err := testBuilder(Options{Root: root, Output: out, DryRun: true}).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("dry run created the output directory")
	}
}

func TestScan_ReportsProblems(t *testing.T) {
	root := t.TempDir()
	src := ".. item:: No id here\n\n.. item:: Dup\n   :id: X\n\n.. item:: Dup again\n   :id: X\n"
	if err := os.WriteFile(filepath.Join(root, "bad.rst"), []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	idx, problems, err := testBuilder(Options{Root: root}).Scan()
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if idx.Len() != 1 {
		t.Errorf("index has %d objects, want 1", idx.Len())
	}
	if len(problems) != 2 {
		t.Fatalf("Scan() problems = %v, want 2", problems)
	}
	if !strings.Contains(problems[0].Msg, "without an :id:") {
		t.Errorf("first problem = %v", problems[0])
	}
	if !strings.Contains(problems[1].Msg, "duplicate id") {
		t.Errorf("second problem = %v", problems[1])
	}
}
