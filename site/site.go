// Package site generates the HTML tree of a documentation set. A build
// has two passes: the first scans every source file into the
// traceability index, the second renders each document against that
// index, wraps it in the page template and writes it under the output
// directory, mirroring the source layout.
package site

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	goyaml "github.com/goccy/go-yaml"
	"github.com/hesusruiz/vcutils/yaml"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"

	"github.com/hesusruiz/tracedoc/extract"
	"github.com/hesusruiz/tracedoc/rst"
	"github.com/hesusruiz/tracedoc/trace"
)

// Options configures one build. The fields can come from the site block
// of the project file, with command line flags taking precedence.
type Options struct {
	Root     string `yaml:"root"`     // source directory
	Output   string `yaml:"output"`   // output directory
	Template string `yaml:"template"` // page template file, empty for the built-in one
	Assets   string `yaml:"assets"`   // static assets directory, copied under assets/
	Title    string `yaml:"title"`    // site title, also the fallback page title
	DryRun   bool   `yaml:"-"`        // report what would be written without writing
}

// LoadOptions reads the site block of the project file. A missing file
// or a file without a site block yields zero options, which the caller
// completes from flags and defaults.
func LoadOptions(fileName string) (Options, error) {
	var project struct {
		Site Options `yaml:"site"`
	}

	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return Options{}, nil
		}
		return Options{}, err
	}

	if err := goyaml.Unmarshal(data, &project); err != nil {
		return Options{}, fmt.Errorf("parsing %s: %w", fileName, err)
	}
	return project.Site, nil
}

// Builder renders a documentation tree.
type Builder struct {
	cfg  *trace.Config
	opts Options
	log  *zap.SugaredLogger
}

func NewBuilder(cfg *trace.Config, opts Options, log *zap.SugaredLogger) *Builder {
	return &Builder{cfg: cfg, opts: opts, log: log}
}

// Scan runs the first pass only: it walks the sources and builds the
// traceability index without writing anything. The check command uses
// it to validate a documentation set.
func (b *Builder) Scan() (*trace.Index, []extract.Problem, error) {
	_, idx, problems, err := b.scanSources()
	return idx, problems, err
}

func (b *Builder) scanSources() ([]string, *trace.Index, []extract.Problem, error) {
	sources, err := b.findSources()
	if err != nil {
		return nil, nil, nil, err
	}

	idx := trace.NewIndex()
	var problems []extract.Problem
	for _, src := range sources {
		problems = append(problems, extract.ScanFile(b.cfg, idx, src)...)
	}
	return sources, idx, problems, nil
}

// Build renders the whole tree and returns the index it was rendered
// against, together with the problems found while scanning.
func (b *Builder) Build() (*trace.Index, []extract.Problem, error) {
	sources, idx, problems, err := b.scanSources()
	if err != nil {
		return nil, nil, err
	}
	for _, p := range problems {
		b.log.Warnw("source problem", "file", p.File, "line", p.Line, "msg", p.Msg)
	}

	for _, src := range sources {
		if err := b.buildPage(src, idx); err != nil {
			return idx, problems, err
		}
	}

	if err := b.copyAssets(); err != nil {
		return idx, problems, err
	}
	if err := b.writeGraphPage(idx); err != nil {
		return idx, problems, err
	}
	return idx, problems, nil
}

// findSources walks the root collecting the .rst and .md files, sorted
// so every pass sees them in the same order.
func (b *Builder) findSources() ([]string, error) {
	var sources []string
	err := filepath.WalkDir(b.opts.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if b.opts.Output != "" && samePath(path, b.opts.Output) {
				return fs.SkipDir
			}
			if strings.HasPrefix(d.Name(), ".") && !samePath(path, b.opts.Root) {
				return fs.SkipDir
			}
			return nil
		}
		switch filepath.Ext(path) {
		case ".rst", ".md":
			sources = append(sources, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(sources)
	return sources, nil
}

// Slug is the output path of a source file relative to the root, without
// extension and with forward slashes. It is the same value the renderer
// uses to resolve cross-file references, so both sides always agree.
func Slug(root, src string) string {
	rel, err := filepath.Rel(root, src)
	if err != nil {
		rel = filepath.Base(src)
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	return filepath.ToSlash(rel)
}

func (b *Builder) buildPage(src string, idx *trace.Index) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}

	meta, body := FrontMatter(data)
	slug := Slug(b.opts.Root, src)

	var content, title string
	if filepath.Ext(src) == ".md" {
		var buf bytes.Buffer
		if err := goldmark.Convert(body, &buf); err != nil {
			return fmt.Errorf("converting %s: %w", src, err)
		}
		content = buf.String()
	} else {
		doc := rst.ParseDocument(string(body))
		content = rst.Render(doc, &rst.RenderContext{
			Config:      b.cfg,
			Index:       idx,
			BasePath:    b.opts.Root,
			CurrentSlug: slug,
		})
		title = doc.Title
	}

	// The front matter wins over the document for the page title.
	if meta != nil {
		if t := meta.String("title", ""); t != "" {
			title = t
		}
	}
	if title == "" {
		title = b.opts.Title
	}

	page := b.renderPage(title, slug, content)

	out := filepath.Join(b.opts.Output, filepath.FromSlash(slug)+".html")
	if b.opts.DryRun {
		b.log.Infof("dryrun: would write %s (%d bytes)", out, len(page))
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return err
	}
	b.log.Debugw("page written", "src", src, "out", out)
	return os.WriteFile(out, page, 0644)
}

// FrontMatter splits an optional YAML header delimited by '---' lines
// from the document body. Without a header the metadata is nil and the
// body is the input unchanged.
func FrontMatter(data []byte) (*yaml.YAML, []byte) {
	text := string(data)
	if !strings.HasPrefix(text, "---\n") && !strings.HasPrefix(text, "---\r\n") {
		return nil, data
	}

	rest := text[strings.Index(text, "\n")+1:]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return nil, data
	}

	header := rest[:end]
	body := rest[end+len("\n---"):]
	if nl := strings.Index(body, "\n"); nl >= 0 {
		body = body[nl+1:]
	} else {
		body = ""
	}

	meta, err := yaml.ParseYaml(header)
	if err != nil {
		return nil, data
	}
	return meta, []byte(body)
}

// copyAssets copies the assets directory under the output, or writes the
// built-in stylesheet when no directory is configured.
func (b *Builder) copyAssets() error {
	if b.opts.DryRun {
		return nil
	}
	assetsOut := filepath.Join(b.opts.Output, "assets")

	if b.opts.Assets == "" {
		if err := os.MkdirAll(assetsOut, 0755); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(assetsOut, "tracedoc.css"), b.defaultStylesheet(), 0644)
	}

	return filepath.WalkDir(b.opts.Assets, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(b.opts.Assets, path)
		if err != nil {
			return err
		}
		target := filepath.Join(assetsOut, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0644)
	})
}

// writeGraphPage renders the whole index as a d2 graph and wraps the
// SVG in a normal page. We keep building when the layout fails: the
// graph is an extra view, not part of the documents.
func (b *Builder) writeGraphPage(idx *trace.Index) error {
	if idx.Len() == 0 || b.opts.DryRun {
		return nil
	}
	svg, err := RenderGraphSVG(context.Background(), GraphD2(idx))
	if err != nil {
		b.log.Warnw("traceability graph not rendered", "err", err)
		return nil
	}
	page := b.renderPage("Traceability graph", "traceability", string(svg))
	return os.WriteFile(filepath.Join(b.opts.Output, "traceability.html"), page, 0644)
}

func samePath(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}
