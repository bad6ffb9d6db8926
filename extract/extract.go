// Package extract builds the traceability index from source files. It
// deliberately scans with shallow line patterns instead of the full
// document parser: the index only needs ids, metadata and links, and a
// scanner that cannot fail keeps indexing robust against markup errors
// elsewhere in a file.
package extract

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/hesusruiz/tracedoc/trace"
)

// Problem reports something wrong found while scanning a source file.
type Problem struct {
	File string
	Line int
	Msg  string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s:%d: %s", p.File, p.Line, p.Msg)
}

var (
	reDirective = regexp.MustCompile(`^(\s*)\.\. +(item|graphic|listing|code):: *(.*)$`)
	reOption    = regexp.MustCompile(`^\s*:([A-Za-z][A-Za-z0-9_.-]*):(?: +(.*))?$`)
)

// Scan reads one source text and adds every traceable object it declares
// to the index. Findings are returned as problems, never as errors:
// scanning always completes.
func Scan(cfg *trace.Config, idx *trace.Index, file string, src []byte) []Problem {
	var problems []Problem

	lines := strings.Split(string(src), "\n")
	for n, raw := range lines {
		m := reDirective.FindStringSubmatch(strings.TrimSuffix(raw, "\r"))
		if m == nil {
			continue
		}
		indent := len(m[1])

		obj := &trace.Object{
			Kind:     directiveKind(m[2]),
			Title:    strings.TrimSpace(m[3]),
			Location: trace.Location{File: file, Line: n + 1},
		}

		// The option block is the run of ':key: value' lines directly
		// below the marker.
		for k := n + 1; k < len(lines); k++ {
			text := strings.TrimSuffix(lines[k], "\r")
			if strings.TrimSpace(text) == "" || lineIndent(text) <= indent {
				break
			}
			om := reOption.FindStringSubmatch(text)
			if om == nil {
				break
			}
			applyOption(cfg, obj, om[1], strings.TrimSpace(om[2]))
		}

		if obj.Kind == trace.KindItem && obj.Type == "" {
			obj.Type = "requirement"
		}
		if obj.Status == "" {
			obj.Status = "draft"
		}

		if obj.ID == "" {
			problems = append(problems, Problem{File: file, Line: n + 1,
				Msg: fmt.Sprintf("%s directive without an :id: option", m[2])})
			continue
		}
		if !idx.Add(obj) {
			prev := idx.Get(obj.ID)
			problems = append(problems, Problem{File: file, Line: n + 1,
				Msg: fmt.Sprintf("duplicate id %q, first defined at %s:%d",
					obj.ID, prev.Location.File, prev.Location.Line)})
		}
	}
	return problems
}

// ScanFile reads and scans one file. A read failure becomes a problem,
// so a build keeps going over the remaining sources.
func ScanFile(cfg *trace.Config, idx *trace.Index, file string) []Problem {
	src, err := os.ReadFile(file)
	if err != nil {
		return []Problem{{File: file, Msg: err.Error()}}
	}
	return Scan(cfg, idx, file, src)
}

func directiveKind(name string) trace.Kind {
	switch name {
	case "graphic":
		return trace.KindGraphic
	case "listing", "code":
		return trace.KindListing
	}
	return trace.KindItem
}

func applyOption(cfg *trace.Config, obj *trace.Object, key, value string) {
	switch key {
	case "id":
		obj.ID = value
	case "type":
		obj.Type = value
	case "level":
		obj.Level = value
	case "status":
		obj.Status = value
	case "value":
		obj.Value = value
	case "term":
		obj.Term = value
	default:
		if cfg.LinkType(key) != nil {
			obj.Links = append(obj.Links, trace.Link{Type: key, Targets: splitTargets(value)})
		}
	}
}

func splitTargets(raw string) []string {
	var targets []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			targets = append(targets, p)
		}
	}
	return targets
}

func lineIndent(s string) int {
	return len(s) - len(strings.TrimLeft(s, " "))
}
