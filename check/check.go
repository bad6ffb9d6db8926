// Package check runs consistency validations over a built traceability
// index: link cycles, dangling references, coverage rules, orphaned
// objects and status consistency. All validations walk the index in
// insertion order, so repeated runs produce the same findings.
package check

import (
	"fmt"
	"strings"

	"github.com/hesusruiz/tracedoc/trace"
)

// Finding is one validation result.
type Finding struct {
	Check string // validation that produced the finding
	ID    string // object concerned
	Msg   string
	File  string
	Line  int
}

func (f Finding) String() string {
	return fmt.Sprintf("%s:%d: [%s] %s", f.File, f.Line, f.Check, f.Msg)
}

// Run executes every validation in a fixed order.
func Run(cfg *trace.Config, idx *trace.Index) []Finding {
	var findings []Finding
	findings = append(findings, Cycles(cfg, idx)...)
	findings = append(findings, Dangling(cfg, idx)...)
	findings = append(findings, Coverage(cfg, idx)...)
	findings = append(findings, Orphans(cfg, idx)...)
	findings = append(findings, StatusConsistency(cfg, idx)...)
	return findings
}

// Cycles reports circular link chains. The graph is the union of every
// configured link type.
func Cycles(cfg *trace.Config, idx *trace.Index) []Finding {
	const (
		white = iota // not seen yet
		grey         // on the current path
		black        // fully explored
	)

	color := map[string]int{}
	var findings []Finding
	var stack []string

	var visit func(id string)
	visit = func(id string) {
		color[id] = grey
		stack = append(stack, id)
		if obj := idx.Get(id); obj != nil {
			for _, lt := range cfg.LinkTypes {
				for _, target := range obj.Targets(lt.Name) {
					switch color[target] {
					case white:
						visit(target)
					case grey:
						findings = append(findings, cycleFinding(idx, stack, target))
					}
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
	}

	for _, obj := range idx.All() {
		if color[obj.ID] == white {
			visit(obj.ID)
		}
	}
	return findings
}

func cycleFinding(idx *trace.Index, stack []string, target string) Finding {
	start := 0
	for k, id := range stack {
		if id == target {
			start = k
			break
		}
	}
	path := append(append([]string{}, stack[start:]...), target)

	f := Finding{Check: "cycles", ID: target,
		Msg: "link cycle: " + strings.Join(path, " -> ")}
	if obj := idx.Get(target); obj != nil {
		f.File = obj.Location.File
		f.Line = obj.Location.Line
	}
	return f
}

// Dangling reports links whose target id does not exist in the index.
func Dangling(cfg *trace.Config, idx *trace.Index) []Finding {
	var findings []Finding
	for _, obj := range idx.All() {
		for _, link := range obj.Links {
			for _, target := range link.Targets {
				if idx.Get(target) != nil {
					continue
				}
				findings = append(findings, Finding{
					Check: "dangling", ID: obj.ID,
					Msg: fmt.Sprintf("%s link of %q points at unknown id %q",
						link.Type, obj.ID, target),
					File: obj.Location.File, Line: obj.Location.Line,
				})
			}
		}
	}
	return findings
}

// Coverage enforces the configured rules: every object of a rule's type
// must be the target of at least one link of the rule's link type.
func Coverage(cfg *trace.Config, idx *trace.Index) []Finding {
	if len(cfg.Coverage) == 0 {
		return nil
	}

	// covered[linkType][id] records the ids reached by a link of the type.
	covered := map[string]map[string]bool{}
	for _, obj := range idx.All() {
		for _, link := range obj.Links {
			m := covered[link.Type]
			if m == nil {
				m = map[string]bool{}
				covered[link.Type] = m
			}
			for _, target := range link.Targets {
				m[target] = true
			}
		}
	}

	var findings []Finding
	for _, rule := range cfg.Coverage {
		for _, obj := range idx.All() {
			if obj.Type != rule.Type || covered[rule.By][obj.ID] {
				continue
			}
			findings = append(findings, Finding{
				Check: "coverage", ID: obj.ID,
				Msg: fmt.Sprintf("%s %q has no incoming %s link",
					rule.Type, obj.ID, rule.By),
				File: obj.Location.File, Line: obj.Location.Line,
			})
		}
	}
	return findings
}

// Orphans reports objects with no links in either direction.
func Orphans(cfg *trace.Config, idx *trace.Index) []Finding {
	linked := map[string]bool{}
	for _, obj := range idx.All() {
		if len(obj.Links) > 0 {
			linked[obj.ID] = true
		}
		for _, link := range obj.Links {
			for _, target := range link.Targets {
				linked[target] = true
			}
		}
	}

	var findings []Finding
	for _, obj := range idx.All() {
		if linked[obj.ID] {
			continue
		}
		findings = append(findings, Finding{
			Check: "orphans", ID: obj.ID,
			Msg:  fmt.Sprintf("%q has no links in either direction", obj.ID),
			File: obj.Location.File, Line: obj.Location.Line,
		})
	}
	return findings
}

// StatusConsistency reports settled objects that still depend on
// unsettled ones: an approved requirement resting on a draft is not
// really approved.
func StatusConsistency(cfg *trace.Config, idx *trace.Index) []Finding {
	var findings []Finding
	for _, obj := range idx.All() {
		if !cfg.IsSettled(obj.Status) {
			continue
		}
		for _, lt := range cfg.LinkTypes {
			for _, target := range obj.Targets(lt.Name) {
				tgt := idx.Get(target)
				if tgt == nil || cfg.IsSettled(tgt.Status) {
					continue
				}
				findings = append(findings, Finding{
					Check: "status", ID: obj.ID,
					Msg: fmt.Sprintf("%q is %s but its %s target %q is still %s",
						obj.ID, obj.Status, lt.Name, target, tgt.Status),
					File: obj.Location.File, Line: obj.Location.Line,
				})
			}
		}
	}
	return findings
}
