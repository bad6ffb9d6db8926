package rst

import "strings"

// parseExplicit parses '..' markup at lines[i]: a directive when a valid
// 'name::' follows the two dots, otherwise a comment spanning the rest of
// the line and any indented lines below it.
func (p *parser) parseExplicit(lines []line, i int) (Block, int) {
	ln := lines[i]
	rest := strings.TrimPrefix(ln.text, "..")
	rest = strings.TrimPrefix(rest, " ")

	if name, arg, ok := scanDirectiveStart(rest); ok {
		return p.parseDirective(lines, i, name, arg)
	}

	region, next := collectIndented(lines, i+1, 0)
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(rest))
	for _, b := range region {
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(b.text)
	}
	return &Comment{Text: sb.String()}, next
}

// scanDirectiveStart matches 'name:: argument' after the '.. ' marker.
func scanDirectiveStart(s string) (name, arg string, ok bool) {
	pos := strings.Index(s, "::")
	if pos <= 0 {
		return
	}
	name = s[:pos]
	if !validDirectiveName(name) {
		return "", "", false
	}
	arg = strings.TrimSpace(s[pos+2:])
	ok = true
	return
}

// validDirectiveName accepts a leading letter followed by letters, digits,
// '-' or '_'.
func validDirectiveName(s string) bool {
	for k := 0; k < len(s); k++ {
		c := s[k]
		switch {
		case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z':
		case k > 0 && (c >= '0' && c <= '9' || c == '-' || c == '_'):
		default:
			return false
		}
	}
	return len(s) > 0
}

// parseDirective consumes the body of a directive: the run of lines more
// indented than the marker, split into the leading option block and the
// content after the first blank line.
func (p *parser) parseDirective(lines []line, i int, name, arg string) (Block, int) {
	base := lines[i].indent

	end := i + 1
	last := i + 1
	for end < len(lines) {
		if lines[end].blank {
			end++
			continue
		}
		if lines[end].indent <= base {
			break
		}
		end++
		last = end
	}
	body := lines[i+1 : last]

	var opts []Option
	j := 0
	for j < len(body) && !body[j].blank {
		key, value, ok := scanOptionLine(strings.TrimLeft(body[j].text, " "))
		if !ok {
			break
		}
		opts = append(opts, Option{Key: key, Value: value})
		j++
	}
	for j < len(body) && body[j].blank {
		j++
	}

	// Content is dedented relative to the marker, not to its own common
	// indent, so deeper indentation inside the body survives.
	return p.buildDirective(name, arg, opts, dedentBy(body[j:], base+3)), last
}

// buildDirective routes a parsed directive to its node. Unknown names
// never fail: they become a GenericDirective that keeps everything it was
// given.
func (p *parser) buildDirective(name, arg string, opts []Option, content []line) Block {
	switch name {
	case "item":
		children, _ := p.parseBlocks(content, 0, 0)
		d := &ItemDirective{
			ID:       optionValue(opts, "id"),
			Title:    arg,
			Type:     optionValue(opts, "type"),
			Level:    optionValue(opts, "level"),
			Status:   optionValue(opts, "status"),
			Options:  opts,
			Children: children,
		}
		if d.Type == "" {
			d.Type = "requirement"
		}
		if d.Status == "" {
			d.Status = "draft"
		}
		return d

	case "graphic":
		d := &GraphicDirective{
			ID:      optionValue(opts, "id"),
			Title:   arg,
			Status:  optionValue(opts, "status"),
			Alt:     optionValue(opts, "alt"),
			Options: opts,
		}
		if d.Status == "" {
			d.Status = "draft"
		}
		if d.Alt == "" {
			d.Alt = d.Title
		}
		if d.Alt == "" {
			d.Alt = "Graphic"
		}
		if text := joinLineTexts(content); isPlantUML(text) {
			d.PlantUML = text
		} else {
			d.Children, _ = p.parseBlocks(content, 0, 0)
		}
		return d

	case "listing", "code":
		d := &ListingDirective{
			ID:       optionValue(opts, "id"),
			Title:    arg,
			Status:   optionValue(opts, "status"),
			Language: optionValue(opts, "language"),
			Options:  opts,
			Text:     joinLineTexts(content),
		}
		if d.Status == "" {
			d.Status = "draft"
		}
		if d.Language == "" {
			d.Language = "text"
		}
		return d

	case "code-block":
		lang := arg
		if lang == "" {
			lang = "text"
		}
		return &CodeBlock{Language: lang, Text: joinLineTexts(content)}

	case "image", "figure":
		return &Image{URI: arg, Alt: optionValue(opts, "alt"), Options: opts}

	case "toctree":
		t := &Toctree{Options: opts}
		for _, ln := range content {
			if ln.blank {
				continue
			}
			entry := strings.TrimSpace(ln.text)
			if _, _, ok := scanOptionLine(entry); ok {
				continue
			}
			t.Entries = append(t.Entries, entry)
		}
		return t

	case "raw":
		if arg == "html" {
			return &RawHTML{Text: joinLineTexts(content)}
		}
		return &Comment{Text: joinLineTexts(content)}

	case "note", "warning", "tip", "important", "caution",
		"danger", "error", "hint", "attention", "seealso":
		children, _ := p.parseBlocks(content, 0, 0)
		if arg != "" {
			children = append([]Block{&Paragraph{Children: ParseInline(arg)}}, children...)
		}
		return &Admonition{Kind: name, Title: capitalize(name), Children: children}
	}

	return &GenericDirective{Name: name, Argument: arg, Options: opts, Content: lineTexts(content)}
}

func isPlantUML(text string) bool {
	return strings.Contains(text, "@startuml") ||
		strings.Contains(text, "@startmindmap") ||
		strings.Contains(text, "@startgantt")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func lineTexts(region []line) []string {
	texts := make([]string, len(region))
	for k, ln := range region {
		texts[k] = ln.text
	}
	return texts
}
