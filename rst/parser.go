package rst

import (
	"strconv"
	"strings"
)

// line is one preprocessed source line.
type line struct {
	text   string // the line without the trailing newline or '\r'
	indent int    // number of leading spaces
	blank  bool
	num    int // 1-based position in the source file
}

func makeLine(text string, num int) line {
	trimmed := strings.TrimLeft(text, " ")
	return line{
		text:   text,
		indent: len(text) - len(trimmed),
		blank:  strings.TrimSpace(text) == "",
		num:    num,
	}
}

func splitLines(src string) []line {
	raw := strings.Split(src, "\n")
	lines := make([]line, len(raw))
	for i, s := range raw {
		lines[i] = makeLine(strings.TrimSuffix(s, "\r"), i+1)
	}
	return lines
}

// parser carries the adornment state of one document. Section depth is
// decided by the order in which adornment styles first appear, so the
// mapping lives for exactly one ParseDocument call.
type parser struct {
	depths map[adornKey]int
}

// adornKey identifies an adornment style. The same character with and
// without an overline counts as two different styles.
type adornKey struct {
	char     byte
	overline bool
}

func (p *parser) depthFor(key adornKey) int {
	if d, ok := p.depths[key]; ok {
		return d
	}
	d := len(p.depths) + 1
	p.depths[key] = d
	return d
}

// ParseDocument parses a complete source text into a Document. Parsing
// never fails: malformed markup degrades to plain constructs instead.
func ParseDocument(src string) *Document {
	p := &parser{depths: make(map[adornKey]int)}
	blocks, _ := p.parseBlocks(splitLines(src), 0, 0)
	doc := &Document{Children: blocks}
	for _, b := range blocks {
		if s, ok := b.(*Section); ok {
			doc.Title = s.Title
			break
		}
	}
	return doc
}

// parseBlocks parses a dedented region starting at lines[start]. It stops
// at the end of the region or, when stopDepth > 0, just before a section
// heading of that depth or shallower, so that nested sections can close.
func (p *parser) parseBlocks(lines []line, start, stopDepth int) ([]Block, int) {
	var blocks []Block
	i := start
	for i < len(lines) {
		ln := lines[i]

		if ln.blank {
			i++
			continue
		}

		// Section headings and transitions only occur at the left margin.
		if ln.indent == 0 {
			if sec, next, depth, ok := p.scanSection(lines, i); ok {
				if stopDepth > 0 && depth <= stopDepth {
					return blocks, i
				}
				sec.Children, next = p.parseBlocks(lines, next, depth)
				blocks = append(blocks, sec)
				i = next
				continue
			}
			if isAdornLine(ln) && isRegionEdge(lines, i-1) && isRegionEdge(lines, i+1) {
				blocks = append(blocks, &Transition{})
				i++
				continue
			}
		}

		// An indented run that no previous construct claimed is a block
		// quote.
		if ln.indent > 0 {
			region, next := collectIndented(lines, i, 0)
			children, _ := p.parseBlocks(region, 0, 0)
			blocks = append(blocks, &BlockQuote{Children: children})
			i = next
			continue
		}

		// Explicit markup: directives and comments.
		if ln.text == ".." || strings.HasPrefix(ln.text, ".. ") {
			b, next := p.parseExplicit(lines, i)
			blocks = append(blocks, b)
			i = next
			continue
		}

		if _, _, ok := scanFieldLine(ln.text); ok {
			fl, next := parseFieldList(lines, i)
			blocks = append(blocks, fl)
			i = next
			continue
		}

		if m, ok := scanListMarker(ln.text); ok {
			list, next := p.parseList(lines, i, m)
			blocks = append(blocks, list)
			i = next
			continue
		}

		if isTableBorder(ln.text) {
			if tbl, next, ok := p.parseTable(lines, i); ok {
				blocks = append(blocks, tbl)
				i = next
				continue
			}
		}

		// Everything else starts a paragraph, which may turn out to be a
		// definition list or introduce a literal block.
		bs, next := p.parseParagraph(lines, i)
		blocks = append(blocks, bs...)
		i = next
	}
	return blocks, i
}

// adornmentChars are the characters allowed in section adornments and
// transitions.
const adornmentChars = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// isAdornLine reports whether the line is an adornment: at least four
// identical punctuation characters at the left margin.
func isAdornLine(ln line) bool {
	if ln.blank || ln.indent != 0 {
		return false
	}
	t := strings.TrimRight(ln.text, " ")
	if len(t) < 4 || !strings.ContainsRune(adornmentChars, rune(t[0])) {
		return false
	}
	for k := 1; k < len(t); k++ {
		if t[k] != t[0] {
			return false
		}
	}
	return true
}

func isRegionEdge(lines []line, i int) bool {
	return i < 0 || i >= len(lines) || lines[i].blank
}

// scanSection matches a section heading at lines[i], in either the
// overline or the underline form, and returns the index of the first
// content line and the heading depth.
func (p *parser) scanSection(lines []line, i int) (*Section, int, int, bool) {
	ln := lines[i]

	// Overline form: adornment, title, identical adornment.
	if isAdornLine(ln) && i+2 < len(lines) {
		title := lines[i+1]
		under := lines[i+2]
		adorn := strings.TrimRight(ln.text, " ")
		if !title.blank && title.indent == 0 && !isAdornLine(title) &&
			len(strings.TrimRight(title.text, " ")) <= len(adorn) &&
			strings.TrimRight(under.text, " ") == adorn {
			depth := p.depthFor(adornKey{char: adorn[0], overline: true})
			return newSection(title.text, depth), i + 3, depth, true
		}
	}

	// Underline form: title, adornment at least as long.
	if !isAdornLine(ln) && i+1 < len(lines) {
		under := lines[i+1]
		if isAdornLine(under) &&
			len(strings.TrimRight(under.text, " ")) >= len(strings.TrimRight(ln.text, " ")) {
			depth := p.depthFor(adornKey{char: under.text[0]})
			return newSection(ln.text, depth), i + 2, depth, true
		}
	}

	return nil, 0, 0, false
}

func newSection(title string, depth int) *Section {
	title = strings.TrimSpace(title)
	return &Section{
		Title:  title,
		Inline: ParseInline(title),
		Depth:  depth,
		ID:     slugify(title),
	}
}

// collectIndented gathers the run of lines more indented than base,
// letting blank lines through, and returns it dedented as a fresh region.
// Trailing blank lines stay outside the region.
func collectIndented(lines []line, start, base int) ([]line, int) {
	end := start
	last := start
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
	return dedent(lines[start:last]), last
}

// dedent strips the common leading indentation of a region. Line numbers
// are preserved.
func dedent(src []line) []line {
	min := -1
	for _, ln := range src {
		if !ln.blank && (min < 0 || ln.indent < min) {
			min = ln.indent
		}
	}
	out := make([]line, len(src))
	if min <= 0 {
		copy(out, src)
		return out
	}
	for k, ln := range src {
		out[k] = stripIndent(ln, min)
	}
	return out
}

func dedentBy(src []line, n int) []line {
	out := make([]line, len(src))
	for k, ln := range src {
		out[k] = stripIndent(ln, n)
	}
	return out
}

func stripIndent(ln line, n int) line {
	if ln.blank {
		return line{blank: true, num: ln.num}
	}
	if n > ln.indent {
		n = ln.indent
	}
	return makeLine(ln.text[n:], ln.num)
}

// scanFieldLine matches ':name: value' at the start of a field list line.
// The name may contain spaces but no backtick, so a paragraph starting
// with a role like ':item:`X`' is not mistaken for a field.
func scanFieldLine(s string) (name, value string, ok bool) {
	closer := fieldNameEnd(s, func(c byte) bool { return c != '`' })
	if closer < 0 {
		return
	}
	name = s[1:closer]
	value = strings.TrimSpace(s[closer+1:])
	ok = true
	return
}

// scanOptionLine matches ':key: value' or the flag form ':key:' of a
// directive option. Unlike field names, option keys contain no spaces.
func scanOptionLine(s string) (key, value string, ok bool) {
	closer := fieldNameEnd(s, func(c byte) bool { return c != '`' && c != ' ' })
	if closer < 0 {
		return
	}
	key = s[1:closer]
	value = strings.TrimSpace(s[closer+1:])
	ok = true
	return
}

// fieldNameEnd returns the index of the colon closing a ':name:' prefix,
// or -1. valid restricts the characters allowed in the name, and the
// closing colon must be followed by a space or the end of the line.
func fieldNameEnd(s string, valid func(byte) bool) int {
	if len(s) == 0 || s[0] != ':' {
		return -1
	}
	for k := 1; k < len(s); k++ {
		if s[k] == ':' {
			if k == 1 {
				return -1
			}
			if k+1 < len(s) && s[k+1] != ' ' {
				return -1
			}
			return k
		}
		if !valid(s[k]) {
			return -1
		}
	}
	return -1
}

// parseFieldList consumes the contiguous run of field lines at the left
// margin.
func parseFieldList(lines []line, start int) (*FieldList, int) {
	fl := &FieldList{}
	i := start
	for i < len(lines) && !lines[i].blank && lines[i].indent == 0 {
		name, value, ok := scanFieldLine(lines[i].text)
		if !ok {
			break
		}
		fl.Fields = append(fl.Fields, Field{Name: name, Body: ParseInline(value)})
		i++
	}
	return fl, i
}

// listMarker describes a bullet or enumerator found at the start of a
// line.
type listMarker struct {
	bullet bool
	char   byte // bullet character
	start  int  // value of the first enumerator
	width  int  // marker width including the separating space
}

// scanListMarker matches '-', '*' or '+' bullets and '1.' or '#.'
// enumerators. A bare marker with no text is an empty item.
func scanListMarker(s string) (listMarker, bool) {
	if len(s) > 0 && (s[0] == '-' || s[0] == '*' || s[0] == '+') {
		if len(s) == 1 || s[1] == ' ' {
			return listMarker{bullet: true, char: s[0], width: 2}, true
		}
	}
	if strings.HasPrefix(s, "#.") && (len(s) == 2 || s[2] == ' ') {
		return listMarker{start: 1, width: 3}, true
	}
	k := 0
	for k < len(s) && s[k] >= '0' && s[k] <= '9' {
		k++
	}
	if k > 0 && k < len(s) && s[k] == '.' && (k+1 == len(s) || s[k+1] == ' ') {
		n, _ := strconv.Atoi(s[:k])
		return listMarker{start: n, width: k + 2}, true
	}
	return listMarker{}, false
}

func sameListKind(a, b listMarker) bool {
	if a.bullet != b.bullet {
		return false
	}
	return !a.bullet || a.char == b.char
}

// parseList consumes a bullet or enumerated list. An item owns every
// following line at or beyond its content column, and the list continues
// across blank lines while markers of the same kind keep appearing at the
// same margin.
func (p *parser) parseList(lines []line, start int, m listMarker) (Block, int) {
	var items [][]Block
	i := start
	for {
		ln := lines[i]
		cm, _ := scanListMarker(ln.text)

		end := i + 1
		last := i + 1
		for end < len(lines) {
			if lines[end].blank {
				end++
				continue
			}
			if lines[end].indent < cm.width {
				break
			}
			end++
			last = end
		}

		first := ""
		if len(ln.text) > cm.width {
			first = strings.TrimLeft(ln.text[cm.width:], " ")
		}
		region := make([]line, 0, 1+last-(i+1))
		region = append(region, makeLine(first, ln.num))
		region = append(region, dedentBy(lines[i+1:last], cm.width)...)
		children, _ := p.parseBlocks(region, 0, 0)
		items = append(items, children)

		i = last
		j := i
		for j < len(lines) && lines[j].blank {
			j++
		}
		if j >= len(lines) || lines[j].indent != 0 {
			break
		}
		next, ok := scanListMarker(lines[j].text)
		if !ok || !sameListKind(m, next) {
			break
		}
		i = j
	}

	if m.bullet {
		return &BulletList{Items: items}, i
	}
	return &EnumList{Start: m.start, Items: items}, i
}

// isTableBorder reports whether the line is a table border: two or more
// runs of '=' separated by spaces, as in '=====  ====='.
func isTableBorder(s string) bool {
	t := strings.TrimRight(s, " ")
	runs := 0
	for k := 0; k < len(t); {
		switch t[k] {
		case '=':
			for k < len(t) && t[k] == '=' {
				k++
			}
			runs++
		case ' ':
			k++
		default:
			return false
		}
	}
	return runs >= 2
}

// columnSpans returns the start and end offsets of each '=' run in a
// border line. The runs define the table columns.
func columnSpans(border string) [][2]int {
	var spans [][2]int
	t := strings.TrimRight(border, " ")
	for k := 0; k < len(t); {
		if t[k] != '=' {
			k++
			continue
		}
		j := k
		for j < len(t) && t[j] == '=' {
			j++
		}
		spans = append(spans, [2]int{k, j})
		k = j
	}
	return spans
}

// parseTable consumes a fixed-width table. The run of lines up to the
// next blank must close with a border; a single interior border separates
// the header rows from the body.
func (p *parser) parseTable(lines []line, start int) (*Table, int, bool) {
	spans := columnSpans(lines[start].text)

	end := start + 1
	for end < len(lines) && !lines[end].blank {
		end++
	}
	body := lines[start+1 : end]
	if len(body) == 0 || !isTableBorder(body[len(body)-1].text) {
		return nil, 0, false
	}
	body = body[:len(body)-1]

	tbl := &Table{}
	var rows [][]TableCell
	headerDone := false
	for _, ln := range body {
		if isTableBorder(ln.text) {
			if !headerDone {
				tbl.Headers = rows
				rows = nil
				headerDone = true
			}
			continue
		}
		rows = append(rows, sliceRow(ln.text, spans))
	}
	tbl.Rows = rows
	return tbl, end, true
}

// sliceRow cuts one table line into cells along the column spans. The
// last column extends to the end of the line.
func sliceRow(text string, spans [][2]int) []TableCell {
	cells := make([]TableCell, len(spans))
	for k, sp := range spans {
		lo, hi := sp[0], sp[1]
		if k == len(spans)-1 || hi > len(text) {
			hi = len(text)
		}
		if lo > len(text) {
			lo = len(text)
		}
		if hi < lo {
			hi = lo
		}
		cell := strings.TrimSpace(text[lo:hi])
		cells[k] = TableCell{Text: cell, Inline: ParseInline(cell)}
	}
	return cells
}

// startsConstruct reports whether the line opens a construct that ends a
// running paragraph: explicit markup, a list item, a field, a table
// border, an adornment, or a section title whose underline follows.
func startsConstruct(lines []line, k int) bool {
	ln := lines[k]
	if ln.text == ".." || strings.HasPrefix(ln.text, ".. ") {
		return true
	}
	if _, ok := scanListMarker(ln.text); ok {
		return true
	}
	if _, _, ok := scanFieldLine(ln.text); ok {
		return true
	}
	if isTableBorder(ln.text) || isAdornLine(ln) {
		return true
	}
	if k+1 < len(lines) && isAdornLine(lines[k+1]) &&
		len(strings.TrimRight(lines[k+1].text, " ")) >= len(strings.TrimSpace(ln.text)) {
		return true
	}
	return false
}

// parseParagraph consumes a run of text lines. A single line directly
// followed by deeper indentation becomes a definition list; a paragraph
// ending in '::' introduces a literal block after a blank line.
func (p *parser) parseParagraph(lines []line, start int) ([]Block, int) {
	end := start + 1
	for end < len(lines) {
		ln := lines[end]
		if ln.blank || ln.indent != 0 || startsConstruct(lines, end) {
			break
		}
		end++
	}

	if end-start == 1 && end < len(lines) && !lines[end].blank && lines[end].indent > 0 {
		return p.parseDefinitionList(lines, start)
	}

	texts := make([]string, 0, end-start)
	for _, ln := range lines[start:end] {
		texts = append(texts, strings.TrimSpace(ln.text))
	}
	joined := strings.Join(texts, " ")

	if strings.HasSuffix(joined, "::") {
		j := end
		for j < len(lines) && lines[j].blank {
			j++
		}
		if j > end && j < len(lines) && lines[j].indent > 0 {
			region, next := collectIndented(lines, j, 0)
			var blocks []Block
			if retained := literalIntro(joined); retained != "" {
				blocks = append(blocks, &Paragraph{Children: ParseInline(retained)})
			}
			blocks = append(blocks, &LiteralBlock{Text: joinLineTexts(region)})
			return blocks, next
		}
	}

	return []Block{&Paragraph{Children: ParseInline(joined)}}, end
}

// literalIntro rewrites the '::' ending of a literal block introduction:
// a bare '::' paragraph disappears, 'text ::' keeps just the text, and
// 'text::' keeps a single colon.
func literalIntro(joined string) string {
	switch {
	case joined == "::":
		return ""
	case strings.HasSuffix(joined, " ::"):
		return strings.TrimSuffix(joined, " ::")
	default:
		return strings.TrimSuffix(joined, "::") + ":"
	}
}

// parseDefinitionList consumes term/definition pairs: a term line at the
// left margin whose definition is the indented run below it.
func (p *parser) parseDefinitionList(lines []line, start int) ([]Block, int) {
	dl := &DefinitionList{}
	i := start
	for {
		term := strings.TrimSpace(lines[i].text)
		region, next := collectIndented(lines, i+1, 0)
		children, _ := p.parseBlocks(region, 0, 0)
		dl.Items = append(dl.Items, DefinitionItem{
			Term:       ParseInline(term),
			Definition: children,
		})
		i = next

		j := i
		for j < len(lines) && lines[j].blank {
			j++
		}
		if j >= len(lines) || lines[j].indent != 0 || startsConstruct(lines, j) {
			break
		}
		if j+1 >= len(lines) || lines[j+1].blank || lines[j+1].indent <= 0 {
			break
		}
		i = j
	}
	return []Block{dl}, i
}

func joinLineTexts(region []line) string {
	texts := make([]string, len(region))
	for k, ln := range region {
		texts[k] = ln.text
	}
	return strings.Join(texts, "\n")
}
