package rst

import "strings"

// ParseInline splits a line of text into inline nodes. It is a single
// left-to-right pass: at every position the tokenizer tries, in order, an
// escaped character, an inline literal, a role, strong emphasis, emphasis
// and an embedded-URI hyperlink; whatever matches none of them accumulates
// into a plain text run. Markup with no matching closer degrades to text,
// so the tokenizer never fails.
func ParseInline(text string) []Inline {

	var nodes []Inline
	var run strings.Builder

	// flush ends the current text run. It is called only before a markup
	// node is appended, so two consecutive Text nodes never appear.
	flush := func() {
		if run.Len() > 0 {
			nodes = append(nodes, &Text{Value: run.String()})
			run.Reset()
		}
	}

	i := 0
	for i < len(text) {

		// Escaped character: the next character is literal text.
		if text[i] == '\\' && i+1 < len(text) {
			run.WriteByte(text[i+1])
			i += 2
			continue
		}

		// Inline literal between double backticks, content verbatim.
		if strings.HasPrefix(text[i:], "``") {
			if end := strings.Index(text[i+2:], "``"); end > 0 {
				flush()
				nodes = append(nodes, &InlineCode{Value: text[i+2 : i+2+end]})
				i += end + 4
				continue
			}
		}

		// Interpreted role: ':name:' immediately followed by a backtick
		// delimited target.
		if text[i] == ':' {
			if name, target, size, ok := scanRole(text[i:]); ok {
				flush()
				nodes = append(nodes, &Role{Name: name, Target: target})
				i += size
				continue
			}
		}

		// Strong emphasis between '**' markers; the content is tokenized
		// again so nested markup survives.
		if strings.HasPrefix(text[i:], "**") {
			if end := strings.Index(text[i+2:], "**"); end > 0 {
				flush()
				nodes = append(nodes, &Strong{Children: ParseInline(text[i+2 : i+2+end])})
				i += end + 4
				continue
			}
		}

		// Emphasis between single '*' markers.
		if text[i] == '*' {
			if end, ok := emphasisCloser(text, i+1); ok {
				flush()
				nodes = append(nodes, &Emphasis{Children: ParseInline(text[i+1 : end])})
				i = end + 1
				continue
			}
		}

		// Embedded-URI hyperlink: `text <uri>`_
		if text[i] == '`' {
			if end := strings.IndexByte(text[i+1:], '`'); end > 0 {
				closer := i + 1 + end
				if closer+1 < len(text) && text[closer+1] == '_' {
					if linkText, uri, ok := splitEmbeddedURI(text[i+1 : closer]); ok {
						flush()
						nodes = append(nodes, &Hyperlink{Text: linkText, URI: uri})
						i = closer + 2
						continue
					}
				}
			}
		}

		run.WriteByte(text[i])
		i++
	}

	flush()
	return nodes
}

// scanRole matches ':name:`target`' at the start of s and returns the
// number of bytes consumed.
func scanRole(s string) (name, target string, size int, ok bool) {

	j := 1
	for j < len(s) && isRoleNameChar(s[j]) {
		j++
	}

	// The name must be non-empty, closed by ':' and followed directly by
	// the backtick of the target.
	if j == 1 || j >= len(s) || s[j] != ':' {
		return
	}
	if j+1 >= len(s) || s[j+1] != '`' {
		return
	}

	end := strings.IndexByte(s[j+2:], '`')
	if end <= 0 {
		return
	}

	name = s[1:j]
	target = s[j+2 : j+2+end]
	size = j + 3 + end
	ok = true
	return
}

func isRoleNameChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' || c == '-' || c == '_' || c == '.'
}

// emphasisCloser finds the single '*' closing an emphasis started just
// before start, skipping any embedded '**' run so it is not mistaken for
// the closer.
func emphasisCloser(s string, start int) (int, bool) {
	for j := start; j < len(s); j++ {
		if s[j] != '*' {
			continue
		}
		if j+1 < len(s) && s[j+1] == '*' {
			j++
			continue
		}
		if j == start {
			return 0, false
		}
		return j, true
	}
	return 0, false
}

// splitEmbeddedURI splits the content of a hyperlink into its text and the
// trailing '<uri>' part.
func splitEmbeddedURI(s string) (text, uri string, ok bool) {
	if !strings.HasSuffix(s, ">") {
		return
	}
	open := strings.LastIndexByte(s, '<')
	if open < 0 {
		return
	}
	text = strings.TrimSpace(s[:open])
	uri = s[open+1 : len(s)-1]
	if uri == "" {
		return
	}
	ok = true
	return
}
