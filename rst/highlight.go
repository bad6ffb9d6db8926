package rst

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	hlhtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// highlight renders source code as HTML spans using chroma. The caller
// wraps the result in its own pre tag.
func highlight(src, lang, styleName string) (string, error) {

	// We get the lexer either from the language hint or by analysing the
	// code itself.
	l := lexers.Get(lang)
	if l == nil {
		l = lexers.Analyse(src)
	}
	if l == nil {
		l = lexers.Fallback
	}
	l = chroma.Coalesce(l)

	s := styles.Get(styleName)
	if s == nil {
		s = styles.Fallback
	}

	f := hlhtml.New(hlhtml.Standalone(false), hlhtml.PreventSurroundingPre(true))

	it, err := l.Tokenise(nil, src)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if err := f.Format(&sb, s, it); err != nil {
		return "", err
	}
	return sb.String(), nil
}
