// Package rst parses the constrained reStructuredText dialect used for
// traceable requirement documents and renders the resulting tree to an
// HTML fragment. The package is a pure transformation: no file or network
// access happens during parsing or rendering, and both are deterministic
// functions of their inputs.
package rst

// An Inline is one node of parsed inline markup. The set of implementations
// is closed: Text, Strong, Emphasis, InlineCode, Role and Hyperlink.
type Inline interface {
	inlineNode()
}

// Text is a run of plain text. The tokenizer merges adjacent runs, so two
// consecutive Text nodes never appear in its output.
type Text struct {
	Value string
}

// Strong is text between '**' markers. Its children are tokenized again,
// so nested markup is preserved.
type Strong struct {
	Children []Inline
}

// Emphasis is text between single '*' markers.
type Emphasis struct {
	Children []Inline
}

// InlineCode is a literal between double backticks. Its value is verbatim.
type InlineCode struct {
	Value string
}

// Role is an interpreted text role, ':name:' followed by a backtick
// delimited target.
type Role struct {
	Name   string
	Target string
}

// Hyperlink is an embedded-URI reference: `text <uri>`_
type Hyperlink struct {
	Text string
	URI  string
}

func (*Text) inlineNode()       {}
func (*Strong) inlineNode()     {}
func (*Emphasis) inlineNode()   {}
func (*InlineCode) inlineNode() {}
func (*Role) inlineNode()       {}
func (*Hyperlink) inlineNode()  {}

// A Block is one node of document structure. The set of implementations is
// closed so the renderer can switch over it exhaustively.
type Block interface {
	blockNode()
}

// A Section is a title with an underline (and optionally an overline) plus
// everything up to the next heading of the same or a shallower depth.
type Section struct {
	Title    string
	Inline   []Inline
	Depth    int
	ID       string
	Children []Block
}

// A Paragraph is a run of contiguous text lines joined with single spaces.
type Paragraph struct {
	Children []Inline
}

// A BulletList holds the items of a '-', '*' or '+' list. Each item is a
// sequence of blocks, so items can contain nested lists or paragraphs.
type BulletList struct {
	Items [][]Block
}

// An EnumList is a numbered list. Start is taken from the first item's
// marker; '#.' markers auto-number from one.
type EnumList struct {
	Start int
	Items [][]Block
}

// A DefinitionItem is a single-line term followed by an indented definition.
type DefinitionItem struct {
	Term       []Inline
	Definition []Block
}

// A DefinitionList groups contiguous definition items.
type DefinitionList struct {
	Items []DefinitionItem
}

// A CodeBlock is the body of a code-block directive; Language comes from
// the directive argument.
type CodeBlock struct {
	Language string
	Text     string
}

// A LiteralBlock is the indented block following a paragraph that ends in
// '::'. Its text is verbatim, dedented.
type LiteralBlock struct {
	Text string
}

// A BlockQuote is an indented region re-parsed as nested blocks.
type BlockQuote struct {
	Children []Block
}

// An Image is an image or figure directive.
type Image struct {
	URI     string
	Alt     string
	Options []Option
}

// An Admonition is one of the fixed admonition directives (note, warning,
// tip, ...). Title defaults to the capitalized kind.
type Admonition struct {
	Kind     string
	Title    string
	Children []Block
}

// A Toctree lists the documents named in a toctree directive body.
type Toctree struct {
	Entries []string
	Options []Option
}

// A Transition is a horizontal divider: a line of 4+ identical punctuation
// characters surrounded by blank lines.
type Transition struct{}

// A Comment is the text of a '..' block. It produces no output.
type Comment struct {
	Text string
}

// A Field is one ':name: value' line of a field list.
type Field struct {
	Name string
	Body []Inline
}

// A FieldList groups contiguous fields.
type FieldList struct {
	Fields []Field
}

// A TableCell keeps both the raw sliced text of a cell and its parsed
// inline form.
type TableCell struct {
	Text   string
	Inline []Inline
}

// A Table is a fixed-width table. The column spans come from the first
// border line and are reused to slice every row.
type Table struct {
	Headers [][]TableCell
	Rows    [][]TableCell
}

// RawHTML is the body of a 'raw:: html' directive, emitted without
// escaping.
type RawHTML struct {
	Text string
}

// An Option is one ':key: value' pair of a directive, in source order.
type Option struct {
	Key   string
	Value string
}

// An ItemDirective is a requirement artifact: '.. item:: Title' with an
// ':id:' and classification options, plus a parsed content subtree.
type ItemDirective struct {
	ID       string
	Title    string
	Type     string
	Level    string
	Status   string
	Options  []Option
	Children []Block
}

// A GraphicDirective is a figure artifact. When the body looks like
// PlantUML source it is kept verbatim in PlantUML; otherwise the body is
// parsed into Children.
type GraphicDirective struct {
	ID       string
	Title    string
	Status   string
	Alt      string
	Options  []Option
	PlantUML string
	Children []Block
}

// A ListingDirective is a code artifact; the body is verbatim source text
// highlighted according to Language.
type ListingDirective struct {
	ID       string
	Title    string
	Status   string
	Language string
	Options  []Option
	Text     string
}

// A GenericDirective preserves any directive the router does not know:
// name, argument, options and raw content, verbatim.
type GenericDirective struct {
	Name     string
	Argument string
	Options  []Option
	Content  []string
}

func (*Section) blockNode()          {}
func (*Paragraph) blockNode()        {}
func (*BulletList) blockNode()       {}
func (*EnumList) blockNode()         {}
func (*DefinitionList) blockNode()   {}
func (*CodeBlock) blockNode()        {}
func (*LiteralBlock) blockNode()     {}
func (*BlockQuote) blockNode()       {}
func (*Image) blockNode()            {}
func (*Admonition) blockNode()       {}
func (*Toctree) blockNode()          {}
func (*Transition) blockNode()       {}
func (*Comment) blockNode()          {}
func (*FieldList) blockNode()        {}
func (*Table) blockNode()            {}
func (*RawHTML) blockNode()          {}
func (*ItemDirective) blockNode()    {}
func (*GraphicDirective) blockNode() {}
func (*ListingDirective) blockNode() {}
func (*GenericDirective) blockNode() {}

// A Document is the root of one parsed source file. Title is the first
// section title found in document order, empty if there are no sections.
type Document struct {
	Children []Block
	Title    string
}

// optionValue returns the value of the first option with the given key, or "".
func optionValue(opts []Option, key string) string {
	for _, o := range opts {
		if o.Key == key {
			return o.Value
		}
	}
	return ""
}
