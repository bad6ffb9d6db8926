package trace

import "strconv"

// A Kind identifies which traceability directive declared an object.
type Kind uint32

const (
	KindItem Kind = iota
	KindGraphic
	KindListing
)

// String returns the directive name of the Kind.
func (k Kind) String() string {
	switch k {
	case KindItem:
		return "item"
	case KindGraphic:
		return "graphic"
	case KindListing:
		return "listing"
	}
	return "invalid kind (" + strconv.Itoa(int(k)) + ")"
}

// AnchorPrefix returns the HTML anchor prefix for objects of this kind.
func (k Kind) AnchorPrefix() string {
	switch k {
	case KindGraphic:
		return "fig-"
	case KindListing:
		return "code-"
	}
	return "req-"
}

// A Location is the place in the sources where an object was declared.
type Location struct {
	File string
	Line int
}

// A Link is one outgoing relationship of an object: the link type name and
// the ordered list of target ids, as written in the source document.
type Link struct {
	Type    string
	Targets []string
}

// An Object is one traceability artifact: a requirement item, a graphic or
// a code listing, with its classification fields and outgoing links.
type Object struct {
	ID       string
	Kind     Kind
	Title    string
	Type     string
	Level    string
	Status   string
	Value    string
	Term     string
	Links    []Link
	Location Location
}

// Targets returns the outgoing target ids for one link type, or nil.
func (o *Object) Targets(linkType string) []string {
	for _, l := range o.Links {
		if l.Type == linkType {
			return l.Targets
		}
	}
	return nil
}

// An Index is the id-to-object lookup for a whole documentation set. It
// preserves insertion order so that every traversal of the index is
// deterministic. The rendering code borrows the index read-only; only its
// owner (the extractor) mutates it, and never concurrently with a render.
type Index struct {
	objects map[string]*Object
	order   []string
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{objects: make(map[string]*Object)}
}

// Add inserts an object. It returns false and leaves the index unchanged
// when the id is already present.
func (ix *Index) Add(o *Object) bool {
	if _, exists := ix.objects[o.ID]; exists {
		return false
	}
	ix.objects[o.ID] = o
	ix.order = append(ix.order, o.ID)
	return true
}

// Get returns the object with the given id, or nil.
func (ix *Index) Get(id string) *Object {
	if ix == nil {
		return nil
	}
	return ix.objects[id]
}

// Len returns the number of objects in the index.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.order)
}

// All returns the objects in insertion order.
func (ix *Index) All() []*Object {
	if ix == nil {
		return nil
	}
	all := make([]*Object, 0, len(ix.order))
	for _, id := range ix.order {
		all = append(all, ix.objects[id])
	}
	return all
}
