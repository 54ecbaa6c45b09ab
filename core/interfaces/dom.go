// ABOUTME: Abstract document tree interfaces decoupling traversal from any rendering engine
// ABOUTME: The extractor and highlighter operate only through these contracts

package interfaces

// Node is one node of an abstract document tree. Implementations wrap a
// concrete parsed document (an HTML tree, a browser binding) behind a
// minimal surface so the traversal algorithm stays engine-independent.
type Node interface {
	// Tag returns the lowercased element tag, or "" for text nodes.
	Tag() string

	// IsText reports whether this is a raw text node.
	IsText() bool

	// Text returns the node's text content. For text nodes this is the
	// raw character data; for elements it is the concatenated text of
	// all descendants in document order.
	Text() string

	// Children returns the child nodes in document order. Text nodes
	// have no children.
	Children() []Node

	// IsVisible reports the node's computed visibility. An invisible
	// node hides its whole subtree.
	IsVisible() bool

	// Attr returns the value of the named attribute and whether it is
	// present. Text nodes carry no attributes.
	Attr(name string) (string, bool)

	// SetAttr sets an attribute on an element node. It is a no-op on
	// text nodes.
	SetAttr(name, value string)
}

// Document is the abstract document a page-context agent operates on.
type Document interface {
	// URL returns the document location.
	URL() string

	// Title returns the document title.
	Title() string

	// Body returns the document body element.
	Body() Node

	// QuerySelector returns the first node matching the CSS selector in
	// document order, or false if nothing matches.
	QuerySelector(selector string) (Node, bool)
}

// Element is a live element handle used by the highlighter. It exposes
// just enough of the rendering engine to tint an element and put it on
// screen.
type Element interface {
	// ScrollIntoView scrolls the element into centered view.
	ScrollIntoView()

	// Style returns the element's current inline style value for the
	// given property, or an empty string.
	Style(property string) string

	// SetStyle sets an inline style property on the element.
	SetStyle(property, value string)
}

// Page extends Document with the live-element operations the
// highlighter needs.
type Page interface {
	Document

	// ElementByBlockID returns a live handle to the element stamped
	// with the given block identifier, or false if no element carries
	// it.
	ElementByBlockID(id string) (Element, bool)
}
