// ABOUTME: HTML-backed implementation of the abstract document interfaces
// ABOUTME: Wraps goquery/x-net-html so the extractor stays engine-independent

package html

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	xhtml "golang.org/x/net/html"

	"pageintel/core/domain"
	"pageintel/core/interfaces"
)

// Document implements interfaces.Page over a parsed HTML tree. The tree
// is mutable: attribute stamps and inline style changes made through
// the interface are visible to later selector queries, the way a live
// document behaves.
type Document struct {
	url      string
	gq       *goquery.Document
	scrolled *xhtml.Node
}

// Parse builds a Document from raw HTML markup.
func Parse(url, markup string) (*Document, error) {
	gq, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}
	return &Document{url: url, gq: gq}, nil
}

// URL returns the document location.
func (d *Document) URL() string { return d.url }

// Title returns the contents of the title element.
func (d *Document) Title() string {
	return strings.TrimSpace(d.gq.Find("title").First().Text())
}

// Body returns the document body element.
func (d *Document) Body() interfaces.Node {
	sel := d.gq.Find("body").First()
	if len(sel.Nodes) == 0 {
		return nil
	}
	return &node{n: sel.Nodes[0]}
}

// QuerySelector returns the first node matching the CSS selector.
func (d *Document) QuerySelector(selector string) (interfaces.Node, bool) {
	sel := d.gq.Find(selector).First()
	if len(sel.Nodes) == 0 {
		return nil, false
	}
	return &node{n: sel.Nodes[0]}, true
}

// ElementByBlockID returns a live handle to the element stamped with
// the given block identifier.
func (d *Document) ElementByBlockID(id string) (interfaces.Element, bool) {
	sel := d.gq.Find(`[` + domain.BlockIDAttr + `="` + id + `"]`).First()
	if len(sel.Nodes) == 0 {
		return nil, false
	}
	return &element{n: sel.Nodes[0], doc: d}, true
}

// LastScrolledBlockID reports the block identifier of the element most
// recently scrolled into view, if any. Used by tests and diagnostics.
func (d *Document) LastScrolledBlockID() (string, bool) {
	if d.scrolled == nil {
		return "", false
	}
	for _, a := range d.scrolled.Attr {
		if a.Key == domain.BlockIDAttr {
			return a.Val, true
		}
	}
	return "", false
}

// node implements interfaces.Node over *html.Node.
type node struct {
	n *xhtml.Node
}

func (nd *node) Tag() string {
	if nd.n.Type != xhtml.ElementNode {
		return ""
	}
	return strings.ToLower(nd.n.Data)
}

func (nd *node) IsText() bool {
	return nd.n.Type == xhtml.TextNode
}

func (nd *node) Text() string {
	if nd.n.Type == xhtml.TextNode {
		return nd.n.Data
	}
	var sb strings.Builder
	collectText(nd.n, &sb)
	return sb.String()
}

func collectText(n *xhtml.Node, sb *strings.Builder) {
	if n.Type == xhtml.TextNode {
		sb.WriteString(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}

func (nd *node) Children() []interfaces.Node {
	var children []interfaces.Node
	for c := nd.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xhtml.ElementNode || c.Type == xhtml.TextNode {
			children = append(children, &node{n: c})
		}
	}
	return children
}

// IsVisible approximates computed visibility from the element's own
// markup: the hidden attribute, display:none and visibility:hidden in
// the inline style. Stylesheet-driven hiding is outside this binding's
// reach.
func (nd *node) IsVisible() bool {
	if nd.n.Type != xhtml.ElementNode {
		return true
	}
	if _, ok := nd.Attr("hidden"); ok {
		return false
	}
	style, _ := nd.Attr("style")
	if style == "" {
		return true
	}
	props := parseInlineStyle(style)
	if props["display"] == "none" || props["visibility"] == "hidden" {
		return false
	}
	return true
}

func (nd *node) Attr(name string) (string, bool) {
	for _, a := range nd.n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func (nd *node) SetAttr(name, value string) {
	if nd.n.Type != xhtml.ElementNode {
		return
	}
	for i, a := range nd.n.Attr {
		if a.Key == name {
			nd.n.Attr[i].Val = value
			return
		}
	}
	nd.n.Attr = append(nd.n.Attr, xhtml.Attribute{Key: name, Val: value})
}

// element implements interfaces.Element: live style and scroll
// operations on one element node.
type element struct {
	n   *xhtml.Node
	doc *Document
}

func (el *element) ScrollIntoView() {
	el.doc.scrolled = el.n
}

func (el *element) Style(property string) string {
	style := attrValue(el.n, "style")
	return parseInlineStyle(style)[property]
}

func (el *element) SetStyle(property, value string) {
	style := attrValue(el.n, "style")
	props := parseInlineStyle(style)
	order := styleOrder(style)

	if _, seen := props[property]; !seen {
		order = append(order, property)
	}
	props[property] = value

	var parts []string
	for _, key := range order {
		if props[key] == "" {
			continue
		}
		parts = append(parts, key+": "+props[key])
	}
	(&node{n: el.n}).SetAttr("style", strings.Join(parts, "; "))
}

func attrValue(n *xhtml.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// parseInlineStyle splits "a: b; c: d" into a property map.
func parseInlineStyle(style string) map[string]string {
	props := map[string]string{}
	for _, decl := range strings.Split(style, ";") {
		key, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		props[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(val)
	}
	return props
}

// styleOrder preserves declaration order for round-tripping.
func styleOrder(style string) []string {
	var order []string
	for _, decl := range strings.Split(style, ";") {
		key, _, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		order = append(order, strings.ToLower(strings.TrimSpace(key)))
	}
	return order
}
