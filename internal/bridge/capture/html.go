package capture

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"uiscout/internal/uitree"
)

// ParseHTML decodes a saved HTML capture into a tree rooted at the page
// body. Tag names become classes, id/name attributes become resource ids,
// and aria-label/alt become descriptions, so the downstream fingerprint and
// command layers see web pages the same way they see native screens. Static
// captures carry no layout, so bounds stay zero. The app id comes from a
// data-app attribute on the body or html element, falling back to defaultApp;
// the screen id is the page title.
func ParseHTML(r io.Reader, defaultApp string) (*uitree.Static, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html capture: %w", err)
	}

	body := findElement(doc, "body")
	if body == nil {
		return nil, errors.New("html capture has no body")
	}

	root := elementNode(body)
	if root.App == "" {
		if htmlEl := findElement(doc, "html"); htmlEl != nil {
			root.App = attrVal(htmlEl, "data-app")
		}
	}
	if root.App == "" {
		root.App = defaultApp
	}
	if root.Screen == "" {
		root.Screen = pageTitle(doc)
	}
	return root, nil
}

// elementNode converts one element and its descendants, pruning markup that
// carries no interactable content.
func elementNode(n *html.Node) *uitree.Static {
	typ := strings.ToLower(attrVal(n, "type"))
	attrs := uitree.Attributes{
		App:        attrVal(n, "data-app"),
		Class:      n.Data,
		ResourceID: firstAttr(n, "id", "name"),
		Desc:       firstAttr(n, "aria-label", "alt"),
		Text:       ownText(n),
		Clickable:  isClickable(n, typ),
		Editable:   isEditable(n, typ),
		Password:   n.Data == "input" && typ == "password",
		Enabled:    !hasAttr(n, "disabled"),
	}

	s := &uitree.Static{Attributes: attrs}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || skippedTag(c.Data) {
			continue
		}
		if c.Data == "input" && strings.ToLower(attrVal(c, "type")) == "hidden" {
			continue
		}
		s.Children = append(s.Children, elementNode(c))
	}
	return s
}

// ownText joins the element's direct text children, whitespace-collapsed.
// Text living in nested elements stays on those nodes.
func ownText(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
			sb.WriteString(" ")
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

func isClickable(n *html.Node, typ string) bool {
	switch n.Data {
	case "a", "button", "summary", "select", "option":
		return true
	case "input":
		switch typ {
		case "button", "submit", "reset", "checkbox", "radio", "image", "file":
			return true
		}
	}
	switch strings.ToLower(attrVal(n, "role")) {
	case "button", "link", "tab", "menuitem", "checkbox", "radio", "switch", "option":
		return true
	}
	return hasAttr(n, "onclick")
}

func isEditable(n *html.Node, typ string) bool {
	switch n.Data {
	case "textarea":
		return true
	case "input":
		switch typ {
		case "", "text", "search", "email", "url", "tel", "number", "password",
			"date", "time", "datetime-local", "month", "week":
			return true
		}
	}
	if v, ok := lookupAttr(n, "contenteditable"); ok && !strings.EqualFold(v, "false") {
		return true
	}
	return false
}

func skippedTag(tag string) bool {
	switch tag {
	case "script", "style", "noscript", "template", "head", "title", "meta", "link", "br", "hr":
		return true
	}
	return false
}

// pageTitle extracts the document title.
func pageTitle(doc *html.Node) string {
	var title string
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)
	return title
}

// findElement returns the first element with the given tag, depth-first.
func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func attrVal(n *html.Node, name string) string {
	v, _ := lookupAttr(n, name)
	return v
}

func lookupAttr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func hasAttr(n *html.Node, name string) bool {
	_, ok := lookupAttr(n, name)
	return ok
}

func firstAttr(n *html.Node, names ...string) string {
	for _, name := range names {
		if v := attrVal(n, name); v != "" {
			return v
		}
	}
	return ""
}
