package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Attr returns the value of an attribute and whether it is present.
func Attr(n *html.Node, name string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// AttrOr returns the attribute value or fallback when absent.
func AttrOr(n *html.Node, name, fallback string) string {
	if v, ok := Attr(n, name); ok {
		return v
	}
	return fallback
}

// HasAttr reports whether the attribute is present.
func HasAttr(n *html.Node, name string) bool {
	_, ok := Attr(n, name)
	return ok
}

// SetAttr sets or replaces an attribute.
func SetAttr(n *html.Node, name, value string) {
	if n == nil {
		return
	}
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

// RemoveAttr deletes an attribute if present.
func RemoveAttr(n *html.Node, name string) {
	if n == nil {
		return
	}
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			continue
		}
		out = append(out, a)
	}
	n.Attr = out
}

// HasClass reports whether n carries class.
func HasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(AttrOr(n, "class", "")) {
		if c == class {
			return true
		}
	}
	return false
}

// ToggleClass adds or removes class.
func ToggleClass(n *html.Node, class string, on bool) {
	if n == nil || class == "" {
		return
	}
	classes := strings.Fields(AttrOr(n, "class", ""))
	out := classes[:0]
	for _, c := range classes {
		if c != class {
			out = append(out, c)
		}
	}
	if on {
		out = append(out, class)
	}
	if len(out) == 0 {
		RemoveAttr(n, "class")
		return
	}
	SetAttr(n, "class", strings.Join(out, " "))
}

// IsValueBearing reports whether n stores its state as a form value rather
// than as text content.
func IsValueBearing(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Input, atom.Select, atom.Textarea, atom.Output, atom.Button, atom.Option:
		return true
	}
	return false
}

// Value returns the form value of n.
func Value(n *html.Node) string {
	if n == nil {
		return ""
	}
	switch n.DataAtom {
	case atom.Textarea, atom.Output:
		return Text(n)
	case atom.Select:
		var first string
		found := false
		for opt := range options(n) {
			v := optionValue(opt)
			if !found {
				first, found = v, true
			}
			if HasAttr(opt, "selected") {
				return v
			}
		}
		return first
	default:
		return AttrOr(n, "value", "")
	}
}

// SetValue stores value on n: the value attribute for inputs, the selected
// option for selects and text content for textarea/output.
func SetValue(n *html.Node, value string) {
	if n == nil {
		return
	}
	switch n.DataAtom {
	case atom.Textarea, atom.Output:
		SetText(n, value)
	case atom.Select:
		for opt := range options(n) {
			if optionValue(opt) == value {
				SetAttr(opt, "selected", "")
			} else {
				RemoveAttr(opt, "selected")
			}
		}
	default:
		SetAttr(n, "value", value)
	}
}

func options(sel *html.Node) func(func(*html.Node) bool) {
	return func(yield func(*html.Node) bool) {
		var visit func(*html.Node) bool
		visit = func(n *html.Node) bool {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && c.DataAtom == atom.Option {
					if !yield(c) {
						return false
					}
					continue
				}
				if !visit(c) {
					return false
				}
			}
			return true
		}
		visit(sel)
	}
}

func optionValue(opt *html.Node) string {
	if v, ok := Attr(opt, "value"); ok {
		return v
	}
	return strings.TrimSpace(Text(opt))
}

// Text returns the concatenated text content of n.
func Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	})
	return b.String()
}

// SetText replaces the children of n with a single text node.
func SetText(n *html.Node, text string) {
	if n == nil {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	if text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
}

// Contains reports whether n is ancestor or n itself.
func Contains(ancestor, n *html.Node) bool {
	if ancestor == nil {
		return false
	}
	for cur := n; cur != nil; cur = cur.Parent {
		if cur == ancestor {
			return true
		}
	}
	return false
}

// IsElement reports whether n is an element with the given tag.
func IsElement(n *html.Node, tag string) bool {
	return n != nil && n.Type == html.ElementNode && n.Data == tag
}
