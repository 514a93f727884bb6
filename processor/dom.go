package processor

import (
	"strings"

	"golang.org/x/net/html"
)

func getAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasAttr(n *html.Node, key string) bool {
	_, ok := getAttr(n, key)
	return ok
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

func hasClass(n *html.Node, class string) bool {
	v, ok := getAttr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

func isElement(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode
}

// isTextLeaf reports whether n is a text node with visible content.
func isTextLeaf(n *html.Node) bool {
	return n.Type == html.TextNode && strings.TrimSpace(n.Data) != ""
}

// isBlock reports whether an element starts a paragraph on its own.
func isBlock(n *html.Node) bool {
	return !InlineTextTags[n.Data] && !InlineIgnoreTags[n.Data]
}

func isEndMarker(n *html.Node) bool {
	return isElement(n) && hasAttr(n, AttrEndMarker)
}

// skipped reports whether an element and its subtree are excluded from
// translation: fixed non-translatable tags, opt-out markers, and nodes this
// package inserted itself.
func skipped(n *html.Node) bool {
	if !isElement(n) {
		return false
	}
	if NoTranslateTags[n.Data] {
		return true
	}
	if v, ok := getAttr(n, "translate"); ok && strings.EqualFold(v, "no") {
		return true
	}
	return hasClass(n, "notranslate") ||
		hasAttr(n, "data-no-translate") ||
		hasAttr(n, AttrWrapperMark) ||
		hasAttr(n, AttrEndMarker)
}

func insertAfter(ref, n *html.Node) {
	ref.Parent.InsertBefore(n, ref.NextSibling)
}

func detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// cloneTree deep-copies n. Every copied node is recorded in copies, keyed by
// its original.
func cloneTree(n *html.Node, copies map[*html.Node]*html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		c.Attr = make([]html.Attribute, len(n.Attr))
		copy(c.Attr, n.Attr)
	}
	copies[n] = c
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(cloneTree(child, copies))
	}
	return c
}

// documentOrder numbers every node under root in pre-order.
func documentOrder(root *html.Node) map[*html.Node]int {
	order := make(map[*html.Node]int)
	stack := []*html.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order[n] = len(order)
		for c := n.LastChild; c != nil; c = c.PrevSibling {
			stack = append(stack, c)
		}
	}
	return order
}

// preserveWhitespace keeps the original leading/trailing whitespace around
// a translated string.
func preserveWhitespace(original, translated string) string {
	leadingLen := len(original) - len(strings.TrimLeft(original, " \t\n\r"))
	trailingLen := len(original) - len(strings.TrimRight(original, " \t\n\r"))
	if leadingLen == len(original) {
		return original
	}
	return original[:leadingLen] + strings.TrimSpace(translated) + original[len(original)-trailingLen:]
}
