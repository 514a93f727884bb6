package processor

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/ZaguanLabs/hfit"
)

// Rendering is a block prepared for translation. Payloads are submitted in
// order; Content receives the translations at the same positions and
// returns the nodes that go into the wrapper's inner container.
type Rendering interface {
	Payloads() []string
	Content(translations []string) []*html.Node
	Muted() bool
}

// Render prepares b for translation according to mode.
func Render(mode hfit.Mode, b *Block) Rendering {
	if mode == hfit.ModeStructured {
		return NewTreeRendering(b)
	}
	return NewFlatRendering(b)
}

// FlatRendering joins the trimmed text of every leaf with single spaces.
// Markup is discarded.
type FlatRendering struct {
	Text string
}

// NewFlatRendering flattens a block.
func NewFlatRendering(b *Block) *FlatRendering {
	parts := make([]string, 0, len(b.Nodes))
	for _, n := range b.Nodes {
		if t := strings.TrimSpace(n.Data); t != "" {
			parts = append(parts, t)
		}
	}
	return &FlatRendering{Text: strings.Join(parts, " ")}
}

// Payloads returns the flattened text as a single payload.
func (r *FlatRendering) Payloads() []string {
	if r.Text == "" {
		return nil
	}
	return []string{r.Text}
}

// Content returns the translation as a single text node. The translation is
// plain text; the serializer escapes it.
func (r *FlatRendering) Content(translations []string) []*html.Node {
	text := r.Text
	if len(translations) > 0 {
		text = translations[0]
	}
	return []*html.Node{{Type: html.TextNode, Data: text}}
}

// Muted is true: flattened translations are shown in a muted colour.
func (r *FlatRendering) Muted() bool { return true }

// TreeRendering is a pruned, independent copy of a block's common ancestor.
// It keeps only the block's leaves and the elements on the path from the
// ancestor to each of them.
type TreeRendering struct {
	Root   *html.Node   // Copy of the common ancestor
	Leaves []*html.Node // Text leaves of Root, in document order
}

// NewTreeRendering copies and prunes the common ancestor of b.
func NewTreeRendering(b *Block) *TreeRendering {
	copies := make(map[*html.Node]*html.Node)
	root := cloneTree(b.CommonAncestor, copies)

	keep := make(map[*html.Node]bool)
	for _, leaf := range b.Nodes {
		c, ok := copies[leaf]
		if !ok {
			continue
		}
		for n := c; n != nil; n = n.Parent {
			keep[n] = true
			if n == root {
				break
			}
		}
	}

	prune(root, keep)
	removeEmpty(root)
	stripMarkers(root)
	return &TreeRendering{Root: root, Leaves: textLeaves(root)}
}

// prune drops every child of n that is neither kept nor whitespace.
func prune(n *html.Node, keep map[*html.Node]bool) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch {
		case keep[c]:
			if c.Type == html.ElementNode {
				prune(c, keep)
			}
		case c.Type == html.TextNode && !isTextLeaf(c):
			// Whitespace separates kept inline elements.
		default:
			n.RemoveChild(c)
		}
		c = next
	}
}

// removeEmpty deletes elements that end up with no children or with
// whitespace only.
func removeEmpty(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode {
			removeEmpty(c)
			if blank(c) {
				n.RemoveChild(c)
			}
		}
		c = next
	}
}

// stripMarkers removes the bookkeeping attributes segmentation left on the
// copied elements.
func stripMarkers(root *html.Node) {
	stack := []*html.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.Type != html.ElementNode {
			continue
		}
		removeAttr(n, AttrWalked)
		removeAttr(n, AttrParagraph)
		removeAttr(n, AttrGenerated)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			stack = append(stack, c)
		}
	}
}

func blank(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.TextNode || isTextLeaf(c) {
			return false
		}
	}
	return true
}

// textLeaves lists the text leaves under root, skipping non-translatable
// elements.
func textLeaves(root *html.Node) []*html.Node {
	var leaves []*html.Node
	stack := []*html.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if isTextLeaf(n) {
			leaves = append(leaves, n)
			continue
		}
		if n != root && (n.Type != html.ElementNode || NoTranslateTags[n.Data]) {
			continue
		}
		for c := n.LastChild; c != nil; c = c.PrevSibling {
			stack = append(stack, c)
		}
	}
	return leaves
}

// Payloads returns the trimmed text of every leaf.
func (r *TreeRendering) Payloads() []string {
	out := make([]string, len(r.Leaves))
	for i, leaf := range r.Leaves {
		out[i] = strings.TrimSpace(leaf.Data)
	}
	return out
}

// Translate replaces leaf text in place. Missing positions keep the source.
func (r *TreeRendering) Translate(translations []string) {
	for i, leaf := range r.Leaves {
		if i < len(translations) {
			leaf.Data = preserveWhitespace(leaf.Data, translations[i])
		}
	}
}

// Content translates the copy and hands over its children.
func (r *TreeRendering) Content(translations []string) []*html.Node {
	r.Translate(translations)
	var out []*html.Node
	for c := r.Root.FirstChild; c != nil; {
		next := c.NextSibling
		r.Root.RemoveChild(c)
		out = append(out, c)
		c = next
	}
	return out
}

// Muted is false: structured translations keep the source styling.
func (r *TreeRendering) Muted() bool { return false }
