package processor

import (
	"sort"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParagraphSet answers whether a node was marked as a paragraph in the
// current run.
type ParagraphSet map[*html.Node]bool

// NewParagraphSet indexes a paragraph list.
func NewParagraphSet(paragraphs []*html.Node) ParagraphSet {
	set := make(ParagraphSet, len(paragraphs))
	for _, p := range paragraphs {
		set[p] = true
	}
	return set
}

// Has reports whether n is a paragraph.
func (s ParagraphSet) Has(n *html.Node) bool {
	return s[n]
}

// segmenter carries the state of one paragraph search.
type segmenter struct {
	sessionID    string
	justSawBreak bool
	marked       ParagraphSet
	paragraphs   []*html.Node
}

// segFrame is an element whose children are being visited.
type segFrame struct {
	next  *html.Node // next child to visit
	block bool       // element is block level
	saved bool       // break flag to restore after an inline element
}

// FindParagraphs marks every paragraph under root and returns them in
// document order. root is normally the body element; pass the document node
// when the document has no body.
//
// Every visited element receives the session marker. Paragraphs also receive
// the paragraph marker. A document without translatable text yields no
// paragraphs and is left unmarked.
func FindParagraphs(root *html.Node, sessionID string) []*html.Node {
	if !hasText(root) {
		return nil
	}
	s := &segmenter{
		sessionID: sessionID,
		marked:    make(ParagraphSet),
	}
	s.walkBoundaries(root)
	s.claimLooseText(root)

	order := documentOrder(root)
	sort.SliceStable(s.paragraphs, func(i, j int) bool {
		return order[s.paragraphs[i]] < order[s.paragraphs[j]]
	})
	return s.paragraphs
}

// hasText reports whether any translatable text leaf lies under root.
func hasText(root *html.Node) bool {
	stack := []*html.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if isTextLeaf(n) {
			return true
		}
		if n != root && (n.Type != html.ElementNode || skipped(n)) {
			continue
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			stack = append(stack, c)
		}
	}
	return false
}

func (s *segmenter) mark(n *html.Node) {
	if s.marked[n] {
		return
	}
	if !hasAttr(n, AttrParagraph) {
		setAttr(n, AttrParagraph, "1")
	}
	setAttr(n, AttrWalked, s.sessionID)
	s.marked[n] = true
	s.paragraphs = append(s.paragraphs, n)
}

// walkBoundaries is the first pass: block elements, elements following a
// line break, and text directly following a line break become paragraphs.
func (s *segmenter) walkBoundaries(root *html.Node) {
	first := s.enter(root)
	if first == nil {
		return
	}
	stack := []*segFrame{first}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		child := top.next
		if child == nil {
			stack = stack[:len(stack)-1]
			if top.block {
				// The end of a block behaves like a trailing <br>.
				s.justSawBreak = true
			} else {
				s.justSawBreak = top.saved
			}
			continue
		}
		// enter may replace the siblings that follow child, so the cursor
		// advances only after the visit.
		frame := s.enter(child)
		top.next = child.NextSibling
		if frame != nil {
			stack = append(stack, frame)
		}
	}
}

// enter visits a single node and returns a frame when its children need to
// be walked.
func (s *segmenter) enter(n *html.Node) *segFrame {
	switch n.Type {
	case html.DocumentNode:
		return &segFrame{next: n.FirstChild, block: true}
	case html.ElementNode:
	default:
		return nil
	}
	if skipped(n) {
		return nil
	}
	if n.DataAtom == atom.Br {
		s.justSawBreak = true
		s.wrapTextAfterBreak(n)
		return nil
	}

	setAttr(n, AttrWalked, s.sessionID)
	block := isBlock(n)
	if block || s.justSawBreak {
		s.mark(n)
		s.justSawBreak = false
	}
	return &segFrame{next: n.FirstChild, block: block, saved: s.justSawBreak}
}

// wrapTextAfterBreak moves the text run that directly follows br into a
// generated <span> and marks the span as a paragraph.
func (s *segmenter) wrapTextAfterBreak(br *html.Node) {
	if br.Parent == nil {
		return
	}
	var texts []*html.Node
	for cur := br.NextSibling; cur != nil && cur.Type == html.TextNode; cur = cur.NextSibling {
		if isTextLeaf(cur) {
			texts = append(texts, cur)
		}
	}
	if len(texts) == 0 {
		return
	}

	var combined string
	for _, t := range texts {
		combined += t.Data
	}
	span := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Span,
		Data:     "span",
		Attr:     []html.Attribute{{Key: AttrGenerated, Val: "1"}},
	}
	span.AppendChild(&html.Node{Type: html.TextNode, Data: combined})

	first := texts[0]
	first.Parent.InsertBefore(span, first)
	for _, t := range texts {
		detach(t)
	}
	s.mark(span)
}

// claimLooseText is the second pass: a text leaf not yet covered by any
// paragraph is attributed to its nearest container that is not an inline
// text element. When only inline elements lie above the leaf, the outermost
// of them is used.
func (s *segmenter) claimLooseText(root *html.Node) {
	stack := []*html.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if isTextLeaf(n) {
			if container := s.containerOf(n); container != nil {
				s.mark(container)
			}
			continue
		}
		if n.Type != html.ElementNode && n.Type != html.DocumentNode {
			continue
		}
		if skipped(n) {
			continue
		}
		for c := n.LastChild; c != nil; c = c.PrevSibling {
			stack = append(stack, c)
		}
	}
}

// containerOf returns the unmarked container that should own leaf, or nil
// when the leaf is already covered.
func (s *segmenter) containerOf(leaf *html.Node) *html.Node {
	var outermostInline *html.Node
	c := leaf.Parent
	for isElement(c) && InlineTextTags[c.Data] && !s.marked[c] {
		outermostInline = c
		c = c.Parent
	}
	switch {
	case isElement(c):
		if s.marked[c] {
			return nil
		}
		return c
	case outermostInline != nil:
		return outermostInline
	}
	return nil
}
