package processor

import (
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Block is a run of contiguous text leaves inside one paragraph that is
// translated and wrapped as a unit.
type Block struct {
	Nodes          []*html.Node // Owned text leaves, in document order
	CommonAncestor *html.Node   // Deepest element containing every leaf
	EndMarker      *html.Node   // Hidden anchor; the wrapper goes right before it
}

// MarkerRegistry tracks end markers claimed during one run, so an anchor
// left behind by a previous run is reused instead of duplicated.
type MarkerRegistry map[*html.Node]bool

// blockExtractor collects the blocks of one paragraph.
type blockExtractor struct {
	paragraph  *html.Node
	paragraphs ParagraphSet
	markers    MarkerRegistry
	logger     zerolog.Logger

	pending []*html.Node
	blocks  []*Block
	dropped int
}

type blockFrame struct {
	node *html.Node
	next *html.Node
}

// ExtractBlocks splits the text directly owned by paragraph into semantic
// blocks and inserts an end marker for each one. Subtrees of other
// paragraphs are left to their own extraction. It returns the blocks and the
// number of blocks dropped for lack of a common ancestor.
func ExtractBlocks(paragraph *html.Node, paragraphs ParagraphSet, markers MarkerRegistry, logger zerolog.Logger) ([]*Block, int) {
	if markers == nil {
		markers = make(MarkerRegistry)
	}
	e := &blockExtractor{
		paragraph:  paragraph,
		paragraphs: paragraphs,
		markers:    markers,
		logger:     logger,
	}
	e.collect()
	return e.blocks, e.dropped
}

func (e *blockExtractor) collect() {
	stack := []*blockFrame{{node: e.paragraph, next: e.paragraph.FirstChild}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		child := top.next
		if child == nil {
			stack = stack[:len(stack)-1]
			if top.node != e.paragraph && !InlineTextTags[top.node.Data] {
				e.flush(nil)
			}
			continue
		}
		// Markers inserted by flush land next to already visited nodes;
		// advancing first keeps them out of the walk.
		top.next = child.NextSibling

		switch child.Type {
		case html.TextNode:
			if isTextLeaf(child) {
				e.pending = append(e.pending, child)
			}
		case html.ElementNode:
			if skipped(child) {
				continue
			}
			if e.paragraphs.Has(child) {
				e.flush(child)
				continue
			}
			stack = append(stack, &blockFrame{node: child, next: child.FirstChild})
		}
	}
	e.flush(nil)
}

// flush closes the pending block. next is the paragraph that interrupted the
// block, or nil when the block ended at an element boundary.
func (e *blockExtractor) flush(next *html.Node) {
	if len(e.pending) == 0 {
		return
	}
	nodes := e.pending
	e.pending = nil

	ancestor := CommonAncestor(nodes)
	if ancestor == nil {
		e.dropped++
		e.logger.Warn().
			Int("nodes", len(nodes)).
			Msg("Dropping semantic block without a common ancestor")
		return
	}

	e.blocks = append(e.blocks, &Block{
		Nodes:          nodes,
		CommonAncestor: ancestor,
		EndMarker:      e.placeMarker(nodes[len(nodes)-1], ancestor, next),
	})
}

// placeMarker inserts the end marker of a block whose last leaf is last.
func (e *blockExtractor) placeMarker(last, ancestor, next *html.Node) *html.Node {
	if next != nil {
		return e.markerBefore(next)
	}

	// Climb to the direct child of the common ancestor holding the leaf.
	n := last
	for n != nil && n.Parent != ancestor {
		n = n.Parent
		if n == nil || (isElement(n) && e.paragraphs.Has(n)) {
			n = nil
			break
		}
	}
	if n != nil {
		return e.markerAfter(n)
	}
	if last.Parent == ancestor {
		return e.markerAfter(last)
	}

	e.logger.Warn().
		Str("ancestor", ancestor.Data).
		Msg("No precise insertion point for block end marker, appending to common ancestor")
	if m := ancestor.LastChild; e.reusable(m) {
		return e.claim(m)
	}
	m := newEndMarker()
	ancestor.AppendChild(m)
	return e.claim(m)
}

func (e *blockExtractor) markerBefore(ref *html.Node) *html.Node {
	if m := ref.PrevSibling; e.reusable(m) {
		return e.claim(m)
	}
	m := newEndMarker()
	ref.Parent.InsertBefore(m, ref)
	return e.claim(m)
}

func (e *blockExtractor) markerAfter(ref *html.Node) *html.Node {
	if m := ref.NextSibling; e.reusable(m) {
		return e.claim(m)
	}
	m := newEndMarker()
	insertAfter(ref, m)
	return e.claim(m)
}

// reusable reports whether m is an end marker from an earlier run that no
// block of this run has claimed yet.
func (e *blockExtractor) reusable(m *html.Node) bool {
	return m != nil && isEndMarker(m) && !e.markers[m]
}

func (e *blockExtractor) claim(m *html.Node) *html.Node {
	e.markers[m] = true
	return m
}

func newEndMarker() *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Span,
		Data:     "span",
		Attr: []html.Attribute{
			{Key: AttrEndMarker, Val: "1"},
			{Key: "style", Val: "display:none;"},
		},
	}
}

// CommonAncestor returns the deepest node that contains every node in
// nodes, or nil when there is none.
func CommonAncestor(nodes []*html.Node) *html.Node {
	if len(nodes) == 0 {
		return nil
	}
	if len(nodes) == 1 {
		return nodes[0].Parent
	}

	// Ancestor chain of the first node, deepest first. floor is the index
	// of the deepest entry still shared by every node seen so far.
	var chain []*html.Node
	depth := make(map[*html.Node]int)
	for p := nodes[0].Parent; p != nil; p = p.Parent {
		depth[p] = len(chain)
		chain = append(chain, p)
	}
	if len(chain) == 0 {
		return nil
	}

	floor := 0
	for _, n := range nodes[1:] {
		found := false
		for p := n.Parent; p != nil; p = p.Parent {
			if i, ok := depth[p]; ok && i >= floor {
				floor = i
				found = true
				break
			}
		}
		if !found {
			return nil
		}
	}
	return chain[floor]
}
