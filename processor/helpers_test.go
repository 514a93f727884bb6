package processor

import (
	"bytes"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// parseBody parses src as a full document and returns the document and its
// body element.
func parseBody(t *testing.T, src string) (*goquery.Document, *html.Node) {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	require.NoError(t, err)
	body := doc.Find("body")
	require.Equal(t, 1, body.Length())
	return doc, body.Nodes[0]
}

// parseLoose parses src as body content and hangs the nodes directly off a
// document node, so no <body> encloses them.
func parseLoose(t *testing.T, src string) *html.Node {
	t.Helper()
	nodes, err := html.ParseFragment(strings.NewReader(src), &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"})
	require.NoError(t, err)
	root := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root
}

func render(t *testing.T, n *html.Node) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, html.Render(&buf, n))
	return buf.String()
}

// tags lists the element names of nodes.
func tags(nodes []*html.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Data
	}
	return out
}

func leafTexts(nodes []*html.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Data
	}
	return out
}

// ownedLeaves lists the text leaves of para that no nested paragraph owns.
func ownedLeaves(para *html.Node, paragraphs ParagraphSet) []*html.Node {
	var out []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case isTextLeaf(c):
				out = append(out, c)
			case c.Type != html.ElementNode, skipped(c), paragraphs.Has(c):
			default:
				walk(c)
			}
		}
	}
	walk(para)
	return out
}

// innerHTML renders the children of n.
func innerHTML(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&sb, c)
	}
	return sb.String()
}
