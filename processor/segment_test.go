package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestFindParagraphs_BlocksAndBreaks(t *testing.T) {
	_, body := parseBody(t, `<div>Line1<br>Line2</div>`)

	paras := FindParagraphs(body, "s1")
	require.Equal(t, []string{"body", "div", "span"}, tags(paras))

	span := paras[2]
	assert.True(t, hasAttr(span, AttrGenerated))
	assert.Equal(t, "Line2", span.FirstChild.Data)
	for _, p := range paras {
		v, _ := getAttr(p, AttrWalked)
		assert.Equal(t, "s1", v)
		assert.True(t, hasAttr(p, AttrParagraph))
	}
}

func TestFindParagraphs_BreakWrapsConsecutiveText(t *testing.T) {
	_, body := parseBody(t, `<p>a<br>b</p>`)
	p := body.FirstChild

	// Split the text after <br> in two, as a parser may leave adjacent runs.
	br := p.FirstChild.NextSibling
	tail := br.NextSibling
	tail.Data = "b1"
	insertAfter(tail, &html.Node{Type: html.TextNode, Data: "b2"})

	paras := FindParagraphs(body, "s")
	span := paras[len(paras)-1]
	assert.Equal(t, "span", span.Data)
	assert.Equal(t, "b1b2", span.FirstChild.Data)
	assert.Nil(t, span.NextSibling, "both text runs moved into the span")
}

func TestFindParagraphs_ElementAfterBreak(t *testing.T) {
	_, body := parseBody(t, `<p>one<br><em>two</em> three</p>`)

	paras := FindParagraphs(body, "s")
	assert.Equal(t, []string{"body", "p", "em"}, tags(paras))
}

func TestFindParagraphs_InlineOnlyDocument(t *testing.T) {
	root := parseLoose(t, `<span><b>text</b></span>`)

	paras := FindParagraphs(root, "s")
	require.Len(t, paras, 1)
	assert.Equal(t, "span", paras[0].Data)
	assert.Equal(t, "b", paras[0].FirstChild.Data)
}

func TestFindParagraphs_LooseTextClaimsContainer(t *testing.T) {
	root := parseLoose(t, `<p>first</p><span>after <i>block</i></span>`)

	paras := FindParagraphs(root, "s")
	// The span follows a block, so the first pass already marks it.
	assert.Equal(t, []string{"p", "span"}, tags(paras))
}

func TestFindParagraphs_SkipRules(t *testing.T) {
	_, body := parseBody(t, `<p>keep</p>
<script>var x = 1;</script>
<div class="x notranslate"><p>no</p></div>
<div translate="no"><p>no</p></div>
<div data-no-translate><p>no</p></div>
<textarea>no</textarea>`)

	paras := FindParagraphs(body, "s")
	assert.Equal(t, []string{"body", "p"}, tags(paras))
}

func TestFindParagraphs_Empty(t *testing.T) {
	_, body := parseBody(t, ``)
	assert.Empty(t, FindParagraphs(body, "s"))

	_, body = parseBody(t, "<div>  \n </div><script>x()</script>")
	assert.Empty(t, FindParagraphs(body, "s"))
}

func TestFindParagraphs_DocumentOrder(t *testing.T) {
	_, body := parseBody(t, `<div>a<span>b</span><section><p>c</p></section>d</div>`)

	paras := FindParagraphs(body, "s")
	order := documentOrder(body)
	for i := 1; i < len(paras); i++ {
		assert.Less(t, order[paras[i-1]], order[paras[i]])
	}
}

func TestFindParagraphs_EveryLeafOwned(t *testing.T) {
	_, body := parseBody(t, `<div>lead <b>bold</b><p>para <i>it</i></p>tail<br>after<ul><li>x</li><li><a href="#">y</a></li></ul></div>`)

	paras := FindParagraphs(body, "s")
	set := NewParagraphSet(paras)

	var all []string
	for _, p := range paras {
		all = append(all, leafTexts(ownedLeaves(p, set))...)
	}
	assert.ElementsMatch(t, []string{"lead ", "bold", "para ", "it", "tail", "after", "x", "y"}, all)
}

func TestFindParagraphs_MarksOnce(t *testing.T) {
	_, body := parseBody(t, `<p>x</p>`)
	first := FindParagraphs(body, "s")
	second := FindParagraphs(body, "s")

	assert.Equal(t, tags(first), tags(second))
	p := body.FirstChild
	n := 0
	for _, a := range p.Attr {
		if a.Key == AttrParagraph {
			n++
		}
	}
	assert.Equal(t, 1, n)
}
