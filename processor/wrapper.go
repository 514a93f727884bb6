package processor

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const wrapperTemplate = `<font class="notranslate hfit-target-wrapper" ` + AttrWrapperMark + `="1" lang="%s"%s>` +
	`<br>` +
	`<font class="notranslate hfit-target-translation-theme-none hfit-target-translation-block-wrapper-theme-none hfit-target-translation-block-wrapper" ` + AttrWrapperMark + `="1">` +
	`<font class="notranslate hfit-target-inner hfit-target-translation-theme-none-inner" ` + AttrWrapperMark + `="1"%s>` +
	`</font></font></font>`

const mutedStyle = ` style="color:#2f4f4f;"`

var fragmentContext = &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"}

// NewWrapper builds a translation wrapper: an outer container tagged with
// the target language that starts with a line break, a block-style middle
// container, and an inner container holding content.
func NewWrapper(lang, dir string, muted bool, content []*html.Node) (*html.Node, error) {
	dirAttr := ""
	if dir == "rtl" {
		dirAttr = ` dir="rtl"`
	}
	style := ""
	if muted {
		style = mutedStyle
	}
	src := fmt.Sprintf(wrapperTemplate, html.EscapeString(lang), dirAttr, style)

	nodes, err := html.ParseFragment(strings.NewReader(src), fragmentContext)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 || nodes[0].DataAtom != atom.Font {
		return nil, fmt.Errorf("wrapper template produced %d nodes", len(nodes))
	}
	outer := nodes[0]
	inner := wrapperInner(outer)
	if inner == nil {
		return nil, fmt.Errorf("wrapper template has no inner container")
	}
	for _, c := range content {
		detach(c)
		inner.AppendChild(c)
	}
	return outer, nil
}

// wrapperInner returns the innermost container of a wrapper.
func wrapperInner(outer *html.Node) *html.Node {
	middle := outer.LastChild
	if !isElement(middle) {
		return nil
	}
	inner := middle.FirstChild
	if !isElement(inner) {
		return nil
	}
	return inner
}
