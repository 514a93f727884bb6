// Package processor implements the bilingual HTML engine: paragraph
// segmentation, semantic block extraction, rendering and write-back.
package processor

import "github.com/ZaguanLabs/hfit"

// ContentProcessor is an alias to the main package interface.
type ContentProcessor = hfit.ContentProcessor

// Marker attributes written into the document.
const (
	AttrParagraph   = "data-hfit-paragraph"
	AttrWalked      = "data-hfit-walked"
	AttrGenerated   = "data-hfit-generated"
	AttrEndMarker   = "data-hfit-block-end-marker"
	AttrWrapperMark = "data-hfit-translation-element-mark"
	AttrState       = "hfit-state"
)

// NoTranslateTags are never descended into.
var NoTranslateTags = map[string]bool{
	"title":    true,
	"script":   true,
	"style":    true,
	"textarea": true,
	"svg":      true,
	"noscript": true,
	"template": true,
}

// InlineIgnoreTags are inline elements that still end a semantic block.
var InlineIgnoreTags = map[string]bool{
	"br":   true,
	"code": true,
	"kbd":  true,
	"wbr":  true,
}

// InlineTextTags are inline elements that flow with the surrounding text.
var InlineTextTags = map[string]bool{
	"a":       true,
	"abbr":    true,
	"acronym": true,
	"b":       true,
	"bdo":     true,
	"big":     true,
	"cite":    true,
	"dfn":     true,
	"em":      true,
	"i":       true,
	"label":   true,
	"q":       true,
	"s":       true,
	"small":   true,
	"span":    true,
	"strong":  true,
	"sub":     true,
	"sup":     true,
	"u":       true,
	"tt":      true,
	"var":     true,
}
