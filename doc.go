// Package hfit produces bilingual HTML documents.
//
// Hfit segments a document into paragraphs and semantic blocks, sends every
// block's text to a translation backend in a single batch, and inserts each
// translation right after the block it belongs to. The original markup stays
// in place, so the result shows source and translation side by side. Running
// hfit on its own output replaces the previous translations instead of
// stacking new ones.
//
// Basic usage:
//
//	import (
//	    "context"
//	    "time"
//
//	    "github.com/ZaguanLabs/hfit"
//	    "github.com/ZaguanLabs/hfit/cache"
//	    "github.com/ZaguanLabs/hfit/processor"
//	    "github.com/ZaguanLabs/hfit/provider"
//	)
//
//	func main() {
//	    p := provider.NewGoogleProvider(provider.GoogleConfig{})
//
//	    t := hfit.NewTranslator("zh-CN", p,
//	        hfit.WithCache(cache.NewInMemoryCache(time.Hour)),
//	        hfit.WithProcessor(processor.NewHTMLProcessor(processor.WithMode(hfit.ModeStructured))),
//	    )
//
//	    result, err := t.ProcessHTML(context.Background(), "<p>Hello <b>world</b></p>")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(result.Content)
//	}
package hfit
