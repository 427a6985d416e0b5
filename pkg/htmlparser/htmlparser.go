// Package htmlparser provides the default implementation of the engine's
// pluggable Parser capability (spec §6): turning one page's HTML into
// visible-text tokens, field tag sets, an optional title string, and
// outgoing links. Parsing is explicitly pluggable and out of scope in the
// teacher (no file in the pack parses HTML for this purpose); this default
// implementation exists purely so the pipeline is runnable end-to-end,
// built with golang.org/x/net/html the way the wider pack's HTML-scraping
// code (go-mizu-mizu's duome parser) walks an html.Node tree by hand.
package htmlparser

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	texttok "github.com/kittclouds/corpusrank/pkg/text"
)

// Result is everything the Indexer pipeline needs from one parsed page
// (spec §4.3 step 3 / §6).
type Result struct {
	Tokens  []string            // every visible-text token, document order
	Headers map[string]struct{} // tokens appearing inside h1/h2/h3
	Bold    map[string]struct{} // tokens appearing inside b/strong
	Titles  map[string]struct{} // tokens appearing inside title
	Title   string              // first <title> element's text, if any
	Links   []string            // href of every <a>, in document order
	Summary string              // optional human-readable summary

	// VisibleText is the raw visible-text content, untokenized (punctuation
	// and spacing intact), fed to the Summarizer — Tokens has already
	// dropped punctuation and can't support sentence-boundary detection.
	VisibleText string
}

// Parser turns raw HTML into a Result. Implementations are free to derive
// Summary however they like; the default leaves it empty unless a
// Summarizer is configured (see New).
type Parser interface {
	Parse(htmlContent string) (Result, error)
}

// Summarizer produces a short human-readable summary from a page's raw
// visible text, used to populate Result.Summary.
type Summarizer interface {
	Summarize(text string) string
}

// Default is the reference Parser implementation.
type Default struct {
	Summarizer Summarizer // optional
}

// New creates a Default parser, optionally with a Summarizer.
func New(summarizer Summarizer) *Default {
	return &Default{Summarizer: summarizer}
}

// skipTags are elements whose entire subtree is excluded from visible
// text (spec §6): style/script/head/meta content is never rendered, and
// a/img text is excluded so link labels and alt text don't pollute the
// body's term frequencies (links are still captured separately as Links).
var skipTags = map[string]bool{
	"style":  true,
	"script": true,
	"head":   true,
	"meta":   true,
	"a":      true,
	"img":    true,
}

// Parse implements Parser.
func (d *Default) Parse(htmlContent string) (Result, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return Result{}, fmt.Errorf("htmlparser: parse: %w", err)
	}

	res := Result{
		Headers: make(map[string]struct{}),
		Bold:    make(map[string]struct{}),
		Titles:  make(map[string]struct{}),
	}
	var text strings.Builder

	var titleCaptured bool
	var walk func(n *html.Node, skip bool, inHeader, inBold, inTitle bool)
	walk = func(n *html.Node, skip bool, inHeader, inBold, inTitle bool) {
		switch n.Type {
		case html.CommentNode, html.DoctypeNode:
			// Neither contributes visible text nor has meaningful children
			// for this purpose (spec §6: excludes comment nodes and the
			// document sentinel).
			return
		case html.TextNode:
			toks := texttok.Tokenize(n.Data)
			if len(toks) == 0 {
				return
			}
			// <title> normally sits inside <head>, whose text is not
			// visible, so the title set and string are captured before
			// the skip check.
			if inTitle {
				addAll(res.Titles, toks)
				if !titleCaptured {
					res.Title = strings.TrimSpace(n.Data)
					titleCaptured = true
				}
			}
			if skip {
				return
			}
			res.Tokens = append(res.Tokens, toks...)
			text.WriteString(n.Data)
			text.WriteByte(' ')
			if inHeader {
				addAll(res.Headers, toks)
			}
			if inBold {
				addAll(res.Bold, toks)
			}
			return
		}

		childSkip := skip
		childHeader := inHeader
		childBold := inBold
		childTitle := inTitle

		if n.Type == html.ElementNode {
			switch n.Data {
			case "a":
				res.Links = append(res.Links, attr(n, "href"))
			case "h1", "h2", "h3":
				childHeader = true
			case "b", "strong":
				childBold = true
			case "title":
				childTitle = true
			}
			if skipTags[n.Data] {
				childSkip = true
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, childSkip, childHeader, childBold, childTitle)
		}
	}
	walk(doc, false, false, false, false)

	res.VisibleText = strings.TrimSpace(text.String())
	if d.Summarizer != nil {
		res.Summary = d.Summarizer.Summarize(res.VisibleText)
	}

	return res, nil
}

func addAll(set map[string]struct{}, toks []string) {
	for _, t := range toks {
		set[t] = struct{}{}
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
