// Package tokenizer extracts a stream of (stemmed token, importance weight)
// pairs from an HTML document or a plain query string. It is the single
// source of truth for tokenization: both indexing and querying call it, so
// that query tokens are guaranteed comparable to indexed tokens.
package tokenizer

import (
	"strings"

	"github.com/surgebase/porter2"
	"golang.org/x/net/html"

	"github.com/standardbeagle/htmlsearch/internal/types"
)

// Occurrence is one token occurrence found in document order, already
// ASCII-lowercased and Porter-stemmed, carrying the importance weight of
// its innermost enclosing semantic tag.
type Occurrence struct {
	Stem   string
	Weight int
}

// Tokenize parses an HTML document and returns its token occurrences in
// document order. Malformed HTML is handled the same way golang.org/x/net/html
// handles it: best-effort recovery, never an error — tag-weighting degrades
// gracefully to the default weight for anything the parser cannot place.
func Tokenize(htmlBytes []byte) ([]Occurrence, error) {
	doc, err := html.Parse(strings.NewReader(string(htmlBytes)))
	if err != nil {
		return nil, err
	}

	var occs []Occurrence
	var walk func(n *html.Node, weight int)
	walk = func(n *html.Node, weight int) {
		nodeWeight := weight
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style":
				return // not semantic text content
			case "p":
				nodeWeight = types.DefaultTagWeight // <p> carries the baseline weight explicitly
			default:
				if w, ok := types.TagWeight[n.Data]; ok {
					nodeWeight = w
				}
			}
		}
		if n.Type == html.TextNode {
			occs = append(occs, splitAndStem(n.Data, nodeWeight)...)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, nodeWeight)
		}
	}
	walk(doc, types.DefaultTagWeight)

	return occs, nil
}

// TokenizePlain tokenizes a free-text query string as if it were plain text
// under an untagged (default-weight) node.
func TokenizePlain(text string) []Occurrence {
	return splitAndStem(text, types.DefaultTagWeight)
}

// splitAndStem lowercases, splits on non-alphanumeric boundaries, discards
// empty runs, and Porter-stems each resulting word.
func splitAndStem(text string, weight int) []Occurrence {
	var occs []Occurrence
	var b strings.Builder

	flush := func() {
		if b.Len() == 0 {
			return
		}
		word := b.String()
		b.Reset()
		occs = append(occs, Occurrence{Stem: porter2.Stem(word), Weight: weight})
	}

	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r - 'A' + 'a')
		default:
			flush()
		}
	}
	flush()

	return occs
}
