package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document is the structural query surface the extractor works against. A
// Document is either a whole page or one element of it; queries on an
// element only see its descendants.
type Document interface {
	// First returns the first element, in cascade order, whose text is not
	// blank. Earlier selectors always win over later ones.
	First(cascade []string) (Document, bool)

	// All returns every element matched by the first selector of the
	// cascade that matches anything.
	All(cascade []string) []Document

	// Exists reports whether any selector of the cascade matches.
	Exists(cascade []string) bool

	// Text returns the whitespace-collapsed text content. For <meta>
	// elements it returns the content attribute.
	Text() string

	// SpacedText is like Text but separates every text node with a space,
	// so adjacent blocks such as <p>2021</p><p>Authors</p> do not run
	// together. Script and style contents are skipped.
	SpacedText() string

	// Attr returns an attribute value.
	Attr(name string) (string, bool)

	// Tag returns the lower-case element name.
	Tag() string
}

// Selection is a goquery-backed Document.
type Selection struct {
	sel *goquery.Selection
}

// Parse parses an HTML page.
func Parse(body []byte) (*Selection, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Selection{sel: doc.Selection}, nil
}

// First implements Document.
func (s *Selection) First(cascade []string) (Document, bool) {
	for _, selector := range cascade {
		var found *goquery.Selection
		s.sel.Find(selector).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			if textOf(el) != "" {
				found = el
				return false
			}
			return true
		})
		if found != nil {
			return &Selection{sel: found}, true
		}
	}
	return nil, false
}

// All implements Document.
func (s *Selection) All(cascade []string) []Document {
	for _, selector := range cascade {
		matches := s.sel.Find(selector)
		if matches.Length() == 0 {
			continue
		}
		out := make([]Document, 0, matches.Length())
		matches.Each(func(_ int, el *goquery.Selection) {
			out = append(out, &Selection{sel: el})
		})
		return out
	}
	return nil
}

// Exists implements Document.
func (s *Selection) Exists(cascade []string) bool {
	for _, selector := range cascade {
		if s.sel.Find(selector).Length() > 0 {
			return true
		}
	}
	return false
}

// Text implements Document.
func (s *Selection) Text() string {
	return textOf(s.sel)
}

// SpacedText implements Document.
func (s *Selection) SpacedText() string {
	var parts []string
	var walk func(*goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, node *goquery.Selection) {
			switch goquery.NodeName(node) {
			case "#text":
				parts = append(parts, node.Text())
			case "script", "style", "#comment":
			default:
				walk(node)
			}
		})
	}
	walk(s.sel)
	return collapse(strings.Join(parts, " "))
}

// Attr implements Document.
func (s *Selection) Attr(name string) (string, bool) {
	v, ok := s.sel.Attr(name)
	return strings.TrimSpace(v), ok
}

// Tag implements Document.
func (s *Selection) Tag() string {
	return goquery.NodeName(s.sel)
}

func textOf(sel *goquery.Selection) string {
	if goquery.NodeName(sel) == "meta" {
		return collapse(sel.AttrOr("content", ""))
	}
	return collapse(sel.Text())
}

// collapse trims s and folds internal whitespace runs to a single space.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
