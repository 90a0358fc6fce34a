// Package query classifies raw resolution input into the DOI or free-text path.
package query

import (
	"regexp"
	"strings"

	"github.com/helixir/literature-resolution-service/internal/domain"
)

// doiPattern matches a DOI anywhere in a string: "10.<registrant>/<suffix>",
// where the suffix excludes whitespace, quotes, angle brackets and ampersands.
var doiPattern = regexp.MustCompile(`10\.\d{4,9}(?:\.\d+)*/[^\s"'&<>]+`)

// linkDOIPattern is the stricter form used when scanning hrefs and page text,
// where query strings and fragments terminate the DOI.
var linkDOIPattern = regexp.MustCompile(`10\.\d{4,9}(?:\.\d+)*/[^\s"'&<>#?]+`)

// trailingPunct is stripped from a matched DOI; sentences end with these.
const trailingPunct = ".,;:"

// Classify determines whether raw is a DOI or a free-text title query.
// The author is only used on the free-text path. Classify performs no I/O
// and always returns the same result for the same input.
func Classify(raw, author string) domain.Query {
	raw = strings.TrimSpace(raw)
	author = strings.TrimSpace(author)

	if doi := FindDOI(raw); doi != "" {
		return domain.Query{
			Kind: domain.QueryKindDOI,
			Raw:  raw,
			DOI:  doi,
		}
	}

	return domain.Query{
		Kind:   domain.QueryKindFreeText,
		Raw:    raw,
		Title:  raw,
		Author: author,
	}
}

// IsDOI reports whether s contains a DOI-shaped substring.
func IsDOI(s string) bool {
	return FindDOI(s) != ""
}

// FindDOI returns the first DOI in s, or "" if there is none.
func FindDOI(s string) string {
	return clean(doiPattern.FindString(s))
}

// FindLinkDOI returns the first DOI in an href or page text, stopping at
// query strings and fragments.
func FindLinkDOI(s string) string {
	return clean(linkDOIPattern.FindString(s))
}

func clean(doi string) string {
	return strings.TrimRight(doi, trailingPunct)
}
