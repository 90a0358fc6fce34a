// Package extract turns raw mirror documents into bibliographic records using
// ordered locator cascades with text-scan fallbacks.
package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dyatlov/go-opengraph/opengraph"

	"github.com/helixir/literature-resolution-service/internal/domain"
	"github.com/helixir/literature-resolution-service/internal/query"
)

// maxLabelBlock is the longest text block the label scans consider; longer
// blocks are containers, not labelled fields.
const maxLabelBlock = 200

var (
	yearPattern          = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	authorLabelPattern   = regexp.MustCompile(`(?i)^(authors?|作者)(\s*[:：]\s*|\s+)`)
	journalLabelPattern  = regexp.MustCompile(`(?i)^(journal|published in|期刊)\s*[:：]\s*`)
	notFoundTitleMarkers = []string{"not found", "page not found", "404"}
	authorLabels         = []string{"author", "作者"}
	journalLabels        = []string{"journal", "published in", "期刊"}
)

// Extractor converts raw documents into records. It holds no mutable state
// and is safe for concurrent use.
type Extractor struct {
	cascades Cascades
}

// New creates an Extractor with the given cascades.
func New(cascades Cascades) *Extractor {
	return &Extractor{cascades: cascades}
}

// Extract builds a record from a document-delivery mirror page. doi is the
// DOI being resolved and may be empty.
//
// A title matching a "not found" sentinel yields an ExtractionError with
// reason not_found; a page where no title locator matches at all yields
// reason malformed.
func (e *Extractor) Extract(raw *domain.RawDocument, doi string) (domain.Record, error) {
	if raw.IsPDF() {
		return e.pdfRecord(raw, doi)
	}

	doc, err := Parse(raw.Body)
	if err != nil {
		return domain.Record{}, domain.NewMalformedError(err.Error())
	}

	title := e.title(doc, raw.Body)
	if title == "" {
		return domain.Record{}, domain.NewMalformedError("no title locator matched")
	}
	if e.isNotFoundTitle(title, raw.Mirror) {
		return domain.Record{}, domain.NewNotFoundError(fmt.Sprintf("title %q", title))
	}

	rec := domain.NewRecord(domain.SourceDOIResolution)
	rec.Title = title
	rec.Authors = e.authors(doc)
	rec.Journal = e.journal(doc)
	rec.Year = e.year(doc, rec.Journal)
	rec.Abstract = e.abstract(doc, raw.Body)
	rec.DOI = doi
	if rec.DOI == "" {
		rec.DOI = findDOI(doc)
	}
	rec.URL = raw.URL
	rec.PDFURL = e.pdfURL(doc, raw.URL)
	rec.HasPDF = doc.Exists(e.cascades.PDFIndicators) || rec.PDFURL != ""

	return rec.Normalize(), nil
}

// pdfRecord handles mirrors that answer with the PDF itself.
func (e *Extractor) pdfRecord(raw *domain.RawDocument, doi string) (domain.Record, error) {
	if doi == "" {
		return domain.Record{}, domain.NewMalformedError("pdf payload without a DOI")
	}
	rec := domain.NewRecord(domain.SourceDOIResolution)
	rec.Title = "Paper-" + doi
	rec.Authors = []string{domain.UnknownAuthor}
	rec.DOI = doi
	rec.URL = raw.URL
	rec.PDFURL = raw.URL
	rec.HasPDF = true
	return rec.Normalize(), nil
}

func (e *Extractor) title(doc Document, body []byte) string {
	if el, ok := doc.First(e.cascades.Title); ok {
		return el.Text()
	}
	og := opengraph.NewOpenGraph()
	if err := og.ProcessHTML(bytes.NewReader(body)); err == nil {
		return collapse(og.Title)
	}
	return ""
}

func (e *Extractor) isNotFoundTitle(title, mirror string) bool {
	lower := strings.ToLower(title)
	for _, brand := range e.cascades.Brands {
		if lower == brand {
			return true
		}
	}
	if mirror != "" && lower == strings.ToLower(mirror) {
		return true
	}
	for _, marker := range notFoundTitleMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func (e *Extractor) authors(doc Document) []string {
	if el, ok := doc.First(e.cascades.Authors); ok {
		if authors := splitAuthors(el.Text()); len(authors) > 0 {
			return authors
		}
	}

	var metas []string
	for _, el := range doc.All(e.cascades.AuthorMeta) {
		if name := el.Text(); name != "" {
			metas = append(metas, name)
		}
	}
	if len(metas) > 0 {
		return metas
	}

	if text := e.labelledBlock(doc, authorLabelPattern, authorLabels); text != "" {
		if authors := splitAuthors(text); len(authors) > 0 {
			return authors
		}
	}

	return []string{domain.UnknownAuthor}
}

func (e *Extractor) journal(doc Document) string {
	if el, ok := doc.First(e.cascades.Journal); ok {
		return el.Text()
	}
	return e.labelledBlock(doc, journalLabelPattern, journalLabels)
}

// labelledBlock scans short text blocks for a field label. Blocks that start
// with the label are preferred over blocks that merely mention it, so that a
// container wrapping the labelled line does not win. The label is stripped
// from the returned text.
func (e *Extractor) labelledBlock(doc Document, label *regexp.Regexp, mentions []string) string {
	blocks := doc.All(e.cascades.TextBlocks)

	for _, el := range blocks {
		text := el.Text()
		if utf8.RuneCountInString(text) < maxLabelBlock && label.MatchString(text) {
			if stripped := label.ReplaceAllString(text, ""); stripped != "" {
				return stripped
			}
		}
	}
	for _, el := range blocks {
		text := el.Text()
		if utf8.RuneCountInString(text) < maxLabelBlock && containsAny(strings.ToLower(text), mentions) {
			if stripped := label.ReplaceAllString(text, ""); stripped != "" {
				return stripped
			}
		}
	}
	return ""
}

func (e *Extractor) year(doc Document, journal string) int {
	if y := findYear(journal); y != 0 {
		return y
	}
	if body, ok := doc.First([]string{"body"}); ok {
		return findYear(body.SpacedText())
	}
	return findYear(doc.SpacedText())
}

func (e *Extractor) abstract(doc Document, body []byte) string {
	if el, ok := doc.First(e.cascades.Abstract); ok {
		return el.Text()
	}
	og := opengraph.NewOpenGraph()
	if err := og.ProcessHTML(bytes.NewReader(body)); err == nil {
		return collapse(og.Description)
	}
	return ""
}

func (e *Extractor) pdfURL(doc Document, base string) string {
	for _, selector := range e.cascades.PDFSources {
		for _, el := range doc.All([]string{selector}) {
			for _, attr := range []string{"src", "href", "data"} {
				if v, ok := el.Attr(attr); ok && v != "" {
					return resolveURL(base, v)
				}
			}
		}
	}
	return ""
}

func findDOI(doc Document) string {
	for _, a := range doc.All([]string{"a[href]"}) {
		href, _ := a.Attr("href")
		if doi := query.FindLinkDOI(href); doi != "" {
			return doi
		}
	}
	return query.FindLinkDOI(doc.SpacedText())
}

func findYear(s string) int {
	m := yearPattern.FindString(s)
	if m == "" {
		return 0
	}
	y, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return y
}

// splitAuthors strips an "Authors:" style label and splits on commas.
func splitAuthors(text string) []string {
	text = authorLabelPattern.ReplaceAllString(text, "")
	var out []string
	for _, part := range strings.Split(text, ",") {
		if part = strings.TrimSpace(part); part != "" && part != "…" && part != "..." {
			out = append(out, part)
		}
	}
	return out
}

// resolveURL makes ref absolute against base. Protocol-relative links are
// pinned to https.
func resolveURL(base, ref string) string {
	if strings.HasPrefix(ref, "//") {
		return "https:" + ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if r.IsAbs() {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil || !b.IsAbs() {
		return ref
	}
	return b.ResolveReference(r).String()
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
