package extract

import (
	"regexp"
	"strings"

	"github.com/helixir/literature-resolution-service/internal/domain"
)

// DefaultMaxListings is how many listings a search page yields by default.
const DefaultMaxListings = 3

var (
	listingTagPattern     = regexp.MustCompile(`^\[(PDF|HTML|BOOK|CITATION)\]\s*`)
	listingAuthorsPattern = regexp.MustCompile(`^(.*?)\s*-\s*`)
	listingJournalPattern = regexp.MustCompile(`-\s*(.*?)\s*,`)
)

// SearchPage is what a scholarly-search page yielded: either a DOI worth
// resolving on the DOI path, or listings to return as they are.
type SearchPage struct {
	DOI      string
	Listings []domain.Record
}

// ExtractSearch parses a search results page once and returns both the first
// DOI it mentions and up to limit listing records. An error is returned only
// when the page has neither.
func (e *Extractor) ExtractSearch(raw *domain.RawDocument, limit int) (SearchPage, error) {
	if raw.IsPDF() {
		return SearchPage{}, domain.NewMalformedError("search page is a pdf")
	}
	doc, err := Parse(raw.Body)
	if err != nil {
		return SearchPage{}, domain.NewMalformedError(err.Error())
	}

	page := SearchPage{DOI: findDOI(doc)}
	if page.DOI != "" {
		return page, nil
	}

	page.Listings = e.listings(doc, raw.URL, limit)
	if len(page.Listings) == 0 {
		return SearchPage{}, domain.NewMalformedError("no search listings found")
	}
	return page, nil
}

func (e *Extractor) listings(doc Document, base string, limit int) []domain.Record {
	if limit <= 0 {
		limit = DefaultMaxListings
	}

	var out []domain.Record
	for _, item := range doc.All(e.cascades.Listing) {
		if len(out) == limit {
			break
		}
		if rec, ok := e.listing(item, base); ok {
			out = append(out, rec)
		}
	}
	return out
}

func (e *Extractor) listing(item Document, base string) (domain.Record, bool) {
	titleEl, ok := item.First(e.cascades.ListingTitle)
	if !ok {
		return domain.Record{}, false
	}

	rec := domain.NewRecord(domain.SourceScholarSearch)
	title := titleEl.Text()
	rec.Title = listingTagPattern.ReplaceAllString(title, "")

	if meta, ok := item.First(e.cascades.ListingMeta); ok {
		text := meta.Text()
		if m := listingAuthorsPattern.FindStringSubmatch(text); m != nil {
			rec.Authors = splitAuthors(m[1])
		}
		if m := listingJournalPattern.FindStringSubmatch(text); m != nil {
			rec.Journal = strings.TrimSpace(m[1])
		}
		rec.Year = findYear(text)
	}
	if len(rec.Authors) == 0 {
		rec.Authors = []string{domain.UnknownAuthor}
	}

	if snippet, ok := item.First(e.cascades.ListingSnippet); ok {
		rec.Abstract = snippet.Text()
	}

	for _, a := range item.All(e.cascades.ListingPDF) {
		if href, _ := a.Attr("href"); href != "" {
			rec.PDFURL = resolveURL(base, href)
			break
		}
	}
	rec.HasPDF = rec.PDFURL != "" || strings.HasPrefix(title, "[PDF]")

	if href := titleHref(titleEl); href != "" {
		rec.URL = resolveURL(base, href)
	}

	return rec.Normalize(), true
}

func titleHref(title Document) string {
	if title.Tag() == "a" {
		href, _ := title.Attr("href")
		return href
	}
	for _, a := range title.All([]string{"a[href]"}) {
		if href, _ := a.Attr("href"); href != "" {
			return href
		}
	}
	return ""
}
