package extract

// Cascades holds the ordered locator lists used for each field.
type Cascades struct {
	Title         []string
	Authors       []string
	AuthorMeta    []string
	Journal       []string
	Abstract      []string
	PDFIndicators []string
	PDFSources    []string
	TextBlocks    []string

	Listing        []string
	ListingTitle   []string
	ListingMeta    []string
	ListingSnippet []string
	ListingPDF     []string

	// Brands are page titles that mean the mirror served its own landing
	// page instead of the article.
	Brands []string
}

// DefaultCascades returns the locator lists known to work across the
// compiled-in mirror families.
func DefaultCascades() Cascades {
	return Cascades{
		Title: []string{
			"#citation .sci-hub-title",
			".sci-hub-title",
			"#article-title",
			"h1.title",
			`meta[name="citation_title"]`,
			"title",
			"h1",
		},
		Authors: []string{
			"#citation .sci-hub-authors",
			".sci-hub-authors",
			"#authors",
			".authors",
			`[itemprop="author"]`,
			".paper-meta",
			".author-list",
			".article-authors",
		},
		AuthorMeta: []string{
			`meta[name="citation_author"]`,
		},
		Journal: []string{
			"#citation .sci-hub-journal",
			".sci-hub-journal",
			".journal",
			`[itemprop="isPartOf"]`,
			".paper-journal",
			".publication-title",
			".article-source",
			`meta[name="citation_journal_title"]`,
			".journal-name",
			".publication-info",
			".paper-meta-journal",
		},
		Abstract: []string{
			"#abstract",
			".abstract",
			`meta[name="citation_abstract"]`,
		},
		PDFIndicators: []string{
			"#pdf",
			`iframe[src*=".pdf"]`,
			`embed[type*="pdf"]`,
			`object[type*="pdf"]`,
		},
		PDFSources: []string{
			"embed#pdf",
			"iframe#pdf",
			`iframe[src*=".pdf"]`,
			`embed[type*="pdf"]`,
			`a[href$=".pdf"]`,
		},
		TextBlocks: []string{"p, div, span, li"},

		Listing: []string{
			".gs_r.gs_or.gs_scl",
			".result-container",
			"div[data-aid]",
			".paper-container",
			".search-result",
			"article",
			".gs_ri",
		},
		ListingTitle: []string{
			".gs_rt",
			".title",
			"h3",
			"h4",
			`a[data-clk="hl"]`,
		},
		ListingMeta: []string{
			".gs_a",
			".author",
			".gs_gray",
			".meta",
		},
		ListingSnippet: []string{
			".gs_rs",
			".abstract",
			".snippet",
			".gs_fl",
		},
		ListingPDF: []string{
			".gs_or_ggsm a",
			".gs_ggs a",
			`a[href$=".pdf"]`,
		},

		Brands: []string{"sci-hub", "sci hub", "scihub"},
	}
}
