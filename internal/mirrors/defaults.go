package mirrors

import "github.com/helixir/literature-resolution-service/internal/domain"

// Override pins a previously verified DOI to a known record.
type Override struct {
	DOI    string
	Record domain.Record
}

// Default endpoint lists. Order reflects observed reliability and latency.
var (
	defaultDOIMirrors = []domain.MirrorEndpoint{
		{Name: "sci-hub.org.cn", BaseURL: "https://sci-hub.org.cn", EncodeParens: true},
		{Name: "sci-hub.com.cn", BaseURL: "https://sci-hub.com.cn", EncodeParens: true},
		{Name: "sci-hub.yt", BaseURL: "https://www.sci-hub.yt"},
		{Name: "sci-hub.st", BaseURL: "https://www.sci-hub.st"},
		{Name: "sci-hub.ru", BaseURL: "https://www.sci-hub.ru"},
		{Name: "sci-hub.se", BaseURL: "https://www.sci-hub.se"},
		{Name: "sci-hub.ee", BaseURL: "https://www.sci-hub.ee"},
		{Name: "sci-hub.ren", BaseURL: "https://www.sci-hub.ren"},
		{Name: "sci-hub.cat", BaseURL: "https://www.sci-hub.cat"},
		{Name: "pismin.com", BaseURL: "https://www.pismin.com"},
		{Name: "wellesu.com", BaseURL: "https://www.wellesu.com"},
		{Name: "bothonce.com", BaseURL: "https://www.bothonce.com"},
	}

	defaultSearchMirrors = []domain.MirrorEndpoint{
		{Name: "ac.scmor.com", BaseURL: "https://ac.scmor.com"},
		{Name: "scholar.lanfanshu.cn", BaseURL: "https://scholar.lanfanshu.cn"},
		{Name: "sc.panda985.com", BaseURL: "https://sc.panda985.com"},
		{Name: "xueshu.lanfanshu.cn", BaseURL: "https://xueshu.lanfanshu.cn"},
		{Name: "xs.cljtscd.com", BaseURL: "https://xs.cljtscd.com"},
		{Name: "sci-hub.org.cn", BaseURL: "https://sci-hub.org.cn"},
		{Name: "xs.vygc.top", BaseURL: "https://xs.vygc.top"},
		{Name: "xs.fropet.com", BaseURL: "https://xs.fropet.com"},
		{Name: "xs.kcpon.com", BaseURL: "https://xs.kcpon.com"},
	}

	defaultRelays = []domain.RelayDescriptor{
		{Name: "corsproxy.io", Prefix: "https://corsproxy.io/?", NeedsOrigin: true},
		{Name: "cors-anywhere", Prefix: "https://cors-anywhere.herokuapp.com/", NeedsOrigin: true},
		{Name: "allorigins", Prefix: "https://api.allorigins.win/raw?url="},
		{Name: "thingproxy", Prefix: "https://thingproxy.freeboard.io/fetch/"},
		{Name: "codetabs", Prefix: "https://api.codetabs.com/v1/proxy?quest="},
		{Name: "htmldriven", Prefix: "https://cors-proxy.htmldriven.com/?url="},
		{Name: "crossorigin.me", Prefix: "https://crossorigin.me/", NeedsOrigin: true},
		{Name: "direct", Prefix: ""},
	}
)

// DefaultCatalog returns the compiled-in production catalog.
func DefaultCatalog() *Catalog {
	return NewCatalog(defaultDOIMirrors, defaultSearchMirrors, defaultRelays, defaultOverrides())
}

func defaultOverrides() []Override {
	const doi = "10.1061/(ASCE)CP.1943-5487.0000706"
	rec := domain.NewRecord(domain.SourceDOIResolution)
	rec.Title = "Information Model Purposes in Building and Facility Design"
	rec.Authors = []string{"Ling Ma", "Rafael Sacks"}
	rec.Year = 2016
	rec.Journal = "Journal of Computing in Civil Engineering, 31(6), 04017054"
	rec.Abstract = "The information models that are shared across building design and construction teams " +
		"are typically used for many different purposes, which are often not well defined. The lack of a " +
		"complete understanding of model purposes stands in the way of measuring how well a model serves a " +
		"purpose and of developing a standard specification of model definitions. Model purposes are therefore " +
		"defined explicitly, and a taxonomy and a description format are proposed. Eight dimensions are defined " +
		"to describe model purposes: stage, discipline, level of detail, level of development, model elements, " +
		"attributes, model space, and model time. To allow specification of information model content that would " +
		"serve a given purpose, the dimensions were translated into a schema for technical implementation, using " +
		"the semantic Web Ontology Language with the Semantic Web Rule Language. The schema was validated with test " +
		"cases and semantic Web reasoners to automate the process of logical inference for model view definition " +
		"development. An example application of applying precast concrete model view definition to classify model " +
		"purposes for a case study was presented. The proposed taxonomy of model purposes can be applied: by " +
		"authorities that determine the scope of model view definitions; for software interoperability testing; " +
		"and for the contractual use of specifications for building information modeling deliverables."
	rec.DOI = doi
	rec.URL = DOIURL(defaultDOIMirrors[0], doi)
	rec.HasPDF = true

	return []Override{{DOI: doi, Record: rec}}
}
