package mirrors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/literature-resolution-service/internal/domain"
)

func TestDefaultCatalog_Order(t *testing.T) {
	c := DefaultCatalog()

	doi := c.DOIMirrors()
	require.Len(t, doi, 12)
	assert.Equal(t, "https://sci-hub.org.cn", doi[0].BaseURL)
	assert.Equal(t, "https://sci-hub.com.cn", doi[1].BaseURL)
	assert.Equal(t, "https://www.bothonce.com", doi[11].BaseURL)
	for _, m := range doi {
		assert.Equal(t, domain.RegistryDOI, m.Registry)
	}

	search := c.SearchMirrors()
	require.Len(t, search, 9)
	assert.Equal(t, "https://ac.scmor.com", search[0].BaseURL)
	assert.Equal(t, domain.RegistrySearch, search[0].Registry)

	relays := c.Relays()
	require.Len(t, relays, 8)
	assert.Equal(t, "corsproxy.io", relays[0].Name)
	assert.True(t, relays[len(relays)-1].IsDirect(), "direct relay is tried last")
}

func TestCatalog_ReturnsCopies(t *testing.T) {
	c := DefaultCatalog()

	mirrors := c.DOIMirrors()
	mirrors[0].BaseURL = "https://evil.example"
	relays := c.Relays()
	relays[0].Prefix = "mutated"

	assert.Equal(t, "https://sci-hub.org.cn", c.DOIMirrors()[0].BaseURL)
	assert.Equal(t, "https://corsproxy.io/?", c.Relays()[0].Prefix)
}

func TestNewCatalog_CopiesInput(t *testing.T) {
	doi := []domain.MirrorEndpoint{{Name: "a", BaseURL: "https://a.example/"}}
	c := NewCatalog(doi, nil, nil, nil)
	doi[0].BaseURL = "https://changed.example"

	got := c.DOIMirrors()
	require.Len(t, got, 1)
	assert.Equal(t, "https://a.example", got[0].BaseURL, "trailing slash trimmed, input not aliased")
}

func TestCatalog_MirrorsFor(t *testing.T) {
	c := DefaultCatalog()
	assert.Len(t, c.MirrorsFor(domain.RegistryDOI), 12)
	assert.Len(t, c.MirrorsFor(domain.RegistrySearch), 9)
	assert.Nil(t, c.MirrorsFor("other"))
}

func TestDOIURL(t *testing.T) {
	const doi = "10.1061/(ASCE)CP.1943-5487.0000706"

	encoding := domain.MirrorEndpoint{BaseURL: "https://sci-hub.org.cn", EncodeParens: true}
	assert.Equal(t, "https://sci-hub.org.cn/10.1061/%28ASCE%29CP.1943-5487.0000706", DOIURL(encoding, doi))

	plain := domain.MirrorEndpoint{BaseURL: "https://www.sci-hub.se"}
	assert.Equal(t, "https://www.sci-hub.se/"+doi, DOIURL(plain, doi))
}

func TestSearchURL(t *testing.T) {
	m := domain.MirrorEndpoint{BaseURL: "https://xueshu.lanfanshu.cn"}
	assert.Equal(t, "https://xueshu.lanfanshu.cn/scholar?q=deep+learning+LeCun", SearchURL(m, "deep learning LeCun"))
}

func TestWrap(t *testing.T) {
	target := "https://www.sci-hub.se/10.1/x"
	assert.Equal(t, "https://api.allorigins.win/raw?url="+target,
		Wrap(domain.RelayDescriptor{Prefix: "https://api.allorigins.win/raw?url="}, target))
	assert.Equal(t, target, Wrap(domain.RelayDescriptor{Name: "direct"}, target))
	assert.Equal(t, target, Wrap(domain.RelayDescriptor{Name: "unnamed"}, target), "no prefix means no relaying")
}

func TestCatalog_DirectLinks(t *testing.T) {
	c := DefaultCatalog()
	links := c.DirectLinks("10.1000/xyz123")

	require.Len(t, links, 12)
	assert.Equal(t, "https://sci-hub.org.cn/10.1000/xyz123", links[0])
	assert.Equal(t, "https://www.bothonce.com/10.1000/xyz123", links[11])
}

func TestCatalog_SearchLinks(t *testing.T) {
	c := DefaultCatalog()
	links := c.SearchLinks("graph")
	require.Len(t, links, 9)
	assert.Equal(t, "https://ac.scmor.com/scholar?q=graph", links[0])
}

func TestCatalog_Override(t *testing.T) {
	c := DefaultCatalog()

	t.Run("exact match", func(t *testing.T) {
		a, ok := c.Override("10.1061/(ASCE)CP.1943-5487.0000706")
		require.True(t, ok)
		assert.Equal(t, "Information Model Purposes in Building and Facility Design", a.Title)
		assert.Equal(t, []string{"Ling Ma", "Rafael Sacks"}, a.Authors)
		assert.Equal(t, 2016, a.Year)
		assert.True(t, a.HasPDF)
		assert.Equal(t, domain.SourceDOIResolution, a.Source)

		b, _ := c.Override("10.1061/(ASCE)CP.1943-5487.0000706")
		assert.NotEqual(t, a.ID, b.ID)

		a.Authors[0] = "mutated"
		c2, _ := c.Override("10.1061/(ASCE)CP.1943-5487.0000706")
		assert.Equal(t, "Ling Ma", c2.Authors[0])
	})

	t.Run("no partial or case-insensitive match", func(t *testing.T) {
		_, ok := c.Override("10.1061/(asce)cp.1943-5487.0000706")
		assert.False(t, ok)
		_, ok = c.Override("10.1061/(ASCE)CP.1943-5487")
		assert.False(t, ok)
	})
}
