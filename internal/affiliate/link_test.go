package affiliate

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/productpraat/productpraat/internal/config"
)

func TestGeneratorLink_NoCredentials(t *testing.T) {
	gen := NewGenerator(config.AffiliateConfig{})

	tests := []string{
		"https://www.bol.com/nl/nl/p/koptelefoon/9300000012345/",
		"https://www.coolblue.nl/product/826512/airfryer.html",
		"https://www.wehkamp.nl/artikel/123",
		"https://onbekende-winkel.nl/p/1",
	}

	for _, raw := range tests {
		link, _ := gen.Link(raw, "Product")
		assert.Equal(t, raw, link, "without credentials the URL must pass through unchanged")
	}
}

func TestGeneratorLink_Bol(t *testing.T) {
	gen := NewGenerator(config.AffiliateConfig{BolSiteCode: "12345"})

	link, network := gen.Link("https://www.bol.com/nl/nl/p/koptelefoon/9300000012345/", "Sony WH-1000XM5")
	assert.Equal(t, NetworkBol, network)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "partner.bol.com", u.Hostname())
	assert.Equal(t, "/click/click", u.Path)

	q := u.Query()
	assert.Equal(t, "2", q.Get("p"))
	assert.Equal(t, "url", q.Get("t"))
	assert.Equal(t, "12345", q.Get("s"))
	assert.Equal(t, "TXL", q.Get("f"))
	assert.Equal(t, "https://www.bol.com/nl/nl/p/koptelefoon/9300000012345/", q.Get("url"))
	assert.Equal(t, "Sony WH-1000XM5", q.Get("name"))
}

func TestGeneratorLink_BolDefaultName(t *testing.T) {
	gen := NewGenerator(config.AffiliateConfig{BolSiteCode: "12345"})

	link, _ := gen.Link("https://www.bol.com/nl/nl/p/x/1/", "")

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "Product", u.Query().Get("name"))
}

func TestGeneratorLink_Deterministic(t *testing.T) {
	gen := NewGenerator(config.AffiliateConfig{
		BolSiteCode:    "12345",
		TradeTrackerID: "998877",
		DaisyconID:     "55",
		AwinID:         "4242",
	})

	first, _ := gen.Link("https://www.coolblue.nl/product/826512/airfryer.html", "Airfryer")
	second, _ := gen.Link("https://www.coolblue.nl/product/826512/airfryer.html", "Airfryer")
	assert.Equal(t, first, second)
}

func TestGeneratorLink_Daisycon(t *testing.T) {
	gen := NewGenerator(config.AffiliateConfig{DaisyconID: "55"})

	link, network := gen.Link("https://www.wehkamp.nl/artikel/123", "Iets")
	assert.Equal(t, NetworkDaisycon, network)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "ds1.nl", u.Hostname())
	assert.Equal(t, "55", u.Query().Get("si"))
	assert.Equal(t, "https://www.wehkamp.nl/artikel/123", u.Query().Get("dl"))
}

func TestGeneratorLink_PayProRef(t *testing.T) {
	gen := NewGenerator(config.AffiliateConfig{PayProID: "pp-9"})

	link, network := gen.Link("https://paypro.nl/checkout/abc?variant=2", "x")
	assert.Equal(t, NetworkPayPro, network)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "pp-9", u.Query().Get("ref"))
	assert.Equal(t, "2", u.Query().Get("variant"), "existing query parameters are preserved")
}

func TestGeneratorLink_UnknownNetwork(t *testing.T) {
	gen := NewGenerator(config.AffiliateConfig{BolSiteCode: "12345"})

	link, network := gen.Link("https://www.amazon.de/dp/B0", "x")
	assert.Equal(t, Network(""), network)
	assert.Equal(t, "https://www.amazon.de/dp/B0", link)
}
