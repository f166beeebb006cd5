package affiliate

import (
	"fmt"
	"net/url"

	"github.com/productpraat/productpraat/internal/config"
)

// Generator builds tracking URLs for the configured networks. A network
// without credentials passes the original URL through unchanged.
type Generator struct {
	creds config.AffiliateConfig
}

func NewGenerator(creds config.AffiliateConfig) *Generator {
	return &Generator{creds: creds}
}

// Link returns the tracked affiliate URL for a product URL. The returned
// network is empty when no network matched.
func (g *Generator) Link(rawURL, name string) (string, Network) {
	network, ok := DetectNetwork(rawURL)
	if !ok {
		return rawURL, ""
	}

	switch network {
	case NetworkBol:
		if g.creds.BolSiteCode == "" {
			return rawURL, network
		}
		if name == "" {
			name = "Product"
		}
		return fmt.Sprintf(
			"https://partner.bol.com/click/click?p=2&t=url&s=%s&f=TXL&url=%s&name=%s",
			url.QueryEscape(g.creds.BolSiteCode),
			url.QueryEscape(rawURL),
			url.QueryEscape(name),
		), network

	case NetworkTradeTracker:
		if g.creds.TradeTrackerID == "" {
			return rawURL, network
		}
		return fmt.Sprintf(
			"https://tc.tradetracker.net/?c=%s&m=12&a=%s&u=%s",
			url.QueryEscape(g.creds.TradeTrackerID),
			url.QueryEscape(g.creds.TradeTrackerID),
			url.QueryEscape(rawURL),
		), network

	case NetworkDaisycon:
		if g.creds.DaisyconID == "" {
			return rawURL, network
		}
		return fmt.Sprintf(
			"https://ds1.nl/c/?si=%s&dl=%s",
			url.QueryEscape(g.creds.DaisyconID),
			url.QueryEscape(rawURL),
		), network

	case NetworkAwin:
		if g.creds.AwinID == "" {
			return rawURL, network
		}
		return fmt.Sprintf(
			"https://www.awin1.com/cread.php?awinaffid=%s&ued=%s",
			url.QueryEscape(g.creds.AwinID),
			url.QueryEscape(rawURL),
		), network

	case NetworkPayPro:
		if g.creds.PayProID == "" {
			return rawURL, network
		}
		return appendRef(rawURL, g.creds.PayProID), network

	case NetworkPlugPay:
		if g.creds.PlugPayID == "" {
			return rawURL, network
		}
		return appendRef(rawURL, g.creds.PlugPayID), network
	}

	return rawURL, network
}

// appendRef adds a ref query parameter, preserving existing parameters.
func appendRef(rawURL, ref string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set("ref", ref)
	u.RawQuery = q.Encode()
	return u.String()
}
