package affiliate

import (
	"net/url"
	"strings"
)

// Network identifies a commission program.
type Network string

const (
	NetworkBol          Network = "bol"
	NetworkTradeTracker Network = "tradetracker"
	NetworkDaisycon     Network = "daisycon"
	NetworkAwin         Network = "awin"
	NetworkPayPro       Network = "paypro"
	NetworkPlugPay      Network = "plugpay"
)

type domainEntry struct {
	domain  string
	network Network
}

// Registered retailer domains per network. Order matters: the first suffix
// match wins.
var networkDomains = []domainEntry{
	{"bol.com", NetworkBol},
	{"coolblue.nl", NetworkTradeTracker},
	{"coolblue.be", NetworkTradeTracker},
	{"mediamarkt.nl", NetworkTradeTracker},
	{"expert.nl", NetworkTradeTracker},
	{"bcc.nl", NetworkTradeTracker},
	{"wehkamp.nl", NetworkDaisycon},
	{"fonq.nl", NetworkDaisycon},
	{"blokker.nl", NetworkDaisycon},
	{"leenbakker.nl", NetworkDaisycon},
	{"gamma.nl", NetworkAwin},
	{"karwei.nl", NetworkAwin},
	{"hema.nl", NetworkAwin},
	{"etos.nl", NetworkAwin},
	{"paypro.nl", NetworkPayPro},
	{"plugandpay.nl", NetworkPlugPay},
}

// DetectNetwork maps a product URL to the commission network covering its
// domain. Unknown hosts report false.
func DetectNetwork(rawURL string) (Network, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return "", false
	}

	for _, entry := range networkDomains {
		if host == entry.domain || strings.HasSuffix(host, "."+entry.domain) {
			return entry.network, true
		}
	}

	return "", false
}
