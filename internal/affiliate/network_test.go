package affiliate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectNetwork(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected Network
		found    bool
	}{
		{
			name:     "bol.com product page",
			url:      "https://www.bol.com/nl/nl/p/koptelefoon/9300000012345/",
			expected: NetworkBol,
			found:    true,
		},
		{
			name:     "bol.com without www",
			url:      "https://bol.com/nl/nl/p/iets/123/",
			expected: NetworkBol,
			found:    true,
		},
		{
			name:     "coolblue maps to tradetracker",
			url:      "https://www.coolblue.nl/product/826512/airfryer.html",
			expected: NetworkTradeTracker,
			found:    true,
		},
		{
			name:     "wehkamp maps to daisycon",
			url:      "https://www.wehkamp.nl/artikel/123",
			expected: NetworkDaisycon,
			found:    true,
		},
		{
			name:     "gamma maps to awin",
			url:      "https://www.gamma.nl/assortiment/p/boormachine",
			expected: NetworkAwin,
			found:    true,
		},
		{
			name:     "subdomain still matches",
			url:      "https://shop.mediamarkt.nl/product/1",
			expected: NetworkTradeTracker,
			found:    true,
		},
		{
			name:  "unknown host",
			url:   "https://www.amazon.de/dp/B000000000",
			found: false,
		},
		{
			name:  "lookalike domain does not match",
			url:   "https://notbol.com/p/1",
			found: false,
		},
		{
			name:  "empty string",
			url:   "",
			found: false,
		},
		{
			name:  "garbage input",
			url:   "://nope",
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			network, found := DetectNetwork(tt.url)
			assert.Equal(t, tt.found, found)
			if tt.found {
				assert.Equal(t, tt.expected, network)
			}
		})
	}
}
