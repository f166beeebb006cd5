package automation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseURLsFromText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "mixed lines keep only urls in order",
			text: "https://www.bol.com/x\nnot a url\nhttps://coolblue.nl/y",
			want: []string{
				"https://www.bol.com/x",
				"https://coolblue.nl/y",
			},
		},
		{
			name: "whitespace and blank lines",
			text: "  https://www.bol.com/p/1  \n\n\t\nhttps://www.bol.com/p/2",
			want: []string{"https://www.bol.com/p/1", "https://www.bol.com/p/2"},
		},
		{
			name: "non http schemes dropped",
			text: "ftp://example.com/file\njavascript:alert(1)\nhttps://www.bol.com/p/1",
			want: []string{"https://www.bol.com/p/1"},
		},
		{
			name: "relative paths dropped",
			text: "/nl/p/product/123\nwww.bol.com/p/1",
			want: nil,
		},
		{
			name: "duplicates kept once",
			text: "https://www.bol.com/p/1\nhttps://www.bol.com/p/1",
			want: []string{"https://www.bol.com/p/1"},
		},
		{
			name: "empty input",
			text: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseURLsFromText(tt.text))
		})
	}
}
