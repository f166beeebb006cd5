package scraper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/productpraat/productpraat/internal/models"
)

// PageParser extracts product fields from retailer HTML. Retailer-specific
// selectors are tried first, generic og:/meta fallbacks last.
type PageParser struct {
	pricePatterns []*regexp.Regexp
}

func NewPageParser() *PageParser {
	return &PageParser{
		pricePatterns: []*regexp.Regexp{
			regexp.MustCompile(`€\s*(\d{1,3}(?:\.\d{3})*(?:,\d{1,2})?)`),
			regexp.MustCompile(`EUR\s*(\d{1,3}(?:\.\d{3})*(?:,\d{1,2})?)`),
			regexp.MustCompile(`(\d+),(\d{2})\s*€`),
		},
	}
}

var titleSelectors = []string{
	`h1[data-test="title"]`,            // bol.com
	`h1.name-track-item`,               // coolblue
	`h1[itemprop="name"]`,
	`h1.product-title`,
	`h1`,
}

var descriptionSelectors = []string{
	`div[data-test="description"]`,
	`div.product-description`,
	`div[itemprop="description"]`,
	`section.js-description`,
}

var priceSelectors = []string{
	`span[data-test="price"]`,
	`strong.sales-price__current`,
	`span[itemprop="price"]`,
	`.product-price`,
	`.price`,
}

var brandSelectors = []string{
	`a[data-test="brand"]`,
	`span[itemprop="brand"]`,
	`.product-brand`,
}

// ParsePage parses retailer product HTML into a Product record.
func (p *PageParser) ParsePage(html, rawURL string) (*models.Product, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	product := &models.Product{
		URL:    rawURL,
		Status: models.ProductStatusScraped,
	}

	product.Title = p.extractTitle(doc)
	if product.Title == "" {
		return nil, fmt.Errorf("no product title found in page")
	}
	product.Slug = models.Slugify(product.Title)
	product.Description = p.extractDescription(doc)
	product.Brand = p.extractBrand(doc)
	product.Images = p.extractImages(doc)

	if price, err := p.ExtractPrice(doc); err == nil {
		product.Price = price
	}

	return product, nil
}

func (p *PageParser) extractTitle(doc *goquery.Document) string {
	for _, sel := range titleSelectors {
		if text := clean(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		return clean(og)
	}
	return clean(doc.Find("title").Text())
}

func (p *PageParser) extractDescription(doc *goquery.Document) string {
	for _, sel := range descriptionSelectors {
		if text := clean(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	if og, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
		return clean(og)
	}
	if meta, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		return clean(meta)
	}
	return ""
}

func (p *PageParser) extractBrand(doc *goquery.Document) string {
	for _, sel := range brandSelectors {
		if text := clean(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func (p *PageParser) extractImages(doc *goquery.Document) []string {
	images := make([]string, 0, 4)
	seen := make(map[string]bool)

	add := func(src string) {
		if src == "" || seen[src] || !strings.HasPrefix(src, "http") {
			return
		}
		seen[src] = true
		images = append(images, src)
	}

	if og, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok {
		add(og)
	}

	doc.Find(`img[data-test="product-image"], .product-image img, img[itemprop="image"]`).
		Each(func(_ int, s *goquery.Selection) {
			if src, ok := s.Attr("src"); ok {
				add(src)
			}
		})

	if len(images) > 8 {
		images = images[:8]
	}
	return images
}

// ExtractPrice finds the product price, handling Dutch formats like
// "€ 1.234,99".
func (p *PageParser) ExtractPrice(doc *goquery.Document) (*models.Price, error) {
	for _, sel := range priceSelectors {
		text := clean(doc.Find(sel).First().Text())
		if text == "" {
			continue
		}
		if amount, ok := ParseDutchPrice(text); ok {
			return &models.Price{Amount: amount, Currency: "EUR"}, nil
		}
	}

	for _, pattern := range p.pricePatterns {
		matches := pattern.FindStringSubmatch(doc.Text())
		if len(matches) >= 2 {
			if amount, ok := ParseDutchPrice(matches[1]); ok {
				return &models.Price{Amount: amount, Currency: "EUR"}, nil
			}
		}
	}

	return nil, fmt.Errorf("price not found")
}

// Alternatives ordered so "1.234,99" and "89,99" win over a bare integer
// prefix match.
var priceAmount = regexp.MustCompile(`\d{1,3}(?:\.\d{3})+(?:,\d{1,2})?|\d+,\d{1,2}|\d+(?:\.\d{1,2})?`)

// ParseDutchPrice parses "1.234,99", "89,99", "€ 49,-" and plain "49.99"
// style amounts.
func ParseDutchPrice(text string) (float64, bool) {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "€")
	s = strings.TrimPrefix(s, "EUR")
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ",-")

	s = priceAmount.FindString(s)
	if s == "" {
		return 0, false
	}

	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")

	switch {
	case hasComma:
		// Dutch: dots are thousands separators, comma is the decimal mark.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case hasDot:
		// A dot followed by exactly 3 digits is a thousands separator.
		parts := strings.Split(s, ".")
		if len(parts[len(parts)-1]) == 3 {
			s = strings.Join(parts, "")
		}
	}

	amount, err := strconv.ParseFloat(s, 64)
	if err != nil || amount < 0 {
		return 0, false
	}
	return amount, true
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
