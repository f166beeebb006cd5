package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/productpraat/productpraat/internal/models"
)

const reviewSystemPrompt = `Je bent een Nederlandse productrecensent voor ProductPraat.nl.
Je schrijft eerlijke, informatieve reviews in het Nederlands voor consumenten.
Antwoord uitsluitend met een JSON-object met de velden:
"summary" (2-3 zinnen), "pros" (lijst), "cons" (lijst),
"verdict" (1-2 zinnen) en "rating" (getal van 0 tot 10).`

// Reviewer synthesizes Dutch product reviews from scraped product data.
type Reviewer struct {
	client *Client
	router *Router
	logger *slog.Logger
}

func NewReviewer(client *Client, router *Router, logger *slog.Logger) *Reviewer {
	return &Reviewer{
		client: client,
		router: router,
		logger: logger.With("component", "reviewer"),
	}
}

// GenerateReview produces a review for a scraped product.
func (r *Reviewer) GenerateReview(ctx context.Context, product *models.Product) (*models.Review, error) {
	if !r.client.Configured() {
		return nil, fmt.Errorf("llm client not configured")
	}

	model := r.router.Select(TaskReview, 0.6)

	content, err := r.client.Complete(ctx, model, []Message{
		{Role: "system", Content: reviewSystemPrompt},
		{Role: "user", Content: buildReviewPrompt(product)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate review: %w", err)
	}

	review, err := ExtractReview(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse review for %q: %w", product.Title, err)
	}

	if errs := review.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("generated review invalid: %s", strings.Join(errs, "; "))
	}

	r.logger.Debug("review generated", "product", product.Title, "rating", review.Rating)

	return review, nil
}

func buildReviewPrompt(p *models.Product) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Schrijf een review voor dit product:\n\nTitel: %s\n", p.Title)
	if p.Brand != "" {
		fmt.Fprintf(&b, "Merk: %s\n", p.Brand)
	}
	if p.Category != "" {
		fmt.Fprintf(&b, "Categorie: %s\n", p.Category)
	}
	if p.Price != nil {
		fmt.Fprintf(&b, "Prijs: €%.2f\n", p.Price.Amount)
	}
	if p.Rating > 0 {
		fmt.Fprintf(&b, "Gemiddelde klantbeoordeling: %.1f/5\n", p.Rating)
	}
	if p.Description != "" {
		fmt.Fprintf(&b, "\nOmschrijving:\n%s\n", p.Description)
	}

	return b.String()
}

// ExtractReview pulls the first JSON object out of a completion and decodes
// it. Models wrap JSON in prose or code fences often enough that plain
// unmarshal of the whole text is not reliable.
func ExtractReview(text string) (*models.Review, error) {
	raw, err := firstJSONObject(text)
	if err != nil {
		return nil, err
	}

	var review models.Review
	if err := json.Unmarshal([]byte(raw), &review); err != nil {
		return nil, fmt.Errorf("failed to unmarshal review: %w", err)
	}

	return &review, nil
}

// firstJSONObject returns the first balanced {...} block in the text,
// ignoring braces inside JSON strings.
func firstJSONObject(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", fmt.Errorf("no JSON object in response")
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}

	return "", fmt.Errorf("unbalanced JSON object in response")
}

// BuildArticle renders a review into article markdown with the affiliate
// disclaimer required on every page.
func BuildArticle(p *models.Product, review *models.Review, affiliateLink string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", p.Title)
	fmt.Fprintf(&b, "%s\n\n", review.Summary)

	if len(review.Pros) > 0 {
		b.WriteString("## Pluspunten\n\n")
		for _, pro := range review.Pros {
			fmt.Fprintf(&b, "- %s\n", pro)
		}
		b.WriteString("\n")
	}

	if len(review.Cons) > 0 {
		b.WriteString("## Minpunten\n\n")
		for _, con := range review.Cons {
			fmt.Fprintf(&b, "- %s\n", con)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Conclusie\n\n")
	fmt.Fprintf(&b, "%s\n\n", review.Verdict)
	fmt.Fprintf(&b, "**Beoordeling: %.1f/10**\n\n", review.Rating)

	if affiliateLink != "" {
		fmt.Fprintf(&b, "[Bekijk het product](%s)\n\n", affiliateLink)
	}

	b.WriteString("---\n*Dit artikel bevat affiliate links. Bij aankoop via deze links ontvangen wij een kleine commissie zonder extra kosten voor jou.*\n")

	return b.String()
}
