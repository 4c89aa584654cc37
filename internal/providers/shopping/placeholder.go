package shopping

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"lookbook/internal/domain"
)

var titleCaser = cases.Title(language.English)

// PlaceholderProducts builds a deterministic demo catalog for the given
// search terms. Served when a search run yields no listings for any term so
// the wizard flow stays demonstrable end to end.
func PlaceholderProducts(terms []string) []domain.Product {
	var products []domain.Product
	for i, term := range terms {
		if term == "" {
			continue
		}
		label := titleCaser.String(term)
		products = append(products, domain.Product{
			Title:        fmt.Sprintf("%s (Sample)", label),
			Price:        19.99 + float64(i)*10,
			Description:  fmt.Sprintf("Sample listing for %s. Configure a shopping API key for live results.", label),
			ImageURL:     fmt.Sprintf("https://placehold.co/400x400/png?text=%d", i+1),
			ProductURL:   "https://example.com/sample-product",
			Brand:        "Sample Brand",
			Condition:    "New",
			Availability: "In Stock",
		})
	}
	return products
}
