package domain

import "strings"

// Product is the normalized product schema shared by the shopping client, the
// grid merger and the preview generator. Instances are created from external
// search responses or decoded from request payloads and are never persisted.
type Product struct {
	Title        string  `json:"title"`
	Price        float64 `json:"price"`
	Description  string  `json:"description"`
	ImageURL     string  `json:"imageUrl"`
	ProductURL   string  `json:"productUrl"`
	Rating       float64 `json:"rating,omitempty"`
	Reviews      int     `json:"reviews,omitempty"`
	Brand        string  `json:"brand,omitempty"`
	Condition    string  `json:"condition,omitempty"`
	Availability string  `json:"availability,omitempty"`
}

// Valid reports whether the product can be used for compositing or preview
// generation: title, image URL and product URL must be present and the price
// must be positive.
func (p Product) Valid() bool {
	return strings.TrimSpace(p.Title) != "" &&
		strings.TrimSpace(p.ImageURL) != "" &&
		strings.TrimSpace(p.ProductURL) != "" &&
		p.Price > 0
}

// PersonalInfo carries the wizard attributes used for search-term generation.
type PersonalInfo struct {
	Age    int    `json:"age"`
	Gender string `json:"gender"`
}
