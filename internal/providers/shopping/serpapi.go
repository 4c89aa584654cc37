// Package shopping queries Google Shopping through SerpApi and maps raw
// listings into validated products.
package shopping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"lookbook/internal/domain"
	"lookbook/internal/infra"
)

const (
	defaultBaseURL    = "https://serpapi.com"
	defaultTimeout    = 30 * time.Second
	resultsPerTerm    = 5
	searchConcurrency = 4
)

// ErrMissingAPIKey is returned on the first search when no credential is
// configured.
var ErrMissingAPIKey = errors.New("shopping: SERPAPI_API_KEY is not configured")

// Options controls how the SerpApi client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     infra.Logger
}

// Client talks to the SerpApi google_shopping engine.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	log     infra.Logger
}

type searchResponse struct {
	Error           string       `json:"error"`
	ShoppingResults []rawListing `json:"shopping_results"`
}

type rawListing struct {
	Title          string      `json:"title"`
	Price          string      `json:"price"`
	ExtractedPrice json.Number `json:"extracted_price"`
	Snippet        string      `json:"snippet"`
	Thumbnail      string      `json:"thumbnail"`
	ProductLink    string      `json:"product_link"`
	Link           string      `json:"link"`
	Rating         float64     `json:"rating"`
	Reviews        int         `json:"reviews"`
	Source         string      `json:"source"`
	SecondHand     bool        `json:"second_hand_condition"`
}

// NewClient constructs a Client with sane defaults.
func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		apiKey:  strings.TrimSpace(opts.APIKey),
		baseURL: baseURL,
		client:  client,
		log:     opts.Logger,
	}
}

// TermResults holds the listings found for one search term.
type TermResults struct {
	Term     string
	Products []domain.Product
}

// SearchAll runs one shopping search per term concurrently and returns the
// per-term results in term order. A term whose search fails or yields nothing
// usable is simply absent from the output; only a missing credential fails
// the whole call.
func (c *Client) SearchAll(ctx context.Context, terms []string) ([]TermResults, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	perTerm := make([][]domain.Product, len(terms))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(searchConcurrency)
	for i, term := range terms {
		term := strings.TrimSpace(term)
		if term == "" {
			continue
		}
		i := i
		g.Go(func() error {
			products, err := c.search(gctx, term)
			if err != nil {
				c.log.Warn().Err(err).Str("term", term).Msg("shopping search failed, excluding term")
				return nil
			}
			perTerm[i] = products
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var results []TermResults
	for i, products := range perTerm {
		if len(products) == 0 {
			continue
		}
		results = append(results, TermResults{Term: strings.TrimSpace(terms[i]), Products: products})
	}
	return results, nil
}

func (c *Client) search(ctx context.Context, term string) ([]domain.Product, error) {
	q := url.Values{}
	q.Set("engine", "google_shopping")
	q.Set("q", term)
	q.Set("api_key", c.apiKey)
	q.Set("num", strconv.Itoa(resultsPerTerm))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search.json?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("serpapi status %d", resp.StatusCode)
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("serpapi: %s", out.Error)
	}

	var products []domain.Product
	for _, listing := range out.ShoppingResults {
		p, ok := c.mapListing(listing)
		if !ok {
			continue
		}
		products = append(products, p)
		if len(products) >= resultsPerTerm {
			break
		}
	}
	return products, nil
}

func (c *Client) mapListing(listing rawListing) (domain.Product, bool) {
	link := listing.ProductLink
	if link == "" {
		link = listing.Link
	}
	price := ParsePrice(listing.Price)
	if price == 0 {
		if v, err := listing.ExtractedPrice.Float64(); err == nil {
			price = v
		}
	}
	condition := "New"
	if listing.SecondHand {
		condition = "Used"
	}
	p := domain.Product{
		Title:        listing.Title,
		Price:        price,
		Description:  listing.Snippet,
		ImageURL:     listing.Thumbnail,
		ProductURL:   link,
		Rating:       listing.Rating,
		Reviews:      listing.Reviews,
		Brand:        listing.Source,
		Condition:    condition,
		Availability: "In Stock",
	}
	if p.Description == "" {
		p.Description = p.Title
	}
	if !p.Valid() {
		c.log.Debug().Str("title", listing.Title).Msg("discarding incomplete shopping listing")
		return domain.Product{}, false
	}
	return p, true
}

// ParsePrice extracts a numeric amount from a display price like "$1,234.56".
// European comma decimals ("49,99") are normalized. Anything unparseable
// yields zero.
func ParsePrice(display string) float64 {
	var b strings.Builder
	for _, r := range display {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" {
		return 0
	}
	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") {
			// "1,234.56": commas are grouping separators.
			s = strings.ReplaceAll(s, ",", "")
		} else if idx := strings.LastIndex(s, ","); strings.Count(s, ",") == 1 && len(s)-idx-1 <= 2 {
			// "49,99": comma is the decimal separator.
			s = strings.Replace(s, ",", ".", 1)
		} else {
			// "2,000" or "1,234,567": grouping separators.
			s = strings.ReplaceAll(s, ",", "")
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
