// Package stylist turns wizard input (age, gender, event description) into a
// bounded list of retail search phrases via a structured-output chat
// completion call.
package stylist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	defaultModel   = "gpt-4o-mini"
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 30 * time.Second

	minTerms = 3
	maxTerms = 5
)

// ErrMissingAPIKey is returned on the first call when no credential is
// configured. Startup does not fail; only the component that needs the key
// reports it.
var ErrMissingAPIKey = errors.New("stylist: OPENAI_API_KEY is not configured")

// Options controls how the OpenAI client is configured.
type Options struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// Client calls the OpenAI chat-completions endpoint with a JSON response
// format and validates the returned payload strictly.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature,omitempty"`
	ResponseFormat *chatFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type searchTermsPayload struct {
	SearchTerms []string `json:"searchTerms"`
}

// NewClient constructs a Client with sane defaults.
func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		apiKey:  strings.TrimSpace(opts.APIKey),
		model:   model,
		baseURL: baseURL,
		client:  client,
	}
}

// SearchTerms generates between three and five retail search phrases for the
// given attributes. This is a single request; any failure fails the whole
// call, there are no partial results at this stage.
func (c *Client) SearchTerms(ctx context.Context, age int, gender, eventDescription string) ([]string, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	payload := chatRequest{
		Model:          c.model,
		Temperature:    0.6,
		ResponseFormat: &chatFormat{Type: "json_object"},
		Messages: []chatMessage{
			{Role: "system", Content: "You are a personal shopping stylist that only responds with valid JSON."},
			{Role: "user", Content: buildSearchTermsPrompt(age, gender, eventDescription)},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("stylist: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", &buf)
	if err != nil {
		return nil, fmt.Errorf("stylist: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stylist: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("stylist: openai status %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("stylist: decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, errors.New("stylist: no choices in response")
	}

	text := strings.TrimSpace(out.Choices[0].Message.Content)
	parsed, err := parseSearchTermsPayload(text)
	if err != nil {
		return nil, fmt.Errorf("stylist: malformed model payload: %w", err)
	}

	terms := cleanTerms(parsed.SearchTerms)
	if len(terms) < minTerms {
		return nil, fmt.Errorf("stylist: model returned %d usable terms, want at least %d", len(terms), minTerms)
	}
	if len(terms) > maxTerms {
		terms = terms[:maxTerms]
	}
	return terms, nil
}

func buildSearchTermsPrompt(age int, gender, eventDescription string) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "Suggest retail search phrases for a complete outfit. The shopper is a %d year old %s attending: %s. ",
		age, strings.TrimSpace(gender), strings.TrimSpace(eventDescription))
	sb.WriteString(`Respond strictly with JSON matching this schema: {"searchTerms":string[]}. `)
	fmt.Fprintf(sb, "Return between %d and %d short phrases, each naming one purchasable clothing item or accessory.", minTerms, maxTerms)
	return sb.String()
}

func parseSearchTermsPayload(raw string) (searchTermsPayload, error) {
	var zero searchTermsPayload
	cleaned := extractJSONFragment(raw)
	if cleaned == "" {
		return zero, errors.New("empty payload")
	}
	var decoded searchTermsPayload
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return zero, err
	}
	if decoded.SearchTerms == nil {
		return zero, errors.New("missing searchTerms array")
	}
	return decoded, nil
}

func cleanTerms(terms []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		key := strings.ToLower(term)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, term)
	}
	return out
}

// extractJSONFragment tolerates models that wrap JSON in prose or code fences.
func extractJSONFragment(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	text = trimCodeFence(text)
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "]}")
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
