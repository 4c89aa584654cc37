// Package preview renders a virtual try-on image: the user's photo combined
// with a composited product grid through a Gemini image generation call.
package preview

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	defaultModel   = "gemini-2.5-flash-image"
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultTimeout = 120 * time.Second
)

// ErrMissingAPIKey is returned on the first generation attempt when no
// credential is configured.
var ErrMissingAPIKey = errors.New("preview: GEMINI_API_KEY is not configured")

// ErrNoImageData is returned when the model responds without any inline
// image part. Text-only answers are not a usable preview.
var ErrNoImageData = errors.New("preview: no image data received from model")

// InlineImage is one image attached to a generation request.
type InlineImage struct {
	MIMEType string
	Data     []byte
}

// GeminiOptions controls how the Gemini client is configured.
type GeminiOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// GeminiClient calls the generateContent REST endpoint with inline image
// parts and extracts the first inline image of the response.
type GeminiClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewGeminiClient constructs a GeminiClient with sane defaults.
func NewGeminiClient(opts GeminiOptions) *GeminiClient {
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
	return &GeminiClient{
		apiKey:  strings.TrimSpace(opts.APIKey),
		model:   model,
		baseURL: baseURL,
		client:  client,
	}
}

// GenerateImage sends the instruction plus attached images and returns the
// first inline image of the response along with its MIME type.
func (c *GeminiClient) GenerateImage(ctx context.Context, instruction string, images []InlineImage) ([]byte, string, error) {
	if c.apiKey == "" {
		return nil, "", ErrMissingAPIKey
	}

	parts := make([]part, 0, len(images)+1)
	parts = append(parts, part{Text: instruction})
	for _, img := range images {
		parts = append(parts, part{InlineData: &inlineData{
			MIMEType: img.MIMEType,
			Data:     base64.StdEncoding.EncodeToString(img.Data),
		}})
	}
	payload := generateRequest{Contents: []content{{Parts: parts}}}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, "", fmt.Errorf("preview: encode request: %w", err)
	}
	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, "", fmt.Errorf("preview: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("preview: request: %w", err)
	}
	defer resp.Body.Close()

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if resp.StatusCode >= 300 {
			return nil, "", fmt.Errorf("preview: gemini status %d", resp.StatusCode)
		}
		return nil, "", fmt.Errorf("preview: decode response: %w", err)
	}
	if out.Error != nil {
		return nil, "", fmt.Errorf("preview: gemini error %d: %s", out.Error.Code, out.Error.Message)
	}
	if resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("preview: gemini status %d", resp.StatusCode)
	}

	for _, cand := range out.Candidates {
		for _, p := range cand.Content.Parts {
			if p.InlineData == nil || p.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				return nil, "", fmt.Errorf("preview: decode image payload: %w", err)
			}
			mime := p.InlineData.MIMEType
			if mime == "" {
				mime = "image/png"
			}
			return data, mime, nil
		}
	}
	return nil, "", ErrNoImageData
}
