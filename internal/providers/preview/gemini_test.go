package preview

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestGeminiClient(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGeminiClient(GeminiOptions{
		APIKey:     "gem-key",
		Model:      "test-model",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	})
}

func TestGenerateImageExtractsFirstInlinePart(t *testing.T) {
	img := base64.StdEncoding.EncodeToString([]byte("generated"))
	client := newTestGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/test-model:generateContent") {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "gem-key" {
			t.Errorf("api key header = %q", got)
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		parts := req.Contents[0].Parts
		if len(parts) != 3 || parts[0].Text == "" || parts[1].InlineData == nil || parts[2].InlineData == nil {
			t.Errorf("unexpected request parts: %+v", parts)
		}
		fmt.Fprintf(w, `{"candidates":[{"content":{"parts":[
			{"text":"here is your image"},
			{"inlineData":{"mimeType":"image/png","data":%q}}
		]}}]}`, img)
	})

	data, mime, err := client.GenerateImage(context.Background(), "render it", []InlineImage{
		{MIMEType: "image/jpeg", Data: []byte("photo")},
		{MIMEType: "image/jpeg", Data: []byte("grid")},
	})
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if string(data) != "generated" || mime != "image/png" {
		t.Fatalf("got %q %q", data, mime)
	}
}

func TestGenerateImageTextOnlyResponse(t *testing.T) {
	client := newTestGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"I cannot do that"}]}}]}`)
	})

	_, _, err := client.GenerateImage(context.Background(), "render", nil)
	if !errors.Is(err, ErrNoImageData) {
		t.Fatalf("err = %v, want ErrNoImageData", err)
	}
}

func TestGenerateImageSurfacesAPIError(t *testing.T) {
	client := newTestGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"code":400,"message":"Invalid argument"}}`)
	})

	_, _, err := client.GenerateImage(context.Background(), "render", nil)
	if err == nil || !strings.Contains(err.Error(), "Invalid argument") {
		t.Fatalf("err = %v, want api error message", err)
	}
}

func TestGenerateImageMissingKey(t *testing.T) {
	client := NewGeminiClient(GeminiOptions{})
	_, _, err := client.GenerateImage(context.Background(), "render", nil)
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("err = %v, want ErrMissingAPIKey", err)
	}
}
