// Package video drives Runway image-to-video generation: task creation,
// status lookup and a bounded polling loop.
package video

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

	"lookbook/internal/infra"
)

const (
	defaultBaseURL = "https://api.dev.runwayml.com/v1"
	defaultTimeout = 60 * time.Second
	apiVersion     = "2024-11-06"

	model         = "gen4_turbo"
	defaultPrompt = "A person wearing clothing, standing and moving naturally"
	durationSecs  = 5
	outputRatio   = "1280:720"

	// Runway rejects oversized data URIs; this ceiling is checked locally so
	// the caller gets a 413 instead of an opaque upstream failure.
	maxPayloadBytes = 45 << 20

	pollInterval = 5 * time.Second
	maxPollTries = 60
)

var (
	// ErrMissingAPIKey is returned on the first call when no credential is
	// configured.
	ErrMissingAPIKey = errors.New("video: RUNWAY_API_KEY is not configured")

	// ErrPayloadTooLarge means the source image exceeds what the provider
	// accepts inline.
	ErrPayloadTooLarge = errors.New("video: image exceeds the task payload limit")

	// ErrPollTimeout means the task did not reach a terminal state within the
	// polling budget. The task itself may still complete upstream.
	ErrPollTimeout = errors.New("video: generation timed out while polling")
)

// Options controls how the Runway client is configured. MaxPayloadBytes
// bounds the encoded image size accepted for a submission; zero applies the
// provider's documented ceiling.
type Options struct {
	APIKey          string
	BaseURL         string
	HTTPClient      *http.Client
	Logger          infra.Logger
	MaxPayloadBytes int64
}

// Client talks to the Runway REST API.
type Client struct {
	apiKey     string
	baseURL    string
	client     *http.Client
	log        infra.Logger
	pollEvery  time.Duration
	maxPayload int64
}

// Task is the normalized state of one generation task: lowercase status,
// the first output video if any, and the provider's failure text as error.
// The provider's raw wire shape never leaves this package.
type Task struct {
	ID     string      `json:"id"`
	Status string      `json:"status"`
	Output *TaskOutput `json:"output,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// TaskOutput holds the generated artifact references.
type TaskOutput struct {
	Video string `json:"video"`
}

// taskWire is the task as the provider reports it.
type taskWire struct {
	ID      string   `json:"id"`
	Status  string   `json:"status"`
	Output  []string `json:"output"`
	Failure string   `json:"failure"`
}

func (w taskWire) normalize() *Task {
	t := &Task{
		ID:     w.ID,
		Status: strings.ToLower(w.Status),
		Error:  w.Failure,
	}
	if len(w.Output) > 0 {
		t.Output = &TaskOutput{Video: w.Output[0]}
	}
	return t
}

// Succeeded reports terminal success. Providers report either "completed" or
// "succeeded" for the same outcome; both mean the video is ready.
func (t *Task) Succeeded() bool {
	return t.Status == "succeeded" || t.Status == "completed"
}

// Done reports whether the task reached a terminal state.
func (t *Task) Done() bool {
	return t.Succeeded() || t.Status == "failed"
}

type createTaskRequest struct {
	Model       string `json:"model"`
	PromptImage string `json:"promptImage"`
	PromptText  string `json:"promptText"`
	Duration    int    `json:"duration"`
	Ratio       string `json:"ratio"`
}

type createTaskResponse struct {
	ID string `json:"id"`
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
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
	maxPayload := opts.MaxPayloadBytes
	if maxPayload <= 0 {
		maxPayload = maxPayloadBytes
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		client:     client,
		log:        opts.Logger,
		pollEvery:  pollInterval,
		maxPayload: maxPayload,
	}
}

// CreateTaskParams describes one image-to-video submission. Zero values for
// PromptText, Duration and Ratio fall back to the service defaults.
type CreateTaskParams struct {
	ImageData  []byte
	MIMEType   string
	PromptText string
	Duration   int
	Ratio      string
}

// CreateTask submits an image-to-video task and returns its ID. The image is
// sent inline as a data URI; images over the payload ceiling fail with
// ErrPayloadTooLarge before any network traffic.
func (c *Client) CreateTask(ctx context.Context, p CreateTaskParams) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}
	if len(p.ImageData) == 0 {
		return "", errors.New("video: image data is empty")
	}
	if int64(base64.StdEncoding.EncodedLen(len(p.ImageData))) > c.maxPayload {
		return "", ErrPayloadTooLarge
	}
	mimeType := p.MIMEType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	promptText := strings.TrimSpace(p.PromptText)
	if promptText == "" {
		promptText = defaultPrompt
	}
	duration := p.Duration
	if duration <= 0 {
		duration = durationSecs
	}
	ratio := p.Ratio
	if ratio == "" {
		ratio = outputRatio
	}

	payload := createTaskRequest{
		Model:       model,
		PromptImage: "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(p.ImageData),
		PromptText:  promptText,
		Duration:    duration,
		Ratio:       ratio,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", fmt.Errorf("video: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/image_to_video", &buf)
	if err != nil {
		return "", fmt.Errorf("video: build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("video: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", c.decodeError(resp)
	}
	var out createTaskResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("video: decode response: %w", err)
	}
	if out.ID == "" {
		return "", errors.New("video: task created without an id")
	}
	c.log.Info().Str("task_id", out.ID).Msg("video task created")
	return out.ID, nil
}

// TaskStatus fetches the current state of a task.
func (c *Client) TaskStatus(ctx context.Context, id string) (*Task, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("video: task id is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/tasks/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("video: build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("video: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, c.decodeError(resp)
	}
	var wire taskWire
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("video: decode response: %w", err)
	}
	return wire.normalize(), nil
}

// Poll queries the task until it reaches a terminal state, the polling budget
// runs out, or the context is cancelled. A FAILED terminal state is returned
// as an error carrying the provider's failure text; exhausting the budget
// returns ErrPollTimeout, distinct from any provider failure.
func (c *Client) Poll(ctx context.Context, id string) (*Task, error) {
	ticker := time.NewTicker(c.pollEvery)
	defer ticker.Stop()

	for attempt := 1; attempt <= maxPollTries; attempt++ {
		task, err := c.TaskStatus(ctx, id)
		if err != nil {
			return nil, err
		}
		if task.Done() {
			if !task.Succeeded() {
				reason := task.Error
				if reason == "" {
					reason = "unknown failure"
				}
				return task, fmt.Errorf("video: generation failed: %s", reason)
			}
			return task, nil
		}
		c.log.Debug().Str("task_id", id).Str("status", task.Status).Int("attempt", attempt).Msg("video task pending")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
	return nil, ErrPollTimeout
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Runway-Version", apiVersion)
}

func (c *Client) decodeError(resp *http.Response) error {
	var apiErr apiError
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil {
		msg := apiErr.Error
		if msg == "" {
			msg = apiErr.Message
		}
		if msg != "" {
			return fmt.Errorf("video: runway status %d: %s", resp.StatusCode, msg)
		}
	}
	return fmt.Errorf("video: runway status %d", resp.StatusCode)
}
