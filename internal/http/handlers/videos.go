package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"lookbook/internal/imaging"
	"lookbook/internal/providers/video"
)

type videoCreateRequest struct {
	ImageBase64 string `json:"imageBase64"`
	PromptText  string `json:"promptText"`
	Ratio       string `json:"ratio"`
	Duration    int    `json:"duration"`
}

type videoCreateResponse struct {
	TaskID string `json:"taskId"`
}

// VideoCreate submits an image-to-video generation task. The image arrives
// base64-encoded, with or without a data URI prefix.
func (a *App) VideoCreate(w http.ResponseWriter, r *http.Request) {
	var req videoCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.ImageBase64) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "imageBase64 is required")
		return
	}

	raw, err := decodeImageBase64(req.ImageBase64)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "imageBase64 is not valid base64 data")
		return
	}

	taskID, err := a.Video.CreateTask(r.Context(), video.CreateTaskParams{
		ImageData:  raw,
		MIMEType:   imaging.Detect(raw).MIME(),
		PromptText: req.PromptText,
		Duration:   req.Duration,
		Ratio:      req.Ratio,
	})
	if err != nil {
		if errors.Is(err, video.ErrPayloadTooLarge) {
			a.error(w, http.StatusRequestEntityTooLarge, "payload_too_large", err.Error())
			return
		}
		a.Log.Error().Err(err).Msg("video task creation failed")
		a.error(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	a.success(w, http.StatusOK, videoCreateResponse{TaskID: taskID})
}

// VideoStatus reports the current state of a generation task.
func (a *App) VideoStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskId")
	if taskID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "taskId is required")
		return
	}

	task, err := a.Video.TaskStatus(r.Context(), taskID)
	if err != nil {
		a.Log.Error().Err(err).Str("task_id", taskID).Msg("video status lookup failed")
		a.error(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	a.success(w, http.StatusOK, task)
}

// decodeImageBase64 strips an optional data URI prefix and decodes the
// payload. The prefix's declared type is discarded; the image format is read
// from the byte signature instead.
func decodeImageBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		comma := strings.Index(s, ",")
		if comma < 0 {
			return nil, errors.New("malformed data URI")
		}
		s = s[comma+1:]
	}
	return base64.StdEncoding.DecodeString(s)
}
