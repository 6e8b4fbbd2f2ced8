package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	app_errors "polyglot/backend/internal/errors"
	"polyglot/backend/internal/model"
)

// This file contains shared DTOs (Data Transfer Objects) for API requests and
// responses, and helper functions for sending consistent HTTP responses.

// ErrorResponse defines the standard JSON structure for error messages.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse defines a generic success response for operations that are
// accepted and completed in the background.
type StatusResponse struct {
	Status string `json:"status"`
}

// ImagePayload is an attached picture. Data is base64 encoded in JSON.
type ImagePayload struct {
	Data     []byte `json:"data" validate:"required"`
	MIMEType string `json:"mime_type" validate:"required,oneof=image/jpeg image/png image/webp" example:"image/jpeg"`
}

// SendMessageRequest is the DTO for a translation request.
type SendMessageRequest struct {
	Text       string        `json:"text" validate:"max=4000" example:"Where is the train station?"`
	Image      *ImagePayload `json:"image,omitempty"`
	SourceLang string        `json:"source_lang" validate:"required,language" example:"English"`
	TargetLang string        `json:"target_lang" validate:"required,language" example:"French"`
}

// LanguagePairRequest names the languages of a voice message.
type LanguagePairRequest struct {
	SourceLang string `json:"source_lang" validate:"required,language" example:"English"`
	TargetLang string `json:"target_lang" validate:"required,language" example:"German"`
}

// InitModelRequest optionally overrides the configured model.
type InitModelRequest struct {
	Name  string `json:"name" validate:"omitempty,max=200" example:"gemma3n:e2b"`
	Asset string `json:"asset" validate:"omitempty,max=500" example:"gemma-3n-E2B-it-int4.gguf"`
}

// SettingsRequest is the DTO for updating the session settings.
type SettingsRequest struct {
	TopK          int     `json:"top_k" validate:"min=1,max=100" example:"40"`
	TopP          float64 `json:"top_p" validate:"min=0,max=1" example:"0.9"`
	Temperature   float64 `json:"temperature" validate:"min=0,max=2" example:"0.9"`
	VisionEnabled bool    `json:"vision_enabled" example:"true"`
}

// FollowUpRequest asks a question about a finished translation.
type FollowUpRequest struct {
	Query      string `json:"query" validate:"required,max=2000" example:"Is this formal?"`
	Original   string `json:"original" validate:"required" example:"Bonjour"`
	TargetLang string `json:"target_lang" validate:"required,language" example:"French"`
}

// SpeakRequest reads a text aloud.
type SpeakRequest struct {
	Text string `json:"text" validate:"required,max=4000" example:"Bonjour"`
	Lang string `json:"lang" validate:"required" example:"French"`
}

// RecordingResponse describes a recording in progress.
type RecordingResponse struct {
	ID        string `json:"id"`
	StartedAt string `json:"started_at"`
}

// PurgeResponse reports how many files were removed.
type PurgeResponse struct {
	Removed int64 `json:"removed"`
}

func (r SettingsRequest) toModel() model.Settings {
	return model.Settings{
		TopK:          r.TopK,
		TopP:          r.TopP,
		Temperature:   r.Temperature,
		VisionEnabled: r.VisionEnabled,
	}
}

// respondWithError is the centralized error handling function for the API layer.
// It maps business-layer errors to HTTP status codes and formats a standard
// JSON error response.
func respondWithError(w http.ResponseWriter, err error) {
	var statusCode int
	var message string

	switch {
	case errors.Is(err, app_errors.ErrNotFound):
		statusCode = http.StatusNotFound
		message = "The requested resource was not found."
	case errors.Is(err, app_errors.ErrValidation):
		statusCode = http.StatusBadRequest
		// Validation messages are already descriptive and safe to show.
		message = err.Error()
	case errors.Is(err, app_errors.ErrBusy):
		statusCode = http.StatusConflict
		message = "The operation is already in progress."
	case errors.Is(err, app_errors.ErrInvalidState):
		statusCode = http.StatusConflict
		message = "The operation is not allowed in the current state."
	case errors.Is(err, app_errors.ErrConflict):
		statusCode = http.StatusConflict
		message = "A conflict occurred with the current state of the resource."
	case errors.Is(err, app_errors.ErrNotInitialized):
		statusCode = http.StatusServiceUnavailable
		message = "The translation model is not loaded."
	case errors.Is(err, app_errors.ErrVoiceUnavailable):
		statusCode = http.StatusUnprocessableEntity
		message = "Voice data for the requested language is not installed."
	default:
		// Anything else is an internal error; details stay in the log.
		statusCode = http.StatusInternalServerError
		message = "An unexpected internal server error occurred."
	}

	slog.Warn("Responding with error", "status_code", statusCode, "client_message", message, "internal_error", err)

	respondWithJSON(w, statusCode, ErrorResponse{Error: message})
}

// respondWithJSON marshals payload and writes it with the given status code.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to marshal JSON response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

// decodeAndValidate reads a JSON body into dst and validates it.
func decodeAndValidate(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request payload", app_errors.ErrValidation)
	}
	return validateRequest(dst)
}

// sendStreamError sends a structured error message over a Server-Sent Events (SSE) stream.
func sendStreamError(w http.ResponseWriter, message string) {
	slog.Warn("Sending stream error to client", "message", message)
	jsonData, err := json.Marshal(ErrorResponse{Error: message})
	if err != nil {
		slog.Error("Failed to marshal stream error payload", "error", err)
		return
	}

	// The `event: error` line lets clients register a dedicated error listener.
	if _, err := fmt.Fprintf(w, "event: error\ndata: %s\n\n", string(jsonData)); err != nil {
		slog.Warn("Failed to write stream error, client might have disconnected", "error", err)
		return
	}

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

// writeStreamEvent writes one named SSE event. A write failure means the
// client has disconnected.
func writeStreamEvent(w http.ResponseWriter, event string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		slog.Error("Failed to marshal stream data to JSON", "error", err)
		// The stream itself is still usable.
		return nil
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData)); err != nil {
		return fmt.Errorf("failed to write data to stream: %w", err)
	}

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
	return nil
}
