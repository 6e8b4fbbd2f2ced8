package api

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"polyglot/backend/internal/interfaces"
)

// RecordingHandler drives the microphone recorder and hands finished
// recordings to the transcription pipeline.
type RecordingHandler struct {
	recorder     interfaces.Recorder
	conversation interfaces.ConversationService
}

func NewRecordingHandler(recorder interfaces.Recorder, conversation interfaces.ConversationService) *RecordingHandler {
	return &RecordingHandler{recorder: recorder, conversation: conversation}
}

// StartRecording godoc
// @Summary      Start recording
// @Tags         Recordings
// @Produce      json
// @Success      201  {object}  RecordingResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /v1/recordings/start [post]
func (h *RecordingHandler) StartRecording(w http.ResponseWriter, r *http.Request) {
	// The capture outlives this request; it ends with StopRecording.
	handle, err := h.recorder.Start(context.WithoutCancel(r.Context()))
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, RecordingResponse{
		ID:        handle.ID,
		StartedAt: handle.StartedAt.UTC().Format(time.RFC3339Nano),
	})
}

// StopRecording godoc
// @Summary      Stop recording and translate the speech
// @Description  Finalizes the WAV file and starts transcription. The transcript is sent as a regular message.
// @Tags         Recordings
// @Accept       json
// @Produce      json
// @Param        request  body      LanguagePairRequest  true  "Languages"
// @Success      202      {object}  StatusResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      409      {object}  ErrorResponse
// @Router       /v1/recordings/stop [post]
func (h *RecordingHandler) StopRecording(w http.ResponseWriter, r *http.Request) {
	var req LanguagePairRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, err)
		return
	}

	handle, _ := h.recorder.Current()
	path, err := h.recorder.Stop(handle)
	if err != nil {
		respondWithError(w, err)
		return
	}

	if err := h.conversation.TranscribeAndSend(path, req.SourceLang, req.TargetLang); err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			slog.Warn("Failed to discard recording", "path", path, "error", rmErr)
		}
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusAccepted, StatusResponse{Status: "transcribing"})
}

// PurgeRecordings godoc
// @Summary      Delete leftover recordings
// @Tags         Recordings
// @Produce      json
// @Success      200  {object}  PurgeResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /v1/recordings [delete]
func (h *RecordingHandler) PurgeRecordings(w http.ResponseWriter, r *http.Request) {
	removed, err := h.recorder.Purge()
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, PurgeResponse{Removed: int64(removed)})
}
