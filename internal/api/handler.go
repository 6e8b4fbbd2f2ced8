package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	app_errors "polyglot/backend/internal/errors"
	"polyglot/backend/internal/interfaces"
	"polyglot/backend/internal/llm"
	"polyglot/backend/internal/model"
	"polyglot/backend/internal/service"
)

// ConversationHandler exposes the conversation controller over HTTP.
// Operations return 202 and report their outcome through the event stream.
type ConversationHandler struct {
	conversation interfaces.ConversationService
}

func NewConversationHandler(svc interfaces.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversation: svc}
}

// GetState godoc
// @Summary      Get conversation state
// @Description  Returns a snapshot of the message log and the busy flags.
// @Tags         Conversation
// @Produce      json
// @Success      200  {object}  model.State
// @Router       /v1/state [get]
func (h *ConversationHandler) GetState(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.conversation.State())
}

// StreamEvents godoc
// @Summary      Subscribe to state changes
// @Description  Server-Sent Events stream. The current state is sent first, then every change and notification.
// @Tags         Conversation
// @Produce      text/event-stream
// @Success      200  {object}  model.Event
// @Router       /v1/events [get]
func (h *ConversationHandler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events, unsubscribe := h.conversation.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-r.Context().Done():
			slog.Debug("Event stream client disconnected")
			return
		case ev, ok := <-events:
			if !ok {
				sendStreamError(w, "Event stream closed")
				return
			}
			if err := writeStreamEvent(w, string(ev.Type), ev); err != nil {
				slog.Debug("Stopping event stream", "error", err)
				return
			}
		}
	}
}

// ListLanguages godoc
// @Summary      List supported languages
// @Tags         Conversation
// @Produce      json
// @Success      200  {array}  model.LanguageInfo
// @Router       /v1/languages [get]
func (h *ConversationHandler) ListLanguages(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, model.LanguageList())
}

// InitModel godoc
// @Summary      Load the translation model
// @Description  Clears the log and loads the model. An empty body loads the configured model.
// @Tags         Conversation
// @Accept       json
// @Produce      json
// @Param        request  body      InitModelRequest  false  "Model override"
// @Success      202      {object}  StatusResponse
// @Failure      400      {object}  ErrorResponse
// @Router       /v1/model/init [post]
func (h *ConversationHandler) InitModel(w http.ResponseWriter, r *http.Request) {
	var req InitModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, fmt.Errorf("%w: invalid request payload", app_errors.ErrValidation))
		return
	}
	if err := validateRequest(&req); err != nil {
		respondWithError(w, err)
		return
	}

	h.conversation.InitializeModel(llm.ModelRef{Name: req.Name, Asset: req.Asset})
	respondWithJSON(w, http.StatusAccepted, StatusResponse{Status: "loading"})
}

// SendMessage godoc
// @Summary      Translate a message
// @Description  Appends the message and a pending reply to the log. A send replaces any generation in flight.
// @Tags         Conversation
// @Accept       json
// @Produce      json
// @Param        request  body      SendMessageRequest  true  "Message"
// @Success      202      {object}  StatusResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      429      {object}  ErrorResponse
// @Router       /v1/messages [post]
func (h *ConversationHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, err)
		return
	}

	send := service.TranslationRequest{Text: req.Text, SourceLang: req.SourceLang, TargetLang: req.TargetLang}
	if req.Image != nil {
		send.Image = &model.Image{Data: req.Image.Data, MIMEType: req.Image.MIMEType}
	}
	h.conversation.SendMessage(send)
	respondWithJSON(w, http.StatusAccepted, StatusResponse{Status: "accepted"})
}

// StopGeneration godoc
// @Summary      Stop the running translation
// @Tags         Conversation
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /v1/messages/stop [post]
func (h *ConversationHandler) StopGeneration(w http.ResponseWriter, r *http.Request) {
	h.conversation.StopGeneration()
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "stopped"})
}

// ClearChat godoc
// @Summary      Clear the conversation
// @Tags         Conversation
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /v1/chat/clear [post]
func (h *ConversationHandler) ClearChat(w http.ResponseWriter, r *http.Request) {
	h.conversation.ClearChat()
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "cleared"})
}

// GetSettings godoc
// @Summary      Get session settings
// @Tags         Settings
// @Produce      json
// @Success      200  {object}  model.Settings
// @Router       /v1/settings [get]
func (h *ConversationHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.conversation.State().Settings)
}

// UpdateSettings godoc
// @Summary      Apply session settings
// @Description  Stores the settings, clears the conversation and reloads the model.
// @Tags         Settings
// @Accept       json
// @Produce      json
// @Param        settings  body      SettingsRequest  true  "New settings"
// @Success      202       {object}  model.Settings
// @Failure      400       {object}  ErrorResponse
// @Router       /v1/settings [put]
func (h *ConversationHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, err)
		return
	}

	settings := req.toModel()
	if err := h.conversation.ApplySettings(settings); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusAccepted, settings)
}

// ResetSettings godoc
// @Summary      Restore default settings
// @Tags         Settings
// @Produce      json
// @Success      202  {object}  model.Settings
// @Router       /v1/settings/reset [post]
func (h *ConversationHandler) ResetSettings(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusAccepted, h.conversation.ResetSettings())
}

// ListFollowUps godoc
// @Summary      Get the follow-up discussion
// @Tags         Follow-ups
// @Produce      json
// @Success      200  {array}  model.Message
// @Router       /v1/followups [get]
func (h *ConversationHandler) ListFollowUps(w http.ResponseWriter, r *http.Request) {
	msgs := h.conversation.FollowUps()
	if msgs == nil {
		msgs = []model.Message{}
	}
	respondWithJSON(w, http.StatusOK, msgs)
}

// StartDiscussion godoc
// @Summary      Start a new follow-up discussion
// @Tags         Follow-ups
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /v1/followups/discussion [post]
func (h *ConversationHandler) StartDiscussion(w http.ResponseWriter, r *http.Request) {
	h.conversation.StartDiscussion()
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "started"})
}

// AskFollowUp godoc
// @Summary      Ask about a translation
// @Tags         Follow-ups
// @Accept       json
// @Produce      json
// @Param        request  body      FollowUpRequest  true  "Question"
// @Success      202      {object}  StatusResponse
// @Failure      400      {object}  ErrorResponse
// @Router       /v1/followups [post]
func (h *ConversationHandler) AskFollowUp(w http.ResponseWriter, r *http.Request) {
	var req FollowUpRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, err)
		return
	}

	h.conversation.AskFollowUp(req.Query, req.Original, req.TargetLang)
	respondWithJSON(w, http.StatusAccepted, StatusResponse{Status: "accepted"})
}

// Speak godoc
// @Summary      Read text aloud
// @Description  Speaks on the server's audio output. A missing voice is reported as a notification event.
// @Tags         Speech
// @Accept       json
// @Produce      json
// @Param        request  body      SpeakRequest  true  "Text and language"
// @Success      202      {object}  StatusResponse
// @Failure      400      {object}  ErrorResponse
// @Router       /v1/speak [post]
func (h *ConversationHandler) Speak(w http.ResponseWriter, r *http.Request) {
	var req SpeakRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, err)
		return
	}

	h.conversation.Speak(req.Text, req.Lang)
	respondWithJSON(w, http.StatusAccepted, StatusResponse{Status: "speaking"})
}
