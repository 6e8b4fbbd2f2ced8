package interfaces

import (
	"context"

	"polyglot/backend/internal/audio"
	"polyglot/backend/internal/llm"
	"polyglot/backend/internal/model"
	"polyglot/backend/internal/service"
)

// This file defines the interfaces for our core services.
// Depending on these interfaces, instead of concrete implementations, allows for
// decoupling (e.g., API layer from Service layer) and easier testing via mocking.

// ConversationService defines the contract of the conversation controller.
type ConversationService interface {
	State() model.State
	FollowUps() []model.Message
	Subscribe() (<-chan model.Event, func())

	InitializeModel(ref llm.ModelRef)
	SendMessage(req service.TranslationRequest)
	StopGeneration()
	ClearChat()
	TranscribeAndSend(audioPath, sourceLang, targetLang string) error

	ApplySettings(settings model.Settings) error
	ResetSettings() model.Settings

	Speak(text, lang string)

	StartDiscussion()
	AskFollowUp(query, original, targetLang string)
}

// ModelService defines the contract for model discovery.
type ModelService interface {
	List(ctx context.Context) (*llm.ListModelsResponse, error)
}

// HistoryService defines the contract of the translation archive.
type HistoryService interface {
	List(ctx context.Context, limit int) ([]model.HistoryEntry, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) (int64, error)
}

// Recorder defines the contract of the microphone recorder.
type Recorder interface {
	Start(ctx context.Context) (audio.Handle, error)
	Stop(h audio.Handle) (string, error)
	Current() (audio.Handle, bool)
	Purge() (int, error)
}
