package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"

	app_errors "polyglot/backend/internal/errors"
	"polyglot/backend/internal/llm"
	"polyglot/backend/internal/model"
	"polyglot/backend/internal/repository"
	"polyglot/backend/internal/speech"
)

// errClosed is returned by operations that would start work after Close.
var errClosed = fmt.Errorf("%w: conversation service is closed", app_errors.ErrInvalidState)

// whisperModelDir is both the asset sub-directory and the cache sub-directory
// of the transcription model.
const whisperModelDir = "models"

// Dependencies are the collaborators of the ConversationService.
// History may be nil, in which case nothing is archived.
type Dependencies struct {
	LLM         llm.SessionManager
	Transcriber speech.Transcriber
	Speaker     speech.Speaker
	Assets      llm.AssetResolver
	History     repository.Repository
	Settings    *SettingsService
}

// ConversationConfig holds the static configuration of the controller.
type ConversationConfig struct {
	Model        llm.ModelRef
	MaxTokens    int
	WhisperModel string
	Workers      int
}

// TranslationRequest is one user send.
type TranslationRequest struct {
	Text       string
	Image      *model.Image
	SourceLang string
	TargetLang string
}

// ConversationService is the single owner of the conversation state. Public
// operations mutate the log synchronously and hand slow work to a bounded
// worker pool; results are merged back into the log under the store lock.
type ConversationService struct {
	llm      llm.SessionManager
	stt      speech.Transcriber
	voice    speech.Speaker
	assets   llm.AssetResolver
	history  repository.Repository
	settings *SettingsService
	store    *Store
	cfg      ConversationConfig

	ctx    context.Context
	cancel context.CancelFunc
	pool   *pool.Pool

	lifecycle  sync.RWMutex
	closed     bool
	submitting sync.WaitGroup
	closeOnce  sync.Once
	closeErr   error

	mu           sync.Mutex
	modelRef     llm.ModelRef
	genID        string
	genCancel    context.CancelFunc
	loadSeq      int
	transcribing bool
	speakCancel  context.CancelFunc
}

// NewConversationService creates the controller. No model is loaded until
// InitializeModel is called.
func NewConversationService(deps Dependencies, cfg ConversationConfig) *ConversationService {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if deps.Settings == nil {
		deps.Settings = NewSettingsService(model.DefaultSettings())
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ConversationService{
		llm:      deps.LLM,
		stt:      deps.Transcriber,
		voice:    deps.Speaker,
		assets:   deps.Assets,
		history:  deps.History,
		settings: deps.Settings,
		store:    NewStore(deps.Settings.Get()),
		cfg:      cfg,
		ctx:      ctx,
		cancel:   cancel,
		pool:     pool.New().WithMaxGoroutines(cfg.Workers),
		modelRef: cfg.Model,
	}
}

// State returns a snapshot of the conversation state.
func (s *ConversationService) State() model.State {
	return s.store.Snapshot()
}

// FollowUps returns a snapshot of the follow-up log.
func (s *ConversationService) FollowUps() []model.Message {
	return s.store.FollowUps()
}

// Subscribe registers an observer of state changes and notifications.
func (s *ConversationService) Subscribe() (<-chan model.Event, func()) {
	return s.store.Subscribe()
}

// InitializeModel clears the log and loads ref (or the configured model when
// ref.Name is empty) with the current settings.
func (s *ConversationService) InitializeModel(ref llm.ModelRef) {
	if ref.Name == "" {
		ref = s.cfg.Model
	}
	s.mu.Lock()
	s.cancelGenerationLocked()
	s.modelRef = ref
	s.store.Update(func(st *model.State) {
		st.Messages = nil
		st.Thinking = false
	})
	s.mu.Unlock()

	s.reloadSession(ref)
}

// reloadSession loads ref with the current settings in the background. The
// log is only touched on failure.
func (s *ConversationService) reloadSession(ref llm.ModelRef) {
	if s.isClosed() {
		return
	}
	opts := llm.OptionsFromSettings(s.settings.Get(), s.cfg.MaxTokens)

	s.mu.Lock()
	s.loadSeq++
	seq := s.loadSeq
	s.store.Update(func(st *model.State) { st.ModelLoading = true })
	s.mu.Unlock()

	dispatched := s.dispatch(func() {
		err := safely(func() error { return s.llm.Initialize(s.ctx, ref, opts) })
		if err != nil {
			slog.Error("Failed to load model", "model", ref.Name, "error", err)
		} else {
			slog.Info("Model session ready", "model", ref.Name, "top_k", opts.TopK, "temperature", opts.Temperature)
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if seq != s.loadSeq {
			// A newer load owns the flag and the log.
			return
		}
		s.store.Update(func(st *model.State) {
			st.ModelLoading = false
			if err != nil && !errors.Is(err, context.Canceled) {
				st.Messages = []model.Message{
					model.NewMessage(model.RoleAssistant, model.KindError, "Error loading model: "+err.Error()),
				}
			}
		})
	})
	if !dispatched {
		s.mu.Lock()
		defer s.mu.Unlock()
		if seq == s.loadSeq {
			s.store.Update(func(st *model.State) { st.ModelLoading = false })
		}
	}
}

// SendMessage appends the user message and a pending reply, then generates the
// translation in the background. A send supersedes any generation in flight.
// An empty send is ignored.
func (s *ConversationService) SendMessage(req TranslationRequest) {
	task, abort := s.startTranslation(req)
	if task != nil && !s.dispatch(task) {
		abort()
	}
}

// startTranslation performs the synchronous part of a send and returns the
// generation task, or nil when there is nothing to send. abort undoes the
// pending state when the task is never run.
func (s *ConversationService) startTranslation(req TranslationRequest) (task func(), abort func()) {
	text := strings.TrimSpace(req.Text)
	if (text == "" && req.Image == nil) || s.isClosed() {
		return nil, nil
	}

	settings := s.settings.Get()
	user := model.NewMessage(model.RoleUser, model.KindText, text)
	user.Image = req.Image
	placeholder := model.NewPendingMessage(text)

	s.mu.Lock()
	s.cancelGenerationLocked()
	ctx, cancel := context.WithCancel(s.ctx)
	s.genID, s.genCancel = placeholder.ID, cancel
	s.store.Update(func(st *model.State) {
		st.Messages = append(removePending(st.Messages), user, placeholder)
		st.Thinking = true
	})
	s.mu.Unlock()

	prompt := TranslationPrompt(text, req.Image != nil, req.SourceLang, req.TargetLang)
	var image *model.Image
	if settings.VisionEnabled {
		image = req.Image
	}

	abort = func() { s.finishGeneration(placeholder.ID, cancel) }
	task = func() {
		defer s.finishGeneration(placeholder.ID, cancel)
		if ctx.Err() != nil {
			return
		}

		var reply string
		err := safely(func() (err error) {
			reply, err = s.llm.Generate(ctx, prompt, image)
			return err
		})
		reply = cleanReply(reply)
		if err == nil && reply == "" {
			err = errors.New("empty reply from model")
		}
		s.deliverTranslation(ctx, placeholder, req, reply, err)
	}
	return task, abort
}

// deliverTranslation merges a generation result into the log. A result whose
// placeholder is gone (stopped, superseded or cleared) is discarded.
func (s *ConversationService) deliverTranslation(ctx context.Context, placeholder model.Message, req TranslationRequest, reply string, err error) {
	if err != nil && !errors.Is(err, app_errors.ErrNotInitialized) {
		if ctx.Err() != nil {
			slog.Debug("Generation cancelled", "message_id", placeholder.ID)
			return
		}
		slog.Error("Translation failed", "message_id", placeholder.ID, "error", err)
	}

	delivered := false
	s.store.Update(func(st *model.State) {
		if ctx.Err() != nil {
			return
		}
		if _, ok := findMessage(st.Messages, placeholder.ID); !ok {
			return
		}
		switch {
		case errors.Is(err, app_errors.ErrNotInitialized):
			replaceMessage(st.Messages, placeholder.Finalize(NotInitializedReply, model.KindError))
		case err != nil:
			failed := model.NewMessage(model.RoleAssistant, model.KindError, "Error generating response: "+err.Error())
			failed.Original = placeholder.Original
			st.Messages = append(removeMessage(st.Messages, placeholder.ID), failed)
		default:
			replaceMessage(st.Messages, placeholder.Finalize(reply, model.KindTranslation))
			delivered = true
		}
	})

	if delivered {
		s.archive(req, reply)
	}
}

// finishGeneration clears the thinking flag if id is still the active generation.
func (s *ConversationService) finishGeneration(id string, cancel context.CancelFunc) {
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.genID != id {
		return
	}
	s.genID, s.genCancel = "", nil
	s.store.Update(func(st *model.State) {
		st.Thinking = false
		if m, ok := findMessage(st.Messages, id); ok && m.Pending {
			st.Messages = removeMessage(st.Messages, id)
		}
	})
}

// StopGeneration cancels the generation in flight and removes its placeholder.
// A reply that was already delivered stays in the log.
func (s *ConversationService) StopGeneration() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.genID
	s.cancelGenerationLocked()
	s.store.Update(func(st *model.State) {
		st.Thinking = false
		if m, ok := findMessage(st.Messages, id); ok && m.Pending {
			st.Messages = removeMessage(st.Messages, id)
		}
	})
}

// cancelGenerationLocked must be called with s.mu held.
func (s *ConversationService) cancelGenerationLocked() {
	if s.genCancel != nil {
		s.genCancel()
	}
	s.genID, s.genCancel = "", nil
}

// ClearChat discards the log and leaves a single informational entry.
func (s *ConversationService) ClearChat() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelGenerationLocked()
	s.store.Update(func(st *model.State) {
		st.Thinking = false
		st.Messages = []model.Message{model.NewMessage(model.RoleAssistant, model.KindInfo, ClearedNotice)}
	})
}

// TranscribeAndSend converts a finished recording to text and sends it as a
// regular message. Only one transcription runs at a time; a concurrent call
// returns ErrBusy without touching the log. The transcribing flag is cleared
// as soon as the transcript is handed to the translation.
func (s *ConversationService) TranscribeAndSend(audioPath, sourceLang, targetLang string) error {
	if s.isClosed() {
		return errClosed
	}

	s.mu.Lock()
	if s.transcribing {
		s.mu.Unlock()
		s.store.Notify(model.Notification{Level: model.LevelWarning, Text: "A transcription is already in progress"})
		return app_errors.ErrBusy
	}
	s.transcribing = true
	s.store.Update(func(st *model.State) { st.Transcribing = true })
	s.mu.Unlock()

	endTranscription := sync.OnceFunc(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.transcribing = false
		s.store.Update(func(st *model.State) { st.Transcribing = false })
	})
	lang := whisperLanguage(sourceLang)

	dispatched := s.dispatch(func() {
		defer endTranscription()

		var text string
		err := safely(func() error {
			modelPath, err := s.assets.Ensure(path.Join(whisperModelDir, s.cfg.WhisperModel), whisperModelDir)
			if err != nil {
				return err
			}
			text, err = s.stt.Transcribe(s.ctx, audioPath, modelPath, lang)
			return err
		})
		if err != nil {
			slog.Error("Transcription failed", "audio", audioPath, "error", err)
			s.store.Notify(model.Notification{Level: model.LevelError, Text: "Transcription failed"})
			return
		}

		if err := os.Remove(audioPath); err != nil && !os.IsNotExist(err) {
			slog.Warn("Failed to delete recording", "audio", audioPath, "error", err)
		}

		text = strings.TrimSpace(text)
		if text == "" {
			s.store.Notify(model.Notification{Level: model.LevelInfo, Text: "No speech detected"})
			return
		}

		task, _ := s.startTranslation(TranslationRequest{Text: text, SourceLang: sourceLang, TargetLang: targetLang})
		endTranscription()
		if task != nil {
			task()
		}
	})
	if !dispatched {
		endTranscription()
		return errClosed
	}
	return nil
}

// whisperLanguage maps a language name to the recognizer's language code.
func whisperLanguage(name string) string {
	tag, ok := model.LanguageTag(name)
	if !ok {
		return ""
	}
	base, _ := tag.Base()
	return base.String()
}

// ApplySettings validates and stores new settings, cancels any generation,
// clears the log and reloads the model with the new configuration.
func (s *ConversationService) ApplySettings(settings model.Settings) error {
	if err := s.settings.Validate(settings); err != nil {
		return err
	}

	s.mu.Lock()
	s.cancelGenerationLocked()
	ref := s.modelRef
	s.mu.Unlock()

	if err := s.settings.Save(settings); err != nil {
		return err
	}
	s.store.Update(func(st *model.State) { st.Settings = settings })
	s.ClearChat()
	s.reloadSession(ref)
	return nil
}

// ResetSettings applies the default settings.
func (s *ConversationService) ResetSettings() model.Settings {
	defaults := s.settings.Defaults()
	if err := s.ApplySettings(defaults); err != nil {
		// Defaults come from validated configuration.
		slog.Error("Default settings rejected", "error", err)
	}
	return defaults
}

// Speak reads text aloud in lang. A new request interrupts the previous one.
// A missing voice raises a notification that offers to install voice data.
func (s *ConversationService) Speak(text, lang string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	s.mu.Lock()
	if s.speakCancel != nil {
		s.speakCancel()
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.speakCancel = cancel
	s.mu.Unlock()

	s.dispatch(func() {
		defer cancel()
		err := safely(func() error { return s.voice.Speak(ctx, text, lang) })
		switch {
		case err == nil || ctx.Err() != nil:
		case errors.Is(err, app_errors.ErrVoiceUnavailable):
			slog.Warn("Voice unavailable", "language", lang, "error", err)
			s.store.Notify(model.Notification{
				Level:  model.LevelWarning,
				Text:   fmt.Sprintf("Voice data for %s is not installed", lang),
				Action: model.ActionInstallVoiceData,
			})
		default:
			slog.Error("Speech playback failed", "language", lang, "error", err)
			s.store.Notify(model.Notification{Level: model.LevelError, Text: "Speech playback failed"})
		}
	})
}

// Close cancels all background work, waits for it and unloads the model.
func (s *ConversationService) Close() error {
	s.lifecycle.Lock()
	s.closed = true
	s.lifecycle.Unlock()

	s.closeOnce.Do(func() {
		s.cancel()
		s.submitting.Wait()
		s.pool.Wait()
		s.closeErr = s.llm.Close()
	})
	return s.closeErr
}

// archive stores a delivered translation. Failures are logged only.
func (s *ConversationService) archive(req TranslationRequest, reply string) {
	if s.history == nil {
		return
	}
	entry := &model.HistoryEntry{
		ID:          uuid.NewString(),
		SourceLang:  req.SourceLang,
		TargetLang:  req.TargetLang,
		Original:    strings.TrimSpace(req.Text),
		Translation: reply,
		HasImage:    req.Image != nil,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.history.AddEntry(s.ctx, entry); err != nil {
		slog.Warn("Failed to archive translation", "error", err)
	}
}

// dispatch hands task to the worker pool without blocking the caller while
// every worker is busy. It reports false when the service is closed and the
// task was dropped.
func (s *ConversationService) dispatch(task func()) bool {
	s.lifecycle.RLock()
	defer s.lifecycle.RUnlock()
	if s.closed {
		slog.Debug("Dropping task after close")
		return false
	}
	s.submitting.Add(1)
	go func() {
		defer s.submitting.Done()
		s.pool.Go(task)
	}()
	return true
}

func (s *ConversationService) isClosed() bool {
	s.lifecycle.RLock()
	defer s.lifecycle.RUnlock()
	return s.closed
}

// safely runs fn and turns a panic into an error.
func safely(fn func() error) (err error) {
	var pc panics.Catcher
	pc.Try(func() { err = fn() })
	if r := pc.Recovered(); r != nil {
		return fmt.Errorf("%w: %v", app_errors.ErrInternal, r.AsError())
	}
	return err
}
