package service_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	app_errors "polyglot/backend/internal/errors"
	"polyglot/backend/internal/llm"
	mock_llm "polyglot/backend/internal/llm/mocks"
	"polyglot/backend/internal/model"
	mock_repo "polyglot/backend/internal/repository/mocks"
	"polyglot/backend/internal/service"
	mock_speech "polyglot/backend/internal/speech/mocks"
)

const (
	testModel        = "gemma3n:e2b"
	testWhisperModel = "ggml-base.en.bin"
	cachedWhisper    = "/cache/models/ggml-base.en.bin"
)

type Mocks struct {
	llm    *mock_llm.MockSessionManager
	assets *mock_llm.MockAssetResolver
	stt    *mock_speech.MockTranscriber
	voice  *mock_speech.MockSpeaker
	repo   *mock_repo.MockRepository
}

func setupConversationService(t *testing.T) (*service.ConversationService, Mocks) {
	return setupConversationServiceWith(t, model.DefaultSettings())
}

func setupConversationServiceWith(t *testing.T, settings model.Settings) (*service.ConversationService, Mocks) {
	mocks := Mocks{
		llm:    mock_llm.NewMockSessionManager(t),
		assets: mock_llm.NewMockAssetResolver(t),
		stt:    mock_speech.NewMockTranscriber(t),
		voice:  mock_speech.NewMockSpeaker(t),
		repo:   mock_repo.NewMockRepository(t),
	}
	mocks.llm.On("Close").Return(nil).Maybe()

	svc := service.NewConversationService(service.Dependencies{
		LLM:         mocks.llm,
		Transcriber: mocks.stt,
		Speaker:     mocks.voice,
		Assets:      mocks.assets,
		History:     mocks.repo,
		Settings:    service.NewSettingsService(settings),
	}, service.ConversationConfig{
		Model:        llm.ModelRef{Name: testModel},
		MaxTokens:    1000,
		WhisperModel: testWhisperModel,
		Workers:      4,
	})
	// Registered after the mocks, so the pool drains before expectations are asserted.
	t.Cleanup(func() { _ = svc.Close() })

	return svc, mocks
}

// waitFor polls the state until cond holds and returns the matching snapshot.
func waitFor(t *testing.T, svc *service.ConversationService, cond func(model.State) bool) model.State {
	t.Helper()
	require.Eventually(t, func() bool { return cond(svc.State()) }, 2*time.Second, 5*time.Millisecond)
	return svc.State()
}

func idle(st model.State) bool {
	return !st.Thinking && !st.ModelLoading && !st.Transcribing
}

// blockUntilCancelled makes a Generate call hang until its context is cancelled.
func blockUntilCancelled(args mock.Arguments) {
	<-args.Get(0).(context.Context).Done()
}

func translatePrompt(text, target string) string {
	return service.TranslationPrompt(text, false, "English", target)
}

func TestConversationService_SendMessage(t *testing.T) {
	noImage := (*model.Image)(nil)

	t.Run("Success - Text is translated", func(t *testing.T) {
		svc, mocks := setupConversationService(t)

		mocks.llm.On("Generate", mock.Anything, translatePrompt("Hello", "French"), noImage).Return("Bonjour\n", nil).Once()
		mocks.repo.On("AddEntry", mock.Anything, mock.MatchedBy(func(e *model.HistoryEntry) bool {
			return e.Original == "Hello" && e.Translation == "Bonjour" && e.SourceLang == "English" && e.TargetLang == "French"
		})).Return(nil).Once()

		svc.SendMessage(service.TranslationRequest{Text: "  Hello ", SourceLang: "English", TargetLang: "French"})

		st := waitFor(t, svc, idle)
		require.Len(t, st.Messages, 2)
		assert.Equal(t, model.RoleUser, st.Messages[0].Role)
		assert.Equal(t, "Hello", st.Messages[0].Content)

		reply := st.Messages[1]
		assert.Equal(t, model.RoleAssistant, reply.Role)
		assert.Equal(t, model.KindTranslation, reply.Kind)
		assert.Equal(t, "Bonjour", reply.Content)
		assert.Equal(t, "Hello", reply.Original)
		assert.False(t, reply.Pending)
	})

	t.Run("Empty send is ignored", func(t *testing.T) {
		svc, _ := setupConversationService(t)

		svc.SendMessage(service.TranslationRequest{Text: "   ", SourceLang: "English", TargetLang: "French"})

		st := svc.State()
		assert.Empty(t, st.Messages)
		assert.False(t, st.Thinking)
	})

	t.Run("Image only send asks for the object name", func(t *testing.T) {
		svc, mocks := setupConversationService(t)
		img := &model.Image{Data: []byte{0xff, 0xd8}, MIMEType: "image/jpeg"}
		prompt := "Look at the image. Reply with the object name in English, then in Spanish, separated by a newline. Nothing else."

		mocks.llm.On("Generate", mock.Anything, prompt, img).Return("Apple\nManzana", nil).Once()
		mocks.repo.On("AddEntry", mock.Anything, mock.MatchedBy(func(e *model.HistoryEntry) bool { return e.HasImage })).Return(nil).Once()

		svc.SendMessage(service.TranslationRequest{Image: img, SourceLang: "English", TargetLang: "Spanish"})

		st := waitFor(t, svc, idle)
		require.Len(t, st.Messages, 2)
		assert.Same(t, img, st.Messages[0].Image)
		assert.Equal(t, "Apple\nManzana", st.Messages[1].Content)
	})

	t.Run("Vision disabled keeps the image out of the request", func(t *testing.T) {
		settings := model.DefaultSettings()
		settings.VisionEnabled = false
		svc, mocks := setupConversationServiceWith(t, settings)
		img := &model.Image{Data: []byte{0x89, 0x50}, MIMEType: "image/png"}

		mocks.llm.On("Generate", mock.Anything, translatePrompt("What is this?", "German"), noImage).Return("Was ist das?", nil).Once()
		mocks.repo.On("AddEntry", mock.Anything, mock.Anything).Return(nil).Once()

		svc.SendMessage(service.TranslationRequest{Text: "What is this?", Image: img, SourceLang: "English", TargetLang: "German"})

		st := waitFor(t, svc, idle)
		require.Len(t, st.Messages, 2)
		assert.Same(t, img, st.Messages[0].Image, "the user message still shows the picture")
	})

	t.Run("Model not loaded", func(t *testing.T) {
		svc, mocks := setupConversationService(t)
		mocks.llm.On("Generate", mock.Anything, mock.Anything, noImage).Return("", app_errors.ErrNotInitialized).Once()

		svc.SendMessage(service.TranslationRequest{Text: "Hello", SourceLang: "English", TargetLang: "French"})

		st := waitFor(t, svc, idle)
		require.Len(t, st.Messages, 2)
		assert.Equal(t, model.KindError, st.Messages[1].Kind)
		assert.Equal(t, service.NotInitializedReply, st.Messages[1].Content)
		assert.Equal(t, 0, st.PendingCount())
	})

	t.Run("Failure - Generation error replaces the placeholder", func(t *testing.T) {
		svc, mocks := setupConversationService(t)
		mocks.llm.On("Generate", mock.Anything, mock.Anything, noImage).Return("", errors.New("runtime crashed")).Once()

		svc.SendMessage(service.TranslationRequest{Text: "Hello", SourceLang: "English", TargetLang: "French"})

		st := waitFor(t, svc, idle)
		require.Len(t, st.Messages, 2)
		assert.Equal(t, model.KindError, st.Messages[1].Kind)
		assert.Contains(t, st.Messages[1].Content, "runtime crashed")
		assert.Equal(t, "Hello", st.Messages[1].Original)
		assert.Equal(t, 0, st.PendingCount())
	})

	t.Run("Failure - Empty reply is a generation error", func(t *testing.T) {
		svc, mocks := setupConversationService(t)
		mocks.llm.On("Generate", mock.Anything, mock.Anything, noImage).Return("  \n", nil).Once()

		svc.SendMessage(service.TranslationRequest{Text: "Hello", SourceLang: "English", TargetLang: "French"})

		st := waitFor(t, svc, idle)
		require.Len(t, st.Messages, 2)
		assert.Equal(t, model.KindError, st.Messages[1].Kind)
	})

	t.Run("Failure - Panicking model is reported as an error", func(t *testing.T) {
		svc, mocks := setupConversationService(t)
		mocks.llm.On("Generate", mock.Anything, mock.Anything, mock.Anything).
			Run(func(mock.Arguments) { panic("decoder crashed") }).Return("", nil).Once()

		svc.SendMessage(service.TranslationRequest{Text: "Hello", SourceLang: "English", TargetLang: "French"})

		st := waitFor(t, svc, idle)
		require.Len(t, st.Messages, 2)
		assert.Equal(t, model.KindError, st.Messages[1].Kind)
		assert.Contains(t, st.Messages[1].Content, "decoder crashed")
		assert.Equal(t, 0, st.PendingCount())
	})

	t.Run("New send supersedes the pending one", func(t *testing.T) {
		svc, mocks := setupConversationService(t)

		mocks.llm.On("Generate", mock.Anything, translatePrompt("one", "French"), noImage).
			Run(blockUntilCancelled).Return("", context.Canceled).Maybe()
		mocks.llm.On("Generate", mock.Anything, translatePrompt("two", "French"), noImage).Return("deux", nil).Once()
		mocks.repo.On("AddEntry", mock.Anything, mock.Anything).Return(nil).Once()

		svc.SendMessage(service.TranslationRequest{Text: "one", SourceLang: "English", TargetLang: "French"})
		assert.Equal(t, 1, svc.State().PendingCount())

		svc.SendMessage(service.TranslationRequest{Text: "two", SourceLang: "English", TargetLang: "French"})
		assert.Equal(t, 1, svc.State().PendingCount())

		st := waitFor(t, svc, idle)
		require.Len(t, st.Messages, 3)
		assert.Equal(t, "one", st.Messages[0].Content)
		assert.Equal(t, "two", st.Messages[1].Content)
		assert.Equal(t, "deux", st.Messages[2].Content)
		assert.Equal(t, 0, st.PendingCount())
	})
}

func TestConversationService_StopGeneration(t *testing.T) {
	svc, mocks := setupConversationService(t)
	mocks.llm.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Run(blockUntilCancelled).Return("", context.Canceled).Maybe()

	svc.SendMessage(service.TranslationRequest{Text: "Hello", SourceLang: "English", TargetLang: "French"})
	svc.StopGeneration()

	st := svc.State()
	assert.False(t, st.Thinking)
	assert.Equal(t, 0, st.PendingCount())
	require.Len(t, st.Messages, 1)
	assert.Equal(t, "Hello", st.Messages[0].Content)

	require.NoError(t, svc.Close())
	assert.Len(t, svc.State().Messages, 1, "a cancelled generation never lands in the log")
}

func TestConversationService_StopGeneration_KeepsDeliveredReply(t *testing.T) {
	svc, mocks := setupConversationService(t)
	archiving := make(chan struct{})
	release := make(chan struct{})

	mocks.llm.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("Bonjour", nil).Once()
	mocks.repo.On("AddEntry", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		close(archiving)
		<-release
	}).Return(nil).Once()

	svc.SendMessage(service.TranslationRequest{Text: "Hello", SourceLang: "English", TargetLang: "French"})

	// The reply is in the log but the generation has not finished yet.
	<-archiving
	svc.StopGeneration()
	close(release)

	st := waitFor(t, svc, idle)
	require.Len(t, st.Messages, 2)
	assert.Equal(t, model.KindTranslation, st.Messages[1].Kind)
	assert.Equal(t, "Bonjour", st.Messages[1].Content)
}

func TestConversationService_ClearChat(t *testing.T) {
	t.Run("Leaves exactly one informational entry", func(t *testing.T) {
		svc, mocks := setupConversationService(t)
		mocks.llm.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("Hola", nil).Once()
		mocks.repo.On("AddEntry", mock.Anything, mock.Anything).Return(nil).Once()

		svc.SendMessage(service.TranslationRequest{Text: "Hello", SourceLang: "English", TargetLang: "Spanish"})
		waitFor(t, svc, idle)

		svc.ClearChat()

		st := svc.State()
		require.Len(t, st.Messages, 1)
		assert.Equal(t, model.KindInfo, st.Messages[0].Kind)
		assert.Equal(t, service.ClearedNotice, st.Messages[0].Content)
	})

	t.Run("Discards a generation in flight", func(t *testing.T) {
		svc, mocks := setupConversationService(t)
		mocks.llm.On("Generate", mock.Anything, mock.Anything, mock.Anything).
			Run(blockUntilCancelled).Return("", context.Canceled).Maybe()

		svc.SendMessage(service.TranslationRequest{Text: "Hello", SourceLang: "English", TargetLang: "Spanish"})
		svc.ClearChat()
		require.NoError(t, svc.Close())

		st := svc.State()
		require.Len(t, st.Messages, 1)
		assert.False(t, st.Thinking)
	})
}

func TestConversationService_InitializeModel(t *testing.T) {
	defaultOpts := llm.OptionsFromSettings(model.DefaultSettings(), 1000)

	t.Run("Success - Configured model is loaded", func(t *testing.T) {
		svc, mocks := setupConversationService(t)
		mocks.llm.On("Initialize", mock.Anything, llm.ModelRef{Name: testModel}, defaultOpts).Return(nil).Once()

		svc.InitializeModel(llm.ModelRef{})

		st := waitFor(t, svc, idle)
		assert.Empty(t, st.Messages)
	})

	t.Run("Failure - Load error is the only log entry", func(t *testing.T) {
		svc, mocks := setupConversationService(t)
		ref := llm.ModelRef{Name: "custom", Asset: "custom.gguf"}
		mocks.llm.On("Initialize", mock.Anything, ref, defaultOpts).Return(errors.New("model file missing")).Once()

		svc.InitializeModel(ref)

		st := waitFor(t, svc, idle)
		require.Len(t, st.Messages, 1)
		assert.Equal(t, model.KindError, st.Messages[0].Kind)
		assert.Equal(t, "Error loading model: model file missing", st.Messages[0].Content)
	})

	t.Run("Failure - Observers see loading end with the error", func(t *testing.T) {
		svc, mocks := setupConversationService(t)
		events, unsubscribe := svc.Subscribe()
		defer unsubscribe()
		mocks.llm.On("Initialize", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("out of memory")).Once()

		svc.InitializeModel(llm.ModelRef{})

		waitForState(t, events, func(st model.State) bool { return st.ModelLoading })
		st := waitForState(t, events, func(st model.State) bool { return !st.ModelLoading })
		require.Len(t, st.Messages, 1)
		assert.Equal(t, "Error loading model: out of memory", st.Messages[0].Content)
	})

	t.Run("Failure - Panicking load clears the loading flag", func(t *testing.T) {
		svc, mocks := setupConversationService(t)
		mocks.llm.On("Initialize", mock.Anything, mock.Anything, mock.Anything).
			Run(func(mock.Arguments) { panic("bad weights") }).Return(nil).Once()

		svc.InitializeModel(llm.ModelRef{})

		st := waitFor(t, svc, idle)
		require.Len(t, st.Messages, 1)
		assert.Equal(t, model.KindError, st.Messages[0].Kind)
		assert.Contains(t, st.Messages[0].Content, "bad weights")
	})

	t.Run("Stale failure does not override a newer load", func(t *testing.T) {
		svc, mocks := setupConversationService(t)
		release := make(chan struct{})
		stale := llm.ModelRef{Name: "stale"}
		mocks.llm.On("Initialize", mock.Anything, stale, defaultOpts).
			Run(func(mock.Arguments) { <-release }).Return(errors.New("out of memory")).Once()
		mocks.llm.On("Initialize", mock.Anything, llm.ModelRef{Name: testModel}, defaultOpts).Return(nil).Once()

		svc.InitializeModel(stale)
		svc.InitializeModel(llm.ModelRef{})
		waitFor(t, svc, idle)

		close(release)
		require.NoError(t, svc.Close())

		st := svc.State()
		assert.Empty(t, st.Messages)
		assert.False(t, st.ModelLoading)
	})
}

func TestConversationService_TranscribeAndSend(t *testing.T) {
	recording := func(t *testing.T) string {
		path := filepath.Join(t.TempDir(), "recording_1.wav")
		require.NoError(t, os.WriteFile(path, make([]byte, 64), 0600))
		return path
	}

	t.Run("Success - Transcript is sent and the recording removed", func(t *testing.T) {
		svc, mocks := setupConversationService(t)
		audioPath := recording(t)

		mocks.assets.On("Ensure", "models/"+testWhisperModel, "models").Return(cachedWhisper, nil).Once()
		mocks.stt.On("Transcribe", mock.Anything, audioPath, cachedWhisper, "en").Return("Good morning", nil).Once()
		mocks.llm.On("Generate", mock.Anything, translatePrompt("Good morning", "German"), (*model.Image)(nil)).Return("Guten Morgen", nil).Once()
		mocks.repo.On("AddEntry", mock.Anything, mock.Anything).Return(nil).Once()

		require.NoError(t, svc.TranscribeAndSend(audioPath, "English", "German"))

		st := waitFor(t, svc, idle)
		require.Len(t, st.Messages, 2)
		assert.Equal(t, "Good morning", st.Messages[0].Content)
		assert.Equal(t, "Guten Morgen", st.Messages[1].Content)
		assert.NoFileExists(t, audioPath)
	})

	t.Run("Concurrent call is rejected without touching the log", func(t *testing.T) {
		svc, mocks := setupConversationService(t)
		audioPath := recording(t)
		release := make(chan struct{})

		mocks.assets.On("Ensure", mock.Anything, mock.Anything).Return(cachedWhisper, nil).Once()
		mocks.stt.On("Transcribe", mock.Anything, audioPath, cachedWhisper, "en").
			Run(func(mock.Arguments) { <-release }).Return("", nil).Once()

		require.NoError(t, svc.TranscribeAndSend(audioPath, "English", "French"))
		assert.True(t, svc.State().Transcribing)

		err := svc.TranscribeAndSend(audioPath, "English", "French")
		assert.ErrorIs(t, err, app_errors.ErrBusy)
		assert.Empty(t, svc.State().Messages)

		close(release)
		st := waitFor(t, svc, idle)
		assert.Empty(t, st.Messages, "silence produces no message")
	})

	t.Run("Failure - Transcriber error raises a notification", func(t *testing.T) {
		svc, mocks := setupConversationService(t)
		audioPath := recording(t)
		events, unsubscribe := svc.Subscribe()
		defer unsubscribe()

		mocks.assets.On("Ensure", mock.Anything, mock.Anything).Return(cachedWhisper, nil).Once()
		mocks.stt.On("Transcribe", mock.Anything, audioPath, cachedWhisper, "en").Return("", errors.New("exit status 1")).Once()

		require.NoError(t, svc.TranscribeAndSend(audioPath, "English", "French"))
		waitFor(t, svc, idle)

		n := findNotification(t, events)
		assert.Equal(t, model.LevelError, n.Level)
		assert.Equal(t, "Transcription failed", n.Text)
		assert.Empty(t, svc.State().Messages)
		assert.FileExists(t, audioPath)
	})

	t.Run("Transcribing ends once the translation starts", func(t *testing.T) {
		svc, mocks := setupConversationService(t)
		first, second := recording(t), recording(t)

		mocks.assets.On("Ensure", mock.Anything, mock.Anything).Return(cachedWhisper, nil).Twice()
		mocks.stt.On("Transcribe", mock.Anything, first, cachedWhisper, "en").Return("Good morning", nil).Once()
		mocks.stt.On("Transcribe", mock.Anything, second, cachedWhisper, "en").Return("", nil).Once()
		mocks.llm.On("Generate", mock.Anything, translatePrompt("Good morning", "German"), (*model.Image)(nil)).
			Run(blockUntilCancelled).Return("", context.Canceled).Once()

		require.NoError(t, svc.TranscribeAndSend(first, "English", "German"))
		waitFor(t, svc, func(st model.State) bool { return st.Thinking && !st.Transcribing })

		require.NoError(t, svc.TranscribeAndSend(second, "English", "German"), "a running translation does not block voice input")
		waitFor(t, svc, func(st model.State) bool { return !st.Transcribing })

		svc.StopGeneration()
		st := waitFor(t, svc, idle)
		require.Len(t, st.Messages, 1)
		assert.Equal(t, "Good morning", st.Messages[0].Content)
	})

	t.Run("Silence raises a notification", func(t *testing.T) {
		svc, mocks := setupConversationService(t)
		audioPath := recording(t)
		events, unsubscribe := svc.Subscribe()
		defer unsubscribe()

		mocks.assets.On("Ensure", mock.Anything, mock.Anything).Return(cachedWhisper, nil).Once()
		mocks.stt.On("Transcribe", mock.Anything, audioPath, cachedWhisper, "fr").Return("  ", nil).Once()

		require.NoError(t, svc.TranscribeAndSend(audioPath, "French", "English"))
		waitFor(t, svc, idle)

		n := findNotification(t, events)
		assert.Equal(t, model.LevelInfo, n.Level)
		assert.Equal(t, "No speech detected", n.Text)
		assert.Empty(t, svc.State().Messages)
	})

	t.Run("Failure - Panicking transcriber clears the flag", func(t *testing.T) {
		svc, mocks := setupConversationService(t)
		audioPath := recording(t)
		events, unsubscribe := svc.Subscribe()
		defer unsubscribe()

		mocks.assets.On("Ensure", mock.Anything, mock.Anything).Return(cachedWhisper, nil).Once()
		mocks.stt.On("Transcribe", mock.Anything, audioPath, cachedWhisper, "en").
			Run(func(mock.Arguments) { panic("segfault in decoder") }).Return("", nil).Once()

		require.NoError(t, svc.TranscribeAndSend(audioPath, "English", "French"))
		waitFor(t, svc, idle)

		n := findNotification(t, events)
		assert.Equal(t, "Transcription failed", n.Text)
	})
}

func TestConversationService_ApplySettings(t *testing.T) {
	custom := model.Settings{TopK: 10, TopP: 0.5, Temperature: 0.2, VisionEnabled: false}

	t.Run("Success - Settings reload the session and clear the log", func(t *testing.T) {
		svc, mocks := setupConversationService(t)
		mocks.llm.On("Initialize", mock.Anything, llm.ModelRef{Name: testModel}, llm.OptionsFromSettings(custom, 1000)).Return(nil).Once()

		require.NoError(t, svc.ApplySettings(custom))

		st := waitFor(t, svc, idle)
		assert.Equal(t, custom, st.Settings)
		require.Len(t, st.Messages, 1)
		assert.Equal(t, service.ClearedNotice, st.Messages[0].Content)
	})

	t.Run("Failure - Out of range values are rejected", func(t *testing.T) {
		svc, _ := setupConversationService(t)

		err := svc.ApplySettings(model.Settings{TopK: 0, TopP: 1.5, Temperature: 0.5})
		assert.ErrorIs(t, err, app_errors.ErrValidation)
		assert.Equal(t, model.DefaultSettings(), svc.State().Settings)
	})

	t.Run("Reset restores the defaults", func(t *testing.T) {
		svc, mocks := setupConversationService(t)
		mocks.llm.On("Initialize", mock.Anything, mock.Anything, mock.Anything).Return(nil).Twice()

		require.NoError(t, svc.ApplySettings(custom))
		waitFor(t, svc, idle)

		defaults := svc.ResetSettings()
		assert.Equal(t, model.DefaultSettings(), defaults)

		st := waitFor(t, svc, idle)
		assert.Equal(t, model.DefaultSettings(), st.Settings)
	})
}

func TestConversationService_Speak(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc, mocks := setupConversationService(t)
		mocks.voice.On("Speak", mock.Anything, "Bonjour", "French").Return(nil).Once()

		svc.Speak("Bonjour", "French")
		require.NoError(t, svc.Close())
	})

	t.Run("Missing voice offers to install voice data", func(t *testing.T) {
		svc, mocks := setupConversationService(t)
		events, unsubscribe := svc.Subscribe()
		defer unsubscribe()

		mocks.voice.On("Speak", mock.Anything, "Hallo", "German").
			Return(fmt.Errorf("%w: German", app_errors.ErrVoiceUnavailable)).Once()

		svc.Speak("Hallo", "German")
		require.NoError(t, svc.Close())

		n := findNotification(t, events)
		assert.Equal(t, model.LevelWarning, n.Level)
		assert.Equal(t, model.ActionInstallVoiceData, n.Action)
		assert.Empty(t, svc.State().Messages)
	})

	t.Run("Playback failure raises a notification", func(t *testing.T) {
		svc, mocks := setupConversationService(t)
		events, unsubscribe := svc.Subscribe()
		defer unsubscribe()

		mocks.voice.On("Speak", mock.Anything, "Hola", "Spanish").Return(errors.New("audio device busy")).Once()

		svc.Speak("Hola", "Spanish")
		require.NoError(t, svc.Close())

		n := findNotification(t, events)
		assert.Equal(t, model.LevelError, n.Level)
		assert.Equal(t, "Speech playback failed", n.Text)
		assert.Empty(t, n.Action)
	})

	t.Run("Blank text is ignored", func(t *testing.T) {
		svc, _ := setupConversationService(t)
		svc.Speak("  ", "French")
		require.NoError(t, svc.Close())
	})
}

func TestConversationService_FollowUps(t *testing.T) {
	svc, mocks := setupConversationService(t)
	prompt := service.FollowUpPrompt("Bonjour", "Is it formal?", "French")
	mocks.llm.On("Generate", mock.Anything, prompt, (*model.Image)(nil)).Return("Oui, c'est neutre.", nil).Once()

	svc.StartDiscussion()
	svc.AskFollowUp("  ", "Bonjour", "French")
	assert.Empty(t, svc.FollowUps())

	svc.AskFollowUp("Is it formal?", "Bonjour", "French")

	require.Eventually(t, func() bool { return len(svc.FollowUps()) == 2 }, 2*time.Second, 5*time.Millisecond)
	msgs := svc.FollowUps()
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, "Is it formal?", msgs[0].Content)
	assert.Equal(t, model.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "Oui, c'est neutre.", msgs[1].Content)
	assert.Empty(t, svc.State().Messages, "follow-ups never enter the main log")

	svc.StartDiscussion()
	assert.Empty(t, svc.FollowUps())
}

func TestConversationService_FollowUps_Failure(t *testing.T) {
	svc, mocks := setupConversationService(t)
	mocks.llm.On("Generate", mock.Anything, mock.Anything, (*model.Image)(nil)).Return("", errors.New("context window exceeded")).Once()

	svc.StartDiscussion()
	svc.AskFollowUp("Why this word?", "Bonjour", "French")

	require.Eventually(t, func() bool { return len(svc.FollowUps()) == 2 }, 2*time.Second, 5*time.Millisecond)
	answer := svc.FollowUps()[1]
	assert.Equal(t, model.KindError, answer.Kind)
	assert.Equal(t, "Error generating response: context window exceeded", answer.Content)
	assert.Equal(t, "Why this word?", answer.Original)

	st := svc.State()
	assert.Empty(t, st.Messages, "follow-up errors stay out of the main log")
	assert.False(t, st.Thinking)
}

func TestConversationService_AfterClose(t *testing.T) {
	svc, _ := setupConversationService(t)
	require.NoError(t, svc.Close())

	svc.SendMessage(service.TranslationRequest{Text: "Hello", SourceLang: "English", TargetLang: "French"})
	svc.InitializeModel(llm.ModelRef{})
	err := svc.TranscribeAndSend(filepath.Join(t.TempDir(), "recording_1.wav"), "English", "French")

	assert.ErrorIs(t, err, app_errors.ErrInvalidState)
	st := svc.State()
	assert.True(t, idle(st), "no flag stays set after close")
	assert.Equal(t, 0, st.PendingCount())
}

// waitForState drains events until a state snapshot satisfies cond.
func waitForState(t *testing.T, events <-chan model.Event, cond func(model.State) bool) model.State {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Type == model.EventState && cond(*ev.State) {
				return *ev.State
			}
		case <-deadline:
			t.Fatal("state never reached")
			return model.State{}
		}
	}
}

// findNotification drains buffered events and returns the first notification.
func findNotification(t *testing.T, events <-chan model.Event) model.Notification {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Type == model.EventNotification {
				return *ev.Notification
			}
		case <-deadline:
			t.Fatal("no notification received")
			return model.Notification{}
		}
	}
}
