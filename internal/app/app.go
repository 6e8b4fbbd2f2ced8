package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/viper"

	"polyglot/backend/internal/api"
	"polyglot/backend/internal/assets"
	"polyglot/backend/internal/audio"
	"polyglot/backend/internal/config"
	"polyglot/backend/internal/database"
	"polyglot/backend/internal/llm"
	"polyglot/backend/internal/repository"
	"polyglot/backend/internal/service"
	"polyglot/backend/internal/speech"
)

// App holds the wired application.
type App struct {
	Config       *config.Config
	DB           *sql.DB
	Server       *http.Server
	Conversation *service.ConversationService
	Recorder     *audio.Recorder
}

// NewApp wires every component from cfg. Nothing is started.
func NewApp(cfg *config.Config) (*App, error) {
	db, err := database.InitDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("Successfully connected to SQLite database.")

	repo := repository.NewSQLiteRepository(db)
	assetStore := assets.NewStore(cfg.AssetsDir, cfg.CacheDir)
	ollamaProvider := llm.NewOllamaProvider(cfg.OllamaURL, assetStore)
	settingsService := service.NewSettingsService(cfg.DefaultSettings())
	if err := settingsService.Validate(cfg.DefaultSettings()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("invalid default settings: %w", err)
	}

	conversation := service.NewConversationService(service.Dependencies{
		LLM:         ollamaProvider,
		Transcriber: speech.NewWhisperTranscriber(cfg.WhisperBin, nil),
		Speaker:     speech.NewEspeakVoice(cfg.TTSBin, nil),
		Assets:      assetStore,
		History:     repo,
		Settings:    settingsService,
	}, service.ConversationConfig{
		Model:        llm.ModelRef{Name: cfg.ModelName, Asset: cfg.ModelAsset},
		MaxTokens:    cfg.MaxTokens,
		WhisperModel: cfg.WhisperModel,
		Workers:      cfg.Workers,
	})

	recorder := audio.NewRecorder(
		filepath.Join(cfg.DataDir, audio.RecordingsDir),
		audio.DefaultFormat,
		audio.NewCommandSource(cfg.RecordCommand),
	)

	router := api.NewRouter(api.Handlers{
		Conversation: api.NewConversationHandler(conversation),
		Recording:    api.NewRecordingHandler(recorder, conversation),
		Model:        api.NewModelHandler(service.NewModelService(ollamaProvider)),
		History:      api.NewHistoryHandler(service.NewHistoryService(repo)),
	}, cfg.RateLimitRPS)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.AppPort),
		Handler:           router,
		ReadHeaderTimeout: 20 * time.Second,
		WriteTimeout:      0, // Disabled for the event stream.
		IdleTimeout:       120 * time.Second,
	}

	return &App{
		Config:       cfg,
		DB:           db,
		Server:       server,
		Conversation: conversation,
		Recorder:     recorder,
	}, nil
}

// Close releases the model session and the database.
func (a *App) Close() error {
	return errors.Join(a.Conversation.Close(), a.DB.Close())
}

func Run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		// slog is not yet configured, so use the default logger for this critical error.
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	setupLogger(cfg.LogLevel)

	logConfigSource()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := NewApp(cfg)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		return 1
	}
	defer func() {
		if err := application.Close(); err != nil {
			slog.Error("Failed to shut down cleanly", "error", err)
		}
	}()

	if removed, err := application.Recorder.Purge(); err != nil {
		slog.Warn("Failed to purge old recordings", "error", err)
	} else if removed > 0 {
		slog.Info("Purged old recordings", "count", removed)
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "port", cfg.AppPort)
		serverErr <- application.Server.ListenAndServe()
	}()

	go func() {
		if waitForOllama(ctx, cfg.OllamaURL) {
			application.Conversation.InitializeModel(llm.ModelRef{})
		}
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			return 1
		}
	case <-ctx.Done():
		slog.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := application.Server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown failed", "error", err)
			return 1
		}
	}

	return 0
}

func logConfigSource() {
	configFileUsed := viper.ConfigFileUsed()
	if configFileUsed != "" {
		slog.Info("Successfully loaded configuration from file.", "file", configFileUsed)
	} else {
		slog.Info("Configuration file not found. Using environment variables and defaults.")
	}
}

func setupLogger(logLevel string) {
	var level slog.Level
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}

// waitForOllama blocks until the runtime answers or ctx is cancelled. It
// reports whether the runtime became ready.
func waitForOllama(ctx context.Context, ollamaURL string) bool {
	slog.Info("Waiting for Ollama to be ready...")
	client := &http.Client{Timeout: 2 * time.Second}
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ollamaURL, nil)
		if err != nil {
			slog.Error("Invalid Ollama URL", "url", ollamaURL, "error", err)
			return false
		}
		resp, err := client.Do(req)
		if err == nil {
			if bErr := resp.Body.Close(); bErr != nil {
				slog.Warn("Failed to close response body in ollama health check", "error", bErr)
			}
			if resp.StatusCode == http.StatusOK {
				slog.Info("Ollama is ready.")
				return true
			}
		}
		slog.Debug("Ollama not ready yet, retrying in 3 seconds...", "url", ollamaURL, "error", err)

		select {
		case <-ctx.Done():
			return false
		case <-time.After(3 * time.Second):
		}
	}
}
