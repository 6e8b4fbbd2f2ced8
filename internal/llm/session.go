package llm

import (
	"context"

	"polyglot/backend/internal/model"
)

// ModelRef identifies the model a session is built from. Asset optionally
// names a weights file shipped with the application that has to be imported
// into the runtime before the model can be loaded.
type ModelRef struct {
	Name  string `json:"name"`
	Asset string `json:"asset,omitempty"`
}

// Options are the per-session sampling parameters.
type Options struct {
	TopK          int
	TopP          float64
	Temperature   float64
	VisionEnabled bool
	MaxTokens     int
}

// OptionsFromSettings builds session options from the user-facing settings.
func OptionsFromSettings(s model.Settings, maxTokens int) Options {
	return Options{
		TopK:          s.TopK,
		TopP:          s.TopP,
		Temperature:   s.Temperature,
		VisionEnabled: s.VisionEnabled,
		MaxTokens:     maxTokens,
	}
}

// SessionManager owns the lifecycle of one loaded model and its inference session.
//
// Initialize is idempotent for an identical ref and options. Generate before a
// successful Initialize returns errors.ErrNotInitialized. Generate blocks until
// the full reply is available; callers run it off the interactive path.
type SessionManager interface {
	Initialize(ctx context.Context, ref ModelRef, opts Options) error
	Generate(ctx context.Context, prompt string, image *model.Image) (string, error)
	Close() error
}

// ModelLister lists the models the runtime can load.
type ModelLister interface {
	ListModels(ctx context.Context) (*ListModelsResponse, error)
}

// AssetResolver returns the local path of a bundled asset, caching it if needed.
type AssetResolver interface {
	Ensure(relPath, subdir string) (string, error)
}
