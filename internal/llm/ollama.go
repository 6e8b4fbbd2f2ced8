package llm

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	app_errors "polyglot/backend/internal/errors"
	"polyglot/backend/internal/model"
)

// modelCacheDir is the cache subdirectory bundled model weights are copied to.
const modelCacheDir = "llm_cache"

// keepAlive is how long the runtime keeps a preloaded model in memory.
const keepAlive = "30m"

// Message is a single chat turn sent to the runtime.
type Message struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"` // Base64 encoded.
}

// RequestOptions are the sampling parameters understood by the runtime.
type RequestOptions struct {
	TopK        int     `json:"top_k,omitempty"`
	TopP        float64 `json:"top_p"`
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatRequest struct {
	Model    string          `json:"model"`
	Messages []Message       `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  *RequestOptions `json:"options,omitempty"`
}

type chatResponse struct {
	Model   string  `json:"model"`
	Message Message `json:"message"`
	Done    bool    `json:"done"`
}

type generateRequest struct {
	Model     string `json:"model"`
	Prompt    string `json:"prompt,omitempty"`
	Stream    bool   `json:"stream"`
	KeepAlive any    `json:"keep_alive,omitempty"`
}

type createRequest struct {
	Model  string            `json:"model"`
	Files  map[string]string `json:"files"`
	Stream bool              `json:"stream"`
}

// ModelInfo describes a locally available model.
type ModelInfo struct {
	Name       string    `json:"name"`
	ModifiedAt time.Time `json:"modified_at"`
	Size       int64     `json:"size"`
}

// ListModelsResponse is the response of /api/tags.
type ListModelsResponse struct {
	Models []ModelInfo `json:"models"`
}

// OllamaProvider is a SessionManager backed by a local Ollama runtime.
type OllamaProvider struct {
	client *http.Client
	url    string
	assets AssetResolver

	mu     sync.Mutex
	loaded bool
	ref    ModelRef
	opts   Options
}

// NewOllamaProvider creates a provider for the runtime at url. assets may be
// nil when no model weights are bundled.
func NewOllamaProvider(url string, assets AssetResolver) *OllamaProvider {
	return &OllamaProvider{
		client: &http.Client{},
		url:    url,
		assets: assets,
	}
}

// Initialize loads ref with opts. A call with the ref and options that are
// already loaded returns immediately; anything else unloads the current
// session first.
func (p *OllamaProvider) Initialize(ctx context.Context, ref ModelRef, opts Options) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.loaded && p.ref == ref && p.opts == opts {
		slog.Debug("Model session already initialized", "model", ref.Name)
		return nil
	}

	if p.loaded {
		if err := p.unload(ctx, p.ref.Name); err != nil {
			slog.Warn("Failed to unload previous model", "model", p.ref.Name, "error", err)
		}
		p.loaded = false
	}

	if ref.Asset != "" {
		if p.assets == nil {
			return fmt.Errorf("model asset %s configured but no asset store available", ref.Asset)
		}
		path, err := p.assets.Ensure(ref.Asset, modelCacheDir)
		if err != nil {
			return fmt.Errorf("could not prepare model asset: %w", err)
		}
		if err := p.importModel(ctx, ref.Name, path); err != nil {
			return fmt.Errorf("could not import model asset: %w", err)
		}
	}

	if err := p.preload(ctx, ref.Name); err != nil {
		return fmt.Errorf("could not load model %s: %w", ref.Name, err)
	}

	p.loaded, p.ref, p.opts = true, ref, opts
	slog.Info("Model session initialized", "model", ref.Name, "top_k", opts.TopK, "top_p", opts.TopP,
		"temperature", opts.Temperature, "vision", opts.VisionEnabled)
	return nil
}

// Generate sends prompt (plus image when vision is enabled) and returns the full reply.
// The session options are captured when the call starts.
func (p *OllamaProvider) Generate(ctx context.Context, prompt string, image *model.Image) (string, error) {
	p.mu.Lock()
	if !p.loaded {
		p.mu.Unlock()
		return "", app_errors.ErrNotInitialized
	}
	ref, opts := p.ref, p.opts
	p.mu.Unlock()

	msg := Message{Role: "user", Content: prompt}
	if image != nil && opts.VisionEnabled {
		msg.Images = []string{base64.StdEncoding.EncodeToString(image.Data)}
	}
	req := chatRequest{
		Model:    ref.Name,
		Messages: []Message{msg},
		Stream:   false,
		Options: &RequestOptions{
			TopK:        opts.TopK,
			TopP:        opts.TopP,
			Temperature: opts.Temperature,
			NumPredict:  opts.MaxTokens,
		},
	}

	var resp chatResponse
	if err := p.postJSON(ctx, "/api/chat", req, &resp); err != nil {
		return "", err
	}
	return resp.Message.Content, nil
}

// Close unloads the model. Later Generate calls report ErrNotInitialized.
func (p *OllamaProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.loaded {
		return nil
	}
	p.loaded = false
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return p.unload(ctx, p.ref.Name)
}

// ListModels returns the models available in the runtime.
func (p *OllamaProvider) ListModels(ctx context.Context) (*ListModelsResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("could not create http request: %w", err)
	}
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}
	var out ListModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("could not decode response: %w", err)
	}
	return &out, nil
}

// preload asks the runtime to load the model without generating anything.
func (p *OllamaProvider) preload(ctx context.Context, name string) error {
	return p.postJSON(ctx, "/api/generate", generateRequest{Model: name, KeepAlive: keepAlive}, nil)
}

func (p *OllamaProvider) unload(ctx context.Context, name string) error {
	return p.postJSON(ctx, "/api/generate", generateRequest{Model: name, KeepAlive: 0}, nil)
}

// importModel registers a local weights file under name: the file is pushed
// as a blob (skipped when the runtime already has it) and a model is created from it.
func (p *OllamaProvider) importModel(ctx context.Context, name, path string) error {
	digest, err := fileDigest(path)
	if err != nil {
		return err
	}
	blobURL := p.url + "/api/blobs/" + digest

	headReq, err := http.NewRequestWithContext(ctx, http.MethodHead, blobURL, nil)
	if err != nil {
		return fmt.Errorf("could not create http request: %w", err)
	}
	headResp, err := p.client.Do(headReq)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	headResp.Body.Close()

	if headResp.StatusCode != http.StatusOK {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("could not open model file: %w", err)
		}
		defer f.Close()

		pushReq, err := http.NewRequestWithContext(ctx, http.MethodPost, blobURL, f)
		if err != nil {
			return fmt.Errorf("could not create http request: %w", err)
		}
		pushResp, err := p.client.Do(pushReq)
		if err != nil {
			return fmt.Errorf("blob upload failed: %w", err)
		}
		defer pushResp.Body.Close()
		if pushResp.StatusCode != http.StatusCreated && pushResp.StatusCode != http.StatusOK {
			return statusError(pushResp)
		}
		slog.Info("Uploaded model blob", "digest", digest)
	}

	req := createRequest{
		Model:  name,
		Files:  map[string]string{filepath.Base(path): digest},
		Stream: false,
	}
	return p.postJSON(ctx, "/api/create", req, nil)
}

func (p *OllamaProvider) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("could not marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("could not create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("could not decode response: %w", err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("api returned non-200 status %d: %s", resp.StatusCode, string(bodyBytes))
}

func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("could not open model file: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("could not hash model file: %w", err)
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil)), nil
}
