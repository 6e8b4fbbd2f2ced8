package audio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	app_errors "polyglot/backend/internal/errors"
)

// RecordingsDir is the data subdirectory recordings are written to.
const RecordingsDir = "whisper_recordings"

// recordingExts are the extensions Purge treats as stale recordings.
var recordingExts = map[string]bool{".wav": true, ".pcm": true, ".aac": true, ".m4a": true}

// Handle identifies one in-progress recording.
type Handle struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	StartedAt time.Time `json:"started_at"`
}

type recording struct {
	handle  Handle
	file    *os.File
	stream  io.ReadCloser
	done    chan struct{}
	written int64
	copyErr error
}

// Recorder is a two-state machine (idle, recording) writing one WAV file per
// recording. Once Stop returns a path the Recorder keeps no reference to it.
type Recorder struct {
	dir    string
	format Format
	source Source
	now    func() time.Time

	mu     sync.Mutex
	active *recording
}

// NewRecorder creates a Recorder writing into dir.
func NewRecorder(dir string, format Format, source Source) *Recorder {
	return &Recorder{dir: dir, format: format, source: source, now: time.Now}
}

// Current returns the handle of the recording in progress, if any.
func (r *Recorder) Current() (Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return Handle{}, false
	}
	return r.active.handle, true
}

// Start begins capturing. It fails with ErrInvalidState while already recording.
// The capture outlives ctx cancellation; only Stop ends it.
func (r *Recorder) Start(ctx context.Context) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil {
		return Handle{}, fmt.Errorf("%w: already recording", app_errors.ErrInvalidState)
	}
	if err := os.MkdirAll(r.dir, 0750); err != nil {
		return Handle{}, fmt.Errorf("failed to create recordings directory: %w", err)
	}

	file, err := r.createFile()
	if err != nil {
		return Handle{}, err
	}
	// Reserve room for the header; it is written once the data size is known.
	if _, err := file.Write(make([]byte, WAVHeaderSize)); err != nil {
		r.discard(file)
		return Handle{}, fmt.Errorf("failed to reserve wav header: %w", err)
	}

	stream, err := r.source.Open(context.WithoutCancel(ctx), r.format)
	if err != nil {
		r.discard(file)
		return Handle{}, fmt.Errorf("failed to open audio source: %w", err)
	}

	rec := &recording{
		handle: Handle{ID: uuid.NewString(), Path: file.Name(), StartedAt: r.now()},
		file:   file,
		stream: stream,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(rec.done)
		rec.written, rec.copyErr = io.Copy(file, stream)
	}()

	r.active = rec
	slog.Info("Recording started", "path", rec.handle.Path)
	return rec.handle, nil
}

// Stop ends the recording identified by h and returns the finished WAV file.
// It fails with ErrInvalidState when h is not the active recording.
func (r *Recorder) Stop(h Handle) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active == nil || r.active.handle.ID != h.ID {
		return "", fmt.Errorf("%w: not recording", app_errors.ErrInvalidState)
	}
	rec := r.active
	r.active = nil

	if err := rec.stream.Close(); err != nil {
		slog.Warn("Failed to close audio source", "error", err)
	}
	<-rec.done
	if rec.copyErr != nil {
		slog.Debug("Audio capture ended with error", "error", rec.copyErr)
	}

	if err := r.finalize(rec); err != nil {
		r.discard(rec.file)
		return "", err
	}
	slog.Info("Recording stopped", "path", rec.handle.Path, "bytes", rec.written,
		"duration", r.now().Sub(rec.handle.StartedAt))
	return rec.handle.Path, nil
}

// finalize drops a trailing partial sample frame and writes the header.
func (r *Recorder) finalize(rec *recording) error {
	align := int64(r.format.BlockAlign())
	dataSize := rec.written - rec.written%align

	if err := rec.file.Truncate(WAVHeaderSize + dataSize); err != nil {
		return fmt.Errorf("failed to truncate recording: %w", err)
	}
	if _, err := rec.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek recording: %w", err)
	}
	if err := WriteWAVHeader(rec.file, r.format, uint32(dataSize)); err != nil {
		return err
	}
	if err := rec.file.Close(); err != nil {
		return fmt.Errorf("failed to close recording: %w", err)
	}
	return nil
}

// Purge deletes stale recordings left by earlier runs, skipping the active one.
func (r *Recorder) Purge() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read recordings directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "recording_") || !recordingExts[filepath.Ext(name)] {
			continue
		}
		path := filepath.Join(r.dir, name)
		if r.active != nil && r.active.handle.Path == path {
			continue
		}
		if err := os.Remove(path); err != nil {
			slog.Warn("Failed to delete stale recording", "path", path, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}

// createFile opens recording_<unix_millis>.wav, bumping the timestamp on collision.
func (r *Recorder) createFile() (*os.File, error) {
	millis := r.now().UnixMilli()
	for i := 0; i < 100; i++ {
		path := filepath.Join(r.dir, fmt.Sprintf("recording_%d.wav", millis+int64(i)))
		file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0600)
		if err == nil {
			return file, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to create recording file: %w", err)
		}
	}
	return nil, fmt.Errorf("failed to create recording file: too many collisions")
}

func (r *Recorder) discard(file *os.File) {
	_ = file.Close()
	if err := os.Remove(file.Name()); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to remove discarded recording", "path", file.Name(), "error", err)
	}
}
