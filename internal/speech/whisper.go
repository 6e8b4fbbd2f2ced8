package speech

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ErrTranscription wraps every failure reported by the speech recognizer.
var ErrTranscription = errors.New("transcription failed")

// Transcriber turns a complete, closed audio file into text. Implementations
// are not safe for concurrent use; callers guard against overlapping calls.
type Transcriber interface {
	// lang is a BCP 47 base language such as "fr"; empty lets the recognizer
	// detect it.
	Transcribe(ctx context.Context, audioPath, modelPath, lang string) (string, error)
}

// WhisperTranscriber runs the whisper.cpp command line tool once per file.
type WhisperTranscriber struct {
	bin string
	run CommandRunner
}

// NewWhisperTranscriber creates a transcriber for the executable bin. run may
// be nil to use ExecRunner.
func NewWhisperTranscriber(bin string, run CommandRunner) *WhisperTranscriber {
	if run == nil {
		run = ExecRunner
	}
	return &WhisperTranscriber{bin: bin, run: run}
}

// Transcribe decodes audioPath with the model at modelPath using greedy
// sampling and returns the recognized segments joined by spaces.
func (w *WhisperTranscriber) Transcribe(ctx context.Context, audioPath, modelPath, lang string) (string, error) {
	if lang == "" {
		lang = "auto"
	}
	start := time.Now()
	args := []string{
		"-m", modelPath,
		"-f", audioPath,
		"-l", lang,
		"-nt", // no timestamps
		"-np", // no progress or system info
	}

	out, err := w.run(ctx, nil, w.bin, args...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscription, err)
	}

	text := joinSegments(out)
	slog.Debug("Transcription finished", "audio", audioPath, "language", lang, "chars", len(text), "duration", time.Since(start))
	return text, nil
}

// joinSegments merges the printed segments, dropping whisper's markers for
// silence such as "[BLANK_AUDIO]".
func joinSegments(out []byte) string {
	var parts []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || (strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]")) {
			continue
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, " ")
}
