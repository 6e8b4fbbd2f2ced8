package speech

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/language"

	app_errors "polyglot/backend/internal/errors"
	"polyglot/backend/internal/model"
)

// Speaker plays text aloud in the voice of a selectable language.
type Speaker interface {
	Speak(ctx context.Context, text, lang string) error
}

// EspeakVoice speaks through the espeak-ng executable.
type EspeakVoice struct {
	bin string
	run CommandRunner

	mu     sync.Mutex
	voices []language.Tag
}

// NewEspeakVoice creates a Speaker for the executable bin. run may be nil to use ExecRunner.
func NewEspeakVoice(bin string, run CommandRunner) *EspeakVoice {
	if run == nil {
		run = ExecRunner
	}
	return &EspeakVoice{bin: bin, run: run}
}

// Speak resolves the voice for lang and plays text. Unknown language names use
// the English voice; a known language without installed voice data yields
// errors.ErrVoiceUnavailable.
func (v *EspeakVoice) Speak(ctx context.Context, text, lang string) error {
	tag, err := v.ResolveVoice(ctx, lang)
	if err != nil {
		return err
	}
	if _, err := v.run(ctx, strings.NewReader(text), v.bin, "-v", tag.String(), "--stdin"); err != nil {
		return fmt.Errorf("speech synthesis failed: %w", err)
	}
	return nil
}

// ResolveVoice returns the installed voice tag used for lang.
func (v *EspeakVoice) ResolveVoice(ctx context.Context, lang string) (language.Tag, error) {
	want, _ := model.LanguageTag(lang)

	voices, err := v.installedVoices(ctx)
	if err != nil {
		return language.Und, err
	}
	if len(voices) == 0 {
		return language.Und, fmt.Errorf("%w: no voices installed", app_errors.ErrVoiceUnavailable)
	}

	_, idx, conf := language.NewMatcher(voices).Match(want)
	if conf < language.High {
		return language.Und, fmt.Errorf("%w: %s", app_errors.ErrVoiceUnavailable, want)
	}
	return voices[idx], nil
}

func (v *EspeakVoice) installedVoices(ctx context.Context) ([]language.Tag, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.voices != nil {
		return v.voices, nil
	}
	out, err := v.run(ctx, nil, v.bin, "--voices")
	if err != nil {
		return nil, fmt.Errorf("could not list voices: %w", err)
	}
	v.voices = parseVoices(out)
	return v.voices, nil
}

// parseVoices reads the language column of `espeak-ng --voices`.
func parseVoices(out []byte) []language.Tag {
	tags := []language.Tag{}
	seen := map[string]bool{}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	header := true
	for scanner.Scan() {
		if header {
			header = false
			continue
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || seen[fields[1]] {
			continue
		}
		tag, err := language.Parse(fields[1])
		if err != nil {
			continue
		}
		seen[fields[1]] = true
		tags = append(tags, tag)
	}
	return tags
}
