package audio

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Source opens a stream of raw PCM samples from the microphone. Closing the
// stream stops the capture.
type Source interface {
	Open(ctx context.Context, f Format) (io.ReadCloser, error)
}

// CommandSource captures audio by running a command that writes raw PCM to
// its standard output, e.g. "arecord -q -t raw -f S16_LE -c 1 -r 16000".
type CommandSource struct {
	command []string
}

// NewCommandSource splits command on whitespace.
func NewCommandSource(command string) *CommandSource {
	return &CommandSource{command: strings.Fields(command)}
}

func (s *CommandSource) Open(ctx context.Context, f Format) (io.ReadCloser, error) {
	if len(s.command) == 0 {
		return nil, fmt.Errorf("no capture command configured")
	}
	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, s.command[0], s.command[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open capture pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start capture command: %w", err)
	}
	return &commandStream{ReadCloser: stdout, cmd: cmd, cancel: cancel}, nil
}

type commandStream struct {
	io.ReadCloser
	cmd    *exec.Cmd
	cancel context.CancelFunc
}

// Close kills the capture process. The process exiting on the signal is the
// normal way a recording ends, so its exit status is ignored.
func (s *commandStream) Close() error {
	s.cancel()
	_ = s.cmd.Wait()
	return nil
}
