package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/mattn/go-shellwords"
)

// Player pipes WAV audio to an external playback command's stdin.
type Player struct {
	cmd []string
}

// NewPlayer parses a shell-style play command (e.g. "play -", "aplay -q").
func NewPlayer(command string) (*Player, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse play command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("play command empty")
	}
	return &Player{cmd: args}, nil
}

// Play runs the command with the WAV bytes on stdin and waits for it to
// finish. Command output is discarded.
func (p *Player) Play(ctx context.Context, wavData []byte) error {
	base := p.cmd[0]
	args := append([]string{}, p.cmd[1:]...)
	cmd := exec.CommandContext(ctx, base, args...)
	cmd.Stdin = bytes.NewReader(wavData)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("play command failed: %w", err)
	}
	return nil
}
