package summarizer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// CommandSummarizer runs an external program with the instructions as its
// last argument and the text on stdin. Whatever it prints is the summary.
type CommandSummarizer struct {
	name string
	args []string
}

func NewCommandSummarizer(command []string) *CommandSummarizer {
	return &CommandSummarizer{
		name: command[0],
		args: command[1:],
	}
}

func (s *CommandSummarizer) Summarize(ctx context.Context, input Input) (string, error) {
	if strings.TrimSpace(input.Text) == "" {
		return "", errors.New("input is empty")
	}

	args := append([]string(nil), s.args...)
	if input.Instructions != "" {
		args = append(args, input.Instructions)
	}

	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, s.name, args...) //nolint:gosec // command comes from the user's own config
	cmd.Stdin = strings.NewReader(input.Text)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("run %s: %w: %s", s.name, err, msg)
		}

		return "", fmt.Errorf("run %s: %w", s.name, err)
	}

	summary := strings.TrimSpace(stdout.String())
	if summary == "" {
		return "", fmt.Errorf("%s produced no output", s.name)
	}

	return summary, nil
}
