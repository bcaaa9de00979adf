package fetch

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CmdRunner executes external commands.
type CmdRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

// NewCmdRunner returns a CmdRunner backed by os/exec.
func NewCmdRunner() CmdRunner {
	return execRunner{}
}

// Run returns stdout. On failure the error includes the tail of stderr.
func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 500 {
			msg = msg[len(msg)-500:]
		}
		if msg != "" {
			return out, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}
