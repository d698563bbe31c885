package system

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

// Opener launches files with a configured viewer or the OS default
// application. It implements the FileOpener port.
type Opener struct {
	viewer string
}

// NewOpener creates an Opener. viewer may be empty to use the OS default.
func NewOpener(viewer string) *Opener {
	return &Opener{viewer: viewer}
}

// Open opens a file and detaches, so the CLI can exit while the viewer
// stays up
func (o *Opener) Open(ctx context.Context, path string) error {
	var cmd *exec.Cmd

	if o.viewer != "" {
		cmd = exec.CommandContext(ctx, o.viewer, path)
	} else {
		switch runtime.GOOS {
		case "darwin":
			cmd = exec.CommandContext(ctx, "open", path)
		case "windows":
			cmd = exec.CommandContext(ctx, "cmd", "/c", "start", path)
		default:
			cmd = exec.CommandContext(ctx, "xdg-open", path)
		}
	}

	if err := cmd.Start(); err != nil {
		if o.viewer != "" {
			return fmt.Errorf("failed to open '%s' with '%s': %w", path, o.viewer, err)
		}
		return fmt.Errorf("failed to open '%s': %w", path, err)
	}
	return nil
}
