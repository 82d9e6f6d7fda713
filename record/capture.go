package record

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
)

// ExecRecorder captures audio by running an external command (arecord,
// ffmpeg, sox, ...) that writes to a file until stopped. Pause and resume
// are implemented with SIGSTOP/SIGCONT on the capture process.
type ExecRecorder struct {
	command string
	args    []string
	dir     string

	cmd  *exec.Cmd
	path string
}

// NewExecRecorder builds a recorder that runs command with args, appending
// the output file path as the final argument. Captures land under dir.
func NewExecRecorder(command string, args []string, dir string) *ExecRecorder {
	return &ExecRecorder{command: command, args: args, dir: dir}
}

func (r *ExecRecorder) Start(ctx context.Context) error {
	if _, err := exec.LookPath(r.command); err != nil {
		return fmt.Errorf("capture command %q not found: %w", r.command, err)
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create capture dir: %w", err)
	}

	r.path = filepath.Join(r.dir, uuid.NewString()+".wav")

	cmd := exec.Command(r.command, append(append([]string(nil), r.args...), r.path)...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start capture: %w", err)
	}
	r.cmd = cmd
	return nil
}

func (r *ExecRecorder) Pause() error {
	if r.cmd == nil || r.cmd.Process == nil {
		return fmt.Errorf("no active capture")
	}
	return r.cmd.Process.Signal(syscall.SIGSTOP)
}

func (r *ExecRecorder) Resume() error {
	if r.cmd == nil || r.cmd.Process == nil {
		return fmt.Errorf("no active capture")
	}
	return r.cmd.Process.Signal(syscall.SIGCONT)
}

func (r *ExecRecorder) Stop(ctx context.Context) (string, error) {
	if r.cmd == nil || r.cmd.Process == nil {
		return "", fmt.Errorf("no active capture")
	}

	// A paused process cannot handle the interrupt.
	r.cmd.Process.Signal(syscall.SIGCONT)
	r.cmd.Process.Signal(os.Interrupt)

	done := make(chan error, 1)
	go func() { done <- r.cmd.Wait() }()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		r.cmd.Process.Kill()
		<-done
	case <-ctx.Done():
		r.cmd.Process.Kill()
		<-done
	}
	r.cmd = nil

	if _, err := os.Stat(r.path); err != nil {
		return "", fmt.Errorf("capture produced no audio: %w", err)
	}
	return r.path, nil
}

func (r *ExecRecorder) Release() {
	if r.cmd != nil && r.cmd.Process != nil {
		r.cmd.Process.Signal(syscall.SIGCONT)
		r.cmd.Process.Kill()
		r.cmd.Wait()
		r.cmd = nil
	}
	if r.path != "" {
		os.Remove(r.path)
		r.path = ""
	}
}
