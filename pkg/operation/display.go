package operation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/hoppxi/brightsync/internal/brightness"
)

// Display drives an external brightness utility such as asdbctl or
// brightnessctl. SetCommand gets the level appended as its last argument.
type Display struct {
	GetCommand []string
	SetCommand []string
	Timeout    time.Duration
}

// NewDisplay splits the configured command lines on whitespace.
func NewDisplay(getCommand, setCommand string, timeout time.Duration) *Display {
	return &Display{
		GetCommand: strings.Fields(getCommand),
		SetCommand: strings.Fields(setCommand),
		Timeout:    timeout,
	}
}

// Get runs the get command. A non-zero exit is reported in the result, not as
// an error.
func (d *Display) Get(ctx context.Context) (brightness.Result, error) {
	return d.run(ctx, d.GetCommand)
}

// Set runs the set command with level as the final argument.
func (d *Display) Set(ctx context.Context, level int) error {
	args := append(slices.Clone(d.SetCommand), strconv.Itoa(level))
	res, err := d.run(ctx, args)
	if err != nil {
		return fmt.Errorf("failed to set brightness: %w", err)
	}
	if res.ExitStatus != 0 {
		return fmt.Errorf("failed to set brightness: exit status %d: %s", res.ExitStatus, strings.TrimSpace(res.Stderr))
	}
	return nil
}

func (d *Display) run(ctx context.Context, argv []string) (brightness.Result, error) {
	if len(argv) == 0 {
		return brightness.Result{}, errors.New("empty brightness command")
	}

	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := brightness.Result{Stdout: stdout.String(), Stderr: stderr.String()}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return res, fmt.Errorf("%s: %w", argv[0], ctx.Err())
	case errors.As(err, &exitErr):
		res.ExitStatus = exitErr.ExitCode()
	default:
		return res, err
	}
	return res, nil
}
