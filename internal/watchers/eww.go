package watchers

import (
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"sync"
	"time"
)

const DefaultEwwPrefix = "BRIGHTNESS"

// EwwControl mirrors the brightness slider into eww variables:
// <PREFIX>_LEVEL (0-100), <PREFIX>_VISIBLE and, when OSD is set, a
// short-lived <PREFIX>_OSD flag after each level change.
type EwwControl struct {
	Prefix string
	OSD    time.Duration
	Run    func(name string, args ...string) error

	mu     sync.Mutex
	seeded bool
}

func NewEwwControl(prefix string, osd time.Duration) *EwwControl {
	if prefix == "" {
		prefix = DefaultEwwPrefix
	}
	return &EwwControl{Prefix: prefix, OSD: osd}
}

func (e *EwwControl) SetVisible(visible bool) {
	e.update(e.Prefix+"_VISIBLE", visible)
}

func (e *EwwControl) SetValue(value float64) {
	e.update(e.Prefix+"_LEVEL", int(math.Round(value*100)))

	e.mu.Lock()
	first := !e.seeded
	e.seeded = true
	e.mu.Unlock()

	if first || e.OSD <= 0 {
		return
	}
	go func() {
		e.update(e.Prefix+"_OSD", true)
		time.Sleep(e.OSD)
		e.update(e.Prefix+"_OSD", false)
	}()
}

func (e *EwwControl) update(variable string, value any) {
	run := e.Run
	if run == nil {
		run = runCommand
	}
	if err := run("eww", "update", fmt.Sprintf("%s=%v", variable, value)); err != nil {
		slog.Debug("eww update failed", "variable", variable, "error", err)
	}
}

func runCommand(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}
