package displayinfo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hoppxi/brightsync/internal/brightness"
)

const DefaultRoot = "/sys/class/backlight"

// Backlight reads and writes a kernel backlight device directly. It speaks
// the same report line as the external tool so it can stand in for it.
type Backlight struct {
	Root   string
	Device string
}

func readInt(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	s := strings.TrimSpace(string(data))
	return strconv.Atoi(s)
}

func (b *Backlight) device() (string, error) {
	root := b.Root
	if root == "" {
		root = DefaultRoot
	}
	if b.Device != "" {
		return filepath.Join(root, b.Device), nil
	}

	paths, err := filepath.Glob(filepath.Join(root, "*"))
	if err != nil || len(paths) == 0 {
		return "", errors.New("no backlight devices found")
	}
	return paths[0], nil
}

func (b *Backlight) maxBrightness(device string) (int, error) {
	maxVal, err := readInt(filepath.Join(device, "max_brightness"))
	if err != nil {
		return 0, err
	}
	if maxVal <= 0 {
		return 0, errors.New("invalid max_brightness value")
	}
	return maxVal, nil
}

// Level returns the current brightness as a percentage.
func (b *Backlight) Level() (int, error) {
	device, err := b.device()
	if err != nil {
		return 0, err
	}

	current, err := readInt(filepath.Join(device, "brightness"))
	if err != nil {
		return 0, err
	}

	maxVal, err := b.maxBrightness(device)
	if err != nil {
		return 0, err
	}

	percent := int(math.Round(float64(current) / float64(maxVal) * 100.0))
	return brightness.ClampLevel(percent), nil
}

func (b *Backlight) Get(_ context.Context) (brightness.Result, error) {
	level, err := b.Level()
	if err != nil {
		return brightness.Result{ExitStatus: 1, Stderr: err.Error()}, nil
	}
	return brightness.Result{Stdout: brightness.FormatReport(level) + "\n"}, nil
}

func (b *Backlight) Set(_ context.Context, level int) error {
	device, err := b.device()
	if err != nil {
		return err
	}

	maxVal, err := b.maxBrightness(device)
	if err != nil {
		return err
	}

	raw := int(math.Round(float64(brightness.ClampLevel(level)) * float64(maxVal) / 100.0))
	if err := os.WriteFile(filepath.Join(device, "brightness"), []byte(strconv.Itoa(raw)), 0o644); err != nil {
		return fmt.Errorf("failed to write backlight: %w", err)
	}
	return nil
}
