package manager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hoppxi/brightsync/internal/brightness"
)

// Controller is the part of brightness.Sync the IPC server drives.
type Controller interface {
	State() brightness.State
	Poll(ctx context.Context) brightness.Outcome
	OnUserSet(value float64) int
	SetLevel(level int) int
}

type AppManager struct {
	// SocketPath overrides the default IPC socket location.
	SocketPath string

	mu       sync.Mutex
	stops    []chan struct{}
	wg       sync.WaitGroup
	listener net.Listener
	ctrl     Controller
	cancel   context.CancelFunc
	running  bool
}

var Manage = &AppManager{}

func getSocketPath() string {
	var baseDir string
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		baseDir = runtimeDir
	} else {
		baseDir = os.TempDir()
	}

	socketDir := filepath.Join(baseDir, "brightsync")
	if err := os.MkdirAll(socketDir, 0o755); err != nil {
		return filepath.Join(os.TempDir(), "brightsync-socket.sock")
	}
	return filepath.Join(socketDir, "socket.sock")
}

func (m *AppManager) socketPath() string {
	if m.SocketPath != "" {
		return m.SocketPath
	}
	return getSocketPath()
}

func (m *AppManager) setController(c Controller) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ctrl = c
}

func (m *AppManager) controller() Controller {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ctrl
}

func (m *AppManager) listen() (net.Listener, error) {
	socketPath := m.socketPath()
	_ = os.Remove(socketPath)

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("error listening on socket: %w", err)
	}

	m.mu.Lock()
	m.listener = listener
	m.mu.Unlock()

	slog.Info("IPC server listening", "socket", socketPath)
	return listener, nil
}

func (m *AppManager) serve(listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}
		go m.handleConnection(conn)
	}
}

func (m *AppManager) handleConnection(conn net.Conn) {
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1024)
	n, err := conn.Read(buf)
	if err != nil {
		return
	}

	reply, stop := m.dispatch(string(buf[:n]))
	_, _ = conn.Write([]byte(reply))

	if stop {
		slog.Info("received STOP via IPC, shutting down")
		// Close immediately so client doesn't hang
		_ = conn.Close()
		m.Shutdown()
	}
}

// dispatch executes one IPC command line and returns the reply. The boolean
// is true when the daemon should shut down.
func (m *AppManager) dispatch(line string) (string, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "ERR: empty command", false
	}

	command := strings.ToUpper(fields[0])
	switch command {
	case "STATUS":
		return "OK: running", false
	case "STOP":
		return "OK: Shutting down.", true
	}

	ctrl := m.controller()
	if ctrl == nil {
		return "ERR: brightness sync not running", false
	}

	switch command {
	case "GET":
		return "OK: " + ctrl.State().String(), false

	case "POLL":
		return "OK: " + ctrl.Poll(context.Background()).String(), false

	case "SET":
		if len(fields) != 2 {
			return "ERR: usage: SET <fraction>|<percent>%", false
		}
		arg := fields[1]
		if pct, ok := strings.CutSuffix(arg, "%"); ok {
			level, err := strconv.Atoi(pct)
			if err != nil {
				return fmt.Sprintf("ERR: invalid percentage %q", arg), false
			}
			return fmt.Sprintf("OK: %d", ctrl.SetLevel(level)), false
		}
		value, err := strconv.ParseFloat(arg, 64)
		if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
			return fmt.Sprintf("ERR: invalid value %q", arg), false
		}
		return fmt.Sprintf("OK: %d", ctrl.OnUserSet(value)), false
	}

	return "ERR: unknown command", false
}

// StartWatcher runs f until StopAll, restarting it if it returns or panics.
func (m *AppManager) StartWatcher(f func(stop <-chan struct{})) {
	stop := make(chan struct{})
	m.mu.Lock()
	m.stops = append(m.stops, stop)
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for {
			func() {
				defer func() {
					if r := recover(); r != nil {
						slog.Error("watcher panic", "panic", r)
					}
				}()
				f(stop)
			}()

			select {
			case <-stop:
				return
			case <-time.After(2 * time.Second):
				slog.Info("restarting watcher")
			}
		}
	}()
}

// StopAll stops every watcher and the IPC listener.
func (m *AppManager) StopAll() {
	m.mu.Lock()
	stops := m.stops
	listener := m.listener
	m.stops = nil
	m.listener = nil
	m.mu.Unlock()

	for _, s := range stops {
		close(s)
	}
	if listener != nil {
		_ = listener.Close()
	}
	m.wg.Wait()
}

// Shutdown asks a running daemon to return from Run.
func (m *AppManager) Shutdown() {
	m.mu.Lock()
	cancel := m.cancel
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (m *AppManager) ConnectIPC() (net.Conn, error) {
	return net.DialTimeout("unix", m.socketPath(), 500*time.Millisecond)
}

func (m *AppManager) SendIPCCommand(cmd string) (string, error) {
	conn, err := m.ConnectIPC()
	if err != nil {
		return "", err
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(cmd)); err != nil {
		return "", err
	}

	buf := make([]byte, 1024)
	n, err := conn.Read(buf)
	if err != nil && err != io.EOF {
		return "", err
	}

	return string(buf[:n]), nil
}
