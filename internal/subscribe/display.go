package subscribe

import (
	"errors"
	"log/slog"
	"strings"
	"syscall"
)

// DisplayEvents emits whenever the kernel announces a backlight change. The
// source goroutine exits once stop is closed.
func DisplayEvents(stop <-chan struct{}) <-chan struct{} {
	events := make(chan struct{}, 1)

	go func() {
		fd, err := syscall.Socket(syscall.AF_NETLINK, syscall.SOCK_RAW, syscall.NETLINK_KOBJECT_UEVENT)
		if err != nil {
			slog.Warn("subscribe: failed to open netlink socket", "error", err)
			return
		}
		defer syscall.Close(fd)

		addr := &syscall.SockaddrNetlink{
			Family: syscall.AF_NETLINK,
			Groups: 1, // listen to broadcast uevents
		}
		if err := syscall.Bind(fd, addr); err != nil {
			slog.Warn("subscribe: failed to bind netlink socket", "error", err)
			return
		}

		// Wake up periodically so stop is honoured without another event.
		tv := syscall.Timeval{Sec: 1}
		if err := syscall.SetsockoptTimeval(fd, syscall.SOL_SOCKET, syscall.SO_RCVTIMEO, &tv); err != nil {
			slog.Warn("subscribe: failed to set netlink timeout", "error", err)
			return
		}

		buf := make([]byte, 4096)
		for {
			select {
			case <-stop:
				return
			default:
			}

			n, _, err := syscall.Recvfrom(fd, buf, 0)
			if err != nil {
				if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EINTR) {
					continue
				}
				slog.Debug("subscribe: netlink recv error", "error", err)
				continue
			}

			if IsBacklightChange(buf[:n]) {
				select {
				case events <- struct{}{}:
				default:
				}
			}
		}
	}()

	return events
}

// IsBacklightChange reports whether a raw uevent datagram describes a
// backlight brightness change.
func IsBacklightChange(msg []byte) bool {
	var action, subsystem string
	for _, field := range strings.Split(string(msg), "\x00") {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		switch key {
		case "ACTION":
			action = value
		case "SUBSYSTEM":
			subsystem = value
		}
	}
	return action == "change" && subsystem == "backlight"
}
