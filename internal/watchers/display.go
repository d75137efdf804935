package watchers

import (
	"context"

	"github.com/hoppxi/brightsync/internal/brightness"
	"github.com/hoppxi/brightsync/internal/subscribe"
)

type Poller interface {
	Poll(ctx context.Context) brightness.Outcome
}

// StartDisplayWatcher refreshes brightness as soon as the kernel reports a
// backlight change instead of waiting for the next scheduled poll.
func StartDisplayWatcher(p Poller) func(stop <-chan struct{}) {
	return func(stop <-chan struct{}) {
		watchEvents(p, subscribe.DisplayEvents(stop), stop)
	}
}

func watchEvents(p Poller, events <-chan struct{}, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-events:
			p.Poll(context.Background())
		}
	}
}
