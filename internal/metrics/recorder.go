package metrics

import "time"

const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Recorder receives brightness sync observations.
type Recorder interface {
	IncPoll(outcome string)
	ObservePollDuration(d time.Duration)
	SetBrightness(level int, visible bool)
	IncSet(result string)
}

// NoopRecorder discards everything.
type NoopRecorder struct{}

func (NoopRecorder) IncPoll(string) {}
func (NoopRecorder) ObservePollDuration(time.Duration) {}
func (NoopRecorder) SetBrightness(int, bool) {}
func (NoopRecorder) IncSet(string) {}
