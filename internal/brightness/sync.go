// Package brightness keeps a host brightness slider in step with an external
// brightness tool: it polls the tool's get mode on a fixed interval and
// forwards slider moves to its set mode.
package brightness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"github.com/hoppxi/brightsync/internal/metrics"
)

const (
	DefaultInterval   = 15 * time.Second
	DefaultSetTimeout = 5 * time.Second

	pollJobName = "brightness-poll"
)

var (
	ErrAlreadyStarted = errors.New("brightness sync already started")
	ErrStopped        = errors.New("brightness sync stopped")
)

type Options struct {
	Interval   time.Duration
	SetTimeout time.Duration
	Recorder   metrics.Recorder
	Logger     *slog.Logger
}

// Sync owns the displayed brightness state and the recurring poll job.
type Sync struct {
	tool       Tool
	control    Control
	setTimeout time.Duration
	rec        metrics.Recorder
	log        *slog.Logger

	mu        sync.Mutex
	state     State
	announced bool
	interval  time.Duration
	started   bool
	stopped   bool
	ctx       context.Context
	cancel    context.CancelFunc
	sched     gocron.Scheduler
	jobID     uuid.UUID

	polling atomic.Bool
	wg      sync.WaitGroup
}

func New(tool Tool, control Control, opts Options) *Sync {
	if control == nil {
		control = Controls{}
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.SetTimeout <= 0 {
		opts.SetTimeout = DefaultSetTimeout
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Sync{
		tool:       tool,
		control:    control,
		interval:   opts.Interval,
		setTimeout: opts.SetTimeout,
		rec:        opts.Recorder,
		log:        opts.Logger.With("component", "brightness"),
	}
}

// Start polls once right away and then every interval until Stop.
func (s *Sync) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to create poll scheduler: %w", err)
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.state = State{}
	s.announced = false
	s.started = true
	s.sched = sched
	interval := s.interval
	s.mu.Unlock()

	s.Poll(s.ctx)

	job, err := sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.tick),
		gocron.WithName(pollJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		if s.isStopped() {
			return ErrStopped
		}
		_ = s.Stop()
		return fmt.Errorf("failed to schedule brightness poll: %w", err)
	}

	// Stop may have run while the first poll was in flight.
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	s.jobID = job.ID()
	sched.Start()
	s.mu.Unlock()

	s.log.Info("brightness sync started", "interval", interval)
	return nil
}

// Stop cancels the recurring poll and any in-flight tool invocation and waits
// for them to return. It is safe to call before Start and more than once.
func (s *Sync) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	sched, cancel := s.sched, s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	var err error
	if sched != nil {
		err = sched.Shutdown()
	}
	s.wg.Wait()

	s.log.Info("brightness sync stopped")
	return err
}

// SetInterval reschedules the recurring poll.
func (s *Sync) SetInterval(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("invalid poll interval %s", d)
	}

	s.mu.Lock()
	if s.interval == d {
		s.mu.Unlock()
		return nil
	}
	s.interval = d
	sched, id, running := s.sched, s.jobID, s.started && !s.stopped && s.jobID != uuid.Nil
	s.mu.Unlock()

	if !running {
		return nil
	}

	job, err := sched.Update(
		id,
		gocron.DurationJob(d),
		gocron.NewTask(s.tick),
		gocron.WithName(pollJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to reschedule brightness poll: %w", err)
	}

	s.mu.Lock()
	s.jobID = job.ID()
	s.mu.Unlock()

	s.log.Info("poll interval changed", "interval", d)
	return nil
}

func (s *Sync) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

func (s *Sync) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Sync) tick() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	s.Poll(ctx)
}

// Poll runs one poll cycle. A poll that starts while another is in flight, or
// one that is still running when Stop begins, is dropped and reports Skipped.
func (s *Sync) Poll(ctx context.Context) Outcome {
	if !s.polling.CompareAndSwap(false, true) {
		s.log.Debug("poll already in flight, skipping")
		s.rec.IncPoll(Skipped.String())
		return Skipped
	}
	defer s.polling.Store(false)

	release, ok := s.enter()
	if !ok {
		return Skipped
	}
	defer release()

	ctx, cancel := s.bind(ctx)
	defer cancel()

	start := time.Now()
	level, err := s.read(ctx)
	s.rec.ObservePollDuration(time.Since(start))

	if err != nil {
		if !s.hide() {
			s.rec.IncPoll(Skipped.String())
			return Skipped
		}
		s.log.Debug("brightness tool unavailable", "error", err)
		s.rec.IncPoll(Hidden.String())
		return Hidden
	}

	if !s.show(level) {
		s.rec.IncPoll(Skipped.String())
		return Skipped
	}
	s.rec.IncPoll(Visible.String())
	return Visible
}

// OnUserSet forwards a slider move to the tool. The value is floored to a
// whole percentage; the returned level is what the tool was asked to apply.
func (s *Sync) OnUserSet(value float64) int {
	return s.SetLevel(PercentFromFraction(value))
}

// SetLevel asks the tool to apply level without waiting for the result. The
// displayed state is left for the next poll to reconcile.
func (s *Sync) SetLevel(level int) int {
	level = ClampLevel(level)

	release, ok := s.enter()
	if !ok {
		s.log.Debug("brightness set dropped after stop", "percent", level)
		return level
	}

	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	id := uuid.NewString()
	go func() {
		defer release()

		ctx, cancel := context.WithTimeout(ctx, s.setTimeout)
		defer cancel()

		if err := s.tool.Set(ctx, level); err != nil {
			s.rec.IncSet(metrics.ResultError)
			s.log.Debug("brightness set ignored", "set_id", id, "percent", level, "error", err)
			return
		}
		s.rec.IncSet(metrics.ResultOK)
		s.log.Debug("brightness set", "set_id", id, "percent", level)
	}()

	return level
}

// enter registers an in-flight operation unless the sync has been stopped.
func (s *Sync) enter() (func(), bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil, false
	}
	s.wg.Add(1)
	return s.wg.Done, true
}

// bind ties a caller context to the sync lifetime so Stop cancels it too.
func (s *Sync) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	owner := s.ctx
	s.mu.Unlock()
	if owner == nil {
		return ctx, cancel
	}

	unlink := context.AfterFunc(owner, cancel)
	return ctx, func() {
		unlink()
		cancel()
	}
}

func (s *Sync) read(ctx context.Context) (int, error) {
	res, err := s.tool.Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if res.ExitStatus != 0 {
		return 0, fmt.Errorf("%w: exit status %d: %s", ErrUnavailable, res.ExitStatus, strings.TrimSpace(res.Stderr))
	}

	level, err := ParseReport(res.Stdout)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return level, nil
}

func (s *Sync) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// hide and show apply a poll result. Both report false and leave state and
// controls untouched once Stop has begun.
func (s *Sync) hide() bool {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return false
	}
	changed := s.state.Visible || !s.announced
	s.state.Visible = false
	s.announced = true
	level := s.state.Level
	s.mu.Unlock()

	s.rec.SetBrightness(level, false)
	if changed {
		s.control.SetVisible(false)
	}
	return true
}

func (s *Sync) show(level int) bool {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return false
	}
	visibilityChanged := !s.state.Visible || !s.announced
	levelChanged := !s.state.Known || s.state.Level != level
	s.state = State{Level: level, Known: true, Visible: true}
	s.announced = true
	s.mu.Unlock()

	s.rec.SetBrightness(level, true)
	if visibilityChanged {
		s.control.SetVisible(true)
	}
	if levelChanged {
		s.log.Debug("brightness changed", "percent", level)
		s.control.SetValue(float64(level) / 100)
	}
	return true
}
