package brightness

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTool struct {
	mu     sync.Mutex
	result Result
	err    error
	gets   int
	block  chan struct{}
	onGet  func(ctx context.Context)
	setErr error
	sets   chan int
}

func newFakeTool(stdout string) *fakeTool {
	return &fakeTool{
		result: Result{Stdout: stdout},
		sets:   make(chan int, 16),
	}
}

func (f *fakeTool) Get(ctx context.Context) (Result, error) {
	f.mu.Lock()
	f.gets++
	res, err, block, onGet := f.result, f.err, f.block, f.onGet
	f.mu.Unlock()

	if onGet != nil {
		onGet(ctx)
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}
	return res, err
}

func (f *fakeTool) Set(_ context.Context, level int) error {
	f.sets <- level
	return f.setErr
}

func (f *fakeTool) respond(res Result, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.result, f.err = res, err
}

func (f *fakeTool) setBlock(ch chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.block = ch
}

func (f *fakeTool) getCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets
}

type fakeControl struct {
	mu       sync.Mutex
	values   []float64
	visibles []bool
}

func (c *fakeControl) SetVisible(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visibles = append(c.visibles, v)
}

func (c *fakeControl) SetValue(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = append(c.values, v)
}

func (c *fakeControl) snapshot() ([]float64, []bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]float64(nil), c.values...), append([]bool(nil), c.visibles...)
}

func newTestSync(tool Tool, control Control) *Sync {
	return New(tool, control, Options{Interval: time.Hour})
}

func TestPollReportsLevel(t *testing.T) {
	for _, level := range []int{0, 1, 42, 99, 100} {
		tool := newFakeTool(FormatReport(level) + "\n")
		control := &fakeControl{}
		s := newTestSync(tool, control)

		require.Equal(t, Visible, s.Poll(context.Background()))
		assert.Equal(t, State{Level: level, Known: true, Visible: true}, s.State())

		values, visibles := control.snapshot()
		assert.Equal(t, []float64{float64(level) / 100}, values)
		assert.Equal(t, []bool{true}, visibles)
	}
}

func TestPollUnavailableKeepsLevel(t *testing.T) {
	cases := []struct {
		name string
		res  Result
		err  error
	}{
		{name: "non-zero exit", res: Result{ExitStatus: 1, Stdout: "brightness 80"}},
		{name: "spawn error", err: errors.New("exec: \"asdbctl\": executable file not found in $PATH")},
		{name: "wrong keyword", res: Result{Stdout: "foo 42"}},
		{name: "missing level", res: Result{Stdout: "brightness"}},
		{name: "non-integer level", res: Result{Stdout: "brightness high"}},
		{name: "out of range", res: Result{Stdout: "brightness 101"}},
		{name: "empty", res: Result{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tool := newFakeTool("brightness 42")
			control := &fakeControl{}
			s := newTestSync(tool, control)
			require.Equal(t, Visible, s.Poll(context.Background()))

			tool.respond(tc.res, tc.err)
			require.Equal(t, Hidden, s.Poll(context.Background()))

			assert.Equal(t, State{Level: 42, Known: true, Visible: false}, s.State())
			values, visibles := control.snapshot()
			assert.Equal(t, []float64{0.42}, values)
			assert.Equal(t, []bool{true, false}, visibles)
		})
	}
}

func TestPollUnavailableBeforeFirstReport(t *testing.T) {
	tool := newFakeTool("foo 42")
	control := &fakeControl{}
	s := newTestSync(tool, control)

	require.Equal(t, Hidden, s.Poll(context.Background()))
	require.Equal(t, Hidden, s.Poll(context.Background()))

	assert.Equal(t, State{}, s.State())
	values, visibles := control.snapshot()
	assert.Empty(t, values)
	assert.Equal(t, []bool{false}, visibles)
}

func TestPollSameLevelDoesNotUpdate(t *testing.T) {
	tool := newFakeTool("brightness 42")
	control := &fakeControl{}
	s := newTestSync(tool, control)

	require.Equal(t, Visible, s.Poll(context.Background()))
	require.Equal(t, Visible, s.Poll(context.Background()))

	values, visibles := control.snapshot()
	assert.Equal(t, []float64{0.42}, values)
	assert.Equal(t, []bool{true}, visibles)

	tool.respond(Result{Stdout: "brightness 60"}, nil)
	require.Equal(t, Visible, s.Poll(context.Background()))
	values, _ = control.snapshot()
	assert.Equal(t, []float64{0.42, 0.60}, values)
}

func TestHiddenThenRecoveredSameLevel(t *testing.T) {
	tool := newFakeTool("brightness 42")
	control := &fakeControl{}
	s := newTestSync(tool, control)

	s.Poll(context.Background())
	tool.respond(Result{ExitStatus: 1}, nil)
	s.Poll(context.Background())
	tool.respond(Result{Stdout: "brightness 42"}, nil)
	require.Equal(t, Visible, s.Poll(context.Background()))

	values, visibles := control.snapshot()
	assert.Equal(t, []float64{0.42}, values)
	assert.Equal(t, []bool{true, false, true}, visibles)
}

func TestOnUserSetFloors(t *testing.T) {
	cases := []struct {
		value float64
		want  int
	}{
		{0.456, 45},
		{0.999, 99},
		{0.5, 50},
		{0, 0},
		{1, 100},
		{1.5, 100},
		{-0.2, 0},
	}

	tool := newFakeTool("brightness 10")
	control := &fakeControl{}
	s := newTestSync(tool, control)
	t.Cleanup(func() { _ = s.Stop() })

	for _, tc := range cases {
		got := s.OnUserSet(tc.value)
		assert.Equal(t, tc.want, got, "OnUserSet(%v)", tc.value)

		select {
		case level := <-tool.sets:
			assert.Equal(t, tc.want, level, "setter argument for %v", tc.value)
		case <-time.After(time.Second):
			t.Fatalf("setter not invoked for %v", tc.value)
		}
	}
}

func TestOnUserSetLeavesStateForNextPoll(t *testing.T) {
	tool := newFakeTool("brightness 42")
	control := &fakeControl{}
	s := newTestSync(tool, control)
	t.Cleanup(func() { _ = s.Stop() })

	s.Poll(context.Background())
	tool.setErr = errors.New("device busy")

	require.Equal(t, 50, s.OnUserSet(0.5))
	require.Equal(t, 50, <-tool.sets)

	assert.Equal(t, State{Level: 42, Known: true, Visible: true}, s.State())
	values, visibles := control.snapshot()
	assert.Equal(t, []float64{0.42}, values)
	assert.Equal(t, []bool{true}, visibles)

	tool.respond(Result{Stdout: "brightness 50"}, nil)
	s.Poll(context.Background())
	assert.Equal(t, 50, s.State().Level)
}

func TestSetLevelClamps(t *testing.T) {
	tool := newFakeTool("brightness 10")
	s := newTestSync(tool, nil)
	t.Cleanup(func() { _ = s.Stop() })

	assert.Equal(t, 100, s.SetLevel(250))
	assert.Equal(t, 100, <-tool.sets)
	assert.Equal(t, 0, s.SetLevel(-3))
	assert.Equal(t, 0, <-tool.sets)
}

func TestStartPollsImmediatelyAndRepeats(t *testing.T) {
	tool := newFakeTool("brightness 42")
	control := &fakeControl{}
	s := New(tool, control, Options{Interval: 20 * time.Millisecond})

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, State{Level: 42, Known: true, Visible: true}, s.State())

	require.Eventually(t, func() bool { return tool.getCount() >= 3 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop())

	after := tool.getCount()
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, after, tool.getCount())

	values, _ := control.snapshot()
	assert.Equal(t, []float64{0.42}, values)
}

func TestStartTwice(t *testing.T) {
	s := newTestSync(newFakeTool("brightness 1"), nil)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop() })

	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyStarted)
}

func TestStartAfterStop(t *testing.T) {
	s := newTestSync(newFakeTool("brightness 1"), nil)
	require.NoError(t, s.Stop())
	assert.ErrorIs(t, s.Start(context.Background()), ErrStopped)
}

func TestStopWithoutStart(t *testing.T) {
	s := newTestSync(newFakeTool("brightness 1"), nil)
	assert.NoError(t, s.Stop())
	assert.NoError(t, s.Stop())
}

func TestPollAfterStopIsSkipped(t *testing.T) {
	tool := newFakeTool("brightness 1")
	s := newTestSync(tool, nil)
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop())

	before := tool.getCount()
	assert.Equal(t, Skipped, s.Poll(context.Background()))
	assert.Equal(t, before, tool.getCount())
}

func TestOverlappingPollIsSkipped(t *testing.T) {
	tool := newFakeTool("brightness 42")
	block := make(chan struct{})
	tool.setBlock(block)
	s := newTestSync(tool, nil)

	first := make(chan Outcome, 1)
	go func() { first <- s.Poll(context.Background()) }()
	require.Eventually(t, func() bool { return tool.getCount() == 1 }, time.Second, time.Millisecond)

	assert.Equal(t, Skipped, s.Poll(context.Background()))
	assert.Equal(t, 1, tool.getCount())

	close(block)
	assert.Equal(t, Visible, <-first)
}

func TestStopCancelsInFlightPoll(t *testing.T) {
	tool := newFakeTool("brightness 42")
	control := &fakeControl{}
	s := newTestSync(tool, control)
	require.NoError(t, s.Start(context.Background()))

	tool.setBlock(make(chan struct{}))
	done := make(chan Outcome, 1)
	go func() { done <- s.Poll(context.Background()) }()
	require.Eventually(t, func() bool { return tool.getCount() == 2 }, time.Second, time.Millisecond)

	require.NoError(t, s.Stop())
	select {
	case outcome := <-done:
		assert.Equal(t, Skipped, outcome)
	case <-time.After(time.Second):
		t.Fatal("in-flight poll was not cancelled by Stop")
	}

	assert.Equal(t, State{Level: 42, Known: true, Visible: true}, s.State())
	values, visibles := control.snapshot()
	assert.Equal(t, []float64{0.42}, values)
	assert.Equal(t, []bool{true}, visibles)
}

func TestStopDuringFirstPollAbortsStart(t *testing.T) {
	tool := newFakeTool("brightness 42")
	control := &fakeControl{}
	s := New(tool, control, Options{Interval: 10 * time.Millisecond})

	stopped := make(chan error, 1)
	tool.onGet = func(ctx context.Context) {
		go func() { stopped <- s.Stop() }()
		<-ctx.Done()
	}

	assert.ErrorIs(t, s.Start(context.Background()), ErrStopped)
	require.NoError(t, <-stopped)

	after := tool.getCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, tool.getCount())
	assert.Equal(t, State{}, s.State())

	values, visibles := control.snapshot()
	assert.Empty(t, values)
	assert.Empty(t, visibles)
}

func TestSetIntervalReschedules(t *testing.T) {
	tool := newFakeTool("brightness 42")
	s := newTestSync(tool, nil)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop() })

	require.NoError(t, s.SetInterval(20*time.Millisecond))
	assert.Equal(t, 20*time.Millisecond, s.Interval())
	require.Eventually(t, func() bool { return tool.getCount() >= 3 }, 2*time.Second, 5*time.Millisecond)

	assert.Error(t, s.SetInterval(0))
}

func TestControlsFanOut(t *testing.T) {
	a, b := &fakeControl{}, &fakeControl{}
	cs := Controls{a, b}
	cs.SetVisible(true)
	cs.SetValue(0.3)

	for _, c := range []*fakeControl{a, b} {
		values, visibles := c.snapshot()
		assert.Equal(t, []float64{0.3}, values)
		assert.Equal(t, []bool{true}, visibles)
	}
}
