package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	mu    sync.Mutex
	calls []time.Time
	err   error
	ran   chan struct{}
}

func (f *fakeRunner) Run(_ context.Context, now time.Time) (Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, now)
	err := f.err
	f.mu.Unlock()
	if f.ran != nil {
		select {
		case f.ran <- struct{}{}:
		default:
		}
	}
	return Result{}, err
}

func (f *fakeRunner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestSchedulerRunsOncePerDay(t *testing.T) {
	job := &fakeRunner{}
	s := NewScheduler(job, SchedulerConfig{Hour: 9}, nil)

	tests := []struct {
		at   time.Time
		want bool
	}{
		{time.Date(2026, 3, 10, 8, 59, 0, 0, time.UTC), false},
		{time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), true},
		{time.Date(2026, 3, 10, 9, 1, 0, 0, time.UTC), false},
		{time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC), false},
		{time.Date(2026, 3, 11, 0, 30, 0, 0, time.UTC), false},
		{time.Date(2026, 3, 11, 14, 0, 0, 0, time.UTC), true},
	}
	for _, tt := range tests {
		s.now = func() time.Time { return tt.at }
		if got := s.check(context.Background()); got != tt.want {
			t.Errorf("check() at %v = %v, want %v", tt.at, got, tt.want)
		}
	}
	assert.Equal(t, 2, job.count())
}

func TestSchedulerRetriesFailedRun(t *testing.T) {
	job := &fakeRunner{err: errors.New("db down")}
	s := NewScheduler(job, SchedulerConfig{Hour: 0}, nil)
	s.now = func() time.Time { return time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC) }

	s.check(context.Background())
	job.err = nil
	s.check(context.Background())
	s.check(context.Background())
	assert.Equal(t, 2, job.count())
}

func TestSchedulerStartStop(t *testing.T) {
	job := &fakeRunner{ran: make(chan struct{}, 1)}
	s := NewScheduler(job, SchedulerConfig{Hour: 0, Interval: 10 * time.Millisecond}, nil)

	ctx := context.Background()
	require.NoError(t, s.Start(ctx))
	assert.True(t, s.IsRunning())
	require.NoError(t, s.Start(ctx), "double start is a no-op")

	select {
	case <-job.ran:
	case <-time.After(time.Second):
		t.Fatal("job did not run after start")
	}

	s.Stop()
	assert.False(t, s.IsRunning())
	s.Stop()
	assert.Equal(t, 1, job.count(), "a day's run happens once")
}

func TestRunOnceIgnoresHour(t *testing.T) {
	job := &fakeRunner{}
	s := NewScheduler(job, SchedulerConfig{Hour: 23}, nil)
	s.now = func() time.Time { return time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC) }

	_, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, job.count())
}
