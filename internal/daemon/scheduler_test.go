package daemon

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RunsOnInterval(t *testing.T) {
	var runs atomic.Int32
	s := NewScheduler()
	s.AddJob(&Job{
		Name:     "tick",
		Interval: 10 * time.Millisecond,
		Run: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	require.Eventually(t, func() bool { return runs.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	s.Wait()

	statuses := s.GetJobStatuses()
	require.Len(t, statuses, 1)
	assert.Equal(t, "tick", statuses[0].Name)
	assert.GreaterOrEqual(t, statuses[0].Runs, 3)
	assert.False(t, statuses[0].LastRun.IsZero())
}

func TestScheduler_NoCatchUp(t *testing.T) {
	var runs atomic.Int32
	s := NewScheduler()
	s.AddJob(&Job{
		Name:     "slow",
		Interval: 5 * time.Millisecond,
		Run: func(ctx context.Context) error {
			runs.Add(1)
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	time.Sleep(250 * time.Millisecond)
	cancel()
	s.Wait()

	// 50 ticks elapsed but a slow job runs at most once per 100ms.
	assert.LessOrEqual(t, runs.Load(), int32(4))
}

func TestScheduler_RecordsErrors(t *testing.T) {
	s := NewScheduler()
	s.AddJob(&Job{
		Name:     "broken",
		Interval: 10 * time.Millisecond,
		Run: func(ctx context.Context) error {
			return errors.New("boom")
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	require.Eventually(t, func() bool {
		return s.GetJobStatuses()[0].ErrorCount >= 2
	}, 2*time.Second, 5*time.Millisecond)
	cancel()
	s.Wait()

	assert.Equal(t, "boom", s.GetJob("broken").lastError.Error())
	assert.Nil(t, s.GetJob("missing"))
}

func TestScheduler_IgnoresJobsAfterStart(t *testing.T) {
	s := NewScheduler()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.Start(ctx)
	s.AddJob(&Job{Name: "late", Interval: time.Second, Run: func(context.Context) error { return nil }})
	assert.Empty(t, s.GetJobStatuses())
}

func TestHeartbeat_Messages(t *testing.T) {
	n := newFakeNotifier()
	hb := NewHeartbeat(n, 0)
	assert.Equal(t, DefaultHeartbeatInterval, hb.Job().Interval)

	hb.Announce()
	require.NoError(t, hb.beat(context.Background()))

	assert.Equal(t, []string{"honeypot started", "still alive"}, n.healthMessages())
	assert.Equal(t, int64(2), hb.Count())
	assert.WithinDuration(t, time.Now(), hb.Last(), time.Second)
}
