package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/padraicbc/f1predict/points"
)

type fakeRecomputer struct {
	calls atomic.Int32
	err   error
}

func (f *fakeRecomputer) RecomputeAll(context.Context) (points.Summary, error) {
	f.calls.Add(1)
	return points.Summary{Races: []points.RaceReport{{RaceID: 1}}}, f.err
}

func TestSchedulerRuns(t *testing.T) {
	f := &fakeRecomputer{}
	s := NewPointsScheduler(f, "* * * * * *", zaptest.NewLogger(t))
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool { return f.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}

func TestSchedulerInvalidSpec(t *testing.T) {
	s := NewPointsScheduler(&fakeRecomputer{}, "0 0 * * *", zaptest.NewLogger(t))
	assert.Error(t, s.Start(), "five fields are rejected when seconds are required")
}

func TestRunLogsFailure(t *testing.T) {
	f := &fakeRecomputer{err: errors.New("boom")}
	s := NewPointsScheduler(f, "@hourly", zaptest.NewLogger(t))
	s.run()
	assert.Equal(t, int32(1), f.calls.Load())
}
