package scheduler_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"jobmate/posting-service/internal/scheduler"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (c *countingSweeper) ExpireFeatured(context.Context) (int, error) {
	c.calls.Add(1)
	return 1, c.err
}

func TestStartRunsImmediately(t *testing.T) {
	sw := &countingSweeper{}
	s := scheduler.New(sw, "@every 1h")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	assert.Eventually(t, func() bool { return sw.calls.Load() == 1 }, time.Second, 10*time.Millisecond)
}

func TestStartRejectsBadSpec(t *testing.T) {
	s := scheduler.New(&countingSweeper{}, "every now and then")
	assert.Error(t, s.Start(context.Background()))
}

func TestRunSweepSurvivesErrors(t *testing.T) {
	sw := &countingSweeper{err: errors.New("db down")}
	s := scheduler.New(sw, "@every 1h")
	s.RunSweep(context.Background())
	s.RunSweep(context.Background())
	assert.Equal(t, int32(2), sw.calls.Load())
}
