package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/commerce/backend/internal/domain/cart"
	"github.com/commerce/backend/internal/domain/identity"
	"github.com/commerce/backend/internal/domain/inventory"
	"github.com/commerce/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recorder struct {
	runs   atomic.Int64
	failed atomic.Int64
}

func (r *recorder) JobRun(_ string, err error) {
	r.runs.Add(1)
	if err != nil {
		r.failed.Add(1)
	}
}

func TestScheduler_Register(t *testing.T) {
	s := New(zap.NewNop())

	require.NoError(t, s.Register("a", "*/5 * * * *", func(context.Context) error { return nil }))
	assert.ErrorIs(t, s.Register("a", "* * * * *", func(context.Context) error { return nil }), ErrDuplicateJob)
	assert.ErrorIs(t, s.Register("b", "every tuesday", func(context.Context) error { return nil }), ErrInvalidSchedule)

	s.Start()
	defer func() { _ = s.Stop(context.Background()) }()
	assert.ErrorIs(t, s.Register("c", "* * * * *", func(context.Context) error { return nil }), ErrSchedulerRunning)
}

func TestScheduler_RunNow(t *testing.T) {
	rec := &recorder{}
	core, logs := observer.New(zap.InfoLevel)
	s := New(zap.New(core), WithRecorder(rec), WithJobTimeout(time.Second))

	var deadline bool
	require.NoError(t, s.Register("ok", "@daily", func(ctx context.Context) error {
		_, deadline = ctx.Deadline()
		return nil
	}))
	require.NoError(t, s.Register("broken", "@daily", func(context.Context) error {
		return errors.New("db down")
	}))

	require.NoError(t, s.RunNow("ok"))
	assert.True(t, deadline, "jobs run with a timeout")
	assert.EqualError(t, s.RunNow("broken"), "db down")
	assert.Error(t, s.RunNow("missing"))

	assert.Equal(t, int64(2), rec.runs.Load())
	assert.Equal(t, int64(1), rec.failed.Load())
	assert.Equal(t, 1, logs.FilterMessage("scheduled job failed").Len())
}

func TestScheduler_StopCancelsJobs(t *testing.T) {
	s := New(zap.NewNop())
	started := make(chan struct{})
	canceled := make(chan struct{})
	require.NoError(t, s.Register("slow", "@every 1s", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		close(canceled)
		return ctx.Err()
	}))
	s.Start()

	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not start")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	<-canceled
	assert.NoError(t, s.Stop(context.Background()), "second stop is a no-op")
}

type mockSessions struct {
	identity.SessionRepository
	mock.Mock
}

func (m *mockSessions) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type mockLevels struct {
	inventory.LevelRepository
	mock.Mock
}

func (m *mockLevels) ReleaseExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type mockCarts struct {
	cart.Repository
	mock.Mock
}

func (m *mockCarts) DeleteAbandoned(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func TestMaintenanceJobs(t *testing.T) {
	sessions := new(mockSessions)
	levels := new(mockLevels)
	carts := new(mockCarts)

	sessions.On("DeleteStale", mock.Anything, mock.MatchedBy(func(cutoff time.Time) bool {
		return time.Since(cutoff) > 6*24*time.Hour
	})).Return(int64(3), nil)
	levels.On("ReleaseExpired", mock.Anything, mock.Anything).Return(int64(0), nil)
	carts.On("DeleteAbandoned", mock.Anything, mock.MatchedBy(func(before time.Time) bool {
		return time.Since(before) > 29*24*time.Hour
	})).Return(int64(0), errors.New("locked"))

	s := New(zap.NewNop())
	cfg := config.SchedulerConfig{
		SessionPurgeSchedule:   "0 3 * * *",
		ReservationSchedule:    "*/5 * * * *",
		AbandonedCartSchedule:  "30 3 * * *",
		AbandonedCartRetention: 30 * 24 * time.Hour,
	}
	require.NoError(t, RegisterMaintenanceJobs(s, Repositories{Sessions: sessions, Levels: levels, Carts: carts}, cfg, 7*24*time.Hour, zap.NewNop()))

	assert.NoError(t, s.RunNow(JobSessionPurge))
	assert.NoError(t, s.RunNow(JobReservationExpiry))
	assert.EqualError(t, s.RunNow(JobAbandonedCarts), "locked")

	sessions.AssertExpectations(t)
	levels.AssertExpectations(t)
	carts.AssertExpectations(t)
}
