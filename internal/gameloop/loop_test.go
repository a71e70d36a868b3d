package gameloop

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSubsystemsRunInRegistrationOrder(t *testing.T) {
	loop := New(5*time.Millisecond, nil, nil, nil)

	var order []string
	loop.Add("a", SubsystemFunc(func(ctx context.Context, tc TickContext) error {
		order = append(order, "a")
		return nil
	}))
	loop.Add("b", SubsystemFunc(func(ctx context.Context, tc TickContext) error {
		order = append(order, "b")
		return nil
	}))

	loop.runTick(context.Background(), loop.interval.Seconds())
	require.Equal(t, []string{"a", "b"}, order)
}

func TestSubsystemErrorDoesNotAbortTick(t *testing.T) {
	loop := New(5*time.Millisecond, nil, nil, nil)

	var ran int32
	loop.Add("failing", SubsystemFunc(func(ctx context.Context, tc TickContext) error {
		return errors.New("boom")
	}))
	loop.Add("next", SubsystemFunc(func(ctx context.Context, tc TickContext) error {
		atomic.AddInt32(&ran, 1)
		return nil
	}))

	loop.runTick(context.Background(), loop.interval.Seconds())
	require.EqualValues(t, 1, atomic.LoadInt32(&ran))
}

func TestSubsystemPanicDoesNotAbortTick(t *testing.T) {
	loop := New(5*time.Millisecond, nil, nil, nil)

	var ran int32
	loop.Add("panics", SubsystemFunc(func(ctx context.Context, tc TickContext) error {
		panic("kaboom")
	}))
	loop.Add("next", SubsystemFunc(func(ctx context.Context, tc TickContext) error {
		atomic.AddInt32(&ran, 1)
		return nil
	}))

	loop.runTick(context.Background(), loop.interval.Seconds())
	require.EqualValues(t, 1, atomic.LoadInt32(&ran))
}

func TestPausedFlagPropagatesToSubsystems(t *testing.T) {
	loop := New(5*time.Millisecond, nil, nil, nil)
	require.NoError(t, loop.Pause(context.Background()))

	var sawPaused bool
	loop.Add("observer", SubsystemFunc(func(ctx context.Context, tc TickContext) error {
		sawPaused = tc.Paused
		return nil
	}))

	loop.runTick(context.Background(), loop.interval.Seconds())
	require.True(t, sawPaused)
}

func TestRunStopsOnContextCancellation(t *testing.T) {
	loop := New(time.Millisecond, nil, nil, nil)

	var ticks int32
	loop.Add("counter", SubsystemFunc(func(ctx context.Context, tc TickContext) error {
		atomic.AddInt32(&ticks, 1)
		return nil
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := loop.Run(ctx)
	require.NoError(t, err)
	require.Greater(t, atomic.LoadInt32(&ticks), int32(0))
}
