// Package gameloop implements the fixed-rate Game Loop of spec.md §5: a
// single 10Hz ticker driving every subsystem in strict registration order,
// with per-subsystem errors logged and swallowed so one misbehaving
// subsystem never stalls the tick. Grounded on the teacher's deleted
// gameserver/zone_tick.go, which drove its zone subsystems the same way.
package gameloop

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/textworld/internal/observability"
	"github.com/cory-johannsen/textworld/internal/worldstore"
)

// TickContext is passed to every Subsystem on every tick.
type TickContext struct {
	TickNumber   int64
	DeltaSeconds float64
	Paused       bool
}

// Subsystem is one unit of per-tick work. Subsystems are run sequentially,
// in the order they were registered with Loop.Add, per spec.md §5.
type Subsystem interface {
	OnTick(ctx context.Context, tc TickContext) error
}

// SubsystemFunc adapts a plain function to the Subsystem interface, the way
// http.HandlerFunc adapts a function to http.Handler.
type SubsystemFunc func(ctx context.Context, tc TickContext) error

func (f SubsystemFunc) OnTick(ctx context.Context, tc TickContext) error { return f(ctx, tc) }

type registered struct {
	name string
	sub  Subsystem
}

// Loop is the Game Loop scheduler: a fixed-interval ticker that runs every
// registered Subsystem once per tick, in registration order.
type Loop struct {
	interval time.Duration
	subs     []registered
	states   worldstore.GameStateStore
	metrics  *observability.Metrics
	logger   *zap.Logger

	// paused and tickNum are read from the read-only admin status handler on
	// a goroutine other than the one Run ticks on, so both are atomic;
	// gameTime is touched only by the Run goroutine (plus Restore, before
	// Run starts) and needs no synchronization.
	paused   atomic.Bool
	tickNum  atomic.Int64
	gameTime int64

	stop chan struct{}
	done chan struct{}
}

// New builds a Loop. states may be nil, in which case pause state and game
// time are not persisted (used by tests).
func New(interval time.Duration, states worldstore.GameStateStore, metrics *observability.Metrics, logger *zap.Logger) *Loop {
	return &Loop{
		interval: interval,
		states:   states,
		metrics:  metrics,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Add registers a Subsystem to run on every tick, in the order Add is
// called. Must be called before Run.
func (l *Loop) Add(name string, sub Subsystem) {
	l.subs = append(l.subs, registered{name: name, sub: sub})
}

// Restore loads the persisted simulation clock, if a GameStateStore was
// supplied, so a restart resumes the same pause state and game time instead
// of silently resetting to zero.
func (l *Loop) Restore(ctx context.Context) error {
	if l.states == nil {
		return nil
	}
	state, err := l.states.Load(ctx)
	if err != nil {
		return err
	}
	l.paused.Store(state.IsPaused)
	l.gameTime = state.GameTime
	return nil
}

// Pause suspends subsystem execution; registered subsystems still run every
// tick but receive TickContext.Paused == true and must decide for
// themselves whether to no-op, since the Loop has no notion of which
// subsystems are simulation-affecting versus purely administrative.
func (l *Loop) Pause(ctx context.Context) error {
	l.paused.Store(true)
	return l.persist(ctx)
}

// Resume un-suspends the loop.
func (l *Loop) Resume(ctx context.Context) error {
	l.paused.Store(false)
	return l.persist(ctx)
}

// Paused reports the current pause state.
func (l *Loop) Paused() bool { return l.paused.Load() }

// TickNumber reports the number of ticks run so far.
func (l *Loop) TickNumber() int64 { return l.tickNum.Load() }

func (l *Loop) persist(ctx context.Context) error {
	if l.states == nil {
		return nil
	}
	return l.states.Save(ctx, worldstore.GameState{IsPaused: l.paused.Load(), GameTime: l.gameTime})
}

// Run starts the ticker and blocks until ctx is cancelled or Stop is called.
// Satisfies server.Service's Start signature via a thin wrapper at the call
// site (server.FuncService{StartFn: func() error { return loop.Run(ctx) }}).
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	deltaSeconds := l.interval.Seconds()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-l.stop:
			return nil
		case now := <-ticker.C:
			_ = now
			l.runTick(ctx, deltaSeconds)
		}
	}
}

func (l *Loop) runTick(ctx context.Context, deltaSeconds float64) {
	start := time.Now()
	tickNum := l.tickNum.Add(1)
	paused := l.paused.Load()
	if !paused {
		l.gameTime++
	}

	tc := TickContext{TickNumber: tickNum, DeltaSeconds: deltaSeconds, Paused: paused}

	for _, r := range l.subs {
		l.runSubsystem(ctx, r, tc)
	}

	elapsed := time.Since(start)
	if l.metrics != nil {
		l.metrics.TickDuration.Observe(float64(elapsed.Microseconds()) / 1000.0)
		if elapsed > l.interval {
			l.metrics.TickOverrun.Inc()
		}
	}
	if elapsed > l.interval && l.logger != nil {
		l.logger.Warn("game loop tick overran interval",
			zap.Int64("tick", tickNum),
			zap.Duration("elapsed", elapsed),
			zap.Duration("interval", l.interval),
		)
	}
}

// runSubsystem isolates one subsystem's panic/error so it can never abort
// the tick or take down the other subsystems sharing it, per spec.md §5
// ("errors logged and the tick continues").
func (l *Loop) runSubsystem(ctx context.Context, r registered, tc TickContext) {
	defer func() {
		if rec := recover(); rec != nil && l.logger != nil {
			l.logger.Error("game loop subsystem panicked",
				zap.String("subsystem", r.name),
				zap.Any("recovered", rec),
				zap.Int64("tick", tc.TickNumber),
			)
		}
	}()
	if err := r.sub.OnTick(ctx, tc); err != nil && l.logger != nil {
		l.logger.Error("game loop subsystem error",
			zap.String("subsystem", r.name),
			zap.Error(err),
			zap.Int64("tick", tc.TickNumber),
		)
	}
}

// Stop halts Run and, if a GameStateStore is configured, persists the final
// pause state and game time so a restart resumes cleanly. Uses a background
// context for the final persist since the context Run was driven by may
// already be cancelled by the time Stop is called during shutdown.
func (l *Loop) Stop() {
	close(l.stop)
	<-l.done
	if err := l.persist(context.Background()); err != nil && l.logger != nil {
		l.logger.Warn("failed to persist game state on shutdown", zap.Error(err))
	}
}
