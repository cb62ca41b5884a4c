package agent

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultTelemetryInterval = 1 * time.Second
	DefaultWeatherInterval   = 5 * time.Second
	DefaultStrategyInterval  = 2 * time.Second
)

type Agent interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// loop runs tick immediately and then every interval until it is stopped or
// the context it was started with is done.
type loop struct {
	interval time.Duration
	tick     func(context.Context)
	reset    func()

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func newLoop(interval time.Duration, tick func(context.Context)) *loop {
	return &loop{interval: interval, tick: tick}
}

func (l *loop) running() bool {
	if l.done == nil {
		return false
	}
	select {
	case <-l.done:
		return false
	default:
		return true
	}
}

func (l *loop) start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if l.reset != nil {
		l.reset()
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	l.cancel = cancel
	l.done = done

	go func() {
		defer close(done)
		defer cancel()

		ticker := time.NewTicker(l.interval)
		defer ticker.Stop()
		for {
			l.tick(runCtx)
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return nil
}

// stop cancels the loop and waits for the in-flight tick to return, or for
// ctx to be done.
func (l *loop) stop(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.running() {
		return nil
	}
	l.cancel()
	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
