package sync

import (
	"context"

	"github.com/sudomakes/oneway/internal/progress"
)

// Pass is a handle to a pass running in the background.
type Pass struct {
	done chan struct{}
	res  *Result
	err  error
}

// Start runs a pass on its own goroutine and returns immediately. rep is
// called from that goroutine.
func (e *Engine) Start(ctx context.Context, rep progress.Reporter) *Pass {
	return Go(func() (*Result, error) { return e.Run(ctx, rep) })
}

// Go runs fn on its own goroutine and returns a handle to its outcome.
func Go(fn func() (*Result, error)) *Pass {
	p := &Pass{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.res, p.err = fn()
	}()
	return p
}

// Done is closed when the pass finishes.
func (p *Pass) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the pass finishes or ctx is done.
func (p *Pass) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-p.done:
		return p.res, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
