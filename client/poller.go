package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// Poller calls Fn every Interval. A tick that arrives while the previous
// call is still running is skipped, and each call gets its own deadline.
type Poller struct {
	Interval time.Duration
	// Timeout bounds one call. Zero means Interval.
	Timeout time.Duration
	Fn      func(ctx context.Context) error
	OnError func(err error)

	inFlight atomic.Bool
	skipped  atomic.Uint64
	runs     atomic.Uint64
}

// Skipped is the number of ticks dropped because a call was still running.
func (p *Poller) Skipped() uint64 { return p.skipped.Load() }

// Runs is the number of calls started.
func (p *Poller) Runs() uint64 { return p.runs.Load() }

// Run polls immediately and then on every tick until ctx ends. It waits for
// the running call to return before returning ctx.Err().
func (p *Poller) Run(ctx context.Context) error {
	if p.Interval <= 0 {
		return errors.New("poller interval must be positive")
	}
	if p.Fn == nil {
		return errors.New("poller has no function")
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	p.tick(ctx, &wg)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.tick(ctx, &wg)
		}
	}
}

func (p *Poller) tick(ctx context.Context, wg *sync.WaitGroup) {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.skipped.Add(1)
		return
	}
	p.runs.Add(1)

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = p.Interval
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer p.inFlight.Store(false)

		callCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := p.Fn(callCtx); err != nil && p.OnError != nil && ctx.Err() == nil {
			p.OnError(err)
		}
	}()
}
