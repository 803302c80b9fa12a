package effect

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Ticker is the unit of work a TickDriver schedules.
type Ticker interface {
	Tick(ctx context.Context) (Summary, error)
}

// TickDriver calls Ticker.Tick at a fixed cadence.
//
// Scheduled ticks are counted, never dropped: if a tick takes longer than the
// interval, the missed ticks are replayed one by one as soon as the worker
// catches up.
type TickDriver struct {
	ticker   Ticker
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	pending uint64
	done    uint64
	wake    chan struct{}
}

// NewTickDriver returns a driver that schedules a tick every interval.
//
// Precondition: interval must be > 0; ticker and logger must be non-nil.
func NewTickDriver(ticker Ticker, interval time.Duration, logger *zap.Logger) *TickDriver {
	if interval <= 0 {
		panic("effect.NewTickDriver: interval must be > 0")
	}
	return &TickDriver{
		ticker:   ticker,
		interval: interval,
		logger:   logger,
		wake:     make(chan struct{}, 1),
	}
}

// Schedule queues one tick. It is called by the cadence loop and may be called
// by hosts that drive time themselves.
func (d *TickDriver) Schedule() {
	d.mu.Lock()
	d.pending++
	d.mu.Unlock()
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of scheduled ticks not yet started.
func (d *TickDriver) Pending() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Completed returns the number of ticks run so far.
func (d *TickDriver) Completed() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.done
}

// Run schedules a tick every interval and drains the queue until ctx is
// cancelled. It blocks.
//
// Postcondition: every tick scheduled before cancellation and started before
// cancellation ran to completion.
func (d *TickDriver) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		d.drain(ctx)
	}()

	t := time.NewTicker(d.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case <-t.C:
			d.Schedule()
		}
	}
}

// Start runs the driver in a new goroutine. It returns immediately.
func (d *TickDriver) Start(ctx context.Context) {
	go d.Run(ctx)
}

func (d *TickDriver) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.wake:
		}
		for d.take() {
			if _, err := d.ticker.Tick(ctx); err != nil {
				d.logger.Warn("status tick failed", zap.Error(err))
			}
			d.mu.Lock()
			d.done++
			backlog := d.pending
			d.mu.Unlock()
			if backlog > 0 {
				d.logger.Debug("replaying missed ticks", zap.Uint64("backlog", backlog))
			}
			if ctx.Err() != nil {
				return
			}
		}
	}
}

func (d *TickDriver) take() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == 0 {
		return false
	}
	d.pending--
	return true
}
