// Package bridge wires the polling transport, the RPC endpoint, and the
// host's tick scheduler into one lifecycle.
package bridge

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultTickInterval mirrors the roughly-100ms cadence the embedding hosts
// grant their periodic callbacks. It is a cadence, not a real-time bound.
const DefaultTickInterval = 100 * time.Millisecond

// Scheduler is the host's single concurrency primitive: run fn once, roughly
// delay from now. The driver re-arms itself through it every cycle.
type Scheduler interface {
	Schedule(delay time.Duration, fn func())
}

// AfterFuncScheduler backs the standalone daemon with the process timer heap
// when there is no embedding host to supply ticks.
type AfterFuncScheduler struct{}

func (AfterFuncScheduler) Schedule(delay time.Duration, fn func()) {
	time.AfterFunc(delay, fn)
}

// poller is the multiplexer surface the driver needs.
type poller interface {
	Process()
	Shutdown()
}

// Driver ties the multiplexer's poll step to the host tick. A failing cycle
// is logged and swallowed — the next cycle is always scheduled until
// Shutdown. This is the availability guarantee of the whole service.
//
// The mutex exists because the standalone scheduler and signal handling live
// on different goroutines; inside an embedding host everything runs on one
// thread and the lock is never contended.
type Driver struct {
	mu       sync.Mutex
	mux      poller
	sched    Scheduler
	interval time.Duration
	logger   *slog.Logger
	stopped  bool
}

func NewDriver(mux poller, sched Scheduler, interval time.Duration, logger *slog.Logger) *Driver {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{mux: mux, sched: sched, interval: interval, logger: logger}
}

// Start arms the first poll cycle.
func (d *Driver) Start() {
	d.sched.Schedule(d.interval, d.tick)
}

func (d *Driver) tick() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.runCycle()
	d.mu.Unlock()
	d.sched.Schedule(d.interval, d.tick)
}

func (d *Driver) runCycle() {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("poll cycle panicked", "panic", r)
		}
	}()
	d.mux.Process()
}

// Shutdown stops future cycles and tears the multiplexer down. A tick
// already scheduled when Shutdown runs becomes a no-op.
func (d *Driver) Shutdown() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.stopped = true
	d.mux.Shutdown()
}
