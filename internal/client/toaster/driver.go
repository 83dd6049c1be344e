package toaster

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/simpleshare/internal/logging"
)

// DefaultTick is the aging period: one tick takes one second off a toast.
const DefaultTick = time.Second

// Driver attaches a repeating timer to each toast in a Queue, ages it on
// every tick and removes it once its duration reaches zero.
//
// Passes run on the driver's own goroutine whenever Notify is called; the
// store calls Notify after every toaster mutation. Tick goroutines only call
// Queue.Age.
type Driver struct {
	q      Queue
	logger logging.Logger
	tick   time.Duration

	notify chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	timers map[int]context.CancelFunc
	closed bool

	startOnce sync.Once
	closeOnce sync.Once
}

func NewDriver(q Queue, logger logging.Logger, tick time.Duration) *Driver {
	if tick <= 0 {
		tick = DefaultTick
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Driver{
		q:      q,
		logger: logger,
		tick:   tick,
		notify: make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
		timers: make(map[int]context.CancelFunc),
	}
}

// Start launches the pass loop. It runs one pass immediately so toasts
// pushed before Start are picked up.
func (d *Driver) Start() {
	d.startOnce.Do(func() {
		d.wg.Add(1)
		go d.loop()
		d.Notify()
	})
}

func (d *Driver) loop() {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case <-d.notify:
			d.Pass(d.ctx)
		}
	}
}

// Notify schedules a pass. Calls made while a pass is pending coalesce.
func (d *Driver) Notify() {
	select {
	case d.notify <- struct{}{}:
	default:
	}
}

// Pass walks the queue once. It is exported for callers that drive the
// queue without Start.
func (d *Driver) Pass(ctx context.Context) {
	toasts := d.q.Toasts()
	live := make(map[int]struct{}, len(toasts))

	for _, t := range toasts {
		switch {
		case !t.Valid():
			d.logger.Warn(ctx, "dropping toast without id", "message", t.Message)
			d.stopTimer(t.ID)
			d.q.Dismiss(t.ID)

		case !t.HasTimer:
			live[t.ID] = struct{}{}
			if d.startTimer(t.ID) {
				d.q.SetTimer(t.ID, true)
			}

		case t.Duration <= 0:
			d.stopTimer(t.ID)
			d.q.Dismiss(t.ID)

		default:
			live[t.ID] = struct{}{}
			// marked as timed but nothing is ticking, e.g. after a restore
			if !d.hasTimer(t.ID) {
				d.startTimer(t.ID)
			}
		}
	}

	d.dropOrphans(live)
}

// Dismiss removes a toast on the user's request, stopping its timer first.
func (d *Driver) Dismiss(id int) {
	d.stopTimer(id)
	d.q.Dismiss(id)
}

// Active returns the number of running timers.
func (d *Driver) Active() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}

// Close stops every timer and the pass loop and waits for their goroutines.
func (d *Driver) Close() {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		for id, cancel := range d.timers {
			cancel()
			delete(d.timers, id)
		}
		d.mu.Unlock()

		d.cancel()
		d.wg.Wait()
	})
}

// startTimer reports whether a timer is running for id afterwards.
func (d *Driver) startTimer(id int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return false
	}
	if _, ok := d.timers[id]; ok {
		return true
	}

	ctx, cancel := context.WithCancel(d.ctx)
	d.timers[id] = cancel

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ticker := time.NewTicker(d.tick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				d.q.Age(id)
			}
		}
	}()
	return true
}

// stopTimer cancels the timer for id, if any, and forgets it.
func (d *Driver) stopTimer(id int) {
	d.mu.Lock()
	cancel, ok := d.timers[id]
	delete(d.timers, id)
	d.mu.Unlock()

	if ok {
		cancel()
	}
}

func (d *Driver) hasTimer(id int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.timers[id]
	return ok
}

// dropOrphans stops timers whose toast left the queue without going through
// the driver.
func (d *Driver) dropOrphans(live map[int]struct{}) {
	d.mu.Lock()
	var orphans []context.CancelFunc
	for id, cancel := range d.timers {
		if _, ok := live[id]; !ok {
			orphans = append(orphans, cancel)
			delete(d.timers, id)
		}
	}
	d.mu.Unlock()

	for _, cancel := range orphans {
		cancel()
	}
}
